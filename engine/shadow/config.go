package shadow

import (
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
)

// Config holds the tunables of the shadow map renderer.
type Config struct {
	// AtlasSize is the width and height in texels of each atlas texture.
	AtlasSize int
	// AtlasCount is the number of atlas textures shadow maps may be packed into.
	AtlasCount int
	// MinRegionSize and MaxRegionSize clamp the size in texels of one shadow map.
	MinRegionSize int
	MaxRegionSize int

	// DepthBias and NormalOffsetScale apply to lights whose settings leave them at zero.
	DepthBias         float32
	NormalOffsetScale float32

	// DirectionalHalfExtent is the half-size in world units of the largest directional cascade.
	DirectionalHalfExtent float32
	DirectionalNear       float32
	DirectionalFar        float32
}

// DefaultConfig returns the configuration used when none is given.
//
// Returns:
//   - Config: the defaults
func DefaultConfig() Config {
	return Config{
		AtlasSize:             light.ShadowMapResolution,
		AtlasCount:            1,
		MinRegionSize:         64,
		MaxRegionSize:         light.ShadowMapResolution,
		DepthBias:             light.DefaultShadowBias,
		NormalOffsetScale:     light.DefaultShadowNormalBiasScale,
		DirectionalHalfExtent: light.DefaultShadowHalfExtent,
		DirectionalNear:       light.DefaultShadowNear,
		DirectionalFar:        light.DefaultShadowFar,
	}
}

// regionSize returns the side in texels of one shadow map of the given size setting.
func (c Config) regionSize(size light.ShadowMapSize) int {
	s := int(float32(c.AtlasSize) * size.Fraction())
	return max(c.MinRegionSize, min(s, c.MaxRegionSize, c.AtlasSize))
}
