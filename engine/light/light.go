package light

import (
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/chewxy/math32"
)

// LightTypeTag identifies the kind of a light. Renderers register for the tags they can draw.
type LightTypeTag string

const (
	// TagAmbient is the tag of Ambient lights.
	TagAmbient LightTypeTag = "ambient"
	// TagDirectional is the tag of Directional lights.
	TagDirectional LightTypeTag = "directional"
	// TagPoint is the tag of Point lights.
	TagPoint LightTypeTag = "point"
	// TagSpot is the tag of Spot lights.
	TagSpot LightTypeTag = "spot"
	// TagSkybox is the tag of Skybox lights.
	TagSkybox LightTypeTag = "skybox"
)

// RenderGroupMask is a bitset of the render groups a light affects or a view shows.
// Bit i set means render group i.
type RenderGroupMask uint32

// RenderGroupMaskAll selects every render group.
const RenderGroupMaskAll RenderGroupMask = 0xFFFFFFFF

// Contains reports whether render group index group is part of the mask.
func (m RenderGroupMask) Contains(group int) bool {
	return m&(1<<uint(group)) != 0
}

// LightType is the type-specific part of a light. Every light kind in this package
// implements it; other packages may add their own kinds with new tags.
type LightType interface {
	// Tag returns the kind of the light.
	//
	// Returns:
	//   - LightTypeTag: the tag renderers are registered under
	Tag() LightTypeTag
}

// DirectLight is a LightType with a position or direction and a falloff model.
//
// Direct lights can cast shadows and, except for directional lights, have a bounded area of influence.
type DirectLight interface {
	LightType

	// Shadow returns the shadow settings of the light.
	//
	// Returns:
	//   - *ShadowSettings: the settings, never nil
	Shadow() *ShadowSettings

	// HasBoundingBox reports whether the light's influence is bounded.
	// Lights without bounds are never frustum-culled.
	//
	// Returns:
	//   - bool: true if ComputeBounds yields a meaningful box
	HasBoundingBox() bool

	// ComputeBounds returns the world-space box of the light's influence.
	//
	// Parameters:
	//   - position: the world-space light position
	//   - direction: the normalized world-space light direction
	//
	// Returns:
	//   - common.BoundingBox: the influence box
	ComputeBounds(position, direction [3]float32) common.BoundingBox
}

// Ambient is a uniform light with no position or direction.
type Ambient struct{}

// Tag implements LightType.
func (a *Ambient) Tag() LightTypeTag { return TagAmbient }

// Directional is a light infinitely far away that shines along a direction, like the sun.
type Directional struct {
	ShadowConfig ShadowSettings
}

var _ DirectLight = &Directional{}

// Tag implements LightType.
func (d *Directional) Tag() LightTypeTag { return TagDirectional }

// Shadow implements DirectLight.
func (d *Directional) Shadow() *ShadowSettings { return &d.ShadowConfig }

// HasBoundingBox implements DirectLight. Directional lights reach everywhere.
func (d *Directional) HasBoundingBox() bool { return false }

// ComputeBounds implements DirectLight.
func (d *Directional) ComputeBounds(position, direction [3]float32) common.BoundingBox {
	return common.BoundingBox{}
}

// Point is a light emitting in every direction from a position up to Radius.
type Point struct {
	Radius       float32
	ShadowConfig ShadowSettings
}

var _ DirectLight = &Point{}

// Tag implements LightType.
func (p *Point) Tag() LightTypeTag { return TagPoint }

// Shadow implements DirectLight.
func (p *Point) Shadow() *ShadowSettings { return &p.ShadowConfig }

// HasBoundingBox implements DirectLight.
func (p *Point) HasBoundingBox() bool { return true }

// ComputeBounds implements DirectLight.
func (p *Point) ComputeBounds(position, direction [3]float32) common.BoundingBox {
	return common.NewBoundingBoxFromSphere(position, p.Radius)
}

// InvSquareRadius returns 1/Radius² as consumed by the attenuation function.
func (p *Point) InvSquareRadius() float32 {
	return 1 / math32.Max(p.Radius*p.Radius, epsilon)
}

// TextureFlipMode mirrors a projected texture.
type TextureFlipMode int

const (
	// FlipNone projects the texture unchanged.
	FlipNone TextureFlipMode = iota
	// FlipX mirrors the texture horizontally.
	FlipX
	// FlipY mirrors the texture vertically.
	FlipY
	// FlipXY mirrors the texture on both axes.
	FlipXY
)

// Spot is a light shining in a cone from a position along a direction.
// Angles are half-angles of the cone in degrees.
type Spot struct {
	Range      float32
	AngleInner float32
	AngleOuter float32

	// ProjectiveTexture, when set, is projected through the cone like a slide projector.
	ProjectiveTexture *common.Texture
	FlipMode          TextureFlipMode
	UVScale           [2]float32
	UVOffset          [2]float32

	ShadowConfig ShadowSettings
}

var _ DirectLight = &Spot{}

// Tag implements LightType.
func (s *Spot) Tag() LightTypeTag { return TagSpot }

// Shadow implements DirectLight.
func (s *Spot) Shadow() *ShadowSettings { return &s.ShadowConfig }

// HasBoundingBox implements DirectLight.
func (s *Spot) HasBoundingBox() bool { return true }

// ComputeBounds implements DirectLight. The box covers the apex and the cone's base disk.
func (s *Spot) ComputeBounds(position, direction [3]float32) common.BoundingBox {
	dir := common.Normalize3(direction)
	center := common.Add3(position, common.Scale3(dir, s.Range))
	radius := s.Range * math32.Tan(degToRad(s.AngleOuter))

	box := common.BoundingBox{Min: position, Max: position}
	for _, c := range common.Components {
		n := c.Get(dir)
		e := radius * math32.Sqrt(math32.Max(0, 1-n*n))
		lo, hi := c.Get(center)-e, c.Get(center)+e
		box.Min[c] = math32.Min(box.Min[c], lo)
		box.Max[c] = math32.Max(box.Max[c], hi)
	}
	return box
}

// ViewProjection returns the column-major matrix projecting world space through the cone of a
// spot light placed at position and pointing along direction.
//
// Parameters:
//   - position: the apex of the cone
//   - direction: the cone axis
//   - near: the near plane distance
//
// Returns:
//   - [16]float32: projection * view
func (s *Spot) ViewProjection(position, direction [3]float32, near float32) [16]float32 {
	var view, proj, out [16]float32
	common.LookAt(view[:], position, common.Add3(position, direction), [3]float32{0, 1, 0})
	fov := math32.Min(2*degToRad(math32.Max(s.AngleOuter, 1)), math32.Pi-0.01)
	common.Perspective(proj[:], fov, 1, near, math32.Max(s.Range, 2*near))
	common.Mul4(out[:], proj[:], view[:])
	return out
}

// AngleScale returns the factor applied to cos(angle) by the angular attenuation.
func (s *Spot) AngleScale() float32 {
	return 1 / math32.Max(0.001, cosDeg(s.AngleInner)-cosDeg(s.AngleOuter))
}

// AngleOffset returns the offset added to the scaled cos(angle) by the angular attenuation.
func (s *Spot) AngleOffset() float32 {
	return -cosDeg(s.AngleOuter) * s.AngleScale()
}

// InvSquareRange returns 1/Range².
func (s *Spot) InvSquareRange() float32 {
	return 1 / math32.Max(s.Range*s.Range, epsilon)
}

// TextureParameters returns the projection parameters of the light. Lights without a projective
// texture all share the zero value.
func (s *Spot) TextureParameters() SpotTextureParameters {
	if s.ProjectiveTexture == nil {
		return SpotTextureParameters{}
	}
	return SpotTextureParameters{
		Texture:  s.ProjectiveTexture,
		FlipMode: s.FlipMode,
		UVScale:  s.UVScale,
		UVOffset: s.UVOffset,
	}
}

// SpotTextureParameters identifies one texture projection setup. Two spot lights with equal
// parameters can share a projection renderer.
type SpotTextureParameters struct {
	Texture  *common.Texture
	FlipMode TextureFlipMode
	UVScale  [2]float32
	UVOffset [2]float32
}

// Skybox is an environment light built from a prefiltered sky: spherical harmonics for the
// diffuse term and a cubemap for the specular term.
type Skybox struct {
	// DiffuseSH holds Order² RGB coefficients. Empty disables the diffuse term.
	DiffuseSH [][3]float32
	// SpecularCubemap is the prefiltered radiance cubemap. Nil disables the specular term.
	SpecularCubemap *common.Texture
	// SpecularMipCount is the number of roughness levels of SpecularCubemap.
	SpecularMipCount int
	Intensity        float32
}

// Tag implements LightType.
func (s *Skybox) Tag() LightTypeTag { return TagSkybox }

// SHOrder returns the spherical harmonics order of DiffuseSH, 0 when there is no diffuse term.
func (s *Skybox) SHOrder() int {
	order := 0
	for order*order < len(s.DiffuseSH) {
		order++
	}
	return order
}

const epsilon = 1e-6

func degToRad(deg float32) float32 {
	return deg * math32.Pi / 180
}

func cosDeg(deg float32) float32 {
	return math32.Cos(degToRad(deg))
}
