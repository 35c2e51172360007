package shadow

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/chewxy/math32"
)

// ShadowData is the GPU representation of one shadow map, one per cascade or cube face.
// Size: 80 bytes (std430 / WGSL aligned).
//
// Layout:
//
//	mat4x4<f32> world_to_shadow (64 bytes, offset 0)
//	vec2<f32>   texel_size      ( 8 bytes, offset 64)
//	f32         bias            ( 4 bytes, offset 72)
//	f32         normal_bias     ( 4 bytes, offset 76)
type ShadowData struct {
	WorldToShadow [16]float32 // world to atlas UV and depth
	TexelSize     [2]float32  // 1 / atlas resolution, for PCF offsets
	Bias          float32     // depth comparison bias
	NormalBias    float32     // world-space normal-offset distance
}

// Size returns the size of the ShadowData struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (80)
func (s *ShadowData) Size() int {
	return int(unsafe.Sizeof(*s))
}

// AppendTo serializes the struct in GPU layout and appends it to buf.
//
// Returns:
//   - []byte: the extended buffer
func (s *ShadowData) AppendTo(buf []byte) []byte {
	buf = light.AppendFloat32s(buf, s.WorldToShadow[:]...)
	return light.AppendFloat32s(buf, s.TexelSize[0], s.TexelSize[1], s.Bias, s.NormalBias)
}

// ComputeNormalBias derives the world-space normal-offset bias of a shadow map and stores it in
// NormalBias: fragments move along their normal by that distance before the lookup.
//
// Parameters:
//   - halfExtent: half-size in world units of the area the map covers
//   - scale: multiplier on the world size of one texel (typically 2 to 4)
//   - resolution: side of the map in texels
func (s *ShadowData) ComputeNormalBias(halfExtent, scale float32, resolution int) {
	if resolution <= 0 {
		s.NormalBias = 0
		return
	}
	texelWorldSize := 2.0 * halfExtent / float32(resolution)
	s.NormalBias = texelWorldSize * scale
}

// viewProjection is the camera of one shadow map.
type viewProjection struct {
	View       [16]float32
	Projection [16]float32
	// HalfExtent is the half-size in world units the map covers at unit distance for
	// perspective maps and overall for orthographic ones.
	HalfExtent float32
	Near, Far  float32
}

func (vp *viewProjection) matrix() [16]float32 {
	var out [16]float32
	common.Mul4(out[:], vp.Projection[:], vp.View[:])
	return out
}

// directionalViewProjection builds an orthographic light camera centered on center and looking
// along dir.
//
// Parameters:
//   - dir: normalized direction the light travels
//   - center: world-space center of the covered area, typically the camera position
//   - halfExtent: half-size of the covered area in world units
//   - near, far: depth range
//
// Returns:
//   - viewProjection: the light camera
func directionalViewProjection(dir, center [3]float32, halfExtent, near, far float32) viewProjection {
	// Eye sits behind the center, opposite the light direction.
	eye := common.Sub3(center, common.Scale3(dir, far*0.5))
	up := [3]float32{0, 1, 0}
	if math32.Abs(dir[1]) > 0.99 {
		up = [3]float32{1, 0, 0}
	}
	vp := viewProjection{HalfExtent: halfExtent, Near: near, Far: far}
	common.LookAt(vp.View[:], eye, center, up)
	common.Orthographic(vp.Projection[:], -halfExtent, halfExtent, -halfExtent, halfExtent, near, far)
	return vp
}

// perspectiveViewProjection builds a perspective light camera at position looking along dir.
func perspectiveViewProjection(position, dir [3]float32, fov, near, far float32) viewProjection {
	up := [3]float32{0, 1, 0}
	if math32.Abs(dir[1]) > 0.99 {
		up = [3]float32{0, 0, 1}
	}
	vp := viewProjection{HalfExtent: math32.Tan(fov / 2), Near: near, Far: far}
	common.LookAt(vp.View[:], position, common.Add3(position, dir), up)
	common.Perspective(vp.Projection[:], fov, 1, near, far)
	return vp
}

// atlasTransform maps clip space into the UV rectangle r of an atlas of side atlasSize.
// Depth passes through.
func atlasTransform(r light.AtlasRect, atlasSize uint32) [16]float32 {
	var m [16]float32
	s := float32(atlasSize)
	w, h := float32(r.Width), float32(r.Height)
	m[0] = 0.5 * w / s
	m[5] = -0.5 * h / s
	m[10] = 1
	m[12] = (float32(r.X) + 0.5*w) / s
	m[13] = (float32(r.Y) + 0.5*h) / s
	m[15] = 1
	return m
}

// cameraPosition recovers the world position of a camera from its view matrix.
func cameraPosition(view [16]float32) [3]float32 {
	t := [3]float32{view[12], view[13], view[14]}
	return [3]float32{
		-(view[0]*t[0] + view[1]*t[1] + view[2]*t[2]),
		-(view[4]*t[0] + view[5]*t[1] + view[6]*t[2]),
		-(view[8]*t[0] + view[9]*t[1] + view[10]*t[2]),
	}
}
