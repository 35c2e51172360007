package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// DirectionalLightData is the GPU-aligned representation of one directional light.
// Size: 32 bytes (std430 / WGSL aligned).
type DirectionalLightData struct {
	DirectionWS [3]float32 // offset  0: normalized direction the light travels
	_pad0       float32    // offset 12
	Color       [3]float32 // offset 16: intensity-scaled RGB
	_pad1       float32    // offset 28
}

// Size returns the size of the DirectionalLightData struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (d *DirectionalLightData) Size() int {
	return int(unsafe.Sizeof(*d))
}

// AppendTo serializes the struct in GPU layout and appends it to buf.
//
// Returns:
//   - []byte: the extended buffer
func (d *DirectionalLightData) AppendTo(buf []byte) []byte {
	buf = appendVec3(buf, d.DirectionWS, 0)
	return appendVec3(buf, d.Color, 0)
}

// PointLightData is the GPU-aligned representation of one point light.
// Size: 32 bytes (std430 / WGSL aligned).
type PointLightData struct {
	PositionWS      [3]float32 // offset  0
	InvSquareRadius float32    // offset 12: 1 / radius²
	Color           [3]float32 // offset 16: intensity-scaled RGB
	_pad0           float32    // offset 28
}

// Size returns the size of the PointLightData struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (p *PointLightData) Size() int {
	return int(unsafe.Sizeof(*p))
}

// AppendTo serializes the struct in GPU layout and appends it to buf.
//
// Returns:
//   - []byte: the extended buffer
func (p *PointLightData) AppendTo(buf []byte) []byte {
	buf = appendVec3(buf, p.PositionWS, p.InvSquareRadius)
	return appendVec3(buf, p.Color, 0)
}

// SpotLightData is the GPU-aligned representation of one spot light.
// Size: 64 bytes (std430 / WGSL aligned).
type SpotLightData struct {
	PositionWS                    [3]float32 // offset  0
	_pad0                         float32    // offset 12
	DirectionWS                   [3]float32 // offset 16
	_pad1                         float32    // offset 28
	AngleOffsetAndInvSquareRadius [3]float32 // offset 32: angle scale, angle offset, 1 / range²
	_pad2                         float32    // offset 44
	Color                         [3]float32 // offset 48: intensity-scaled RGB
	_pad3                         float32    // offset 60
}

// Size returns the size of the SpotLightData struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (64)
func (s *SpotLightData) Size() int {
	return int(unsafe.Sizeof(*s))
}

// AppendTo serializes the struct in GPU layout and appends it to buf.
//
// Returns:
//   - []byte: the extended buffer
func (s *SpotLightData) AppendTo(buf []byte) []byte {
	buf = appendVec3(buf, s.PositionWS, 0)
	buf = appendVec3(buf, s.DirectionWS, 0)
	buf = appendVec3(buf, s.AngleOffsetAndInvSquareRadius, 0)
	return appendVec3(buf, s.Color, 0)
}

// NewDirectionalLightData converts a directional RenderLight to its GPU form.
func NewDirectionalLightData(l *RenderLight) DirectionalLightData {
	return DirectionalLightData{DirectionWS: l.Direction, Color: l.Color}
}

// NewPointLightData converts a point RenderLight to its GPU form.
func NewPointLightData(l *RenderLight) PointLightData {
	d := PointLightData{PositionWS: l.Position, Color: l.Color}
	if p, ok := l.Type.(*Point); ok {
		d.InvSquareRadius = p.InvSquareRadius()
	}
	return d
}

// NewSpotLightData converts a spot RenderLight to its GPU form.
func NewSpotLightData(l *RenderLight) SpotLightData {
	d := SpotLightData{PositionWS: l.Position, DirectionWS: l.Direction, Color: l.Color}
	if s, ok := l.Type.(*Spot); ok {
		d.AngleOffsetAndInvSquareRadius = [3]float32{s.AngleScale(), s.AngleOffset(), s.InvSquareRange()}
	}
	return d
}

func appendVec3(buf []byte, v [3]float32, w float32) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v[0]))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v[1]))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v[2]))
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(w))
}

// AppendFloat32s appends v to buf as little-endian float32 values.
func AppendFloat32s(buf []byte, v ...float32) []byte {
	for _, f := range v {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
	}
	return buf
}
