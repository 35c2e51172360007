package common

import (
	"fmt"

	"github.com/chewxy/math32"
)

// VectorComponent selects one axis of a 3-component vector.
type VectorComponent int

const (
	// ComponentX selects the first component.
	ComponentX VectorComponent = iota
	// ComponentY selects the second component.
	ComponentY
	// ComponentZ selects the third component.
	ComponentZ
)

// Components lists the three valid selectors in axis order.
var Components = [3]VectorComponent{ComponentX, ComponentY, ComponentZ}

// Get returns the selected component of v.
// Panics if c is not one of ComponentX, ComponentY or ComponentZ.
//
// Parameters:
//   - v: the vector to read
//
// Returns:
//   - float32: the selected component
func (c VectorComponent) Get(v [3]float32) float32 {
	switch c {
	case ComponentX:
		return v[0]
	case ComponentY:
		return v[1]
	case ComponentZ:
		return v[2]
	default:
		panic(fmt.Sprintf("common: invalid vector component %d", int(c)))
	}
}

// BoundingBox is an axis-aligned box stored as its minimum and maximum corners.
type BoundingBox struct {
	Min [3]float32
	Max [3]float32
}

// BoundingBoxExt is an axis-aligned box stored as a center and a half-size.
type BoundingBoxExt struct {
	Center [3]float32
	Extent [3]float32
}

// NewBoundingBoxFromSphere returns the box enclosing a sphere.
//
// Parameters:
//   - center: the sphere center
//   - radius: the sphere radius
//
// Returns:
//   - BoundingBox: the enclosing box
func NewBoundingBoxFromSphere(center [3]float32, radius float32) BoundingBox {
	return BoundingBox{
		Min: [3]float32{center[0] - radius, center[1] - radius, center[2] - radius},
		Max: [3]float32{center[0] + radius, center[1] + radius, center[2] + radius},
	}
}

// NewBoundingBoxExt converts a min/max box to its center/extent form.
//
// Parameters:
//   - b: the box to convert
//
// Returns:
//   - BoundingBoxExt: the same box as center and half-size
func NewBoundingBoxExt(b BoundingBox) BoundingBoxExt {
	var ext BoundingBoxExt
	for i := range 3 {
		ext.Center[i] = (b.Min[i] + b.Max[i]) * 0.5
		ext.Extent[i] = (b.Max[i] - b.Min[i]) * 0.5
	}
	return ext
}

// Box converts the box back to its min/max form.
//
// Returns:
//   - BoundingBox: the min/max representation
func (b BoundingBoxExt) Box() BoundingBox {
	var out BoundingBox
	for i := range 3 {
		out.Min[i] = b.Center[i] - b.Extent[i]
		out.Max[i] = b.Center[i] + b.Extent[i]
	}
	return out
}

// Intersects reports whether two boxes overlap. Touching faces count as overlap.
//
// Parameters:
//   - o: the other box
//
// Returns:
//   - bool: true if the boxes share at least one point
func (b BoundingBox) Intersects(o BoundingBox) bool {
	for i := range 3 {
		if b.Max[i] < o.Min[i] || b.Min[i] > o.Max[i] {
			return false
		}
	}
	return true
}

// Merge grows the box so that it contains p.
//
// Parameters:
//   - p: the point to include
//
// Returns:
//   - BoundingBox: the grown box
func (b BoundingBox) Merge(p [3]float32) BoundingBox {
	for i := range 3 {
		b.Min[i] = math32.Min(b.Min[i], p[i])
		b.Max[i] = math32.Max(b.Max[i], p[i])
	}
	return b
}
