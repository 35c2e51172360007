package common

import (
	"github.com/chewxy/math32"
)

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   [3]float32
	Distance float32
}

// SignedDistance returns the distance of p from the plane, positive on the
// side the normal points to.
func (p Plane) SignedDistance(pt [3]float32) float32 {
	return Dot3(p.Normal, pt) + p.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix.
// Uses the Gribb/Hartmann method for plane extraction, with the near plane
// adapted to WebGPU's [0, 1] clip-space depth.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: 16 float32 values representing the view-projection matrix (column-major)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj []float32) Frustum {
	var f Frustum

	// For column-major matrix M, row r is (M[r], M[4+r], M[8+r], M[12+r]).
	row := func(r int) [4]float32 {
		return [4]float32{viewProj[r], viewProj[4+r], viewProj[8+r], viewProj[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	set := func(idx int, v [4]float32) {
		f.Planes[idx] = Plane{Normal: [3]float32{v[0], v[1], v[2]}, Distance: v[3]}
	}
	set(FrustumLeft, add4(r3, r0))
	set(FrustumRight, sub4(r3, r0))
	set(FrustumBottom, add4(r3, r1))
	set(FrustumTop, sub4(r3, r1))
	set(FrustumNear, r2)
	set(FrustumFar, sub4(r3, r2))

	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// ContainsBox reports whether any part of the box lies inside the frustum.
// The test is conservative: boxes straddling a frustum corner may be reported
// as visible.
//
// Parameters:
//   - box: the box in center/extent form
//
// Returns:
//   - bool: false only if the box is entirely outside one of the planes
func (f *Frustum) ContainsBox(box BoundingBoxExt) bool {
	for i := range f.Planes {
		p := &f.Planes[i]
		var radius float32
		for _, c := range Components {
			radius += math32.Abs(c.Get(p.Normal)) * c.Get(box.Extent)
		}
		if p.SignedDistance(box.Center) < -radius {
			return false
		}
	}
	return true
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := Length3(p.Normal)

	if length > 0 {
		invLen := 1.0 / length
		p.Normal = Scale3(p.Normal, invLen)
		p.Distance *= invLen
	}
}

func add4(a, b [4]float32) [4]float32 {
	return [4]float32{a[0] + b[0], a[1] + b[1], a[2] + b[2], a[3] + b[3]}
}

func sub4(a, b [4]float32) [4]float32 {
	return [4]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2], a[3] - b[3]}
}
