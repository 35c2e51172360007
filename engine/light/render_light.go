package light

import (
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-lighting/common"
)

var nextRenderLightID atomic.Uint64

// RenderLight is one light instance resolved for the current frame: its world transform,
// intensity-scaled color and cached bounds. Lights are compared by pointer.
//
// The bounding box accessors are only meaningful after UpdateBoundingBox has run for the frame
// being rendered; BoundsValid tells whether that happened.
type RenderLight struct {
	ID   uint64
	Type LightType

	Position    [3]float32
	Direction   [3]float32
	WorldMatrix [16]float32

	// Color is the light color already multiplied by Intensity.
	Color     [3]float32
	Intensity float32

	CullingMask RenderGroupMask

	boundingBox    common.BoundingBox
	boundingBoxExt common.BoundingBoxExt
	hasBoundingBox bool
	boundsFrame    uint64
	boundsSet      bool
}

// NewRenderLight creates a RenderLight of the given type with its defaults overridden by opts.
// Defaults: at the origin, pointing down -Y, white, intensity 1, visible to every render group.
//
// Parameters:
//   - lightType: the type-specific part of the light, must not be nil
//   - opts: variadic list of RenderLightBuilderOption functions
//
// Returns:
//   - *RenderLight: the new light
func NewRenderLight(lightType LightType, opts ...RenderLightBuilderOption) *RenderLight {
	if lightType == nil {
		panic("light: NewRenderLight called with nil light type")
	}
	l := &RenderLight{
		ID:          nextRenderLightID.Add(1),
		Type:        lightType,
		Direction:   [3]float32{0, -1, 0},
		Intensity:   1,
		CullingMask: RenderGroupMaskAll,
	}
	common.Identity(l.WorldMatrix[:])
	color := [3]float32{1, 1, 1}
	b := &renderLightBuilder{light: l, color: &color}
	for _, opt := range opts {
		opt(b)
	}
	l.Color = common.Scale3(color, l.Intensity)
	if b.matrixSet {
		l.Position = [3]float32{l.WorldMatrix[12], l.WorldMatrix[13], l.WorldMatrix[14]}
		// Lights shine down their local -Z axis.
		l.Direction = common.Normalize3(common.TransformDirection(l.WorldMatrix[:], [3]float32{0, 0, -1}))
	} else {
		l.WorldMatrix[12], l.WorldMatrix[13], l.WorldMatrix[14] = l.Position[0], l.Position[1], l.Position[2]
	}
	return l
}

// UpdateBoundingBox recomputes the cached bounds for the given frame.
//
// Parameters:
//   - frame: the frame number the bounds become valid for
func (l *RenderLight) UpdateBoundingBox(frame uint64) {
	l.boundsFrame = frame
	l.boundsSet = true
	direct, ok := l.Type.(DirectLight)
	if !ok || !direct.HasBoundingBox() {
		l.hasBoundingBox = false
		l.boundingBox = common.BoundingBox{}
		l.boundingBoxExt = common.BoundingBoxExt{}
		return
	}
	l.hasBoundingBox = true
	l.boundingBox = direct.ComputeBounds(l.Position, l.Direction)
	l.boundingBoxExt = common.NewBoundingBoxExt(l.boundingBox)
}

// BoundsValid reports whether UpdateBoundingBox ran for frame.
func (l *RenderLight) BoundsValid(frame uint64) bool {
	return l.boundsSet && l.boundsFrame == frame
}

// BoundingBox returns the cached min/max bounds.
func (l *RenderLight) BoundingBox() common.BoundingBox {
	return l.boundingBox
}

// BoundingBoxExt returns the cached center/extent bounds.
func (l *RenderLight) BoundingBoxExt() common.BoundingBoxExt {
	return l.boundingBoxExt
}

// HasBoundingBox reports whether the cached bounds are meaningful for this light.
func (l *RenderLight) HasBoundingBox() bool {
	return l.hasBoundingBox
}

// ShadowSettings returns the shadow settings of a direct light, or nil for other kinds.
func (l *RenderLight) ShadowSettings() *ShadowSettings {
	if direct, ok := l.Type.(DirectLight); ok {
		return direct.Shadow()
	}
	return nil
}

// String implements fmt.Stringer.
func (l *RenderLight) String() string {
	return fmt.Sprintf("RenderLight(%d, %s)", l.ID, l.Type.Tag())
}
