package lighting

import (
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
)

// RenderViewKind distinguishes views that receive lighting from views that only render depth.
type RenderViewKind int

const (
	// ViewKindMain is a camera view that receives lighting.
	ViewKindMain RenderViewKind = iota
	// ViewKindShadowCaster is a view rendering a shadow map; it never receives lighting.
	ViewKindShadowCaster
)

// RenderView is one point of view rendered this frame.
type RenderView struct {
	// Index is the position of the view in RenderContext.Views and addresses per-view resource entries.
	Index int
	Name  string
	Kind  RenderViewKind

	Frustum     common.Frustum
	CullingMask light.RenderGroupMask
	// LightingView, when set, is the view whose lighting this view reuses.
	LightingView *RenderView
	ViewSize     [2]float32

	View          [16]float32
	Projection    [16]float32
	NearClipPlane float32
	FarClipPlane  float32

	Features ViewFeature
}

// Lighting returns the view whose light data applies to v.
func (v *RenderView) Lighting() *RenderView {
	if v.LightingView != nil {
		return v.LightingView
	}
	return v
}

// ViewFeature holds the per-view state the root render feature shares with the lighting feature.
type ViewFeature struct {
	Layouts     []*ViewResourceLayout
	RenderNodes []*RenderNode
}

// RenderEffectState is the compilation state of an effect.
type RenderEffectState int

const (
	// EffectStateNormal is a compiled effect rendering normally.
	EffectStateNormal RenderEffectState = iota
	// EffectStateFallback is a placeholder effect used while the real one compiles.
	EffectStateFallback
	// EffectStateError is an effect whose compilation failed.
	EffectStateError
)

// ViewResourceLayout is the per-view resource layout of one effect family.
type ViewResourceLayout struct {
	State RenderEffectState
	// Lighting is the logical group of the layout that belongs to the lighting feature.
	Lighting parameter.LogicalGroup
	// Entries holds the per-view resources, indexed by RenderView.Index.
	Entries []parameter.Collection
}

// EffectValidator registers the permutation parameters an effect must be compiled with.
type EffectValidator interface {
	ValidateParameter(key parameter.Key, value any)
}

// RenderEffect is the compiled effect of one render object in one effect slot.
type RenderEffect struct {
	State     RenderEffectState
	Validator EffectValidator
	// PerDrawLighting is the lighting group of the effect's per-draw layout, nil when the
	// effect has no reflection yet.
	PerDrawLighting *parameter.LogicalGroup
	// UsedFrame is the last frame the effect was drawn in.
	UsedFrame uint64
}

// IsUsedDuringFrame reports whether the effect is drawn in frame.
func (e *RenderEffect) IsUsedDuringFrame(frame uint64) bool {
	return e.UsedFrame == frame
}

// RenderObject is a drawable object.
type RenderObject struct {
	Name        string
	BoundingBox common.BoundingBoxExt
	// LightDependent is false for unlit materials.
	LightDependent bool
	// Effects holds one effect per effect slot; entries may be nil.
	Effects []*RenderEffect
}

// RenderNode is one render object drawn in one view with one effect.
type RenderNode struct {
	Object    *RenderObject
	Effect    *RenderEffect
	Resources parameter.Collection
}

// PropertyKey names a value stored in RenderContext.Tags.
type PropertyKey string

// CurrentLightsKey is the tag under which the scene publishes its *light.RenderLightCollection.
const CurrentLightsKey PropertyKey = "ForwardLightingRenderFeature.CurrentLights"

// RenderContext is the frame state shared by every render feature.
type RenderContext struct {
	Frame         uint64
	Views         []*RenderView
	Tags          map[PropertyKey]any
	RenderObjects []*RenderObject
	// EffectSlots names the effect slots by index, one per render stage.
	EffectSlots []string
}

// NewRenderContext creates an empty context.
func NewRenderContext() *RenderContext {
	return &RenderContext{Tags: make(map[PropertyKey]any)}
}

// SetLights publishes the scene lights for the frame.
func (c *RenderContext) SetLights(lights *light.RenderLightCollection) {
	if c.Tags == nil {
		c.Tags = make(map[PropertyKey]any)
	}
	c.Tags[CurrentLightsKey] = lights
}

// Lights returns the published scene lights, or nil when the scene has none.
func (c *RenderContext) Lights() *light.RenderLightCollection {
	lights, _ := c.Tags[CurrentLightsKey].(*light.RenderLightCollection)
	return lights
}

// AddView appends a view and assigns its Index.
func (c *RenderContext) AddView(v *RenderView) {
	v.Index = len(c.Views)
	c.Views = append(c.Views, v)
}

// RemoveView removes a view and renumbers the ones after it.
func (c *RenderContext) RemoveView(v *RenderView) {
	for i, x := range c.Views {
		if x == v {
			c.Views = append(c.Views[:i], c.Views[i+1:]...)
			for j := i; j < len(c.Views); j++ {
				c.Views[j].Index = j
			}
			return
		}
	}
}

// EffectSlot returns the slot index of a render stage, or -1 if the stage has no slot.
func (c *RenderContext) EffectSlot(stage string) int {
	for i, s := range c.EffectSlots {
		if s == stage {
			return i
		}
	}
	return -1
}
