package lighting

import (
	"cogentcore.org/core/base/ordmap"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
)

// ActiveLightGroupRenderer pairs the lights of one type visible in a view with the renderers
// registered for that type, in registration order.
type ActiveLightGroupRenderer struct {
	LightGroup *light.RenderLightCollectionGroup
	Renderers  []LightGroupRenderer
}

// RenderViewLightData is the lighting state of one logical lighting view. It lives for the whole
// run of the feature so that per-view layouts stay cached between frames.
type RenderViewLightData struct {
	// ActiveLightGroups holds the visible lights by light type, in the order types were first seen.
	ActiveLightGroups *ordmap.Map[light.LightTypeTag, *light.RenderLightCollectionGroup]

	// ActiveRenderers lists the groups with at least one light and the renderers that draw them.
	ActiveRenderers []ActiveLightGroupRenderer

	VisibleLights            []*light.RenderLight
	VisibleLightsWithShadows []*light.RenderLight

	// RenderLightsWithShadows is filled by the shadow map renderer.
	RenderLightsWithShadows map[*light.RenderLight]*light.ShadowMapTexture

	ViewLayoutHash      parameter.ObjectID
	ViewParameterLayout *parameter.Layout
	ViewParameters      parameter.Collection
}

// NewRenderViewLightData creates empty view data.
func NewRenderViewLightData() *RenderViewLightData {
	return &RenderViewLightData{
		ActiveLightGroups:       ordmap.New[light.LightTypeTag, *light.RenderLightCollectionGroup](),
		RenderLightsWithShadows: make(map[*light.RenderLight]*light.ShadowMapTexture),
		ViewParameters:          parameter.NewCollection(),
	}
}

// lightGroup returns the collection group for the type of l, creating it on first use.
func (d *RenderViewLightData) lightGroup(l *light.RenderLight) *light.RenderLightCollectionGroup {
	tag := l.Type.Tag()
	if g, ok := d.ActiveLightGroups.ValueByKeyTry(tag); ok {
		return g
	}
	g := light.NewRenderLightCollectionGroup(tag)
	d.ActiveLightGroups.Add(tag, g)
	return g
}

// clearCache empties every light group but keeps them and their storage.
func (d *RenderViewLightData) clearCache() {
	for _, kv := range d.ActiveLightGroups.Order {
		kv.Value.Clear()
	}
}
