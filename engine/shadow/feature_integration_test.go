package shadow

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/camera"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/lighting"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
	"github.com/Carmen-Shannon/oxy-lighting/engine/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardLightingWithAtlasShadows(t *testing.T) {
	shadowed := light.ShadowSettings{Enabled: true, Size: light.ShadowSizeXSmall}
	lights := light.NewRenderLightCollection(4)
	lights.Add(light.NewRenderLight(&light.Directional{}))
	lights.Add(light.NewRenderLight(&light.Point{Radius: 2, ShadowConfig: shadowed}, light.WithPosition(0, 0, 0)))
	lights.Add(light.NewRenderLight(&light.Point{Radius: 2, ShadowConfig: shadowed}, light.WithPosition(1, 0, 0)))
	lights.Add(light.NewRenderLight(&light.Point{Radius: 2}, light.WithPosition(-1, 0, 0)))

	ctx := lighting.NewRenderContext()
	ctx.Frame = 1
	ctx.EffectSlots = []string{"Main", CasterStage, CasterCubeMapStage}
	ctx.SetLights(lights)
	view := camera.NewRenderView(camera.NewCamera())
	ctx.AddView(view)

	effect := &lighting.RenderEffect{State: lighting.EffectStateNormal, Validator: shader.NewPermutationValidator(), UsedFrame: 1}
	obj := &lighting.RenderObject{
		BoundingBox:    common.BoundingBoxExt{Extent: [3]float32{1, 1, 1}},
		LightDependent: true,
		Effects:        []*lighting.RenderEffect{effect},
	}
	node := &lighting.RenderNode{Object: obj, Effect: effect}
	ctx.RenderObjects = append(ctx.RenderObjects, obj)
	view.Features.RenderNodes = append(view.Features.RenderNodes, node)

	shadows := NewRenderer()
	f := lighting.NewForwardLightingRenderFeature(lighting.WithConfig(lighting.Config{PrepareWorkers: 1}), lighting.WithShadowMapRenderer(shadows))
	f.Collect(ctx)
	require.Len(t, shadows.CasterViews(), 2*6, "two cube maps")
	f.PrepareEffectPermutations(ctx)

	filter := light.ComposeShadowType(&shadowed).FilterName()
	assert.Equal(t, []string{
		"mixin(LightDirectionalGroup<1>)",
		"mixin(LightPointGroup<1>)",
		"mixin(LightPointGroup<2>,ShadowMapReceiverPointCubeMap<2,6," + filter + ",false>)",
	}, groupKeys(f.Permutation().DirectLightGroups))

	perView, perDraw := f.DeclaredLayouts()
	entries := make([]parameter.Collection, len(ctx.Views))
	for i := range entries {
		entries[i] = parameter.NewCollection()
		entries[i].UpdateLayout(perView)
	}
	view.Features.Layouts = []*lighting.ViewResourceLayout{{State: lighting.EffectStateNormal, Lighting: parameter.NewLogicalGroup(perView), Entries: entries}}
	group := parameter.NewLogicalGroup(perDraw)
	effect.PerDrawLighting = &group
	node.Resources = parameter.NewCollection()
	node.Resources.UpdateLayout(perDraw)
	require.NoError(t, f.Prepare(ctx))

	var d ShadowData
	records, ok := node.Resources.Get(ShadowDataKey.ComposeWith(lighting.DirectLightGroupComposition(2)))
	require.True(t, ok)
	assert.Len(t, records, 2*6*d.Size())

	f.Flush(ctx)
	assert.Equal(t, []*lighting.RenderView{view}, ctx.Views, "caster views are released with the frame")
}

func groupKeys(groups []lighting.LightShaderGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.ShaderSource().Key()
	}
	return out
}
