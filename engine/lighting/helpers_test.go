package lighting

import (
	"encoding/binary"
	"math"
	"testing"

	"cogentcore.org/core/base/ordmap"
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
	"github.com/Carmen-Shannon/oxy-lighting/engine/shader"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/require"
)

// newCamera returns a main view at eye looking at the origin with a 90 degree field of view.
func newCamera(name string, eye [3]float32) *RenderView {
	v := &RenderView{
		Name:          name,
		Kind:          ViewKindMain,
		CullingMask:   light.RenderGroupMaskAll,
		ViewSize:      [2]float32{1280, 720},
		NearClipPlane: 0.1,
		FarClipPlane:  100,
	}
	common.LookAt(v.View[:], eye, [3]float32{}, [3]float32{0, 1, 0})
	common.Perspective(v.Projection[:], math32.Pi/2, 1, v.NearClipPlane, v.FarClipPlane)
	var vp [16]float32
	common.Mul4(vp[:], v.Projection[:], v.View[:])
	v.Frustum = common.ExtractFrustumFromMatrix(vp[:])
	return v
}

// newScene creates a frame context publishing lights. Views are added by the caller.
func newScene(lights ...*light.RenderLight) *RenderContext {
	ctx := NewRenderContext()
	ctx.Frame = 1
	ctx.EffectSlots = []string{"Main"}
	coll := light.NewRenderLightCollection(len(lights))
	for _, l := range lights {
		coll.Add(l)
	}
	ctx.SetLights(coll)
	return ctx
}

func pointAt(x, y, z, radius float32) *light.RenderLight {
	return light.NewRenderLight(&light.Point{Radius: radius}, light.WithPosition(x, y, z))
}

func shadowedPointAt(x, y, z, radius float32) *light.RenderLight {
	return light.NewRenderLight(&light.Point{Radius: radius, ShadowConfig: light.ShadowSettings{Enabled: true}}, light.WithPosition(x, y, z))
}

// addObject adds a lit object drawn in view with one effect in slot 0.
func addObject(ctx *RenderContext, view *RenderView, center [3]float32, extent float32) *RenderNode {
	effect := &RenderEffect{
		State:     EffectStateNormal,
		Validator: shader.NewPermutationValidator(),
		UsedFrame: ctx.Frame,
	}
	obj := &RenderObject{
		Name:           "object",
		BoundingBox:    common.BoundingBoxExt{Center: center, Extent: [3]float32{extent, extent, extent}},
		LightDependent: true,
		Effects:        []*RenderEffect{effect},
	}
	node := &RenderNode{Object: obj, Effect: effect}
	ctx.RenderObjects = append(ctx.RenderObjects, obj)
	view.Features.RenderNodes = append(view.Features.RenderNodes, node)
	return node
}

// bindLayouts plays the effect system: it gives every main view and node the lighting layouts of
// the current permutation.
func bindLayouts(f ForwardLightingRenderFeature, ctx *RenderContext) {
	perView, perDraw := f.DeclaredLayouts()
	for _, view := range ctx.Views {
		if view.Kind != ViewKindMain {
			continue
		}
		view.Features.Layouts = []*ViewResourceLayout{newViewLayout(ctx, perView)}
		for _, node := range view.Features.RenderNodes {
			group := parameter.NewLogicalGroup(perDraw)
			node.Effect.PerDrawLighting = &group
			node.Resources = parameter.NewCollection()
			node.Resources.UpdateLayout(perDraw)
		}
	}
}

func newViewLayout(ctx *RenderContext, layout *parameter.Layout) *ViewResourceLayout {
	entries := make([]parameter.Collection, len(ctx.Views))
	for i := range entries {
		entries[i] = parameter.NewCollection()
		entries[i].UpdateLayout(layout)
	}
	return &ViewResourceLayout{State: EffectStateNormal, Lighting: parameter.NewLogicalGroup(layout), Entries: entries}
}

// runFrame runs the feature up to Prepare.
func runFrame(t *testing.T, f ForwardLightingRenderFeature, ctx *RenderContext) {
	t.Helper()
	f.Collect(ctx)
	f.PrepareEffectPermutations(ctx)
	bindLayouts(f, ctx)
	require.NoError(t, f.Prepare(ctx))
}

func sourceKeys(groups []LightShaderGroup) []string {
	out := make([]string, len(groups))
	for i, g := range groups {
		out[i] = g.ShaderSource().Key()
	}
	return out
}

func float32At(b []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b[offset:]))
}

// fakeLightShadowRenderer accepts every light and produces single map shadows.
type fakeLightShadowRenderer struct {
	name  string
	stage string
}

func (r *fakeLightShadowRenderer) Name() string                           { return r.name }
func (r *fakeLightShadowRenderer) ShadowCasterRenderStage() string        { return r.stage }
func (r *fakeLightShadowRenderer) CanRenderLight(*light.RenderLight) bool { return true }

func (r *fakeLightShadowRenderer) ShadowType(l *light.RenderLight) light.LightShadowType {
	return light.ComposeShadowType(l.ShadowSettings())
}

func (r *fakeLightShadowRenderer) CreateShaderGroupData(t light.LightShadowType) light.ShadowMapShaderGroupData {
	return &fakeShadowGroupData{name: r.name}
}

type fakeShadowGroupData struct {
	name  string
	count int
	key   parameter.Key
}

func (d *fakeShadowGroupData) ApplyShader(m *shader.MixinSource) {
	m.Add(shader.NewClassSource("FakeShadow"+d.name, d.count))
}

func (d *fakeShadowGroupData) UpdateLayout(composition string) {
	d.key = parameter.NewKey("FakeShadow.Count").ComposeWith(composition)
}

func (d *fakeShadowGroupData) UpdateLightCount(_, current int) { d.count = current }

func (d *fakeShadowGroupData) DeclareLayout(perView, perDraw *parameter.Layout) {
	perDraw.Add(d.key, 4, 1)
}

func (d *fakeShadowGroupData) ApplyViewParameters(parameter.Collection, []light.DynamicEntry) {}

func (d *fakeShadowGroupData) ApplyDrawParameters(params parameter.Collection, lights []light.DynamicEntry, _ common.BoundingBoxExt) {
	shadowed := 0
	for _, e := range lights {
		if e.ShadowMapTexture.Allocated() {
			shadowed++
		}
	}
	params.SetInt32(d.key, int32(shadowed))
}

// fakeShadowMapRenderer allocates a texture for every shadowed light except those in fail,
// whose textures have no atlas.
type fakeShadowMapRenderer struct {
	renderer *fakeLightShadowRenderer
	fail     map[*light.RenderLight]bool
	collects int
	flushes  int
}

func newFakeShadowMapRenderer() *fakeShadowMapRenderer {
	return &fakeShadowMapRenderer{
		renderer: &fakeLightShadowRenderer{name: "Fake", stage: "ShadowMapCaster"},
		fail:     make(map[*light.RenderLight]bool),
	}
}

func (r *fakeShadowMapRenderer) Renderers() []light.LightShadowMapRenderer {
	return []light.LightShadowMapRenderer{r.renderer}
}

func (r *fakeShadowMapRenderer) Collect(ctx *RenderContext, viewData *ordmapViewData) {
	r.collects++
	atlas := &light.ShadowMapAtlas{Texture: &common.Texture{Name: "atlas", Width: 1024, Height: 1024}}
	for _, kv := range viewData.Order {
		for _, l := range kv.Value.VisibleLightsWithShadows {
			tex := &light.ShadowMapTexture{Light: l, ShadowType: r.renderer.ShadowType(l), Renderer: r.renderer, CascadeCount: 1}
			if !r.fail[l] {
				tex.Atlas = atlas
			}
			kv.Value.RenderLightsWithShadows[l] = tex
		}
	}
}

func (r *fakeShadowMapRenderer) Flush(*RenderContext) {
	r.flushes++
}

type ordmapViewData = ordmap.Map[*RenderView, *RenderViewLightData]

// newLayoutCollection returns a collection over every parameter g declares.
func newLayoutCollection(g LightShaderGroup) parameter.Collection {
	perView, perDraw := &parameter.Layout{}, &parameter.Layout{}
	g.DeclareLayout(perView, perDraw)
	merged := &parameter.Layout{Entries: append(perView.Entries, perDraw.Entries...)}
	params := parameter.NewCollection()
	params.UpdateLayout(merged)
	return params
}
