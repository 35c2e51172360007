package shadow

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"math"
	"testing"

	"cogentcore.org/core/base/ordmap"
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/lighting"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
	"github.com/Carmen-Shannon/oxy-lighting/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtlasShelfPacking(t *testing.T) {
	a := newAtlasAllocator(0, 1024)
	for range 4 {
		_, ok := a.Allocate(512)
		require.True(t, ok)
	}
	_, ok := a.Allocate(512)
	assert.False(t, ok, "atlas holds exactly four 512 maps")

	a.Reset()
	r, ok := a.Allocate(256)
	require.True(t, ok)
	assert.Equal(t, light.AtlasRect{X: 0, Y: 0, Width: 256, Height: 256}, r)
	r, ok = a.Allocate(256)
	require.True(t, ok)
	assert.Equal(t, uint32(256), r.X)

	_, ok = a.Allocate(2048)
	assert.False(t, ok)
	_, ok = a.Allocate(0)
	assert.False(t, ok)
}

func TestAtlasAllocateAllIsAtomic(t *testing.T) {
	a := newAtlasAllocator(0, 1024)
	_, ok := a.AllocateAll(512, 3)
	require.True(t, ok)

	_, ok = a.AllocateAll(512, 2)
	assert.False(t, ok)
	// The failed request left the last slot free.
	_, ok = a.Allocate(512)
	assert.True(t, ok)
}

func TestAtlasTexture(t *testing.T) {
	a := newAtlasAllocator(2, 512)
	assert.Equal(t, 2, a.atlas.Index)
	assert.Equal(t, wgpu.TextureFormatDepth32Float, a.atlas.Texture.Format)
	assert.Equal(t, wgpu.CompareFunctionLess, a.atlas.Sampler.Compare)
	assert.Equal(t, uint32(512), a.atlas.Texture.Width)
}

func TestShadowData(t *testing.T) {
	var d ShadowData
	assert.Equal(t, 80, d.Size())
	assert.Len(t, d.AppendTo(nil), 80)

	d.ComputeNormalBias(10, 3, 1024)
	assert.InDelta(t, 2*10.0/1024*3, d.NormalBias, 1e-6)
	d.ComputeNormalBias(10, 3, 0)
	assert.Zero(t, d.NormalBias)
}

func TestAtlasTransformMapsClipToRect(t *testing.T) {
	m := atlasTransform(light.AtlasRect{X: 512, Y: 0, Width: 512, Height: 512}, 1024)
	topLeft := common.TransformPoint(m[:], [3]float32{-1, 1, 0.5})
	bottomRight := common.TransformPoint(m[:], [3]float32{1, -1, 0.5})
	assert.InDeltaSlice(t, []float32{0.5, 0, 0.5}, topLeft[:], 1e-6)
	assert.InDeltaSlice(t, []float32{1, 0.5, 0.5}, bottomRight[:], 1e-6)
}

func TestCameraPosition(t *testing.T) {
	var view [16]float32
	eye := [3]float32{3, 4, -5}
	common.LookAt(view[:], eye, [3]float32{0, 0, 0}, [3]float32{0, 1, 0})
	p := cameraPosition(view)
	assert.InDeltaSlice(t, eye[:], p[:], 1e-4)
}

func TestShadowTypes(t *testing.T) {
	dirLight := light.NewRenderLight(&light.Directional{ShadowConfig: light.ShadowSettings{Enabled: true, CascadeCount: 4, Filter: light.ShadowFilterPCF5x5}})
	pointLight := light.NewRenderLight(&light.Point{Radius: 5, ShadowConfig: light.ShadowSettings{Enabled: true, CascadeCount: 4}})

	d, p, s := NewDirectionalRenderer(), NewPointRenderer(), NewSpotRenderer()
	assert.Equal(t, 4, d.ShadowType(dirLight).CascadeCount())
	assert.Equal(t, light.ShadowTypePCF5x5, d.ShadowType(dirLight)&light.ShadowTypeFilterMask)
	assert.Equal(t, 1, p.ShadowType(pointLight).CascadeCount(), "local lights never cascade")

	assert.True(t, d.CanRenderLight(dirLight))
	assert.False(t, s.CanRenderLight(dirLight))
	assert.True(t, p.CanRenderLight(pointLight))
	assert.Equal(t, CasterStage, d.ShadowCasterRenderStage())
	assert.Equal(t, CasterCubeMapStage, p.ShadowCasterRenderStage())
	assert.Equal(t, 6, p.mapCount(p.ShadowType(pointLight)))
}

func newMainView(ctx *lighting.RenderContext) *lighting.RenderView {
	v := &lighting.RenderView{Name: "main", Kind: lighting.ViewKindMain, CullingMask: light.RenderGroupMaskAll}
	common.LookAt(v.View[:], [3]float32{0, 5, 10}, [3]float32{}, [3]float32{0, 1, 0})
	ctx.AddView(v)
	return v
}

func viewDataFor(view *lighting.RenderView, lights ...*light.RenderLight) *ordmap.Map[*lighting.RenderView, *lighting.RenderViewLightData] {
	data := lighting.NewRenderViewLightData()
	data.VisibleLightsWithShadows = lights
	m := ordmap.New[*lighting.RenderView, *lighting.RenderViewLightData]()
	m.Add(view, data)
	return m
}

func TestCollectAllocatesAndAddsCasterViews(t *testing.T) {
	ctx := lighting.NewRenderContext()
	main := newMainView(ctx)
	sun := light.NewRenderLight(&light.Directional{ShadowConfig: light.ShadowSettings{Enabled: true, CascadeCount: 2}})
	lamp := light.NewRenderLight(&light.Point{Radius: 4, ShadowConfig: light.ShadowSettings{Enabled: true, Size: light.ShadowSizeXSmall}})

	r := NewRenderer()
	views := viewDataFor(main, sun, lamp)
	r.Collect(ctx, views)

	data := dataOf(views, main)
	require.Len(t, data.RenderLightsWithShadows, 2)
	sunTex := data.RenderLightsWithShadows[sun]
	require.True(t, sunTex.Allocated())
	assert.Equal(t, 2, sunTex.CascadeCount)
	assert.Len(t, sunTex.Rects, 2)
	assert.Len(t, sunTex.WorldToShadow, 2)
	assert.Equal(t, light.DefaultShadowBias, sunTex.DepthBias)
	assert.Equal(t, "Directional", sunTex.Renderer.Name())

	lampTex := data.RenderLightsWithShadows[lamp]
	require.True(t, lampTex.Allocated())
	assert.Len(t, lampTex.Rects, 6)

	require.Len(t, ctx.Views, 1+2+6)
	assert.Same(t, main, ctx.Views[0])
	for i, v := range ctx.Views[1:] {
		assert.Equal(t, lighting.ViewKindShadowCaster, v.Kind)
		assert.Equal(t, i+1, v.Index)
	}
	assert.Equal(t, ctx.Views[1:], r.CasterViews())

	r.Flush(ctx)
	assert.Equal(t, []*lighting.RenderView{main}, ctx.Views)
	assert.Empty(t, r.CasterViews())
}

func TestCollectOneTexturePerLightPerFrame(t *testing.T) {
	ctx := lighting.NewRenderContext()
	left, right := newMainView(ctx), newMainView(ctx)
	spot := light.NewRenderLight(&light.Spot{Range: 10, AngleInner: 20, AngleOuter: 30, ShadowConfig: light.ShadowSettings{Enabled: true}})

	views := viewDataFor(left, spot)
	rightData := lighting.NewRenderViewLightData()
	rightData.VisibleLightsWithShadows = []*light.RenderLight{spot}
	views.Add(right, rightData)

	r := NewRenderer()
	r.Collect(ctx, views)
	a := dataOf(views, left).RenderLightsWithShadows[spot]
	b := rightData.RenderLightsWithShadows[spot]
	require.NotNil(t, a)
	assert.Same(t, a, b)
	assert.Len(t, ctx.Views, 3, "one caster view for the spot light")
}

func TestCollectAtlasExhaustion(t *testing.T) {
	var logs bytes.Buffer
	ctx := lighting.NewRenderContext()
	main := newMainView(ctx)
	settings := light.ShadowSettings{Enabled: true, Size: light.ShadowSizeXLarge}
	first := light.NewRenderLight(&light.Spot{Range: 10, AngleOuter: 30, ShadowConfig: settings})
	second := light.NewRenderLight(&light.Spot{Range: 10, AngleOuter: 30, ShadowConfig: settings})

	r := NewRenderer(
		WithAtlas(512, 1),
		WithRegionSizeLimits(512, 512),
		WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
	)
	views := viewDataFor(main, first, second)
	r.Collect(ctx, views)

	data := dataOf(views, main)
	assert.True(t, data.RenderLightsWithShadows[first].Allocated())
	failed := data.RenderLightsWithShadows[second]
	require.NotNil(t, failed)
	assert.False(t, failed.Allocated())
	assert.Contains(t, logs.String(), "shadow atlas exhausted")
	assert.Len(t, ctx.Views, 2)

	r.Flush(ctx)
	r.Collect(ctx, viewDataFor(main, second))
	assert.Len(t, ctx.Views, 2, "flushed regions are reused")
}

func TestCollectSkipsLightsWithoutRenderer(t *testing.T) {
	ctx := lighting.NewRenderContext()
	main := newMainView(ctx)
	sun := light.NewRenderLight(&light.Directional{ShadowConfig: light.ShadowSettings{Enabled: true}})

	r := NewRenderer(WithLightRenderers(NewPointRenderer()))
	views := viewDataFor(main, sun)
	r.Collect(ctx, views)
	assert.Empty(t, dataOf(views, main).RenderLightsWithShadows)
	assert.Len(t, r.Renderers(), 1)
}

func TestNewRendererRejectsEmptyAtlas(t *testing.T) {
	assert.Panics(t, func() { NewRenderer(WithAtlas(0, 1)) })
}

func TestShaderGroupDataPerDraw(t *testing.T) {
	ctx := lighting.NewRenderContext()
	main := newMainView(ctx)
	shadowed := light.NewRenderLight(&light.Point{Radius: 4, ShadowConfig: light.ShadowSettings{Enabled: true}})
	plain := light.NewRenderLight(&light.Point{Radius: 4})

	r := NewRenderer()
	views := viewDataFor(main, shadowed)
	r.Collect(ctx, views)
	tex := dataOf(views, main).RenderLightsWithShadows[shadowed]
	require.True(t, tex.Allocated())

	g := tex.Renderer.CreateShaderGroupData(tex.ShadowType)
	g.UpdateLightCount(0, 2)
	g.UpdateLayout("directLightGroups[0]")

	perView, perDraw := parameter.NewLayout(wgpu.ShaderStageFragment), parameter.NewLayout(wgpu.ShaderStageFragment)
	g.DeclareLayout(perView, perDraw)
	assert.Empty(t, perView.Entries)
	key := ShadowDataKey.ComposeWith("directLightGroups[0]")
	entry, ok := perDraw.Find(key)
	require.True(t, ok)
	assert.Equal(t, 12, entry.Count)

	mixin := shader.NewMixinSource()
	g.ApplyShader(mixin)
	assert.Contains(t, mixin.Key(), "ShadowMapReceiverPointCubeMap")

	params := parameter.NewCollection()
	params.UpdateLayout(perDraw)
	lights := []light.DynamicEntry{{Light: shadowed, ShadowMapTexture: tex}, {Light: plain}}
	g.ApplyDrawParameters(params, lights, common.BoundingBoxExt{})
	buf, ok := params.Get(key)
	require.True(t, ok)
	require.Len(t, buf, 80*12)

	var first ShadowData
	first.WorldToShadow = tex.WorldToShadow[0]
	assert.Equal(t, first.WorldToShadow[:], decodeMatrix(buf[:64]))
	var empty ShadowData
	assert.Equal(t, empty.AppendTo(nil), buf[80*6:80*7], "unshadowed light writes zero records")

	// Per-view writes are ignored by local light groups.
	params.Clear()
	g.ApplyViewParameters(params, lights)
	_, ok = params.Get(key)
	assert.False(t, ok)
}

func decodeMatrix(b []byte) []float32 {
	out := make([]float32, 16)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}

func dataOf(m *ordmap.Map[*lighting.RenderView, *lighting.RenderViewLightData], v *lighting.RenderView) *lighting.RenderViewLightData {
	d, _ := m.ValueByKeyTry(v)
	return d
}
