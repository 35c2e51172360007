package lighting

import (
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
	"github.com/Carmen-Shannon/oxy-lighting/engine/shader"
)

// directionalLightGroup writes its lights once per view: directional lights reach every object.
type directionalLightGroup struct {
	*lightShaderGroupDynamic

	countKey  parameter.Key
	lightsKey parameter.Key
	viewBuf   []byte
}

func newDirectionalLightGroup(maxLightCount int, shadowGroup light.ShadowMapShaderGroupData) *directionalLightGroup {
	g := &directionalLightGroup{lightShaderGroupDynamic: newLightShaderGroupDynamic(maxLightCount, shadowGroup)}
	g.buildShader = func(count int) shader.Source {
		m := shader.NewMixinSource(shader.NewClassSource("LightDirectionalGroup", count))
		if g.shadowGroup != nil {
			g.shadowGroup.ApplyShader(m)
		}
		return m
	}
	return g
}

func (g *directionalLightGroup) UpdateLayout(composition string) {
	g.lightShaderGroupDynamic.UpdateLayout(composition)
	g.countKey = PerViewLightCountKey.ComposeWith(composition)
	g.lightsKey = DirectionalLightsKey.ComposeWith(composition)
}

func (g *directionalLightGroup) DeclareLayout(perView, perDraw *parameter.Layout) {
	var d light.DirectionalLightData
	perView.Add(g.countKey, 4, 1)
	perView.Add(g.lightsKey, d.Size(), g.builtCount)
	g.lightShaderGroupDynamic.DeclareLayout(perView, perDraw)
}

func (g *directionalLightGroup) ApplyViewParameters(viewIndex int, params parameter.Collection) {
	lights := g.viewLights(viewIndex)
	if len(lights) > g.builtCount {
		lights = lights[:g.builtCount]
	}
	g.viewBuf = g.viewBuf[:0]
	for _, e := range lights {
		d := light.NewDirectionalLightData(e.Light)
		g.viewBuf = d.AppendTo(g.viewBuf)
	}
	params.SetInt32(g.countKey, int32(len(lights)))
	params.Set(g.lightsKey, g.viewBuf)
	g.lightShaderGroupDynamic.ApplyViewParameters(viewIndex, params)
}

// localLightGroup holds point or spot lights. A view may hand it more lights than the shader holds;
// every draw receives the ones touching the object, up to the shader capacity.
type localLightGroup struct {
	*lightShaderGroupDynamic

	baseLightsKey parameter.Key
	elementSize   int
	appendLight   func(buf []byte, l *light.RenderLight) []byte
	selection     LightSelection
	projection    TextureProjectionShaderGroupData

	countKey  parameter.Key
	lightsKey parameter.Key
}

func newLocalLightGroup(className string, maxLightCount int, shadowGroup light.ShadowMapShaderGroupData, projection TextureProjectionShaderGroupData) *localLightGroup {
	g := &localLightGroup{
		lightShaderGroupDynamic: newLightShaderGroupDynamic(maxLightCount, shadowGroup),
		projection:              projection,
		selection:               SelectNearest,
	}
	g.allowExtraLights = true
	g.buildShader = func(count int) shader.Source {
		m := shader.NewMixinSource(shader.NewClassSource(className, count))
		if g.shadowGroup != nil {
			g.shadowGroup.ApplyShader(m)
		}
		if g.projection != nil {
			g.projection.ApplyShader(m)
		}
		return m
	}
	if projection != nil {
		g.onLightCount = projection.UpdateLightCount
	}
	return g
}

func newPointLightGroup(maxLightCount int, shadowGroup light.ShadowMapShaderGroupData) *localLightGroup {
	var d light.PointLightData
	g := newLocalLightGroup("LightPointGroup", maxLightCount, shadowGroup, nil)
	g.baseLightsKey = PointLightsKey
	g.elementSize = d.Size()
	g.appendLight = func(buf []byte, l *light.RenderLight) []byte {
		d := light.NewPointLightData(l)
		return d.AppendTo(buf)
	}
	return g
}

func newSpotLightGroup(maxLightCount int, shadowGroup light.ShadowMapShaderGroupData, projection TextureProjectionShaderGroupData) *localLightGroup {
	var d light.SpotLightData
	g := newLocalLightGroup("LightSpotGroup", maxLightCount, shadowGroup, projection)
	g.baseLightsKey = SpotLightsKey
	g.elementSize = d.Size()
	g.appendLight = func(buf []byte, l *light.RenderLight) []byte {
		d := light.NewSpotLightData(l)
		return d.AppendTo(buf)
	}
	return g
}

func (g *localLightGroup) UpdateLayout(composition string) {
	g.lightShaderGroupDynamic.UpdateLayout(composition)
	g.countKey = PerDrawLightCountKey.ComposeWith(composition)
	g.lightsKey = g.baseLightsKey.ComposeWith(composition)
	if g.projection != nil {
		g.projection.UpdateLayout(composition)
	}
}

func (g *localLightGroup) DeclareLayout(perView, perDraw *parameter.Layout) {
	perDraw.Add(g.countKey, 4, 1)
	perDraw.Add(g.lightsKey, g.elementSize, g.builtCount)
	g.lightShaderGroupDynamic.DeclareLayout(perView, perDraw)
	if g.projection != nil {
		g.projection.DeclareLayout(perDraw)
	}
}

func (g *localLightGroup) ApplyDrawParameters(viewIndex int, params parameter.Collection, box common.BoundingBoxExt, scratch *DrawScratch) {
	selected := scratch.selectLights(g.viewLights(viewIndex), box, g.builtCount, g.selection)
	scratch.buf = scratch.buf[:0]
	for _, e := range selected {
		scratch.buf = g.appendLight(scratch.buf, e.Light)
	}
	params.SetInt32(g.countKey, int32(len(selected)))
	params.Set(g.lightsKey, scratch.buf)
	if g.shadowGroup != nil {
		g.shadowGroup.ApplyDrawParameters(params, selected, box)
	}
	if g.projection != nil {
		g.projection.ApplyDrawParameters(params, selected)
	}
}

// NewDirectionalLightRenderer creates the renderer of directional lights. Lights of one view share
// a group per shadow configuration, capped at Config.MaxDirectionalLights.
//
// Returns:
//   - LightGroupRenderer: the renderer
func NewDirectionalLightRenderer() LightGroupRenderer {
	r := newDirectLightRenderer(light.TagDirectional)
	r.newGroup = func(key groupKey) directShaderGroup {
		return newDirectionalLightGroup(r.maxLightCount, r.shadowGroupData(key))
	}
	return &directionalLightRenderer{directLightRenderer: r}
}

type directionalLightRenderer struct {
	*directLightRenderer
}

func (r *directionalLightRenderer) Initialize(cfg Config) {
	r.maxLightCount = cfg.MaxDirectionalLights
	r.selection = cfg.DrawLightSelection
}

// NewPointLightRenderer creates the renderer of point lights. Each draw receives the point lights
// whose bounds touch it, at most Config.MaxPointLights.
//
// Returns:
//   - LightGroupRenderer: the renderer
func NewPointLightRenderer() LightGroupRenderer {
	r := newDirectLightRenderer(light.TagPoint)
	r.newGroup = func(key groupKey) directShaderGroup {
		g := newPointLightGroup(r.maxLightCount, r.shadowGroupData(key))
		g.selection = r.selection
		return g
	}
	return &pointLightRenderer{directLightRenderer: r}
}

type pointLightRenderer struct {
	*directLightRenderer
}

func (r *pointLightRenderer) Initialize(cfg Config) {
	r.maxLightCount = cfg.MaxPointLights
	r.selection = cfg.DrawLightSelection
}

// NewSpotLightRenderer creates the renderer of spot lights. Lights are grouped by shadow
// configuration and projected texture.
//
// Returns:
//   - LightGroupRenderer: the renderer
func NewSpotLightRenderer() LightGroupRenderer {
	r := &spotLightRenderer{
		directLightRenderer: newDirectLightRenderer(light.TagSpot),
		projections:         make(map[light.SpotTextureParameters]TextureProjectionRenderer),
	}
	r.newGroup = func(key groupKey) directShaderGroup {
		var projection TextureProjectionShaderGroupData
		if key.projection != nil {
			projection = key.projection.CreateShaderGroupData()
		}
		g := newSpotLightGroup(r.maxLightCount, r.shadowGroupData(key), projection)
		g.selection = r.selection
		return g
	}
	r.projectionFor = r.findOrCreateProjection
	return r
}

type spotLightRenderer struct {
	*directLightRenderer
	projections map[light.SpotTextureParameters]TextureProjectionRenderer
}

func (r *spotLightRenderer) Initialize(cfg Config) {
	r.maxLightCount = cfg.MaxSpotLights
	r.selection = cfg.DrawLightSelection
}

func (r *spotLightRenderer) Unload() {
	r.directLightRenderer.Unload()
	clear(r.projections)
}

// findOrCreateProjection returns the cached projection renderer for the texture setup of l.
func (r *spotLightRenderer) findOrCreateProjection(l *light.RenderLight) TextureProjectionRenderer {
	s, ok := l.Type.(*light.Spot)
	if !ok || s.ProjectiveTexture == nil {
		return nil
	}
	params := s.TextureParameters()
	if p, ok := r.projections[params]; ok {
		return p
	}
	p := NewTextureProjectionRenderer(params)
	r.projections[params] = p
	return p
}
