package lighting

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
	"github.com/Carmen-Shannon/oxy-lighting/engine/shader"
)

// ambientLightGroup holds the sum of the ambient lights of every view.
type ambientLightGroup struct {
	source   shader.Source
	colors   [][3]float32
	colorKey parameter.Key
}

var _ LightShaderGroup = &ambientLightGroup{}

func newAmbientLightGroup() *ambientLightGroup {
	return &ambientLightGroup{source: shader.NewClassSource("LightSimpleAmbient")}
}

func (g *ambientLightGroup) ShaderSource() shader.Source { return g.source }

func (g *ambientLightGroup) HasEffectPermutations() bool { return false }

func (g *ambientLightGroup) Reset() {
	clear(g.colors)
}

func (g *ambientLightGroup) SetViews(views []*RenderView) {
	g.colors = slices.Grow(g.colors[:0], len(views))[:len(views)]
	clear(g.colors)
}

func (g *ambientLightGroup) UpdateLayout(composition string) {
	g.colorKey = AmbientLightKey.ComposeWith(composition)
}

func (g *ambientLightGroup) DeclareLayout(perView, perDraw *parameter.Layout) {
	perView.Add(g.colorKey, 16, 1)
}

func (g *ambientLightGroup) ApplyViewParameters(viewIndex int, params parameter.Collection) {
	var c [3]float32
	if viewIndex >= 0 && viewIndex < len(g.colors) {
		c = g.colors[viewIndex]
	}
	params.SetFloat32s(g.colorKey, c[0], c[1], c[2], 0)
}

func (g *ambientLightGroup) ApplyDrawParameters(int, parameter.Collection, common.BoundingBoxExt, *DrawScratch) {
}

func (g *ambientLightGroup) UpdateViewResources(int) {}

func (g *ambientLightGroup) ApplyEffectPermutations(*RenderEffect) {}

type ambientLightRenderer struct {
	group *ambientLightGroup
	used  bool
}

var _ LightGroupRenderer = &ambientLightRenderer{}

// NewAmbientLightRenderer creates the renderer of ambient lights. Every view receives the sum of
// its ambient lights through a single environment light.
//
// Returns:
//   - LightGroupRenderer: the renderer
func NewAmbientLightRenderer() LightGroupRenderer {
	return &ambientLightRenderer{group: newAmbientLightGroup()}
}

func (r *ambientLightRenderer) LightTypes() []light.LightTypeTag {
	return []light.LightTypeTag{light.TagAmbient}
}

func (r *ambientLightRenderer) Initialize(Config) {}

func (r *ambientLightRenderer) Unload() {}

func (r *ambientLightRenderer) Reset() {
	r.used = false
	r.group.Reset()
}

func (r *ambientLightRenderer) SetViews(views []*RenderView) {
	r.group.SetViews(views)
}

func (r *ambientLightRenderer) ProcessLights(p *ProcessLightsParameters) {
	for _, idx := range p.LightIndices.ClaimAll() {
		l := p.LightCollection.At(idx)
		r.group.colors[p.ViewIndex] = common.Add3(r.group.colors[p.ViewIndex], l.Color)
		r.used = true
	}
}

func (r *ambientLightRenderer) PrepareResources() {}

func (r *ambientLightRenderer) UpdateShaderPermutationEntry(entry *LightShaderPermutationEntry) {
	if r.used {
		entry.EnvironmentLights = append(entry.EnvironmentLights, r.group)
	}
}

// skyboxLightGroup is the environment light of one skybox. Its diffuse and specular shaders are
// selected through effect permutations rather than through its shader source.
type skyboxLightGroup struct {
	light   *light.RenderLight
	source  shader.Source
	visible []bool

	composition  string
	intensityKey parameter.Key
	matrixKey    parameter.Key
	shKey        parameter.Key
	mipCountKey  parameter.Key
	buf          []byte
}

var _ LightShaderGroup = &skyboxLightGroup{}

func newSkyboxLightGroup(l *light.RenderLight) *skyboxLightGroup {
	return &skyboxLightGroup{light: l, source: shader.NewClassSource("LightSkyboxShader")}
}

func (g *skyboxLightGroup) skybox() *light.Skybox {
	s, _ := g.light.Type.(*light.Skybox)
	return s
}

func (g *skyboxLightGroup) ShaderSource() shader.Source { return g.source }

func (g *skyboxLightGroup) HasEffectPermutations() bool { return true }

func (g *skyboxLightGroup) Reset() {
	clear(g.visible)
}

func (g *skyboxLightGroup) SetViews(views []*RenderView) {
	g.visible = slices.Grow(g.visible[:0], len(views))[:len(views)]
	clear(g.visible)
}

func (g *skyboxLightGroup) UpdateLayout(composition string) {
	g.composition = composition
	g.intensityKey = SkyboxIntensityKey.ComposeWith(composition)
	g.matrixKey = SkyboxMatrixKey.ComposeWith(composition)
	g.shKey = SkyboxSphericalKey.ComposeWith(composition)
	g.mipCountKey = SkyboxMipCountKey.ComposeWith(composition)
}

func (g *skyboxLightGroup) DeclareLayout(perView, perDraw *parameter.Layout) {
	perView.Add(g.intensityKey, 4, 1)
	perView.Add(g.matrixKey, 64, 1)
	if s := g.skybox(); s != nil && len(s.DiffuseSH) > 0 {
		perView.Add(g.shKey, 16, len(s.DiffuseSH))
	}
	if s := g.skybox(); s != nil && s.SpecularCubemap != nil {
		perView.Add(g.mipCountKey, 4, 1)
	}
}

func (g *skyboxLightGroup) ApplyViewParameters(viewIndex int, params parameter.Collection) {
	s := g.skybox()
	intensity := float32(0)
	if s != nil && viewIndex >= 0 && viewIndex < len(g.visible) && g.visible[viewIndex] {
		intensity = s.Intensity * g.light.Intensity
	}
	params.SetFloat32s(g.intensityKey, intensity)

	rotation := g.light.WorldMatrix
	rotation[12], rotation[13], rotation[14] = 0, 0, 0
	params.SetFloat32s(g.matrixKey, rotation[:]...)
	if s == nil {
		return
	}
	if len(s.DiffuseSH) > 0 {
		g.buf = g.buf[:0]
		for _, c := range s.DiffuseSH {
			g.buf = light.AppendFloat32s(g.buf, c[0], c[1], c[2], 0)
		}
		params.Set(g.shKey, g.buf)
	}
	if s.SpecularCubemap != nil {
		params.SetInt32(g.mipCountKey, int32(s.SpecularMipCount))
	}
}

func (g *skyboxLightGroup) ApplyDrawParameters(int, parameter.Collection, common.BoundingBoxExt, *DrawScratch) {
}

func (g *skyboxLightGroup) UpdateViewResources(int) {}

// ApplyEffectPermutations selects the diffuse and specular environment shaders of the skybox.
func (g *skyboxLightGroup) ApplyEffectPermutations(effect *RenderEffect) {
	var diffuse, specular shader.Source
	if s := g.skybox(); s != nil {
		if order := s.SHOrder(); order > 0 {
			diffuse = shader.NewClassSource("SphericalHarmonicsEnvironmentColor", order)
		}
		if s.SpecularCubemap != nil {
			specular = shader.NewClassSource("RoughnessCubeMapEnvironmentColor")
		}
	}
	effect.Validator.ValidateParameter(SkyboxDiffuseShaderKey.ComposeWith(g.composition), sourceKey(diffuse))
	effect.Validator.ValidateParameter(SkyboxSpecularKey.ComposeWith(g.composition), sourceKey(specular))
}

func sourceKey(s shader.Source) string {
	if s == nil {
		return ""
	}
	return s.Key()
}

type skyboxLightRenderer struct {
	pool   map[*light.RenderLight]*skyboxLightGroup
	groups []*skyboxLightGroup
}

var _ LightGroupRenderer = &skyboxLightRenderer{}

// NewSkyboxLightRenderer creates the renderer of skybox lights, one environment light per skybox.
//
// Returns:
//   - LightGroupRenderer: the renderer
func NewSkyboxLightRenderer() LightGroupRenderer {
	return &skyboxLightRenderer{pool: make(map[*light.RenderLight]*skyboxLightGroup)}
}

func (r *skyboxLightRenderer) LightTypes() []light.LightTypeTag {
	return []light.LightTypeTag{light.TagSkybox}
}

func (r *skyboxLightRenderer) Initialize(Config) {}

func (r *skyboxLightRenderer) Unload() {
	clear(r.pool)
	r.groups = r.groups[:0]
}

func (r *skyboxLightRenderer) Reset() {
	r.groups = r.groups[:0]
	for _, g := range r.pool {
		g.Reset()
	}
}

func (r *skyboxLightRenderer) SetViews(views []*RenderView) {
	for _, g := range r.pool {
		g.SetViews(views)
	}
}

func (r *skyboxLightRenderer) ProcessLights(p *ProcessLightsParameters) {
	for _, idx := range p.LightIndices.ClaimAll() {
		l := p.LightCollection.At(idx)
		g, ok := r.pool[l]
		if !ok {
			g = newSkyboxLightGroup(l)
			g.SetViews(p.Views)
			r.pool[l] = g
		}
		g.visible[p.ViewIndex] = true
		if !slices.Contains(r.groups, g) {
			r.groups = append(r.groups, g)
		}
	}
}

func (r *skyboxLightRenderer) PrepareResources() {}

func (r *skyboxLightRenderer) UpdateShaderPermutationEntry(entry *LightShaderPermutationEntry) {
	slices.SortFunc(r.groups, func(a, b *skyboxLightGroup) int {
		if c := cmp.Compare(a.source.Key(), b.source.Key()); c != 0 {
			return c
		}
		return cmp.Compare(a.light.ID, b.light.ID)
	})
	for _, g := range r.groups {
		entry.EnvironmentLights = append(entry.EnvironmentLights, g)
	}
}
