package lighting

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
	"github.com/Carmen-Shannon/oxy-lighting/engine/shader"
)

// LightShaderGroup is the shader-visible batch of lights of one type produced by a renderer for
// one frame: a shader source plus the code that fills its parameters.
//
// Groups are built on the collection thread; only ApplyDrawParameters may be called concurrently,
// and then each caller passes its own DrawScratch.
type LightShaderGroup interface {
	// ShaderSource returns the source the group contributes to the lighting permutation.
	//
	// Returns:
	//   - shader.Source: the source, valid after UpdateLayout
	ShaderSource() shader.Source

	// HasEffectPermutations reports whether the group registers extra permutation parameters on
	// effects through ApplyEffectPermutations.
	HasEffectPermutations() bool

	// Reset forgets the lights of the previous frame.
	Reset()

	// SetViews sizes the per-view light ranges for the views of this frame.
	//
	// Parameters:
	//   - views: the views with light data, indexed by view index
	SetViews(views []*RenderView)

	// UpdateLayout composes the group's parameter keys under a composition name. The light count of
	// the group is final when this is called.
	//
	// Parameters:
	//   - composition: the composition name, for example "directLightGroups[0]"
	UpdateLayout(composition string)

	// DeclareLayout adds the parameters the group writes to the per-view and per-draw layouts.
	DeclareLayout(perView, perDraw *parameter.Layout)

	// ApplyViewParameters writes the per-view parameters of view viewIndex.
	ApplyViewParameters(viewIndex int, params parameter.Collection)

	// ApplyDrawParameters writes the per-draw parameters of one object.
	//
	// Parameters:
	//   - viewIndex: the view index
	//   - params: the per-draw collection
	//   - box: the object's bounds
	//   - scratch: caller-owned scratch state
	ApplyDrawParameters(viewIndex int, params parameter.Collection, box common.BoundingBoxExt, scratch *DrawScratch)

	// UpdateViewResources binds the per-view resources of view viewIndex before drawing it.
	UpdateViewResources(viewIndex int)

	// ApplyEffectPermutations registers the group's extra permutation parameters on effect.
	ApplyEffectPermutations(effect *RenderEffect)
}

// DrawScratch is the per-worker state used while applying per-draw parameters.
type DrawScratch struct {
	selected []light.DynamicEntry
	buf      []byte
}

// NewDrawScratch creates empty scratch state.
func NewDrawScratch() *DrawScratch {
	return &DrawScratch{}
}

// selectLights returns the candidates whose bounds intersect box, at most limit of them.
// With SelectNearest the lights closest to the box center are kept.
func (s *DrawScratch) selectLights(candidates []light.DynamicEntry, box common.BoundingBoxExt, limit int, selection LightSelection) []light.DynamicEntry {
	s.selected = s.selected[:0]
	if limit <= 0 {
		return s.selected
	}
	bounds := box.Box()
	for _, e := range candidates {
		if !e.Light.BoundingBox().Intersects(bounds) {
			continue
		}
		s.selected = append(s.selected, e)
		if selection == SelectFirst && len(s.selected) >= limit {
			return s.selected
		}
	}
	if len(s.selected) > limit {
		slices.SortStableFunc(s.selected, func(a, b light.DynamicEntry) int {
			da := squaredDistance(a.Light.Position, box.Center)
			db := squaredDistance(b.Light.Position, box.Center)
			switch {
			case da < db:
				return -1
			case da > db:
				return 1
			}
			return 0
		})
		s.selected = s.selected[:limit]
	}
	return s.selected
}

func squaredDistance(a, b [3]float32) float32 {
	d := common.Sub3(a, b)
	return common.Dot3(d, d)
}

type lightRange struct {
	start, end int
}

// lightShaderGroupDynamic holds the lights of a group across views, each view owning a range of
// them, and tracks the light count bucket the shader source was generated for.
type lightShaderGroupDynamic struct {
	shaderSource  shader.Source
	composition   string
	maxLightCount int
	currentCount  int
	builtCount    int
	built         bool
	// allowExtraLights lets a view add more lights than the shader holds; they are culled per draw.
	allowExtraLights bool

	lights []light.DynamicEntry
	ranges []lightRange
	views  []*RenderView

	shadowGroup light.ShadowMapShaderGroupData
	boundView   int

	// buildShader generates the shader source for a light count.
	buildShader func(count int) shader.Source
	// onLightCount is notified after the light count bucket changed.
	onLightCount func(last, current int)
}

func newLightShaderGroupDynamic(maxLightCount int, shadowGroup light.ShadowMapShaderGroupData) *lightShaderGroupDynamic {
	return &lightShaderGroupDynamic{
		maxLightCount: maxLightCount,
		shadowGroup:   shadowGroup,
		boundView:     -1,
	}
}

func (g *lightShaderGroupDynamic) ShaderSource() shader.Source {
	return g.shaderSource
}

func (g *lightShaderGroupDynamic) HasEffectPermutations() bool {
	return false
}

func (g *lightShaderGroupDynamic) Reset() {
	clear(g.lights)
	g.lights = g.lights[:0]
	clear(g.ranges)
	g.currentCount = 0
	g.boundView = -1
}

func (g *lightShaderGroupDynamic) SetViews(views []*RenderView) {
	g.views = views
	if cap(g.ranges) < len(views) {
		g.ranges = make([]lightRange, len(views))
	}
	g.ranges = g.ranges[:len(views)]
	clear(g.ranges)
}

// AddView opens the light range of a view and raises the light count bucket to fit lightCount.
//
// Returns:
//   - int: the number of lights the caller may add for this view
func (g *lightShaderGroupDynamic) AddView(viewIndex int, lightCount int) int {
	g.currentCount = max(g.currentCount, bucketLightCount(lightCount, g.maxLightCount))
	allowed := lightCount
	if !g.allowExtraLights {
		allowed = min(lightCount, g.currentCount)
	}
	start := len(g.lights)
	g.ranges[viewIndex] = lightRange{start: start, end: start + allowed}
	return allowed
}

// AddLight appends a light to the range opened by the last AddView.
func (g *lightShaderGroupDynamic) AddLight(l *light.RenderLight, shadowTexture *light.ShadowMapTexture) {
	g.lights = append(g.lights, light.DynamicEntry{Light: l, ShadowMapTexture: shadowTexture})
}

// LightCount returns the light count bucket of the current frame.
func (g *lightShaderGroupDynamic) LightCount() int {
	return g.currentCount
}

// finalizeLightCount regenerates the shader source when the light count bucket changed.
func (g *lightShaderGroupDynamic) finalizeLightCount() {
	if g.built && g.builtCount == g.currentCount {
		return
	}
	last := g.builtCount
	g.builtCount = g.currentCount
	g.built = true
	if g.shadowGroup != nil {
		g.shadowGroup.UpdateLightCount(last, g.currentCount)
	}
	if g.onLightCount != nil {
		g.onLightCount(last, g.currentCount)
	}
	g.shaderSource = g.buildShader(g.currentCount)
}

func (g *lightShaderGroupDynamic) UpdateLayout(composition string) {
	g.finalizeLightCount()
	g.composition = composition
	if g.shadowGroup != nil {
		g.shadowGroup.UpdateLayout(composition)
	}
}

func (g *lightShaderGroupDynamic) DeclareLayout(perView, perDraw *parameter.Layout) {
	if g.shadowGroup != nil {
		g.shadowGroup.DeclareLayout(perView, perDraw)
	}
}

// viewLights returns the lights of view viewIndex.
func (g *lightShaderGroupDynamic) viewLights(viewIndex int) []light.DynamicEntry {
	if viewIndex < 0 || viewIndex >= len(g.ranges) {
		return nil
	}
	r := g.ranges[viewIndex]
	return g.lights[r.start:r.end]
}

func (g *lightShaderGroupDynamic) ApplyViewParameters(viewIndex int, params parameter.Collection) {
	if g.shadowGroup != nil {
		g.shadowGroup.ApplyViewParameters(params, g.viewLights(viewIndex))
	}
}

func (g *lightShaderGroupDynamic) ApplyDrawParameters(viewIndex int, params parameter.Collection, box common.BoundingBoxExt, scratch *DrawScratch) {
	if g.shadowGroup != nil {
		g.shadowGroup.ApplyDrawParameters(params, g.viewLights(viewIndex), box)
	}
}

func (g *lightShaderGroupDynamic) UpdateViewResources(viewIndex int) {
	g.boundView = viewIndex
}

// BoundView returns the view index whose resources were last bound, -1 if none this frame.
func (g *lightShaderGroupDynamic) BoundView() int {
	return g.boundView
}

func (g *lightShaderGroupDynamic) ApplyEffectPermutations(effect *RenderEffect) {}

// bucketLightCount rounds n up to a power of two and clamps it to limit.
func bucketLightCount(n, limit int) int {
	if n <= 0 {
		return 0
	}
	c := 1
	for c < n {
		c <<= 1
	}
	return min(c, limit)
}
