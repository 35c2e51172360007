package lighting

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
)

// ProcessLightsParameters is the work item handed to each renderer of a chain for one view,
// one render group and one light type.
type ProcessLightsParameters struct {
	ViewIndex int
	View      *RenderView
	Views     []*RenderView

	// Renderers is the chain registered for LightType and RendererIndex the position of the
	// renderer being called in it.
	Renderers     []LightGroupRenderer
	RendererIndex int

	LightCollection *light.RenderLightCollection
	// LightIndices holds the indices into LightCollection not claimed by an earlier renderer.
	LightIndices *LightIndexQueue
	LightType    light.LightTypeTag

	ShadowMapRenderer         ShadowMapRenderer
	ShadowMapTexturesPerLight map[*light.RenderLight]*light.ShadowMapTexture
}

// HasNextRenderer reports whether a renderer follows the current one in the chain.
func (p *ProcessLightsParameters) HasNextRenderer() bool {
	return p.RendererIndex < len(p.Renderers)-1
}

// shadowTexture returns the allocated shadow map of l, or nil if it has none or shadows are off.
func (p *ProcessLightsParameters) shadowTexture(l *light.RenderLight) *light.ShadowMapTexture {
	if p.ShadowMapRenderer == nil {
		return nil
	}
	tex, ok := p.ShadowMapTexturesPerLight[l]
	if !ok || !tex.Allocated() {
		return nil
	}
	return tex
}

// LightGroupRenderer turns the lights of the types it supports into light shader groups.
//
// Renderers are registered on the feature in a fixed order; every step that contributes to the
// shader permutation visits them in that order.
type LightGroupRenderer interface {
	// LightTypes returns the tags of the lights the renderer handles.
	LightTypes() []light.LightTypeTag

	// Initialize is called when the renderer is registered.
	//
	// Parameters:
	//   - cfg: the feature configuration
	Initialize(cfg Config)

	// Unload is called when the renderer is removed and releases its pooled groups.
	Unload()

	// Reset clears the per-frame state before a new permutation is built.
	Reset()

	// SetViews announces the views with light data of this frame.
	SetViews(views []*RenderView)

	// ProcessLights claims lights from p.LightIndices and adds them to shader groups.
	//
	// Parameters:
	//   - p: the work item
	ProcessLights(p *ProcessLightsParameters)

	// PrepareResources finalizes the groups produced this frame.
	PrepareResources()

	// UpdateShaderPermutationEntry appends the groups produced this frame to the permutation.
	//
	// Parameters:
	//   - entry: the permutation being built
	UpdateShaderPermutationEntry(entry *LightShaderPermutationEntry)
}

// groupKey identifies the shader group a direct light goes into.
type groupKey struct {
	shadowRenderer light.LightShadowMapRenderer
	// shadowOrder is the registration index of shadowRenderer, -1 without one.
	shadowOrder int
	shadowType  light.LightShadowType
	projection  TextureProjectionRenderer
}

func (k groupKey) compare(o groupKey) int {
	if c := cmpBool(k.shadowRenderer != nil, o.shadowRenderer != nil); c != 0 {
		return c
	}
	if c := cmpBool(k.projection != nil, o.projection != nil); c != 0 {
		return c
	}
	if c := cmp.Compare(k.shadowType, o.shadowType); c != 0 {
		return c
	}
	if c := cmp.Compare(rendererName(k.shadowRenderer), rendererName(o.shadowRenderer)); c != 0 {
		return c
	}
	if c := cmp.Compare(k.shadowOrder, o.shadowOrder); c != 0 {
		return c
	}
	return compareProjection(k.projection, o.projection)
}

func rendererName(r light.LightShadowMapRenderer) string {
	if r == nil {
		return ""
	}
	return r.Name()
}

func compareProjection(a, b TextureProjectionRenderer) int {
	if a == nil || b == nil {
		return cmpBool(a != nil, b != nil)
	}
	if c := compareTextureParameters(a.Parameters(), b.Parameters()); c != 0 {
		return c
	}
	return cmp.Compare(projectionSequence(a), projectionSequence(b))
}

func compareTextureParameters(a, b light.SpotTextureParameters) int {
	if c := cmpBool(a.Texture != nil, b.Texture != nil); c != 0 {
		return c
	}
	if a.Texture != nil {
		if c := cmp.Compare(a.Texture.Name, b.Texture.Name); c != 0 {
			return c
		}
	}
	if c := cmp.Compare(a.FlipMode, b.FlipMode); c != 0 {
		return c
	}
	for i := range 2 {
		if c := cmp.Compare(a.UVScale[i], b.UVScale[i]); c != 0 {
			return c
		}
		if c := cmp.Compare(a.UVOffset[i], b.UVOffset[i]); c != 0 {
			return c
		}
	}
	if a.Texture != nil {
		return cmp.Compare(a.Texture.ID, b.Texture.ID)
	}
	return 0
}

// cmpBool orders false before true.
func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// directShaderGroup is implemented by the shader groups of direct light renderers.
type directShaderGroup interface {
	LightShaderGroup
	AddView(viewIndex int, lightCount int) int
	AddLight(l *light.RenderLight, shadowTexture *light.ShadowMapTexture)
	finalizeLightCount()
}

type groupEntry struct {
	key   groupKey
	group directShaderGroup
}

// directLightRenderer batches direct lights into shader groups keyed by shadow renderer, shadow
// type and, for lights that support it, texture projection. Groups are pooled by key for the
// lifetime of the renderer and only their content is reset every frame.
type directLightRenderer struct {
	tags          []light.LightTypeTag
	maxLightCount int
	selection     LightSelection

	views     []*RenderView
	pool      map[groupKey]directShaderGroup
	groups    []groupEntry
	processed []light.DynamicEntry

	newGroup func(key groupKey) directShaderGroup
	// projectionFor returns the texture projection renderer of l, nil when l projects no texture.
	projectionFor func(l *light.RenderLight) TextureProjectionRenderer
}

func newDirectLightRenderer(tag light.LightTypeTag) *directLightRenderer {
	return &directLightRenderer{
		tags:          []light.LightTypeTag{tag},
		maxLightCount: 8,
		selection:     SelectNearest,
		pool:          make(map[groupKey]directShaderGroup),
	}
}

func (r *directLightRenderer) LightTypes() []light.LightTypeTag {
	return r.tags
}

func (r *directLightRenderer) Unload() {
	clear(r.pool)
	r.groups = r.groups[:0]
}

func (r *directLightRenderer) Reset() {
	r.groups = r.groups[:0]
	for _, g := range r.pool {
		g.Reset()
	}
}

func (r *directLightRenderer) SetViews(views []*RenderView) {
	r.views = views
	for _, g := range r.pool {
		g.SetViews(views)
	}
}

func (r *directLightRenderer) keyOf(p *ProcessLightsParameters, l *light.RenderLight) (groupKey, *light.ShadowMapTexture) {
	key := groupKey{shadowOrder: -1}
	tex := p.shadowTexture(l)
	if tex != nil {
		key.shadowRenderer = tex.Renderer
		key.shadowOrder = slices.Index(p.ShadowMapRenderer.Renderers(), tex.Renderer)
		key.shadowType = tex.ShadowType
	}
	if r.projectionFor != nil {
		key.projection = r.projectionFor(l)
	}
	return key, tex
}

// ProcessLights sorts the unclaimed lights so that lights sharing a group key are adjacent, with
// shadowed lights first, then walks them flushing one batch per key. When a later renderer exists
// in the chain, lights without a shadow map are left for it.
func (r *directLightRenderer) ProcessLights(p *ProcessLightsParameters) {
	if p.LightCollection.Len() == 0 || p.LightIndices.Len() == 0 {
		return
	}
	hasNext := p.HasNextRenderer()

	keys := make(map[int]groupKey, p.LightIndices.Len())
	textures := make(map[int]*light.ShadowMapTexture, p.LightIndices.Len())
	for i := range p.LightIndices.Len() {
		idx := p.LightIndices.At(i)
		keys[idx], textures[idx] = r.keyOf(p, p.LightCollection.At(idx))
	}
	p.LightIndices.Sort(func(a, b int) int {
		// Unshadowed lights go last so they can be deferred to the next renderer.
		if c := cmpBool(textures[a] == nil, textures[b] == nil); c != 0 {
			return c
		}
		return keys[a].compare(keys[b])
	})

	var current groupKey
	r.processed = r.processed[:0]
	for j := 0; j < p.LightIndices.Len()+1; {
		var next groupKey
		var nextTexture *light.ShadowMapTexture
		var nextLight *light.RenderLight
		if j < p.LightIndices.Len() {
			idx := p.LightIndices.At(j)
			nextLight = p.LightCollection.At(idx)
			next, nextTexture = keys[idx], textures[idx]
		}

		if j == p.LightIndices.Len() || next != current {
			if len(r.processed) > 0 {
				r.flush(p, current)
			}
			current = next
		}

		if j < p.LightIndices.Len() {
			if nextTexture == nil && hasNext {
				break
			}
			p.LightIndices.Claim(j)
			r.processed = append(r.processed, light.DynamicEntry{Light: nextLight, ShadowMapTexture: nextTexture})
		} else {
			j++
		}
	}
	clear(r.processed)
	r.processed = r.processed[:0]
}

func (r *directLightRenderer) flush(p *ProcessLightsParameters, key groupKey) {
	g, ok := r.pool[key]
	if !ok {
		g = r.newGroup(key)
		g.SetViews(p.Views)
		r.pool[key] = g
	}
	allowed := g.AddView(p.ViewIndex, len(r.processed))
	for _, e := range r.processed[:allowed] {
		g.AddLight(e.Light, e.ShadowMapTexture)
	}
	if !slices.ContainsFunc(r.groups, func(e groupEntry) bool { return e.key == key }) {
		r.groups = append(r.groups, groupEntry{key: key, group: g})
	}
	r.processed = r.processed[:0]
}

func (r *directLightRenderer) PrepareResources() {
	for _, e := range r.groups {
		e.group.finalizeLightCount()
	}
}

func (r *directLightRenderer) UpdateShaderPermutationEntry(entry *LightShaderPermutationEntry) {
	slices.SortStableFunc(r.groups, func(a, b groupEntry) int {
		return a.key.compare(b.key)
	})
	for _, e := range r.groups {
		entry.DirectLightGroups = append(entry.DirectLightGroups, e.group)
	}
}

func (r *directLightRenderer) shadowGroupData(key groupKey) light.ShadowMapShaderGroupData {
	if key.shadowRenderer == nil {
		return nil
	}
	return key.shadowRenderer.CreateShaderGroupData(key.shadowType)
}
