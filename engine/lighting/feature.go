package lighting

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"cogentcore.org/core/base/ordmap"
	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
	"github.com/Carmen-Shannon/oxy-lighting/engine/profiler"
	"github.com/Carmen-Shannon/oxy-lighting/engine/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// ForwardLightingRenderFeature drives the forward lighting of a frame: it culls the scene lights
// per view, hands them to the registered light group renderers, assembles the lighting shader
// permutation and fills the per-view and per-draw lighting parameters.
//
// A frame calls Collect, PrepareEffectPermutations, Prepare, then Draw for every view drawn and
// finally Flush. Only Prepare uses more than one goroutine.
type ForwardLightingRenderFeature interface {
	// Collect culls the scene lights against every main view and buckets them by light type.
	// Views sharing a LightingView share one RenderViewLightData.
	//
	// Parameters:
	//   - ctx: the frame context
	Collect(ctx *RenderContext)

	// PrepareEffectPermutations builds the light shader groups of the frame and registers the
	// resulting permutation on every lit effect in use.
	//
	// Parameters:
	//   - ctx: the frame context
	PrepareEffectPermutations(ctx *RenderContext)

	// Prepare writes the per-view lighting parameters of every view and the per-draw lighting
	// parameters of every render node.
	//
	// Parameters:
	//   - ctx: the frame context
	//
	// Returns:
	//   - error: wraps ErrLayoutMismatch when two effects of a view disagree on the lighting layout
	//     and strict layout consistency is enabled
	Prepare(ctx *RenderContext) error

	// Draw binds the per-view lighting resources of view unless they are already bound.
	//
	// Parameters:
	//   - ctx: the frame context
	//   - view: the view about to be drawn
	//
	// Returns:
	//   - bool: true if resources were bound
	Draw(ctx *RenderContext, view *RenderView) bool

	// Flush ends the frame.
	//
	// Parameters:
	//   - ctx: the frame context
	Flush(ctx *RenderContext)

	// AddRenderer registers a light group renderer after the existing ones.
	//
	// Parameters:
	//   - r: the renderer
	AddRenderer(r LightGroupRenderer)

	// RemoveRenderer unregisters a light group renderer.
	//
	// Parameters:
	//   - r: the renderer
	//
	// Returns:
	//   - bool: false if r was not registered
	RemoveRenderer(r LightGroupRenderer) bool

	// Renderers returns the registered renderers in registration order.
	Renderers() []LightGroupRenderer

	// RenderersFor returns the renderers handling a light type, in registration order.
	RenderersFor(tag light.LightTypeTag) []LightGroupRenderer

	// ShadowMapRenderer returns the shadow map renderer, nil when shadows are disabled.
	ShadowMapRenderer() ShadowMapRenderer

	// ViewData returns the light data of the lighting view of view.
	//
	// Parameters:
	//   - view: a render view
	//
	// Returns:
	//   - *RenderViewLightData: the data
	//   - bool: false if the view was never collected
	ViewData(view *RenderView) (*RenderViewLightData, bool)

	// ViewDataCount returns the number of lighting views with data.
	ViewDataCount() int

	// Permutation returns the lighting permutation of the current frame.
	Permutation() *LightShaderPermutationEntry

	// DeclaredLayouts returns the per-view and per-draw lighting layouts of the current
	// permutation, in composition order.
	//
	// Returns:
	//   - *parameter.Layout: the per-view layout
	//   - *parameter.Layout: the per-draw layout
	DeclaredLayouts() (perView, perDraw *parameter.Layout)

	// Config returns the configuration in use.
	Config() Config

	// Release stops the worker pool if the feature created it.
	Release()
}

// prepareLocals is the state owned by one chunk of per-draw preparation.
type prepareLocals struct {
	drawLayoutHash parameter.ObjectID
	drawParams     parameter.Collection
	scratch        *DrawScratch
}

type forwardLightingRenderFeatureImpl struct {
	cfg    Config
	logger *slog.Logger

	renderers       []LightGroupRenderer
	renderersByType *ordmap.Map[light.LightTypeTag, []LightGroupRenderer]
	shadowRenderer  ShadowMapRenderer

	viewDatas   *ordmap.Map[*RenderView, *RenderViewLightData]
	processed   map[*RenderView]struct{}
	renderViews []*RenderView

	permutation  LightShaderPermutationEntry
	sources      *sourceCache
	ignoredSlots []int
	lightIndices LightIndexQueue
	currentView  *RenderView

	pool     worker.DynamicWorkerPool
	ownsPool bool
	locals   []*prepareLocals

	profiler *profiler.Profiler
}

var _ ForwardLightingRenderFeature = &forwardLightingRenderFeatureImpl{}

// NewForwardLightingRenderFeature creates the feature. Without WithLightRenderers it registers the
// ambient, skybox, directional, point and spot renderers in that order.
//
// Parameters:
//   - opts: variadic list of FeatureBuilderOption functions
//
// Returns:
//   - ForwardLightingRenderFeature: the feature
func NewForwardLightingRenderFeature(opts ...FeatureBuilderOption) ForwardLightingRenderFeature {
	b := &featureBuilder{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(b)
	}
	if !b.renderersSet {
		b.renderers = []LightGroupRenderer{
			NewAmbientLightRenderer(),
			NewSkyboxLightRenderer(),
			NewDirectionalLightRenderer(),
			NewPointLightRenderer(),
			NewSpotLightRenderer(),
		}
	}

	f := &forwardLightingRenderFeatureImpl{
		cfg:             b.cfg.withDefaults(),
		logger:          b.logger,
		renderersByType: ordmap.New[light.LightTypeTag, []LightGroupRenderer](),
		shadowRenderer:  b.shadowRenderer,
		viewDatas:       ordmap.New[*RenderView, *RenderViewLightData](),
		processed:       make(map[*RenderView]struct{}),
		sources:         newSourceCache(),
		pool:            b.pool,
		profiler:        b.profiler,
	}
	if f.profiler == nil && f.cfg.Profiling {
		f.profiler = profiler.NewProfiler(profiler.WithLogger(f.log()))
	}
	if f.pool == nil && f.cfg.PrepareWorkers > 1 {
		n := f.cfg.PrepareWorkers
		// Chunks never exceed 2n, so a queue of 2n+1 never blocks submission.
		f.pool = worker.NewDynamicWorkerPool(n, 2*n+1, defaultWorkerIdleTimeout)
		f.ownsPool = true
	}
	for _, r := range b.renderers {
		r.Initialize(f.cfg)
		f.renderers = append(f.renderers, r)
	}
	f.evaluateLightTypes()
	return f
}

func (f *forwardLightingRenderFeatureImpl) log() *slog.Logger {
	if f.logger != nil {
		return f.logger
	}
	return Logger()
}

func (f *forwardLightingRenderFeatureImpl) begin(phase string) func() {
	if f.profiler == nil {
		return func() {}
	}
	return f.profiler.Begin(phase)
}

func (f *forwardLightingRenderFeatureImpl) Config() Config {
	return f.cfg
}

func (f *forwardLightingRenderFeatureImpl) Release() {
	if f.ownsPool && f.pool != nil {
		f.pool.Stop()
		f.pool = nil
		f.ownsPool = false
	}
}

func (f *forwardLightingRenderFeatureImpl) AddRenderer(r LightGroupRenderer) {
	r.Initialize(f.cfg)
	f.renderers = append(f.renderers, r)
	f.evaluateLightTypes()
}

func (f *forwardLightingRenderFeatureImpl) RemoveRenderer(r LightGroupRenderer) bool {
	i := slices.Index(f.renderers, r)
	if i < 0 {
		return false
	}
	f.renderers = slices.Delete(f.renderers, i, i+1)
	r.Unload()
	f.evaluateLightTypes()
	return true
}

func (f *forwardLightingRenderFeatureImpl) Renderers() []LightGroupRenderer {
	return slices.Clone(f.renderers)
}

func (f *forwardLightingRenderFeatureImpl) RenderersFor(tag light.LightTypeTag) []LightGroupRenderer {
	rs, _ := f.renderersByType.ValueByKeyTry(tag)
	return slices.Clone(rs)
}

func (f *forwardLightingRenderFeatureImpl) ShadowMapRenderer() ShadowMapRenderer {
	return f.shadowRenderer
}

// evaluateLightTypes rebuilds the renderer chains by light type.
func (f *forwardLightingRenderFeatureImpl) evaluateLightTypes() {
	f.renderersByType.Reset()
	for _, r := range f.renderers {
		for _, tag := range r.LightTypes() {
			rs, _ := f.renderersByType.ValueByKeyTry(tag)
			if rs == nil {
				f.renderersByType.Add(tag, []LightGroupRenderer{r})
				continue
			}
			f.renderersByType.Add(tag, append(rs, r))
		}
	}
	f.log().Debug("lighting: light renderers evaluated", "renderers", len(f.renderers), "types", f.renderersByType.Len())
}

func (f *forwardLightingRenderFeatureImpl) ViewData(view *RenderView) (*RenderViewLightData, bool) {
	return f.viewDatas.ValueByKeyTry(view.Lighting())
}

func (f *forwardLightingRenderFeatureImpl) ViewDataCount() int {
	return f.viewDatas.Len()
}

func (f *forwardLightingRenderFeatureImpl) Permutation() *LightShaderPermutationEntry {
	return &f.permutation
}

func (f *forwardLightingRenderFeatureImpl) Collect(ctx *RenderContext) {
	defer f.begin("Collect")()

	lights := ctx.Lights()
	for _, l := range lights.Lights() {
		if !l.BoundsValid(ctx.Frame) {
			l.UpdateBoundingBox(ctx.Frame)
		}
	}
	f.collectVisibleLights(ctx, lights)
	f.collectActiveLightRenderers()

	if f.shadowRenderer != nil {
		f.shadowRenderer.Collect(ctx, f.viewDatas)
	}
}

func (f *forwardLightingRenderFeatureImpl) collectVisibleLights(ctx *RenderContext, lights *light.RenderLightCollection) {
	for _, view := range ctx.Views {
		if view.Kind != ViewKindMain {
			continue
		}
		lightingView := view.Lighting()
		if _, ok := f.processed[lightingView]; ok {
			continue
		}
		f.processed[lightingView] = struct{}{}

		data, ok := f.viewDatas.ValueByKeyTry(lightingView)
		if !ok {
			data = NewRenderViewLightData()
			f.viewDatas.Add(lightingView, data)
			f.log().Debug("lighting: created view light data", "view", lightingView.Name)
		} else {
			data.clearCache()
		}
		clear(data.VisibleLights)
		data.VisibleLights = data.VisibleLights[:0]
		clear(data.VisibleLightsWithShadows)
		data.VisibleLightsWithShadows = data.VisibleLightsWithShadows[:0]
		clear(data.RenderLightsWithShadows)

		if lights.Len() == 0 {
			continue
		}

		for _, l := range lights.Lights() {
			if l.Type == nil {
				continue
			}
			direct, isDirect := l.Type.(light.DirectLight)
			if isDirect && direct.HasBoundingBox() && !lightingView.Frustum.ContainsBox(l.BoundingBoxExt()) {
				continue
			}

			data.lightGroup(l).PrepareLight(l)
			data.VisibleLights = append(data.VisibleLights, l)
			if isDirect && direct.Shadow().Enabled && f.shadowRenderer != nil {
				data.VisibleLightsWithShadows = append(data.VisibleLightsWithShadows, l)
			}
		}

		for _, kv := range data.ActiveLightGroups.Order {
			kv.Value.AllocateCollectionsPerGroupOfCullingMask()
		}
		for _, l := range data.VisibleLights {
			data.lightGroup(l).AddLight(l)
		}
	}
	clear(f.processed)
}

func (f *forwardLightingRenderFeatureImpl) collectActiveLightRenderers() {
	for _, vd := range f.viewDatas.Order {
		data := vd.Value
		clear(data.ActiveRenderers)
		data.ActiveRenderers = data.ActiveRenderers[:0]
		for _, kv := range f.renderersByType.Order {
			group, ok := data.ActiveLightGroups.ValueByKeyTry(kv.Key)
			if !ok || group.Count() == 0 {
				continue
			}
			data.ActiveRenderers = append(data.ActiveRenderers, ActiveLightGroupRenderer{LightGroup: group, Renderers: kv.Value})
		}
	}
}

func (f *forwardLightingRenderFeatureImpl) PrepareEffectPermutations(ctx *RenderContext) {
	defer f.begin("PrepareEffectPermutations")()

	f.ignoredSlots = f.ignoredSlots[:0]
	if f.shadowRenderer != nil {
		for _, r := range f.shadowRenderer.Renderers() {
			if r == nil {
				continue
			}
			if slot := ctx.EffectSlot(r.ShadowCasterRenderStage()); slot >= 0 {
				f.ignoredSlots = append(f.ignoredSlots, slot)
			}
		}
	}

	clear(f.renderViews)
	f.renderViews = f.renderViews[:0]
	for _, view := range ctx.Views {
		if view.Kind != ViewKindMain {
			continue
		}
		if _, ok := f.viewDatas.ValueByKeyTry(view.Lighting()); ok {
			f.renderViews = append(f.renderViews, view)
		}
	}

	for _, r := range f.renderers {
		r.Reset()
		r.SetViews(f.renderViews)
	}
	f.permutation.Reset()

	for viewIndex, view := range f.renderViews {
		data, _ := f.viewDatas.ValueByKeyTry(view.Lighting())
		f.prepareLightGroups(viewIndex, view, data)
	}

	// Registration order keeps the permutation independent of light order.
	for _, r := range f.renderers {
		r.PrepareResources()
		r.UpdateShaderPermutationEntry(&f.permutation)
	}

	var direct, environment shader.SourceCollection
	for i, g := range f.permutation.DirectLightGroups {
		g.UpdateLayout(DirectLightGroupComposition(i))
		direct = append(direct, g.ShaderSource())
		if g.HasEffectPermutations() {
			f.permutation.PermutationLightGroups = append(f.permutation.PermutationLightGroups, g)
		}
	}
	for i, g := range f.permutation.EnvironmentLights {
		g.UpdateLayout(EnvironmentLightComposition(i))
		environment = append(environment, g.ShaderSource())
		if g.HasEffectPermutations() {
			f.permutation.PermutationLightGroups = append(f.permutation.PermutationLightGroups, g)
		}
	}
	f.permutation.DirectLightShaders = f.sources.readonly(direct)
	f.permutation.EnvironmentLightShaders = f.sources.readonly(environment)

	for _, obj := range ctx.RenderObjects {
		if !obj.LightDependent {
			continue
		}
		for slot, effect := range obj.Effects {
			if slices.Contains(f.ignoredSlots, slot) {
				continue
			}
			if effect == nil || effect.Validator == nil || !effect.IsUsedDuringFrame(ctx.Frame) {
				continue
			}
			effect.Validator.ValidateParameter(DirectLightGroupsKey, f.permutation.DirectLightShaders)
			effect.Validator.ValidateParameter(EnvironmentLightsKey, f.permutation.EnvironmentLightShaders)
			for _, g := range f.permutation.PermutationLightGroups {
				g.ApplyEffectPermutations(effect)
			}
		}
	}
}

// prepareLightGroups runs the renderer chains of every light type visible in a view.
func (f *forwardLightingRenderFeatureImpl) prepareLightGroups(viewIndex int, view *RenderView, data *RenderViewLightData) {
	for _, active := range data.ActiveRenderers {
		// Render group 0 is the only group lit for now.
		collection := active.LightGroup.FindLightCollectionByGroup(0)
		f.lightIndices.Reset(collection.Len())
		for i, r := range active.Renderers {
			r.ProcessLights(&ProcessLightsParameters{
				ViewIndex:                 viewIndex,
				View:                      view,
				Views:                     f.renderViews,
				Renderers:                 active.Renderers,
				RendererIndex:             i,
				LightCollection:           collection,
				LightIndices:              &f.lightIndices,
				LightType:                 active.LightGroup.LightType(),
				ShadowMapRenderer:         f.shadowRenderer,
				ShadowMapTexturesPerLight: data.RenderLightsWithShadows,
			})
		}
	}
}

// lightGroups returns the direct light groups followed by the environment lights.
func (f *forwardLightingRenderFeatureImpl) lightGroups() []LightShaderGroup {
	groups := make([]LightShaderGroup, 0, len(f.permutation.DirectLightGroups)+len(f.permutation.EnvironmentLights))
	groups = append(groups, f.permutation.DirectLightGroups...)
	return append(groups, f.permutation.EnvironmentLights...)
}

func (f *forwardLightingRenderFeatureImpl) DeclaredLayouts() (perView, perDraw *parameter.Layout) {
	perView = parameter.NewLayout(wgpu.ShaderStageFragment)
	perDraw = parameter.NewLayout(wgpu.ShaderStageFragment)
	for _, g := range f.lightGroups() {
		g.DeclareLayout(perView, perDraw)
	}
	return perView, perDraw
}

func (f *forwardLightingRenderFeatureImpl) Prepare(ctx *RenderContext) error {
	defer f.begin("Prepare")()

	groups := f.lightGroups()
	for _, view := range ctx.Views {
		data, ok := f.viewDatas.ValueByKeyTry(view.Lighting())
		if !ok || len(view.Features.Layouts) == 0 {
			continue
		}
		viewIndex := slices.Index(f.renderViews, view)
		if viewIndex < 0 {
			continue
		}

		if !slices.ContainsFunc(view.Features.Layouts, isNormalLayout) {
			continue
		}
		// Views whose groups declare only per-draw parameters have an empty per-view group.
		if first := firstLightingLayout(view.Features.Layouts); first != nil {
			if err := checkViewLayouts(view.Features.Layouts, first); err != nil {
				if f.cfg.Strict() {
					f.log().Error("lighting: per-view layout mismatch", "view", view.Name, "error", err)
					return fmt.Errorf("failed to prepare lighting of view %q: %w", view.Name, err)
				}
				f.log().Warn("lighting: per-view layout mismatch, view left unlit", "view", view.Name, "error", err)
				continue
			}
			f.prepareView(view, viewIndex, data, first, groups)
		}

		f.prepareDraws(view.Features.RenderNodes, viewIndex, groups)
	}
	return nil
}

// prepareView writes the per-view parameters of every group and copies them to the view's layouts.
func (f *forwardLightingRenderFeatureImpl) prepareView(view *RenderView, viewIndex int, data *RenderViewLightData, first *ViewResourceLayout, groups []LightShaderGroup) {
	if first.Lighting.Hash != data.ViewLayoutHash {
		data.ViewLayoutHash = first.Lighting.Hash
		data.ViewParameterLayout = first.Lighting.Layout
		data.ViewParameters.UpdateLayout(data.ViewParameterLayout)
	}
	for _, g := range groups {
		g.ApplyViewParameters(viewIndex, data.ViewParameters)
	}
	for _, layout := range view.Features.Layouts {
		if layout.State != EffectStateNormal || layout.Lighting.Hash.IsEmpty() {
			continue
		}
		if view.Index < len(layout.Entries) && layout.Entries[view.Index] != nil {
			data.ViewParameters.CopyTo(layout.Entries[view.Index])
		}
	}
}

func isNormalLayout(l *ViewResourceLayout) bool {
	return l != nil && l.State == EffectStateNormal
}

// firstLightingLayout returns the first layout in normal state that has a lighting group.
func firstLightingLayout(layouts []*ViewResourceLayout) *ViewResourceLayout {
	for _, l := range layouts {
		if l.State == EffectStateNormal && !l.Lighting.Hash.IsEmpty() {
			return l
		}
	}
	return nil
}

func checkViewLayouts(layouts []*ViewResourceLayout, first *ViewResourceLayout) error {
	for _, l := range layouts {
		if l.State != EffectStateNormal || l.Lighting.Hash.IsEmpty() {
			continue
		}
		if l.Lighting.Hash != first.Lighting.Hash {
			return fmt.Errorf("%w: hash %s differs from %s", ErrLayoutMismatch, l.Lighting.Hash, first.Lighting.Hash)
		}
		if !l.Lighting.Layout.Equal(first.Lighting.Layout) {
			return fmt.Errorf("%w: layouts with hash %s differ", ErrLayoutMismatch, l.Lighting.Hash)
		}
	}
	return nil
}

// prepareDraws fills the per-draw lighting of nodes, spread over the worker pool when there are
// enough of them.
func (f *forwardLightingRenderFeatureImpl) prepareDraws(nodes []*RenderNode, viewIndex int, groups []LightShaderGroup) {
	if len(nodes) == 0 {
		return
	}
	workers := 1
	if f.pool != nil {
		workers = f.pool.GetMaxWorkers()
	}
	// More tasks than workers are needed for the pool to respawn workers that idled out.
	if workers <= 1 || len(nodes) < max(f.cfg.ParallelThreshold, workers+1) {
		f.prepareNodes(nodes, viewIndex, groups, f.prepareLocals(0))
		return
	}

	chunks := min(len(nodes), 2*workers)
	size := (len(nodes) + chunks - 1) / chunks
	var wg sync.WaitGroup
	for c := 0; c*size < len(nodes); c++ {
		part := nodes[c*size : min(len(nodes), (c+1)*size)]
		locals := f.prepareLocals(c)
		wg.Add(1)
		f.pool.SubmitTask(worker.Task{
			ID: c,
			Do: func() (any, error) {
				defer wg.Done()
				f.prepareNodes(part, viewIndex, groups, locals)
				return nil, nil
			},
		})
	}
	wg.Wait()
}

// prepareLocals returns the state of chunk i, creating it on first use.
func (f *forwardLightingRenderFeatureImpl) prepareLocals(i int) *prepareLocals {
	for len(f.locals) <= i {
		f.locals = append(f.locals, &prepareLocals{
			drawParams: parameter.NewCollection(),
			scratch:    NewDrawScratch(),
		})
	}
	return f.locals[i]
}

func (f *forwardLightingRenderFeatureImpl) prepareNodes(nodes []*RenderNode, viewIndex int, groups []LightShaderGroup, locals *prepareLocals) {
	for _, node := range nodes {
		if node == nil || node.Effect == nil || node.Effect.State != EffectStateNormal {
			continue
		}
		drawLighting := node.Effect.PerDrawLighting
		if drawLighting == nil || drawLighting.Hash.IsEmpty() {
			continue
		}
		if drawLighting.Hash != locals.drawLayoutHash {
			locals.drawLayoutHash = drawLighting.Hash
			locals.drawParams.UpdateLayout(drawLighting.Layout)
		}

		var box common.BoundingBoxExt
		if node.Object != nil {
			box = node.Object.BoundingBox
		}
		for _, g := range groups {
			g.ApplyDrawParameters(viewIndex, locals.drawParams, box, locals.scratch)
		}
		if node.Resources != nil {
			locals.drawParams.CopyTo(node.Resources)
		}
	}
}

func (f *forwardLightingRenderFeatureImpl) Draw(ctx *RenderContext, view *RenderView) bool {
	if view == f.currentView {
		return false
	}
	if _, ok := f.viewDatas.ValueByKeyTry(view.Lighting()); !ok || len(view.Features.Layouts) == 0 {
		return false
	}
	viewIndex := slices.Index(f.renderViews, view)
	for _, g := range f.lightGroups() {
		g.UpdateViewResources(viewIndex)
	}
	f.currentView = view
	return true
}

func (f *forwardLightingRenderFeatureImpl) Flush(ctx *RenderContext) {
	if f.shadowRenderer != nil {
		f.shadowRenderer.Flush(ctx)
	}
	f.currentView = nil
	if f.profiler != nil {
		f.profiler.Tick()
	}
}
