package shadow

import (
	"fmt"
	"log/slog"

	"cogentcore.org/core/base/ordmap"
	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/lighting"
)

// Renderer allocates the shadow maps of the visible shadowed lights in a fixed set of atlas
// textures and adds one shadow caster view per map. Maps live for one frame.
type Renderer interface {
	lighting.ShadowMapRenderer

	// Atlases returns the atlas textures maps are packed into.
	Atlases() []*light.ShadowMapAtlas

	// CasterViews returns the shadow caster views added by the last Collect.
	CasterViews() []*lighting.RenderView

	// Config returns the configuration of the renderer.
	Config() Config
}

type rendererImpl struct {
	cfg            Config
	logger         *slog.Logger
	lightRenderers []LightRenderer
	atlases        []*atlasAllocator

	textures map[*light.RenderLight]*light.ShadowMapTexture
	views    []*lighting.RenderView
}

var _ Renderer = &rendererImpl{}

// NewRenderer creates a shadow map Renderer. Without WithLightRenderers it renders directional,
// spot and point light shadows.
//
// Parameters:
//   - opts: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the renderer
func NewRenderer(opts ...RendererBuilderOption) Renderer {
	b := &rendererBuilder{cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(b)
	}
	if b.cfg.AtlasSize <= 0 || b.cfg.AtlasCount <= 0 {
		panic("shadow: atlas size and count must be positive")
	}
	if b.lightRenderers == nil {
		b.lightRenderers = []LightRenderer{NewDirectionalRenderer(), NewSpotRenderer(), NewPointRenderer()}
	}
	if b.logger == nil {
		b.logger = lighting.Logger()
	}

	r := &rendererImpl{
		cfg:            b.cfg,
		logger:         b.logger,
		lightRenderers: b.lightRenderers,
		textures:       make(map[*light.RenderLight]*light.ShadowMapTexture),
	}
	for i := range b.cfg.AtlasCount {
		r.atlases = append(r.atlases, newAtlasAllocator(i, b.cfg.AtlasSize))
	}
	return r
}

func (r *rendererImpl) Renderers() []light.LightShadowMapRenderer {
	out := make([]light.LightShadowMapRenderer, len(r.lightRenderers))
	for i, lr := range r.lightRenderers {
		out[i] = lr
	}
	return out
}

func (r *rendererImpl) Atlases() []*light.ShadowMapAtlas {
	out := make([]*light.ShadowMapAtlas, len(r.atlases))
	for i, a := range r.atlases {
		out[i] = a.atlas
	}
	return out
}

func (r *rendererImpl) CasterViews() []*lighting.RenderView {
	return r.views
}

func (r *rendererImpl) Config() Config {
	return r.cfg
}

// Collect gives every shadowed light one texture per frame, allocated the first time the light is
// found in a lighting view. Lights that do not fit in any atlas get a texture without atlas and
// are lit without shadow.
func (r *rendererImpl) Collect(ctx *lighting.RenderContext, viewData *ordmap.Map[*lighting.RenderView, *lighting.RenderViewLightData]) {
	r.release(ctx)
	for _, kv := range viewData.Order {
		view, data := kv.Key, kv.Value
		clear(data.RenderLightsWithShadows)
		for _, l := range data.VisibleLightsWithShadows {
			tex, ok := r.textures[l]
			if !ok {
				tex = r.allocate(ctx, view, l)
				r.textures[l] = tex
			}
			if tex != nil {
				data.RenderLightsWithShadows[l] = tex
			}
		}
	}
}

// Flush removes the caster views and frees every atlas region.
func (r *rendererImpl) Flush(ctx *lighting.RenderContext) {
	r.release(ctx)
}

func (r *rendererImpl) release(ctx *lighting.RenderContext) {
	// Remove from the back so earlier views keep their indices.
	for i := len(r.views) - 1; i >= 0; i-- {
		ctx.RemoveView(r.views[i])
	}
	r.views = r.views[:0]
	clear(r.textures)
	for _, a := range r.atlases {
		a.Reset()
	}
	for _, lr := range r.lightRenderers {
		lr.reset()
	}
}

func (r *rendererImpl) lightRenderer(l *light.RenderLight) LightRenderer {
	for _, lr := range r.lightRenderers {
		if lr.CanRenderLight(l) {
			return lr
		}
	}
	return nil
}

func (r *rendererImpl) allocate(ctx *lighting.RenderContext, view *lighting.RenderView, l *light.RenderLight) *light.ShadowMapTexture {
	lr := r.lightRenderer(l)
	settings := l.ShadowSettings()
	if lr == nil || settings == nil {
		r.logger.Debug("no shadow renderer for light", slog.String("light", l.String()))
		return nil
	}

	shadowType := lr.ShadowType(l)
	tex := &light.ShadowMapTexture{
		Light:             l,
		ShadowType:        shadowType,
		Renderer:          lr,
		CascadeCount:      shadowType.CascadeCount(),
		DepthBias:         common.Coalesce(settings.DepthBias, r.cfg.DepthBias),
		NormalOffsetScale: common.Coalesce(settings.NormalOffsetScale, r.cfg.NormalOffsetScale),
	}

	size := r.cfg.regionSize(settings.Size)
	count := lr.mapCount(shadowType)
	for _, a := range r.atlases {
		if rects, ok := a.AllocateAll(size, count); ok {
			tex.Atlas = a.atlas
			tex.Rects = rects
			break
		}
	}
	if tex.Atlas == nil {
		r.logger.Warn("shadow atlas exhausted, light rendered without shadow",
			slog.String("light", l.String()),
			slog.Int("maps", count),
			slog.Int("size", size),
		)
		return tex
	}

	vps := lr.mapViews(r.cfg, view, l, shadowType)
	data := make([]ShadowData, len(vps))
	atlasSize := tex.Atlas.Texture.Width
	for i, vp := range vps {
		viewProj := vp.matrix()
		toAtlas := atlasTransform(tex.Rects[i], atlasSize)
		var worldToShadow [16]float32
		common.Mul4(worldToShadow[:], toAtlas[:], viewProj[:])
		tex.WorldToShadow = append(tex.WorldToShadow, worldToShadow)

		data[i] = ShadowData{
			WorldToShadow: worldToShadow,
			TexelSize:     [2]float32{1 / float32(atlasSize), 1 / float32(atlasSize)},
			Bias:          tex.DepthBias,
		}
		data[i].ComputeNormalBias(vp.HalfExtent, tex.NormalOffsetScale, int(tex.Rects[i].Width))

		caster := &lighting.RenderView{
			Name:          fmt.Sprintf("ShadowMap %s #%d [%d]", lr.Name(), l.ID, i),
			Kind:          lighting.ViewKindShadowCaster,
			Frustum:       common.ExtractFrustumFromMatrix(viewProj[:]),
			CullingMask:   l.CullingMask,
			ViewSize:      [2]float32{float32(tex.Rects[i].Width), float32(tex.Rects[i].Height)},
			View:          vp.View,
			Projection:    vp.Projection,
			NearClipPlane: vp.Near,
			FarClipPlane:  vp.Far,
		}
		ctx.AddView(caster)
		r.views = append(r.views, caster)
	}
	lr.store(tex, data)
	return tex
}

// RendererBuilderOption is a functional option applied to a Renderer during construction via NewRenderer.
type RendererBuilderOption func(*rendererBuilder)

type rendererBuilder struct {
	cfg            Config
	logger         *slog.Logger
	lightRenderers []LightRenderer
}

// WithConfig replaces the whole configuration.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - RendererBuilderOption: a function that applies the config option to the renderer
func WithConfig(cfg Config) RendererBuilderOption {
	return func(b *rendererBuilder) {
		b.cfg = cfg
	}
}

// WithAtlas sets the size and number of the atlas textures.
//
// Parameters:
//   - size: side of one atlas in texels
//   - count: number of atlases
//
// Returns:
//   - RendererBuilderOption: a function that applies the atlas option to the renderer
func WithAtlas(size, count int) RendererBuilderOption {
	return func(b *rendererBuilder) {
		b.cfg.AtlasSize = size
		b.cfg.AtlasCount = count
	}
}

// WithRegionSizeLimits clamps the size of one shadow map.
//
// Parameters:
//   - minSize, maxSize: bounds in texels
//
// Returns:
//   - RendererBuilderOption: a function that applies the limits option to the renderer
func WithRegionSizeLimits(minSize, maxSize int) RendererBuilderOption {
	return func(b *rendererBuilder) {
		b.cfg.MinRegionSize = minSize
		b.cfg.MaxRegionSize = maxSize
	}
}

// WithBias sets the depth and normal-offset biases used by lights that leave theirs at zero.
func WithBias(depthBias, normalOffsetScale float32) RendererBuilderOption {
	return func(b *rendererBuilder) {
		b.cfg.DepthBias = depthBias
		b.cfg.NormalOffsetScale = normalOffsetScale
	}
}

// WithDirectionalExtent sets the area covered by directional light shadows.
func WithDirectionalExtent(halfExtent, near, far float32) RendererBuilderOption {
	return func(b *rendererBuilder) {
		b.cfg.DirectionalHalfExtent = halfExtent
		b.cfg.DirectionalNear = near
		b.cfg.DirectionalFar = far
	}
}

// WithLightRenderers replaces the per light type renderers. The first one accepting a light renders it.
//
// Parameters:
//   - renderers: the renderers in priority order
//
// Returns:
//   - RendererBuilderOption: a function that applies the renderers option to the renderer
func WithLightRenderers(renderers ...LightRenderer) RendererBuilderOption {
	return func(b *rendererBuilder) {
		b.lightRenderers = renderers
	}
}

// WithLogger sets the logger. Without it the lighting package logger is used.
func WithLogger(l *slog.Logger) RendererBuilderOption {
	return func(b *rendererBuilder) {
		b.logger = l
	}
}
