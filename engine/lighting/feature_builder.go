package lighting

import (
	"log/slog"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-lighting/engine/profiler"
)

const defaultWorkerIdleTimeout = time.Second

type featureBuilder struct {
	cfg            Config
	logger         *slog.Logger
	renderers      []LightGroupRenderer
	renderersSet   bool
	shadowRenderer ShadowMapRenderer
	pool           worker.DynamicWorkerPool
	profiler       *profiler.Profiler
}

// FeatureBuilderOption is a functional option applied to the feature during construction via
// NewForwardLightingRenderFeature.
type FeatureBuilderOption func(*featureBuilder)

// WithConfig sets the configuration. Zero fields take their default.
//
// Parameters:
//   - cfg: the configuration
//
// Returns:
//   - FeatureBuilderOption: a function that applies the config option to the feature
func WithConfig(cfg Config) FeatureBuilderOption {
	return func(b *featureBuilder) {
		b.cfg = cfg
	}
}

// WithLightRenderers replaces the default light group renderers. Their order is the registration
// order that fixes the order of light groups in the shader permutation.
//
// Parameters:
//   - renderers: the renderers in registration order
//
// Returns:
//   - FeatureBuilderOption: a function that applies the renderers option to the feature
func WithLightRenderers(renderers ...LightGroupRenderer) FeatureBuilderOption {
	return func(b *featureBuilder) {
		b.renderers = renderers
		b.renderersSet = true
	}
}

// WithShadowMapRenderer enables shadows.
//
// Parameters:
//   - r: the shadow map renderer
//
// Returns:
//   - FeatureBuilderOption: a function that applies the shadow option to the feature
func WithShadowMapRenderer(r ShadowMapRenderer) FeatureBuilderOption {
	return func(b *featureBuilder) {
		b.shadowRenderer = r
	}
}

// WithLogger sets the logger of the feature. Without it the package logger is used.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - FeatureBuilderOption: a function that applies the logger option to the feature
func WithLogger(l *slog.Logger) FeatureBuilderOption {
	return func(b *featureBuilder) {
		b.logger = l
	}
}

// WithWorkerPool shares a worker pool for per-draw preparation instead of creating one from
// Config.PrepareWorkers. The pool's task queue must hold at least twice its worker count plus one.
// The caller keeps ownership; Release does not stop it.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - FeatureBuilderOption: a function that applies the pool option to the feature
func WithWorkerPool(pool worker.DynamicWorkerPool) FeatureBuilderOption {
	return func(b *featureBuilder) {
		b.pool = pool
	}
}

// WithProfiler records per-phase timings into p. Flush ticks it once per frame.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - FeatureBuilderOption: a function that applies the profiler option to the feature
func WithProfiler(p *profiler.Profiler) FeatureBuilderOption {
	return func(b *featureBuilder) {
		b.profiler = p
	}
}
