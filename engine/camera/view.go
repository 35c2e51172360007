package camera

import (
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/lighting"
)

type viewBuilder struct {
	name         string
	kind         lighting.RenderViewKind
	cullingMask  light.RenderGroupMask
	viewSize     [2]float32
	lightingView *lighting.RenderView
}

// ViewBuilderOption is a functional option applied by NewRenderView.
type ViewBuilderOption func(*viewBuilder)

// WithViewName names the view.
func WithViewName(name string) ViewBuilderOption {
	return func(b *viewBuilder) {
		b.name = name
	}
}

// WithViewKind sets the kind of the view. Views are main views by default.
func WithViewKind(kind lighting.RenderViewKind) ViewBuilderOption {
	return func(b *viewBuilder) {
		b.kind = kind
	}
}

// WithCullingMask restricts the render groups the view shows.
func WithCullingMask(mask light.RenderGroupMask) ViewBuilderOption {
	return func(b *viewBuilder) {
		b.cullingMask = mask
	}
}

// WithViewSize sets the size of the render target in pixels.
func WithViewSize(width, height float32) ViewBuilderOption {
	return func(b *viewBuilder) {
		b.viewSize = [2]float32{width, height}
	}
}

// WithLightingView makes the view reuse the lighting of another view, as the eyes of a
// stereo pair do.
func WithLightingView(v *lighting.RenderView) ViewBuilderOption {
	return func(b *viewBuilder) {
		b.lightingView = v
	}
}

// NewRenderView snapshots a camera into a view for the current frame.
//
// Parameters:
//   - cam: the camera, must not be nil
//   - opts: variadic list of ViewBuilderOption functions
//
// Returns:
//   - *lighting.RenderView: the view, not yet added to a render context
func NewRenderView(cam Camera, opts ...ViewBuilderOption) *lighting.RenderView {
	if cam == nil {
		panic("camera: NewRenderView called with nil camera")
	}
	b := &viewBuilder{
		name:        "main",
		kind:        lighting.ViewKindMain,
		cullingMask: light.RenderGroupMaskAll,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.viewSize == [2]float32{} {
		b.viewSize = [2]float32{cam.Aspect(), 1}
	}
	return &lighting.RenderView{
		Name:          b.name,
		Kind:          b.kind,
		Frustum:       cam.Frustum(),
		CullingMask:   b.cullingMask,
		LightingView:  b.lightingView,
		ViewSize:      b.viewSize,
		View:          cam.ViewMatrix(),
		Projection:    cam.ProjectionMatrix(),
		NearClipPlane: cam.Near(),
		FarClipPlane:  cam.Far(),
	}
}
