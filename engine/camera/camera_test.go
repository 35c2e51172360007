package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/lighting"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func box(x, y, z float32) common.BoundingBoxExt {
	return common.BoundingBoxExt{Center: [3]float32{x, y, z}, Extent: [3]float32{0.5, 0.5, 0.5}}
}

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera()
	assert.Equal(t, [3]float32{0, 0, 10}, c.Position())
	assert.Equal(t, [3]float32{}, c.Target())
	assert.Equal(t, [3]float32{0, 1, 0}, c.Up())
	assert.InDelta(t, math32.Pi/4, c.Fov(), 1e-6)
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(100), c.Far())

	view := c.ViewMatrix()
	assert.Equal(t, float32(-10), view[14], "the origin lies 10 units down the view axis")
}

func TestCameraFrustum(t *testing.T) {
	c := NewCamera(WithPosition(0, 0, 10), WithTarget(0, 0, 0), WithFov(math32.Pi/2))
	f := c.Frustum()
	assert.True(t, f.ContainsBox(box(0, 0, 0)))
	assert.False(t, f.ContainsBox(box(0, 0, 20)), "behind the eye")
	assert.False(t, f.ContainsBox(box(0, 0, -200)), "past the far plane")

	c.SetTarget(0, 0, 20)
	f = c.Frustum()
	assert.True(t, f.ContainsBox(box(0, 0, 20)))
	assert.False(t, f.ContainsBox(box(0, 0, 0)))
}

func TestSetClipPlanes(t *testing.T) {
	c := NewCamera()
	c.SetClipPlanes(1, 500)
	assert.Equal(t, float32(1), c.Near())
	assert.Equal(t, float32(500), c.Far())
	assert.Panics(t, func() { c.SetClipPlanes(0, 10) })
	assert.Panics(t, func() { c.SetClipPlanes(5, 5) })
	assert.Panics(t, func() { NewCamera(WithClipPlanes(10, 1)) })
}

func TestNewRenderView(t *testing.T) {
	c := NewCamera(WithAspect(16.0 / 9.0))
	main := NewRenderView(c, WithViewSize(1920, 1080), WithCullingMask(light.RenderGroupMask(1)))

	assert.Equal(t, "main", main.Name)
	assert.Equal(t, lighting.ViewKindMain, main.Kind)
	assert.Equal(t, c.ViewMatrix(), main.View)
	assert.Equal(t, c.ProjectionMatrix(), main.Projection)
	assert.Equal(t, c.Frustum(), main.Frustum)
	assert.Equal(t, [2]float32{1920, 1080}, main.ViewSize)
	assert.Equal(t, light.RenderGroupMask(1), main.CullingMask)
	assert.Equal(t, c.Near(), main.NearClipPlane)

	right := NewRenderView(c, WithViewName("right"), WithLightingView(main))
	assert.Same(t, main, right.Lighting())
	assert.Equal(t, light.RenderGroupMaskAll, right.CullingMask)

	// The view is a snapshot: moving the camera later does not change it.
	before := main.View
	c.SetPosition(5, 5, 5)
	assert.Equal(t, before, main.View)
}

func TestNewRenderViewNilCamera(t *testing.T) {
	assert.PanicsWithValue(t, "camera: NewRenderView called with nil camera", func() { NewRenderView(nil) })
}

func TestRenderViewDrivesLightCulling(t *testing.T) {
	near := light.NewRenderLight(&light.Point{Radius: 1}, light.WithPosition(0, 0, 0))
	far := light.NewRenderLight(&light.Point{Radius: 1}, light.WithPosition(0, 0, 50))
	lights := light.NewRenderLightCollection(2)
	lights.Add(near)
	lights.Add(far)

	ctx := lighting.NewRenderContext()
	ctx.Frame = 1
	ctx.SetLights(lights)
	view := NewRenderView(NewCamera())
	ctx.AddView(view)

	f := lighting.NewForwardLightingRenderFeature(lighting.WithConfig(lighting.Config{PrepareWorkers: 1}))
	f.Collect(ctx)
	data, ok := f.ViewData(view)
	require.True(t, ok)
	assert.Equal(t, []*light.RenderLight{near}, data.VisibleLights)
}
