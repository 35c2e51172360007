package lighting

import (
	"errors"

	"cogentcore.org/core/base/ordmap"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
)

// ErrLayoutMismatch is returned by Prepare when two effects of a view claim the same lighting
// layout hash but declare different layouts.
var ErrLayoutMismatch = errors.New("lighting layout mismatch")

// ShadowMapRenderer allocates and renders the shadow maps of the visible shadowed lights.
// The lighting feature only coordinates with it; the shadow maps themselves are its business.
type ShadowMapRenderer interface {
	// Renderers returns the per light type shadow renderers.
	Renderers() []light.LightShadowMapRenderer

	// Collect allocates shadow maps for the VisibleLightsWithShadows of every view and records them
	// in RenderLightsWithShadows. It may add shadow caster views to ctx.
	//
	// Parameters:
	//   - ctx: the frame context
	//   - viewData: the light data by lighting view
	Collect(ctx *RenderContext, viewData *ordmap.Map[*RenderView, *RenderViewLightData])

	// Flush releases the frame's shadow maps and removes the views Collect added.
	//
	// Parameters:
	//   - ctx: the frame context
	Flush(ctx *RenderContext)
}
