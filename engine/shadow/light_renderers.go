package shadow

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/lighting"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
	"github.com/Carmen-Shannon/oxy-lighting/engine/shader"
	"github.com/chewxy/math32"
)

// Render stages shadow casters are drawn in.
const (
	CasterStage        = "ShadowMapCaster"
	CasterCubeMapStage = "ShadowMapCasterCubeMap"
)

// ShadowDataKey holds the ShadowData records of a light group, one per light and map.
var ShadowDataKey = parameter.NewKey("ShadowMapReceiverBase.ShadowData")

const spotNearPlane = 0.01

// LightRenderer is a light.LightShadowMapRenderer the shadow map Renderer can allocate and
// render maps for.
type LightRenderer interface {
	light.LightShadowMapRenderer

	// mapCount returns the number of maps one light of shadowType needs.
	mapCount(shadowType light.LightShadowType) int

	// mapViews returns the light camera of every map of l. view is the lighting view the light
	// was first found visible in.
	mapViews(cfg Config, view *lighting.RenderView, l *light.RenderLight, shadowType light.LightShadowType) []viewProjection

	store(tex *light.ShadowMapTexture, data []ShadowData)
	lookup(tex *light.ShadowMapTexture) []ShadowData
	reset()
}

// records keeps the ShadowData of the frame's textures. Written during Collect, read concurrently
// while draws are prepared.
type records struct {
	mu   sync.RWMutex
	data map[*light.ShadowMapTexture][]ShadowData
}

func (r *records) store(tex *light.ShadowMapTexture, data []ShadowData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data == nil {
		r.data = make(map[*light.ShadowMapTexture][]ShadowData)
	}
	r.data[tex] = data
}

func (r *records) lookup(tex *light.ShadowMapTexture) []ShadowData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.data[tex]
}

func (r *records) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.data)
}

// directionalRenderer renders cascaded orthographic maps centered on the camera of the lighting view.
type directionalRenderer struct {
	records
}

var _ LightRenderer = &directionalRenderer{}

// NewDirectionalRenderer creates the shadow renderer of directional lights.
//
// Returns:
//   - LightRenderer: the renderer
func NewDirectionalRenderer() LightRenderer {
	return &directionalRenderer{}
}

func (r *directionalRenderer) Name() string                    { return "Directional" }
func (r *directionalRenderer) ShadowCasterRenderStage() string { return CasterStage }

func (r *directionalRenderer) CanRenderLight(l *light.RenderLight) bool {
	_, ok := l.Type.(*light.Directional)
	return ok
}

func (r *directionalRenderer) ShadowType(l *light.RenderLight) light.LightShadowType {
	return light.ComposeShadowType(l.ShadowSettings())
}

func (r *directionalRenderer) CreateShaderGroupData(shadowType light.LightShadowType) light.ShadowMapShaderGroupData {
	return newShaderGroupData(r, "ShadowMapReceiverDirectional", shadowType, shadowType.CascadeCount(), true)
}

func (r *directionalRenderer) mapCount(shadowType light.LightShadowType) int {
	return shadowType.CascadeCount()
}

// mapViews splits the covered area in cascades, each twice the size of the previous one, the
// last one spanning the configured half-extent.
func (r *directionalRenderer) mapViews(cfg Config, view *lighting.RenderView, l *light.RenderLight, shadowType light.LightShadowType) []viewProjection {
	n := shadowType.CascadeCount()
	center := cameraPosition(view.View)
	dir := common.Normalize3(l.Direction)
	out := make([]viewProjection, n)
	for i := range n {
		halfExtent := cfg.DirectionalHalfExtent / float32(int(1)<<(n-1-i))
		out[i] = directionalViewProjection(dir, center, halfExtent, cfg.DirectionalNear, cfg.DirectionalFar)
	}
	return out
}

// spotRenderer renders one perspective map along the cone of a spot light.
type spotRenderer struct {
	records
}

var _ LightRenderer = &spotRenderer{}

// NewSpotRenderer creates the shadow renderer of spot lights.
//
// Returns:
//   - LightRenderer: the renderer
func NewSpotRenderer() LightRenderer {
	return &spotRenderer{}
}

func (r *spotRenderer) Name() string                    { return "Spot" }
func (r *spotRenderer) ShadowCasterRenderStage() string { return CasterStage }

func (r *spotRenderer) CanRenderLight(l *light.RenderLight) bool {
	_, ok := l.Type.(*light.Spot)
	return ok
}

func (r *spotRenderer) ShadowType(l *light.RenderLight) light.LightShadowType {
	return singleMap(light.ComposeShadowType(l.ShadowSettings()))
}

func (r *spotRenderer) CreateShaderGroupData(shadowType light.LightShadowType) light.ShadowMapShaderGroupData {
	return newShaderGroupData(r, "ShadowMapReceiverSpot", shadowType, 1, false)
}

func (r *spotRenderer) mapCount(light.LightShadowType) int { return 1 }

func (r *spotRenderer) mapViews(cfg Config, view *lighting.RenderView, l *light.RenderLight, shadowType light.LightShadowType) []viewProjection {
	s := l.Type.(*light.Spot)
	fov := math32.Min(2*math32.Max(s.AngleOuter, 1)*math32.Pi/180, math32.Pi-0.01)
	far := math32.Max(s.Range, 2*spotNearPlane)
	return []viewProjection{perspectiveViewProjection(l.Position, common.Normalize3(l.Direction), fov, spotNearPlane, far)}
}

// cubeFaces are the view directions of the six faces of a point light map, in +X -X +Y -Y +Z -Z order.
var cubeFaces = [6][3]float32{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

// pointRenderer renders six perspective maps, one per cube face.
type pointRenderer struct {
	records
}

var _ LightRenderer = &pointRenderer{}

// NewPointRenderer creates the shadow renderer of point lights.
//
// Returns:
//   - LightRenderer: the renderer
func NewPointRenderer() LightRenderer {
	return &pointRenderer{}
}

func (r *pointRenderer) Name() string                    { return "Point" }
func (r *pointRenderer) ShadowCasterRenderStage() string { return CasterCubeMapStage }

func (r *pointRenderer) CanRenderLight(l *light.RenderLight) bool {
	_, ok := l.Type.(*light.Point)
	return ok
}

func (r *pointRenderer) ShadowType(l *light.RenderLight) light.LightShadowType {
	return singleMap(light.ComposeShadowType(l.ShadowSettings()))
}

func (r *pointRenderer) CreateShaderGroupData(shadowType light.LightShadowType) light.ShadowMapShaderGroupData {
	return newShaderGroupData(r, "ShadowMapReceiverPointCubeMap", shadowType, len(cubeFaces), false)
}

func (r *pointRenderer) mapCount(light.LightShadowType) int { return len(cubeFaces) }

func (r *pointRenderer) mapViews(cfg Config, view *lighting.RenderView, l *light.RenderLight, shadowType light.LightShadowType) []viewProjection {
	p := l.Type.(*light.Point)
	far := math32.Max(p.Radius, 2*spotNearPlane)
	out := make([]viewProjection, len(cubeFaces))
	for i, dir := range cubeFaces {
		out[i] = perspectiveViewProjection(l.Position, dir, math32.Pi/2, spotNearPlane, far)
	}
	return out
}

// singleMap drops the cascade count of local light shadows.
func singleMap(t light.LightShadowType) light.LightShadowType {
	return t&^light.ShadowTypeCascadeMask | light.ShadowTypeCascade1
}

// shaderGroupData writes the ShadowData of a light group, per view for directional lights and per
// draw for local ones.
type shaderGroupData struct {
	owner        LightRenderer
	className    string
	shadowType   light.LightShadowType
	mapsPerLight int
	perView      bool

	lightCount int
	dataKey    parameter.Key
}

var _ light.ShadowMapShaderGroupData = &shaderGroupData{}

func newShaderGroupData(owner LightRenderer, className string, shadowType light.LightShadowType, mapsPerLight int, perView bool) *shaderGroupData {
	return &shaderGroupData{
		owner:        owner,
		className:    className,
		shadowType:   shadowType,
		mapsPerLight: mapsPerLight,
		perView:      perView,
		dataKey:      ShadowDataKey,
	}
}

func (d *shaderGroupData) ApplyShader(mixin *shader.MixinSource) {
	debug := d.shadowType&light.ShadowTypeDebug != 0
	mixin.Add(shader.NewClassSource(d.className, d.lightCount, d.mapsPerLight, d.shadowType.FilterName(), debug))
}

func (d *shaderGroupData) UpdateLayout(composition string) {
	d.dataKey = ShadowDataKey.ComposeWith(composition)
}

func (d *shaderGroupData) UpdateLightCount(lastCount, currentCount int) {
	d.lightCount = currentCount
}

func (d *shaderGroupData) DeclareLayout(perView, perDraw *parameter.Layout) {
	var s ShadowData
	if d.perView {
		perView.Add(d.dataKey, s.Size(), d.lightCount*d.mapsPerLight)
		return
	}
	perDraw.Add(d.dataKey, s.Size(), d.lightCount*d.mapsPerLight)
}

func (d *shaderGroupData) ApplyViewParameters(params parameter.Collection, lights []light.DynamicEntry) {
	if d.perView {
		d.write(params, lights)
	}
}

func (d *shaderGroupData) ApplyDrawParameters(params parameter.Collection, lights []light.DynamicEntry, box common.BoundingBoxExt) {
	if !d.perView {
		d.write(params, lights)
	}
}

// write fills one record per map of the first lightCount lights; missing maps stay zero.
func (d *shaderGroupData) write(params parameter.Collection, lights []light.DynamicEntry) {
	var empty ShadowData
	buf := make([]byte, 0, empty.Size()*d.lightCount*d.mapsPerLight)
	for i := range d.lightCount {
		var data []ShadowData
		if i < len(lights) && lights[i].ShadowMapTexture.Allocated() {
			data = d.owner.lookup(lights[i].ShadowMapTexture)
		}
		for m := range d.mapsPerLight {
			if m < len(data) {
				buf = data[m].AppendTo(buf)
				continue
			}
			buf = empty.AppendTo(buf)
		}
	}
	params.Set(d.dataKey, buf)
}
