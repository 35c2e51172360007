package lighting

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
	"github.com/Carmen-Shannon/oxy-lighting/engine/shader"
)

// Parameter keys of the texture projection receiver.
var (
	WorldToProjectiveTextureKey = parameter.NewKey("TextureProjectionReceiverBase.WorldToProjectiveTexture")
	ProjectionUVScaleOffsetKey  = parameter.NewKey("TextureProjectionReceiverBase.UVScaleOffset")
)

const projectionNearPlane float32 = 0.01

// TextureProjectionRenderer projects one texture setup through the cones of spot lights.
type TextureProjectionRenderer interface {
	// Parameters returns the texture setup the renderer was created for.
	Parameters() light.SpotTextureParameters

	// CreateShaderGroupData creates the shader data for one light shader group.
	CreateShaderGroupData() TextureProjectionShaderGroupData
}

// TextureProjectionShaderGroupData contributes projection code and per-draw parameters to a
// spot light shader group.
type TextureProjectionShaderGroupData interface {
	ApplyShader(mixin *shader.MixinSource)
	UpdateLayout(composition string)
	UpdateLightCount(lastCount, currentCount int)
	DeclareLayout(perDraw *parameter.Layout)

	// ApplyDrawParameters writes the projection matrices of the lights selected for one object.
	// It is called concurrently for different objects.
	ApplyDrawParameters(params parameter.Collection, lights []light.DynamicEntry)
}

// projectionCount numbers projection renderers in creation order.
var projectionCount atomic.Uint64

type textureProjectionRendererImpl struct {
	params   light.SpotTextureParameters
	sequence uint64
}

var _ TextureProjectionRenderer = &textureProjectionRendererImpl{}

// NewTextureProjectionRenderer creates a renderer for one texture setup.
//
// Parameters:
//   - params: the texture, flip mode and UV transform to project
//
// Returns:
//   - TextureProjectionRenderer: the renderer
func NewTextureProjectionRenderer(params light.SpotTextureParameters) TextureProjectionRenderer {
	return &textureProjectionRendererImpl{params: params, sequence: projectionCount.Add(1)}
}

// projectionSequence orders renderers whose texture setups compare equal, 0 for foreign
// implementations.
func projectionSequence(r TextureProjectionRenderer) uint64 {
	if impl, ok := r.(*textureProjectionRendererImpl); ok {
		return impl.sequence
	}
	return 0
}

func (r *textureProjectionRendererImpl) Parameters() light.SpotTextureParameters {
	return r.params
}

func (r *textureProjectionRendererImpl) CreateShaderGroupData() TextureProjectionShaderGroupData {
	return &textureProjectionShaderGroupData{params: r.params}
}

type textureProjectionShaderGroupData struct {
	params     light.SpotTextureParameters
	lightCount int

	matrixKey parameter.Key
	uvKey     parameter.Key
}

func (d *textureProjectionShaderGroupData) ApplyShader(mixin *shader.MixinSource) {
	name := ""
	if d.params.Texture != nil {
		name = d.params.Texture.Name
	}
	mixin.Add(shader.NewClassSource("SpotLightTextureProjection", d.lightCount, name, int(d.params.FlipMode)))
}

func (d *textureProjectionShaderGroupData) UpdateLayout(composition string) {
	d.matrixKey = WorldToProjectiveTextureKey.ComposeWith(composition)
	d.uvKey = ProjectionUVScaleOffsetKey.ComposeWith(composition)
}

func (d *textureProjectionShaderGroupData) UpdateLightCount(lastCount, currentCount int) {
	d.lightCount = currentCount
}

func (d *textureProjectionShaderGroupData) DeclareLayout(perDraw *parameter.Layout) {
	perDraw.Add(d.matrixKey, 64, d.lightCount)
	perDraw.Add(d.uvKey, 16, 1)
}

func (d *textureProjectionShaderGroupData) ApplyDrawParameters(params parameter.Collection, lights []light.DynamicEntry) {
	buf := make([]byte, 0, 64*len(lights))
	for _, e := range lights {
		var m [16]float32
		if s, ok := e.Light.Type.(*light.Spot); ok {
			m = s.ViewProjection(e.Light.Position, e.Light.Direction, projectionNearPlane)
		}
		buf = light.AppendFloat32s(buf, m[:]...)
	}
	params.Set(d.matrixKey, buf)
	scale, offset := d.uvTransform()
	params.SetFloat32s(d.uvKey, scale[0], scale[1], offset[0], offset[1])
}

// uvTransform folds the flip mode into the UV scale and offset.
func (d *textureProjectionShaderGroupData) uvTransform() (scale, offset [2]float32) {
	scale, offset = d.params.UVScale, d.params.UVOffset
	if scale == [2]float32{} {
		scale = [2]float32{1, 1}
	}
	if d.params.FlipMode == light.FlipX || d.params.FlipMode == light.FlipXY {
		scale[0], offset[0] = -scale[0], 1-offset[0]
	}
	if d.params.FlipMode == light.FlipY || d.params.FlipMode == light.FlipXY {
		scale[1], offset[1] = -scale[1], 1-offset[1]
	}
	return scale, offset
}
