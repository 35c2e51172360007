package light

import (
	"strings"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
	"github.com/Carmen-Shannon/oxy-lighting/engine/shader"
)

// ShadowMapResolution is the default width and height in texels of a shadow atlas texture.
const ShadowMapResolution = 2048

// DefaultShadowHalfExtent is the default orthographic half-extent (in world units)
// used for the directional light shadow frustum.
const DefaultShadowHalfExtent float32 = 40.0

// DefaultShadowNear is the default near plane for shadow projections.
const DefaultShadowNear float32 = 0.1

// DefaultShadowFar is the default far plane for the directional light's
// orthographic shadow projection.
const DefaultShadowFar float32 = 200.0

// DefaultShadowBias is the constant depth bias applied to shadow comparisons
// to reduce shadow acne artifacts.
const DefaultShadowBias float32 = 0.001

// DefaultShadowNormalBiasScale is the multiplier applied to the shadow map
// texel world-size to compute the normal-offset bias. Typical values are 2.0 to 4.0.
const DefaultShadowNormalBiasScale float32 = 3.0

// ShadowMapSize is the fraction of the atlas resolution a light's shadow map occupies.
type ShadowMapSize int

const (
	// ShadowSizeMedium uses 1/4 of the atlas width.
	ShadowSizeMedium ShadowMapSize = iota
	// ShadowSizeXSmall uses 1/16 of the atlas width.
	ShadowSizeXSmall
	// ShadowSizeSmall uses 1/8 of the atlas width.
	ShadowSizeSmall
	// ShadowSizeLarge uses 1/2 of the atlas width.
	ShadowSizeLarge
	// ShadowSizeXLarge uses the whole atlas width.
	ShadowSizeXLarge
)

// Fraction returns the share of the atlas width the size represents.
func (s ShadowMapSize) Fraction() float32 {
	switch s {
	case ShadowSizeXSmall:
		return 1.0 / 16
	case ShadowSizeSmall:
		return 1.0 / 8
	case ShadowSizeLarge:
		return 1.0 / 2
	case ShadowSizeXLarge:
		return 1
	default:
		return 1.0 / 4
	}
}

// ShadowFilter selects the percentage-closer filter applied when sampling a shadow map.
type ShadowFilter int

const (
	// ShadowFilterNone samples once.
	ShadowFilterNone ShadowFilter = iota
	// ShadowFilterPCF3x3 averages a 3x3 kernel.
	ShadowFilterPCF3x3
	// ShadowFilterPCF5x5 averages a 5x5 kernel.
	ShadowFilterPCF5x5
	// ShadowFilterPCF7x7 averages a 7x7 kernel.
	ShadowFilterPCF7x7
)

// ShadowSettings configures the shadow of a direct light.
type ShadowSettings struct {
	Enabled bool
	Size    ShadowMapSize
	Filter  ShadowFilter
	// CascadeCount is 1, 2 or 4 for directional lights and ignored otherwise.
	CascadeCount      int
	DepthBias         float32
	NormalOffsetScale float32
	Debug             bool
}

// LightShadowType describes a shadow map variant as bit flags. Lights whose shadows have the same
// type can share one shader group.
type LightShadowType uint32

const (
	ShadowTypeCascade1    LightShadowType = 0x1
	ShadowTypeCascade2    LightShadowType = 0x2
	ShadowTypeCascade4    LightShadowType = 0x3
	ShadowTypeCascadeMask LightShadowType = 0x3
	ShadowTypeDebug       LightShadowType = 0x4
	ShadowTypePCF3x3      LightShadowType = 0x10
	ShadowTypePCF5x5      LightShadowType = 0x20
	ShadowTypePCF7x7      LightShadowType = 0x30
	ShadowTypeFilterMask  LightShadowType = 0x30
)

// ComposeShadowType builds the shadow type of a light from its settings.
//
// Parameters:
//   - s: the shadow settings
//
// Returns:
//   - LightShadowType: the flags
func ComposeShadowType(s *ShadowSettings) LightShadowType {
	var t LightShadowType
	switch s.CascadeCount {
	case 2:
		t |= ShadowTypeCascade2
	case 4:
		t |= ShadowTypeCascade4
	default:
		t |= ShadowTypeCascade1
	}
	switch s.Filter {
	case ShadowFilterPCF3x3:
		t |= ShadowTypePCF3x3
	case ShadowFilterPCF5x5:
		t |= ShadowTypePCF5x5
	case ShadowFilterPCF7x7:
		t |= ShadowTypePCF7x7
	}
	if s.Debug {
		t |= ShadowTypeDebug
	}
	return t
}

// CascadeCount returns the number of cascades encoded in the flags.
func (t LightShadowType) CascadeCount() int {
	switch t & ShadowTypeCascadeMask {
	case ShadowTypeCascade2:
		return 2
	case ShadowTypeCascade4:
		return 4
	default:
		return 1
	}
}

// FilterName returns the shader name of the PCF filter encoded in the flags.
func (t LightShadowType) FilterName() string {
	switch t & ShadowTypeFilterMask {
	case ShadowTypePCF3x3:
		return "PCF3x3"
	case ShadowTypePCF5x5:
		return "PCF5x5"
	case ShadowTypePCF7x7:
		return "PCF7x7"
	default:
		return "Default"
	}
}

// String implements fmt.Stringer.
func (t LightShadowType) String() string {
	var sb strings.Builder
	sb.WriteString("Cascade")
	sb.WriteByte(byte('0' + t.CascadeCount()))
	sb.WriteByte('|')
	sb.WriteString(t.FilterName())
	if t&ShadowTypeDebug != 0 {
		sb.WriteString("|Debug")
	}
	return sb.String()
}

// AtlasRect is a region of a shadow atlas in texels.
type AtlasRect struct {
	X, Y, Width, Height uint32
}

// ShadowMapAtlas is one depth texture that shadow maps are packed into.
type ShadowMapAtlas struct {
	Index   int
	Texture *common.Texture
	Sampler common.SamplerStagingData
}

// ShadowMapTexture is the shadow map allocated for one light in the current frame.
// A texture whose Atlas is nil could not be allocated and is rendered as unshadowed.
type ShadowMapTexture struct {
	Light        *RenderLight
	ShadowType   LightShadowType
	Renderer     LightShadowMapRenderer
	Atlas        *ShadowMapAtlas
	CascadeCount int
	// Rects holds one atlas region per cascade or cube face.
	Rects []AtlasRect
	// WorldToShadow holds one column-major matrix per cascade or cube face.
	WorldToShadow     [][16]float32
	DepthBias         float32
	NormalOffsetScale float32
}

// Allocated reports whether the texture received atlas space.
func (t *ShadowMapTexture) Allocated() bool {
	return t != nil && t.Atlas != nil
}

// DynamicEntry pairs a light with its shadow map texture, which may be nil.
type DynamicEntry struct {
	Light            *RenderLight
	ShadowMapTexture *ShadowMapTexture
}

// LightShadowMapRenderer renders the shadow maps of one light type.
type LightShadowMapRenderer interface {
	// Name returns a short identifier of the renderer.
	Name() string

	// ShadowCasterRenderStage returns the name of the render stage shadow casters are drawn in.
	// Effects in that stage do not receive lighting.
	ShadowCasterRenderStage() string

	// CanRenderLight reports whether the renderer handles l.
	CanRenderLight(l *RenderLight) bool

	// ShadowType returns the shadow variant the renderer produces for l.
	ShadowType(l *RenderLight) LightShadowType

	// CreateShaderGroupData creates the receiver-side shader data for lights of one shadow type.
	//
	// Parameters:
	//   - shadowType: the shadow variant of the lights in the group
	//
	// Returns:
	//   - ShadowMapShaderGroupData: the shader data
	CreateShaderGroupData(shadowType LightShadowType) ShadowMapShaderGroupData
}

// ShadowMapShaderGroupData contributes shadow receiving code and parameters to a light shader group.
type ShadowMapShaderGroupData interface {
	// ApplyShader adds the shadow receiver mixin.
	ApplyShader(mixin *shader.MixinSource)

	// UpdateLayout composes the parameter keys under composition.
	UpdateLayout(composition string)

	// UpdateLightCount resizes the data for a new light count bucket.
	UpdateLightCount(lastCount, currentCount int)

	// DeclareLayout adds the group's parameters to the per-view and per-draw layouts.
	DeclareLayout(perView, perDraw *parameter.Layout)

	// ApplyViewParameters writes per-view shadow parameters for the lights of one view.
	ApplyViewParameters(params parameter.Collection, lights []DynamicEntry)

	// ApplyDrawParameters writes per-draw shadow parameters for the lights selected for an object.
	ApplyDrawParameters(params parameter.Collection, lights []DynamicEntry, box common.BoundingBoxExt)
}
