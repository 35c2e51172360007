package light

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRenderLightDefaults(t *testing.T) {
	l := NewRenderLight(&Point{Radius: 5}, WithPosition(1, 2, 3), WithColor(1, 0.5, 0), WithIntensity(2))

	assert.Equal(t, [3]float32{1, 2, 3}, l.Position)
	assert.Equal(t, [3]float32{2, 1, 0}, l.Color, "color is intensity-scaled")
	assert.Equal(t, RenderGroupMaskAll, l.CullingMask)
	assert.Equal(t, float32(1), l.WorldMatrix[15])
	assert.Equal(t, float32(3), l.WorldMatrix[14])
	assert.NotZero(t, l.ID)
	assert.Panics(t, func() { NewRenderLight(nil) })
}

func TestRenderLightWorldMatrix(t *testing.T) {
	var m [16]float32
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	m[12], m[13], m[14] = 4, 5, 6

	l := NewRenderLight(&Spot{Range: 1, AngleOuter: 30}, WithWorldMatrix(m), WithPosition(9, 9, 9))
	assert.Equal(t, [3]float32{4, 5, 6}, l.Position)
	assert.Equal(t, [3]float32{0, 0, -1}, l.Direction)
}

func TestUpdateBoundingBox(t *testing.T) {
	point := NewRenderLight(&Point{Radius: 2}, WithPosition(1, 0, 0))
	assert.False(t, point.BoundsValid(1))

	point.UpdateBoundingBox(1)
	require.True(t, point.BoundsValid(1))
	assert.False(t, point.BoundsValid(2), "bounds from another frame are stale")
	assert.True(t, point.HasBoundingBox())
	assert.Equal(t, [3]float32{-1, -2, -2}, point.BoundingBox().Min)
	assert.Equal(t, [3]float32{3, 2, 2}, point.BoundingBox().Max)
	assert.Equal(t, [3]float32{1, 0, 0}, point.BoundingBoxExt().Center)

	dir := NewRenderLight(&Directional{})
	dir.UpdateBoundingBox(1)
	assert.False(t, dir.HasBoundingBox())

	amb := NewRenderLight(&Ambient{})
	amb.UpdateBoundingBox(1)
	assert.False(t, amb.HasBoundingBox())
	assert.Nil(t, amb.ShadowSettings())
}

func TestSpotBounds(t *testing.T) {
	spot := NewRenderLight(&Spot{Range: 10, AngleOuter: 45}, WithDirection(0, 0, -1))
	spot.UpdateBoundingBox(7)
	box := spot.BoundingBox()

	assert.InDelta(t, -10, box.Min[2], 1e-4)
	assert.InDelta(t, 0, box.Max[2], 1e-4)
	assert.InDelta(t, -10, box.Min[0], 1e-3, "base radius is range * tan(outer)")
	assert.InDelta(t, 10, box.Max[1], 1e-3)
}

func TestSpotAttenuationParameters(t *testing.T) {
	s := &Spot{Range: 4, AngleInner: 20, AngleOuter: 30}
	cosInner := math32.Cos(20 * math32.Pi / 180)
	cosOuter := math32.Cos(30 * math32.Pi / 180)

	assert.InDelta(t, 1/(cosInner-cosOuter), s.AngleScale(), 1e-3)
	assert.InDelta(t, 0, s.AngleOffset()+cosOuter*s.AngleScale(), 1e-4)
	assert.InDelta(t, 1.0/16, s.InvSquareRange(), 1e-6)
	assert.Equal(t, SpotTextureParameters{}, s.TextureParameters())
}

func TestSkyboxSHOrder(t *testing.T) {
	assert.Equal(t, 0, (&Skybox{}).SHOrder())
	assert.Equal(t, 3, (&Skybox{DiffuseSH: make([][3]float32, 9)}).SHOrder())
}

func TestGPULayoutSizes(t *testing.T) {
	d := DirectionalLightData{}
	p := PointLightData{}
	s := SpotLightData{}

	assert.Equal(t, 32, d.Size())
	assert.Equal(t, 32, p.Size())
	assert.Equal(t, 64, s.Size())
	assert.Len(t, d.AppendTo(nil), d.Size())
	assert.Len(t, p.AppendTo(nil), p.Size())
	assert.Len(t, s.AppendTo(nil), s.Size())
}

func TestComposeShadowType(t *testing.T) {
	st := ComposeShadowType(&ShadowSettings{CascadeCount: 4, Filter: ShadowFilterPCF5x5, Debug: true})
	assert.Equal(t, 4, st.CascadeCount())
	assert.Equal(t, "PCF5x5", st.FilterName())
	assert.Equal(t, "Cascade4|PCF5x5|Debug", st.String())

	assert.Equal(t, ShadowTypeCascade1, ComposeShadowType(&ShadowSettings{}))
}
