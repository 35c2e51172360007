package lighting

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sameNameShadows registers two distinct light shadow renderers that share a name.
type sameNameShadows struct {
	*fakeShadowMapRenderer
	second *fakeLightShadowRenderer
}

func (s *sameNameShadows) Renderers() []light.LightShadowMapRenderer {
	return []light.LightShadowMapRenderer{s.renderer, s.second}
}

func TestGroupKeyOrdersSameNameShadowRenderersByRegistration(t *testing.T) {
	shadows := &sameNameShadows{
		fakeShadowMapRenderer: newFakeShadowMapRenderer(),
		second:                &fakeLightShadowRenderer{name: "Fake", stage: "ShadowMapCaster"},
	}
	first := shadowedPointAt(0, 0, 0, 1)
	second := shadowedPointAt(1, 0, 0, 1)
	atlas := &light.ShadowMapAtlas{Texture: &common.Texture{Name: "atlas"}}
	textures := map[*light.RenderLight]*light.ShadowMapTexture{
		first:  {Light: first, Renderer: shadows.renderer, ShadowType: light.ShadowTypeCascade1, Atlas: atlas},
		second: {Light: second, Renderer: shadows.second, ShadowType: light.ShadowTypeCascade1, Atlas: atlas},
	}
	view := newCamera("main", [3]float32{0, 0, 10})
	p := processParams(view, nil, 0, nil, nil, shadows, textures)

	r := newDirectLightRenderer(light.TagPoint)
	k1, _ := r.keyOf(p, first)
	k2, _ := r.keyOf(p, second)
	assert.Equal(t, 0, k1.shadowOrder)
	assert.Equal(t, 1, k2.shadowOrder)
	assert.Negative(t, k1.compare(k2))
	assert.Positive(t, k2.compare(k1))

	k, tex := r.keyOf(p, pointAt(2, 0, 0, 1))
	assert.Nil(t, tex)
	assert.Equal(t, -1, k.shadowOrder)
}

func TestGroupKeyOrdersSameNameTextures(t *testing.T) {
	low := &common.Texture{ID: 1, Name: "gobo"}
	high := &common.Texture{ID: 2, Name: "gobo"}
	kHigh := groupKey{shadowOrder: -1, projection: NewTextureProjectionRenderer(light.SpotTextureParameters{Texture: high})}
	kLow := groupKey{shadowOrder: -1, projection: NewTextureProjectionRenderer(light.SpotTextureParameters{Texture: low})}
	assert.Negative(t, kLow.compare(kHigh))
	assert.Positive(t, kHigh.compare(kLow))

	// Equal setups on distinct renderers still have a fixed order.
	a := groupKey{shadowOrder: -1, projection: NewTextureProjectionRenderer(light.SpotTextureParameters{Texture: low})}
	b := groupKey{shadowOrder: -1, projection: NewTextureProjectionRenderer(light.SpotTextureParameters{Texture: low})}
	assert.Negative(t, a.compare(b))
	assert.Zero(t, a.compare(a))
}

func TestSpotGroupsWithSameNameTexturesIgnorePublicationOrder(t *testing.T) {
	low := &common.Texture{ID: 1, Name: "gobo"}
	high := &common.Texture{ID: 2, Name: "gobo"}

	textureOrder := func(lights ...*light.RenderLight) []*common.Texture {
		ctx := newScene(lights...)
		view := newCamera("main", [3]float32{0, 0, 10})
		ctx.AddView(view)
		addObject(ctx, view, [3]float32{}, 1)
		f := NewForwardLightingRenderFeature(WithConfig(serialConfig()))
		runFrame(t, f, ctx)

		var out []*common.Texture
		for _, g := range f.Permutation().DirectLightGroups {
			local, ok := g.(*localLightGroup)
			require.True(t, ok)
			data, ok := local.projection.(*textureProjectionShaderGroupData)
			require.True(t, ok)
			out = append(out, data.params.Texture)
		}
		return out
	}

	forward := textureOrder(
		spotAt(0, 3, 0, light.Spot{ProjectiveTexture: high}),
		spotAt(0.5, 3, 0, light.Spot{ProjectiveTexture: low}),
	)
	reversed := textureOrder(
		spotAt(0.5, 3, 0, light.Spot{ProjectiveTexture: low}),
		spotAt(0, 3, 0, light.Spot{ProjectiveTexture: high}),
	)
	assert.Equal(t, []*common.Texture{low, high}, forward)
	assert.Equal(t, forward, reversed)
}
