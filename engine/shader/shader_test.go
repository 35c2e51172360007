package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceKeys(t *testing.T) {
	assert.Equal(t, "LightDirectionalGroup<4>", NewClassSource("LightDirectionalGroup", 4).Key())
	assert.Equal(t, "EnvironmentLight", NewClassSource("EnvironmentLight").Key())

	m := NewMixinSource(NewClassSource("LightSpotGroup", 8))
	m.Add(nil)
	m.Add(NewClassSource("ShadowMapReceiverSpot", 8, "PCF3x3"))
	assert.Equal(t, "mixin(LightSpotGroup<8>,ShadowMapReceiverSpot<8,PCF3x3>)", m.Key())
}

func TestSourceCollectionStructuralIdentity(t *testing.T) {
	a := SourceCollection{NewClassSource("A", 1), NewMixinSource(NewClassSource("B"))}
	b := SourceCollection{NewClassSource("A", 1), NewMixinSource(NewClassSource("B"))}
	c := SourceCollection{NewMixinSource(NewClassSource("B")), NewClassSource("A", 1)}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key(), "order is significant")

	clone := a.Clone()
	a[0] = NewClassSource("Z")
	assert.Equal(t, "A<1>", clone[0].Key())
}

func TestPermutationValidator(t *testing.T) {
	key := parameter.NewKey("Lighting.DirectLightGroups")
	env := parameter.NewKey("Lighting.EnvironmentLights")
	v := NewPermutationValidator()

	v.BeginEffectValidation()
	v.ValidateParameter(key, SourceCollection{NewClassSource("A")})
	v.ValidateParameter(env, SourceCollection{})
	assert.True(t, v.EndEffectValidation(), "first pass always changes")
	assert.Equal(t, []parameter.Key{key, env}, v.Keys())

	v.BeginEffectValidation()
	v.ValidateParameter(key, SourceCollection{NewClassSource("A")})
	v.ValidateParameter(env, SourceCollection{})
	assert.False(t, v.EndEffectValidation())

	v.BeginEffectValidation()
	v.ValidateParameter(key, SourceCollection{NewClassSource("B")})
	v.ValidateParameter(env, SourceCollection{})
	assert.True(t, v.EndEffectValidation())

	got, ok := v.Value(key)
	require.True(t, ok)
	assert.Equal(t, "[B]", got.(SourceCollection).Key())
}
