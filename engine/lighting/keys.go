package lighting

import (
	"strconv"

	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
)

// Permutation parameters registered on every lit effect.
var (
	// DirectLightGroupsKey selects the shader sources of the direct light groups.
	DirectLightGroupsKey = parameter.NewKey("Lighting.DirectLightGroups")
	// EnvironmentLightsKey selects the shader sources of the environment lights.
	EnvironmentLightsKey = parameter.NewKey("Lighting.EnvironmentLights")
)

// Parameter keys written by the built-in light groups, composed per group with
// parameter.Key.ComposeWith.
var (
	PerViewLightCountKey   = parameter.NewKey("DirectLightGroupPerView.LightCount")
	PerDrawLightCountKey   = parameter.NewKey("DirectLightGroupPerDraw.LightCount")
	DirectionalLightsKey   = parameter.NewKey("LightDirectionalGroup.Lights")
	PointLightsKey         = parameter.NewKey("LightPointGroup.Lights")
	SpotLightsKey          = parameter.NewKey("LightSpotGroup.Lights")
	AmbientLightKey        = parameter.NewKey("LightSimpleAmbient.AmbientLight")
	SkyboxIntensityKey     = parameter.NewKey("LightSkyboxShader.Intensity")
	SkyboxMatrixKey        = parameter.NewKey("LightSkyboxShader.SkyMatrix")
	SkyboxSphericalKey     = parameter.NewKey("SphericalHarmonicsEnvironmentColor.SphericalColors")
	SkyboxMipCountKey      = parameter.NewKey("RoughnessCubeMapEnvironmentColor.MipCount")
	SkyboxDiffuseShaderKey = parameter.NewKey("LightSkyboxShader.LightDiffuseColor")
	SkyboxSpecularKey      = parameter.NewKey("LightSkyboxShader.LightSpecularColor")
)

const (
	directLightGroupsComposition = "directLightGroups"
	environmentLightsComposition = "environmentLights"
)

// DirectLightGroupComposition returns the composition name of the direct light group at index i.
func DirectLightGroupComposition(i int) string {
	return directLightGroupsComposition + "[" + strconv.Itoa(i) + "]"
}

// EnvironmentLightComposition returns the composition name of the environment light at index i.
func EnvironmentLightComposition(i int) string {
	return environmentLightsComposition + "[" + strconv.Itoa(i) + "]"
}
