package light

import "github.com/Carmen-Shannon/oxy-lighting/common"

type renderLightBuilder struct {
	light     *RenderLight
	color     *[3]float32
	matrixSet bool
}

// RenderLightBuilderOption is a function that configures a RenderLight during construction.
type RenderLightBuilderOption func(*renderLightBuilder)

// WithPosition is an option builder that sets the world-space position of the light.
//
// Parameters:
//   - x: the x position component
//   - y: the y position component
//   - z: the z position component
//
// Returns:
//   - RenderLightBuilderOption: a function that applies the position option
func WithPosition(x, y, z float32) RenderLightBuilderOption {
	return func(b *renderLightBuilder) {
		b.light.Position = [3]float32{x, y, z}
	}
}

// WithDirection is an option builder that sets the direction of the light.
// The direction is normalized before storing.
//
// Parameters:
//   - x: the x direction component
//   - y: the y direction component
//   - z: the z direction component
//
// Returns:
//   - RenderLightBuilderOption: a function that applies the direction option
func WithDirection(x, y, z float32) RenderLightBuilderOption {
	return func(b *renderLightBuilder) {
		b.light.Direction = common.Normalize3([3]float32{x, y, z})
	}
}

// WithWorldMatrix is an option builder that sets the full world transform. Position and
// direction are then derived from the matrix and WithPosition/WithDirection are ignored.
//
// Parameters:
//   - m: column-major world matrix
//
// Returns:
//   - RenderLightBuilderOption: a function that applies the transform option
func WithWorldMatrix(m [16]float32) RenderLightBuilderOption {
	return func(b *renderLightBuilder) {
		b.light.WorldMatrix = m
		b.matrixSet = true
	}
}

// WithColor is an option builder that sets the RGB color of the light before intensity scaling.
//
// Parameters:
//   - r: red component
//   - g: green component
//   - bl: blue component
//
// Returns:
//   - RenderLightBuilderOption: a function that applies the color option
func WithColor(r, g, bl float32) RenderLightBuilderOption {
	return func(b *renderLightBuilder) {
		*b.color = [3]float32{r, g, bl}
	}
}

// WithIntensity is an option builder that sets the scalar intensity of the light.
//
// Parameters:
//   - intensity: the intensity multiplier applied to the color
//
// Returns:
//   - RenderLightBuilderOption: a function that applies the intensity option
func WithIntensity(intensity float32) RenderLightBuilderOption {
	return func(b *renderLightBuilder) {
		b.light.Intensity = intensity
	}
}

// WithCullingMask is an option builder that restricts the light to some render groups.
//
// Parameters:
//   - mask: the render groups the light affects
//
// Returns:
//   - RenderLightBuilderOption: a function that applies the mask option
func WithCullingMask(mask RenderGroupMask) RenderLightBuilderOption {
	return func(b *renderLightBuilder) {
		b.light.CullingMask = mask
	}
}
