// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Texture describes a GPU texture resource by the attributes the lighting pipeline needs.
// Two textures are the same resource only if they are the same pointer.
type Texture struct {
	// ID is the resource handle of the texture. Textures sharing a Name are ordered by it.
	ID uint64
	// Name is a debug label for the texture.
	Name string
	// Width is the texture width in pixels.
	Width uint32
	// Height is the texture height in pixels.
	Height uint32
	// Format is the texel format of the texture.
	Format wgpu.TextureFormat
	// Dimension is the view dimension the texture is sampled through (2D, Cube, ...).
	Dimension wgpu.TextureViewDimension
}

// SamplerStagingData holds the configuration for a sampler binding pending GPU creation.
type SamplerStagingData struct {
	// AddressModeU, AddressModeV, AddressModeW specify the addressing mode for texture coordinates outside the [0, 1] range in each dimension (U, V, W).
	AddressModeU, AddressModeV, AddressModeW wgpu.AddressMode
	// MagFilter and MinFilter specify the filtering mode for magnification and minification.
	MagFilter, MinFilter wgpu.FilterMode
	// Compare specifies the comparison function for comparison samplers, used in shadow mapping.
	Compare wgpu.CompareFunction
}
