package shadow

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/Carmen-Shannon/oxy-lighting/engine/light"
	"github.com/cogentcore/webgpu/wgpu"
)

// shelf is one row of an atlas; regions are packed left to right.
type shelf struct {
	y, height, used int
}

// atlasAllocator packs square shadow maps into one atlas with a shelf packer. Allocations last
// for one frame; Reset frees everything.
type atlasAllocator struct {
	atlas   *light.ShadowMapAtlas
	size    int
	shelves []shelf
}

func newAtlasAllocator(index, size int) *atlasAllocator {
	return &atlasAllocator{
		size: size,
		atlas: &light.ShadowMapAtlas{
			Index: index,
			Texture: &common.Texture{
				Name:      fmt.Sprintf("ShadowMapAtlas%d", index),
				Width:     uint32(size),
				Height:    uint32(size),
				Format:    wgpu.TextureFormatDepth32Float,
				Dimension: wgpu.TextureViewDimension2D,
			},
			Sampler: common.SamplerStagingData{
				AddressModeU: wgpu.AddressModeClampToEdge,
				AddressModeV: wgpu.AddressModeClampToEdge,
				AddressModeW: wgpu.AddressModeClampToEdge,
				MagFilter:    wgpu.FilterModeLinear,
				MinFilter:    wgpu.FilterModeLinear,
				Compare:      wgpu.CompareFunctionLess,
			},
		},
	}
}

// Reset frees every region.
func (a *atlasAllocator) Reset() {
	a.shelves = a.shelves[:0]
}

// Allocate reserves a size x size region.
//
// Returns:
//   - light.AtlasRect: the region
//   - bool: false if the atlas is full
func (a *atlasAllocator) Allocate(size int) (light.AtlasRect, bool) {
	if size <= 0 || size > a.size {
		return light.AtlasRect{}, false
	}
	best := -1
	for i, s := range a.shelves {
		if s.height < size || a.size-s.used < size {
			continue
		}
		// Tightest shelf first.
		if best < 0 || s.height < a.shelves[best].height {
			best = i
		}
	}
	if best < 0 {
		top := 0
		if n := len(a.shelves); n > 0 {
			top = a.shelves[n-1].y + a.shelves[n-1].height
		}
		if top+size > a.size {
			return light.AtlasRect{}, false
		}
		a.shelves = append(a.shelves, shelf{y: top, height: size})
		best = len(a.shelves) - 1
	}
	s := &a.shelves[best]
	r := light.AtlasRect{X: uint32(s.used), Y: uint32(s.y), Width: uint32(size), Height: uint32(size)}
	s.used += size
	return r, true
}

// AllocateAll reserves count regions at once, all or nothing.
func (a *atlasAllocator) AllocateAll(size, count int) ([]light.AtlasRect, bool) {
	saved := append([]shelf(nil), a.shelves...)
	rects := make([]light.AtlasRect, 0, count)
	for range count {
		r, ok := a.Allocate(size)
		if !ok {
			a.shelves = saved
			return nil, false
		}
		rects = append(rects, r)
	}
	return rects, true
}
