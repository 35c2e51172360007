package light

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderLightCollectionReuse(t *testing.T) {
	c := NewRenderLightCollection(2)
	a := NewRenderLight(&Point{Radius: 1})
	b := NewRenderLight(&Point{Radius: 1})
	c.Add(a)
	c.Add(b)
	assert.Equal(t, 2, c.Len())
	assert.Same(t, b, c.Last())

	backing := cap(c.Lights())
	c.Clear()
	assert.Equal(t, 0, c.Len())
	assert.Nil(t, c.Last())
	assert.Equal(t, backing, cap(c.Lights()))

	var nilColl *RenderLightCollection
	assert.Equal(t, 0, nilColl.Len())
	assert.Panics(t, func() { NewRenderLightCollection(-1) })
}

func TestCollectionGroupPerCullingMask(t *testing.T) {
	g := NewRenderLightCollectionGroup(TagPoint)
	all := NewRenderLight(&Point{Radius: 1})
	group0 := NewRenderLight(&Point{Radius: 1}, WithCullingMask(0b001))
	group12 := NewRenderLight(&Point{Radius: 1}, WithCullingMask(0b110))
	zero := NewRenderLight(&Point{Radius: 1}, WithCullingMask(0))

	lights := []*RenderLight{all, group0, group12, zero}
	for _, l := range lights {
		g.PrepareLight(l)
	}
	g.AllocateCollectionsPerGroupOfCullingMask()
	for _, l := range lights {
		g.AddLight(l)
	}

	assert.Equal(t, 4, g.Count())
	assert.Equal(t, TagPoint, g.LightType())

	c0 := g.FindLightCollectionByGroup(0)
	assert.Equal(t, []*RenderLight{all, group0, zero}, c0.Lights())

	c1 := g.FindLightCollectionByGroup(1)
	c2 := g.FindLightCollectionByGroup(2)
	require.Same(t, c1, c2, "groups 1 and 2 are always selected together")
	assert.Equal(t, []*RenderLight{all, group12, zero}, c1.Lights(), "a shared collection holds each light once")

	c5 := g.FindLightCollectionByGroup(5)
	assert.NotSame(t, c1, c5)
	assert.Equal(t, []*RenderLight{all, zero}, c5.Lights())

	assert.Equal(t, 0, g.FindLightCollectionByGroup(40).Len())
}

func TestCollectionGroupEveryLightVisibleToItsGroups(t *testing.T) {
	g := NewRenderLightCollectionGroup(TagSpot)
	var lights []*RenderLight
	for i := range 12 {
		lights = append(lights, NewRenderLight(&Spot{Range: 1}, WithCullingMask(RenderGroupMask(1<<uint(i%5)|1<<uint((i*7)%32)))))
	}
	for _, l := range lights {
		g.PrepareLight(l)
	}
	g.AllocateCollectionsPerGroupOfCullingMask()
	for _, l := range lights {
		g.AddLight(l)
	}

	for _, l := range lights {
		for group := range 32 {
			coll := g.FindLightCollectionByGroup(group)
			assert.Equal(t, l.CullingMask.Contains(group), contains(coll, l), "light %v group %d", l, group)
		}
	}
}

func TestCollectionGroupClearReusesCollections(t *testing.T) {
	g := NewRenderLightCollectionGroup(TagDirectional)
	l := NewRenderLight(&Directional{})
	g.PrepareLight(l)
	g.AllocateCollectionsPerGroupOfCullingMask()
	g.AddLight(l)
	first := g.FindLightCollectionByGroup(0)

	g.Clear()
	assert.Equal(t, 0, g.Count())
	assert.Equal(t, 0, g.FindLightCollectionByGroup(0).Len())

	g.PrepareLight(l)
	g.AllocateCollectionsPerGroupOfCullingMask()
	g.AddLight(l)
	assert.Same(t, first, g.FindLightCollectionByGroup(0))
}

func contains(c *RenderLightCollection, l *RenderLight) bool {
	for _, x := range c.Lights() {
		if x == l {
			return true
		}
	}
	return false
}
