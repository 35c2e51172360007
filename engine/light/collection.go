package light

// RenderLightCollection is an ordered, appendable list of lights sharing a culling mask.
// Clear keeps the backing storage so a collection can be refilled every frame without allocating.
type RenderLightCollection struct {
	lights []*RenderLight

	// CullingMask is the set of render groups the lights of this collection affect.
	CullingMask RenderGroupMask

	// Tags is an open bag of values attached to the collection by its producer.
	Tags map[string]any
}

// NewRenderLightCollection creates an empty collection with room for capacity lights.
//
// Parameters:
//   - capacity: the initial capacity
//
// Returns:
//   - *RenderLightCollection: the collection
func NewRenderLightCollection(capacity int) *RenderLightCollection {
	if capacity < 0 {
		panic("light: negative collection capacity")
	}
	return &RenderLightCollection{lights: make([]*RenderLight, 0, capacity)}
}

// Add appends a light.
func (c *RenderLightCollection) Add(l *RenderLight) {
	c.lights = append(c.lights, l)
}

// Len returns the number of lights.
func (c *RenderLightCollection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.lights)
}

// At returns the light at index i.
func (c *RenderLightCollection) At(i int) *RenderLight {
	return c.lights[i]
}

// Lights returns the lights in insertion order. The slice is only valid until the next Add or Clear.
func (c *RenderLightCollection) Lights() []*RenderLight {
	if c == nil {
		return nil
	}
	return c.lights
}

// Last returns the most recently added light, or nil when empty.
func (c *RenderLightCollection) Last() *RenderLight {
	if len(c.lights) == 0 {
		return nil
	}
	return c.lights[len(c.lights)-1]
}

// Clear removes every light but keeps the allocated storage.
func (c *RenderLightCollection) Clear() {
	clear(c.lights)
	c.lights = c.lights[:0]
}

// renderGroupCount is the number of render groups addressable by a RenderGroupMask.
const renderGroupCount = 32

var emptyCollection = &RenderLightCollection{}

// RenderLightCollectionGroup holds the visible lights of one light type for one view, split into
// one collection per render group. Render groups whose culling-mask membership is identical share
// a collection.
type RenderLightCollectionGroup struct {
	lightType LightTypeTag

	allLights *RenderLightCollection
	masks     []RenderGroupMask
	maskIndex map[RenderGroupMask]int

	perGroup [renderGroupCount]*RenderLightCollection
	inUse    []*RenderLightCollection
	pool     []*RenderLightCollection
}

// NewRenderLightCollectionGroup creates an empty group for a light type.
//
// Parameters:
//   - lightType: the tag of the lights the group holds
//
// Returns:
//   - *RenderLightCollectionGroup: the group
func NewRenderLightCollectionGroup(lightType LightTypeTag) *RenderLightCollectionGroup {
	return &RenderLightCollectionGroup{
		lightType: lightType,
		allLights: NewRenderLightCollection(8),
		maskIndex: make(map[RenderGroupMask]int),
	}
}

// LightType returns the tag of the lights held by the group.
func (g *RenderLightCollectionGroup) LightType() LightTypeTag {
	return g.lightType
}

// Count returns the number of lights added with AddLight.
func (g *RenderLightCollectionGroup) Count() int {
	return g.allLights.Len()
}

// AllLights returns every light of the group regardless of render group.
func (g *RenderLightCollectionGroup) AllLights() *RenderLightCollection {
	return g.allLights
}

// PrepareLight records the culling mask of a light that will be added after
// AllocateCollectionsPerGroupOfCullingMask.
//
// Parameters:
//   - l: the light
func (g *RenderLightCollectionGroup) PrepareLight(l *RenderLight) {
	mask := effectiveMask(l.CullingMask)
	if _, ok := g.maskIndex[mask]; ok {
		return
	}
	g.maskIndex[mask] = len(g.masks)
	g.masks = append(g.masks, mask)
}

// AllocateCollectionsPerGroupOfCullingMask assigns a collection to every render group touched by a
// prepared light. Two render groups are given the same collection when every prepared mask either
// contains both or neither of them, since they will then always hold the same lights.
func (g *RenderLightCollectionGroup) AllocateCollectionsPerGroupOfCullingMask() {
	bySignature := make(map[string]*RenderLightCollection)
	sig := make([]byte, (len(g.masks)+7)/8)
	for group := range renderGroupCount {
		clear(sig)
		touched := false
		for i, mask := range g.masks {
			if mask.Contains(group) {
				sig[i/8] |= 1 << uint(i%8)
				touched = true
			}
		}
		if !touched {
			g.perGroup[group] = nil
			continue
		}
		key := string(sig)
		coll, ok := bySignature[key]
		if !ok {
			coll = g.acquire()
			bySignature[key] = coll
		}
		coll.CullingMask |= 1 << uint(group)
		g.perGroup[group] = coll
	}
}

// AddLight adds a light to the group and to the collection of every render group in its culling mask.
//
// Parameters:
//   - l: the light, which must have gone through PrepareLight
func (g *RenderLightCollectionGroup) AddLight(l *RenderLight) {
	mask := effectiveMask(l.CullingMask)
	for group := range renderGroupCount {
		if !mask.Contains(group) {
			continue
		}
		coll := g.perGroup[group]
		// A collection shared by several render groups already ends with l after the first of them.
		if coll != nil && coll.Last() != l {
			coll.Add(l)
		}
	}
	g.allLights.Add(l)
}

// FindLightCollectionByGroup returns the lights affecting render group index group.
// The result is never nil.
//
// Parameters:
//   - group: render group index in [0, 32)
//
// Returns:
//   - *RenderLightCollection: the collection, empty when no light affects the group
func (g *RenderLightCollectionGroup) FindLightCollectionByGroup(group int) *RenderLightCollection {
	if group < 0 || group >= renderGroupCount || g.perGroup[group] == nil {
		return emptyCollection
	}
	return g.perGroup[group]
}

// Clear empties the group for the next frame. Collections are kept for reuse.
func (g *RenderLightCollectionGroup) Clear() {
	g.allLights.Clear()
	g.masks = g.masks[:0]
	clear(g.maskIndex)
	g.perGroup = [renderGroupCount]*RenderLightCollection{}
	for _, c := range g.inUse {
		c.Clear()
		c.CullingMask = 0
	}
	g.pool = append(g.pool, g.inUse...)
	g.inUse = g.inUse[:0]
}

func (g *RenderLightCollectionGroup) acquire() *RenderLightCollection {
	var c *RenderLightCollection
	if n := len(g.pool); n > 0 {
		c = g.pool[n-1]
		g.pool = g.pool[:n-1]
	} else {
		c = NewRenderLightCollection(8)
	}
	g.inUse = append(g.inUse, c)
	return c
}

// effectiveMask treats an empty culling mask as every render group.
func effectiveMask(m RenderGroupMask) RenderGroupMask {
	if m == 0 {
		return RenderGroupMaskAll
	}
	return m
}
