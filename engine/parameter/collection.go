package parameter

import (
	"encoding/binary"
	"math"
)

// Collection is a key to value store whose accepted keys are defined by a Layout.
// Values are raw little-endian bytes. A Collection is not safe for concurrent use.
type Collection interface {
	// UpdateLayout replaces the layout of the collection, dropping values for keys the new layout
	// does not declare.
	//
	// Parameters:
	//   - layout: the new layout, nil clears the collection
	UpdateLayout(layout *Layout)

	// Layout returns the current layout.
	//
	// Returns:
	//   - *Layout: the layout, or nil if none was set
	Layout() *Layout

	// Set stores a value for key. Values longer than the capacity declared by the layout are
	// truncated to it.
	//
	// Parameters:
	//   - key: the parameter key
	//   - value: the raw bytes, copied into the collection
	//
	// Returns:
	//   - bool: false if the key is not part of the layout
	Set(key Key, value []byte) bool

	// SetInt32 stores a single int32 value.
	SetInt32(key Key, v int32) bool

	// SetFloat32s stores a float32 slice.
	SetFloat32s(key Key, v ...float32) bool

	// Get returns the value stored for key.
	//
	// Parameters:
	//   - key: the parameter key
	//
	// Returns:
	//   - []byte: the stored bytes (do not modify)
	//   - bool: whether a value is present
	Get(key Key) ([]byte, bool)

	// Int32 reads back a value written with SetInt32.
	Int32(key Key) (int32, bool)

	// CopyTo copies every value of this collection that dst's layout declares into dst.
	//
	// Parameters:
	//   - dst: the destination collection
	CopyTo(dst Collection)

	// Clear removes all values but keeps the layout.
	Clear()
}

type collectionImpl struct {
	layout *Layout
	values map[Key][]byte
}

var _ Collection = &collectionImpl{}

// NewCollection creates an empty collection with no layout.
//
// Returns:
//   - Collection: the collection
func NewCollection() Collection {
	return &collectionImpl{values: make(map[Key][]byte)}
}

func (c *collectionImpl) UpdateLayout(layout *Layout) {
	c.layout = layout
	for k := range c.values {
		if _, ok := layout.Find(k); !ok {
			delete(c.values, k)
		}
	}
}

func (c *collectionImpl) Layout() *Layout {
	return c.layout
}

func (c *collectionImpl) Set(key Key, value []byte) bool {
	entry, ok := c.layout.Find(key)
	if !ok {
		return false
	}
	if limit := entry.ElementSize * entry.Count; limit > 0 && len(value) > limit {
		value = value[:limit]
	}
	dst := c.values[key]
	c.values[key] = append(dst[:0], value...)
	return true
}

func (c *collectionImpl) SetInt32(key Key, v int32) bool {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	return c.Set(key, buf[:])
}

func (c *collectionImpl) SetFloat32s(key Key, v ...float32) bool {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return c.Set(key, buf)
}

func (c *collectionImpl) Get(key Key) ([]byte, bool) {
	v, ok := c.values[key]
	return v, ok
}

func (c *collectionImpl) Int32(key Key) (int32, bool) {
	v, ok := c.values[key]
	if !ok || len(v) < 4 {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(v)), true
}

func (c *collectionImpl) CopyTo(dst Collection) {
	if dst == nil {
		panic("parameter: CopyTo called with nil destination")
	}
	for k, v := range c.values {
		dst.Set(k, v)
	}
}

func (c *collectionImpl) Clear() {
	clear(c.values)
}
