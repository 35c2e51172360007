package parameter

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/cogentcore/webgpu/wgpu"
)

// LayoutEntry declares one key of a layout, with the byte size of one element and the
// number of elements the shader reserves for it.
type LayoutEntry struct {
	Key         Key
	ElementSize int
	Count       int
}

// Layout describes the ordered set of parameters of one logical group, plus the shader stages
// that read it.
type Layout struct {
	Entries    []LayoutEntry
	Visibility wgpu.ShaderStage
}

// NewLayout builds a layout from its entries.
//
// Parameters:
//   - visibility: the shader stages that consume the group
//   - entries: the parameters in declaration order
//
// Returns:
//   - *Layout: the new layout
func NewLayout(visibility wgpu.ShaderStage, entries ...LayoutEntry) *Layout {
	return &Layout{
		Entries:    entries,
		Visibility: visibility,
	}
}

// Add appends an entry to the layout.
func (l *Layout) Add(key Key, elementSize, count int) {
	l.Entries = append(l.Entries, LayoutEntry{Key: key, ElementSize: elementSize, Count: count})
}

// Find returns the entry for key.
func (l *Layout) Find(key Key) (LayoutEntry, bool) {
	if l == nil {
		return LayoutEntry{}, false
	}
	for _, e := range l.Entries {
		if e.Key == key {
			return e, true
		}
	}
	return LayoutEntry{}, false
}

// Hash returns a content hash of the layout. Two layouts with the same entries in the same order and
// the same visibility hash identically. An empty or nil layout hashes to EmptyObjectID.
//
// Returns:
//   - ObjectID: the content hash
func (l *Layout) Hash() ObjectID {
	if l == nil || len(l.Entries) == 0 {
		return EmptyObjectID
	}
	h := fnv.New128a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(l.Visibility))
	h.Write(buf[:])
	for _, e := range l.Entries {
		h.Write([]byte(e.Key.name))
		binary.LittleEndian.PutUint32(buf[:4], uint32(e.ElementSize))
		binary.LittleEndian.PutUint32(buf[4:], uint32(e.Count))
		h.Write(buf[:])
	}
	var id ObjectID
	copy(id[:], h.Sum(nil))
	return id
}

// Equal reports whether two layouts declare the same entries with the same visibility.
func (l *Layout) Equal(o *Layout) bool {
	if l == nil || o == nil {
		return l == o
	}
	if l.Visibility != o.Visibility || len(l.Entries) != len(o.Entries) {
		return false
	}
	for i := range l.Entries {
		if l.Entries[i] != o.Entries[i] {
			return false
		}
	}
	return true
}

// LogicalGroup is the slice of an effect's resource layout that belongs to one feature,
// identified by the hash of its layout.
type LogicalGroup struct {
	Hash   ObjectID
	Layout *Layout
}

// NewLogicalGroup wraps a layout together with its hash.
func NewLogicalGroup(l *Layout) LogicalGroup {
	return LogicalGroup{Hash: l.Hash(), Layout: l}
}

// Size returns the number of bytes the layout reserves.
func (l *Layout) Size() int {
	if l == nil {
		return 0
	}
	n := 0
	for _, e := range l.Entries {
		n += e.ElementSize * max(e.Count, 1)
	}
	return n
}

// BindGroupLayoutEntries describes the layout to the GPU as one read-only storage buffer per
// entry, bound from firstBinding on in declaration order.
//
// Parameters:
//   - firstBinding: the binding index of the first entry
//
// Returns:
//   - []wgpu.BindGroupLayoutEntry: the bind group layout entries
func (l *Layout) BindGroupLayoutEntries(firstBinding uint32) []wgpu.BindGroupLayoutEntry {
	if l == nil {
		return nil
	}
	out := make([]wgpu.BindGroupLayoutEntry, len(l.Entries))
	for i, e := range l.Entries {
		out[i] = wgpu.BindGroupLayoutEntry{
			Binding:    firstBinding + uint32(i),
			Visibility: l.Visibility,
		}
		out[i].Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		out[i].Buffer.MinBindingSize = uint64(e.ElementSize * max(e.Count, 1))
	}
	return out
}
