// Package parameter models the GPU parameter blocks the lighting pipeline writes into: named keys,
// layouts describing which keys a shader expects, and collections holding the values.
package parameter

import (
	"encoding/hex"
	"hash/fnv"
)

// Key names one shader parameter. Keys are compared by value.
type Key struct {
	name string
}

// NewKey creates a parameter key with the given fully qualified name.
//
// Parameters:
//   - name: the parameter name, for example "LightSpotGroup.Lights"
//
// Returns:
//   - Key: the key
func NewKey(name string) Key {
	return Key{name: name}
}

// Name returns the fully qualified name of the key.
func (k Key) Name() string {
	return k.name
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return k.name
}

// ComposeWith returns the key as it appears inside a named shader composition.
// Composing with an empty name returns the key unchanged.
//
// Parameters:
//   - composition: the composition name, for example "directLightGroups[0]"
//
// Returns:
//   - Key: the composed key
func (k Key) ComposeWith(composition string) Key {
	if composition == "" {
		return k
	}
	return Key{name: k.name + "." + composition}
}

// ObjectID is a 128-bit content hash used to detect layout changes.
type ObjectID [16]byte

// EmptyObjectID is the hash of nothing; a logical group with this hash is absent.
var EmptyObjectID ObjectID

// IsEmpty reports whether the id is EmptyObjectID.
func (id ObjectID) IsEmpty() bool {
	return id == EmptyObjectID
}

// String returns the id as lowercase hex.
func (id ObjectID) String() string {
	return hex.EncodeToString(id[:])
}

// HashBytes computes the ObjectID of an arbitrary byte sequence using FNV-128a.
func HashBytes(data []byte) ObjectID {
	h := fnv.New128a()
	h.Write(data)
	var id ObjectID
	copy(id[:], h.Sum(nil))
	return id
}
