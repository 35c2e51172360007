// Package shader holds the description of shader code the lighting pipeline selects. Sources are
// opaque descriptions handed to an external effect compiler; only their structural identity matters here.
package shader

import (
	"fmt"
	"strings"
)

// Source is one node of a shader composition tree.
type Source interface {
	// Key returns a string that is equal for two sources if and only if they describe the same
	// shader code.
	//
	// Returns:
	//   - string: the structural key
	Key() string
}

// ClassSource references a single shader class, optionally instantiated with generic arguments.
type ClassSource struct {
	Name     string
	Generics []any
}

// NewClassSource creates a class reference.
//
// Parameters:
//   - name: the shader class name
//   - generics: generic arguments, formatted with %v
//
// Returns:
//   - *ClassSource: the class source
func NewClassSource(name string, generics ...any) *ClassSource {
	return &ClassSource{Name: name, Generics: generics}
}

func (c *ClassSource) Key() string {
	if len(c.Generics) == 0 {
		return c.Name
	}
	args := make([]string, len(c.Generics))
	for i, g := range c.Generics {
		args[i] = fmt.Sprint(g)
	}
	return c.Name + "<" + strings.Join(args, ",") + ">"
}

// MixinSource composes several sources into one.
type MixinSource struct {
	Mixins []Source
}

// NewMixinSource creates a mixin of the given sources.
func NewMixinSource(mixins ...Source) *MixinSource {
	return &MixinSource{Mixins: mixins}
}

// Add appends a source to the mixin. Nil sources are ignored.
func (m *MixinSource) Add(s Source) {
	if s == nil {
		return
	}
	m.Mixins = append(m.Mixins, s)
}

func (m *MixinSource) Key() string {
	var sb strings.Builder
	sb.WriteString("mixin(")
	for i, s := range m.Mixins {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s.Key())
	}
	sb.WriteByte(')')
	return sb.String()
}

// SourceCollection is an ordered list of sources used as the value of a permutation parameter.
type SourceCollection []Source

// Key returns the structural key of the whole collection.
func (c SourceCollection) Key() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, s := range c {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(s.Key())
	}
	sb.WriteByte(']')
	return sb.String()
}

// Clone returns a copy of the collection with its own backing array.
func (c SourceCollection) Clone() SourceCollection {
	out := make(SourceCollection, len(c))
	copy(out, c)
	return out
}
