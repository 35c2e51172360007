package shader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-lighting/engine/parameter"
)

// PermutationValidator accumulates the permutation parameters an effect is asked to compile with
// during one frame. The effect compiler compares the result against the previous frame to decide
// whether a new shader variant is needed.
type PermutationValidator interface {
	// BeginEffectValidation starts a new validation pass and forgets every parameter registered
	// by the previous one.
	BeginEffectValidation()

	// ValidateParameter registers a permutation parameter value.
	//
	// Parameters:
	//   - key: the permutation parameter
	//   - value: the value the effect must be compiled with
	ValidateParameter(key parameter.Key, value any)

	// Value returns the value registered for key during the current pass.
	//
	// Returns:
	//   - any: the value
	//   - bool: whether the key was registered
	Value(key parameter.Key) (any, bool)

	// Keys returns the registered keys in registration order.
	Keys() []parameter.Key

	// EndEffectValidation reports whether the set of registered values differs from the one
	// recorded at the end of the previous pass.
	//
	// Returns:
	//   - bool: true if the effect must be recompiled
	EndEffectValidation() bool
}

type permutationValidatorImpl struct {
	keys     []parameter.Key
	values   map[parameter.Key]any
	previous map[parameter.Key]string
}

var _ PermutationValidator = &permutationValidatorImpl{}

// NewPermutationValidator creates an empty validator.
func NewPermutationValidator() PermutationValidator {
	return &permutationValidatorImpl{
		values:   make(map[parameter.Key]any),
		previous: make(map[parameter.Key]string),
	}
}

func (v *permutationValidatorImpl) BeginEffectValidation() {
	v.keys = v.keys[:0]
	clear(v.values)
}

func (v *permutationValidatorImpl) ValidateParameter(key parameter.Key, value any) {
	if _, ok := v.values[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.values[key] = value
}

func (v *permutationValidatorImpl) Value(key parameter.Key) (any, bool) {
	val, ok := v.values[key]
	return val, ok
}

func (v *permutationValidatorImpl) Keys() []parameter.Key {
	return v.keys
}

func (v *permutationValidatorImpl) EndEffectValidation() bool {
	changed := len(v.previous) != len(v.values)
	for k, val := range v.values {
		s := valueKey(val)
		if prev, ok := v.previous[k]; !ok || prev != s {
			changed = true
		}
	}
	if changed {
		clear(v.previous)
		for k, val := range v.values {
			v.previous[k] = valueKey(val)
		}
	}
	return changed
}

func valueKey(val any) string {
	switch x := val.(type) {
	case Source:
		return x.Key()
	case SourceCollection:
		return x.Key()
	default:
		return fmt.Sprintf("%T:%v", val, val)
	}
}
