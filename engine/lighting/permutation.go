package lighting

import (
	"github.com/Carmen-Shannon/oxy-lighting/engine/shader"
)

// LightShaderPermutationEntry is the lighting permutation of the current frame: the light groups
// in the order they are composed into the shader and the shader sources they contribute.
type LightShaderPermutationEntry struct {
	DirectLightGroups []LightShaderGroup
	EnvironmentLights []LightShaderGroup

	// PermutationLightGroups lists the groups that register extra effect permutation parameters.
	PermutationLightGroups []LightShaderGroup

	DirectLightShaders      shader.SourceCollection
	EnvironmentLightShaders shader.SourceCollection
}

// Reset empties the entry and keeps its storage.
func (e *LightShaderPermutationEntry) Reset() {
	clear(e.DirectLightGroups)
	e.DirectLightGroups = e.DirectLightGroups[:0]
	clear(e.EnvironmentLights)
	e.EnvironmentLights = e.EnvironmentLights[:0]
	clear(e.PermutationLightGroups)
	e.PermutationLightGroups = e.PermutationLightGroups[:0]
	e.DirectLightShaders = nil
	e.EnvironmentLightShaders = nil
}

// sourceCache hands out one immutable SourceCollection per distinct structural key.
type sourceCache struct {
	collections map[string]shader.SourceCollection
}

func newSourceCache() *sourceCache {
	return &sourceCache{collections: make(map[string]shader.SourceCollection)}
}

// readonly returns the cached collection equal to c, storing a copy of c on a miss.
func (s *sourceCache) readonly(c shader.SourceCollection) shader.SourceCollection {
	key := c.Key()
	if cached, ok := s.collections[key]; ok {
		return cached
	}
	Logger().Debug("lighting: new shader source collection", "key", key)
	cached := c.Clone()
	s.collections[key] = cached
	return cached
}
