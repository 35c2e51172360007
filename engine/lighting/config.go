package lighting

import (
	"fmt"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-lighting/common"
	"github.com/pelletier/go-toml/v2"
)

// LightSelection decides which lights an object receives when more lights touch it than its
// light group can hold.
type LightSelection string

const (
	// SelectNearest keeps the lights closest to the object's center.
	SelectNearest LightSelection = "nearest"
	// SelectFirst keeps the lights in view order.
	SelectFirst LightSelection = "first"
)

// Config holds the tunables of the forward lighting pipeline. Zero fields take their default.
type Config struct {
	// MaxDirectionalLights caps the directional lights of one shader group.
	MaxDirectionalLights int `toml:"max_directional_lights"`
	// MaxPointLights caps the point lights applied to one draw.
	MaxPointLights int `toml:"max_point_lights"`
	// MaxSpotLights caps the spot lights applied to one draw.
	MaxSpotLights int `toml:"max_spot_lights"`
	// PrepareWorkers is the number of workers used for per-draw parameter preparation.
	PrepareWorkers int `toml:"prepare_workers"`
	// ParallelThreshold is the number of render nodes of a view from which per-draw
	// preparation is spread over the workers.
	ParallelThreshold int `toml:"parallel_threshold"`
	// StrictLayoutConsistency makes Prepare fail when two effects of a view disagree on the
	// lighting layout. When false the view is skipped with a warning.
	StrictLayoutConsistency *bool `toml:"strict_layout_consistency"`
	// DrawLightSelection is "nearest" or "first".
	DrawLightSelection LightSelection `toml:"draw_light_selection"`
	// Profiling enables per-phase timing reports.
	Profiling bool `toml:"profiling"`
}

// DefaultConfig returns the configuration used when none is given.
//
// Returns:
//   - Config: the defaults
func DefaultConfig() Config {
	strict := true
	return Config{
		MaxDirectionalLights:    8,
		MaxPointLights:          8,
		MaxSpotLights:           8,
		PrepareWorkers:          runtime.NumCPU(),
		ParallelThreshold:       64,
		StrictLayoutConsistency: &strict,
		DrawLightSelection:      SelectNearest,
	}
}

// ParseConfig decodes a TOML document into a Config and fills unset fields with defaults.
//
// Parameters:
//   - data: the TOML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if decoding fails or a value is out of range
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("failed to parse lighting config: %w", err)
	}
	c = c.withDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LoadConfig reads and parses a TOML configuration file.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the decoded configuration
//   - error: error if the file cannot be read or parsed
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read lighting config %s: %w", path, err)
	}
	c, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Validate reports the first invalid field.
//
// Returns:
//   - error: nil if the configuration is usable
func (c Config) Validate() error {
	for name, v := range map[string]int{
		"max_directional_lights": c.MaxDirectionalLights,
		"max_point_lights":       c.MaxPointLights,
		"max_spot_lights":        c.MaxSpotLights,
		"prepare_workers":        c.PrepareWorkers,
		"parallel_threshold":     c.ParallelThreshold,
	} {
		if v < 0 {
			return fmt.Errorf("invalid lighting config: %s must not be negative, got %d", name, v)
		}
	}
	switch c.DrawLightSelection {
	case SelectNearest, SelectFirst, "":
	default:
		return fmt.Errorf("invalid lighting config: unknown draw_light_selection %q", c.DrawLightSelection)
	}
	return nil
}

// Strict reports whether layout mismatches are returned as errors.
func (c Config) Strict() bool {
	return c.StrictLayoutConsistency == nil || *c.StrictLayoutConsistency
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	c.MaxDirectionalLights = common.Coalesce(c.MaxDirectionalLights, d.MaxDirectionalLights)
	c.MaxPointLights = common.Coalesce(c.MaxPointLights, d.MaxPointLights)
	c.MaxSpotLights = common.Coalesce(c.MaxSpotLights, d.MaxSpotLights)
	c.PrepareWorkers = common.Coalesce(c.PrepareWorkers, d.PrepareWorkers)
	c.ParallelThreshold = common.Coalesce(c.ParallelThreshold, d.ParallelThreshold)
	c.StrictLayoutConsistency = common.Coalesce(c.StrictLayoutConsistency, d.StrictLayoutConsistency)
	c.DrawLightSelection = common.Coalesce(c.DrawLightSelection, d.DrawLightSelection)
	return c
}
