package lighting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		check   func(t *testing.T, c Config)
		wantErr string
	}{
		{
			name: "defaults",
			doc:  "",
			check: func(t *testing.T, c Config) {
				assert.Equal(t, 8, c.MaxPointLights)
				assert.Equal(t, SelectNearest, c.DrawLightSelection)
				assert.True(t, c.Strict())
				assert.Positive(t, c.PrepareWorkers)
			},
		},
		{
			name: "overrides",
			doc: `
max_point_lights = 4
max_spot_lights = 2
prepare_workers = 3
parallel_threshold = 16
strict_layout_consistency = false
draw_light_selection = "first"
profiling = true
`,
			check: func(t *testing.T, c Config) {
				assert.Equal(t, 4, c.MaxPointLights)
				assert.Equal(t, 2, c.MaxSpotLights)
				assert.Equal(t, 8, c.MaxDirectionalLights)
				assert.Equal(t, 3, c.PrepareWorkers)
				assert.Equal(t, 16, c.ParallelThreshold)
				assert.False(t, c.Strict())
				assert.Equal(t, SelectFirst, c.DrawLightSelection)
				assert.True(t, c.Profiling)
			},
		},
		{name: "negative", doc: "max_point_lights = -1", wantErr: "max_point_lights must not be negative"},
		{name: "unknown selection", doc: `draw_light_selection = "random"`, wantErr: "unknown draw_light_selection"},
		{name: "malformed", doc: "max_point_lights = ", wantErr: "failed to parse lighting config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseConfig([]byte(tt.doc))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lighting.toml")
	require.NoError(t, os.WriteFile(path, []byte("max_directional_lights = 2\n"), 0o644))
	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.MaxDirectionalLights)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read lighting config")
}

func TestFeatureUsesConfiguredLimits(t *testing.T) {
	f := NewForwardLightingRenderFeature(WithConfig(Config{MaxSpotLights: 3, PrepareWorkers: 1}))
	defer f.Release()
	assert.Equal(t, 3, f.Config().MaxSpotLights)
	assert.Equal(t, 8, f.Config().MaxPointLights)
	assert.True(t, f.Config().Strict())
}
