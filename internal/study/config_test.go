package study

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hierframe/internal/classify"
	"github.com/roach88/hierframe/internal/frame"
	"github.com/roach88/hierframe/internal/hkey"
	"github.com/roach88/hierframe/internal/physics"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 0.0, cfg.Cut)
	assert.Equal(t, frame.LeftOuter, cfg.Cardinality)
	assert.Equal(t, hkey.Interaction, cfg.LiftDepth)
	assert.Equal(t, physics.SBNDFiducial, cfg.Fiducial)
	assert.False(t, cfg.TruthColumns)

	cfg.Name = "kmc"
	cfg.Outputs = []Output{{Name: "kmc", Builder: KindAntinu}, {Name: "hdr", Builder: KindHeader}}
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   string
	}{
		{"missing name", func(c *Config) { c.Name = "" }, "name is required"},
		{"no outputs", func(c *Config) { c.Outputs = nil }, "at least one output"},
		{"unknown builder", func(c *Config) { c.Outputs[0].Builder = "pion" }, `unknown builder "pion"`},
		{"duplicate output", func(c *Config) { c.Outputs = append(c.Outputs, c.Outputs[0]) }, `duplicate output "kmc"`},
		{"negative cut", func(c *Config) { c.Cut = -1 }, "cut_value -1 is negative"},
		{"lift too deep", func(c *Config) { c.LiftDepth = hkey.Primary }, "lift_to_depth 3"},
		{"same markers", func(c *Config) { c.Markers = [2]string{"a", "a"} }, "marker_values"},
		{"bad box", func(c *Config) { c.Fiducial.Min[0] = 500 }, "min"},
		{"signals on header", func(c *Config) {
			c.Outputs = []Output{{Name: "hdr", Builder: KindHeader, Signals: AntinuSignals()}}
		}, "takes no signals"},
		{"duplicate signal", func(c *Config) {
			c.Outputs[0].Signals = append(AntinuSignals(), AntinuSignals()...)
		}, "duplicate signal is_signal"},
		{"bad true type", func(c *Config) {
			c.Outputs[0].TrueType = &classify.TrueType{Out: frame.Col("tt", "")}
		}, "no categories"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.Name = "kmc"
			cfg.Outputs = []Output{{Name: "kmc", Builder: KindAntinu}}
			tt.modify(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDefaultCategorySets(t *testing.T) {
	for _, tt := range []*classify.TrueType{AntinuTrueType(), KaonTrueType()} {
		require.NoError(t, tt.Validate())
		assert.Equal(t, TagCosmic, tt.Fallback)
	}
	assert.Equal(t, "Signal", AntinuTrueType().Label(TagSignal))
	assert.Equal(t, "UNKNOWN", AntinuTrueType().Label("UNKNOWN"))
}
