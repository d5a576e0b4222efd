package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGridConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultGridConfig().Validate())
}

func TestDefaultRegionConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultRegionConfig().Validate())
}

func TestGridConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GridConfig)
		want   string
	}{
		{"zero workers", func(c *GridConfig) { c.Workers = 0 }, "workers"},
		{"zero width", func(c *GridConfig) { c.Width = 0 }, "dimensions"},
		{"negative iterations", func(c *GridConfig) { c.Iterations = -1 }, "iterations"},
		{"zero interval", func(c *GridConfig) { c.OutputInterval = 0 }, "interval"},
		{"unknown rule", func(c *GridConfig) { c.Rule = "life" }, "unknown grid rule"},
		{"negative death", func(c *GridConfig) { c.Probs.Death = -0.1 }, "death"},
		{"division above one", func(c *GridConfig) { c.Probs.Division = 1.5 }, "division"},
		{"NaN growth", func(c *GridConfig) { c.Probs.Growth = math.NaN() }, "growth"},
		{"infinite threshold", func(c *GridConfig) { c.Probs.Threshold = math.Inf(1) }, "threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGridConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr), "validation failures are ConfigErrors")
		})
	}
}

func TestGridConfig_Validate_BandsNeedNotSumToOne(t *testing.T) {
	// GIVEN bands whose total exceeds 1
	cfg := DefaultGridConfig()
	cfg.Probs = GrowthProbs{Death: 0.5, Migration: 0.5, Division: 0.9}

	// THEN the configuration is still accepted
	assert.NoError(t, cfg.Validate())
}

func TestRegionConfig_Validate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegionConfig)
		want   string
	}{
		{"negative workers", func(c *RegionConfig) { c.Workers = -2 }, "workers"},
		{"negative days", func(c *RegionConfig) { c.Days = -1 }, "days"},
		{"negative beta", func(c *RegionConfig) { c.SIR.Beta = -0.8 }, "beta"},
		{"infinite gamma", func(c *RegionConfig) { c.SIR.Gamma = math.Inf(1) }, "gamma"},
		{"zero tolerance", func(c *RegionConfig) { c.SIR.Tolerance = 0 }, "tolerance"},
		{"unknown policy", func(c *RegionConfig) { c.Migration.Policy = "random" }, "migration policy"},
		{"prob_mov above one", func(c *RegionConfig) { c.Migration.ProbMov = 2 }, "prob_mov"},
		{"negative transmission", func(c *RegionConfig) { c.Migration.Transmission = -1 }, "transmission"},
		{"zero max neighbors", func(c *RegionConfig) { c.MaxNeighbors = 0 }, "max neighbors"},
		{"unknown csv style", func(c *RegionConfig) { c.CSVStyle = "tsv" }, "csv style"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRegionConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
