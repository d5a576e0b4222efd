package cmd

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/3LIAS-MB/halosim/sim/trace"
)

func newGridFlags(t *testing.T, args ...string) (*pflag.FlagSet, *gridRun) {
	t.Helper()
	vals := defaultGridRun()
	fs := pflag.NewFlagSet("grid", pflag.ContinueOnError)
	registerGridFlags(fs, &vals)
	require.NoError(t, fs.Parse(args))
	return fs, &vals
}

func TestResolveGridRun_NoOverrides_UsesDefaults(t *testing.T) {
	// GIVEN no run file and no flags
	fs, vals := newGridFlags(t)

	// WHEN resolved
	r, err := resolveGridRun(fs, &RunConfig{}, vals, "none")

	// THEN the built-in defaults apply
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultGridConfig(), r.Config)
	assert.Equal(t, "cancer", r.Options.SnapshotPrefix)
	assert.Equal(t, "metrics.csv", r.Options.MetricsPath)
	assert.False(t, r.Options.Trace.Enabled())
}

func TestResolveGridRun_ChangedFlagBeatsRunFile(t *testing.T) {
	// GIVEN a run file setting workers and width, and a flag overriding workers only
	workers, width := 8, 256
	rc := &RunConfig{Grid: &GridSection{Workers: &workers, Width: &width}}
	fs, vals := newGridFlags(t, "--workers=2")

	// WHEN resolved
	r, err := resolveGridRun(fs, rc, vals, "messages")

	// THEN the flag wins where set and the run file fills the rest
	require.NoError(t, err)
	assert.Equal(t, 2, r.Config.Workers)
	assert.Equal(t, 256, r.Config.Width)
	assert.Equal(t, 512, r.Config.Height)
	assert.Equal(t, trace.TraceLevelMessages, r.Options.Trace.Level)
}

func TestResolveGridRun_UnchangedFlagDoesNotClobberRunFile(t *testing.T) {
	// GIVEN a run file choosing the diffusion rule and an unrelated flag
	rule := sim.RuleDiffusion
	rc := &RunConfig{Grid: &GridSection{Rule: &rule}}
	fs, vals := newGridFlags(t, "--iterations=10")

	// WHEN resolved
	r, err := resolveGridRun(fs, rc, vals, "none")

	// THEN the flag's default for --rule does not override the run file
	require.NoError(t, err)
	assert.Equal(t, sim.RuleDiffusion, r.Config.Rule)
	assert.Equal(t, 10, r.Config.Iterations)
}

func TestResolveGridRun_InvalidValues_ReturnError(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		level string
	}{
		{"unknown rule", []string{"--rule=glider"}, "none"},
		{"probability above one", []string{"--death=1.5"}, "none"},
		{"zero workers", []string{"--workers=0"}, "none"},
		{"unknown trace level", nil, "verbose"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fs, vals := newGridFlags(t, tc.args...)
			_, err := resolveGridRun(fs, &RunConfig{}, vals, tc.level)
			assert.Error(t, err)
		})
	}
}
