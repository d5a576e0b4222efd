package region

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/3LIAS-MB/halosim/sim/checkpoint"
	"github.com/3LIAS-MB/halosim/sim/internal/testutil"
	"github.com/3LIAS-MB/halosim/sim/topology"
	"github.com/3LIAS-MB/halosim/sim/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustGraph(t *testing.T, input string) *topology.GraphTopology {
	t.Helper()
	g, err := topology.ParseGraph(strings.NewReader(input), 0, topology.DefaultMaxNeighbors)
	require.NoError(t, err)
	return g
}

func testConfig() sim.RegionConfig {
	cfg := sim.DefaultRegionConfig()
	cfg.Days = 60
	return cfg
}

func TestRun_TwoRegionSpread(t *testing.T) {
	// GIVEN region 0 with one infected and certain movement
	g := mustGraph(t, "1000 999 1 0 1\n1000 1000 0 0 0\n")
	cfg := testConfig()
	cfg.Days = 5
	cfg.Migration.ProbMov = 1

	res, err := Run(context.Background(), cfg, g, Options{})
	require.NoError(t, err)

	// THEN region 1 is infected by day 1
	require.Len(t, res.Series, 2)
	require.Len(t, res.Series[1].Records, 6)
	assert.Zero(t, res.Series[1].Records[0].I)
	assert.Greater(t, res.Series[1].Records[1].I, 0.0)
	assert.Equal(t, 1, res.Summaries[1].FirstInfectionDay)
}

func TestRun_SeriesShapeAndInvariants(t *testing.T) {
	g := testutil.LoadRegionFixture(t, "ring5.txt")
	cfg := testConfig()

	res, err := Run(context.Background(), cfg, g, Options{})
	require.NoError(t, err)

	require.Len(t, res.Series, 5)
	for i, s := range res.Series {
		assert.Equal(t, i, s.Region)
		require.Len(t, s.Records, cfg.Days+1)
		for d, rec := range s.Records {
			assert.Equal(t, int32(d), rec.Day)
			assert.GreaterOrEqual(t, rec.S, 0.0)
			assert.GreaterOrEqual(t, rec.I, 0.0)
			assert.GreaterOrEqual(t, rec.R, 0.0)
		}
	}
	require.Len(t, res.Summaries, 5)
	assert.Equal(t, 0, res.Summaries[0].FirstInfectionDay)
}

func TestRun_TotalPopulationConserved(t *testing.T) {
	g := testutil.LoadRegionFixture(t, "ring5.txt")
	cfg := testConfig()
	cfg.Migration.Policy = sim.MigrationProportional
	cfg.Migration.ProbMov = 0.3

	res, err := Run(context.Background(), cfg, g, Options{})
	require.NoError(t, err)

	assert.InDelta(t, 4500.0, testutil.TotalPopulation(res.Series, 0), 1e-9)
	testutil.AssertPopulationConserved(t, res.Series, 1e-8)
}

func TestRun_StarGraph_HubInfectsEveryLeaf(t *testing.T) {
	// GIVEN a hub seeded with infection and certain movement to three leaves
	g := testutil.LoadRegionFixture(t, "star4.txt")
	cfg := testConfig()
	cfg.Migration.ProbMov = 1

	// WHEN the run completes
	res, err := Run(context.Background(), cfg, g, Options{})
	require.NoError(t, err)

	// THEN every leaf is infected on day 1 and population is conserved
	for leaf := 1; leaf <= 3; leaf++ {
		assert.Equal(t, 1, res.Summaries[leaf].FirstInfectionDay, "leaf %d", leaf)
	}
	testutil.AssertPopulationConserved(t, res.Series, 1e-8)
}

func TestRun_SequentialMatchesParallel(t *testing.T) {
	for _, policy := range []string{sim.MigrationStochastic, sim.MigrationProportional} {
		t.Run(policy, func(t *testing.T) {
			g := testutil.LoadRegionFixture(t, "ring5.txt")
			cfg := testConfig()
			cfg.Migration.Policy = policy

			par, err := Run(context.Background(), cfg, g, Options{})
			require.NoError(t, err)
			cfg.Sequential = true
			seq, err := Run(context.Background(), cfg, g, Options{})
			require.NoError(t, err)

			assert.Equal(t, ModeParallel, par.Mode)
			assert.Equal(t, ModeSequential, seq.Mode)
			assert.Equal(t, par.Series, seq.Series)
		})
	}
}

func TestRun_SameSeedSameSeries(t *testing.T) {
	g := testutil.LoadRegionFixture(t, "ring5.txt")
	a, err := Run(context.Background(), testConfig(), g, Options{})
	require.NoError(t, err)
	b, err := Run(context.Background(), testConfig(), g, Options{})
	require.NoError(t, err)
	assert.Equal(t, a.Series, b.Series)
}

func TestRun_WritesOutputs(t *testing.T) {
	dir := t.TempDir()
	opts := Options{
		ResultsPath: filepath.Join(dir, "results.csv"),
		ReportPath:  filepath.Join(dir, "summary.txt"),
		PlotPath:    filepath.Join(dir, "sir.png"),
	}
	g := testutil.LoadRegionFixture(t, "ring5.txt")
	cfg := testConfig()
	cfg.CSVStyle = sim.CSVVerbose

	res, err := Run(context.Background(), cfg, g, opts)
	require.NoError(t, err)

	f, err := os.Open(opts.ResultsPath)
	require.NoError(t, err)
	defer f.Close()
	series, err := checkpoint.ReadResults(f)
	require.NoError(t, err)
	require.Len(t, series, 5)
	assert.Len(t, series[4].Records, cfg.Days+1)
	assert.InDelta(t, res.Series[4].Records[cfg.Days].I, series[4].Records[cfg.Days].I, 1e-4)

	report, err := os.ReadFile(opts.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(report), " - Regions: 5\n")
	assert.Contains(t, string(report), " - Mode: parallel\n")

	info, err := os.Stat(opts.PlotPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRun_TraceCountsFlows(t *testing.T) {
	g := testutil.LoadRegionFixture(t, "ring5.txt")
	cfg := testConfig()
	cfg.Days = 4

	res, err := Run(context.Background(), cfg, g, Options{Trace: trace.TraceConfig{Level: trace.TraceLevelMessages}})
	require.NoError(t, err)

	// 5 regions x 2 neighbours x 4 days of flows, plus 4 series messages
	require.NotNil(t, res.Trace)
	assert.Equal(t, 44, res.Trace.TotalMessages)
}

func TestRun_IsolatedRegion(t *testing.T) {
	g := mustGraph(t, "100 90 10 0\n")
	res, err := Run(context.Background(), testConfig(), g, Options{})
	require.NoError(t, err)
	last := res.Series[0].Records[testConfig().Days]
	assert.InDelta(t, 100.0, last.S+last.I+last.R, 1e-4)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Migration.ProbMov = 2
	_, err := Run(context.Background(), cfg, testutil.LoadRegionFixture(t, "ring5.txt"), Options{})
	assert.Error(t, err)
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := testConfig()
	cfg.Days = 10000
	_, err := Run(ctx, cfg, testutil.LoadRegionFixture(t, "ring5.txt"), Options{})
	assert.Error(t, err)
}
