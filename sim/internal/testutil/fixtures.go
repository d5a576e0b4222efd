// Package testutil provides shared test infrastructure for the halosim
// packages: region graph fixtures from testdata/ and tolerance assertions.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/3LIAS-MB/halosim/sim/checkpoint"
	"github.com/3LIAS-MB/halosim/sim/topology"
)

// RegionFixturePath returns the path of testdata/regions/<name>.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func RegionFixturePath(t *testing.T, name string) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "regions", name)
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Failed to find region fixture: %v", err)
	}
	return path
}

// LoadRegionFixture parses testdata/regions/<name> with one worker per line.
func LoadRegionFixture(t *testing.T, name string) *topology.GraphTopology {
	t.Helper()
	g, err := topology.LoadGraph(RegionFixturePath(t, name), 0, topology.DefaultMaxNeighbors)
	if err != nil {
		t.Fatalf("Failed to load region fixture %s: %v", name, err)
	}
	return g
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// TotalPopulation sums S+I+R over every series on the given day.
func TotalPopulation(series []checkpoint.RegionSeries, day int) float64 {
	sum := 0.0
	for _, s := range series {
		r := s.Records[day]
		sum += r.S + r.I + r.R
	}
	return sum
}

// AssertPopulationConserved checks that the total population of every day
// matches day 0 within relTol.
func AssertPopulationConserved(t *testing.T, series []checkpoint.RegionSeries, relTol float64) {
	t.Helper()
	if len(series) == 0 {
		return
	}
	initial := TotalPopulation(series, 0)
	for day := 1; day < len(series[0].Records); day++ {
		AssertFloat64Equal(t, "total population", initial, TotalPopulation(series, day), relTol)
	}
}
