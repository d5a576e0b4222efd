package topology

import (
	"errors"
	"testing"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDims_SquarestFactorisation(t *testing.T) {
	tests := []struct {
		workers    int
		rows, cols int
	}{
		{1, 1, 1},
		{2, 2, 1},
		{3, 3, 1},
		{4, 2, 2},
		{6, 3, 2},
		{8, 4, 2},
		{9, 3, 3},
		{12, 4, 3},
		{16, 4, 4},
	}
	for _, tt := range tests {
		rows, cols := Dims(tt.workers)
		assert.Equal(t, tt.rows, rows, "workers=%d", tt.workers)
		assert.Equal(t, tt.cols, cols, "workers=%d", tt.workers)
	}
}

func TestBuildGrid_FourWorkers(t *testing.T) {
	// GIVEN 4 workers on a 512x512 grid
	topo, err := BuildGrid(4, 512, 512)
	require.NoError(t, err)

	// THEN the process grid is 2x2 with 256x256 blocks
	assert.Equal(t, 2, topo.Rows)
	assert.Equal(t, 2, topo.Cols)
	require.Equal(t, 4, topo.Size())

	p0 := topo.Partitions[0]
	assert.Equal(t, 256, p0.Width)
	assert.Equal(t, 256, p0.Height)
	assert.Equal(t, [4]int{NoNeighbor, 2, NoNeighbor, 1}, p0.Neighbors)

	p3 := topo.Partitions[3]
	assert.Equal(t, 1, p3.Row)
	assert.Equal(t, 1, p3.Col)
	assert.Equal(t, 256, p3.OriginX)
	assert.Equal(t, 256, p3.OriginY)
	assert.Equal(t, [4]int{1, NoNeighbor, 2, NoNeighbor}, p3.Neighbors)
}

func TestBuildGrid_NeighborsAreMutual(t *testing.T) {
	topo, err := BuildGrid(12, 120, 120)
	require.NoError(t, err)
	for _, p := range topo.Partitions {
		for _, s := range Sides {
			n := p.Neighbors[s]
			if n == NoNeighbor {
				continue
			}
			assert.Equal(t, p.Rank, topo.Partitions[n].Neighbors[s.Opposite()],
				"rank %d side %s", p.Rank, s)
		}
	}
}

func TestBuildGrid_Idempotent(t *testing.T) {
	a, err := BuildGrid(6, 60, 90)
	require.NoError(t, err)
	b, err := BuildGrid(6, 60, 90)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildGrid_NonDivisibleIsConfigError(t *testing.T) {
	tests := []struct {
		name                   string
		workers, width, height int
	}{
		{"width not divisible by cols", 4, 511, 512},
		{"height not divisible by rows", 3, 30, 10},
		{"zero workers", 0, 10, 10},
		{"empty grid", 1, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildGrid(tt.workers, tt.width, tt.height)
			var cfgErr *sim.ConfigError
			assert.True(t, errors.As(err, &cfgErr), "got %v", err)
		})
	}
}

func TestBuildGrid_SingleWorkerHasNoNeighbors(t *testing.T) {
	topo, err := BuildGrid(1, 16, 16)
	require.NoError(t, err)
	for _, s := range Sides {
		assert.False(t, topo.Partitions[0].HasNeighbor(s))
	}
}

func TestGridTopology_Owner(t *testing.T) {
	topo, err := BuildGrid(4, 8, 8)
	require.NoError(t, err)

	assert.Equal(t, 0, topo.Owner(0, 0))
	assert.Equal(t, 1, topo.Owner(4, 3))
	assert.Equal(t, 2, topo.Owner(3, 4))
	assert.Equal(t, 3, topo.Owner(7, 7))
	assert.Equal(t, NoNeighbor, topo.Owner(8, 0))
	assert.True(t, topo.Partitions[topo.Owner(5, 6)].Contains(5, 6))
}

func TestSide_Opposite(t *testing.T) {
	assert.Equal(t, South, North.Opposite())
	assert.Equal(t, North, South.Opposite())
	assert.Equal(t, East, West.Opposite())
	assert.Equal(t, West, East.Opposite())
}
