package checkpoint

import (
	"testing"

	"github.com/3LIAS-MB/halosim/sim/topology"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssemble_PlacesBlocksByPartitionCoordinates(t *testing.T) {
	// GIVEN a 4x4 grid split 2x2; each rank fills its block with rank+1
	topo, err := topology.BuildGrid(4, 4, 4)
	require.NoError(t, err)
	parts := make([][]byte, 4)
	for rank := range parts {
		parts[rank] = []byte{byte(rank + 1), byte(rank + 1), byte(rank + 1), byte(rank + 1)}
	}

	// WHEN assembled
	s, err := Assemble(topo, 7, parts)
	require.NoError(t, err)

	// THEN every global cell carries its owner's value
	assert.Equal(t, 7, s.Iteration)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, byte(topo.Owner(x, y)+1), s.Cells[y*4+x], "cell (%d,%d)", x, y)
		}
	}
}

func TestAssemble_RowMajorWithinBlock(t *testing.T) {
	topo, err := topology.BuildGrid(2, 2, 4)
	require.NoError(t, err)
	// rows=2, cols=1: rank 0 owns rows 0-1, rank 1 owns rows 2-3
	s, err := Assemble(topo, 0, [][]byte{{1, 0, 0, 0}, {0, 0, 0, 1}})
	require.NoError(t, err)
	assert.True(t, s.Occupied(0, 0))
	assert.True(t, s.Occupied(1, 3))
	assert.Equal(t, 2, s.Count())
}

func TestAssemble_RejectsWrongShapes(t *testing.T) {
	topo, err := topology.BuildGrid(2, 2, 4)
	require.NoError(t, err)

	_, err = Assemble(topo, 0, [][]byte{{0, 0, 0, 0}})
	assert.Error(t, err)

	_, err = Assemble(topo, 0, [][]byte{{0, 0, 0, 0}, {0, 0}})
	assert.Error(t, err)
}
