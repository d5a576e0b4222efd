// Package checkpoint turns aggregated simulation state into files: grid
// snapshots (PGM, MJPEG), the grid metrics log, region result series, the
// summary report and PNG plots.
package checkpoint

import (
	"fmt"

	"github.com/3LIAS-MB/halosim/sim/topology"
)

// Snapshot is the global grid at one iteration, assembled at the
// coordinator. Cells holds one byte per cell, row-major; non-zero is occupied.
type Snapshot struct {
	Iteration     int
	Width, Height int
	Cells         []byte
}

// Occupied reports whether global cell (x, y) is occupied.
func (s *Snapshot) Occupied(x, y int) bool {
	return s.Cells[y*s.Width+x] != 0
}

// Count returns the number of occupied cells.
func (s *Snapshot) Count() int {
	n := 0
	for _, c := range s.Cells {
		if c != 0 {
			n++
		}
	}
	return n
}

// Assemble places each rank's packed interior block at its partition's
// origin. parts must hold exactly one block per rank, indexed by rank.
func Assemble(topo *topology.GridTopology, iteration int, parts [][]byte) (*Snapshot, error) {
	if len(parts) != topo.Size() {
		return nil, fmt.Errorf("assemble: got %d blocks for %d partitions", len(parts), topo.Size())
	}
	s := &Snapshot{
		Iteration: iteration,
		Width:     topo.Width,
		Height:    topo.Height,
		Cells:     make([]byte, topo.Width*topo.Height),
	}
	for rank, block := range parts {
		p := topo.Partitions[rank]
		if len(block) != p.Width*p.Height {
			return nil, fmt.Errorf("assemble: rank %d sent %d cells, want %d", rank, len(block), p.Width*p.Height)
		}
		for row := 0; row < p.Height; row++ {
			dst := (p.OriginY+row)*s.Width + p.OriginX
			copy(s.Cells[dst:dst+p.Width], block[row*p.Width:(row+1)*p.Width])
		}
	}
	return s, nil
}
