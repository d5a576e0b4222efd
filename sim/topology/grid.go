// Package topology partitions a simulation domain across a fixed set of
// workers: a 2D Cartesian block decomposition for grid models and an
// explicit neighbour graph for region models. Topologies are immutable once
// built.
package topology

import (
	"fmt"

	"github.com/3LIAS-MB/halosim/sim"
)

// NoNeighbor marks a side of a grid partition that lies on the domain edge.
const NoNeighbor = -1

// Side indexes GridPartition.Neighbors.
type Side int

const (
	North Side = iota
	South
	West
	East
)

// Sides lists every side in exchange order.
var Sides = [4]Side{North, South, West, East}

// Opposite returns the side facing s across a partition boundary.
func (s Side) Opposite() Side {
	switch s {
	case North:
		return South
	case South:
		return North
	case West:
		return East
	default:
		return West
	}
}

func (s Side) String() string {
	switch s {
	case North:
		return "north"
	case South:
		return "south"
	case West:
		return "west"
	case East:
		return "east"
	}
	return fmt.Sprintf("side(%d)", int(s))
}

// GridPartition is one worker's rectangular block of the global grid.
type GridPartition struct {
	Rank      int
	Row, Col  int // coordinates in the process grid
	OriginX   int // global column of the block's first interior cell
	OriginY   int // global row of the block's first interior cell
	Width     int
	Height    int
	Neighbors [4]int // indexed by Side; NoNeighbor on domain edges
}

// HasNeighbor reports whether side s borders another partition.
func (p GridPartition) HasNeighbor(s Side) bool {
	return p.Neighbors[s] != NoNeighbor
}

// Contains reports whether the global cell (x, y) is inside this block.
func (p GridPartition) Contains(x, y int) bool {
	return x >= p.OriginX && x < p.OriginX+p.Width && y >= p.OriginY && y < p.OriginY+p.Height
}

// GridTopology is the Cartesian decomposition of a Width x Height grid over
// Rows x Cols workers. Ranks are assigned row-major.
type GridTopology struct {
	Width, Height int
	Rows, Cols    int
	Partitions    []GridPartition // indexed by rank
}

// Dims factors workers into a rows x cols process grid as square as
// possible, with rows >= cols.
func Dims(workers int) (rows, cols int) {
	cols = 1
	for c := 1; c*c <= workers; c++ {
		if workers%c == 0 {
			cols = c
		}
	}
	return workers / cols, cols
}

// BuildGrid decomposes a width x height grid over workers partitions.
// The block size must divide the grid exactly in both directions.
func BuildGrid(workers, width, height int) (*GridTopology, error) {
	if workers < 1 {
		return nil, sim.NewConfigError("workers must be >= 1, got %d", workers)
	}
	if width < 1 || height < 1 {
		return nil, sim.NewConfigError("grid dimensions must be positive, got %dx%d", width, height)
	}
	rows, cols := Dims(workers)
	if width%cols != 0 {
		return nil, sim.NewConfigError("width %d is not divisible by %d process columns", width, cols)
	}
	if height%rows != 0 {
		return nil, sim.NewConfigError("height %d is not divisible by %d process rows", height, rows)
	}

	bw, bh := width/cols, height/rows
	t := &GridTopology{
		Width: width, Height: height,
		Rows: rows, Cols: cols,
		Partitions: make([]GridPartition, workers),
	}
	for rank := range t.Partitions {
		row, col := rank/cols, rank%cols
		t.Partitions[rank] = GridPartition{
			Rank:    rank,
			Row:     row,
			Col:     col,
			OriginX: col * bw,
			OriginY: row * bh,
			Width:   bw,
			Height:  bh,
			Neighbors: [4]int{
				North: t.RankAt(row-1, col),
				South: t.RankAt(row+1, col),
				West:  t.RankAt(row, col-1),
				East:  t.RankAt(row, col+1),
			},
		}
	}
	return t, nil
}

// Size returns the number of partitions.
func (t *GridTopology) Size() int {
	return len(t.Partitions)
}

// RankAt returns the rank at process-grid coordinates, or NoNeighbor when
// the coordinates fall outside the (non-periodic) process grid.
func (t *GridTopology) RankAt(row, col int) int {
	if row < 0 || row >= t.Rows || col < 0 || col >= t.Cols {
		return NoNeighbor
	}
	return row*t.Cols + col
}

// Owner returns the rank whose block contains global cell (x, y), or
// NoNeighbor when (x, y) is outside the grid.
func (t *GridTopology) Owner(x, y int) int {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return NoNeighbor
	}
	bw, bh := t.Width/t.Cols, t.Height/t.Rows
	return t.RankAt(y/bh, x/bw)
}
