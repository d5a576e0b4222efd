// Package grid implements the 2D cellular growth models: one worker owns a
// rectangular block of the global grid surrounded by a one-cell halo that
// mirrors its neighbours' edges.
package grid

import (
	"fmt"

	"github.com/3LIAS-MB/halosim/sim/topology"
)

// CellState is the content of one grid cell.
type CellState uint8

const (
	Empty    CellState = 0
	Occupied CellState = 1
)

// Halo is the margin width around a block's interior.
const Halo = 1

// Block is one partition's cells, stored row-major with the halo included.
// Local coordinates (i, j) run over [0, Height+2) x [0, Width+2); the
// interior is [1, Height] x [1, Width].
//
// Writes into a non-corner halo cell on a side with a neighbour are claims:
// the cell is marked occupied locally and the placement is forwarded to the
// owning partition at the next exchange.
type Block struct {
	part   topology.GridPartition
	stride int
	cells  []CellState
	claims [4][]CellState // indexed by topology.Side, one entry per edge cell
}

// NewBlock returns an empty block for part.
func NewBlock(part topology.GridPartition) *Block {
	b := &Block{
		part:   part,
		stride: part.Width + 2*Halo,
		cells:  make([]CellState, (part.Width+2*Halo)*(part.Height+2*Halo)),
	}
	for _, s := range topology.Sides {
		b.claims[s] = make([]CellState, b.edgeLen(s))
	}
	return b
}

// Partition returns the partition this block covers.
func (b *Block) Partition() topology.GridPartition { return b.part }

// Width returns the interior width.
func (b *Block) Width() int { return b.part.Width }

// Height returns the interior height.
func (b *Block) Height() int { return b.part.Height }

// At returns the cell at local coordinates (i, j).
func (b *Block) At(i, j int) CellState {
	return b.cells[i*b.stride+j]
}

// Set writes the cell at local coordinates (i, j) without claim tracking.
func (b *Block) Set(i, j int, s CellState) {
	b.cells[i*b.stride+j] = s
}

// IsInterior reports whether local (i, j) is an interior cell.
func (b *Block) IsInterior(i, j int) bool {
	return i >= Halo && i <= b.part.Height && j >= Halo && j <= b.part.Width
}

// haloSide returns the side of a non-corner halo cell, or false for interior,
// corner and out-of-range coordinates.
func (b *Block) haloSide(i, j int) (topology.Side, bool) {
	h, w := b.part.Height, b.part.Width
	rowInside := i >= Halo && i <= h
	colInside := j >= Halo && j <= w
	switch {
	case i == 0 && colInside:
		return topology.North, true
	case i == h+1 && colInside:
		return topology.South, true
	case j == 0 && rowInside:
		return topology.West, true
	case j == w+1 && rowInside:
		return topology.East, true
	}
	return 0, false
}

// IsValidTarget reports whether a rule may place an occupant at local (i, j):
// any interior cell, or a non-corner halo cell on a side with a neighbour.
func (b *Block) IsValidTarget(i, j int) bool {
	if b.IsInterior(i, j) {
		return true
	}
	side, ok := b.haloSide(i, j)
	return ok && b.part.HasNeighbor(side)
}

// Place marks local (i, j) occupied. Placing into a halo cell records a claim
// for the owning neighbour. Callers must check IsValidTarget first.
func (b *Block) Place(i, j int) {
	b.Set(i, j, Occupied)
	if side, ok := b.haloSide(i, j); ok {
		b.claims[side][b.edgeIndex(side, i, j)] = Occupied
	}
}

// SetGlobal writes the cell at global coordinates (x, y) if this block owns
// it, reporting whether it did.
func (b *Block) SetGlobal(x, y int, s CellState) bool {
	if !b.part.Contains(x, y) {
		return false
	}
	b.Set(y-b.part.OriginY+Halo, x-b.part.OriginX+Halo, s)
	return true
}

// Global converts local (i, j) to global (x, y).
func (b *Block) Global(i, j int) (x, y int) {
	return b.part.OriginX + j - Halo, b.part.OriginY + i - Halo
}

// CountOccupied returns the number of occupied interior cells.
func (b *Block) CountOccupied() int {
	n := 0
	for i := Halo; i <= b.part.Height; i++ {
		row := b.cells[i*b.stride+Halo : i*b.stride+Halo+b.part.Width]
		for _, c := range row {
			if c == Occupied {
				n++
			}
		}
	}
	return n
}

// PackInterior returns the interior cells row-major, one byte per cell.
func (b *Block) PackInterior() []byte {
	out := make([]byte, 0, b.part.Width*b.part.Height)
	for i := Halo; i <= b.part.Height; i++ {
		for _, c := range b.cells[i*b.stride+Halo : i*b.stride+Halo+b.part.Width] {
			out = append(out, byte(c))
		}
	}
	return out
}

// Claims returns the pending claims on side s. The slice is owned by the block.
func (b *Block) Claims(s topology.Side) []CellState {
	return b.claims[s]
}

func (b *Block) clearClaims() {
	for _, s := range topology.Sides {
		clear(b.claims[s])
	}
}

func (b *Block) edgeLen(s topology.Side) int {
	if s == topology.North || s == topology.South {
		return b.part.Width
	}
	return b.part.Height
}

// edgeIndex maps local (i, j) on or next to side s to its position along the edge.
func (b *Block) edgeIndex(s topology.Side, i, j int) int {
	if s == topology.North || s == topology.South {
		return j - Halo
	}
	return i - Halo
}

// edgeCoords returns the local coordinates of the k-th cell of the interior
// edge row/column (halo == false) or of the halo row/column (halo == true)
// on side s.
func (b *Block) edgeCoords(s topology.Side, k int, halo bool) (i, j int) {
	h, w := b.part.Height, b.part.Width
	switch s {
	case topology.North:
		if halo {
			return 0, k + Halo
		}
		return Halo, k + Halo
	case topology.South:
		if halo {
			return h + 1, k + Halo
		}
		return h, k + Halo
	case topology.West:
		if halo {
			return k + Halo, 0
		}
		return k + Halo, Halo
	case topology.East:
		if halo {
			return k + Halo, w + 1
		}
		return k + Halo, w
	}
	panic(fmt.Sprintf("grid: invalid side %d", s))
}

// packSide writes the message for side s into dst: the interior edge facing
// s followed by the claims on s. dst must be 2*edgeLen(s) long.
func (b *Block) packSide(s topology.Side, dst []byte) {
	n := b.edgeLen(s)
	for k := 0; k < n; k++ {
		i, j := b.edgeCoords(s, k, false)
		dst[k] = byte(b.At(i, j))
		dst[n+k] = byte(b.claims[s][k])
	}
}

// unpackSide applies a neighbour's message received on side s. The edge part
// overwrites the halo, then this block's own claims on s are kept visible in
// the halo since the neighbour merges them on its side. The neighbour's
// claims are merged into the interior edge.
func (b *Block) unpackSide(s topology.Side, src []byte) {
	n := b.edgeLen(s)
	for k := 0; k < n; k++ {
		hi, hj := b.edgeCoords(s, k, true)
		state := CellState(src[k])
		if b.claims[s][k] == Occupied {
			state = Occupied
		}
		b.Set(hi, hj, state)

		if CellState(src[n+k]) == Occupied {
			ei, ej := b.edgeCoords(s, k, false)
			b.Set(ei, ej, Occupied)
		}
	}
}
