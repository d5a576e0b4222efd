package grid

import (
	"math"
	"math/rand"

	"github.com/3LIAS-MB/halosim/sim"
)

// Rule advances one block by one step. Rules read the halo as the
// neighbours' state at the start of the step and never write halo cells
// except through Block.Place.
type Rule interface {
	Name() string
	Step(b *Block, rng *rand.Rand)
}

// NewRule returns the rule registered under name.
func NewRule(name string, probs sim.GrowthProbs) (Rule, error) {
	switch name {
	case sim.RuleTumor:
		return &TumorRule{Death: probs.Death, Migration: probs.Migration, Division: probs.Division}, nil
	case sim.RuleDiffusion:
		return &DiffusionRule{Growth: probs.Growth}, nil
	case sim.RuleFractal:
		return &FractalRule{Growth: probs.Growth, Threshold: probs.Threshold}, nil
	}
	return nil, sim.NewConfigError("unknown grid rule %q", name)
}

// moore lists the 8 neighbour offsets (di, dj).
var moore = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

// vonNeumann lists the 4 neighbour offsets (di, dj).
var vonNeumann = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// TumorRule is the cancer growth model. Every cell occupied at the start of
// the step acts once, in raster order, on a single uniform draw r:
// r < Death empties it, r < Death+Migration moves it to a random
// neighbour, r < Death+Migration+Division places a daughter there.
// A move or division onto an occupied or invalid target does nothing.
type TumorRule struct {
	Death, Migration, Division float64

	actors [][2]int
}

func (r *TumorRule) Name() string { return sim.RuleTumor }

func (r *TumorRule) Step(b *Block, rng *rand.Rand) {
	r.actors = r.actors[:0]
	for i := Halo; i <= b.Height(); i++ {
		for j := Halo; j <= b.Width(); j++ {
			if b.At(i, j) == Occupied {
				r.actors = append(r.actors, [2]int{i, j})
			}
		}
	}

	for _, cell := range r.actors {
		i, j := cell[0], cell[1]
		draw := rng.Float64()
		switch {
		case draw < r.Death:
			b.Set(i, j, Empty)
		case draw < r.Death+r.Migration:
			if ti, tj, ok := pickTarget(b, rng, i, j); ok {
				b.Set(i, j, Empty)
				b.Place(ti, tj)
			}
		case draw < r.Death+r.Migration+r.Division:
			if ti, tj, ok := pickTarget(b, rng, i, j); ok {
				b.Place(ti, tj)
			}
		}
	}
}

// pickTarget draws one of the 8 neighbours of (i, j) uniformly and reports
// whether it is a valid empty target.
func pickTarget(b *Block, rng *rand.Rand, i, j int) (int, int, bool) {
	d := moore[rng.Intn(len(moore))]
	ti, tj := i+d[0], j+d[1]
	if !b.IsValidTarget(ti, tj) || b.At(ti, tj) != Empty {
		return 0, 0, false
	}
	return ti, tj, true
}

// DiffusionRule is diffusion-limited growth: an empty interior cell with at
// least one occupied 4-neighbour becomes occupied with probability Growth.
type DiffusionRule struct {
	Growth float64

	prev []CellState
}

func (r *DiffusionRule) Name() string { return sim.RuleDiffusion }

func (r *DiffusionRule) Step(b *Block, rng *rand.Rand) {
	r.prev = append(r.prev[:0], b.cells...)
	for i := Halo; i <= b.Height(); i++ {
		for j := Halo; j <= b.Width(); j++ {
			if r.prev[i*b.stride+j] != Empty {
				continue
			}
			touching := false
			for _, d := range vonNeumann {
				if r.prev[(i+d[0])*b.stride+j+d[1]] == Occupied {
					touching = true
					break
				}
			}
			if touching && rng.Float64() < r.Growth {
				b.Set(i, j, Occupied)
			}
		}
	}
}

// FractalRule grows only where the fractal field exceeds Threshold. An
// empty gated cell with k occupied 8-neighbours becomes occupied with
// probability 1-(1-Growth)^k.
type FractalRule struct {
	Growth    float64
	Threshold float64

	prev []CellState
}

func (r *FractalRule) Name() string { return sim.RuleFractal }

// FractalField is the gating field at global cell (x, y).
func FractalField(x, y int) float64 {
	fx, fy := float64(x), float64(y)
	return 0.5 * (math.Sin(0.1*fy) + math.Cos(0.1*fx) + math.Sin(0.05*math.Sqrt(fx*fx+fy*fy)))
}

func (r *FractalRule) Step(b *Block, rng *rand.Rand) {
	r.prev = append(r.prev[:0], b.cells...)
	for i := Halo; i <= b.Height(); i++ {
		for j := Halo; j <= b.Width(); j++ {
			if r.prev[i*b.stride+j] != Empty {
				continue
			}
			k := 0
			for _, d := range moore {
				if r.prev[(i+d[0])*b.stride+j+d[1]] == Occupied {
					k++
				}
			}
			if k == 0 {
				continue
			}
			if x, y := b.Global(i, j); FractalField(x, y) <= r.Threshold {
				continue
			}
			if rng.Float64() < 1-math.Pow(1-r.Growth, float64(k)) {
				b.Set(i, j, Occupied)
			}
		}
	}
}
