// Package region implements the discrete SIR epidemic over a graph of
// regions, one region per worker, with infected population migrating along
// graph edges once per day.
package region

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/3LIAS-MB/halosim/sim/topology"
)

// Region is one worker's compartment state. N moves with migration flows,
// so S+I+R == N holds after every day.
type Region struct {
	ID         int
	N, S, I, R float64
	Neighbors  []int
}

// New returns the region described by spec.
func New(spec topology.RegionSpec) *Region {
	return &Region{
		ID:        spec.ID,
		N:         spec.N,
		S:         spec.S,
		I:         spec.I,
		R:         spec.R,
		Neighbors: spec.Neighbors.IDs(),
	}
}

// StepSIR advances the compartments by one day:
//
//	newly infected  = beta * S * I / N
//	newly recovered = gamma * I
//
// Negative compartments are clamped to zero, and when S+I+R drifts from N
// by more than the tolerance all three are rescaled to sum to N.
func (r *Region) StepSIR(p sim.SIRParams) {
	if r.N <= 0 {
		return
	}
	infected := p.Beta * r.S * r.I / r.N
	recovered := p.Gamma * r.I
	r.S -= infected
	r.I += infected - recovered
	r.R += recovered

	r.S = math.Max(r.S, 0)
	r.I = math.Max(r.I, 0)
	r.R = math.Max(r.R, 0)

	total := r.S + r.I + r.R
	if total > 0 && math.Abs(total-r.N) > p.Tolerance {
		f := r.N / total
		r.S *= f
		r.I *= f
		r.R *= f
	}
}

// Record snapshots the compartments for day.
func (r *Region) Record(day int) sim.Record {
	return sim.Record{Day: int32(day), S: r.S, I: r.I, R: r.R}
}

// applyOutflows removes the migrants leaving this region and returns their total.
func (r *Region) applyOutflows(out []float64) float64 {
	total := 0.0
	for _, amount := range out {
		total += amount
	}
	r.I -= total
	r.N -= total
	return total
}

// applyInflows adds migrants in neighbour-list order.
func (r *Region) applyInflows(in []float64) {
	for _, amount := range in {
		r.I += amount
		r.N += amount
	}
}

// Tracking is the epidemic summary of one region's series.
type Tracking struct {
	PeakInfection     float64
	PeakDay           int
	FirstInfectionDay int // first day with I > 0, -1 if none
	LastInfectionDay  int // last day with I >= 1, -1 if none
}

// Duration is the number of days from the first infection through the last
// day with at least one infected, or 0 when that span is empty.
func (t Tracking) Duration() int {
	if t.FirstInfectionDay < 0 || t.LastInfectionDay < t.FirstInfectionDay {
		return 0
	}
	return t.LastInfectionDay - t.FirstInfectionDay + 1
}

// Track summarises a daily series. The earliest day wins peak ties.
func Track(records []sim.Record) Tracking {
	t := Tracking{FirstInfectionDay: -1, LastInfectionDay: -1}
	if len(records) == 0 {
		return t
	}
	infected := make([]float64, len(records))
	for d, rec := range records {
		infected[d] = rec.I
		if rec.I > 0 && t.FirstInfectionDay < 0 {
			t.FirstInfectionDay = int(rec.Day)
		}
		if rec.I >= 1 {
			t.LastInfectionDay = int(rec.Day)
		}
	}
	peak := floats.MaxIdx(infected)
	t.PeakInfection = infected[peak]
	t.PeakDay = int(records[peak].Day)
	return t
}
