package region

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/3LIAS-MB/halosim/sim/comm"
)

// TagFlow is the message tag of the daily migration exchange.
const TagFlow = 0

// Policy decides how many infected leave a region towards each neighbour.
// Outflows fills out (one entry per neighbour, in neighbour-list order) and
// never lets the total exceed r.I.
type Policy interface {
	Name() string
	Outflows(r *Region, rng *rand.Rand, out []float64)
}

// NewPolicy returns the migration policy selected by cfg.
func NewPolicy(cfg sim.MigrationConfig) (Policy, error) {
	switch cfg.Policy {
	case sim.MigrationStochastic:
		return &StochasticPolicy{ProbMov: cfg.ProbMov, Transmission: cfg.Transmission, MinSource: cfg.MinSource}, nil
	case sim.MigrationProportional:
		return &ProportionalPolicy{Fraction: cfg.ProbMov}, nil
	}
	return nil, sim.NewConfigError("unknown migration policy %q", cfg.Policy)
}

// StochasticPolicy sends Transmission*I to each neighbour independently with
// probability ProbMov, but only while I exceeds MinSource.
// One draw is consumed per neighbour every day.
type StochasticPolicy struct {
	ProbMov      float64
	Transmission float64
	MinSource    float64
}

func (p *StochasticPolicy) Name() string { return sim.MigrationStochastic }

func (p *StochasticPolicy) Outflows(r *Region, rng *rand.Rand, out []float64) {
	remaining := r.I
	for k := range out {
		move := rng.Float64() < p.ProbMov
		out[k] = 0
		if !move || r.I <= p.MinSource {
			continue
		}
		amount := min(r.I*p.Transmission, remaining)
		out[k] = amount
		remaining -= amount
	}
}

// ProportionalPolicy splits Fraction*I evenly across all neighbours.
type ProportionalPolicy struct {
	Fraction float64
}

func (p *ProportionalPolicy) Name() string { return sim.MigrationProportional }

func (p *ProportionalPolicy) Outflows(r *Region, _ *rand.Rand, out []float64) {
	if len(out) == 0 {
		return
	}
	remaining := r.I
	share := p.Fraction * r.I / float64(len(out))
	for k := range out {
		amount := min(share, remaining)
		out[k] = amount
		remaining -= amount
	}
}

// FlowExchange moves migrants between a region and its neighbours. Each flow
// is one Record whose I field carries the amount.
type FlowExchange struct {
	comm   *comm.Comm
	region *Region
	send   [][]byte
	recv   [][]byte
	in     []float64
	sends  []*comm.Request
	recvs  []*comm.Request
}

// NewFlowExchange allocates one send and one receive buffer per neighbour.
func NewFlowExchange(c *comm.Comm, r *Region) *FlowExchange {
	n := len(r.Neighbors)
	x := &FlowExchange{
		comm:   c,
		region: r,
		send:   make([][]byte, n),
		recv:   make([][]byte, n),
		in:     make([]float64, n),
		sends:  make([]*comm.Request, n),
		recvs:  make([]*comm.Request, n),
	}
	for k := 0; k < n; k++ {
		x.send[k] = make([]byte, sim.RecordSize)
		x.recv[k] = make([]byte, sim.RecordSize)
	}
	return x
}

// Exchange removes out from the region, trades flows with every neighbour
// for day and merges what arrived. It returns only after every send has
// completed.
func (x *FlowExchange) Exchange(ctx context.Context, day int, out []float64) error {
	x.region.applyOutflows(out)

	for k, peer := range x.region.Neighbors {
		req, err := x.comm.Irecv(ctx, x.recv[k], peer, TagFlow)
		if err != nil {
			return err
		}
		x.recvs[k] = req
	}
	for k, peer := range x.region.Neighbors {
		sim.PutRecord(x.send[k], sim.Record{Day: int32(day), I: out[k]})
		req, err := x.comm.Isend(ctx, x.send[k], peer, TagFlow)
		if err != nil {
			return err
		}
		x.sends[k] = req
	}

	if err := comm.WaitAll(ctx, x.recvs); err != nil {
		return fmt.Errorf("day %d: receive flows: %w", day, err)
	}
	for k, peer := range x.region.Neighbors {
		rec, err := sim.ReadRecord(x.recv[k])
		if err != nil {
			return &sim.CommError{Rank: x.comm.Rank(), Peer: peer, Tag: TagFlow, Err: err}
		}
		if int(rec.Day) != day {
			return &sim.CommError{Rank: x.comm.Rank(), Peer: peer, Tag: TagFlow,
				Err: fmt.Errorf("flow for day %d arrived on day %d", rec.Day, day)}
		}
		x.in[k] = rec.I
	}
	x.region.applyInflows(x.in)

	if err := comm.WaitAll(ctx, x.sends); err != nil {
		return fmt.Errorf("day %d: send flows: %w", day, err)
	}
	return nil
}
