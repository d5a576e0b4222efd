package region

import (
	"context"
	"math/rand"
	"time"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/3LIAS-MB/halosim/sim/checkpoint"
	"github.com/3LIAS-MB/halosim/sim/topology"
)

// runSequential advances every region on the calling goroutine. Each day
// all regions update and choose their outflows before any flow is applied,
// and inflows are merged in the receiver's neighbour-list order, matching
// the parallel exchange exactly.
func runSequential(ctx context.Context, cfg sim.RegionConfig, graph *topology.GraphTopology, policies []Policy, rngs []*rand.Rand) (*Result, error) {
	n := graph.Size()
	regions := make([]*Region, n)
	outs := make([][]float64, n)
	// slot[i][k] is the position of region i in the neighbour list of its k-th neighbour.
	slot := make([][]int, n)
	for i := range regions {
		regions[i] = New(graph.Regions[i])
		outs[i] = make([]float64, len(regions[i].Neighbors))
	}
	for i, r := range regions {
		slot[i] = make([]int, len(r.Neighbors))
		for k, nb := range r.Neighbors {
			for pos, back := range regions[nb].Neighbors {
				if back == i {
					slot[i][k] = pos
				}
			}
		}
	}

	series := make([]checkpoint.RegionSeries, n)
	for i, r := range regions {
		series[i] = checkpoint.RegionSeries{Region: i, Records: make([]sim.Record, cfg.Days+1)}
		series[i].Records[0] = r.Record(0)
	}

	start := time.Now()
	in := make([]float64, 0, topology.DefaultMaxNeighbors)
	for day := 1; day <= cfg.Days; day++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, r := range regions {
			r.StepSIR(cfg.SIR)
			policies[i].Outflows(r, rngs[i], outs[i])
		}
		for i, r := range regions {
			r.applyOutflows(outs[i])
		}
		for i, r := range regions {
			in = in[:0]
			for k, nb := range r.Neighbors {
				in = append(in, outs[nb][slot[i][k]])
			}
			r.applyInflows(in)
			series[i].Records[day] = r.Record(day)
		}
	}
	elapsed := time.Since(start)

	summaries := make([]checkpoint.RegionSummary, n)
	for i := range regions {
		summaries[i] = summaryFromVector(i, summaryVector(Track(series[i].Records), elapsed, 0))
	}
	return &Result{Mode: ModeSequential, Series: series, Summaries: summaries, Elapsed: elapsed}, nil
}
