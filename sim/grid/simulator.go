package grid

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/3LIAS-MB/halosim/sim/checkpoint"
	"github.com/3LIAS-MB/halosim/sim/cluster"
	"github.com/3LIAS-MB/halosim/sim/comm"
	"github.com/3LIAS-MB/halosim/sim/topology"
	"github.com/3LIAS-MB/halosim/sim/trace"
)

const coordinator = 0

// Options selects the files a grid run writes. Empty paths disable the
// corresponding output; the metrics rows are always returned in Result.
type Options struct {
	SnapshotPrefix string // PGM files <prefix>_iter_%04d.pgm
	ASCII          bool   // P2 instead of P5
	MetricsPath    string // Iteration,CellCount CSV
	VideoPath      string // MJPEG AVI, one frame per checkpoint
	VideoScale     int
	VideoFPS       int
	Trace          trace.TraceConfig
}

// Result is what the coordinator aggregated over a run.
type Result struct {
	Counts    []checkpoint.CountRow
	Final     *checkpoint.Snapshot
	Snapshots int
	Trace     *trace.TraceSummary // nil unless tracing was enabled
	Elapsed   time.Duration
}

// Run simulates cfg on cfg.Workers partitions and returns the coordinator's
// aggregates.
func Run(ctx context.Context, cfg sim.GridConfig, opts Options) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	topo, err := topology.BuildGrid(cfg.Workers, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	rules := make([]Rule, topo.Size())
	for rank := range rules {
		if rules[rank], err = NewRule(cfg.Rule, cfg.Probs); err != nil {
			return nil, err
		}
	}
	rngs := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).ForPartitions(topo.Size())

	sink, err := newSink(topo, opts)
	if err != nil {
		return nil, err
	}
	defer sink.close()

	logrus.Infof("grid run: rule=%s %dx%d over %dx%d workers, %d iterations, checkpoint every %d",
		cfg.Rule, cfg.Width, cfg.Height, topo.Rows, topo.Cols, cfg.Iterations, cfg.OutputInterval)

	cl := cluster.New(topo.Size(), opts.Trace)
	err = cl.Run(ctx, func(ctx context.Context, c *comm.Comm) error {
		w := &worker{
			cfg:   cfg,
			comm:  c,
			block: NewBlock(topo.Partitions[c.Rank()]),
			rule:  rules[c.Rank()],
			rng:   rngs[c.Rank()],
		}
		if c.Rank() == coordinator {
			w.sink = sink
		}
		return w.run(ctx)
	})
	if err != nil {
		return nil, err
	}
	if err := sink.close(); err != nil {
		return nil, err
	}

	res := &Result{
		Counts:    sink.log.Rows(),
		Final:     sink.last,
		Snapshots: sink.snapshots,
		Elapsed:   cl.Elapsed(),
	}
	if st := cl.Trace(); st != nil {
		res.Trace = trace.Summarize(st)
	}
	logrus.Infof("grid run finished in %s with %d checkpoints", res.Elapsed, len(res.Counts))
	return res, nil
}

type worker struct {
	cfg   sim.GridConfig
	comm  *comm.Comm
	block *Block
	rule  Rule
	rng   *rand.Rand
	sink  *sink // coordinator only
}

func (w *worker) run(ctx context.Context) error {
	part := w.block.Partition()
	w.block.SetGlobal(w.cfg.Width/2, w.cfg.Height/2, Occupied)
	halo := NewHaloExchange(w.comm, w.block)

	if err := halo.Exchange(ctx); err != nil {
		return err
	}
	if err := w.comm.Barrier(ctx); err != nil {
		return err
	}
	if err := w.checkpoint(ctx, 0); err != nil {
		return err
	}

	for step := 1; step <= w.cfg.Iterations; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.comm.BeginStep(step)
		w.rule.Step(w.block, w.rng)
		if err := halo.Exchange(ctx); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		if step%w.cfg.OutputInterval == 0 || step == w.cfg.Iterations {
			if err := w.checkpoint(ctx, step); err != nil {
				return fmt.Errorf("step %d: %w", step, err)
			}
		}
		if w.cfg.BarrierInterval > 0 && step%w.cfg.BarrierInterval == 0 {
			if err := w.comm.Barrier(ctx); err != nil {
				return err
			}
		}
	}

	logrus.Debugf("rank %d (block %d,%d) done with %d occupied cells", w.comm.Rank(), part.Row, part.Col, w.block.CountOccupied())
	return w.comm.Barrier(ctx)
}

// checkpoint reduces the occupied count and gathers the interior blocks at
// the coordinator.
func (w *worker) checkpoint(ctx context.Context, step int) error {
	count, err := w.comm.ReduceSum(ctx, float64(w.block.CountOccupied()), coordinator)
	if err != nil {
		return fmt.Errorf("reduce cell count: %w", err)
	}
	parts, err := w.comm.Gather(ctx, w.block.PackInterior(), coordinator)
	if err != nil {
		return fmt.Errorf("gather snapshot: %w", err)
	}
	if w.sink == nil {
		return nil
	}
	return w.sink.write(step, int64(count), parts)
}

// sink holds the coordinator's outputs.
type sink struct {
	topo      *topology.GridTopology
	opts      Options
	log       *checkpoint.MetricsLog
	video     *checkpoint.Video
	last      *checkpoint.Snapshot
	snapshots int
	closed    bool
}

func newSink(topo *topology.GridTopology, opts Options) (*sink, error) {
	s := &sink{topo: topo, opts: opts}
	var err error
	if opts.MetricsPath != "" {
		s.log, err = checkpoint.CreateMetricsLog(opts.MetricsPath)
	} else {
		s.log, err = checkpoint.NewMetricsLog(io.Discard)
	}
	if err != nil {
		return nil, err
	}
	if opts.VideoPath != "" {
		s.video, err = checkpoint.CreateVideo(opts.VideoPath, topo.Width, topo.Height, opts.VideoScale, opts.VideoFPS)
		if err != nil {
			s.log.Close()
			return nil, err
		}
	}
	return s, nil
}

func (s *sink) write(step int, count int64, parts [][]byte) error {
	if err := s.log.Append(step, count); err != nil {
		return fmt.Errorf("append metrics: %w", err)
	}
	snap, err := checkpoint.Assemble(s.topo, step, parts)
	if err != nil {
		return err
	}
	s.last = snap
	s.snapshots++
	if s.opts.SnapshotPrefix != "" {
		if err := checkpoint.SavePGM(checkpoint.PGMFileName(s.opts.SnapshotPrefix, step), snap, s.opts.ASCII); err != nil {
			return err
		}
	}
	if s.video != nil {
		if err := s.video.AddSnapshot(snap); err != nil {
			return err
		}
	}
	logrus.Debugf("checkpoint %d: %d occupied cells", step, count)
	return nil
}

func (s *sink) close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.log.Close()
	if s.video != nil {
		if verr := s.video.Close(); err == nil {
			err = verr
		}
	}
	return err
}
