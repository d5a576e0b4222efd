// Package cluster launches the workers of one run: a goroutine per rank,
// each bound to its comm endpoint, under a shared cancellation scope.
package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/3LIAS-MB/halosim/sim/comm"
	"github.com/3LIAS-MB/halosim/sim/trace"
)

// WorkerFunc is the per-rank body of a run. It must return when ctx is done.
type WorkerFunc func(ctx context.Context, c *comm.Comm) error

// Cluster is a fixed set of ranks that run together exactly once.
type Cluster struct {
	world       *comm.World
	traceConfig trace.TraceConfig
	traces      []*trace.SimulationTrace
	elapsed     time.Duration
	hasRun      bool
}

// New creates a cluster of size ranks. Message tracing follows traceConfig.
// Panics if size < 1.
func New(size int, traceConfig trace.TraceConfig) *Cluster {
	if size < 1 {
		panic("cluster.New: size must be >= 1")
	}
	return &Cluster{
		world:       comm.NewWorld(size),
		traceConfig: traceConfig,
		traces:      make([]*trace.SimulationTrace, size),
	}
}

// Size returns the number of ranks.
func (c *Cluster) Size() int {
	return c.world.Size()
}

// Run starts fn on every rank and waits for all of them. The first worker to
// fail cancels the context of every other worker; Run then returns that
// first error, prefixed with its rank.
// Panics if called more than once.
func (c *Cluster) Run(ctx context.Context, fn WorkerFunc) error {
	if c.hasRun {
		panic("cluster.Cluster.Run() called more than once")
	}
	c.hasRun = true

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for rank := 0; rank < c.world.Size(); rank++ {
		endpoint := c.world.Comm(rank)
		if c.traceConfig.Enabled() {
			c.traces[rank] = trace.NewSimulationTrace(c.traceConfig)
			endpoint.SetTrace(c.traces[rank])
		}
		g.Go(func() error {
			if err := fn(gctx, endpoint); err != nil {
				return fmt.Errorf("rank %d: %w", endpoint.Rank(), err)
			}
			return nil
		})
	}
	err := g.Wait()
	c.elapsed = time.Since(start)
	if err != nil {
		logrus.Debugf("cluster of %d ranks aborted after %s: %v", c.world.Size(), c.elapsed, err)
		return err
	}
	logrus.Debugf("cluster of %d ranks finished in %s", c.world.Size(), c.elapsed)
	return nil
}

// Elapsed returns the wall time of Run.
func (c *Cluster) Elapsed() time.Duration {
	return c.elapsed
}

// Trace returns the per-rank message traces merged in rank order, or nil
// when tracing is disabled.
func (c *Cluster) Trace() *trace.SimulationTrace {
	if !c.traceConfig.Enabled() {
		return nil
	}
	return trace.Merge(c.traceConfig, c.traces...)
}

// Run is shorthand for New(size, no tracing).Run(ctx, fn).
func Run(ctx context.Context, size int, fn WorkerFunc) error {
	return New(size, trace.TraceConfig{Level: trace.TraceLevelNone}).Run(ctx, fn)
}
