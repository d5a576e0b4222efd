package region

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

const (
	coordinator = 0
	// TagSeries is the tag of the end-of-run time-series message.
	TagSeries = 1
)

// Run modes as they appear in reports.
const (
	ModeParallel   = "parallel"
	ModeSequential = "sequential"
)

// Options selects the files a region run writes. Empty paths disable them.
type Options struct {
	ResultsPath string
	ReportPath  string
	PlotPath    string
	Trace       trace.TraceConfig // parallel mode only
}

// Result is the coordinator's view of a finished run.
type Result struct {
	Mode      string
	Series    []checkpoint.RegionSeries // indexed by region
	Summaries []checkpoint.RegionSummary
	Elapsed   time.Duration
	Trace     *trace.TraceSummary
}

// Run simulates cfg.Days days over graph, in parallel (one worker per
// region) unless cfg.Sequential is set. Both modes draw from the same
// per-region random streams and produce identical series.
func Run(ctx context.Context, cfg sim.RegionConfig, graph *topology.GraphTopology, opts Options) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if graph == nil || graph.Size() == 0 {
		return nil, sim.NewConfigError("region graph is empty")
	}
	policies := make([]Policy, graph.Size())
	for i := range policies {
		p, err := NewPolicy(cfg.Migration)
		if err != nil {
			return nil, err
		}
		policies[i] = p
	}
	rngs := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).ForPartitions(graph.Size())

	mode := ModeParallel
	if cfg.Sequential {
		mode = ModeSequential
	}
	logrus.Infof("region run: %d regions, %d days, %s mode, %s migration", graph.Size(), cfg.Days, mode, cfg.Migration.Policy)

	var res *Result
	var err error
	if cfg.Sequential {
		res, err = runSequential(ctx, cfg, graph, policies, rngs)
	} else {
		res, err = runParallel(ctx, cfg, graph, policies, rngs, opts.Trace)
	}
	if err != nil {
		return nil, err
	}
	if err := writeOutputs(cfg, res, opts); err != nil {
		return nil, err
	}
	logrus.Infof("region run finished in %s", res.Elapsed)
	return res, nil
}

func runParallel(ctx context.Context, cfg sim.RegionConfig, graph *topology.GraphTopology,
	policies []Policy, rngs []*rand.Rand, tc trace.TraceConfig) (*Result, error) {

	res := &Result{Mode: ModeParallel}
	cl := cluster.New(graph.Size(), tc)
	err := cl.Run(ctx, func(ctx context.Context, c *comm.Comm) error {
		w := &worker{
			cfg:    cfg,
			comm:   c,
			region: New(graph.Regions[c.Rank()]),
			policy: policies[c.Rank()],
			rng:    rngs[c.Rank()],
		}
		if c.Rank() == coordinator {
			w.result = res
		}
		return w.run(ctx)
	})
	if err != nil {
		return nil, err
	}
	res.Elapsed = cl.Elapsed()
	if st := cl.Trace(); st != nil {
		res.Trace = trace.Summarize(st)
	}
	return res, nil
}

type worker struct {
	cfg    sim.RegionConfig
	comm   *comm.Comm
	region *Region
	policy Policy
	rng    *rand.Rand
	result *Result // coordinator only
}

func (w *worker) run(ctx context.Context) error {
	days := w.cfg.Days
	records := make([]sim.Record, days+1)
	out := make([]float64, len(w.region.Neighbors))
	flows := NewFlowExchange(w.comm, w.region)

	if err := w.comm.Barrier(ctx); err != nil {
		return err
	}
	start := time.Now()
	var commTime time.Duration

	records[0] = w.region.Record(0)
	for day := 1; day <= days; day++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.comm.BeginStep(day)
		w.region.StepSIR(w.cfg.SIR)
		w.policy.Outflows(w.region, w.rng, out)

		t0 := time.Now()
		if err := flows.Exchange(ctx, day, out); err != nil {
			return err
		}
		commTime += time.Since(t0)
		records[day] = w.region.Record(day)
	}

	if err := w.comm.Barrier(ctx); err != nil {
		return err
	}
	total := time.Since(start)

	series, err := w.gatherSeries(ctx, records)
	if err != nil {
		return err
	}
	tracking := Track(records)
	summaries, err := w.gatherSummaries(ctx, tracking, total, commTime)
	if err != nil {
		return err
	}
	if w.result != nil {
		w.result.Series = series
		w.result.Summaries = summaries
	}
	return nil
}

// gatherSeries sends every rank's full series to the coordinator as one
// message. Only the coordinator gets a non-nil result.
func (w *worker) gatherSeries(ctx context.Context, records []sim.Record) ([]checkpoint.RegionSeries, error) {
	if w.comm.Rank() != coordinator {
		return nil, w.comm.Send(ctx, sim.EncodeRecords(records), coordinator, TagSeries)
	}
	series := make([]checkpoint.RegionSeries, w.comm.Size())
	series[coordinator] = checkpoint.RegionSeries{Region: coordinator, Records: records}
	buf := make([]byte, len(records)*sim.RecordSize)
	for src := 0; src < w.comm.Size(); src++ {
		if src == coordinator {
			continue
		}
		if err := w.comm.Recv(ctx, buf, src, TagSeries); err != nil {
			return nil, fmt.Errorf("receive series: %w", err)
		}
		recs, err := sim.DecodeRecords(buf)
		if err != nil {
			return nil, &sim.CommError{Rank: coordinator, Peer: src, Tag: TagSeries, Err: err}
		}
		series[src] = checkpoint.RegionSeries{Region: src, Records: recs}
	}
	return series, nil
}

func (w *worker) gatherSummaries(ctx context.Context, t Tracking, total, commTime time.Duration) ([]checkpoint.RegionSummary, error) {
	vec := sim.EncodeFloat64s(summaryVector(t, total, commTime))
	parts, err := w.comm.Gather(ctx, vec, coordinator)
	if err != nil {
		return nil, fmt.Errorf("gather summaries: %w", err)
	}
	if parts == nil {
		return nil, nil
	}
	summaries := make([]checkpoint.RegionSummary, len(parts))
	for rank, part := range parts {
		v, err := sim.DecodeFloat64s(part)
		if err != nil {
			return nil, &sim.CommError{Rank: coordinator, Peer: rank, Err: err}
		}
		summaries[rank] = summaryFromVector(rank, v)
	}
	return summaries, nil
}

// summaryVector flattens the per-rank summary for the fixed-size gather:
// peak, peak day, first infection day, duration, total seconds, comm seconds.
func summaryVector(t Tracking, total, commTime time.Duration) []float64 {
	return []float64{
		t.PeakInfection,
		float64(t.PeakDay),
		float64(t.FirstInfectionDay),
		float64(t.Duration()),
		total.Seconds(),
		commTime.Seconds(),
	}
}

func summaryFromVector(region int, v []float64) checkpoint.RegionSummary {
	return checkpoint.RegionSummary{
		Region:            region,
		PeakInfection:     v[0],
		PeakDay:           int(v[1]),
		FirstInfectionDay: int(v[2]),
		Duration:          int(v[3]),
		TotalTime:         v[4],
		CommTime:          v[5],
	}
}

func writeOutputs(cfg sim.RegionConfig, res *Result, opts Options) error {
	if opts.ResultsPath != "" {
		if err := checkpoint.SaveResults(opts.ResultsPath, cfg.CSVStyle, res.Series); err != nil {
			return err
		}
		logrus.Infof("results written to %s", opts.ResultsPath)
	}
	if opts.ReportPath != "" {
		params := checkpoint.ReportParams{
			Workers:      len(res.Series),
			Days:         cfg.Days,
			Mode:         res.Mode,
			Policy:       cfg.Migration.Policy,
			Beta:         cfg.SIR.Beta,
			Gamma:        cfg.SIR.Gamma,
			ProbMov:      cfg.Migration.ProbMov,
			Transmission: cfg.Migration.Transmission,
			Seed:         cfg.Seed,
		}
		if err := checkpoint.SaveReport(opts.ReportPath, params, res.Summaries); err != nil {
			return err
		}
		logrus.Infof("summary report written to %s", opts.ReportPath)
	}
	if opts.PlotPath != "" {
		if err := checkpoint.SavePlot(opts.PlotPath, func(w io.Writer) error {
			return checkpoint.PlotSIR(w, res.Series)
		}); err != nil {
			return err
		}
		logrus.Infof("plot written to %s", opts.PlotPath)
	}
	return nil
}
