package cmd

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/3LIAS-MB/halosim/sim/checkpoint"
	"github.com/3LIAS-MB/halosim/sim/grid"
	"github.com/3LIAS-MB/halosim/sim/trace"
)

// gridFlags receives the grid command's flag values.
var gridFlags = defaultGridRun()

func defaultGridRun() gridRun {
	return gridRun{
		Config: sim.DefaultGridConfig(),
		Options: grid.Options{
			SnapshotPrefix: "cancer",
			MetricsPath:    "metrics.csv",
			VideoScale:     1,
			VideoFPS:       4,
		},
	}
}

// gridFlagSetters copies one explicitly set flag from src into dst.
var gridFlagSetters = map[string]func(dst, src *gridRun){
	"workers":          func(d, s *gridRun) { d.Config.Workers = s.Config.Workers },
	"width":            func(d, s *gridRun) { d.Config.Width = s.Config.Width },
	"height":           func(d, s *gridRun) { d.Config.Height = s.Config.Height },
	"iterations":       func(d, s *gridRun) { d.Config.Iterations = s.Config.Iterations },
	"interval":         func(d, s *gridRun) { d.Config.OutputInterval = s.Config.OutputInterval },
	"barrier-interval": func(d, s *gridRun) { d.Config.BarrierInterval = s.Config.BarrierInterval },
	"rule":             func(d, s *gridRun) { d.Config.Rule = s.Config.Rule },
	"death":            func(d, s *gridRun) { d.Config.Probs.Death = s.Config.Probs.Death },
	"migration":        func(d, s *gridRun) { d.Config.Probs.Migration = s.Config.Probs.Migration },
	"division":         func(d, s *gridRun) { d.Config.Probs.Division = s.Config.Probs.Division },
	"growth":           func(d, s *gridRun) { d.Config.Probs.Growth = s.Config.Probs.Growth },
	"threshold":        func(d, s *gridRun) { d.Config.Probs.Threshold = s.Config.Probs.Threshold },
	"seed":             func(d, s *gridRun) { d.Config.Seed = s.Config.Seed },
	"output":           func(d, s *gridRun) { d.Options.SnapshotPrefix = s.Options.SnapshotPrefix },
	"ascii":            func(d, s *gridRun) { d.Options.ASCII = s.Options.ASCII },
	"metrics":          func(d, s *gridRun) { d.Options.MetricsPath = s.Options.MetricsPath },
	"video":            func(d, s *gridRun) { d.Options.VideoPath = s.Options.VideoPath },
	"video-scale":      func(d, s *gridRun) { d.Options.VideoScale = s.Options.VideoScale },
	"video-fps":        func(d, s *gridRun) { d.Options.VideoFPS = s.Options.VideoFPS },
	"plot":             func(d, s *gridRun) { d.PlotPath = s.PlotPath },
}

// resolveGridRun layers defaults, the run file and explicitly set flags.
func resolveGridRun(flags *pflag.FlagSet, rc *RunConfig, flagValues *gridRun, level string) (*gridRun, error) {
	r := defaultGridRun()
	rc.Grid.apply(&r)
	for name, set := range gridFlagSetters {
		if flags.Changed(name) {
			set(&r, flagValues)
		}
	}
	tc, err := traceConfig(level)
	if err != nil {
		return nil, err
	}
	r.Options.Trace = tc
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func traceConfig(level string) (trace.TraceConfig, error) {
	if !trace.IsValidTraceLevel(level) {
		return trace.TraceConfig{}, sim.NewConfigError("unknown trace level %q; valid: none, messages", level)
	}
	return trace.TraceConfig{Level: trace.TraceLevel(level)}, nil
}

// gridCmd runs a grid growth simulation
var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Run a 2D grid growth simulation (tumor, diffusion or fractal rule)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		r, err := resolveGridRun(cmd.Flags(), loadRunConfig(), &gridFlags, traceLevel)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		res, err := grid.Run(context.Background(), r.Config, r.Options)
		if err != nil {
			logrus.Fatalf("Grid simulation failed: %v", err)
		}
		if n := len(res.Counts); n > 0 {
			logrus.Infof("Final occupied cells: %d after %d iterations", res.Counts[n-1].Count, res.Counts[n-1].Iteration)
		}
		if res.Trace != nil {
			logrus.Infof("Exchange trace: %d messages, %d bytes over %d links", res.Trace.TotalMessages, res.Trace.TotalBytes, res.Trace.UniqueLinks)
		}
		if r.PlotPath != "" {
			err := checkpoint.SavePlot(r.PlotPath, func(w io.Writer) error { return checkpoint.PlotGrowth(w, res.Counts) })
			if err != nil {
				logrus.Warnf("Growth plot skipped: %v", err)
			}
		}
		logrus.Info("Simulation complete.")
	},
}

func init() {
	registerGridFlags(gridCmd.Flags(), &gridFlags)
}

// registerGridFlags binds the grid flags to r, using r's values as defaults.
func registerGridFlags(f *pflag.FlagSet, r *gridRun) {
	f.IntVar(&r.Config.Workers, "workers", r.Config.Workers, "Number of worker partitions")
	f.IntVar(&r.Config.Width, "width", r.Config.Width, "Grid width in cells")
	f.IntVar(&r.Config.Height, "height", r.Config.Height, "Grid height in cells")
	f.IntVar(&r.Config.Iterations, "iterations", r.Config.Iterations, "Number of simulation steps")
	f.IntVar(&r.Config.OutputInterval, "interval", r.Config.OutputInterval, "Checkpoint every N steps")
	f.IntVar(&r.Config.BarrierInterval, "barrier-interval", r.Config.BarrierInterval, "Synchronize all workers every N steps (0 disables)")
	f.StringVar(&r.Config.Rule, "rule", r.Config.Rule, "Transition rule (tumor, diffusion, fractal)")
	f.Float64Var(&r.Config.Probs.Death, "death", r.Config.Probs.Death, "Tumor death probability")
	f.Float64Var(&r.Config.Probs.Migration, "migration", r.Config.Probs.Migration, "Tumor migration probability")
	f.Float64Var(&r.Config.Probs.Division, "division", r.Config.Probs.Division, "Tumor division probability")
	f.Float64Var(&r.Config.Probs.Growth, "growth", r.Config.Probs.Growth, "Growth probability (diffusion, fractal)")
	f.Float64Var(&r.Config.Probs.Threshold, "threshold", r.Config.Probs.Threshold, "Fractal field threshold")
	f.Int64Var(&r.Config.Seed, "seed", r.Config.Seed, "Seed for the per-partition random streams")
	f.StringVar(&r.Options.SnapshotPrefix, "output", r.Options.SnapshotPrefix, "PGM snapshot prefix (empty disables snapshots)")
	f.BoolVar(&r.Options.ASCII, "ascii", r.Options.ASCII, "Write plain (P2) instead of binary (P5) PGM")
	f.StringVar(&r.Options.MetricsPath, "metrics", r.Options.MetricsPath, "Metrics CSV path (empty disables)")
	f.StringVar(&r.Options.VideoPath, "video", r.Options.VideoPath, "MJPEG AVI path, one frame per checkpoint (empty disables)")
	f.IntVar(&r.Options.VideoScale, "video-scale", r.Options.VideoScale, "Video pixels per cell")
	f.IntVar(&r.Options.VideoFPS, "video-fps", r.Options.VideoFPS, "Video frames per second")
	f.StringVar(&r.PlotPath, "plot", r.PlotPath, "Growth curve PNG path (empty disables)")
}
