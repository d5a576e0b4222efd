package cmd

import (
	"context"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/3LIAS-MB/halosim/sim/region"
	"github.com/3LIAS-MB/halosim/sim/topology"
)

// regionFlags receives the region command's flag values.
var regionFlags = defaultRegionRun()

var regionModeFlag = region.ModeParallel

func defaultRegionRun() regionRun {
	return regionRun{
		Config: sim.DefaultRegionConfig(),
		Options: region.Options{
			ResultsPath: "region_results.csv",
			ReportPath:  "region_report.txt",
		},
	}
}

// parseMode reports whether mode selects the sequential run.
func parseMode(mode string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case region.ModeSequential, "secuencial":
		return true, nil
	case region.ModeParallel, "paralelo":
		return false, nil
	}
	return false, sim.NewConfigError("unknown mode %q; valid: sequential, parallel", mode)
}

var regionFlagSetters = map[string]func(dst, src *regionRun){
	"workers":       func(d, s *regionRun) { d.Config.Workers = s.Config.Workers },
	"days":          func(d, s *regionRun) { d.Config.Days = s.Config.Days },
	"beta":          func(d, s *regionRun) { d.Config.SIR.Beta = s.Config.SIR.Beta },
	"gamma":         func(d, s *regionRun) { d.Config.SIR.Gamma = s.Config.SIR.Gamma },
	"tolerance":     func(d, s *regionRun) { d.Config.SIR.Tolerance = s.Config.SIR.Tolerance },
	"policy":        func(d, s *regionRun) { d.Config.Migration.Policy = s.Config.Migration.Policy },
	"prob-mov":      func(d, s *regionRun) { d.Config.Migration.ProbMov = s.Config.Migration.ProbMov },
	"transmission":  func(d, s *regionRun) { d.Config.Migration.Transmission = s.Config.Migration.Transmission },
	"min-source":    func(d, s *regionRun) { d.Config.Migration.MinSource = s.Config.Migration.MinSource },
	"max-neighbors": func(d, s *regionRun) { d.Config.MaxNeighbors = s.Config.MaxNeighbors },
	"seed":          func(d, s *regionRun) { d.Config.Seed = s.Config.Seed },
	"csv-style":     func(d, s *regionRun) { d.Config.CSVStyle = s.Config.CSVStyle },
	"output":        func(d, s *regionRun) { d.Options.ResultsPath = s.Options.ResultsPath },
	"report":        func(d, s *regionRun) { d.Options.ReportPath = s.Options.ReportPath },
	"plot":          func(d, s *regionRun) { d.Options.PlotPath = s.Options.PlotPath },
}

// resolveRegionRun layers defaults, the run file, explicitly set flags and
// finally the positional arguments <input> [beta gamma days prob_mov seed mode output].
func resolveRegionRun(flags *pflag.FlagSet, rc *RunConfig, flagValues *regionRun, mode string, level string, args []string) (*regionRun, error) {
	r := defaultRegionRun()
	if err := rc.Region.apply(&r); err != nil {
		return nil, err
	}
	for name, set := range regionFlagSetters {
		if flags.Changed(name) {
			set(&r, flagValues)
		}
	}
	if flags.Changed("mode") {
		seq, err := parseMode(mode)
		if err != nil {
			return nil, err
		}
		r.Config.Sequential = seq
	}
	if err := applyRegionArgs(&r, args); err != nil {
		return nil, err
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

func applyRegionArgs(r *regionRun, args []string) error {
	if len(args) == 0 {
		return sim.NewConfigError("missing region input file")
	}
	r.Input = args[0]
	for i, arg := range args[1:] {
		var err error
		switch i {
		case 0:
			r.Config.SIR.Beta, err = parseFloatArg("beta", arg)
		case 1:
			r.Config.SIR.Gamma, err = parseFloatArg("gamma", arg)
		case 2:
			r.Config.Days, err = parseIntArg("days", arg)
		case 3:
			r.Config.Migration.ProbMov, err = parseFloatArg("prob_mov", arg)
		case 4:
			var seed int
			seed, err = parseIntArg("seed", arg)
			r.Config.Seed = int64(seed)
		case 5:
			r.Config.Sequential, err = parseMode(arg)
		case 6:
			r.Options.ResultsPath = arg
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func parseFloatArg(name, arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, sim.NewConfigError("invalid %s %q: %v", name, arg, err)
	}
	return v, nil
}

func parseIntArg(name, arg string) (int, error) {
	v, err := strconv.Atoi(arg)
	if err != nil {
		return 0, sim.NewConfigError("invalid %s %q: %v", name, arg, err)
	}
	return v, nil
}

// regionCmd runs the SIR model over a region graph
var regionCmd = &cobra.Command{
	Use:   "region <input-file> [beta gamma days prob_mov seed mode output]",
	Short: "Run the SIR epidemic model over a graph of regions",
	Args:  cobra.RangeArgs(1, 8),
	Run: func(cmd *cobra.Command, args []string) {
		r, err := resolveRegionRun(cmd.Flags(), loadRunConfig(), &regionFlags, regionModeFlag, traceLevel, args)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		graph, err := topology.LoadGraph(r.Input, r.Config.Workers, r.Config.MaxNeighbors)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Loaded %d regions from %s", graph.Size(), r.Input)

		res, err := region.Run(context.Background(), r.Config, graph, r.Options)
		if err != nil {
			logrus.Fatalf("Region simulation failed: %v", err)
		}
		for _, s := range res.Summaries {
			logrus.Debugf("region %d: peak %.2f on day %d, duration %d days",
				s.Region, s.PeakInfection, s.PeakDay, s.Duration)
		}
		if res.Trace != nil {
			logrus.Infof("Flow trace: %d messages, %d bytes over %d links", res.Trace.TotalMessages, res.Trace.TotalBytes, res.Trace.UniqueLinks)
		}
		if r.Options.ResultsPath != "" {
			logrus.Infof("Results written to %s", r.Options.ResultsPath)
		}
		logrus.Info("Simulation complete.")
	},
}

func init() {
	registerRegionFlags(regionCmd.Flags(), &regionFlags, &regionModeFlag)
}

// registerRegionFlags binds the region flags to r and mode, using their
// values as defaults.
func registerRegionFlags(f *pflag.FlagSet, r *regionRun, mode *string) {
	f.IntVar(&r.Config.Workers, "workers", r.Config.Workers, "Number of regions to read (0 = every line of the input file)")
	f.IntVar(&r.Config.Days, "days", r.Config.Days, "Number of simulated days")
	f.Float64Var(&r.Config.SIR.Beta, "beta", r.Config.SIR.Beta, "Infection rate")
	f.Float64Var(&r.Config.SIR.Gamma, "gamma", r.Config.SIR.Gamma, "Recovery rate")
	f.Float64Var(&r.Config.SIR.Tolerance, "tolerance", r.Config.SIR.Tolerance, "Population drift allowed before rescaling")
	f.StringVar(&r.Config.Migration.Policy, "policy", r.Config.Migration.Policy, "Migration policy (stochastic, proportional)")
	f.Float64Var(&r.Config.Migration.ProbMov, "prob-mov", r.Config.Migration.ProbMov, "Movement probability (stochastic) or fraction (proportional)")
	f.Float64Var(&r.Config.Migration.Transmission, "transmission", r.Config.Migration.Transmission, "Fraction of infected sent per move (stochastic)")
	f.Float64Var(&r.Config.Migration.MinSource, "min-source", r.Config.Migration.MinSource, "Infected count a region must exceed to send (stochastic)")
	f.IntVar(&r.Config.MaxNeighbors, "max-neighbors", r.Config.MaxNeighbors, "Maximum neighbours per region")
	f.Int64Var(&r.Config.Seed, "seed", r.Config.Seed, "Seed for the per-region random streams")
	f.StringVar(mode, "mode", *mode, "Run mode (parallel, sequential)")
	f.StringVar(&r.Config.CSVStyle, "csv-style", r.Config.CSVStyle, "Results CSV style (compact, verbose)")
	f.StringVar(&r.Options.ResultsPath, "output", r.Options.ResultsPath, "Results CSV path (empty disables)")
	f.StringVar(&r.Options.ReportPath, "report", r.Options.ReportPath, "Summary report path (empty disables)")
	f.StringVar(&r.Options.PlotPath, "plot", r.Options.PlotPath, "SIR curve PNG path (empty disables)")
}
