package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/3LIAS-MB/halosim/sim"
	"github.com/3LIAS-MB/halosim/sim/grid"
	"github.com/3LIAS-MB/halosim/sim/region"
)

// RunConfig is the optional YAML run file passed with --config.
// Pointer fields distinguish "not set" from zero values; unset fields keep
// the built-in defaults. All sections must be listed to satisfy
// KnownFields(true) strict parsing.
type RunConfig struct {
	Grid   *GridSection   `yaml:"grid"`
	Region *RegionSection `yaml:"region"`
}

// GridSection overrides grid run parameters.
type GridSection struct {
	Workers         *int     `yaml:"workers"`
	Width           *int     `yaml:"width"`
	Height          *int     `yaml:"height"`
	Iterations      *int     `yaml:"iterations"`
	Interval        *int     `yaml:"interval"`
	BarrierInterval *int     `yaml:"barrier_interval"`
	Rule            *string  `yaml:"rule"`
	Death           *float64 `yaml:"death"`
	Migration       *float64 `yaml:"migration"`
	Division        *float64 `yaml:"division"`
	Growth          *float64 `yaml:"growth"`
	Threshold       *float64 `yaml:"threshold"`
	Seed            *int64   `yaml:"seed"`
	Output          *string  `yaml:"output"`
	ASCII           *bool    `yaml:"ascii"`
	Metrics         *string  `yaml:"metrics"`
	Video           *string  `yaml:"video"`
	Plot            *string  `yaml:"plot"`
}

// RegionSection overrides region run parameters.
type RegionSection struct {
	Workers      *int     `yaml:"workers"`
	Days         *int     `yaml:"days"`
	Beta         *float64 `yaml:"beta"`
	Gamma        *float64 `yaml:"gamma"`
	Tolerance    *float64 `yaml:"tolerance"`
	Policy       *string  `yaml:"policy"`
	ProbMov      *float64 `yaml:"prob_mov"`
	Transmission *float64 `yaml:"transmission"`
	MinSource    *float64 `yaml:"min_source"`
	MaxNeighbors *int     `yaml:"max_neighbors"`
	Seed         *int64   `yaml:"seed"`
	Mode         *string  `yaml:"mode"`
	CSVStyle     *string  `yaml:"csv_style"`
	Output       *string  `yaml:"output"`
	Report       *string  `yaml:"report"`
	Plot         *string  `yaml:"plot"`
}

// LoadRunConfig parses a run file with strict field checking: unknown keys
// are errors so typos never silently fall back to defaults.
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &sim.ConfigError{Path: path, Rank: -1, Err: err}
	}
	var rc RunConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&rc); err != nil {
		return nil, &sim.ConfigError{Path: path, Rank: -1, Err: fmt.Errorf("parse run config: %w", err)}
	}
	return &rc, nil
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setInt64(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// gridRun is everything a grid command needs after resolution.
type gridRun struct {
	Config   sim.GridConfig
	Options  grid.Options
	PlotPath string
}

// apply overlays the section on r. A nil section changes nothing.
func (s *GridSection) apply(r *gridRun) {
	if s == nil {
		return
	}
	setInt(&r.Config.Workers, s.Workers)
	setInt(&r.Config.Width, s.Width)
	setInt(&r.Config.Height, s.Height)
	setInt(&r.Config.Iterations, s.Iterations)
	setInt(&r.Config.OutputInterval, s.Interval)
	setInt(&r.Config.BarrierInterval, s.BarrierInterval)
	setString(&r.Config.Rule, s.Rule)
	setFloat(&r.Config.Probs.Death, s.Death)
	setFloat(&r.Config.Probs.Migration, s.Migration)
	setFloat(&r.Config.Probs.Division, s.Division)
	setFloat(&r.Config.Probs.Growth, s.Growth)
	setFloat(&r.Config.Probs.Threshold, s.Threshold)
	setInt64(&r.Config.Seed, s.Seed)
	setString(&r.Options.SnapshotPrefix, s.Output)
	setBool(&r.Options.ASCII, s.ASCII)
	setString(&r.Options.MetricsPath, s.Metrics)
	setString(&r.Options.VideoPath, s.Video)
	setString(&r.PlotPath, s.Plot)
}

// regionRun is everything a region command needs after resolution.
type regionRun struct {
	Input   string
	Config  sim.RegionConfig
	Options region.Options
}

func (s *RegionSection) apply(r *regionRun) error {
	if s == nil {
		return nil
	}
	setInt(&r.Config.Workers, s.Workers)
	setInt(&r.Config.Days, s.Days)
	setFloat(&r.Config.SIR.Beta, s.Beta)
	setFloat(&r.Config.SIR.Gamma, s.Gamma)
	setFloat(&r.Config.SIR.Tolerance, s.Tolerance)
	setString(&r.Config.Migration.Policy, s.Policy)
	setFloat(&r.Config.Migration.ProbMov, s.ProbMov)
	setFloat(&r.Config.Migration.Transmission, s.Transmission)
	setFloat(&r.Config.Migration.MinSource, s.MinSource)
	setInt(&r.Config.MaxNeighbors, s.MaxNeighbors)
	setInt64(&r.Config.Seed, s.Seed)
	setString(&r.Config.CSVStyle, s.CSVStyle)
	setString(&r.Options.ResultsPath, s.Output)
	setString(&r.Options.ReportPath, s.Report)
	setString(&r.Options.PlotPath, s.Plot)
	if s.Mode != nil {
		seq, err := parseMode(*s.Mode)
		if err != nil {
			return err
		}
		r.Config.Sequential = seq
	}
	return nil
}
