package sim

import (
	"math"
)

// Grid rule names.
const (
	RuleTumor     = "tumor"
	RuleDiffusion = "diffusion"
	RuleFractal   = "fractal"
)

// ValidGridRules is the set of recognized grid transition rules.
var ValidGridRules = map[string]bool{RuleTumor: true, RuleDiffusion: true, RuleFractal: true}

// Migration policy names.
const (
	MigrationStochastic   = "stochastic"
	MigrationProportional = "proportional"
)

// ValidMigrationPolicies is the set of recognized migration policies.
var ValidMigrationPolicies = map[string]bool{MigrationStochastic: true, MigrationProportional: true}

// CSV styles for region results.
const (
	CSVCompact = "compact" // Region,Dia,S,I,R with two decimals
	CSVVerbose = "verbose" // region,dia,susceptible,infectado,recuperado with four decimals
)

// ValidCSVStyles is the set of recognized results CSV styles.
var ValidCSVStyles = map[string]bool{CSVCompact: true, CSVVerbose: true}

// GrowthProbs groups the per-step probabilities of the grid rules.
// Tumor bands (Death, Migration, Division) are checked in that order against a
// single draw and need not sum to 1.
type GrowthProbs struct {
	Death     float64
	Migration float64
	Division  float64
	Growth    float64 // diffusion and fractal rules
	Threshold float64 // fractal field gate
}

// GridConfig describes one grid simulation run.
type GridConfig struct {
	Workers         int
	Width           int
	Height          int
	Iterations      int
	OutputInterval  int // aggregate every K iterations
	BarrierInterval int // 0 disables periodic barriers
	Rule            string
	Probs           GrowthProbs
	Seed            int64
}

// DefaultGridConfig returns the parameters of the reference tumor run.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Workers:         4,
		Width:           512,
		Height:          512,
		Iterations:      1000,
		OutputInterval:  100,
		BarrierInterval: 100,
		Rule:            RuleTumor,
		Probs: GrowthProbs{
			Death:     0.05,
			Migration: 0.25,
			Division:  0.75,
			Growth:    0.1,
			Threshold: 0.65,
		},
		Seed: 42,
	}
}

// Validate checks that every field of the grid configuration is usable.
// Topology divisibility is checked separately by topology.BuildGrid.
func (c GridConfig) Validate() error {
	if c.Workers < 1 {
		return NewConfigError("workers must be >= 1, got %d", c.Workers)
	}
	if c.Width < 1 || c.Height < 1 {
		return NewConfigError("grid dimensions must be positive, got %dx%d", c.Width, c.Height)
	}
	if c.Iterations < 0 {
		return NewConfigError("iterations must be non-negative, got %d", c.Iterations)
	}
	if c.OutputInterval < 1 {
		return NewConfigError("output interval must be >= 1, got %d", c.OutputInterval)
	}
	if c.BarrierInterval < 0 {
		return NewConfigError("barrier interval must be non-negative, got %d", c.BarrierInterval)
	}
	if !ValidGridRules[c.Rule] {
		return NewConfigError("unknown grid rule %q; valid: tumor, diffusion, fractal", c.Rule)
	}
	for name, p := range map[string]float64{
		"death": c.Probs.Death, "migration": c.Probs.Migration,
		"division": c.Probs.Division, "growth": c.Probs.Growth,
	} {
		if err := validateProbability(name, p); err != nil {
			return err
		}
	}
	if math.IsNaN(c.Probs.Threshold) || math.IsInf(c.Probs.Threshold, 0) {
		return NewConfigError("fractal threshold must be finite, got %f", c.Probs.Threshold)
	}
	return nil
}

// SIRParams holds the epidemiological constants of the region model.
type SIRParams struct {
	Beta      float64 // infection rate
	Gamma     float64 // recovery rate
	Tolerance float64 // drift allowed before S, I, R are rescaled to N
}

// MigrationConfig controls how infected population moves along graph edges.
type MigrationConfig struct {
	Policy       string
	ProbMov      float64 // movement probability (stochastic) or fraction (proportional)
	Transmission float64 // fraction of I sent to one neighbour (stochastic)
	MinSource    float64 // a region sends only while I exceeds this (stochastic)
}

// RegionConfig describes one region (SIR) simulation run.
type RegionConfig struct {
	Workers      int // 0 = one worker per region line in the input file
	Days         int
	SIR          SIRParams
	Migration    MigrationConfig
	MaxNeighbors int
	Seed         int64
	Sequential   bool
	CSVStyle     string
}

// DefaultRegionConfig returns the parameters of the reference SIR run.
func DefaultRegionConfig() RegionConfig {
	return RegionConfig{
		Days: 120,
		SIR: SIRParams{
			Beta:      0.8,
			Gamma:     0.1,
			Tolerance: 1e-5,
		},
		Migration: MigrationConfig{
			Policy:       MigrationStochastic,
			ProbMov:      0.7,
			Transmission: 0.02,
			MinSource:    1.0,
		},
		MaxNeighbors: 10,
		Seed:         42,
		CSVStyle:     CSVCompact,
	}
}

// Validate checks that every field of the region configuration is usable.
func (c RegionConfig) Validate() error {
	if c.Workers < 0 {
		return NewConfigError("workers must be non-negative, got %d", c.Workers)
	}
	if c.Days < 0 {
		return NewConfigError("days must be non-negative, got %d", c.Days)
	}
	if err := validateNonNegative("beta", c.SIR.Beta); err != nil {
		return err
	}
	if err := validateNonNegative("gamma", c.SIR.Gamma); err != nil {
		return err
	}
	if c.SIR.Tolerance <= 0 || math.IsNaN(c.SIR.Tolerance) {
		return NewConfigError("tolerance must be positive, got %g", c.SIR.Tolerance)
	}
	if !ValidMigrationPolicies[c.Migration.Policy] {
		return NewConfigError("unknown migration policy %q; valid: stochastic, proportional", c.Migration.Policy)
	}
	if err := validateProbability("prob_mov", c.Migration.ProbMov); err != nil {
		return err
	}
	if err := validateProbability("transmission", c.Migration.Transmission); err != nil {
		return err
	}
	if err := validateNonNegative("min_source", c.Migration.MinSource); err != nil {
		return err
	}
	if c.MaxNeighbors < 1 {
		return NewConfigError("max neighbors must be >= 1, got %d", c.MaxNeighbors)
	}
	if !ValidCSVStyles[c.CSVStyle] {
		return NewConfigError("unknown csv style %q; valid: compact, verbose", c.CSVStyle)
	}
	return nil
}

func validateProbability(name string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return NewConfigError("%s probability must be in [0, 1], got %f", name, p)
	}
	return nil
}

func validateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return NewConfigError("%s must be a finite non-negative number, got %f", name, v)
	}
	return nil
}
