package stereoglue

import (
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"
)

// ScoringMethod selects the per-candidate scoring strategy.
type ScoringMethod int

const (
	MSAC ScoringMethod = iota
	MAGSAC
)

// SamplerMethod selects the minimal-sample drawing strategy.
type SamplerMethod int

const (
	SamplerUniform SamplerMethod = iota
	SamplerPROSAC
	SamplerNeighborhoodGuided
)

// LocalOptimizationMethod selects the local-optimization strategy, used for
// both Settings.LocalOptimization (in-loop) and Settings.FinalOptimization
// (after the loop ends).
type LocalOptimizationMethod int

const (
	LocalOptNone LocalOptimizationMethod = iota
	LocalOptNestedRANSAC
	LocalOptIRLS
)

// TerminationCriterion selects the stopping-rule family.
type TerminationCriterion int

const (
	TerminationRANSAC TerminationCriterion = iota
	TerminationPROSAC
)

// RobustKernel selects the IRLS weighting function.
type RobustKernel int

const (
	Cauchy RobustKernel = iota
	Huber
)

// LocalOptimizationCadence controls when the main loop invokes local
// optimization (spec.md §9's open question). The zero value runs no in-loop
// local optimization at all; DefaultCadence returns the documented default,
// OnImprovement.
type LocalOptimizationCadence struct {
	// OnImprovement runs local optimization every time the best score
	// strictly improves. This is the default (spec.md §9).
	OnImprovement bool
	// Every, when > 0, additionally runs local optimization every N
	// iterations regardless of improvement. Zero disables the periodic
	// trigger.
	Every int
}

// DefaultCadence returns the spec-default cadence: every strict
// improvement of the best score, no fixed period.
func DefaultCadence() LocalOptimizationCadence {
	return LocalOptimizationCadence{OnImprovement: true}
}

// LocalOptimizationSettings configures both Nested RANSAC and IRLS.
type LocalOptimizationSettings struct {
	MaxIterations        int          `yaml:"max_iterations"`
	SampleSizeMultiplier int          `yaml:"sample_size_multiplier"`
	Kernel               RobustKernel `yaml:"kernel"`
	// Tolerance is IRLS's relative-score-change stopping threshold.
	Tolerance float64 `yaml:"tolerance"`
}

// DefaultLocalOptimizationSettings returns spec.md §4.5's documented
// defaults (max_iterations 50, sample_size_multiplier 7).
func DefaultLocalOptimizationSettings() LocalOptimizationSettings {
	return LocalOptimizationSettings{
		MaxIterations:        50,
		SampleSizeMultiplier: 7,
		Kernel:               Cauchy,
		Tolerance:             1e-3,
	}
}

// Settings enumerates the estimator's configuration, with defaults drawn
// from spec.md §6.
type Settings struct {
	MinIterations   int     `yaml:"min_iterations"`
	MaxIterations   int     `yaml:"max_iterations"`
	CoreNumber      int     `yaml:"core_number"`
	InlierThreshold float64 `yaml:"inlier_threshold"`
	Confidence      float64 `yaml:"confidence"`

	Scoring               ScoringMethod           `yaml:"scoring"`
	Sampler               SamplerMethod           `yaml:"sampler"`
	LocalOptimization     LocalOptimizationMethod `yaml:"local_optimization"`
	FinalOptimization     LocalOptimizationMethod `yaml:"final_optimization"`
	TerminationCriterion  TerminationCriterion    `yaml:"termination_criterion"`

	LocalOptimizationSettings LocalOptimizationSettings `yaml:"local_optimization_settings"`
	LocalOptimizationCadence  LocalOptimizationCadence  `yaml:"-"`

	// DivisionNumber configures the neighborhood graph's grid division
	// count (spec.md §4.1). Only consulted when Sampler is
	// SamplerNeighborhoodGuided.
	DivisionNumber int `yaml:"division_number"`

	// Seed makes the draw sequence reproducible, per spec.md §4.2.
	Seed int64 `yaml:"seed"`

	// MAGSACScaleMultiplier sets the marginalization range [0, threshold *
	// multiplier] for MAGSAC scoring (DESIGN.md's resolution of the scale
	// range open question).
	MAGSACScaleMultiplier float64 `yaml:"magsac_scale_multiplier"`

	// Logger receives the main loop's phase-transition (Info) and
	// per-iteration (Debug) logging. Nil means Estimate falls back to
	// slog.Default() — never a package-level global logger. Not
	// YAML-serializable.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultSettings returns the defaults enumerated in spec.md §6.
func DefaultSettings() Settings {
	return Settings{
		MinIterations:             1000,
		MaxIterations:             5000,
		CoreNumber:                4,
		InlierThreshold:           1.5,
		Confidence:                0.99,
		Scoring:                   MAGSAC,
		Sampler:                   SamplerUniform,
		LocalOptimization:         LocalOptNestedRANSAC,
		FinalOptimization:         LocalOptIRLS,
		TerminationCriterion:      TerminationRANSAC,
		LocalOptimizationSettings: DefaultLocalOptimizationSettings(),
		LocalOptimizationCadence:  DefaultCadence(),
		DivisionNumber:            8,
		Seed:                      0,
		MAGSACScaleMultiplier:     3.0,
	}
}

// LoadSettingsYAML reads a Settings value from YAML, starting from
// DefaultSettings() so a partial document only overrides the fields it
// names — the same ergonomics as the teacher's yaml-tagged map config
// (map.go), adopted here as an ambient convenience rather than a required
// path; Estimate always takes a Settings value directly.
func LoadSettingsYAML(r io.Reader) (Settings, error) {
	s := DefaultSettings()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&s); err != nil && err != io.EOF {
		return Settings{}, newError(KindInvalidInput, "decode settings yaml", err)
	}
	return s, nil
}
