// Package loop implements spec.md §4.7's main estimator loop, wiring
// together the sampler, estimator, scoring, local optimizer, and
// termination packages. It never imports the root package (root imports
// this one); Settings and MatchTable are local types the root package
// adapts its own into, the same import-cycle workaround
// internal/estimator.Kind uses.
package loop

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"

	"github.com/seqsense/stereoglue/internal/estimator"
	"github.com/seqsense/stereoglue/internal/localopt"
	"github.com/seqsense/stereoglue/internal/neighborhood"
	"github.com/seqsense/stereoglue/internal/sampler"
	"github.com/seqsense/stereoglue/internal/scoring"
	"github.com/seqsense/stereoglue/internal/termination"
	"github.com/seqsense/stereoglue/internal/workerpool"
	"github.com/seqsense/stereoglue/mat"
)

// Sentinel errors the root package classifies into stereoglue.ErrorKind.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInsufficientData = errors.New("insufficient data for a minimal sample")
	ErrDegenerate       = errors.New("no model ever scored above the invalid sentinel")
)

// MatchTable extends scoring.MatchTable with the single best-scoring
// candidate per row, which is what the main loop's minimal-sample draw
// consults (spec.md §4.7.3.a: "pick one candidate destination per the
// sampler's policy... or best per match-score").
type MatchTable interface {
	scoring.MatchTable
	// BestCandidate returns the lowest-match-score valid destination index
	// for row, or ok=false if the row has none.
	BestCandidate(row int) (dst int, ok bool)
}

// ScoringMethod, SamplerMethod, LocalOptMethod, and TerminationMethod
// mirror their stereoglue counterparts.
type ScoringMethod int

const (
	ScoringMSAC ScoringMethod = iota
	ScoringMAGSAC
)

type SamplerMethod int

const (
	SamplerUniform SamplerMethod = iota
	SamplerPROSAC
	SamplerNeighborhoodGuided
)

type LocalOptMethod int

const (
	LocalOptNone LocalOptMethod = iota
	LocalOptNestedRANSAC
	LocalOptIRLS
)

type TerminationMethod int

const (
	TerminationRANSAC TerminationMethod = iota
	TerminationPROSAC
)

// Cadence controls when local optimization runs during the loop.
type Cadence struct {
	OnImprovement bool
	Every         int
}

// LocalOptSettings configures both Nested RANSAC and IRLS.
type LocalOptSettings struct {
	MaxIterations        int
	SampleSizeMultiplier int
	Kernel               localopt.Kernel
	Tolerance            float64
}

// Settings mirrors the subset of stereoglue.Settings the loop needs.
type Settings struct {
	MinIterations         int
	MaxIterations          int
	CoreNumber             int
	InlierThreshold        float64
	Confidence             float64
	Scoring                ScoringMethod
	Sampler                SamplerMethod
	LocalOptimization      LocalOptMethod
	FinalOptimization      LocalOptMethod
	TerminationCriterion   TerminationMethod
	LocalOpt               LocalOptSettings
	Cadence                Cadence
	DivisionNumber         int
	Seed                   int64
	MAGSACScaleMultiplier  float64

	// Logger receives phase-transition (Info) and per-iteration bookkeeping
	// (Debug) logging. Nil means Run falls back to slog.Default().
	Logger *slog.Logger
}

// Result is what Run reports back to the root package.
type Result struct {
	Model      mat.Mat3
	Score      scoring.Score
	Inliers    []scoring.MatchPair
	Iterations int
	Cancelled  bool
}

// Run executes the Initializing -> Iterating -> Optimizing -> Reporting
// loop of spec.md §4.7.
func Run(
	ctx context.Context,
	source, destination scoring.PointSource,
	matches MatchTable,
	kind estimator.Kind,
	intrinsicsSrc, intrinsicsDst *mat.Mat3,
	matchQuality []float64,
	settings Settings,
) (Result, error) {
	logger := settings.Logger
	if logger == nil {
		logger = slog.Default()
	}

	est := estimator.New(kind, intrinsicsSrc, intrinsicsDst)
	sampleSize := est.SampleSize()

	if source == nil || destination == nil || matches == nil {
		return Result{}, ErrInvalidInput
	}
	if matches.Rows() != source.Len() {
		return Result{}, ErrInvalidInput
	}
	if source.Len() < sampleSize {
		return Result{}, ErrInsufficientData
	}

	logger.Info("initializing estimator loop",
		"points", source.Len(),
		"sample_size", sampleSize,
		"sampler", settings.Sampler,
		"scoring", settings.Scoring,
	)

	samp, err := buildSampler(settings, source, destination, matchQuality)
	if err != nil {
		return Result{}, err
	}
	samp.Initialize(source.Len())

	scorer := buildScorer(settings)
	pool := workerpool.New(settings.CoreNumber)
	pick := buildCandidatePicker(settings, matches, destination)

	best := scoring.InvalidScore()
	var bestModel mat.Mat3
	var bestInliers []scoring.MatchPair

	drawn := make([]int, sampleSize)
	cancelled := false
	iterations := 0

	logger.Info("iterating", "max_iterations", settings.MaxIterations, "min_iterations", settings.MinIterations)

	for ; iterations < settings.MaxIterations; iterations++ {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			logger.Info("cancellation observed", "iteration", iterations)
			break
		}

		if !samp.Sample(source.Len(), sampleSize, drawn) {
			logger.Debug("sampler exhausted", "iteration", iterations)
			break
		}
		corr, ok := buildMinimalCorrespondences(source, destination, matches, pick, drawn)
		if !ok {
			continue
		}

		candidates := est.EstimateMinimal(corr)
		valid := make([]mat.Mat3, 0, len(candidates))
		for _, c := range candidates {
			if est.IsValidModel(c) {
				valid = append(valid, c)
			}
		}
		if len(valid) == 0 {
			continue
		}

		type scored struct {
			model mat.Mat3
			score scoring.Score
			inl   []scoring.MatchPair
		}
		results, err := workerpool.Map(ctx, pool, len(valid), func(_ context.Context, i int) (scored, error) {
			s, inl := scorer.Score(source, destination, matches, valid[i], est, settings.InlierThreshold)
			return scored{model: valid[i], score: s, inl: inl}, nil
		})
		if err != nil {
			return Result{}, err
		}

		improved := false
		for _, r := range results {
			if r.score.Better(best) {
				best, bestModel, bestInliers = r.score, r.model, r.inl
				improved = true
			}
		}

		logger.Debug("iteration complete",
			"iteration", iterations,
			"candidates", len(valid),
			"improved", improved,
			"best_quality", best.Quality,
			"best_inliers", best.Inliers,
		)

		if improved && settings.Cadence.OnImprovement {
			logger.Debug("optimizing on improvement", "iteration", iterations, "method", settings.LocalOptimization)
			bestModel, best, bestInliers = runLocalOptimizer(settings.LocalOptimization, settings, source, destination, matches, est, scorer, bestModel, best, bestInliers)
		} else if settings.Cadence.Every > 0 && iterations%settings.Cadence.Every == 0 {
			logger.Debug("optimizing on cadence", "iteration", iterations, "method", settings.LocalOptimization)
			bestModel, best, bestInliers = runLocalOptimizer(settings.LocalOptimization, settings, source, destination, matches, est, scorer, bestModel, best, bestInliers)
		}

		term := buildTermination(settings)
		totalPoints := source.Len()
		if term.ShouldTerminate(iterations+1, best.Inliers, totalPoints, sampleSize, settings.Confidence, settings.MinIterations, settings.MaxIterations) {
			iterations++
			logger.Info("termination criterion met", "iteration", iterations)
			break
		}
	}

	if !best.Valid {
		if cancelled {
			logger.Info("reporting cancelled result", "iterations", iterations)
			return Result{Cancelled: true, Iterations: iterations}, nil
		}
		logger.Info("reporting degenerate result", "iterations", iterations)
		return Result{}, ErrDegenerate
	}

	logger.Info("optimizing final model", "method", settings.FinalOptimization)
	bestModel, best, bestInliers = runLocalOptimizer(settings.FinalOptimization, settings, source, destination, matches, est, scorer, bestModel, best, bestInliers)

	logger.Info("reporting result",
		"iterations", iterations,
		"inliers", best.Inliers,
		"quality", best.Quality,
		"cancelled", cancelled,
	)

	return Result{
		Model:      bestModel,
		Score:      best,
		Inliers:    bestInliers,
		Iterations: iterations,
		Cancelled:  cancelled,
	}, nil
}

// candidatePicker resolves one source row to the destination index the main
// loop should pair it with for a minimal sample, per spec.md §4.7.3.a's
// "pick one candidate destination per the sampler's policy".
type candidatePicker func(row int) (dst int, ok bool)

func buildMinimalCorrespondences(source, destination scoring.PointSource, matches MatchTable, pick candidatePicker, drawn []int) ([]estimator.Correspondence, bool) {
	corr := make([]estimator.Correspondence, len(drawn))
	for i, srcIdx := range drawn {
		dstIdx, ok := pick(srcIdx)
		if !ok {
			return nil, false
		}
		corr[i] = estimator.Correspondence{Src: source.Point(srcIdx), Dst: destination.Point(dstIdx)}
	}
	return corr, true
}

// buildCandidatePicker implements spec.md §4.7.3.a's two policies: a
// uniformly random valid candidate for SamplerUniform, or the best
// per-match-score candidate (matches.BestCandidate) for the
// quality-ranking samplers, since PROSAC and neighborhood-guided sampling
// already reason about candidates by quality. The uniform picker's RNG
// stream is seeded separately from the sampler's own, so changing the
// candidate-selection policy never perturbs which minimal samples get
// drawn.
func buildCandidatePicker(settings Settings, matches MatchTable, destination scoring.PointSource) candidatePicker {
	if settings.Sampler != SamplerUniform {
		return matches.BestCandidate
	}
	rng := rand.New(rand.NewSource(settings.Seed ^ 0x6a09e667f3bcc909))
	valid := make([]int, 0, matches.K())
	return func(row int) (int, bool) {
		valid = valid[:0]
		for k := 0; k < matches.K(); k++ {
			c := matches.Candidate(row, k)
			if c >= 0 && c < destination.Len() {
				valid = append(valid, c)
			}
		}
		if len(valid) == 0 {
			return -1, false
		}
		return valid[rng.Intn(len(valid))], true
	}
}

func buildSampler(settings Settings, source, destination scoring.PointSource, matchQuality []float64) (sampler.Sampler, error) {
	switch settings.Sampler {
	case SamplerPROSAC:
		return sampler.NewPROSAC(settings.Seed, matchQuality), nil
	case SamplerNeighborhoodGuided:
		graph, err := neighborhood.Build(pointAtAdapter{source}, pointAtAdapter{destination}, settings.DivisionNumber)
		if err != nil {
			return nil, err
		}
		return sampler.NewNeighborhoodGuided(settings.Seed, graph), nil
	default:
		return sampler.NewUniform(settings.Seed), nil
	}
}

// pointAtAdapter re-exposes a scoring.PointSource as a
// neighborhood.PointAt; the method sets are identical, but Go requires the
// concrete adapter because neither package may import the other's
// interface type to express it directly without creating a dependency
// edge between sibling internal packages.
type pointAtAdapter struct {
	scoring.PointSource
}

func buildScorer(settings Settings) scoring.Scorer {
	if settings.Scoring == ScoringMAGSAC {
		return scoring.MAGSAC{ScaleMultiplier: settings.MAGSACScaleMultiplier}
	}
	return scoring.Truncated{}
}

func buildTermination(settings Settings) interface {
	ShouldTerminate(iterationsDone, currentInlierCount, totalPoints, sampleSize int, confidence float64, minIterations, maxIterations int) bool
} {
	if settings.TerminationCriterion == TerminationPROSAC {
		return termination.PROSAC{}
	}
	return termination.RANSAC{}
}

func runLocalOptimizer(
	method LocalOptMethod,
	settings Settings,
	source, destination scoring.PointSource,
	matches MatchTable,
	est estimator.Estimator,
	scorer scoring.Scorer,
	model mat.Mat3,
	score scoring.Score,
	inliers []scoring.MatchPair,
) (mat.Mat3, scoring.Score, []scoring.MatchPair) {
	switch method {
	case LocalOptNestedRANSAC:
		opt := localopt.NestedRANSAC{
			MaxIterations:        settings.LocalOpt.MaxIterations,
			SampleSizeMultiplier: settings.LocalOpt.SampleSizeMultiplier,
			Rng:                  rand.New(rand.NewSource(settings.Seed ^ 0x27d4eb2f)),
		}
		return opt.Optimize(source, destination, matches, est, scorer, settings.InlierThreshold, model, score, inliers)
	case LocalOptIRLS:
		opt := localopt.IRLS{
			MaxIterations: settings.LocalOpt.MaxIterations,
			Tolerance:     settings.LocalOpt.Tolerance,
			Kernel:        settings.LocalOpt.Kernel,
		}
		return opt.Optimize(source, destination, matches, est, scorer, settings.InlierThreshold, model, score, inliers)
	default:
		return model, score, inliers
	}
}
