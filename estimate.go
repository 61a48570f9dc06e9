package stereoglue

import (
	"context"
	"errors"
	"log/slog"
	"math"

	"github.com/seqsense/stereoglue/internal/estimator"
	"github.com/seqsense/stereoglue/internal/loop"
	"github.com/seqsense/stereoglue/internal/localopt"
	"github.com/seqsense/stereoglue/internal/scoring"
	"github.com/seqsense/stereoglue/mat"
)

// Result is what Estimate reports: the best model found, its inlier set,
// its score, and the bookkeeping spec.md §6 asks for.
type Result struct {
	Model      Model
	Inliers    []MatchPair
	Score      Score
	Iterations int
	Cancelled  bool
}

// Estimate runs the robust two-view model-fitting loop of spec.md §4.7
// over source/destination point clouds and a multi-match table, following
// the CWBudde-MayFlyCircleFit convention of a single context-aware
// runJob(ctx, ...) entry point rather than a stateful session object.
//
// matches and matchScores may both be nil, in which case a 1-1
// correspondence (row i of source matches row i of destination) is
// assumed. intrinsicsSrc/intrinsicsDst are required for problemType
// Essential and ignored otherwise.
func Estimate(
	ctx context.Context,
	source, destination *DataMatrix,
	matches *MatchTable,
	matchScores *ScoreTable,
	problemType ProblemType,
	intrinsicsSrc, intrinsicsDst *mat.Mat3,
	settings Settings,
) (*Result, error) {
	if source == nil || !source.Valid() || destination == nil || !destination.Valid() {
		return nil, newError(KindInvalidInput, "source/destination matrix invalid", nil)
	}
	if problemType == Essential && (intrinsicsSrc == nil || intrinsicsDst == nil) {
		return nil, newError(KindInvalidInput, "essential estimation requires both intrinsics matrices", nil)
	}

	matches, matchScores = defaultMatches(source, destination, matches, matchScores)
	if matches.Rows != source.Rows {
		return nil, newError(KindInvalidInput, "match table row count must match source row count", nil)
	}

	kind := toEstimatorKind(problemType)
	table := &matchTableAdapter{table: matches, scores: matchScores, dstRows: destination.Rows}
	quality := bestMatchQualityPerRow(matches, matchScores, destination.Rows)

	result, err := loop.Run(ctx, source, destination, table, kind, intrinsicsSrc, intrinsicsDst, quality, toLoopSettings(settings))
	if err != nil {
		return nil, classifyLoopError(err)
	}

	return &Result{
		Model:      Model{Params: result.Model, Kind: problemType},
		Inliers:    toMatchPairs(result.Inliers),
		Score:      toScore(result.Score),
		Iterations: result.Iterations,
		Cancelled:  result.Cancelled,
	}, nil
}

func classifyLoopError(err error) error {
	switch {
	case errors.Is(err, loop.ErrInsufficientData):
		return newError(KindInsufficientData, "fewer points than the minimal sample size", err)
	case errors.Is(err, loop.ErrDegenerate):
		return newError(KindDegenerate, "no candidate model ever scored", err)
	case errors.Is(err, loop.ErrInvalidInput):
		return newError(KindInvalidInput, "invalid loop input", err)
	default:
		return newError(KindInvalidInput, "estimation failed", err)
	}
}

// defaultMatches builds the implicit 1-1 match table (row i -> row i, zero
// score) when the caller omits matches/matchScores, per spec.md §6.
func defaultMatches(source, destination *DataMatrix, matches *MatchTable, scores *ScoreTable) (*MatchTable, *ScoreTable) {
	if matches != nil {
		if scores == nil {
			scores = NewScoreTable(matches.Rows, matches.K)
		}
		return matches, scores
	}
	n := source.Rows
	mt := NewMatchTable(n, 1)
	st := NewScoreTable(n, 1)
	for i := 0; i < n; i++ {
		dst := i
		if dst >= destination.Rows {
			dst = -1
		}
		mt.Set(i, 0, dst)
	}
	return mt, st
}

func toEstimatorKind(p ProblemType) estimator.Kind {
	switch p {
	case Fundamental:
		return estimator.KindFundamental
	case Essential:
		return estimator.KindEssential
	default:
		return estimator.KindHomography
	}
}

func toLoopSettings(s Settings) loop.Settings {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return loop.Settings{
		Logger:                logger,
		MinIterations:         s.MinIterations,
		MaxIterations:         s.MaxIterations,
		CoreNumber:            s.CoreNumber,
		InlierThreshold:       s.InlierThreshold,
		Confidence:            s.Confidence,
		Scoring:               toLoopScoring(s.Scoring),
		Sampler:               toLoopSampler(s.Sampler),
		LocalOptimization:     toLoopLocalOpt(s.LocalOptimization),
		FinalOptimization:     toLoopLocalOpt(s.FinalOptimization),
		TerminationCriterion:  toLoopTermination(s.TerminationCriterion),
		LocalOpt: loop.LocalOptSettings{
			MaxIterations:        s.LocalOptimizationSettings.MaxIterations,
			SampleSizeMultiplier: s.LocalOptimizationSettings.SampleSizeMultiplier,
			Kernel:               toLoopKernel(s.LocalOptimizationSettings.Kernel),
			Tolerance:            s.LocalOptimizationSettings.Tolerance,
		},
		Cadence: loop.Cadence{
			OnImprovement: s.LocalOptimizationCadence.OnImprovement,
			Every:         s.LocalOptimizationCadence.Every,
		},
		DivisionNumber:        s.DivisionNumber,
		Seed:                  s.Seed,
		MAGSACScaleMultiplier: s.MAGSACScaleMultiplier,
	}
}

func toLoopScoring(m ScoringMethod) loop.ScoringMethod {
	if m == MAGSAC {
		return loop.ScoringMAGSAC
	}
	return loop.ScoringMSAC
}

func toLoopSampler(m SamplerMethod) loop.SamplerMethod {
	switch m {
	case SamplerPROSAC:
		return loop.SamplerPROSAC
	case SamplerNeighborhoodGuided:
		return loop.SamplerNeighborhoodGuided
	default:
		return loop.SamplerUniform
	}
}

func toLoopLocalOpt(m LocalOptimizationMethod) loop.LocalOptMethod {
	switch m {
	case LocalOptNestedRANSAC:
		return loop.LocalOptNestedRANSAC
	case LocalOptIRLS:
		return loop.LocalOptIRLS
	default:
		return loop.LocalOptNone
	}
}

func toLoopTermination(t TerminationCriterion) loop.TerminationMethod {
	if t == TerminationPROSAC {
		return loop.TerminationPROSAC
	}
	return loop.TerminationRANSAC
}

func toLoopKernel(k RobustKernel) localopt.Kernel {
	if k == Huber {
		return localopt.KernelHuber
	}
	return localopt.KernelCauchy
}

func toMatchPairs(pairs []scoring.MatchPair) []MatchPair {
	out := make([]MatchPair, len(pairs))
	for i, p := range pairs {
		out[i] = MatchPair{Src: p.Src, Dst: p.Dst}
	}
	return out
}

func toScore(s scoring.Score) Score {
	return Score{Valid: s.Valid, Quality: s.Quality, Inliers: s.Inliers, Likelihood: s.Likelihood}
}

// bestMatchQualityPerRow reduces a ScoreTable to one quality value per row
// (its minimum, since lower scores are better) for PROSAC's per-point
// quality input; rows with no valid candidate get +Inf (sorts last).
func bestMatchQualityPerRow(matches *MatchTable, scores *ScoreTable, dstRows int) []float64 {
	quality := make([]float64, matches.Rows)
	for i := 0; i < matches.Rows; i++ {
		best := math.Inf(1)
		row := scores.Row(i)
		for k := 0; k < matches.K; k++ {
			if !matches.Valid(matches.At(i, k), dstRows) {
				continue
			}
			if row[k] < best {
				best = row[k]
			}
		}
		quality[i] = best
	}
	return quality
}

// matchTableAdapter adapts *MatchTable/*ScoreTable to loop.MatchTable.
type matchTableAdapter struct {
	table   *MatchTable
	scores  *ScoreTable
	dstRows int
}

func (a *matchTableAdapter) Rows() int { return a.table.Rows }
func (a *matchTableAdapter) K() int    { return a.table.K }

func (a *matchTableAdapter) Candidate(row, k int) int {
	c := a.table.At(row, k)
	if c < 0 || c >= a.dstRows {
		return -1
	}
	return c
}

func (a *matchTableAdapter) BestCandidate(row int) (int, bool) {
	bestDst := -1
	bestScore := math.Inf(1)
	scoreRow := a.scores.Row(row)
	for k := 0; k < a.table.K; k++ {
		c := a.table.At(row, k)
		if c < 0 || c >= a.dstRows {
			continue
		}
		if scoreRow[k] < bestScore || (scoreRow[k] == bestScore && c < bestDst) {
			bestScore = scoreRow[k]
			bestDst = c
		}
	}
	return bestDst, bestDst >= 0
}
