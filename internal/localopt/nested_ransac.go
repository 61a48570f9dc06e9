package localopt

import (
	"math/rand"

	"github.com/seqsense/stereoglue/internal/estimator"
	"github.com/seqsense/stereoglue/internal/scoring"
	"github.com/seqsense/stereoglue/mat"
)

// NestedRANSAC repeatedly refits a non-minimal model from a random
// subsample of the current inliers, rescores over the full data, and
// adopts the refit whenever it beats the best seen so far — resetting the
// subsample pool to the new inlier set on adoption.
type NestedRANSAC struct {
	MaxIterations        int
	SampleSizeMultiplier int
	Rng                  *rand.Rand
}

func (n NestedRANSAC) Optimize(
	source, destination scoring.PointSource,
	matches scoring.MatchTable,
	est estimator.Estimator,
	scorer scoring.Scorer,
	threshold float64,
	model mat.Mat3,
	score scoring.Score,
	inliers []scoring.MatchPair,
) (mat.Mat3, scoring.Score, []scoring.MatchPair) {
	nonMinimal := est.NonMinimalSampleSize()
	if len(inliers) < nonMinimal+1 {
		return model, score, inliers
	}

	rng := n.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	maxIter := n.MaxIterations
	if maxIter <= 0 {
		maxIter = 50
	}
	multiplier := n.SampleSizeMultiplier
	if multiplier <= 0 {
		multiplier = 7
	}

	bestModel, bestScore, bestInliers := model, score, inliers
	pool := append([]scoring.MatchPair(nil), inliers...)

	for iter := 0; iter < maxIter; iter++ {
		k := multiplier * nonMinimal
		if k > len(pool)-1 {
			k = len(pool) - 1
		}
		if k < nonMinimal {
			break
		}

		subsample := drawDistinct(rng, pool, k)
		corr := toCorrespondences(source, destination, subsample)
		candidate, ok := est.EstimateNonMinimal(corr, nil)
		if !ok || !est.IsValidModel(candidate) {
			continue
		}

		candScore, candInliers := scorer.Score(source, destination, matches, candidate, est, threshold)
		if candScore.Better(bestScore) {
			bestModel, bestScore, bestInliers = candidate, candScore, candInliers
			pool = append([]scoring.MatchPair(nil), candInliers...)
		}
	}

	return bestModel, bestScore, bestInliers
}
