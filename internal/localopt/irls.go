package localopt

import (
	"math"

	"github.com/seqsense/stereoglue/internal/estimator"
	"github.com/seqsense/stereoglue/internal/scoring"
	"github.com/seqsense/stereoglue/mat"
)

// IRLS iteratively reweights the inlier set by a robust kernel of the
// current model's residuals, refits non-minimally, and rescores, stopping
// when the rescored quality's relative change drops below Tolerance or
// MaxIterations is reached. Only the single best-observed refit across all
// iterations is ever returned, and only if it beats the incoming score.
type IRLS struct {
	MaxIterations int
	Tolerance     float64
	Kernel        Kernel
}

func (o IRLS) Optimize(
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
	if len(inliers) < nonMinimal {
		return model, score, inliers
	}

	maxIter := o.MaxIterations
	if maxIter <= 0 {
		maxIter = 50
	}
	tol := o.Tolerance
	if tol <= 0 {
		tol = 1e-3
	}

	bestModel, bestScore, bestInliers := model, score, inliers
	currentModel, currentInliers := model, inliers
	prevQuality := score.Quality

	for iter := 0; iter < maxIter; iter++ {
		if len(currentInliers) < nonMinimal {
			break
		}
		weights := make([]float64, len(currentInliers))
		for i, mp := range currentInliers {
			s := source.Point(mp.Src)
			d := destination.Point(mp.Dst)
			weights[i] = kernelWeight(o.Kernel, est.Residual(currentModel, s, d), threshold)
		}
		corr := toCorrespondences(source, destination, currentInliers)

		candidate, ok := est.EstimateNonMinimal(corr, weights)
		if !ok || !est.IsValidModel(candidate) {
			break
		}

		candScore, candInliers := scorer.Score(source, destination, matches, candidate, est, threshold)
		if candScore.Better(bestScore) {
			bestModel, bestScore, bestInliers = candidate, candScore, candInliers
		}

		converged := prevQuality != 0 &&
			math.Abs(candScore.Quality-prevQuality)/math.Abs(prevQuality) < tol

		currentModel, currentInliers = candidate, candInliers
		prevQuality = candScore.Quality
		if converged {
			break
		}
	}

	return bestModel, bestScore, bestInliers
}

// kernelWeight applies the Cauchy or Huber robust weighting function to a
// residual scaled by threshold, which plays the role of the kernel's
// characteristic scale.
func kernelWeight(k Kernel, residual, threshold float64) float64 {
	scale := threshold
	if scale <= 0 {
		scale = 1
	}
	switch k {
	case KernelHuber:
		if residual <= scale {
			return 1
		}
		return scale / residual
	default: // KernelCauchy
		ratio := residual / scale
		return 1 / (1 + ratio*ratio)
	}
}
