// Package localopt implements spec.md §4.5's Nested RANSAC and IRLS local
// optimizers, grounded on seqsense-pcdeditor/pcd/sac/sac.go's Compute
// refit-and-rescore loop shape and
// CWBudde-MayFlyCircleFit/internal/fit/convergence.go's
// relative-improvement stopping pattern. Both variants only ever return a
// model at least as good as their input, under the shared Score ordering.
package localopt

import (
	"math/rand"

	"github.com/seqsense/stereoglue/internal/estimator"
	"github.com/seqsense/stereoglue/internal/scoring"
	"github.com/seqsense/stereoglue/mat"
)

// Optimizer refines a model/score/inlier triple. Implementations never
// return a result worse than their input.
type Optimizer interface {
	Optimize(
		source, destination scoring.PointSource,
		matches scoring.MatchTable,
		est estimator.Estimator,
		scorer scoring.Scorer,
		threshold float64,
		model mat.Mat3,
		score scoring.Score,
		inliers []scoring.MatchPair,
	) (mat.Mat3, scoring.Score, []scoring.MatchPair)
}

// Kernel mirrors stereoglue.RobustKernel without importing the root
// package, the same import-cycle workaround internal/estimator.Kind uses.
type Kernel int

const (
	KernelCauchy Kernel = iota
	KernelHuber
)

func drawDistinct(rng *rand.Rand, pool []scoring.MatchPair, k int) []scoring.MatchPair {
	scratch := append([]scoring.MatchPair(nil), pool...)
	for i := 0; i < k && i < len(scratch); i++ {
		j := i + rng.Intn(len(scratch)-i)
		scratch[i], scratch[j] = scratch[j], scratch[i]
	}
	return scratch[:k]
}

func toCorrespondences(source, destination scoring.PointSource, pairs []scoring.MatchPair) []estimator.Correspondence {
	corr := make([]estimator.Correspondence, len(pairs))
	for i, mp := range pairs {
		corr[i] = estimator.Correspondence{
			Src: source.Point(mp.Src),
			Dst: destination.Point(mp.Dst),
		}
	}
	return corr
}
