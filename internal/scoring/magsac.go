package scoring

import (
	"math"

	"github.com/seqsense/stereoglue/mat"
)

// magsacSteps is the number of discrete noise-scale samples used to
// approximate MAGSAC's marginalization integral. Large enough to smooth
// over the scale range without the per-candidate cost dominating scoring.
const magsacSteps = 10

// MAGSAC marginalizes the per-residual likelihood over a distribution of
// plausible noise scales sigma in (0, ScaleMultiplier * threshold], instead
// of committing to one hard inlier threshold the way Truncated does — it
// still reports an Inliers count at threshold so callers can build an
// InlierSet, but Quality is the scale-marginalized likelihood sum.
type MAGSAC struct {
	// ScaleMultiplier sets the upper end of the marginalization range as a
	// multiple of threshold (DESIGN.md's Open Question resolution; default
	// 3, matching stereoglue.DefaultSettings().MAGSACScaleMultiplier).
	ScaleMultiplier float64
}

func (m MAGSAC) Score(source, destination PointSource, matches MatchTable, model mat.Mat3, est Estimator, threshold float64) (Score, []MatchPair) {
	multiplier := m.ScaleMultiplier
	if multiplier <= 0 {
		multiplier = 3
	}
	maxScale := threshold * multiplier

	var likelihood float64
	var inliers []MatchPair

	for row := 0; row < matches.Rows(); row++ {
		dst, residual, ok := bestCandidate(source, destination, matches, model, est, row)
		if !ok {
			continue
		}
		likelihood += marginalizedWeight(residual, maxScale)
		if residual <= threshold {
			inliers = append(inliers, MatchPair{Src: row, Dst: dst})
		}
	}

	return Score{Valid: true, Quality: likelihood, Inliers: len(inliers), Likelihood: likelihood}, inliers
}

// marginalizedWeight approximates the integral of a Gaussian likelihood
// over noise scales uniformly sampled in (0, maxScale], giving a
// continuous, threshold-independent per-residual weight in (0, 1].
func marginalizedWeight(residual, maxScale float64) float64 {
	if maxScale <= 0 {
		return 0
	}
	step := maxScale / magsacSteps
	var sum float64
	for i := 1; i <= magsacSteps; i++ {
		sigma := step * float64(i)
		sum += math.Exp(-(residual * residual) / (2 * sigma * sigma))
	}
	return sum / magsacSteps
}
