package scoring

import "github.com/seqsense/stereoglue/mat"

// Truncated is MSAC-style scoring: per-residual cost
// max(0, 1 - (r/threshold)^2), summed over the best candidate of each row
// that falls within threshold.
type Truncated struct{}

func (Truncated) Score(source, destination PointSource, matches MatchTable, model mat.Mat3, est Estimator, threshold float64) (Score, []MatchPair) {
	var quality float64
	var inliers []MatchPair

	for row := 0; row < matches.Rows(); row++ {
		dst, residual, ok := bestCandidate(source, destination, matches, model, est, row)
		if !ok || residual > threshold {
			continue
		}
		inliers = append(inliers, MatchPair{Src: row, Dst: dst})
		ratio := residual / threshold
		cost := 1 - ratio*ratio
		if cost > 0 {
			quality += cost
		}
	}

	return Score{Valid: true, Quality: quality, Inliers: len(inliers)}, inliers
}
