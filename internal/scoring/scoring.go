// Package scoring implements spec.md §4.4's Truncated (MSAC) and MAGSAC
// scoring strategies, grounded on
// seqsense-pcdeditor/pcd/sac/surface.go's Inliers(threshold) scan: for each
// row, find the single best-fitting candidate and accumulate a per-row
// cost. Score and MatchPair are local types mirroring the root package's so
// this package never imports it (root imports this package; the reverse
// would cycle).
package scoring

import "github.com/seqsense/stereoglue/mat"

// MatchPair mirrors stereoglue.MatchPair.
type MatchPair struct {
	Src int
	Dst int
}

// Score mirrors stereoglue.Score; see that type for the ordering contract.
type Score struct {
	Valid      bool
	Quality    float64
	Inliers    int
	Likelihood float64
}

// InvalidScore returns the sentinel score every valid score beats.
func InvalidScore() Score {
	return Score{}
}

func (s Score) Less(o Score) bool {
	if !s.Valid || !o.Valid {
		if s.Valid == o.Valid {
			return false
		}
		return !s.Valid
	}
	if s.Quality != o.Quality {
		return s.Quality < o.Quality
	}
	return s.Inliers < o.Inliers
}

func (s Score) Better(o Score) bool {
	return o.Less(s)
}

// PointSource abstracts read access to a point cloud, satisfied by
// *stereoglue.DataMatrix without importing it.
type PointSource interface {
	Point(i int) mat.Vec2
	Len() int
}

// Estimator is the subset of internal/estimator.Estimator scoring needs.
type Estimator interface {
	Residual(model mat.Mat3, src, dst mat.Vec2) float64
}

// MatchTable abstracts read access to a match table. Candidate must return
// a negative value (or one out-of-range against the destination cloud's
// Len()) to mean "no candidate at this slot" — the caller (scoring) checks
// bounds itself.
type MatchTable interface {
	Rows() int
	K() int
	Candidate(row, k int) int
}

// Scorer evaluates a candidate model against every match and reports a
// Score plus the inlier pairs it found, per spec.md §4.4's multi-match
// contract.
type Scorer interface {
	Score(source, destination PointSource, matches MatchTable, model mat.Mat3, est Estimator, threshold float64) (Score, []MatchPair)
}

// bestCandidate scans row i's K candidates and returns the destination
// index with the smallest residual, breaking ties by lower destination
// index (spec.md §4.4's determinism rule). ok is false when row i has no
// valid candidate at all.
func bestCandidate(source, destination PointSource, matches MatchTable, model mat.Mat3, est Estimator, row int) (dst int, residual float64, ok bool) {
	dst = -1
	residual = -1
	for k := 0; k < matches.K(); k++ {
		c := matches.Candidate(row, k)
		if c < 0 || c >= destination.Len() {
			continue
		}
		r := est.Residual(model, source.Point(row), destination.Point(c))
		if !ok || r < residual || (r == residual && c < dst) {
			dst = c
			residual = r
			ok = true
		}
	}
	return dst, residual, ok
}
