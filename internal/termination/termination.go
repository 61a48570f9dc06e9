// Package termination implements spec.md §4.6's confidence-driven RANSAC
// stop rule. The formula is pure arithmetic with no natural third-party
// collaborator in the retrieved pack (DESIGN.md notes the stdlib-only
// justification); it is kept as its own package because the main loop
// (internal/loop) treats it as a swappable strategy, matching the other
// component boundaries spec.md draws.
package termination

import "math"

// RANSAC implements the classical confidence bound: required iterations
// N = log(1-confidence) / log(1 - eps^m), where eps is the observed inlier
// ratio and m is the minimal sample size, clamped to
// [minIterations, maxIterations].
type RANSAC struct{}

func (RANSAC) ShouldTerminate(iterationsDone, currentInlierCount, totalPoints, sampleSize int, confidence float64, minIterations, maxIterations int) bool {
	required := requiredIterations(currentInlierCount, totalPoints, sampleSize, confidence)
	if required < minIterations {
		required = minIterations
	}
	if required > maxIterations {
		required = maxIterations
	}
	return iterationsDone >= required
}

// PROSAC uses the same confidence bound; spec.md §4.6 does not distinguish
// a separate formula for the PROSAC termination criterion, only a
// different draw strategy upstream in the sampler, so this embeds RANSAC
// rather than duplicating the arithmetic.
type PROSAC struct {
	RANSAC
}

func requiredIterations(currentInlierCount, totalPoints, sampleSize int, confidence float64) int {
	if totalPoints <= 0 || sampleSize <= 0 {
		return math.MaxInt32
	}
	eps := float64(currentInlierCount) / float64(totalPoints)
	if eps <= 0 {
		return math.MaxInt32
	}
	if eps >= 1 {
		return 0
	}
	denom := math.Log(1 - math.Pow(eps, float64(sampleSize)))
	if denom == 0 {
		return math.MaxInt32
	}
	n := math.Log(1-confidence) / denom
	if math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return math.MaxInt32
	}
	return int(math.Ceil(n))
}
