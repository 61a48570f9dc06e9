package loop

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqsense/stereoglue/internal/estimator"
	"github.com/seqsense/stereoglue/mat"
)

type points []mat.Vec2

func (p points) Point(i int) mat.Vec2 { return p[i] }
func (p points) Len() int             { return len(p) }

// oneToOneMatches is the trivial identity match table: row i's only
// candidate is destination row i.
type oneToOneMatches struct {
	n int
}

func (m oneToOneMatches) Rows() int              { return m.n }
func (m oneToOneMatches) K() int                 { return 1 }
func (m oneToOneMatches) Candidate(r, k int) int { return r }
func (m oneToOneMatches) BestCandidate(r int) (int, bool) {
	return r, true
}

func syntheticHomographyScene(n int, noisy bool) (points, points, oneToOneMatches, mat.Mat3) {
	h := mat.Mat3{1, 0.05, 15, -0.02, 1, -8, 0.0001, 0.0002, 1}
	src := make(points, n)
	dst := make(points, n)
	for i := 0; i < n; i++ {
		p := mat.Vec2{float64(i%10) * 10, float64(i/10) * 10}
		src[i] = p
		d := h.MulVec3(p.Homogeneous()).Dehomogenize()
		if noisy && i%5 == 0 {
			d = d.Add(mat.Vec2{50, 50}) // gross outlier
		}
		dst[i] = d
	}
	return src, dst, oneToOneMatches{n: n}, h
}

func defaultTestSettings(seed int64) Settings {
	return Settings{
		MinIterations:         10,
		MaxIterations:         200,
		CoreNumber:            2,
		InlierThreshold:       1.0,
		Confidence:            0.99,
		Scoring:               ScoringMSAC,
		Sampler:               SamplerUniform,
		LocalOptimization:     LocalOptNestedRANSAC,
		FinalOptimization:     LocalOptIRLS,
		TerminationCriterion:  TerminationRANSAC,
		LocalOpt:              LocalOptSettings{MaxIterations: 10, SampleSizeMultiplier: 2, Tolerance: 1e-3},
		Cadence:               Cadence{OnImprovement: true},
		DivisionNumber:        4,
		Seed:                  seed,
		MAGSACScaleMultiplier: 3,
	}
}

func TestRunRecoversHomographyWithoutOutliers(t *testing.T) {
	src, dst, matches, h := syntheticHomographyScene(40, false)
	result, err := Run(context.Background(), src, dst, matches, estimator.KindHomography, nil, nil, nil, defaultTestSettings(1))
	require.NoError(t, err)
	assert.Less(t, mat.FrobeniusDistance(result.Model, h), 1e-2)
	assert.Equal(t, 40, result.Score.Inliers)
}

func TestRunRobustToOutliers(t *testing.T) {
	src, dst, matches, h := syntheticHomographyScene(40, true)
	result, err := Run(context.Background(), src, dst, matches, estimator.KindHomography, nil, nil, nil, defaultTestSettings(2))
	require.NoError(t, err)
	assert.Less(t, mat.FrobeniusDistance(result.Model, h), 1e-1)
	assert.GreaterOrEqual(t, result.Score.Inliers, 30)
}

func TestRunDeterministicAcrossRunsWithSameSeed(t *testing.T) {
	src, dst, matches, _ := syntheticHomographyScene(40, true)
	r1, err1 := Run(context.Background(), src, dst, matches, estimator.KindHomography, nil, nil, nil, defaultTestSettings(7))
	require.NoError(t, err1)
	r2, err2 := Run(context.Background(), src, dst, matches, estimator.KindHomography, nil, nil, nil, defaultTestSettings(7))
	require.NoError(t, err2)
	assert.Equal(t, r1.Score, r2.Score)
	assert.Equal(t, r1.Iterations, r2.Iterations)
}

func TestRunReturnsInsufficientDataError(t *testing.T) {
	src := points{{0, 0}, {1, 1}}
	dst := points{{0, 0}, {1, 1}}
	matches := oneToOneMatches{n: 2}
	_, err := Run(context.Background(), src, dst, matches, estimator.KindHomography, nil, nil, nil, defaultTestSettings(1))
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRunHonorsCancellation(t *testing.T) {
	src, dst, matches, _ := syntheticHomographyScene(40, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	time.Sleep(time.Millisecond)
	result, err := Run(ctx, src, dst, matches, estimator.KindHomography, nil, nil, nil, defaultTestSettings(1))
	require.NoError(t, err)
	assert.True(t, result.Cancelled)
}

// TestRunTerminatesAtMinIterationsForPerfectInlierRatio covers spec.md
// §8 invariant 4's eps=1 case: when every point is an inlier,
// requiredIterations collapses to 0, clamped up to min_iterations, so the
// loop should run for exactly min_iterations and no more.
func TestRunTerminatesAtMinIterationsForPerfectInlierRatio(t *testing.T) {
	src, dst, matches, _ := perfectHomographyScene(40)
	settings := defaultTestSettings(11)
	settings.MinIterations = 15
	settings.MaxIterations = 500

	result, err := Run(context.Background(), src, dst, matches, estimator.KindHomography, nil, nil, nil, settings)
	require.NoError(t, err)
	assert.Equal(t, settings.MinIterations, result.Iterations)
}

// perfectHomographyScene builds points in general position (no three
// collinear, unlike syntheticHomographyScene's integer grid), so every
// minimal sample yields a valid model and every point is an exact inlier.
func perfectHomographyScene(n int) (points, points, oneToOneMatches, mat.Mat3) {
	h := mat.Mat3{1, 0.05, 15, -0.02, 1, -8, 0.0001, 0.0002, 1}
	rng := rand.New(rand.NewSource(23))
	src := make(points, n)
	dst := make(points, n)
	for i := 0; i < n; i++ {
		p := mat.Vec2{rng.Float64() * 100, rng.Float64() * 100}
		src[i] = p
		dst[i] = h.MulVec3(p.Homogeneous()).Dehomogenize()
	}
	return src, dst, oneToOneMatches{n: n}, h
}

// TestRunTerminationBoundStaysWithinMinMax covers the other half of spec.md
// §8 invariant 4: iterations always lands in [min_iterations,
// max_iterations], even when the observed inlier ratio never climbs high
// enough to terminate early.
func TestRunTerminationBoundStaysWithinMinMax(t *testing.T) {
	src, dst, matches := randomUnstructuredScene(60)
	settings := defaultTestSettings(13)
	settings.MinIterations = 5
	settings.MaxIterations = 25
	settings.Confidence = 0.999
	settings.LocalOptimization = LocalOptNone
	settings.FinalOptimization = LocalOptNone

	result, err := Run(context.Background(), src, dst, matches, estimator.KindHomography, nil, nil, nil, settings)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Iterations, settings.MinIterations)
	assert.LessOrEqual(t, result.Iterations, settings.MaxIterations)
	// The scene has no consistent homography, so the inlier ratio never
	// climbs high enough to terminate before exhausting max_iterations.
	assert.Equal(t, settings.MaxIterations, result.Iterations)
}

// randomUnstructuredScene builds source/destination points with no shared
// geometric model, so no homography ever explains more than a handful of
// points by chance, keeping the observed inlier ratio low throughout.
func randomUnstructuredScene(n int) (points, points, oneToOneMatches) {
	rng := rand.New(rand.NewSource(99))
	src := make(points, n)
	dst := make(points, n)
	for i := 0; i < n; i++ {
		src[i] = mat.Vec2{rng.Float64() * 100, rng.Float64() * 100}
		dst[i] = mat.Vec2{rng.Float64() * 100, rng.Float64() * 100}
	}
	return src, dst, oneToOneMatches{n: n}
}
