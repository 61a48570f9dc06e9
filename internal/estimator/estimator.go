// Package estimator implements the minimal/non-minimal geometric solvers of
// spec.md §4.3 (Homography, Fundamental, Essential) behind a closed-set
// Estimator interface. The DLT/8-point/5-point-linear numerics lean on
// gonum.org/v1/gonum/mat's SVD, grounded on
// other_examples/viamrobotics-rdk__homographies.go's use of the same
// package for normalized-DLT homography estimation; spec.md §1 treats this
// linear-algebra layer as an assumed-available external collaborator.
package estimator

import (
	"math"

	gonum "gonum.org/v1/gonum/mat"

	"github.com/seqsense/stereoglue/mat"
)

// Correspondence is one (source, destination) point pair in pixel
// coordinates.
type Correspondence struct {
	Src mat.Vec2
	Dst mat.Vec2
}

// Estimator abstracts the solver family for one geometry, per spec.md §4.3.
type Estimator interface {
	// SampleSize is the minimal correspondence count: 4/7/5 for
	// homography/fundamental/essential.
	SampleSize() int
	// NonMinimalSampleSize is the correspondence count the non-minimal
	// refit expects when a caller doesn't just pass "all inliers".
	NonMinimalSampleSize() int
	// EstimateMinimal yields 0..M candidate models from exactly
	// SampleSize() correspondences.
	EstimateMinimal(corr []Correspondence) []mat.Mat3
	// EstimateNonMinimal refits a single model from >= SampleSize()
	// correspondences, optionally weighted (nil weights means uniform).
	EstimateNonMinimal(corr []Correspondence, weights []float64) (mat.Mat3, bool)
	// Residual is the geometric error of one correspondence under model,
	// in pixel units.
	Residual(model mat.Mat3, src, dst mat.Vec2) float64
	// IsValidModel rejects degenerate solutions: non-finite entries, a
	// near-zero determinant (homography), or the wrong singular-value
	// signature (fundamental, essential). It sees only the model, so no
	// chirality or oriented-epipolar test is made.
	IsValidModel(model mat.Mat3) bool
}

// New constructs the Estimator for kind. intrinsicsSrc/intrinsicsDst are
// required (non-nil) for Essential and ignored otherwise.
func New(kind Kind, intrinsicsSrc, intrinsicsDst *mat.Mat3) Estimator {
	switch kind {
	case KindFundamental:
		return &fundamentalEstimator{}
	case KindEssential:
		return &essentialEstimator{
			kSrc:    *intrinsicsSrc,
			kDst:    *intrinsicsDst,
			kSrcInv: invert3(*intrinsicsSrc),
			kDstInv: invert3(*intrinsicsDst),
		}
	default:
		return &homographyEstimator{}
	}
}

// Kind mirrors stereoglue.ProblemType without importing the root package
// (which imports this one), avoiding an import cycle.
type Kind int

const (
	KindHomography Kind = iota
	KindFundamental
	KindEssential
)

// normalize applies Hartley normalization: translate the centroid to the
// origin and scale so the average point distance from the origin is
// sqrt(2). Returns the normalized points and the 3x3 transform T such that
// normalized = T * homogeneous(original).
func normalize(points []mat.Vec2) ([]mat.Vec2, mat.Mat3) {
	n := float64(len(points))
	var cx, cy float64
	for _, p := range points {
		cx += p[0]
		cy += p[1]
	}
	cx /= n
	cy /= n

	var meanDist float64
	for _, p := range points {
		dx, dy := p[0]-cx, p[1]-cy
		meanDist += math.Hypot(dx, dy)
	}
	meanDist /= n
	if meanDist == 0 {
		meanDist = 1
	}
	scale := math.Sqrt2 / meanDist

	out := make([]mat.Vec2, len(points))
	for i, p := range points {
		out[i] = mat.Vec2{(p[0] - cx) * scale, (p[1] - cy) * scale}
	}

	t := mat.Mat3{
		scale, 0, -scale * cx,
		0, scale, -scale * cy,
		0, 0, 1,
	}
	return out, t
}

// invert3 inverts a 3x3 matrix via its adjugate; used for small, well
// conditioned matrices (calibration intrinsics, homographies) where a full
// gonum LU factorization would be overkill.
func invert3(m mat.Mat3) mat.Mat3 {
	det := m.Det()
	if det == 0 {
		return mat.Mat3{}
	}
	invDet := 1 / det
	a, b, c := m[0], m[1], m[2]
	d, e, f := m[3], m[4], m[5]
	g, h, i := m[6], m[7], m[8]
	return mat.Mat3{
		(e*i - f*h) * invDet, (c*h - b*i) * invDet, (b*f - c*e) * invDet,
		(f*g - d*i) * invDet, (a*i - c*g) * invDet, (c*d - a*f) * invDet,
		(d*h - e*g) * invDet, (b*g - a*h) * invDet, (a*e - b*d) * invDet,
	}
}

// smallestSingularVector returns the right-singular vector of A associated
// with its smallest singular value, i.e. the least-squares solution of
// Ax=0 subject to |x|=1 — the standard DLT null-space extraction.
func smallestSingularVector(a *gonum.Dense) []float64 {
	var svd gonum.SVD
	ok := svd.Factorize(a, gonum.SVDFull)
	if !ok {
		return nil
	}
	var v gonum.Dense
	svd.VTo(&v)
	rows, cols := v.Dims()
	col := make([]float64, rows)
	gonum.Col(col, cols-1, &v)
	return col
}

// enforceRank2 zeroes the smallest singular value of a 3x3 matrix,
// projecting it onto the rank-2 manifold (fundamental matrix singularity
// constraint).
func enforceRank2(m mat.Mat3) mat.Mat3 {
	d := m.ToDense()
	var svd gonum.SVD
	ok := svd.Factorize(d, gonum.SVDFull)
	if !ok {
		return m
	}
	sv := svd.Values(nil)
	var u, v gonum.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sigma := gonum.NewDense(3, 3, nil)
	sigma.Set(0, 0, sv[0])
	sigma.Set(1, 1, sv[1])
	sigma.Set(2, 2, 0)

	var tmp, out gonum.Dense
	tmp.Mul(&u, sigma)
	out.Mul(&tmp, v.T())
	return mat.Mat3FromDense(&out)
}
