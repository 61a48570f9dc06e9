package estimator

import (
	"math"

	gonum "gonum.org/v1/gonum/mat"

	"github.com/seqsense/stereoglue/mat"
)

// essentialEstimator estimates the essential matrix relating two calibrated
// cameras. Per the Open Question resolution recorded in DESIGN.md, this is
// the simplified single-candidate linear solver: normalize by the known
// intrinsics, run the same 8-point-style linear DLT as the fundamental
// estimator on the calibrated correspondences, then project onto the
// essential manifold (equal non-zero singular values) instead of solving
// the full quintic/Groebner-basis 5-point system spec.md §1 treats as
// external algebraic machinery. Accuracy is traded for implementation
// simplicity; the underlying estimator/scoring/local-optimization pipeline
// is unaffected by which solver supplies candidate models.
type essentialEstimator struct {
	kSrc, kDst       mat.Mat3
	kSrcInv, kDstInv mat.Mat3
}

func (essentialEstimator) SampleSize() int           { return 5 }
func (essentialEstimator) NonMinimalSampleSize() int { return 8 }

// calibrate maps a pixel-coordinate point to normalized camera coordinates.
func (e essentialEstimator) calibrate(kInv mat.Mat3, p mat.Vec2) mat.Vec2 {
	h := kInv.MulVec3(p.Homogeneous())
	return h.Dehomogenize()
}

func (e essentialEstimator) calibrateAll(kInv mat.Mat3, points []mat.Vec2) []mat.Vec2 {
	out := make([]mat.Vec2, len(points))
	for i, p := range points {
		out[i] = e.calibrate(kInv, p)
	}
	return out
}

// EstimateMinimal falls back to the same linear solve as EstimateNonMinimal
// over the 5 calibrated correspondences; a true 5-point solver yields up to
// 10 candidates via a Groebner basis, which this simplified implementation
// does not attempt.
func (e essentialEstimator) EstimateMinimal(corr []Correspondence) []mat.Mat3 {
	if len(corr) != e.SampleSize() {
		return nil
	}
	model, ok := e.estimateLinear(corr, nil)
	if !ok {
		return nil
	}
	return []mat.Mat3{model}
}

func (e essentialEstimator) EstimateNonMinimal(corr []Correspondence, weights []float64) (mat.Mat3, bool) {
	if len(corr) < e.SampleSize() {
		return mat.Mat3{}, false
	}
	return e.estimateLinear(corr, weights)
}

func (e essentialEstimator) estimateLinear(corr []Correspondence, weights []float64) (mat.Mat3, bool) {
	srcPts, dstPts := splitCorrespondences(corr)
	calSrc := e.calibrateAll(e.kSrcInv, srcPts)
	calDst := e.calibrateAll(e.kDstInv, dstPts)

	a := buildFundamentalDesignMatrix(calSrc, calDst, weights)
	sol := smallestSingularVector(a)
	if sol == nil {
		return mat.Mat3{}, false
	}
	var raw mat.Mat3
	copy(raw[:], sol)

	essential := projectToEssentialManifold(raw)
	if !finiteMat3(essential) {
		return mat.Mat3{}, false
	}
	return essential, true
}

// projectToEssentialManifold replaces the singular values of m with
// (1, 1, 0), the defining property of a valid essential matrix: exactly two
// equal non-zero singular values and one zero.
func projectToEssentialManifold(m mat.Mat3) mat.Mat3 {
	d := m.ToDense()
	var svd gonum.SVD
	if !svd.Factorize(d, gonum.SVDFull) {
		return m
	}
	var u, v gonum.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	sigma := gonum.NewDense(3, 3, nil)
	sigma.Set(0, 0, 1)
	sigma.Set(1, 1, 1)
	sigma.Set(2, 2, 0)

	var tmp, out gonum.Dense
	tmp.Mul(&u, sigma)
	out.Mul(&tmp, v.T())
	return mat.Mat3FromDense(&out)
}

// Residual computes the Sampson distance in pixel units: the essential
// matrix is lifted to the pixel-space fundamental matrix
// F = Kdst^-T * E * Ksrc^-1 and evaluated on the raw pixel coordinates.
func (e essentialEstimator) Residual(model mat.Mat3, src, dst mat.Vec2) float64 {
	f := e.kDstInv.Transpose().Mul(model).Mul(e.kSrcInv)

	x := src.Homogeneous()
	xp := dst.Homogeneous()

	ex := f.MulVec3(x)
	etxp := f.Transpose().MulVec3(xp)

	num := xp.Dot(ex)
	num *= num

	denom := ex[0]*ex[0] + ex[1]*ex[1] + etxp[0]*etxp[0] + etxp[1]*etxp[1]
	if denom == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(num / denom)
}

// IsValidModel checks the essential-matrix singular-value signature: two
// singular values close to equal, the third close to zero.
func (essentialEstimator) IsValidModel(model mat.Mat3) bool {
	if !finiteMat3(model) {
		return false
	}
	d := model.ToDense()
	var svd gonum.SVD
	if !svd.Factorize(d, gonum.SVDFull) {
		return false
	}
	sv := svd.Values(nil)
	if sv[0] == 0 {
		return false
	}
	thirdNegligible := sv[2]/sv[0] < 1e-6
	firstTwoClose := math.Abs(sv[0]-sv[1])/sv[0] < 0.2
	return thirdNegligible && firstTwoClose
}
