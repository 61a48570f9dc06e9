package estimator

import (
	"math"

	gonum "gonum.org/v1/gonum/mat"

	"github.com/seqsense/stereoglue/mat"
)

// fundamentalEstimator implements the normalized 7-point algorithm for the
// minimal case (Hartley & Zisserman Algorithm 11.1) and the normalized
// 8-point algorithm for the non-minimal refit, both via gonum SVD.
type fundamentalEstimator struct{}

func (fundamentalEstimator) SampleSize() int           { return 7 }
func (fundamentalEstimator) NonMinimalSampleSize() int { return 8 }

func buildFundamentalDesignMatrix(normSrc, normDst []mat.Vec2, weights []float64) *gonum.Dense {
	n := len(normSrc)
	a := gonum.NewDense(n, 9, nil)
	for i := 0; i < n; i++ {
		x, y := normSrc[i][0], normSrc[i][1]
		xp, yp := normDst[i][0], normDst[i][1]
		w := 1.0
		if weights != nil {
			w = math.Max(weights[i], 0)
		}
		a.SetRow(i, []float64{
			w * xp * x, w * xp * y, w * xp,
			w * yp * x, w * yp * y, w * yp,
			w * x, w * y, w,
		})
	}
	return a
}

func (f fundamentalEstimator) EstimateMinimal(corr []Correspondence) []mat.Mat3 {
	if len(corr) != 7 {
		return nil
	}
	srcPts, dstPts := splitCorrespondences(corr)
	normSrc, tSrc := normalize(srcPts)
	normDst, tDst := normalize(dstPts)

	a := buildFundamentalDesignMatrix(normSrc, normDst, nil)

	var svd gonum.SVD
	if !svd.Factorize(a, gonum.SVDFull) {
		return nil
	}
	var v gonum.Dense
	svd.VTo(&v)
	rows, cols := v.Dims()
	f1Col := make([]float64, rows)
	f2Col := make([]float64, rows)
	gonum.Col(f1Col, cols-2, &v)
	gonum.Col(f2Col, cols-1, &v)

	var f1, f2 mat.Mat3
	copy(f1[:], f1Col)
	copy(f2[:], f2Col)

	coeffs := cubicCoefficientsOfDet(f1, f2)
	roots := cubicRealRoots(coeffs[0], coeffs[1], coeffs[2], coeffs[3])

	tDstT := tDst.Transpose()
	models := make([]mat.Mat3, 0, len(roots))
	for _, t := range roots {
		fn := addMat3(f1.Mul3Scale(t), f2)
		full := tDstT.Mul(fn).Mul(tSrc)
		full = enforceRank2(full)
		if finiteMat3(full) {
			models = append(models, full)
		}
	}
	return models
}

// cubicCoefficientsOfDet fits the cubic p(t) = det(t*f1 + f2) by evaluating
// it at four points and solving the resulting Vandermonde system, avoiding
// a hand-expanded symbolic determinant.
func cubicCoefficientsOfDet(f1, f2 mat.Mat3) [4]float64 {
	ts := [4]float64{0, 1, -1, 2}
	var vals [4]float64
	for i, t := range ts {
		vals[i] = addMat3(f1.Mul3Scale(t), f2).Det()
	}
	vand := gonum.NewDense(4, 4, nil)
	for i, t := range ts {
		vand.SetRow(i, []float64{t * t * t, t * t, t, 1})
	}
	rhs := gonum.NewDense(4, 1, vals[:])
	var coeffs gonum.Dense
	if err := coeffs.Solve(vand, rhs); err != nil {
		return [4]float64{0, 0, 0, 0}
	}
	return [4]float64{coeffs.At(0, 0), coeffs.At(1, 0), coeffs.At(2, 0), coeffs.At(3, 0)}
}

func addMat3(a, b mat.Mat3) mat.Mat3 {
	var out mat.Mat3
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

func splitCorrespondences(corr []Correspondence) ([]mat.Vec2, []mat.Vec2) {
	src := make([]mat.Vec2, len(corr))
	dst := make([]mat.Vec2, len(corr))
	for i, c := range corr {
		src[i] = c.Src
		dst[i] = c.Dst
	}
	return src, dst
}

func (fundamentalEstimator) EstimateNonMinimal(corr []Correspondence, weights []float64) (mat.Mat3, bool) {
	if len(corr) < 8 {
		return mat.Mat3{}, false
	}
	srcPts, dstPts := splitCorrespondences(corr)
	normSrc, tSrc := normalize(srcPts)
	normDst, tDst := normalize(dstPts)

	a := buildFundamentalDesignMatrix(normSrc, normDst, weights)
	sol := smallestSingularVector(a)
	if sol == nil {
		return mat.Mat3{}, false
	}
	var fn mat.Mat3
	copy(fn[:], sol)

	full := tDst.Transpose().Mul(fn).Mul(tSrc)
	full = enforceRank2(full)
	if !finiteMat3(full) {
		return mat.Mat3{}, false
	}
	return full, true
}

// Residual is the Sampson distance, the first-order approximation of
// geometric epipolar error, in pixel units.
func (fundamentalEstimator) Residual(model mat.Mat3, src, dst mat.Vec2) float64 {
	x := src.Homogeneous()
	xp := dst.Homogeneous()

	fx := model.MulVec3(x)
	ftxp := model.Transpose().MulVec3(xp)

	num := xp.Dot(model.MulVec3(x))
	num *= num

	denom := fx[0]*fx[0] + fx[1]*fx[1] + ftxp[0]*ftxp[0] + ftxp[1]*ftxp[1]
	if denom == 0 {
		return math.Inf(1)
	}
	return math.Sqrt(num / denom)
}

func (fundamentalEstimator) IsValidModel(model mat.Mat3) bool {
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
	// Rank-2 constraint: the smallest singular value should be negligible
	// relative to the largest.
	return sv[2]/sv[0] < 1e-6
}
