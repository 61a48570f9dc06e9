package estimator

import (
	"math"

	gonum "gonum.org/v1/gonum/mat"

	"github.com/seqsense/stereoglue/mat"
)

// homographyEstimator implements the normalized Direct Linear Transform
// (DLT), Hartley & Zisserman "Multiple View Geometry" Algorithm 4.1/4.2 —
// the same algorithm other_examples/viamrobotics-rdk__homographies.go
// implements against gonum, grounding the choice of library here.
type homographyEstimator struct{}

func (homographyEstimator) SampleSize() int          { return 4 }
func (homographyEstimator) NonMinimalSampleSize() int { return 6 }

func (h homographyEstimator) EstimateMinimal(corr []Correspondence) []mat.Mat3 {
	model, ok := h.EstimateNonMinimal(corr, nil)
	if !ok {
		return nil
	}
	return []mat.Mat3{model}
}

func (homographyEstimator) EstimateNonMinimal(corr []Correspondence, weights []float64) (mat.Mat3, bool) {
	n := len(corr)
	if n < 4 {
		return mat.Mat3{}, false
	}

	srcPts := make([]mat.Vec2, n)
	dstPts := make([]mat.Vec2, n)
	for i, c := range corr {
		srcPts[i] = c.Src
		dstPts[i] = c.Dst
	}
	normSrc, tSrc := normalize(srcPts)
	normDst, tDst := normalize(dstPts)

	a := gonum.NewDense(2*n, 9, nil)
	for i := 0; i < n; i++ {
		x, y := normSrc[i][0], normSrc[i][1]
		xp, yp := normDst[i][0], normDst[i][1]
		w := 1.0
		if weights != nil {
			w = math.Sqrt(math.Max(weights[i], 0))
		}
		a.SetRow(2*i, []float64{
			-w * x, -w * y, -w, 0, 0, 0, w * x * xp, w * y * xp, w * xp,
		})
		a.SetRow(2*i+1, []float64{
			0, 0, 0, -w * x, -w * y, -w, w * x * yp, w * y * yp, w * yp,
		})
	}

	sol := smallestSingularVector(a)
	if sol == nil {
		return mat.Mat3{}, false
	}
	var hn mat.Mat3
	copy(hn[:], sol)

	tDstInv := invert3(tDst)
	model := tDstInv.Mul(hn).Mul(tSrc)
	if !finiteMat3(model) {
		return mat.Mat3{}, false
	}
	return model, true
}

// Residual is the symmetric transfer error: the average of the forward
// (src->dst) and backward (dst->src) reprojection distances in pixels.
func (homographyEstimator) Residual(model mat.Mat3, src, dst mat.Vec2) float64 {
	fwd := model.MulVec3(src.Homogeneous())
	if fwd[2] == 0 {
		return math.Inf(1)
	}
	fwdP := fwd.Dehomogenize()
	fwdErr := fwdP.Sub(dst).Norm()

	inv := invert3(model)
	bwd := inv.MulVec3(dst.Homogeneous())
	if bwd[2] == 0 {
		return math.Inf(1)
	}
	bwdP := bwd.Dehomogenize()
	bwdErr := bwdP.Sub(src).Norm()

	return (fwdErr + bwdErr) / 2
}

func (homographyEstimator) IsValidModel(model mat.Mat3) bool {
	if !finiteMat3(model) {
		return false
	}
	det := model.Det()
	return math.Abs(det) > 1e-12
}

func finiteMat3(m mat.Mat3) bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
