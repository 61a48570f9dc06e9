package estimator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqsense/stereoglue/mat"
)

func pixelize(k mat.Mat3, normalized []Correspondence) []Correspondence {
	out := make([]Correspondence, len(normalized))
	for i, c := range normalized {
		out[i] = Correspondence{
			Src: k.MulVec3(c.Src.Homogeneous()).Dehomogenize(),
			Dst: k.MulVec3(c.Dst.Homogeneous()).Dehomogenize(),
		}
	}
	return out
}

func testIntrinsics() mat.Mat3 {
	return mat.Mat3{
		800, 0, 320,
		0, 800, 240,
		0, 0, 1,
	}
}

func newTestEssentialEstimator(k mat.Mat3) essentialEstimator {
	return essentialEstimator{
		kSrc: k, kDst: k,
		kSrcInv: invert3(k), kDstInv: invert3(k),
	}
}

func TestEssentialEstimateRecoversManifoldModel(t *testing.T) {
	translation := mat.NewVec3(0.3, 0.1, 0.05)
	trueE := skew3(translation)
	k := testIntrinsics()

	normalized := stereoCorrespondences(translation, append(sevenTestPoints(), mat.NewVec3(0.05, -0.1, 4.2)))
	corr := pixelize(k, normalized)

	est := newTestEssentialEstimator(k)
	model, ok := est.EstimateNonMinimal(corr, nil)
	require.True(t, ok)
	assert.Less(t, mat.FrobeniusDistance(model, trueE), 1e-2)
}

func TestEssentialEstimateMinimalReturnsSingleCandidate(t *testing.T) {
	translation := mat.NewVec3(0.3, 0.1, 0.05)
	k := testIntrinsics()
	normalized := stereoCorrespondences(translation, sevenTestPoints()[:5])
	corr := pixelize(k, normalized)

	est := newTestEssentialEstimator(k)
	models := est.EstimateMinimal(corr)
	assert.Len(t, models, 1)
}

func TestEssentialResidualNearZeroForConsistentCorrespondence(t *testing.T) {
	translation := mat.NewVec3(0.3, 0.1, 0.05)
	trueE := skew3(translation)
	k := testIntrinsics()
	normalized := stereoCorrespondences(translation, sevenTestPoints())
	corr := pixelize(k, normalized)

	est := newTestEssentialEstimator(k)
	for _, c := range corr {
		res := est.Residual(trueE, c.Src, c.Dst)
		assert.InDelta(t, 0, res, 1e-4)
	}
}

func TestEssentialIsValidModelChecksManifold(t *testing.T) {
	est := essentialEstimator{}
	assert.False(t, est.IsValidModel(mat.Identity3()))

	translation := mat.NewVec3(0.3, 0.1, 0.05)
	assert.True(t, est.IsValidModel(skew3(translation)))
}
