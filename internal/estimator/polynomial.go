package estimator

import (
	"math"

	gonum "gonum.org/v1/gonum/mat"
)

// cubicRealRoots returns the real roots of a*x^3 + b*x^2 + c*x + d = 0 via
// the companion-matrix eigenvalue method: the roots of a monic polynomial
// are the eigenvalues of its companion matrix, which gonum's general
// eigendecomposition (also "assumed available" per spec.md §1) gives us
// without hand-rolling Cardano's formula.
func cubicRealRoots(a, b, c, d float64) []float64 {
	if a == 0 {
		return quadraticRealRoots(b, c, d)
	}
	b, c, d = b/a, c/a, d/a
	companion := gonum.NewDense(3, 3, []float64{
		0, 0, -d,
		1, 0, -c,
		0, 1, -b,
	})

	var eig gonum.Eigen
	if !eig.Factorize(companion, gonum.EigenNone) {
		return nil
	}
	values := eig.Values(nil)
	roots := make([]float64, 0, 3)
	for _, v := range values {
		if imagNegligible(v) {
			roots = append(roots, real(v))
		}
	}
	return roots
}

func quadraticRealRoots(a, b, c float64) []float64 {
	if a == 0 {
		if b == 0 {
			return nil
		}
		return []float64{-c / b}
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return nil
	}
	sq := math.Sqrt(disc)
	return []float64{(-b + sq) / (2 * a), (-b - sq) / (2 * a)}
}

func imagNegligible(v complex128) bool {
	const eps = 1e-6
	im := imag(v)
	return im < eps && im > -eps
}
