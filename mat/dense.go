package mat

import gonum "gonum.org/v1/gonum/mat"

// ToDense converts a Mat3 to a gonum dense matrix for SVD/eigendecomposition,
// the linear-algebra primitives spec.md §1 treats as externally supplied.
func (m Mat3) ToDense() *gonum.Dense {
	d := gonum.NewDense(3, 3, nil)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			d.Set(r, c, m.At(r, c))
		}
	}
	return d
}

// Mat3FromDense reads the top-left 3x3 block of a gonum dense matrix.
func Mat3FromDense(d *gonum.Dense) Mat3 {
	var m Mat3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			m.Set(r, c, d.At(r, c))
		}
	}
	return m
}
