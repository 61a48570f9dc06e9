// Package mat provides the small amount of 2-D/3-D vector and 3x3 matrix
// algebra StereoGlue needs on top of gonum's dense linear algebra, plus the
// glue to convert between the two representations.
package mat

import "math"

// Vec2 is a point in the image plane.
type Vec2 [2]float64

func NewVec2(x, y float64) Vec2 {
	return Vec2{x, y}
}

func (v Vec2) X() float64 { return v[0] }
func (v Vec2) Y() float64 { return v[1] }

func (v Vec2) Add(a Vec2) Vec2 {
	return Vec2{v[0] + a[0], v[1] + a[1]}
}

func (v Vec2) Sub(a Vec2) Vec2 {
	return Vec2{v[0] - a[0], v[1] - a[1]}
}

func (v Vec2) Mul(s float64) Vec2 {
	return Vec2{v[0] * s, v[1] * s}
}

func (v Vec2) NormSq() float64 {
	return v[0]*v[0] + v[1]*v[1]
}

func (v Vec2) Norm() float64 {
	return math.Sqrt(v.NormSq())
}

// Homogeneous returns the point lifted into homogeneous coordinates.
func (v Vec2) Homogeneous() Vec3 {
	return Vec3{v[0], v[1], 1}
}

// Finite reports whether both components are finite, non-NaN values.
func (v Vec2) Finite() bool {
	return !math.IsNaN(v[0]) && !math.IsInf(v[0], 0) &&
		!math.IsNaN(v[1]) && !math.IsInf(v[1], 0)
}
