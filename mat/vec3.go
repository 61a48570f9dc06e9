package mat

import "math"

// Vec3 is a homogeneous point or a 3-vector, generalized from
// seqsense-pcdeditor/mat.Vec3 to float64 and the algebra the estimators need
// (Cross, Dehomogenize) instead of the WebGL-oriented transform helpers the
// teacher kept alongside it.
type Vec3 [3]float64

func NewVec3(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

func (v Vec3) Add(a Vec3) Vec3 {
	return Vec3{v[0] + a[0], v[1] + a[1], v[2] + a[2]}
}

func (v Vec3) Sub(a Vec3) Vec3 {
	return Vec3{v[0] - a[0], v[1] - a[1], v[2] - a[2]}
}

func (v Vec3) Mul(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (v Vec3) Dot(a Vec3) float64 {
	return v[0]*a[0] + v[1]*a[1] + v[2]*a[2]
}

func (v Vec3) Cross(a Vec3) Vec3 {
	return Vec3{
		v[1]*a[2] - v[2]*a[1],
		v[2]*a[0] - v[0]*a[2],
		v[0]*a[1] - v[1]*a[0],
	}
}

func (v Vec3) NormSq() float64 {
	return v.Dot(v)
}

func (v Vec3) Norm() float64 {
	return math.Sqrt(v.NormSq())
}

func (v Vec3) Normalized() Vec3 {
	return v.Mul(1 / v.Norm())
}

// Dehomogenize projects a homogeneous point back to the image plane,
// dividing through by the third coordinate.
func (v Vec3) Dehomogenize() Vec2 {
	return Vec2{v[0] / v[2], v[1] / v[2]}
}
