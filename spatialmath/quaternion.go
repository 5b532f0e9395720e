package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

type quaternion quat.Number

// NewQuaternion returns the unit quaternion orientation w + xi + yj + zk. The input is normalized; a zero
// quaternion is treated as no rotation.
func NewQuaternion(w, x, y, z float64) Orientation {
	return newNormalizedQuaternion(quat.Number{Real: w, Imag: x, Jmag: y, Kmag: z})
}

func newNormalizedQuaternion(q quat.Number) *quaternion {
	norm := quat.Abs(q)
	if norm == 0 {
		return &quaternion{1, 0, 0, 0}
	}
	n := quaternion(quat.Scale(1/norm, q))
	return &n
}

// Quaternion returns orientation in quaternion representation.
func (q *quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// AxisAngles returns the orientation in axis angle representation.
func (q *quaternion) AxisAngles() *R4AA {
	aa := QuatToR4AA(q.Quaternion())
	return &aa
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double
// coverage, q == -q, so both signs are accepted.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	return math.Abs(a.Real-b.Real) < tol &&
		math.Abs(a.Imag-b.Imag) < tol &&
		math.Abs(a.Jmag-b.Jmag) < tol &&
		math.Abs(a.Kmag-b.Kmag) < tol ||
		math.Abs(a.Real+b.Real) < tol &&
			math.Abs(a.Imag+b.Imag) < tol &&
			math.Abs(a.Jmag+b.Jmag) < tol &&
			math.Abs(a.Kmag+b.Kmag) < tol
}

// Norm returns the norm of the quaternion, i.e. the sqrt of the squares of the imaginary parts.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// RotateVector rotates v by the orientation o.
func RotateVector(o Orientation, v r3.Vector) r3.Vector {
	q := o.Quaternion()
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}
