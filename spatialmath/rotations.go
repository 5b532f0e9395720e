package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// parallelEpsilon is how close to 1 the absolute cosine between two unit vectors may get before they are
// treated as parallel.
const parallelEpsilon = 1e-9

var (
	// XAxis is the unit +X vector.
	XAxis = r3.Vector{X: 1}
	// YAxis is the unit +Y vector. Rotations in this package are performed about it after an axis remap.
	YAxis = r3.Vector{Y: 1}
	// ZAxis is the unit +Z vector.
	ZAxis = r3.Vector{Z: 1}
)

// RotX returns a rotation of angle radians about the X axis.
func RotX(angle float64) Orientation {
	return RotationAbout(XAxis, angle)
}

// RotY returns a rotation of angle radians about the Y axis.
func RotY(angle float64) Orientation {
	return RotationAbout(YAxis, angle)
}

// RotZ returns a rotation of angle radians about the Z axis.
func RotZ(angle float64) Orientation {
	return RotationAbout(ZAxis, angle)
}

// RotationAbout returns a rotation of angle radians about axis. A zero axis yields no rotation.
func RotationAbout(axis r3.Vector, angle float64) Orientation {
	if axis.Norm() == 0 {
		return NewZeroOrientation()
	}
	return newNormalizedQuaternion((&R4AA{Theta: angle, RX: axis.X, RY: axis.Y, RZ: axis.Z}).ToQuat())
}

// OrientationFromTo returns the shortest rotation carrying the direction of from onto the direction of to.
// Either vector being zero yields no rotation.
func OrientationFromTo(from, to r3.Vector) Orientation {
	if from.Norm() == 0 || to.Norm() == 0 {
		return NewZeroOrientation()
	}
	f := from.Normalize()
	t := to.Normalize()
	d := f.Dot(t)
	switch {
	case d > 1-parallelEpsilon:
		return NewZeroOrientation()
	case d < -1+parallelEpsilon:
		// half turn about any axis orthogonal to from
		return RotationAbout(f.Ortho(), math.Pi)
	}
	c := f.Cross(t)
	return newNormalizedQuaternion(quat.Number{Real: 1 + d, Imag: c.X, Jmag: c.Y, Kmag: c.Z})
}

// LookAt returns the orientation which turns an object whose front faces -Z towards direction, keeping its
// +Y as close to up as possible. This is the inverse of a look-at view transform from the origin. ok is
// false when direction has no length. If direction is parallel to up, +Z (or +X) is used as the up vector.
func LookAt(direction, up r3.Vector) (o Orientation, ok bool) {
	if direction.Norm() == 0 {
		return nil, false
	}
	if up.Norm() == 0 {
		up = YAxis
	}
	if math.Abs(direction.Normalize().Dot(up.Normalize())) > 1-parallelEpsilon {
		up = ZAxis
		if math.Abs(direction.Normalize().Dot(up)) > 1-parallelEpsilon {
			up = XAxis
		}
	}
	view := mgl64.LookAtV(
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{direction.X, direction.Y, direction.Z},
		mgl64.Vec3{up.X, up.Y, up.Z},
	)
	q := mgl64.Mat4ToQuat(view.Inv())
	return NewQuaternion(q.W, q.V.X(), q.V.Y(), q.V.Z()), true
}
