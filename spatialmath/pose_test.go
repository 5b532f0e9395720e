package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestPoseAccessors(t *testing.T) {
	p := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, RotZ(math.Pi/2))
	vectorAlmostEqual(t, p.Point(), r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, OrientationAlmostEqual(p.Orientation(), RotZ(math.Pi/2)), test.ShouldBeTrue)

	zero := NewZeroPose()
	vectorAlmostEqual(t, zero.Point(), r3.Vector{})
	test.That(t, OrientationAlmostEqual(zero.Orientation(), NewZeroOrientation()), test.ShouldBeTrue)

	pt := NewPoseFromPoint(r3.Vector{Y: -100})
	test.That(t, OrientationAlmostEqual(pt.Orientation(), NewZeroOrientation()), test.ShouldBeTrue)
	vectorAlmostEqual(t, pt.Point(), r3.Vector{Y: -100})

	moved := PoseWithPoint(p, r3.Vector{Z: 9})
	vectorAlmostEqual(t, moved.Point(), r3.Vector{Z: 9})
	test.That(t, OrientationAlmostEqual(moved.Orientation(), p.Orientation()), test.ShouldBeTrue)
}

func TestCompose(t *testing.T) {
	parent := NewPose(r3.Vector{X: 5}, RotZ(math.Pi/2))
	child := NewPoseFromPoint(r3.Vector{X: 1})
	world := Compose(parent, child)
	vectorAlmostEqual(t, world.Point(), r3.Vector{X: 5, Y: 1})
	test.That(t, OrientationAlmostEqual(world.Orientation(), RotZ(math.Pi/2)), test.ShouldBeTrue)

	chained := Compose(NewPoseFromPoint(r3.Vector{X: 5}), NewPoseFromOrientation(RotZ(math.Pi/2)), child)
	test.That(t, PoseAlmostEqual(chained, world), test.ShouldBeTrue)
}

func TestPoseInverse(t *testing.T) {
	p := NewPose(r3.Vector{X: 1, Y: -2, Z: 7}, RotationAbout(r3.Vector{X: 1, Y: 1}, 0.7))
	test.That(t, PoseAlmostEqual(Compose(p, PoseInverse(p)), NewZeroPose()), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Compose(PoseInverse(p), p), NewZeroPose()), test.ShouldBeTrue)

	q := NewPose(r3.Vector{Z: 4}, RotX(0.3))
	test.That(t, PoseAlmostEqual(Compose(p, PoseBetween(p, q)), q), test.ShouldBeTrue)
}

func TestComposeStaysRigid(t *testing.T) {
	step := NewPose(r3.Vector{X: 0.1}, RotationAbout(r3.Vector{X: 0.3, Y: 1, Z: -0.2}, 0.01))
	acc := NewZeroPose()
	for i := 0; i < 10000; i++ {
		acc = Compose(acc, step)
	}
	q := acc.Orientation().Quaternion()
	norm := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	test.That(t, norm, test.ShouldAlmostEqual, 1, 1e-9)
}

func TestPoseAlmostEqual(t *testing.T) {
	a := NewPose(r3.Vector{X: 1}, RotY(0.2))
	b := NewPose(r3.Vector{X: 1 + 1e-8}, RotY(0.2))
	c := NewPose(r3.Vector{X: 1}, RotY(0.3))
	test.That(t, PoseAlmostEqual(a, b), test.ShouldBeTrue)
	test.That(t, PoseAlmostCoincident(a, c), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(a, c), test.ShouldBeFalse)
	test.That(t, PoseString(a), test.ShouldContainSubstring, "X:1.0000")
}
