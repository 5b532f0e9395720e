package referenceframe

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	spatial "go.viam.com/scenemotion/spatialmath"
)

func buildTestFS(t *testing.T) FrameSystem {
	t.Helper()
	fs := NewEmptyFrameSystem("test")
	test.That(t, fs.AddFrame(NewTransformGroup("host", spatial.NewPoseFromPoint(r3.Vector{X: 5})), World), test.ShouldBeNil)
	test.That(t, fs.AddFrame(NewTransformGroup("host:orientation", spatial.NewPoseFromOrientation(spatial.RotZ(math.Pi/2))), "host"),
		test.ShouldBeNil)
	test.That(t, fs.AddFrame(NewTransformGroup("cargo", spatial.NewPoseFromPoint(r3.Vector{X: 1})), "host:orientation"), test.ShouldBeNil)
	return fs
}

func TestFrameSystemBasics(t *testing.T) {
	fs := buildTestFS(t)
	test.That(t, fs.Name(), test.ShouldEqual, "test")
	test.That(t, fs.World().Name(), test.ShouldEqual, World)
	test.That(t, fs.Frame("cargo").Name(), test.ShouldEqual, "cargo")
	test.That(t, fs.Frame(World), test.ShouldEqual, fs.World())
	test.That(t, fs.Frame("nope"), test.ShouldBeNil)

	parent, err := fs.Parent("cargo")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, parent, test.ShouldEqual, "host:orientation")
	_, err = fs.Parent(World)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = fs.Parent("nope")
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, fs.Children(World), test.ShouldResemble, []string{"host"})

	chain, err := fs.TracebackFrame("cargo")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(chain), test.ShouldEqual, 4)
	test.That(t, chain[0].Name(), test.ShouldEqual, "cargo")
	test.That(t, chain[3].Name(), test.ShouldEqual, World)

	t.Run("add errors", func(t *testing.T) {
		test.That(t, fs.AddFrame(NewTransformGroup("host", nil), World), test.ShouldNotBeNil)
		test.That(t, fs.AddFrame(NewTransformGroup("x", nil), "missing"), test.ShouldNotBeNil)
		test.That(t, fs.AddFrame(nil, World), test.ShouldNotBeNil)
	})
}

func TestFrameSystemTransforms(t *testing.T) {
	fs := buildTestFS(t)
	world, err := fs.TransformToWorld("cargo")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.PoseAlmostCoincident(world, spatial.NewPoseFromPoint(r3.Vector{X: 5, Y: 1})), test.ShouldBeTrue)
	test.That(t, spatial.OrientationAlmostEqual(world.Orientation(), spatial.RotZ(math.Pi/2)), test.ShouldBeTrue)

	rel, err := fs.Transform("cargo", "host")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.PoseAlmostCoincident(rel, spatial.NewPoseFromPoint(r3.Vector{Y: 1})), test.ShouldBeTrue)

	self, err := fs.Transform("cargo", "cargo")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.PoseAlmostEqual(self, spatial.NewZeroPose()), test.ShouldBeTrue)

	_, err = fs.Transform("a", "b")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"a"`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"b"`)

	fs.Frame("host").SetPoint(r3.Vector{X: -1})
	world, err = fs.TransformToWorld("cargo")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.PoseAlmostCoincident(world, spatial.NewPoseFromPoint(r3.Vector{X: -1, Y: 1})), test.ShouldBeTrue)
}

func TestFrameSystemReparent(t *testing.T) {
	fs := buildTestFS(t)
	test.That(t, fs.Reparent("cargo", World), test.ShouldBeNil)
	world, err := fs.TransformToWorld("cargo")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.PoseAlmostCoincident(world, spatial.NewPoseFromPoint(r3.Vector{X: 1})), test.ShouldBeTrue)

	test.That(t, fs.Reparent("host", "cargo"), test.ShouldBeNil)
	err = fs.Reparent("cargo", "host:orientation")
	test.That(t, errors.Is(err, ErrFrameCycle), test.ShouldBeTrue)
	err = fs.Reparent("cargo", "cargo")
	test.That(t, errors.Is(err, ErrFrameCycle), test.ShouldBeTrue)
	test.That(t, fs.Reparent(World, "cargo"), test.ShouldNotBeNil)
	test.That(t, fs.Reparent("missing", World), test.ShouldNotBeNil)
	test.That(t, fs.Reparent("cargo", "missing"), test.ShouldNotBeNil)
}

func TestFrameSystemRemoveAndVisibility(t *testing.T) {
	fs := buildTestFS(t)
	test.That(t, fs.SetHidden("host", true), test.ShouldBeNil)
	test.That(t, fs.Hidden("host"), test.ShouldBeTrue)
	test.That(t, fs.Hidden("cargo"), test.ShouldBeFalse)
	test.That(t, fs.Rendered("cargo"), test.ShouldBeFalse)
	test.That(t, fs.Rendered("host"), test.ShouldBeFalse)
	test.That(t, fs.SetHidden("host", true), test.ShouldBeNil)
	test.That(t, fs.SetHidden("host", false), test.ShouldBeNil)
	test.That(t, fs.Rendered("cargo"), test.ShouldBeTrue)
	test.That(t, fs.SetHidden(World, true), test.ShouldNotBeNil)
	test.That(t, fs.Rendered("missing"), test.ShouldBeFalse)

	fs.RemoveFrame("host")
	test.That(t, fs.Frame("host"), test.ShouldBeNil)
	test.That(t, fs.Frame("host:orientation"), test.ShouldBeNil)
	test.That(t, fs.Frame("cargo"), test.ShouldBeNil)
	fs.RemoveFrame(World)
	test.That(t, fs.Frame(World), test.ShouldNotBeNil)
}

func TestTransformGroup(t *testing.T) {
	tg := NewTransformGroup("tg", spatial.NewPose(r3.Vector{X: 1}, spatial.RotX(0.5)))
	tg.SetPoint(r3.Vector{Y: 2})
	test.That(t, spatial.OrientationAlmostEqual(tg.Orientation(), spatial.RotX(0.5)), test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(tg.Point(), r3.Vector{Y: 2}, 1e-9), test.ShouldBeTrue)
	tg.SetOrientation(spatial.RotY(1))
	test.That(t, spatial.R3VectorAlmostEqual(tg.Point(), r3.Vector{Y: 2}, 1e-9), test.ShouldBeTrue)
	tg.SetPose(nil)
	test.That(t, spatial.PoseAlmostEqual(tg.Pose(), spatial.NewZeroPose()), test.ShouldBeTrue)
}
