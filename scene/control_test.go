package scene

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/scenemotion/interpolator"
	"go.viam.com/scenemotion/logging"
	"go.viam.com/scenemotion/vizclock"
)

func TestControlFanOut(t *testing.T) {
	mock := clock.NewMock()
	logger, logs := logging.NewObservedTestLogger(t)
	c := NewControl(vizclock.NewWithClock(mock), logger)

	left, err := c.AddModule("left")
	test.That(t, err, test.ShouldBeNil)
	right, err := c.AddModule("right", WithSpawnPosition(r3.Vector{}))
	test.That(t, err, test.ShouldBeNil)
	_, err = c.AddModule("left")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, c.ModuleNames(), test.ShouldResemble, []string{"left", "right"})
	got, ok := c.Module("right")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got, test.ShouldEqual, right)

	test.That(t, c.Apply(CreateNodeCommand{Name: "agv", Movable: true}), test.ShouldBeNil)
	test.That(t, left.NodeNames(), test.ShouldResemble, []string{"agv"})
	test.That(t, right.NodeNames(), test.ShouldResemble, []string{"agv"})

	profile := interpolator.MotionProfile{Durations: [3]float64{0, 4, 0}, Speeds: [3]float64{1, 1, 1}}
	test.That(t, c.Apply(MoveCommand{Name: "agv", Waypoints: []r3.Vector{{}, {X: 4}}, Profile: profile}), test.ShouldBeNil)
	test.That(t, c.Active(), test.ShouldBeTrue)
	mock.Add(time.Second)
	test.That(t, c.Tick(), test.ShouldEqual, 2)

	frames, err := c.Snapshot()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(frames), test.ShouldEqual, 2)
	for _, f := range frames {
		pointAlmostEqual(t, f.Nodes[0].World.Translation.R3(), r3.Vector{X: 1})
	}

	test.That(t, right.Remove("agv"), test.ShouldBeNil)
	err = c.Apply(DetachCommand{Name: "agv"})
	test.That(t, IsNodeNotFoundError(err), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, `module "right"`)
	test.That(t, logs.FilterMessage("command failed").Len(), test.ShouldEqual, 1)

	c.RemoveModule("right")
	c.RemoveModule("right")
	test.That(t, c.ModuleNames(), test.ShouldResemble, []string{"left"})
}

func TestControlExecutionSpeed(t *testing.T) {
	mock := clock.NewMock()
	logger, logs := logging.NewObservedTestLogger(t)
	c := NewControl(vizclock.NewWithClock(mock), logger)
	test.That(t, c.ExecutionSpeed(), test.ShouldEqual, 1.0)

	c.SetExecutionSpeed(2)
	test.That(t, c.ExecutionSpeed(), test.ShouldEqual, 2.0)
	mock.Add(time.Second)
	test.That(t, c.Clock().Now(), test.ShouldEqual, 2*time.Second)

	c.SetExecutionSpeed(0)
	c.SetExecutionSpeed(-3)
	test.That(t, c.ExecutionSpeed(), test.ShouldEqual, 2.0)
	test.That(t, logs.FilterMessage("ignoring non-positive execution speed").Len(), test.ShouldEqual, 2)

	c.Pause()
	mock.Add(time.Second)
	test.That(t, c.Clock().Now(), test.ShouldEqual, 2*time.Second)
	c.Resume()
	mock.Add(time.Second)
	test.That(t, c.Clock().Now(), test.ShouldEqual, 4*time.Second)
}
