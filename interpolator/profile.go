// Package interpolator turns a progress value into poses: positions along a polyline driven by a
// three phase speed profile, and orientations about an arbitrary axis.
package interpolator

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/floats"

	"go.viam.com/scenemotion/utils"
)

// Phase indexes the three segments of a motion profile.
type Phase int

// The three phases of a motion.
const (
	Accelerate Phase = iota
	Cruise
	Decelerate
)

func (p Phase) String() string {
	switch p {
	case Accelerate:
		return "accelerate"
	case Cruise:
		return "cruise"
	case Decelerate:
		return "decelerate"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MotionProfile describes a three phase motion. Durations are in seconds, speeds in units per second.
// Speeds[0] is the initial speed, Speeds[1] the cruise speed, Speeds[2] the end speed.
type MotionProfile struct {
	Durations [3]float64 `json:"durations" yaml:"durations"`
	Speeds    [3]float64 `json:"speeds" yaml:"speeds"`
}

// Total returns the total duration of the motion in seconds.
func (p MotionProfile) Total() float64 {
	return floats.Sum(p.Durations[:])
}

// TotalDuration returns the total duration of the motion.
func (p MotionProfile) TotalDuration() time.Duration {
	return time.Duration(p.Total() * float64(time.Second))
}

// Acceleration returns the constant acceleration of the first phase, 0 if the phase has no duration.
func (p MotionProfile) Acceleration() float64 {
	return acceleration(p.Speeds[0], p.Speeds[1], p.Durations[0])
}

// Deceleration returns the constant acceleration of the last phase, 0 if the phase has no duration.
func (p MotionProfile) Deceleration() float64 {
	return acceleration(p.Speeds[1], p.Speeds[2], p.Durations[2])
}

// LengthEndAcc is the distance covered at the end of the first phase.
func (p MotionProfile) LengthEndAcc() float64 {
	return timedDistance(p.Durations[0], p.Speeds[0], p.Acceleration())
}

// LengthBeginDec is the distance covered at the start of the last phase.
func (p MotionProfile) LengthBeginDec() float64 {
	return p.LengthEndAcc() + p.Speeds[1]*p.Durations[1]
}

// PhaseAt returns which phase elapsed time t (seconds) falls in.
func (p MotionProfile) PhaseAt(t float64) Phase {
	switch {
	case t < p.Durations[0]:
		return Accelerate
	case t < p.Durations[0]+p.Durations[1]:
		return Cruise
	default:
		return Decelerate
	}
}

// Distance returns the distance covered after t seconds.
// Accelerating and decelerating phases are clamped at zero only when their acceleration is negative.
func (p MotionProfile) Distance(t float64) float64 {
	switch p.PhaseAt(t) {
	case Accelerate:
		return timedDistance(t, p.Speeds[0], p.Acceleration())
	case Cruise:
		return p.LengthEndAcc() + p.Speeds[1]*(t-p.Durations[0])
	default:
		tau := t - p.Durations[0] - p.Durations[1]
		return p.LengthBeginDec() + timedDistance(tau, p.Speeds[1], p.Deceleration())
	}
}

// Speed returns the instantaneous speed after t seconds.
func (p MotionProfile) Speed(t float64) float64 {
	switch p.PhaseAt(t) {
	case Accelerate:
		return p.Speeds[0] + p.Acceleration()*t
	case Cruise:
		return p.Speeds[1]
	default:
		return p.Speeds[1] + p.Deceleration()*(t-p.Durations[0]-p.Durations[1])
	}
}

func acceleration(from, to, duration float64) float64 {
	if duration == 0 {
		return 0
	}
	return (to - from) / duration
}

func timedDistance(t, speed, acc float64) float64 {
	d := speed*t + 0.5*acc*t*t
	if acc < 0 {
		return math.Max(0, d)
	}
	return d
}

// LengthRecord holds the cumulative arc length from the first waypoint to each waypoint.
type LengthRecord []float64

// NewLengthRecord computes the cumulative arc lengths of a polyline.
func NewLengthRecord(waypoints []r3.Vector) LengthRecord {
	if len(waypoints) == 0 {
		return nil
	}
	record := make(LengthRecord, len(waypoints))
	for i := 1; i < len(waypoints); i++ {
		record[i] = record[i-1] + waypoints[i].Sub(waypoints[i-1]).Norm()
	}
	return record
}

// Total returns the length of the whole polyline.
func (lr LengthRecord) Total() float64 {
	if len(lr) == 0 {
		return 0
	}
	return lr[len(lr)-1]
}

// InvalidMotionSpecError is returned when a motion command cannot be animated.
type InvalidMotionSpecError struct {
	Err error
}

func (e *InvalidMotionSpecError) Error() string {
	return "invalid motion: " + e.Err.Error()
}

// Unwrap returns the combined reasons.
func (e *InvalidMotionSpecError) Unwrap() error {
	return e.Err
}

// Reasons returns every individual problem found.
func (e *InvalidMotionSpecError) Reasons() []error {
	return multierr.Errors(e.Err)
}

// IsInvalidMotionSpecError returns whether err is or wraps an InvalidMotionSpecError.
func IsInvalidMotionSpecError(err error) bool {
	var target *InvalidMotionSpecError
	return errors.As(err, &target)
}

// ValidateMotion checks that waypoints and profile describe an animatable motion.
func ValidateMotion(waypoints []r3.Vector, profile MotionProfile) error {
	var errAll error
	if len(waypoints) < 2 {
		multierr.AppendInto(&errAll, errors.Errorf("need at least two waypoints, got %d", len(waypoints)))
	}
	for i, wp := range waypoints {
		if !utils.IsFinite(wp.X) || !utils.IsFinite(wp.Y) || !utils.IsFinite(wp.Z) {
			multierr.AppendInto(&errAll, errors.Errorf("waypoint %d is not finite: %v", i, wp))
		}
	}
	for i := range profile.Durations {
		if d := profile.Durations[i]; d < 0 || !utils.IsFinite(d) {
			multierr.AppendInto(&errAll, errors.Errorf("%s duration must be non-negative and finite, got %v", Phase(i), d))
		}
		if s := profile.Speeds[i]; !utils.IsFinite(s) {
			multierr.AppendInto(&errAll, errors.Errorf("%s speed must be finite, got %v", Phase(i), s))
		}
	}
	if errAll == nil && profile.Total() == 0 && NewLengthRecord(waypoints).Total() > 0 {
		multierr.AppendInto(&errAll, errors.New("durations sum to zero but the path has nonzero length"))
	}
	if errAll != nil {
		return &InvalidMotionSpecError{Err: errAll}
	}
	return nil
}
