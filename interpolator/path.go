package interpolator

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/scenemotion/referenceframe"
	spatial "go.viam.com/scenemotion/spatialmath"
	"go.viam.com/scenemotion/vizclock"
)

// PathInterpolator moves a transform group along a polyline according to a MotionProfile. When started
// facing the track, it also turns a second transform group so the object's front (-Z) points along the
// current segment.
type PathInterpolator struct {
	position    *referenceframe.TransformGroup
	orientation *referenceframe.TransformGroup

	alpha     *vizclock.Alpha
	waypoints []r3.Vector
	profile   MotionProfile
	lengths   LengthRecord
	faceTrack bool
	up        r3.Vector
	lastAlpha float64
	enabled   bool

	// frame carries path coordinates into the current parent of the position group, and facing
	// prefixes every look-at orientation. Both start as identity and change only through Rebase.
	frame  spatial.Pose
	facing spatial.Orientation
}

// NewPathInterpolator returns a disabled interpolator writing positions to position and, when facing
// the track, orientations to orientation.
func NewPathInterpolator(position, orientation *referenceframe.TransformGroup) *PathInterpolator {
	return &PathInterpolator{position: position, orientation: orientation, up: spatial.YAxis, lastAlpha: math.NaN()}
}

// Start begins a motion driven by alpha, replacing any motion in progress.
func (pi *PathInterpolator) Start(alpha *vizclock.Alpha, waypoints []r3.Vector, profile MotionProfile) error {
	return pi.start(alpha, waypoints, profile, false, spatial.YAxis)
}

// StartFacingTrack begins a motion like Start, and additionally turns the orientation group to face
// the direction of travel with the given up vector. A zero up vector means +Y.
func (pi *PathInterpolator) StartFacingTrack(alpha *vizclock.Alpha, waypoints []r3.Vector, profile MotionProfile, up r3.Vector) error {
	if up.Norm() == 0 {
		up = spatial.YAxis
	}
	return pi.start(alpha, waypoints, profile, true, up)
}

func (pi *PathInterpolator) start(alpha *vizclock.Alpha, waypoints []r3.Vector, profile MotionProfile, faceTrack bool, up r3.Vector) error {
	if err := ValidateMotion(waypoints, profile); err != nil {
		return err
	}
	pi.alpha = alpha
	pi.waypoints = append([]r3.Vector(nil), waypoints...)
	pi.profile = profile
	pi.lengths = NewLengthRecord(pi.waypoints)
	pi.faceTrack = faceTrack
	pi.up = up
	pi.lastAlpha = math.NaN()
	pi.frame = spatial.NewZeroPose()
	pi.facing = spatial.NewZeroOrientation()
	pi.enabled = true
	return nil
}

// Rebase keeps a motion in progress continuous after its node changed parent. frame is the old parent
// expressed in the new one; from and to are the orientation group before and after the change. It
// does nothing when no motion is running.
func (pi *PathInterpolator) Rebase(frame spatial.Pose, from, to spatial.Orientation) {
	if !pi.enabled {
		return
	}
	pi.frame = spatial.Compose(frame, pi.frame)
	pi.facing = spatial.ComposeOrientations(to, spatial.OrientationInverse(from), pi.facing)
}

// Stop disables the interpolator and drops its driver. The pose keeps the last written value.
func (pi *PathInterpolator) Stop() {
	pi.enabled = false
	pi.alpha = nil
}

// StopFacingTrack keeps the motion going but stops writing orientations.
func (pi *PathInterpolator) StopFacingTrack() {
	pi.faceTrack = false
}

// Enabled reports whether a motion is in progress.
func (pi *PathInterpolator) Enabled() bool {
	return pi.enabled
}

// FacingTrack reports whether the current motion also drives the orientation.
func (pi *PathInterpolator) FacingTrack() bool {
	return pi.faceTrack
}

// Profile returns the profile of the current or last motion.
func (pi *PathInterpolator) Profile() MotionProfile {
	return pi.profile
}

// Waypoints returns a copy of the waypoints of the current or last motion.
func (pi *PathInterpolator) Waypoints() []r3.Vector {
	return append([]r3.Vector(nil), pi.waypoints...)
}

// Lengths returns the arc-length table of the current or last motion.
func (pi *PathInterpolator) Lengths() LengthRecord {
	return pi.lengths
}

// Distance returns the distance along the path at progress value a.
func (pi *PathInterpolator) Distance(a float64) float64 {
	return pi.profile.Distance(a * pi.profile.Total())
}

// PositionAt returns the point at the given arc length along the path and the direction of the segment
// containing it. Distances past the end clamp to the last waypoint with a zero direction.
func (pi *PathInterpolator) PositionAt(distance float64) (point, direction r3.Vector) {
	return positionAt(pi.waypoints, pi.lengths, distance)
}

func positionAt(waypoints []r3.Vector, lengths LengthRecord, distance float64) (r3.Vector, r3.Vector) {
	for i := 1; i < len(lengths); i++ {
		if lengths[i] < distance {
			continue
		}
		segment := waypoints[i].Sub(waypoints[i-1])
		span := lengths[i] - lengths[i-1]
		if span == 0 {
			return waypoints[i-1], segment
		}
		ratio := (distance - lengths[i-1]) / span
		return waypoints[i-1].Add(segment.Mul(ratio)), segment
	}
	if len(waypoints) == 0 {
		return r3.Vector{}, r3.Vector{}
	}
	return waypoints[len(waypoints)-1], r3.Vector{}
}

// Process evaluates the motion at the driver's current progress and writes the result if the progress
// changed since the last call. It returns whether anything was written. A finished driver is stopped
// after its final write.
func (pi *PathInterpolator) Process() bool {
	if !pi.enabled || pi.alpha == nil {
		return false
	}
	a := pi.alpha.Value()
	wrote := false
	if a != pi.lastAlpha {
		point, direction := pi.PositionAt(pi.Distance(a))
		pi.position.SetPoint(spatial.Compose(pi.frame, spatial.NewPoseFromPoint(point)).Point())
		if pi.faceTrack && pi.orientation != nil {
			if o, ok := spatial.LookAt(direction, pi.up); ok {
				pi.orientation.SetOrientation(spatial.ComposeOrientations(pi.facing, o))
			}
		}
		pi.lastAlpha = a
		wrote = true
	}
	if pi.alpha.Finished() {
		pi.Stop()
	}
	return wrote
}
