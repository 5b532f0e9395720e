package interpolator

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/scenemotion/referenceframe"
	spatial "go.viam.com/scenemotion/spatialmath"
	"go.viam.com/scenemotion/vizclock"
)

const axisEpsilon = 1e-9

// AxisRemap returns the orientation that carries +Y onto axis, so a rotation about +Y inside it is a
// rotation about axis. X and Z use fixed quarter turns.
func AxisRemap(axis r3.Vector) spatial.Orientation {
	if axis.Norm() == 0 {
		return spatial.NewZeroOrientation()
	}
	a := axis.Normalize()
	switch {
	case spatial.R3VectorAlmostEqual(a, spatial.XAxis, axisEpsilon):
		return spatial.RotZ(-math.Pi / 2)
	case spatial.R3VectorAlmostEqual(a, spatial.YAxis, axisEpsilon):
		return spatial.NewZeroOrientation()
	case spatial.R3VectorAlmostEqual(a, spatial.ZAxis, axisEpsilon):
		return spatial.RotX(math.Pi / 2)
	default:
		return spatial.OrientationFromTo(spatial.YAxis, a)
	}
}

// RotationInterpolator turns a transform group from a captured starting orientation by a target angle
// about an axis.
type RotationInterpolator struct {
	target *referenceframe.TransformGroup

	alpha        *vizclock.Alpha
	angle        float64
	axisRemap    spatial.Orientation
	axisRemapInv spatial.Orientation
	current      spatial.Orientation
	lastAlpha    float64
	enabled      bool
}

// NewRotationInterpolator returns a disabled interpolator writing orientations to target.
func NewRotationInterpolator(target *referenceframe.TransformGroup) *RotationInterpolator {
	return &RotationInterpolator{target: target, lastAlpha: math.NaN()}
}

// Start begins a rotation of angle radians about the axis that axisRemap carries +Y onto, relative to
// current. It replaces any rotation in progress.
func (ri *RotationInterpolator) Start(alpha *vizclock.Alpha, angle float64, axisRemap, current spatial.Orientation) {
	if axisRemap == nil {
		axisRemap = spatial.NewZeroOrientation()
	}
	if current == nil {
		current = spatial.NewZeroOrientation()
	}
	ri.alpha = alpha
	ri.angle = angle
	ri.axisRemap = axisRemap
	ri.axisRemapInv = spatial.OrientationInverse(axisRemap)
	ri.current = current
	ri.lastAlpha = math.NaN()
	ri.enabled = true
}

// Compute returns the orientation at progress value a.
func (ri *RotationInterpolator) Compute(a float64) spatial.Orientation {
	return spatial.ComposeOrientations(ri.current, ri.axisRemap, spatial.RotY(a*ri.angle), ri.axisRemapInv)
}

// Process writes the orientation for the driver's current progress if it changed since the last call,
// and returns whether it wrote. A finished driver is stopped afterwards; there is no snap to the target.
func (ri *RotationInterpolator) Process() bool {
	if !ri.enabled || ri.alpha == nil {
		return false
	}
	a := ri.alpha.Value()
	wrote := false
	if a != ri.lastAlpha {
		ri.target.SetOrientation(ri.Compute(a))
		ri.lastAlpha = a
		wrote = true
	}
	if ri.alpha.Finished() {
		ri.Stop()
	}
	return wrote
}

// Rebase keeps a rotation in progress continuous after the orientation group it writes was changed
// from one value to another with the difference moved into a parent frame. It does nothing when no
// rotation is running.
func (ri *RotationInterpolator) Rebase(from, to spatial.Orientation) {
	if !ri.enabled {
		return
	}
	ri.current = spatial.ComposeOrientations(to, spatial.OrientationInverse(from), ri.current)
}

// Stop disables the interpolator. The orientation keeps the last written value.
func (ri *RotationInterpolator) Stop() {
	ri.enabled = false
	ri.alpha = nil
}

// Enabled reports whether a rotation is in progress.
func (ri *RotationInterpolator) Enabled() bool {
	return ri.enabled
}

// Angle returns the target angle of the current or last rotation.
func (ri *RotationInterpolator) Angle() float64 {
	return ri.angle
}
