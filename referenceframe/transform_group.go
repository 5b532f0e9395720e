package referenceframe

import (
	"github.com/golang/geo/r3"

	spatial "go.viam.com/scenemotion/spatialmath"
)

// TransformGroup is a named rigid transform relative to its parent frame. It is the unit the frame
// system links together, and the thing animations write into.
type TransformGroup struct {
	name string
	pose spatial.Pose
}

// NewTransformGroup returns a transform group with the given pose. A nil pose is the identity.
func NewTransformGroup(name string, pose spatial.Pose) *TransformGroup {
	if pose == nil {
		pose = spatial.NewZeroPose()
	}
	return &TransformGroup{name: name, pose: pose}
}

// Name returns the name of the transform group.
func (tg *TransformGroup) Name() string {
	return tg.name
}

// Pose returns the local pose.
func (tg *TransformGroup) Pose() spatial.Pose {
	return tg.pose
}

// SetPose replaces the local pose.
func (tg *TransformGroup) SetPose(pose spatial.Pose) {
	if pose == nil {
		pose = spatial.NewZeroPose()
	}
	tg.pose = pose
}

// Point returns the translation of the local pose.
func (tg *TransformGroup) Point() r3.Vector {
	return tg.pose.Point()
}

// Orientation returns the rotation of the local pose.
func (tg *TransformGroup) Orientation() spatial.Orientation {
	return tg.pose.Orientation()
}

// SetPoint replaces the translation and keeps the rotation.
func (tg *TransformGroup) SetPoint(pt r3.Vector) {
	tg.pose = spatial.PoseWithPoint(tg.pose, pt)
}

// SetOrientation replaces the rotation and keeps the translation.
func (tg *TransformGroup) SetOrientation(o spatial.Orientation) {
	tg.pose = spatial.NewPose(tg.pose.Point(), o)
}
