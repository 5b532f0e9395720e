package scene

import (
	"go.viam.com/scenemotion/interpolator"
	"go.viam.com/scenemotion/referenceframe"
	spatial "go.viam.com/scenemotion/spatialmath"
)

// orientationSuffix names the orientation frame nested under each node's position frame.
const orientationSuffix = ":orientation"

// OrientationFrameName returns the name of the orientation frame of the named node. Attached nodes are
// parented to their host's orientation frame.
func OrientationFrameName(name string) string {
	return name + orientationSuffix
}

// Node is one animated entity. It owns a position transform group, an orientation transform group
// nested under it, and, when movable, one interpolator for each. The host is held by name.
type Node struct {
	name    string
	kind    string
	movable bool

	position    *referenceframe.TransformGroup
	orientation *referenceframe.TransformGroup
	path        *interpolator.PathInterpolator
	rotation    *interpolator.RotationInterpolator

	host string
}

func newNode(name, kind string, movable bool, position, orientation *referenceframe.TransformGroup) *Node {
	n := &Node{
		name:        name,
		kind:        kind,
		movable:     movable,
		position:    position,
		orientation: orientation,
	}
	if movable {
		n.path = interpolator.NewPathInterpolator(position, orientation)
		n.rotation = interpolator.NewRotationInterpolator(orientation)
	}
	return n
}

func (n *Node) attached() bool {
	return n.host != ""
}

func (n *Node) moving() bool {
	return n.path != nil && n.path.Enabled()
}

func (n *Node) rotating() bool {
	return n.rotation != nil && n.rotation.Enabled()
}

// stopMovement stops the path driver, including any orientation it writes.
func (n *Node) stopMovement() {
	if n.path != nil {
		n.path.Stop()
	}
}

// stopOrientationDrivers stops everything writing the orientation group.
func (n *Node) stopOrientationDrivers() {
	if n.rotation != nil {
		n.rotation.Stop()
	}
	if n.path != nil {
		n.path.StopFacingTrack()
	}
}

// tick runs both interpolators once and returns how many wrote.
func (n *Node) tick() int {
	wrote := 0
	if n.path != nil && n.path.Process() {
		wrote++
	}
	if n.rotation != nil && n.rotation.Process() {
		wrote++
	}
	return wrote
}

// rebaseDrivers keeps running animations continuous after the node's position frame moved from a
// parent at oldParent to one at newParent (both world poses) and its orientation group was rewritten
// from the given value.
func (n *Node) rebaseDrivers(oldParent, newParent spatial.Pose, from spatial.Orientation) {
	to := n.orientation.Orientation()
	if n.path != nil {
		n.path.Rebase(spatial.PoseBetween(newParent, oldParent), from, to)
	}
	if n.rotation != nil {
		n.rotation.Rebase(from, to)
	}
}
