// Package scene keeps the registry of animated nodes, applies commands to them, and advances their
// animations on each tick.
package scene

import (
	"sync"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"

	"go.viam.com/scenemotion/interpolator"
	"go.viam.com/scenemotion/logging"
	"go.viam.com/scenemotion/referenceframe"
	spatial "go.viam.com/scenemotion/spatialmath"
	"go.viam.com/scenemotion/vizclock"
)

// DefaultSpawnPosition is where new nodes appear, far enough away not to pop in before they are placed.
var DefaultSpawnPosition = r3.Vector{X: 0, Y: -100, Z: 0}

// Option configures a Scene.
type Option func(*Scene)

// WithSpawnPosition sets the position new nodes are created at.
func WithSpawnPosition(p r3.Vector) Option {
	return func(s *Scene) {
		s.spawn = p
	}
}

// WithUpVector sets the up vector used when facing the track and the command gives none.
func WithUpVector(up r3.Vector) Option {
	return func(s *Scene) {
		if up.Norm() > 0 {
			s.up = up
		}
	}
}

// Scene is a set of nodes sharing one frame system and one clock. All methods are safe for
// concurrent use; each command and each Tick runs under a single lock.
type Scene struct {
	mu     sync.Mutex
	name   string
	clock  *vizclock.Clock
	logger logging.Logger
	fs     referenceframe.FrameSystem
	nodes  map[string]*Node
	spawn  r3.Vector
	up     r3.Vector

	listenerMu sync.Mutex
	listeners  []Listener
}

// New returns an empty scene driven by clock.
func New(name string, clock *vizclock.Clock, logger logging.Logger, opts ...Option) *Scene {
	s := &Scene{
		name:   name,
		clock:  clock,
		logger: logger,
		fs:     referenceframe.NewEmptyFrameSystem(name),
		nodes:  map[string]*Node{},
		spawn:  DefaultSpawnPosition,
		up:     spatial.YAxis,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the name of the scene.
func (s *Scene) Name() string {
	return s.name
}

// Clock returns the clock driving the scene.
func (s *Scene) Clock() *vizclock.Clock {
	return s.clock
}

func (s *Scene) nodeLocked(name string) (*Node, error) {
	n, ok := s.nodes[name]
	if !ok {
		return nil, NewNodeNotFoundError(name)
	}
	return n, nil
}

// CreateNode adds a free node at the spawn position with identity orientation.
func (s *Scene) CreateNode(name, kind string, movable bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" || name == referenceframe.World {
		return errors.Errorf("invalid node name %q", name)
	}
	if _, ok := s.nodes[name]; ok {
		return errors.Wrapf(ErrNodeExists, "%q", name)
	}
	for _, frame := range []string{name, OrientationFrameName(name)} {
		if s.fs.Frame(frame) != nil {
			return errors.Wrapf(ErrNodeExists, "frame %q is in use", frame)
		}
	}
	position := referenceframe.NewTransformGroup(name, spatial.NewPoseFromPoint(s.spawn))
	orientation := referenceframe.NewTransformGroup(OrientationFrameName(name), nil)
	if err := s.fs.AddFrame(position, referenceframe.World); err != nil {
		return err
	}
	if err := s.fs.AddFrame(orientation, name); err != nil {
		s.fs.RemoveFrame(name)
		return err
	}
	s.nodes[name] = newNode(name, kind, movable, position, orientation)
	s.logger.Debugw("created node", "node", name, "kind", kind, "movable", movable)
	return nil
}

// Move starts moving the node along waypoints. With faceDirection the node also turns to face the
// direction of travel, using up, or the scene's up vector when up is nil. Any motion in progress is
// replaced.
func (s *Scene) Move(name string, waypoints []r3.Vector, profile interpolator.MotionProfile, faceDirection bool, up *r3.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.nodeLocked(name)
	if err != nil {
		return err
	}
	if !n.movable {
		return errors.Wrapf(ErrNodeNotMovable, "cannot move %q", name)
	}
	if err := interpolator.ValidateMotion(waypoints, profile); err != nil {
		return errors.Wrapf(err, "cannot move %q", name)
	}
	alpha := vizclock.NewAlpha(s.clock, profile.TotalDuration())
	if faceDirection {
		upVec := s.up
		if up != nil && up.Norm() > 0 {
			upVec = *up
		}
		n.stopOrientationDrivers()
		err = n.path.StartFacingTrack(alpha, waypoints, profile, upVec)
	} else {
		err = n.path.Start(alpha, waypoints, profile)
	}
	if err != nil {
		return err
	}
	s.logger.Debugw("move", "node", name, "waypoints", len(waypoints), "duration", profile.TotalDuration(), "face", faceDirection)
	return nil
}

// Rotate turns the node by angle radians about axis, given in the node's local frame. A non-positive
// duration applies the rotation at once, which static nodes allow too.
func (s *Scene) Rotate(name string, axis r3.Vector, angle float64, duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.nodeLocked(name)
	if err != nil {
		return err
	}
	if axis.Norm() == 0 {
		return errors.Wrapf(ErrInvalidRotationAxis, "cannot rotate %q", name)
	}
	if duration <= 0 {
		n.stopOrientationDrivers()
		n.orientation.SetOrientation(spatial.ComposeOrientations(n.orientation.Orientation(), spatial.RotationAbout(axis, angle)))
		s.logger.Debugw("rotate immediately", "node", name, "angle", angle)
		return nil
	}
	if !n.movable {
		return errors.Wrapf(ErrNodeNotMovable, "cannot animate rotation of %q", name)
	}
	n.stopOrientationDrivers()
	n.rotation.Start(vizclock.NewAlpha(s.clock, duration), angle, interpolator.AxisRemap(axis), n.orientation.Orientation())
	s.logger.Debugw("rotate", "node", name, "angle", angle, "duration", duration)
	return nil
}

// SetPosition stops any motion and writes the local position. The local rotation of the position
// transform is kept.
func (s *Scene) SetPosition(name string, position r3.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.nodeLocked(name)
	if err != nil {
		return err
	}
	n.stopMovement()
	n.position.SetPoint(position)
	return nil
}

// SetOrientation stops any driver of the orientation and writes it.
func (s *Scene) SetOrientation(name string, orientation spatial.Orientation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.nodeLocked(name)
	if err != nil {
		return err
	}
	n.stopOrientationDrivers()
	n.orientation.SetOrientation(orientation)
	return nil
}

// InterruptMovement stops the motion and forces the position the caller reports it stopped at.
func (s *Scene) InterruptMovement(name string, stoppedAt r3.Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.nodeLocked(name)
	if err != nil {
		return err
	}
	if !n.movable {
		return errors.Wrapf(ErrNodeNotMovable, "cannot interrupt %q", name)
	}
	n.stopMovement()
	n.position.SetPoint(stoppedAt)
	s.logger.Debugw("interrupted movement", "node", name, "at", stoppedAt)
	return nil
}

// InterruptRotation stops the rotation and forces the orientation the caller reports it stopped at.
func (s *Scene) InterruptRotation(name string, stoppedAt spatial.Orientation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.nodeLocked(name)
	if err != nil {
		return err
	}
	if !n.movable {
		return errors.Wrapf(ErrNodeNotMovable, "cannot interrupt %q", name)
	}
	n.rotation.Stop()
	n.orientation.SetOrientation(stoppedAt)
	s.logger.Debugw("interrupted rotation", "node", name)
	return nil
}

// Attach parents the node to host's orientation frame without changing its world pose. Attaching an
// attached node does nothing.
func (s *Scene) Attach(name, host string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.nodeLocked(name)
	if err != nil {
		return err
	}
	h, err := s.nodeLocked(host)
	if err != nil {
		return err
	}
	if n.attached() {
		return nil
	}
	if !n.movable || !h.movable {
		return errors.Wrapf(ErrNodeNotMovable, "cannot attach %q to %q", name, host)
	}
	for cur := host; cur != ""; cur = s.nodes[cur].host {
		if cur == name {
			return errors.Wrapf(ErrAttachmentCycle, "cannot attach %q to %q", name, host)
		}
	}

	hostWorld, err := s.fs.TransformToWorld(OrientationFrameName(host))
	if err != nil {
		return err
	}
	local, err := s.fs.Transform(OrientationFrameName(name), OrientationFrameName(host))
	if err != nil {
		return err
	}
	from := n.orientation.Orientation()
	n.orientation.SetPose(spatial.NewZeroPose())
	n.position.SetPose(local)
	if err := s.fs.Reparent(name, OrientationFrameName(host)); err != nil {
		return err
	}
	n.rebaseDrivers(spatial.NewZeroPose(), hostWorld, from)
	n.host = host
	s.logger.Debugw("attached", "node", name, "host", host)
	return nil
}

// Detach parents the node back to the world without changing its world pose. Detaching a free node
// does nothing.
func (s *Scene) Detach(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.nodeLocked(name)
	if err != nil {
		return err
	}
	return s.detachLocked(n)
}

func (s *Scene) detachLocked(n *Node) error {
	if !n.attached() {
		return nil
	}
	hostWorld, err := s.fs.TransformToWorld(OrientationFrameName(n.host))
	if err != nil {
		return err
	}
	world, err := s.fs.TransformToWorld(OrientationFrameName(n.name))
	if err != nil {
		return err
	}
	from := n.orientation.Orientation()
	n.position.SetPose(spatial.NewPoseFromPoint(world.Point()))
	n.orientation.SetPose(spatial.NewPoseFromOrientation(world.Orientation()))
	if err := s.fs.Reparent(n.name, referenceframe.World); err != nil {
		return err
	}
	n.rebaseDrivers(hostWorld, spatial.NewZeroPose(), from)
	s.logger.Debugw("detached", "node", n.name, "host", n.host)
	n.host = ""
	return nil
}

// SetVisible shows or hides the node and everything attached to it. Transforms are not touched.
func (s *Scene) SetVisible(name string, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.nodeLocked(name)
	if err != nil {
		return err
	}
	if s.fs.Hidden(n.name) != visible {
		return nil
	}
	return s.fs.SetHidden(n.name, !visible)
}

// Remove detaches the node, detaches every node attached to it, and then destroys it.
func (s *Scene) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.nodeLocked(name)
	if err != nil {
		return err
	}
	if err := s.detachLocked(n); err != nil {
		return err
	}
	for _, child := range s.fs.Children(OrientationFrameName(name)) {
		if err := s.detachLocked(s.nodes[child]); err != nil {
			return err
		}
	}
	n.stopMovement()
	n.stopOrientationDrivers()
	s.fs.RemoveFrame(name)
	delete(s.nodes, name)
	s.logger.Debugw("removed node", "node", name)
	return nil
}

// Tick advances every active animation once and returns how many transforms were written.
func (s *Scene) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	wrote := 0
	for _, n := range s.sortedNodesLocked() {
		wrote += n.tick()
	}
	return wrote
}

// Active reports whether any node is still animating.
func (s *Scene) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.SomeBy(lo.Values(s.nodes), func(n *Node) bool { return n.moving() || n.rotating() })
}

func (s *Scene) sortedNodesLocked() []*Node {
	names := lo.Keys(s.nodes)
	slices.Sort(names)
	return lo.Map(names, func(name string, _ int) *Node { return s.nodes[name] })
}

// NodeNames returns the sorted names of all nodes.
func (s *Scene) NodeNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := lo.Keys(s.nodes)
	slices.Sort(names)
	return names
}

// WorldPose returns the node's pose resolved through its attachment chain.
func (s *Scene) WorldPose(name string) (spatial.Pose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.nodeLocked(name); err != nil {
		return nil, err
	}
	return s.fs.TransformToWorld(OrientationFrameName(name))
}

// Node returns the current state of one node.
func (s *Scene) Node(name string) (NodeState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.nodeLocked(name)
	if err != nil {
		return NodeState{}, err
	}
	return s.stateLocked(n)
}

func (s *Scene) stateLocked(n *Node) (NodeState, error) {
	world, err := s.fs.TransformToWorld(OrientationFrameName(n.name))
	if err != nil {
		return NodeState{}, err
	}
	parent, err := s.fs.Parent(n.name)
	if err != nil {
		return NodeState{}, err
	}
	return NodeState{
		Name:        n.name,
		Kind:        n.kind,
		Movable:     n.movable,
		Parent:      parent,
		Host:        n.host,
		Position:    NewTransform(n.position.Pose()),
		Orientation: NewTransform(n.orientation.Pose()),
		World:       NewTransform(world),
		Visible:     !s.fs.Hidden(n.name),
		Rendered:    s.fs.Rendered(n.name),
		Moving:      n.moving(),
		Rotating:    n.rotating(),
	}, nil
}

// Snapshot returns the state of every node at the current virtual time.
func (s *Scene) Snapshot() (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := Frame{Scene: s.name, Time: s.clock.Now(), Nodes: []NodeState{}}
	for _, n := range s.sortedNodesLocked() {
		state, err := s.stateLocked(n)
		if err != nil {
			return Frame{}, err
		}
		frame.Nodes = append(frame.Nodes, state)
	}
	return frame, nil
}
