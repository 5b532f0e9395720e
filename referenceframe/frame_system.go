package referenceframe

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/exp/slices"

	spatial "go.viam.com/scenemotion/spatialmath"
)

// World is the string "world", but made into an exported constant.
const World = "world"

// FrameSystem represents a tree of transform groups connected to each other by name, allowing for transformations
// between any two frames. It is not safe for concurrent use.
type FrameSystem interface {
	// Name returns the name of this FrameSystem
	Name() string

	// World returns the frame corresponding to the root of the FrameSystem, from which other frames are defined with respect to
	World() *TransformGroup

	// Frame returns the frame with the given name, or nil
	Frame(name string) *TransformGroup

	// AddFrame inserts a given frame into the FrameSystem as a child of the named parent frame
	AddFrame(frame *TransformGroup, parent string) error

	// RemoveFrame removes the named frame and all of its descendants from the FrameSystem
	RemoveFrame(name string)

	// Reparent moves the named frame, together with its descendants, under a new parent without changing its local pose
	Reparent(name, parent string) error

	// Parent returns the name of the parent of the named frame
	Parent(name string) (string, error)

	// Children returns the sorted names of the direct children of the named frame
	Children(name string) []string

	// TracebackFrame traces the parentage of the given frame up to the world, and returns the full list of frames in between.
	// The list will include both the query frame and the world frame
	TracebackFrame(name string) ([]*TransformGroup, error)

	// TransformToWorld returns the pose of the named frame expressed in the world frame
	TransformToWorld(name string) (spatial.Pose, error)

	// Transform returns the pose of frame src expressed in frame dst
	Transform(src, dst string) (spatial.Pose, error)

	// SetHidden marks the named frame's branch as hidden or shown. Transforms are not touched
	SetHidden(name string, hidden bool) error

	// Hidden reports whether the named frame itself is marked hidden
	Hidden(name string) bool

	// Rendered reports whether the named frame exists and neither it nor any ancestor is hidden
	Rendered(name string) bool
}

// simpleFrameSystem implements FrameSystem. It is a simple tree graph.
type simpleFrameSystem struct {
	name    string
	world   *TransformGroup // separate from the map of frames so it can never be removed
	frames  map[string]*TransformGroup
	parents map[string]string
	hidden  map[string]bool
}

// NewEmptyFrameSystem creates an empty frame system containing only the world frame.
func NewEmptyFrameSystem(name string) FrameSystem {
	return &simpleFrameSystem{
		name:    name,
		world:   NewTransformGroup(World, nil),
		frames:  map[string]*TransformGroup{},
		parents: map[string]string{},
		hidden:  map[string]bool{},
	}
}

// Name returns the name of the simpleFrameSystem.
func (sfs *simpleFrameSystem) Name() string {
	return sfs.name
}

// World returns the base world frame.
func (sfs *simpleFrameSystem) World() *TransformGroup {
	return sfs.world
}

var errNoParent = errors.New("no parent")

// frameExists is a helper function to see if a frame with a given name already exists in the system.
func (sfs *simpleFrameSystem) frameExists(name string) bool {
	if name == World {
		return true
	}
	_, ok := sfs.frames[name]
	return ok
}

// Frame returns the frame given the name of the frame. Returns nil if the frame is not found.
func (sfs *simpleFrameSystem) Frame(name string) *TransformGroup {
	if name == World {
		return sfs.world
	}
	return sfs.frames[name]
}

// AddFrame sets an already defined frame into the system.
func (sfs *simpleFrameSystem) AddFrame(frame *TransformGroup, parent string) error {
	if frame == nil {
		return errors.New("cannot add nil frame")
	}
	if !sfs.frameExists(parent) {
		return NewParentFrameMissingError(parent)
	}
	if sfs.frameExists(frame.Name()) {
		return NewFrameAlreadyExistsError(frame.Name())
	}
	sfs.frames[frame.Name()] = frame
	sfs.parents[frame.Name()] = parent
	return nil
}

// RemoveFrame will delete the given frame and all descendents from the frame system if it exists.
func (sfs *simpleFrameSystem) RemoveFrame(name string) {
	if name == World {
		return
	}
	delete(sfs.frames, name)
	delete(sfs.parents, name)
	delete(sfs.hidden, name)

	// Remove all descendents
	for f, parent := range sfs.parents {
		if parent == name {
			sfs.RemoveFrame(f)
		}
	}
}

// Reparent moves the frame under a new parent.
func (sfs *simpleFrameSystem) Reparent(name, parent string) error {
	if name == World {
		return errors.New("cannot reparent the world frame")
	}
	if !sfs.frameExists(name) {
		return NewFrameMissingError(name)
	}
	if !sfs.frameExists(parent) {
		return NewParentFrameMissingError(parent)
	}
	for cur := parent; cur != World; cur = sfs.parents[cur] {
		if cur == name {
			return errors.Wrapf(ErrFrameCycle, "%q under %q", name, parent)
		}
	}
	sfs.parents[name] = parent
	return nil
}

// Parent returns the parent frame name of the input frame. errNoParent if input is World.
func (sfs *simpleFrameSystem) Parent(name string) (string, error) {
	if !sfs.frameExists(name) {
		return "", NewFrameMissingError(name)
	}
	if name == World {
		return "", errNoParent
	}
	return sfs.parents[name], nil
}

// Children returns the direct children of a frame.
func (sfs *simpleFrameSystem) Children(name string) []string {
	var children []string
	for f, parent := range sfs.parents {
		if parent == name {
			children = append(children, f)
		}
	}
	slices.Sort(children)
	return children
}

// TracebackFrame traces the parentage of the given frame up to the world, and returns the full list of frames in between.
// The list will include both the query frame and the world frame.
func (sfs *simpleFrameSystem) TracebackFrame(name string) ([]*TransformGroup, error) {
	if !sfs.frameExists(name) {
		return nil, NewFrameMissingError(name)
	}
	if name == World {
		return []*TransformGroup{sfs.world}, nil
	}
	parents, err := sfs.TracebackFrame(sfs.parents[name])
	if err != nil {
		return nil, err
	}
	return append([]*TransformGroup{sfs.frames[name]}, parents...), nil
}

// TransformToWorld composes the local poses from the world down to the named frame.
func (sfs *simpleFrameSystem) TransformToWorld(name string) (spatial.Pose, error) {
	chain, err := sfs.TracebackFrame(name)
	if err != nil {
		return nil, err
	}
	q := spatial.NewZeroPose()
	// chain runs from the query frame to the world; new transforms go on the left.
	for _, tg := range chain {
		q = spatial.Compose(tg.Pose(), q)
	}
	return q, nil
}

// Transform returns the pose of src relative to dst.
func (sfs *simpleFrameSystem) Transform(src, dst string) (spatial.Pose, error) {
	if src == dst {
		if !sfs.frameExists(src) {
			return nil, NewFrameMissingError(src)
		}
		return spatial.NewZeroPose(), nil
	}
	// catch all errors together so both missing frames are reported
	var errAll error
	srcToWorld, err := sfs.TransformToWorld(src)
	multierr.AppendInto(&errAll, err)
	dstToWorld, err := sfs.TransformToWorld(dst)
	multierr.AppendInto(&errAll, err)
	if errAll != nil {
		return nil, errAll
	}
	return spatial.Compose(spatial.PoseInverse(dstToWorld), srcToWorld), nil
}

// SetHidden marks a frame hidden or shown.
func (sfs *simpleFrameSystem) SetHidden(name string, hidden bool) error {
	if name == World || !sfs.frameExists(name) {
		return NewFrameMissingError(name)
	}
	if hidden {
		sfs.hidden[name] = true
	} else {
		delete(sfs.hidden, name)
	}
	return nil
}

// Hidden reports whether the frame itself is hidden.
func (sfs *simpleFrameSystem) Hidden(name string) bool {
	return sfs.hidden[name]
}

// Rendered reports whether the frame and all of its ancestors are shown.
func (sfs *simpleFrameSystem) Rendered(name string) bool {
	if !sfs.frameExists(name) {
		return false
	}
	for cur := name; cur != World; cur = sfs.parents[cur] {
		if sfs.hidden[cur] {
			return false
		}
	}
	return true
}
