package scene

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/scenemotion/interpolator"
	spatial "go.viam.com/scenemotion/spatialmath"
)

// Command is a request addressed to one node.
type Command interface {
	// Target returns the name of the node the command is for.
	Target() string
}

// Listener is called after a scene applies a command, with the result of applying it.
type Listener func(cmd Command, err error)

type (
	// CreateNodeCommand creates a node.
	CreateNodeCommand struct {
		Name    string
		Kind    string
		Movable bool
	}

	// MoveCommand starts a motion along waypoints.
	MoveCommand struct {
		Name          string
		Waypoints     []r3.Vector
		Profile       interpolator.MotionProfile
		FaceDirection bool
		Up            *r3.Vector
	}

	// RotateCommand turns a node about an axis.
	RotateCommand struct {
		Name     string
		Axis     r3.Vector
		Angle    float64
		Duration time.Duration
	}

	// SetPositionCommand writes a node's position.
	SetPositionCommand struct {
		Name     string
		Position r3.Vector
	}

	// SetOrientationCommand writes a node's orientation.
	SetOrientationCommand struct {
		Name        string
		Orientation spatial.Orientation
	}

	// AttachCommand attaches a node to a host.
	AttachCommand struct {
		Name string
		Host string
	}

	// DetachCommand detaches a node from its host.
	DetachCommand struct {
		Name string
	}

	// InterruptMovementCommand stops a motion at a reported position.
	InterruptMovementCommand struct {
		Name      string
		StoppedAt r3.Vector
	}

	// InterruptRotationCommand stops a rotation at a reported orientation.
	InterruptRotationCommand struct {
		Name      string
		StoppedAt spatial.Orientation
	}

	// SetVisibleCommand shows or hides a node.
	SetVisibleCommand struct {
		Name    string
		Visible bool
	}

	// RemoveCommand destroys a node.
	RemoveCommand struct {
		Name string
	}
)

// Target implements Command.
func (c CreateNodeCommand) Target() string { return c.Name }

// Target implements Command.
func (c MoveCommand) Target() string { return c.Name }

// Target implements Command.
func (c RotateCommand) Target() string { return c.Name }

// Target implements Command.
func (c SetPositionCommand) Target() string { return c.Name }

// Target implements Command.
func (c SetOrientationCommand) Target() string { return c.Name }

// Target implements Command.
func (c AttachCommand) Target() string { return c.Name }

// Target implements Command.
func (c DetachCommand) Target() string { return c.Name }

// Target implements Command.
func (c InterruptMovementCommand) Target() string { return c.Name }

// Target implements Command.
func (c InterruptRotationCommand) Target() string { return c.Name }

// Target implements Command.
func (c SetVisibleCommand) Target() string { return c.Name }

// Target implements Command.
func (c RemoveCommand) Target() string { return c.Name }

// RegisterListener adds a listener notified after every applied command.
func (s *Scene) RegisterListener(l Listener) {
	s.listenerMu.Lock()
	defer s.listenerMu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Apply dispatches a command to the matching method and then notifies the listeners.
func (s *Scene) Apply(cmd Command) error {
	err := s.apply(cmd)
	if err != nil {
		s.logger.Warnw("command failed", "scene", s.name, "node", targetOf(cmd), "error", err)
	}
	s.listenerMu.Lock()
	listeners := append([]Listener(nil), s.listeners...)
	s.listenerMu.Unlock()
	for _, l := range listeners {
		l(cmd, err)
	}
	return err
}

func targetOf(cmd Command) string {
	if cmd == nil {
		return ""
	}
	return cmd.Target()
}

func (s *Scene) apply(cmd Command) error {
	switch c := cmd.(type) {
	case CreateNodeCommand:
		return s.CreateNode(c.Name, c.Kind, c.Movable)
	case MoveCommand:
		return s.Move(c.Name, c.Waypoints, c.Profile, c.FaceDirection, c.Up)
	case RotateCommand:
		return s.Rotate(c.Name, c.Axis, c.Angle, c.Duration)
	case SetPositionCommand:
		return s.SetPosition(c.Name, c.Position)
	case SetOrientationCommand:
		if c.Orientation == nil {
			return errors.Errorf("set orientation of %q: missing orientation", c.Name)
		}
		return s.SetOrientation(c.Name, c.Orientation)
	case AttachCommand:
		return s.Attach(c.Name, c.Host)
	case DetachCommand:
		return s.Detach(c.Name)
	case InterruptMovementCommand:
		return s.InterruptMovement(c.Name, c.StoppedAt)
	case InterruptRotationCommand:
		if c.StoppedAt == nil {
			return errors.Errorf("interrupt rotation of %q: missing orientation", c.Name)
		}
		return s.InterruptRotation(c.Name, c.StoppedAt)
	case SetVisibleCommand:
		return s.SetVisible(c.Name, c.Visible)
	case RemoveCommand:
		return s.Remove(c.Name)
	default:
		return errors.Errorf("unsupported command type %T", cmd)
	}
}
