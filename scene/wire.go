package scene

import (
	"time"

	"github.com/pkg/errors"

	"go.viam.com/scenemotion/interpolator"
)

// Wire names of the command types.
const (
	TypeCreate            = "create"
	TypeMove              = "move"
	TypeRotate            = "rotate"
	TypeSetPosition       = "set_position"
	TypeSetOrientation    = "set_orientation"
	TypeAttach            = "attach"
	TypeDetach            = "detach"
	TypeInterruptMovement = "interrupt_movement"
	TypeInterruptRotation = "interrupt_rotation"
	TypeSetVisible        = "set_visible"
	TypeRemove            = "remove"
)

// WireCommand is the flat JSON and YAML form of every command. Which fields are read depends on Type.
// Angles are radians and durations seconds.
type WireCommand struct {
	Type          string                      `json:"type" yaml:"type"`
	Name          string                      `json:"name" yaml:"name"`
	Kind          string                      `json:"kind,omitempty" yaml:"kind,omitempty"`
	Movable       bool                        `json:"movable,omitempty" yaml:"movable,omitempty"`
	Waypoints     []Vector                    `json:"waypoints,omitempty" yaml:"waypoints,omitempty"`
	Profile       *interpolator.MotionProfile `json:"profile,omitempty" yaml:"profile,omitempty"`
	FaceDirection bool                        `json:"face_direction,omitempty" yaml:"face_direction,omitempty"`
	Up            *Vector                     `json:"up,omitempty" yaml:"up,omitempty"`
	Axis          *Vector                     `json:"axis,omitempty" yaml:"axis,omitempty"`
	Angle         float64                     `json:"angle,omitempty" yaml:"angle,omitempty"`
	Duration      float64                     `json:"duration,omitempty" yaml:"duration,omitempty"`
	Position      *Vector                     `json:"position,omitempty" yaml:"position,omitempty"`
	Orientation   *Quaternion                 `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	Host          string                      `json:"host,omitempty" yaml:"host,omitempty"`
	Visible       *bool                       `json:"visible,omitempty" yaml:"visible,omitempty"`
}

func missingField(w WireCommand, field string) error {
	return errors.Errorf("%s command for %q is missing %q", w.Type, w.Name, field)
}

// Command converts the wire form into a typed command.
func (w WireCommand) Command() (Command, error) {
	if w.Name == "" {
		return nil, errors.Errorf("%s command has no node name", w.Type)
	}
	switch w.Type {
	case TypeCreate:
		return CreateNodeCommand{Name: w.Name, Kind: w.Kind, Movable: w.Movable}, nil
	case TypeMove:
		if w.Profile == nil {
			return nil, missingField(w, "profile")
		}
		cmd := MoveCommand{Name: w.Name, Profile: *w.Profile, FaceDirection: w.FaceDirection}
		for _, wp := range w.Waypoints {
			cmd.Waypoints = append(cmd.Waypoints, wp.R3())
		}
		if w.Up != nil {
			up := w.Up.R3()
			cmd.Up = &up
		}
		return cmd, nil
	case TypeRotate:
		if w.Axis == nil {
			return nil, missingField(w, "axis")
		}
		return RotateCommand{
			Name:     w.Name,
			Axis:     w.Axis.R3(),
			Angle:    w.Angle,
			Duration: time.Duration(w.Duration * float64(time.Second)),
		}, nil
	case TypeSetPosition, TypeInterruptMovement:
		if w.Position == nil {
			return nil, missingField(w, "position")
		}
		if w.Type == TypeSetPosition {
			return SetPositionCommand{Name: w.Name, Position: w.Position.R3()}, nil
		}
		return InterruptMovementCommand{Name: w.Name, StoppedAt: w.Position.R3()}, nil
	case TypeSetOrientation, TypeInterruptRotation:
		if w.Orientation == nil {
			return nil, missingField(w, "orientation")
		}
		if w.Type == TypeSetOrientation {
			return SetOrientationCommand{Name: w.Name, Orientation: w.Orientation.Orientation()}, nil
		}
		return InterruptRotationCommand{Name: w.Name, StoppedAt: w.Orientation.Orientation()}, nil
	case TypeAttach:
		if w.Host == "" {
			return nil, missingField(w, "host")
		}
		return AttachCommand{Name: w.Name, Host: w.Host}, nil
	case TypeDetach:
		return DetachCommand{Name: w.Name}, nil
	case TypeSetVisible:
		if w.Visible == nil {
			return nil, missingField(w, "visible")
		}
		return SetVisibleCommand{Name: w.Name, Visible: *w.Visible}, nil
	case TypeRemove:
		return RemoveCommand{Name: w.Name}, nil
	default:
		return nil, errors.Errorf("unknown command type %q", w.Type)
	}
}

// NewWireCommand converts a typed command into its wire form.
func NewWireCommand(cmd Command) (WireCommand, error) {
	switch c := cmd.(type) {
	case CreateNodeCommand:
		return WireCommand{Type: TypeCreate, Name: c.Name, Kind: c.Kind, Movable: c.Movable}, nil
	case MoveCommand:
		profile := c.Profile
		w := WireCommand{Type: TypeMove, Name: c.Name, Profile: &profile, FaceDirection: c.FaceDirection}
		for _, wp := range c.Waypoints {
			w.Waypoints = append(w.Waypoints, NewVector(wp))
		}
		if c.Up != nil {
			up := NewVector(*c.Up)
			w.Up = &up
		}
		return w, nil
	case RotateCommand:
		axis := NewVector(c.Axis)
		return WireCommand{Type: TypeRotate, Name: c.Name, Axis: &axis, Angle: c.Angle, Duration: c.Duration.Seconds()}, nil
	case SetPositionCommand:
		p := NewVector(c.Position)
		return WireCommand{Type: TypeSetPosition, Name: c.Name, Position: &p}, nil
	case InterruptMovementCommand:
		p := NewVector(c.StoppedAt)
		return WireCommand{Type: TypeInterruptMovement, Name: c.Name, Position: &p}, nil
	case SetOrientationCommand:
		if c.Orientation == nil {
			return WireCommand{}, missingField(WireCommand{Type: TypeSetOrientation, Name: c.Name}, "orientation")
		}
		q := NewQuaternion(c.Orientation)
		return WireCommand{Type: TypeSetOrientation, Name: c.Name, Orientation: &q}, nil
	case InterruptRotationCommand:
		if c.StoppedAt == nil {
			return WireCommand{}, missingField(WireCommand{Type: TypeInterruptRotation, Name: c.Name}, "orientation")
		}
		q := NewQuaternion(c.StoppedAt)
		return WireCommand{Type: TypeInterruptRotation, Name: c.Name, Orientation: &q}, nil
	case AttachCommand:
		return WireCommand{Type: TypeAttach, Name: c.Name, Host: c.Host}, nil
	case DetachCommand:
		return WireCommand{Type: TypeDetach, Name: c.Name}, nil
	case SetVisibleCommand:
		visible := c.Visible
		return WireCommand{Type: TypeSetVisible, Name: c.Name, Visible: &visible}, nil
	case RemoveCommand:
		return WireCommand{Type: TypeRemove, Name: c.Name}, nil
	default:
		return WireCommand{}, errors.Errorf("unsupported command type %T", cmd)
	}
}
