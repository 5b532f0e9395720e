package scene

import (
	"fmt"
	"time"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"

	spatial "go.viam.com/scenemotion/spatialmath"
	"go.viam.com/scenemotion/utils"
)

// Vector is the wire form of a point or direction.
type Vector struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// NewVector converts an r3.Vector.
func NewVector(v r3.Vector) Vector {
	return Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// R3 converts back to an r3.Vector.
func (v Vector) R3() r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

// Quaternion is the wire form of an orientation.
type Quaternion struct {
	W float64 `json:"w" yaml:"w"`
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// NewQuaternion converts an orientation.
func NewQuaternion(o spatial.Orientation) Quaternion {
	q := o.Quaternion()
	return Quaternion{W: q.Real, X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}

// Orientation converts back to a normalized orientation.
func (q Quaternion) Orientation() spatial.Orientation {
	return spatial.NewQuaternion(q.W, q.X, q.Y, q.Z)
}

// Transform is the wire form of a pose.
type Transform struct {
	Translation Vector     `json:"translation"`
	Rotation    Quaternion `json:"rotation"`
}

// NewTransform converts a pose.
func NewTransform(p spatial.Pose) Transform {
	return Transform{Translation: NewVector(p.Point()), Rotation: NewQuaternion(p.Orientation())}
}

// Pose converts back to a pose.
func (t Transform) Pose() spatial.Pose {
	return spatial.NewPose(t.Translation.R3(), t.Rotation.Orientation())
}

// NodeState is the externally visible state of a node at one instant. Position and Orientation are the
// node's two local transforms; World is their composition through the attachment chain.
type NodeState struct {
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Movable     bool      `json:"movable"`
	Parent      string    `json:"parent"`
	Host        string    `json:"host,omitempty"`
	Position    Transform `json:"position"`
	Orientation Transform `json:"orientation"`
	World       Transform `json:"world"`
	Visible     bool      `json:"visible"`
	Rendered    bool      `json:"rendered"`
	Moving      bool      `json:"moving"`
	Rotating    bool      `json:"rotating"`
}

// Frame is every node of a scene at one virtual time, sorted by name.
type Frame struct {
	Scene string        `json:"scene"`
	Time  time.Duration `json:"time_ns"`
	Nodes []NodeState   `json:"nodes"`
}

// String prints out a table of each node in the frame, with its parent and world pose.
func (f Frame) String() string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%s @ %v", f.Scene, f.Time))
	t.AppendHeader(table.Row{"#", "Name", "Parent", "Translation", "Orientation", "State"})
	for i, n := range f.Nodes {
		tra := n.World.Translation
		aa := n.World.Rotation.Orientation().AxisAngles()
		state := ""
		switch {
		case !n.Rendered:
			state = "hidden"
		case n.Moving && n.Rotating:
			state = "moving, rotating"
		case n.Moving:
			state = "moving"
		case n.Rotating:
			state = "rotating"
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("%d", i+1),
			n.Name,
			n.Parent,
			fmt.Sprintf("X:%.2f, Y:%.2f, Z:%.2f", tra.X, tra.Y, tra.Z),
			fmt.Sprintf("Theta:%.1f, RX:%.2f, RY:%.2f, RZ:%.2f", utils.RadToDeg(aa.Theta), aa.RX, aa.RY, aa.RZ),
			state,
		})
	}
	return t.Render()
}
