package scene

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNodeExists is returned when creating a node whose name is taken.
	ErrNodeExists = errors.New("node already exists")
	// ErrNodeNotMovable is returned when animating or attaching a static node.
	ErrNodeNotMovable = errors.New("node is not movable")
	// ErrAttachmentCycle is returned when an attach would make a node its own host.
	ErrAttachmentCycle = errors.New("attachment would create a cycle")
	// ErrInvalidRotationAxis is returned for a rotation about a zero length axis.
	ErrInvalidRotationAxis = errors.New("rotation axis must have nonzero length")
)

// NodeNotFoundError is returned when a command names a node the scene does not know. It means the
// command stream is out of sync with the scene.
type NodeNotFoundError struct {
	Name string
}

// NewNodeNotFoundError returns an error for the named node.
func NewNodeNotFoundError(name string) error {
	return &NodeNotFoundError{Name: name}
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("node %q not found", e.Name)
}

// IsNodeNotFoundError returns whether err is or wraps a NodeNotFoundError.
func IsNodeNotFoundError(err error) bool {
	var target *NodeNotFoundError
	return errors.As(err, &target)
}
