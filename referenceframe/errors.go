package referenceframe

import (
	"github.com/pkg/errors"
)

// ErrFrameCycle is returned when a reparent would make a frame its own ancestor.
var ErrFrameCycle = errors.New("reparenting would create a cycle in the frame system")

// NewParentFrameMissingError returns an error indicating that a frame is missing a parent.
func NewParentFrameMissingError(name string) error {
	return errors.Errorf("parent frame with name %q not in frame system", name)
}

// NewFrameMissingError returns an error indicating that the given frame is missing from the framesystem.
func NewFrameMissingError(name string) error {
	return errors.Errorf("frame with name %q not in frame system", name)
}

// NewFrameAlreadyExistsError returns an error indicating that a frame of the given name already exists.
func NewFrameAlreadyExistsError(name string) error {
	return errors.Errorf("frame with name %q already in frame system", name)
}
