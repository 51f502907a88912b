package robotstate

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrUnknownJoint is the cause of every JointLookupError.
var ErrUnknownJoint = errors.New("no joint index")

// JointLookupError reports an entry of a joint state update naming a joint that has no index. The entry is
// skipped and the rest of the update still applies.
type JointLookupError struct {
	// Position is the offset of the entry within the update.
	Position int
	Name     string
}

func (e *JointLookupError) Error() string {
	return fmt.Sprintf("i: %d, %s for %q", e.Position, ErrUnknownJoint, e.Name)
}

// Unwrap returns ErrUnknownJoint.
func (e *JointLookupError) Unwrap() error {
	return ErrUnknownJoint
}

// NewLinkSolveError wraps the solve failure of a single tracked link.
func NewLinkSolveError(link string, err error) error {
	return errors.Wrapf(err, "cannot resolve link %q", link)
}
