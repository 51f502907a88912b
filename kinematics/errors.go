package kinematics

import "github.com/pkg/errors"

var (
	// ErrUnresolvedJoint is returned when a movable joint of the tree has no definition in the robot description.
	ErrUnresolvedJoint = errors.New("joint has no definition in the robot description")

	// ErrKinematicSolve is returned when forward kinematics cannot be evaluated for the given chain and inputs.
	ErrKinematicSolve = errors.New("kinematic solve failed")

	// ErrUnknownSegment is returned when a segment name is not part of the tree.
	ErrUnknownSegment = errors.New("segment not in kinematic tree")

	// ErrDisconnectedSegment is returned when a segment exists but cannot be reached from the tree root.
	ErrDisconnectedSegment = errors.New("segment not connected to the kinematic root")
)

// NewUnresolvedJointError returns an error naming a joint missing from the description.
func NewUnresolvedJointError(joint string) error {
	return errors.Wrapf(ErrUnresolvedJoint, "joint %q", joint)
}

// NewUnknownSegmentError returns an error naming a segment missing from the tree.
func NewUnknownSegmentError(segment string) error {
	return errors.Wrapf(ErrUnknownSegment, "segment %q", segment)
}

// NewDisconnectedSegmentError returns an error naming a segment that has no path to the root.
func NewDisconnectedSegmentError(segment, root string) error {
	return errors.Wrapf(ErrDisconnectedSegment, "segment %q has no path to %q", segment, root)
}

// NewDegenerateChainError is returned when solving a chain that was never built.
func NewDegenerateChainError() error {
	return errors.Wrap(ErrKinematicSolve, "chain has no segments")
}

// NewIncorrectInputLengthError is returned when the number of joint values does not match what a solver needs.
func NewIncorrectInputLengthError(actual, expected int) error {
	return errors.Wrapf(ErrKinematicSolve, "expected %d joint values but got %d", expected, actual)
}

// NewChainNotFoundError is returned when no downward path exists from base to tip.
func NewChainNotFoundError(base, tip string) error {
	return errors.Errorf("could not create chain from %q to %q", base, tip)
}
