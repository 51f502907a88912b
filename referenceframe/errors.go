package referenceframe

import "github.com/pkg/errors"

// These are the joint types as they are named in robot description documents.
const (
	ContinuousJoint = "continuous"
	PrismaticJoint  = "prismatic"
	RevoluteJoint   = "revolute"
	FixedJoint      = "fixed"
	FloatingJoint   = "floating"
	PlanarJoint     = "planar"
)

// NewIncorrectDoFError returns an error indicating that the length of an input slice does not match the DoF of a frame.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}

// NewUnsupportedJointTypeError returns an error indicating that a given joint type is not supported by current model parsing.
func NewUnsupportedJointTypeError(jointType string) error {
	return errors.Errorf("unsupported joint type detected: %q", jointType)
}
