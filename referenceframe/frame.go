// Package referenceframe defines the api and does the math of translating between reference frames.
// A Frame here is the motion a joint of a kinematic tree contributes for a given input.
package referenceframe

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	spatial "go.viam.com/robotstate/spatialmath"
)

// Limit represents the limits of motion for a referenceframe.
type Limit struct {
	Min float64
	Max float64
}

// UnboundedLimit is the limit used for joints with no bound, such as continuous joints.
func UnboundedLimit() Limit {
	return Limit{Min: math.Inf(-1), Max: math.Inf(1)}
}

// Frame represents the reference frame of a movable joint.
type Frame interface {
	// Name returns the name of the referenceframe.
	Name() string

	// Transform is the pose (rotation and translation) that goes FROM current frame TO parent's referenceframe.
	Transform([]Input) (spatial.Pose, error)

	// DoF will return a slice with length equal to the number of joints/degrees of freedom.
	// Each element describes the min and max movement limit of that joint/degree of freedom.
	DoF() []Limit
}

// a translational Frame is a frame that can translate without rotation along a single axis.
type translationalFrame struct {
	name      string
	transAxis r3.Vector
	limit     []Limit
}

// NewTranslationalFrame creates a frame given a name and the axis in which to translate.
// The limit is recorded for reporting and is not enforced.
func NewTranslationalFrame(name string, axis r3.Vector, limit Limit) (Frame, error) {
	if spatial.R3VectorAlmostEqual(r3.Vector{}, axis, 1e-8) {
		return nil, errors.New("cannot use zero vector as translation axis")
	}
	return &translationalFrame{name: name, transAxis: axis.Normalize(), limit: []Limit{limit}}, nil
}

// Name is the name of the frame.
func (pf *translationalFrame) Name() string {
	return pf.name
}

// Transform returns a pose translated by the amount specified in the inputs.
func (pf *translationalFrame) Transform(input []Input) (spatial.Pose, error) {
	if len(input) != 1 {
		return nil, NewIncorrectDoFError(len(input), 1)
	}
	return spatial.NewPoseFromPoint(pf.transAxis.Mul(input[0].Value)), nil
}

// DoF are the degrees of freedom of the transform.
func (pf *translationalFrame) DoF() []Limit {
	return pf.limit
}

type rotationalFrame struct {
	name    string
	rotAxis r3.Vector
	limit   []Limit
}

// NewRotationalFrame creates a new rotationalFrame struct.
// A standard revolute joint will have 1 DoF. The limit is recorded for reporting and is not enforced.
func NewRotationalFrame(name string, axis r3.Vector, limit Limit) (Frame, error) {
	if spatial.R3VectorAlmostEqual(r3.Vector{}, axis, 1e-8) {
		return nil, errors.New("cannot use zero vector as rotation axis")
	}
	return &rotationalFrame{
		name:    name,
		rotAxis: axis.Normalize(),
		limit:   []Limit{limit},
	}, nil
}

// Transform returns the Pose representing the frame's 6DoF motion in space. Requires a slice
// of inputs that has length equal to the degrees of freedom of the referenceframe.
func (rf *rotationalFrame) Transform(input []Input) (spatial.Pose, error) {
	if len(input) != 1 {
		return nil, NewIncorrectDoFError(len(input), 1)
	}
	return spatial.NewPoseFromOrientation(spatial.NewR4AAFromAxis(input[0].Value, rf.rotAxis)), nil
}

// DoF returns the number of degrees of freedom that a joint has. This would be 1 for a standard revolute joint.
func (rf *rotationalFrame) DoF() []Limit {
	return rf.limit
}

// Name returns the name of the referenceframe.
func (rf *rotationalFrame) Name() string {
	return rf.name
}

// String renders the limit the way it is shown in joint tables.
func (l Limit) String() string {
	return fmt.Sprintf("[%.4g, %.4g]", l.Min, l.Max)
}
