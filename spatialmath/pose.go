// Package spatialmath defines spatial mathematical operations.
// Poses are stored as unit dual quaternions and can be exported as 4x4 homogeneous affine matrices.
package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) in the units of the source description,
// and the Orientation() method returns an Orientation object.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(point r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(point)
	}
	q := newDualQuaternion()
	q.Real = normalizeQuat(o.Quaternion())
	q.setTranslation(point)
	return q
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	q := newDualQuaternion()
	q.setTranslation(point)
	return q
}

// NewPoseFromOrientation takes in an orientation and returns a Pose located at the origin.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
// It converts the poses to dual quaternions and multiplies them together, normalizes the transform and returns a new Pose.
// Composition does not commute in general, i.e. you cannot guarantee ABx == BAx.
func Compose(a, b Pose) Pose {
	result := &dualQuaternion{dualquat.Mul(dualQuaternionFromPose(a).Number, dualQuaternionFromPose(b).Number)}

	// Normalization
	if vecLen := quat.Abs(result.Real); vecLen != 1 && vecLen != 0 {
		result.Real = quat.Scale(1/vecLen, result.Real)
		result.Dual = quat.Scale(1/vecLen, result.Dual)
	}
	return result
}

// PoseInverse will return the inverse of a pose. So if a given pose p is the pose of A relative to B, PoseInverse(p) will give
// the pose of B relative to A.
func PoseInverse(p Pose) Pose {
	q := dualQuaternionFromPose(p)
	inv := newDualQuaternion()
	inv.Real = quat.Conj(q.Real)
	inv.setTranslation(rotateVector(inv.Real, q.Point()).Mul(-1))
	return inv
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same within the given epsilon.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), epsilon)
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return a.Sub(b).Norm() < epsilon
}

// rotateVector rotates v by the unit quaternion q.
func rotateVector(q quat.Number, v r3.Vector) r3.Vector {
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}
