package spatialmath

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestZeroPose(t *testing.T) {
	p := NewZeroPose()
	test.That(t, p.Point(), test.ShouldResemble, r3.Vector{})
	test.That(t, p.Orientation().Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, PoseAlmostEqual(Compose(p, p), p), test.ShouldBeTrue)
}

func TestComposeRotationThenTranslation(t *testing.T) {
	rot := NewPoseFromOrientation(&R4AA{Theta: math.Pi / 2, RZ: 1})
	trans := NewPoseFromPoint(r3.Vector{X: 1})

	// rotating the frame first means the translation is expressed in the rotated frame
	rt := Compose(rot, trans)
	test.That(t, R3VectorAlmostEqual(rt.Point(), r3.Vector{Y: 1}, 1e-9), test.ShouldBeTrue)

	// translating first leaves the translation untouched
	tr := Compose(trans, rot)
	test.That(t, R3VectorAlmostEqual(tr.Point(), r3.Vector{X: 1}, 1e-9), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(tr.Orientation(), rt.Orientation()), test.ShouldBeTrue)
}

func TestPoseInverse(t *testing.T) {
	p := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, &EulerAngles{Roll: 0.3, Pitch: -0.2, Yaw: 1.1})
	inv := PoseInverse(p)
	test.That(t, PoseAlmostEqual(Compose(inv, p), NewZeroPose()), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(Compose(p, inv), NewZeroPose()), test.ShouldBeTrue)
	test.That(t, PoseAlmostEqual(PoseInverse(inv), p), test.ShouldBeTrue)

	pure := PoseInverse(NewPoseFromPoint(r3.Vector{X: 4}))
	test.That(t, R3VectorAlmostEqual(pure.Point(), r3.Vector{X: -4}, 1e-9), test.ShouldBeTrue)
}

func TestEulerAnglesRoundTrip(t *testing.T) {
	ea := &EulerAngles{Roll: 0.1, Pitch: 0.2, Yaw: 0.3}
	back := QuatToEulerAngles(ea.Quaternion())
	test.That(t, back.Roll, test.ShouldAlmostEqual, ea.Roll)
	test.That(t, back.Pitch, test.ShouldAlmostEqual, ea.Pitch)
	test.That(t, back.Yaw, test.ShouldAlmostEqual, ea.Yaw)

	// a pure yaw is a rotation about z
	yaw := &EulerAngles{Yaw: math.Pi / 2}
	aa := yaw.AxisAngles()
	test.That(t, aa.Theta, test.ShouldAlmostEqual, math.Pi/2)
	test.That(t, aa.RZ, test.ShouldAlmostEqual, 1)
}

func TestQuaternionDoubleCover(t *testing.T) {
	q := (&R4AA{Theta: 0.7, RX: 1}).ToQuat()
	neg := quat.Scale(-1, q)
	test.That(t, QuaternionAlmostEqual(q, neg, 1e-9), test.ShouldBeTrue)
	test.That(t, QuaternionAlmostEqual(q, quat.Number{Real: 1}, 1e-9), test.ShouldBeFalse)
}

func TestAffineMatrix(t *testing.T) {
	p := NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, &R4AA{Theta: math.Pi / 2, RZ: 1})
	m := AffineMatrix(p)

	// x axis maps onto y
	test.That(t, m.At(0, 0), test.ShouldAlmostEqual, 0)
	test.That(t, m.At(1, 0), test.ShouldAlmostEqual, 1)
	test.That(t, m.At(2, 2), test.ShouldAlmostEqual, 1)
	test.That(t, m.At(0, 3), test.ShouldAlmostEqual, 1)
	test.That(t, m.At(1, 3), test.ShouldAlmostEqual, 2)
	test.That(t, m.At(2, 3), test.ShouldAlmostEqual, 3)
	test.That(t, m.At(3, 3), test.ShouldAlmostEqual, 1)

	// the matrix moves points the way composing with the pose does
	v := m.Mul4x1(mgl64.Vec4{1, 0, 0, 1})
	moved := Compose(p, NewPoseFromPoint(r3.Vector{X: 1})).Point()
	test.That(t, R3VectorAlmostEqual(r3.Vector{X: v.X(), Y: v.Y(), Z: v.Z()}, moved, 1e-9), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(moved, r3.Vector{X: 1, Y: 3, Z: 3}, 1e-9), test.ShouldBeTrue)
}
