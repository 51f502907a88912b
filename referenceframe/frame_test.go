package referenceframe

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	spatial "go.viam.com/robotstate/spatialmath"
)

func TestRotationalFrame(t *testing.T) {
	frame, err := NewRotationalFrame("j1", r3.Vector{Z: 2}, Limit{Min: -math.Pi, Max: math.Pi})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frame.DoF(), test.ShouldResemble, []Limit{{Min: -math.Pi, Max: math.Pi}})

	tf, err := frame.Transform([]Input{{math.Pi / 2}})
	test.That(t, err, test.ShouldBeNil)
	expected := spatial.NewPoseFromOrientation(&spatial.R4AA{Theta: math.Pi / 2, RZ: 1})
	test.That(t, spatial.PoseAlmostEqual(tf, expected), test.ShouldBeTrue)

	// limits are recorded, not enforced
	_, err = frame.Transform([]Input{{10}})
	test.That(t, err, test.ShouldBeNil)

	_, err = frame.Transform([]Input{})
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewRotationalFrame("bad", r3.Vector{}, UnboundedLimit())
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTranslationalFrame(t *testing.T) {
	frame, err := NewTranslationalFrame("slide", r3.Vector{Y: 5}, Limit{Min: 0, Max: 1})
	test.That(t, err, test.ShouldBeNil)

	tf, err := frame.Transform([]Input{{0.25}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatial.R3VectorAlmostEqual(tf.Point(), r3.Vector{Y: 0.25}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatial.OrientationAlmostEqual(tf.Orientation(), spatial.NewZeroOrientation()), test.ShouldBeTrue)

	_, err = NewTranslationalFrame("bad", r3.Vector{}, Limit{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestInputConversions(t *testing.T) {
	test.That(t, FloatsToInputs([]float64{0.1, -2, 3}), test.ShouldResemble, []Input{{0.1}, {-2}, {3}})
	test.That(t, UnboundedLimit().String(), test.ShouldEqual, "[-Inf, +Inf]")
	test.That(t, Limit{Min: 0, Max: 0.1}.String(), test.ShouldEqual, "[0, 0.1]")
}
