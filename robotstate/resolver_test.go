package robotstate

import (
	"errors"
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"
	"go.uber.org/zap/zapcore"
	"go.viam.com/test"

	"go.viam.com/robotstate/kinematics"
	"go.viam.com/robotstate/logging"
	spatial "go.viam.com/robotstate/spatialmath"
	"go.viam.com/robotstate/utils"
)

var rigURDF = utils.ResolveFile("referenceframe/urdf/testdata/kinect_rig.urdf")

func newRigResolver(t *testing.T, cfg *Config) (*Resolver, logging.Logger) {
	t.Helper()
	logger := logging.NewTestLogger(t)
	cfg.RobotDescription = rigURDF
	r, err := NewResolverFromConfig(cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	return r, logger
}

func TestResolverConstruction(t *testing.T) {
	r, _ := newRigResolver(t, &Config{})
	test.That(t, r.Config().CameraFrame, test.ShouldEqual, "XTION")
	test.That(t, r.Config().KinematicFrame, test.ShouldEqual, "BASE")
	test.That(t, r.JointNames(), test.ShouldResemble, []string{"head_pan", "shoulder", "wrist_slide"})
	test.That(t, r.State(), test.ShouldResemble, []float64{0, 0, 0})
	test.That(t, r.JointLimits()[0].Min, test.ShouldEqual, -1.5)

	test.That(t, r.Links().Keys(), test.ShouldResemble, []string{
		"torso", "torso", "torso", "arm_link", "arm_link", "arm_link", "torso",
	})
	test.That(t, r.MeshPaths()[0], test.ShouldEqual, "../meshes/torso.STL")
	test.That(t, r.MeshPaths()[3], test.ShouldEqual, "../meshes/arm.dae")

	collapsed, _ := newRigResolver(t, &Config{CollapseDuplicateLinks: true, RobotDescriptionPackagePath: "/opt/rig"})
	test.That(t, collapsed.Links().Keys(), test.ShouldResemble, []string{"torso", "arm_link"})
	test.That(t, collapsed.MeshPaths(), test.ShouldResemble, []string{"/opt/rig/meshes/torso.STL", "/opt/rig/meshes/arm.dae"})
}

func TestResolverConstructionErrors(t *testing.T) {
	logger := logging.NewTestLogger(t)

	_, err := NewResolverFromConfig(&Config{RobotDescription: rigURDF, KinematicFrame: "XTION", CameraFrame: "BASE"}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "could not create chain")

	_, err = NewResolverFromConfig(&Config{RobotDescription: rigURDF, CameraFrame: "KINECT"}, logger)
	test.That(t, errors.Is(err, kinematics.ErrUnknownSegment), test.ShouldBeTrue)

	_, err = NewResolverFromConfig(&Config{RobotDescription: rigURDF, KinematicFrame: "fixture", CameraFrame: "fixture"}, logger)
	test.That(t, errors.Is(err, kinematics.ErrDisconnectedSegment), test.ShouldBeTrue)

	_, err = NewResolverFromConfig(&Config{}, logger)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = NewResolverFromConfig(&Config{RobotDescription: rigURDF, MeshExtensions: []string{"stl"}}, logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must start with a dot")
}

func TestResolveRestPose(t *testing.T) {
	r, _ := newRigResolver(t, &Config{})
	frames, err := r.Resolve(nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frames.Len(), test.ShouldEqual, 7)

	// the camera sits at (0.1, 0, 1) with no rotation
	pos, ok := frames.Position(0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(pos, r3.Vector{X: -0.1, Z: -0.5}, 1e-9), test.ShouldBeTrue)

	arm, ok := frames.Pose("arm_link")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(arm.Point(), r3.Vector{X: 0.1, Z: -0.4}, 1e-9), test.ShouldBeTrue)

	for i, lp := range frames.Poses() {
		test.That(t, lp.Index, test.ShouldEqual, i)
		test.That(t, lp.Link, test.ShouldEqual, r.Links().Keys()[i])
		test.That(t, lp.MeshPath, test.ShouldEqual, r.MeshPaths()[i])
	}
}

func TestResolveSensorAtRoot(t *testing.T) {
	r, _ := newRigResolver(t, &Config{CameraFrame: "BASE"})
	frames, err := r.Resolve(JointUpdate{{Name: "shoulder", Value: math.Pi / 2}})
	test.That(t, err, test.ShouldBeNil)

	// with the camera at the root every link pose is its root pose, the product of offsets and joint motions
	torso, _ := frames.Pose("torso")
	test.That(t, spatial.PoseAlmostEqual(torso, spatial.NewPoseFromPoint(r3.Vector{Z: 0.5})), test.ShouldBeTrue)

	arm, _ := frames.Pose("arm_link")
	expected := spatial.NewPose(r3.Vector{X: 0.2, Z: 0.6}, &spatial.R4AA{Theta: math.Pi / 2, RY: 1})
	test.That(t, spatial.PoseAlmostEqual(arm, expected), test.ShouldBeTrue)

	q, ok := frames.Orientation(3)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, spatial.QuaternionAlmostEqual(q, expected.Orientation().Quaternion(), 1e-9), test.ShouldBeTrue)
}

func TestResolveCameraIsTrackedLink(t *testing.T) {
	r, _ := newRigResolver(t, &Config{CameraFrame: "arm_link"})
	frames, err := r.Resolve(JointUpdate{{Name: "shoulder", Value: 0.7}, {Name: "head_pan", Value: -0.3}})
	test.That(t, err, test.ShouldBeNil)

	arm, ok := frames.Pose("arm_link")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, spatial.PoseAlmostEqual(arm, spatial.NewZeroPose()), test.ShouldBeTrue)
}

func TestResolveHeadPan(t *testing.T) {
	r, _ := newRigResolver(t, &Config{})
	frames, err := r.Resolve(JointUpdate{{Name: "head_pan", Value: math.Pi / 2}})
	test.That(t, err, test.ShouldBeNil)

	// the camera is at (0, 0.1, 1) turned a quarter about z, so the torso appears rotated the other way
	torso, _ := frames.Pose("torso")
	expected := spatial.NewPose(r3.Vector{X: -0.1, Z: -0.5}, &spatial.R4AA{Theta: -math.Pi / 2, RZ: 1})
	test.That(t, spatial.PoseAlmostEqual(torso, expected), test.ShouldBeTrue)

	m := frames.Poses()[0].Affine()
	test.That(t, m.At(0, 3), test.ShouldAlmostEqual, -0.1)
	test.That(t, m.At(2, 3), test.ShouldAlmostEqual, -0.5)
}

func TestResolveKinematicFrameBelowRoot(t *testing.T) {
	fromBase, _ := newRigResolver(t, &Config{})
	fromTorso, _ := newRigResolver(t, &Config{KinematicFrame: "torso"})

	update := JointUpdate{{Name: "head_pan", Value: 0.4}, {Name: "shoulder", Value: -1.1}, {Name: "wrist_slide", Value: 0.05}}
	want, err := fromBase.Resolve(update)
	test.That(t, err, test.ShouldBeNil)
	got, err := fromTorso.Resolve(update)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got.Len(), test.ShouldEqual, want.Len())
	for i := 0; i < want.Len(); i++ {
		a, _ := want.At(i)
		b, _ := got.At(i)
		test.That(t, spatial.PoseAlmostEqual(a.Pose, b.Pose), test.ShouldBeTrue)
	}
}

func TestPartialUpdateMerge(t *testing.T) {
	split, _ := newRigResolver(t, &Config{})
	joint, _ := newRigResolver(t, &Config{})

	_, err := split.Resolve(JointUpdate{{Name: "shoulder", Value: 0.3}})
	test.That(t, err, test.ShouldBeNil)
	_, err = split.Resolve(JointUpdate{{Name: "wrist_slide", Value: 0.08}})
	test.That(t, err, test.ShouldBeNil)

	_, err = joint.Resolve(JointUpdate{{Name: "wrist_slide", Value: 0.08}, {Name: "shoulder", Value: 0.3}})
	test.That(t, err, test.ShouldBeNil)

	if diff := cmp.Diff(joint.State(), split.State()); diff != "" {
		t.Errorf("merged state differs (-want +got):\n%s", diff)
	}
	test.That(t, split.State(), test.ShouldResemble, []float64{0, 0.3, 0.08})

	// later updates leave absent joints alone
	_, err = split.Resolve(JointUpdate{{Name: "head_pan", Value: -1}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, split.State(), test.ShouldResemble, []float64{-1, 0.3, 0.08})
}

func TestUnsolvableLinkIsSkipped(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	r, err := NewResolverFromConfig(&Config{RobotDescription: rigURDF, RobotDescriptionPackagePath: "/opt/rig"}, logger)
	test.That(t, err, test.ShouldBeNil)
	r.links = &LinkSet{links: []TrackedLink{
		{Key: "torso", Source: "torso", MeshPath: "package://kinect_rig/meshes/torso.STL"},
		{Key: "gone", Source: "gone", MeshPath: "package://kinect_rig/meshes/gone.stl"},
		{Key: "arm_link", Source: "hand", MeshPath: "package://kinect_rig/meshes/arm.dae"},
	}}

	frames, err := r.Resolve(JointUpdate{{Name: "shoulder", Value: 0.2}})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, kinematics.ErrUnknownSegment), test.ShouldBeTrue)
	test.That(t, multierr.Errors(err), test.ShouldHaveLength, 1)
	test.That(t, err.Error(), test.ShouldContainSubstring, `cannot resolve link "gone"`)

	test.That(t, frames.Len(), test.ShouldEqual, 2)
	_, ok := frames.At(1)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = frames.Position(1)
	test.That(t, ok, test.ShouldBeFalse)
	_, ok = frames.Pose("gone")
	test.That(t, ok, test.ShouldBeFalse)

	arm, ok := frames.At(2)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, arm.Index, test.ShouldEqual, 2)
	test.That(t, arm.Link, test.ShouldEqual, "arm_link")
	test.That(t, arm.MeshPath, test.ShouldEqual, r.MeshPaths()[2])
	test.That(t, arm.MeshPath, test.ShouldEqual, "/opt/rig/meshes/arm.dae")

	torso, ok := frames.At(0)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, torso.MeshPath, test.ShouldEqual, r.MeshPaths()[0])

	test.That(t, logs.FilterMessage("tree solver returned an error").Len(), test.ShouldEqual, 1)
}

func TestChainJointsFixedInDescription(t *testing.T) {
	tree, err := kinematics.NewTree("root", []kinematics.SegmentConfig{
		{Name: "root"},
		{Name: "pan", Parent: "root", Joint: kinematics.Joint{Name: "J1", Type: kinematics.JointRevolute, Axis: r3.Vector{Z: 1}}},
		{Name: "tilt", Parent: "pan", Joint: kinematics.Joint{Name: "J2", Type: kinematics.JointRevolute, Axis: r3.Vector{Y: 1}}},
		{Name: "sensor", Parent: "tilt", Offset: spatial.NewPoseFromPoint(r3.Vector{X: 0.1})},
	})
	test.That(t, err, test.ShouldBeNil)
	desc := jointTable{
		"J1": {Name: "J1", Type: kinematics.JointFixed},
		"J2": {Name: "J2", Type: kinematics.JointFixed},
	}
	cfg := &Config{CameraFrame: "sensor", KinematicFrame: "root"}
	_, err = NewResolver(tree, desc, cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, kinematics.ErrUnresolvedJoint), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"J1"`)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"J2"`)
}

func TestUnknownJointInUpdate(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	r, err := NewResolverFromConfig(&Config{RobotDescription: rigURDF}, logger)
	test.That(t, err, test.ShouldBeNil)

	frames, err := r.Resolve(JointUpdate{
		{Name: "head_pan", Value: 0.1},
		{Name: "elbow", Value: 1},
		{Name: "shoulder", Value: 0.2},
		{Name: "wrist_slide", Value: 0.05},
	})
	test.That(t, frames.Len(), test.ShouldEqual, 7)
	errs := multierr.Errors(err)
	test.That(t, errs, test.ShouldHaveLength, 1)
	test.That(t, errors.Is(errs[0], ErrUnknownJoint), test.ShouldBeTrue)
	var lookupErr *JointLookupError
	test.That(t, errors.As(errs[0], &lookupErr), test.ShouldBeTrue)
	test.That(t, lookupErr.Position, test.ShouldEqual, 1)
	test.That(t, lookupErr.Name, test.ShouldEqual, "elbow")
	test.That(t, err.Error(), test.ShouldContainSubstring, `"elbow"`)

	test.That(t, r.State(), test.ShouldResemble, []float64{0.1, 0.2, 0.05})

	warns := logs.FilterLevelExact(zapcore.WarnLevel).All()
	test.That(t, warns, test.ShouldHaveLength, 1)
	test.That(t, warns[0].ContextMap()["name"], test.ShouldEqual, "elbow")
}

func TestNewStream(t *testing.T) {
	r, _ := newRigResolver(t, &Config{})
	_, err := r.Resolve(JointUpdate{{Name: "shoulder", Value: 1}})
	test.That(t, err, test.ShouldBeNil)

	other := r.NewStream()
	test.That(t, other.State(), test.ShouldResemble, []float64{0, 0, 0})
	test.That(t, other.Links(), test.ShouldEqual, r.Links())

	_, err = other.Resolve(JointUpdate{{Name: "head_pan", Value: 0.5}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.State(), test.ShouldResemble, []float64{0, 1, 0})
	test.That(t, other.State(), test.ShouldResemble, []float64{0.5, 0, 0})
}

type jointTable map[string]kinematics.JointDescription

func (jt jointTable) JointDescription(name string) (kinematics.JointDescription, bool) {
	jd, ok := jt[name]
	return jd, ok
}

func TestQuarterTurnScenario(t *testing.T) {
	tree, err := kinematics.NewTree("root", []kinematics.SegmentConfig{
		{Name: "root"},
		{
			Name:   "link1",
			Parent: "root",
			Offset: spatial.NewPoseFromPoint(r3.Vector{Z: 0.1}),
			Joint:  kinematics.Joint{Name: "J1", Type: kinematics.JointRevolute, Axis: r3.Vector{Z: 1}},
		},
		{
			Name:   "link_mesh",
			Parent: "link1",
			Offset: spatial.NewPoseFromPoint(r3.Vector{X: 0.5}),
			Joint:  kinematics.Joint{Name: "J2", Type: kinematics.JointFixed},
			Visual: kinematics.Geometry{Type: kinematics.GeometryMesh, MeshFilename: "arm.mesh"},
		},
	})
	test.That(t, err, test.ShouldBeNil)
	desc := jointTable{
		"J1": {Name: "J1", Type: kinematics.JointRevolute},
		"J2": {Name: "J2", Type: kinematics.JointFixed},
	}
	cfg := &Config{CameraFrame: "root", KinematicFrame: "root", MeshExtensions: []string{".mesh"}}
	r, err := NewResolver(tree, desc, cfg, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r.Links().Keys(), test.ShouldResemble, []string{"link_mesh"})

	frames, err := r.Resolve(JointUpdate{{Name: "J1", Value: 1.5708}})
	test.That(t, err, test.ShouldBeNil)

	rootToLink := spatial.Compose(
		spatial.Compose(spatial.NewPoseFromPoint(r3.Vector{Z: 0.1}), spatial.NewPoseFromOrientation(&spatial.R4AA{Theta: 1.5708, RZ: 1})),
		spatial.NewPoseFromPoint(r3.Vector{X: 0.5}),
	)
	got, ok := frames.Pose("link_mesh")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, spatial.PoseAlmostEqual(got, rootToLink), test.ShouldBeTrue)
	test.That(t, spatial.R3VectorAlmostEqual(got.Point(), r3.Vector{Y: 0.5, Z: 0.1}, 1e-4), test.ShouldBeTrue)

	// a movable joint the description does not know is fatal
	_, err = NewResolver(tree, jointTable{}, cfg, logging.NewTestLogger(t))
	test.That(t, errors.Is(err, kinematics.ErrUnresolvedJoint), test.ShouldBeTrue)
}

func TestNewJointUpdate(t *testing.T) {
	update, err := NewJointUpdate([]string{"a", "b"}, []float64{1, 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, update, test.ShouldResemble, JointUpdate{{Name: "a", Value: 1}, {Name: "b", Value: 2}})

	_, err = NewJointUpdate([]string{"a"}, nil)
	test.That(t, err, test.ShouldNotBeNil)
}
