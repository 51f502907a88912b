package robotstate

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	spatial "go.viam.com/robotstate/spatialmath"
)

// LinkPose is the pose of one tracked link in the camera frame.
type LinkPose struct {
	// Index is the position of the link in the LinkSet and in the mesh path list.
	Index int
	Link  string
	// MeshPath is the resolved mesh file, the same as Resolver.MeshPaths()[Index].
	MeshPath string
	Pose     spatial.Pose
}

// Affine returns the pose as a 4x4 homogeneous transform.
func (lp LinkPose) Affine() mgl64.Mat4 {
	return spatial.AffineMatrix(lp.Pose)
}

// FrameMap holds the link poses of one resolve call, in LinkSet order. Links that failed to resolve are absent.
type FrameMap struct {
	poses   []LinkPose
	byIndex map[int]int
	byLink  map[string]int
}

func newFrameMap(capacity int) *FrameMap {
	return &FrameMap{
		poses:   make([]LinkPose, 0, capacity),
		byIndex: make(map[int]int, capacity),
		byLink:  make(map[string]int, capacity),
	}
}

func (fm *FrameMap) add(lp LinkPose) {
	fm.byIndex[lp.Index] = len(fm.poses)
	if _, ok := fm.byLink[lp.Link]; !ok {
		fm.byLink[lp.Link] = len(fm.poses)
	}
	fm.poses = append(fm.poses, lp)
}

// Len returns the number of resolved links.
func (fm *FrameMap) Len() int {
	return len(fm.poses)
}

// Poses returns the resolved link poses in LinkSet order.
func (fm *FrameMap) Poses() []LinkPose {
	return append([]LinkPose{}, fm.poses...)
}

// Pose returns the pose of the named link.
func (fm *FrameMap) Pose(link string) (spatial.Pose, bool) {
	i, ok := fm.byLink[link]
	if !ok {
		return nil, false
	}
	return fm.poses[i].Pose, true
}

// At returns the pose of the tracked link at LinkSet index i.
func (fm *FrameMap) At(i int) (LinkPose, bool) {
	j, ok := fm.byIndex[i]
	if !ok {
		return LinkPose{}, false
	}
	return fm.poses[j], true
}

// Position returns the position of the tracked link at LinkSet index i.
func (fm *FrameMap) Position(i int) (r3.Vector, bool) {
	lp, ok := fm.At(i)
	if !ok {
		return r3.Vector{}, false
	}
	return lp.Pose.Point(), true
}

// Orientation returns the orientation, as a unit quaternion, of the tracked link at LinkSet index i.
func (fm *FrameMap) Orientation(i int) (quat.Number, bool) {
	lp, ok := fm.At(i)
	if !ok {
		return quat.Number{}, false
	}
	return lp.Pose.Orientation().Quaternion(), true
}
