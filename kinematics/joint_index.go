package kinematics

import (
	"github.com/samber/lo"

	"go.viam.com/robotstate/referenceframe"
)

// JointDescription is the definition of a joint as held by the robot description document.
type JointDescription struct {
	Name  string
	Type  JointType
	Limit referenceframe.Limit
}

// JointDescriber looks up joint definitions by name in a robot description.
type JointDescriber interface {
	JointDescription(name string) (JointDescription, bool)
}

// JointIndex is a stable bijection between movable joint names and dense indices in [0, Len()).
// It never changes after construction and is safe to share.
type JointIndex struct {
	names  []string
	limits []referenceframe.Limit
	byName map[string]int
	// bySegment holds the joint index of each tree segment, or -1.
	bySegment []int
}

// NewJointIndex walks the tree in arena order and assigns the next index to every segment whose joint moves.
// The joint definition, including its limits, is taken from the description. A movable joint without a
// definition is an inconsistent input and fails the build. Joints the description lists as fixed are skipped.
func NewJointIndex(tree *Tree, desc JointDescriber) (*JointIndex, error) {
	ji := &JointIndex{
		byName:    map[string]int{},
		bySegment: make([]int, tree.Len()),
	}
	for i := 0; i < tree.Len(); i++ {
		ji.bySegment[i] = -1
		seg := tree.Segment(i)
		if !seg.Joint.Type.Movable() {
			continue
		}
		def, ok := desc.JointDescription(seg.Joint.Name)
		if !ok {
			return nil, NewUnresolvedJointError(seg.Joint.Name)
		}
		if !def.Type.Movable() {
			continue
		}
		if idx, ok := ji.byName[def.Name]; ok {
			// two segments driven by one joint name share the state entry
			ji.bySegment[i] = idx
			continue
		}
		idx := len(ji.names)
		ji.names = append(ji.names, def.Name)
		ji.limits = append(ji.limits, def.Limit)
		ji.byName[def.Name] = idx
		ji.bySegment[i] = idx
	}
	return ji, nil
}

// Len returns the number of indexed joints.
func (ji *JointIndex) Len() int {
	return len(ji.names)
}

// Index returns the dense index of the named joint.
func (ji *JointIndex) Index(name string) (int, bool) {
	idx, ok := ji.byName[name]
	return idx, ok
}

// Name returns the joint name at the given index.
func (ji *JointIndex) Name(idx int) string {
	return ji.names[idx]
}

// Names returns the joint names in index order.
func (ji *JointIndex) Names() []string {
	return append([]string{}, ji.names...)
}

// Limits returns the limit of every joint in index order.
func (ji *JointIndex) Limits() []referenceframe.Limit {
	return append([]referenceframe.Limit{}, ji.limits...)
}

// SegmentJoint returns the joint index driving the segment at the given arena index.
func (ji *JointIndex) SegmentJoint(segment int) (int, bool) {
	if segment < 0 || segment >= len(ji.bySegment) || ji.bySegment[segment] < 0 {
		return -1, false
	}
	return ji.bySegment[segment], true
}

// Missing returns which of the given names have no index.
func (ji *JointIndex) Missing(names []string) []string {
	return lo.Filter(names, func(name string, _ int) bool {
		_, ok := ji.byName[name]
		return !ok
	})
}
