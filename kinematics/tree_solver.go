package kinematics

import (
	spatial "go.viam.com/robotstate/spatialmath"
)

// TreeSolver evaluates forward kinematics from the tree root to any segment of the tree.
type TreeSolver struct {
	tree  *Tree
	index *JointIndex
}

// NewTreeSolver returns a solver reading joint values from dense state vectors laid out by index.
func NewTreeSolver(tree *Tree, index *JointIndex) *TreeSolver {
	return &TreeSolver{tree: tree, index: index}
}

// Solve returns the transform from the tree root to the target segment.
func (ts *TreeSolver) Solve(state []float64, target string) (spatial.Pose, error) {
	pass, err := ts.NewPass(state)
	if err != nil {
		return nil, err
	}
	return pass.Solve(target)
}

// NewPass starts a set of solves against one state vector. Root to segment transforms are memoized for the life of
// the pass, so walks sharing a prefix of the tree only compose it once. A pass must not outlive the state it reads.
func (ts *TreeSolver) NewPass(state []float64) (*Pass, error) {
	if len(state) != ts.index.Len() {
		return nil, NewIncorrectInputLengthError(len(state), ts.index.Len())
	}
	return &Pass{solver: ts, state: state, memo: make([]spatial.Pose, ts.tree.Len())}, nil
}

// Pass is a memoized set of tree solves for a single state vector. It is not safe for concurrent use.
type Pass struct {
	solver *TreeSolver
	state  []float64
	memo   []spatial.Pose
}

// Solve returns the transform from the tree root to the target segment.
func (p *Pass) Solve(target string) (spatial.Pose, error) {
	tree := p.solver.tree
	idx, ok := tree.Index(target)
	if !ok {
		return nil, NewUnknownSegmentError(target)
	}
	if !tree.ConnectedToRoot(idx) {
		return nil, NewDisconnectedSegmentError(target, tree.Root())
	}
	return p.solve(idx)
}

func (p *Pass) solve(idx int) (spatial.Pose, error) {
	if p.memo[idx] != nil {
		return p.memo[idx], nil
	}
	tree := p.solver.tree

	// walk up to the closest solved ancestor, then compose back down
	var pending []int
	parentPose := spatial.NewZeroPose()
	for cur := idx; cur != NoParent; cur = tree.Segment(cur).Parent {
		if p.memo[cur] != nil {
			parentPose = p.memo[cur]
			break
		}
		pending = append(pending, cur)
	}
	for i := len(pending) - 1; i >= 0; i-- {
		cur := pending[i]
		if tree.Segment(cur).Parent == NoParent {
			// the root is the origin of every tree solve
			p.memo[cur] = parentPose
			continue
		}
		var value float64
		if j, ok := p.solver.index.SegmentJoint(cur); ok {
			value = p.state[j]
		}
		local, err := tree.Segment(cur).pose(value)
		if err != nil {
			return nil, err
		}
		parentPose = spatial.Compose(parentPose, local)
		p.memo[cur] = parentPose
	}
	return parentPose, nil
}
