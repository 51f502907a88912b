package kinematics

import (
	spatial "go.viam.com/robotstate/spatialmath"
)

// Chain is the fixed downward path through a Tree from a base segment to a tip segment. The base segment's own
// pose is not part of the chain, so a chain whose base and tip are the same segment has no segments and solves
// to the identity.
type Chain struct {
	tree     *Tree
	base     int
	tip      int
	segments []int
	joints   []string
}

// NewChain builds the chain from base down to tip. The base must be the tip itself or one of its ancestors.
func NewChain(tree *Tree, base, tip string) (*Chain, error) {
	baseIdx, ok := tree.Index(base)
	if !ok {
		return nil, NewUnknownSegmentError(base)
	}
	tipIdx, ok := tree.Index(tip)
	if !ok {
		return nil, NewUnknownSegmentError(tip)
	}

	var path []int
	found := false
	for idx := tipIdx; idx != NoParent; idx = tree.Segment(idx).Parent {
		if idx == baseIdx {
			found = true
			break
		}
		path = append(path, idx)
	}
	if !found {
		return nil, NewChainNotFoundError(base, tip)
	}

	c := &Chain{tree: tree, base: baseIdx, tip: tipIdx, segments: make([]int, 0, len(path))}
	for i := len(path) - 1; i >= 0; i-- {
		seg := tree.Segment(path[i])
		c.segments = append(c.segments, path[i])
		if seg.Joint.Type.Movable() {
			c.joints = append(c.joints, seg.Joint.Name)
		}
	}
	return c, nil
}

// Base returns the name of the segment the chain starts from.
func (c *Chain) Base() string {
	return c.tree.Segment(c.base).Name
}

// Tip returns the name of the segment the chain ends at.
func (c *Chain) Tip() string {
	return c.tree.Segment(c.tip).Name
}

// Len returns the number of segments walked by the chain.
func (c *Chain) Len() int {
	return len(c.segments)
}

// JointNames returns, in base to tip order, the names of the movable joints along the chain. ChainSolver.Solve
// expects one value per name, in this order.
func (c *Chain) JointNames() []string {
	return append([]string{}, c.joints...)
}

// ChainSolver evaluates forward kinematics along a single Chain.
type ChainSolver struct{}

// Solve returns the transform from the chain base to the chain tip for the given joint values, ordered as
// Chain.JointNames. It is computed from scratch on every call.
func (ChainSolver) Solve(chain *Chain, values []float64) (spatial.Pose, error) {
	if chain == nil || chain.tree == nil {
		return nil, NewDegenerateChainError()
	}
	if len(values) != len(chain.joints) {
		return nil, NewIncorrectInputLengthError(len(values), len(chain.joints))
	}
	pose := spatial.NewZeroPose()
	next := 0
	for _, idx := range chain.segments {
		seg := chain.tree.Segment(idx)
		var value float64
		if seg.Joint.Type.Movable() {
			value = values[next]
			next++
		}
		local, err := seg.pose(value)
		if err != nil {
			return nil, err
		}
		pose = spatial.Compose(pose, local)
	}
	return pose, nil
}
