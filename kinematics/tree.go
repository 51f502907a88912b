// Package kinematics evaluates forward kinematics over a robot's kinematic tree.
//
// A Tree is an arena of segments addressed by a stable integer index. Every segment stores the index of its
// parent, and the arena is ordered so that a parent always comes before its children. A segment is a rigid
// body together with the joint connecting it to its parent: its pose relative to the parent is the fixed
// offset to the joint followed by the joint motion for the current joint value.
package kinematics

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"

	"go.viam.com/robotstate/referenceframe"
	spatial "go.viam.com/robotstate/spatialmath"
)

// NoParent is the parent index of parentless segments, the root and any disconnected fixtures.
const NoParent = -1

// JointType is the kind of motion a joint allows.
type JointType int

// The supported kinds of joints. Continuous joints are revolute joints with unbounded limits.
const (
	JointNone JointType = iota
	JointFixed
	JointRevolute
	JointPrismatic
)

func (jt JointType) String() string {
	switch jt {
	case JointNone:
		return "none"
	case JointFixed:
		return referenceframe.FixedJoint
	case JointRevolute:
		return referenceframe.RevoluteJoint
	case JointPrismatic:
		return referenceframe.PrismaticJoint
	default:
		return fmt.Sprintf("unknown(%d)", int(jt))
	}
}

// Movable reports whether a joint of this type takes a joint value.
func (jt JointType) Movable() bool {
	return jt == JointRevolute || jt == JointPrismatic
}

// Joint connects a segment to its parent.
type Joint struct {
	Name string
	Type JointType
	// Axis is expressed in the joint frame, i.e. after the segment offset has been applied.
	Axis r3.Vector
	// Limit is only meaningful for movable joints.
	Limit referenceframe.Limit
}

// GeometryType tags the visual geometry of a segment.
type GeometryType int

// A segment has no visual, a primitive shape, or an external mesh resource.
const (
	GeometryNone GeometryType = iota
	GeometryPrimitive
	GeometryMesh
)

// Geometry is the visual geometry attached to a segment.
type Geometry struct {
	Type GeometryType
	// MeshFilename is the resource path of a GeometryMesh.
	MeshFilename string
	// Primitive names the shape of a GeometryPrimitive, e.g. "box".
	Primitive string
}

func (g Geometry) String() string {
	switch g.Type {
	case GeometryMesh:
		return "mesh " + g.MeshFilename
	case GeometryPrimitive:
		return g.Primitive
	case GeometryNone:
		return ""
	default:
		return ""
	}
}

// SegmentConfig describes a segment to be placed in a Tree.
type SegmentConfig struct {
	Name string
	// Parent is empty for parentless segments.
	Parent string
	// Offset is the fixed transform from the parent segment frame to the joint frame. Nil means identity.
	Offset spatial.Pose
	Joint  Joint
	Visual Geometry
}

// Segment is a node of the Tree.
type Segment struct {
	Name   string
	Parent int
	Joint  Joint
	Visual Geometry

	offset spatial.Pose
	// motion is nil for segments whose joint does not move.
	motion referenceframe.Frame
}

// Offset returns the fixed transform from the parent segment frame to the joint frame.
func (s *Segment) Offset() spatial.Pose {
	return s.offset
}

// pose returns the transform from the parent segment frame to this segment frame for the given joint value.
func (s *Segment) pose(value float64) (spatial.Pose, error) {
	if s.motion == nil {
		return s.offset, nil
	}
	motion, err := s.motion.Transform(referenceframe.FloatsToInputs([]float64{value}))
	if err != nil {
		return nil, err
	}
	return spatial.Compose(s.offset, motion), nil
}

// Tree is the full branching structure of segments. It is immutable once built and safe to share.
type Tree struct {
	root     int
	segments []Segment
	byName   map[string]int
}

// NewTree builds a Tree from segment configs. The named root must be parentless. Parentless segments other than the
// root are kept as disconnected fixtures.
func NewTree(root string, configs []SegmentConfig) (*Tree, error) {
	byConfig := make(map[string]int, len(configs))
	children := make(map[string][]int, len(configs))
	var parentless []int
	for i, cfg := range configs {
		if cfg.Name == "" {
			return nil, errors.Errorf("segment %d has no name", i)
		}
		if _, ok := byConfig[cfg.Name]; ok {
			return nil, errors.Errorf("segment with name %q already in tree", cfg.Name)
		}
		byConfig[cfg.Name] = i
	}
	for i, cfg := range configs {
		if cfg.Parent == "" {
			parentless = append(parentless, i)
			continue
		}
		if _, ok := byConfig[cfg.Parent]; !ok {
			return nil, errors.Errorf("parent segment with name %q of %q not in tree", cfg.Parent, cfg.Name)
		}
		children[cfg.Parent] = append(children[cfg.Parent], i)
	}

	rootCfg, ok := byConfig[root]
	if !ok {
		return nil, NewUnknownSegmentError(root)
	}
	if configs[rootCfg].Parent != "" {
		return nil, errors.Errorf("root segment %q has parent %q", root, configs[rootCfg].Parent)
	}

	tree := &Tree{segments: make([]Segment, 0, len(configs)), byName: make(map[string]int, len(configs))}

	// Depth first from the root, then from every other parentless segment, so that parents precede children.
	var visit func(cfgIdx, parent int) error
	visit = func(cfgIdx, parent int) error {
		seg, err := newSegment(configs[cfgIdx], parent)
		if err != nil {
			return err
		}
		idx := len(tree.segments)
		tree.segments = append(tree.segments, seg)
		tree.byName[seg.Name] = idx
		for _, child := range children[seg.Name] {
			if err := visit(child, idx); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(rootCfg, NoParent); err != nil {
		return nil, err
	}
	tree.root = tree.byName[root]
	for _, cfgIdx := range parentless {
		if cfgIdx == rootCfg {
			continue
		}
		if err := visit(cfgIdx, NoParent); err != nil {
			return nil, err
		}
	}
	if len(tree.segments) != len(configs) {
		// whatever was not visited hangs off a parent cycle
		for _, cfg := range configs {
			if _, ok := tree.byName[cfg.Name]; !ok {
				return nil, errors.Errorf("segment %q is part of a parent cycle", cfg.Name)
			}
		}
	}
	return tree, nil
}

func newSegment(cfg SegmentConfig, parent int) (Segment, error) {
	offset := cfg.Offset
	if offset == nil {
		offset = spatial.NewZeroPose()
	}
	seg := Segment{Name: cfg.Name, Parent: parent, Joint: cfg.Joint, Visual: cfg.Visual, offset: offset}

	var err error
	switch cfg.Joint.Type {
	case JointRevolute:
		seg.motion, err = referenceframe.NewRotationalFrame(cfg.Joint.Name, cfg.Joint.Axis, cfg.Joint.Limit)
	case JointPrismatic:
		seg.motion, err = referenceframe.NewTranslationalFrame(cfg.Joint.Name, cfg.Joint.Axis, cfg.Joint.Limit)
	case JointFixed, JointNone:
	default:
		err = referenceframe.NewUnsupportedJointTypeError(cfg.Joint.Type.String())
	}
	if err != nil {
		return Segment{}, errors.Wrapf(err, "segment %q", cfg.Name)
	}
	return seg, nil
}

// Root returns the name of the root segment.
func (t *Tree) Root() string {
	return t.segments[t.root].Name
}

// Len returns the number of segments in the tree.
func (t *Tree) Len() int {
	return len(t.segments)
}

// Index returns the arena index of the named segment.
func (t *Tree) Index(name string) (int, bool) {
	idx, ok := t.byName[name]
	return idx, ok
}

// Segment returns the segment at the given arena index.
func (t *Tree) Segment(idx int) *Segment {
	return &t.segments[idx]
}

// SegmentNames returns the names of all segments in arena order.
func (t *Tree) SegmentNames() []string {
	names := make([]string, 0, len(t.segments))
	for _, seg := range t.segments {
		names = append(names, seg.Name)
	}
	return names
}

// Traceback returns the arena indices from the given segment up to its parentless ancestor, inclusive of both.
func (t *Tree) Traceback(idx int) []int {
	path := []int{}
	for ; idx != NoParent; idx = t.segments[idx].Parent {
		path = append(path, idx)
	}
	return path
}

// ConnectedToRoot reports whether the segment at idx descends from the root (or is the root).
func (t *Tree) ConnectedToRoot(idx int) bool {
	path := t.Traceback(idx)
	return path[len(path)-1] == t.root
}

// String prints out a table of each segment in the tree, with columns of name, parent, joint and visual geometry.
func (t *Tree) String() string {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Name", "Parent", "Joint", "Type", "Limit", "Visual"})
	for i, seg := range t.segments {
		parent := ""
		if seg.Parent != NoParent {
			parent = t.segments[seg.Parent].Name
		}
		limit := ""
		if seg.Joint.Type.Movable() {
			limit = seg.Joint.Limit.String()
		}
		tw.AppendRow(table.Row{i, seg.Name, parent, seg.Joint.Name, seg.Joint.Type, limit, seg.Visual})
	}
	return tw.Render()
}
