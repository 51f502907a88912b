// Package urdf reads robot description documents in the Universal Robot Description Format into a kinematic tree
// and a joint description lookup.
package urdf

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/robotstate/kinematics"
	"go.viam.com/robotstate/logging"
	"go.viam.com/robotstate/referenceframe"
)

// Extension is the file extension associated with URDF files.
const Extension string = "urdf"

const (
	packageScheme = "package://"
	fileScheme    = "file://"
)

// Model is a parsed robot description.
type Model struct {
	Name string
	Tree *kinematics.Tree

	joints map[string]kinematics.JointDescription
}

// JointDescription returns the definition of the named joint as written in the document.
func (m *Model) JointDescription(name string) (kinematics.JointDescription, bool) {
	jd, ok := m.joints[name]
	return jd, ok
}

// UnmarshalModelXML parses URDF XML data into a Model. The tree is rooted at root, or at the first link without
// a parent joint when root is empty. Links that are not below the root are kept as disconnected segments.
// Floating, planar and unknown joints are read as fixed joints, with a warning.
func UnmarshalModelXML(xmlData []byte, root string, logger logging.Logger) (*Model, error) {
	doc := &robot{}
	if err := xml.Unmarshal(xmlData, doc); err != nil {
		return nil, errors.Wrap(err, "failed to convert URDF data to equivalent URDF struct")
	}
	if len(doc.Links) == 0 {
		return nil, errors.Errorf("robot %q has no links", doc.Name)
	}

	links := make(map[string]int, len(doc.Links))
	for i, l := range doc.Links {
		links[l.Name] = i
	}

	// The joint whose child is a link holds the offset and the motion of that link.
	parentJoint := make(map[string]*joint, len(doc.Joints))
	joints := make(map[string]kinematics.JointDescription, len(doc.Joints))
	for i := range doc.Joints {
		j := &doc.Joints[i]
		if _, ok := links[j.Parent.Link]; !ok {
			return nil, errors.Errorf("parent link %q of joint %q not found", j.Parent.Link, j.Name)
		}
		if _, ok := links[j.Child.Link]; !ok {
			return nil, errors.Errorf("child link %q of joint %q not found", j.Child.Link, j.Name)
		}
		if other, ok := parentJoint[j.Child.Link]; ok {
			return nil, errors.Errorf("link %q is the child of both %q and %q", j.Child.Link, other.Name, j.Name)
		}
		if _, ok := joints[j.Name]; ok {
			return nil, errors.Errorf("joint %q defined more than once", j.Name)
		}
		parentJoint[j.Child.Link] = j
		joints[j.Name] = j.describe(logger)
	}

	configs := make([]kinematics.SegmentConfig, 0, len(doc.Links))
	for _, l := range doc.Links {
		cfg := kinematics.SegmentConfig{Name: l.Name}
		visual, err := l.geometry()
		if err != nil {
			return nil, err
		}
		cfg.Visual = visual
		if j, ok := parentJoint[l.Name]; ok {
			cfg.Parent = j.Parent.Link
			if cfg.Offset, err = j.Origin.Parse(); err != nil {
				return nil, errors.Wrapf(err, "joint %q", j.Name)
			}
			desc := joints[j.Name]
			cfg.Joint = kinematics.Joint{Name: j.Name, Type: desc.Type, Limit: desc.Limit}
			if desc.Type.Movable() {
				if cfg.Joint.Axis, err = j.Axis.Parse(); err != nil {
					return nil, errors.Wrapf(err, "joint %q", j.Name)
				}
			}
		} else if root == "" {
			root = l.Name
		}
		configs = append(configs, cfg)
	}
	if root == "" {
		return nil, errors.Errorf("robot %q has no root link", doc.Name)
	}

	tree, err := kinematics.NewTree(root, configs)
	if err != nil {
		return nil, err
	}
	return &Model{Name: doc.Name, Tree: tree, joints: joints}, nil
}

// ParseModelXMLFile will read a given file and parse the contained URDF XML data into an equivalent Model.
func ParseModelXMLFile(filename, root string, logger logging.Logger) (*Model, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read URDF file")
	}
	return UnmarshalModelXML(xmlData, root, logger)
}

func (j *joint) describe(logger logging.Logger) kinematics.JointDescription {
	desc := kinematics.JointDescription{Name: j.Name}
	switch j.Type {
	case referenceframe.ContinuousJoint:
		// a continuous joint is a special case of a revolute joint
		desc.Type = kinematics.JointRevolute
		desc.Limit = referenceframe.UnboundedLimit()
	case referenceframe.RevoluteJoint, referenceframe.PrismaticJoint:
		desc.Type = kinematics.JointRevolute
		if j.Type == referenceframe.PrismaticJoint {
			desc.Type = kinematics.JointPrismatic
		}
		desc.Limit = referenceframe.UnboundedLimit()
		if j.Limit != nil {
			desc.Limit = referenceframe.Limit{Min: j.Limit.Lower, Max: j.Limit.Upper}
		}
	case referenceframe.FixedJoint:
		desc.Type = kinematics.JointFixed
	case referenceframe.FloatingJoint, referenceframe.PlanarJoint:
		logger.Warnw("converting joint into a fixed joint", "joint", j.Name, "type", j.Type)
		desc.Type = kinematics.JointFixed
	default:
		logger.Warnw("converting unknown joint type into a fixed joint", "joint", j.Name, "type", j.Type)
		desc.Type = kinematics.JointFixed
	}
	return desc
}

// geometry returns the first visual geometry of the link.
func (l *link) geometry() (kinematics.Geometry, error) {
	if len(l.Visual) == 0 {
		return kinematics.Geometry{Type: kinematics.GeometryNone}, nil
	}
	g := l.Visual[0].Geometry
	switch {
	case g.Mesh != nil:
		if g.Mesh.Filename == "" {
			return kinematics.Geometry{}, errors.Errorf("mesh of link %q has no filename", l.Name)
		}
		return kinematics.Geometry{Type: kinematics.GeometryMesh, MeshFilename: g.Mesh.Filename}, nil
	case g.Box != nil:
		return kinematics.Geometry{Type: kinematics.GeometryPrimitive, Primitive: "box"}, nil
	case g.Sphere != nil:
		return kinematics.Geometry{Type: kinematics.GeometryPrimitive, Primitive: "sphere"}, nil
	case g.Cylinder != nil:
		return kinematics.Geometry{Type: kinematics.GeometryPrimitive, Primitive: "cylinder"}, nil
	default:
		return kinematics.Geometry{Type: kinematics.GeometryNone}, nil
	}
}

// ResolveMeshPath maps a mesh resource path to a file path. "package://<pkg>/<rel>" becomes "<packagePath>/<rel>",
// "file://<path>" becomes "<path>" and anything else is returned as is.
func ResolveMeshPath(filename, packagePath string) string {
	switch {
	case strings.HasPrefix(filename, packageScheme):
		rest := strings.TrimPrefix(filename, packageScheme)
		_, rel, found := strings.Cut(rest, "/")
		if !found {
			return packagePath
		}
		return filepath.Join(packagePath, rel)
	case strings.HasPrefix(filename, fileScheme):
		return strings.TrimPrefix(filename, fileScheme)
	default:
		return filename
	}
}
