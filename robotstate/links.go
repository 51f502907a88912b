package robotstate

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"

	"go.viam.com/robotstate/kinematics"
	"go.viam.com/robotstate/logging"
)

// TrackedLink is a link whose pose gets resolved, along with the mesh rendered at that pose.
type TrackedLink struct {
	// Key is the mesh bearing segment the pose is looked up for.
	Key string
	// Source is the link that led to Key. It differs from Key for links without a mesh of their own.
	Source   string
	MeshPath string
}

// LinkSet is the ordered set of tracked links. It is fixed once selected.
type LinkSet struct {
	links []TrackedLink
}

// SelectLinks walks every segment of the tree, in arena order, up to its nearest ancestor-or-self carrying a mesh
// with one of the given extensions. The link is tracked under that ancestor's name if the ancestor descends from
// root. Links that never reach such an ancestor below root, because they are disconnected or have no mesh on
// their way up, are left out. Several links may resolve to the same key; with collapse set only the first is kept.
func SelectLinks(
	tree *kinematics.Tree,
	root string,
	extensions []string,
	collapse bool,
	logger logging.Logger,
) (*LinkSet, error) {
	rootIdx, ok := tree.Index(root)
	if !ok {
		return nil, kinematics.NewUnknownSegmentError(root)
	}
	links := []TrackedLink{}
	for i := 0; i < tree.Len(); i++ {
		meshIdx := kinematics.NoParent
		for cur := i; cur != kinematics.NoParent; cur = tree.Segment(cur).Parent {
			if hasMesh(tree.Segment(cur).Visual, extensions) {
				meshIdx = cur
				break
			}
			if cur == rootIdx {
				break
			}
		}
		if meshIdx == kinematics.NoParent || !descendsFrom(tree, meshIdx, rootIdx) {
			continue
		}
		seg := tree.Segment(meshIdx)
		logger.Debugf("link %s is descendant of %s", tree.Segment(i).Name, seg.Name)
		links = append(links, TrackedLink{Key: seg.Name, Source: tree.Segment(i).Name, MeshPath: seg.Visual.MeshFilename})
	}
	if collapse {
		links = lo.UniqBy(links, func(l TrackedLink) string { return l.Key })
	}
	return &LinkSet{links: links}, nil
}

func hasMesh(g kinematics.Geometry, extensions []string) bool {
	if g.Type != kinematics.GeometryMesh {
		return false
	}
	ext := strings.ToLower(filepath.Ext(g.MeshFilename))
	return lo.ContainsBy(extensions, func(e string) bool { return strings.ToLower(e) == ext })
}

func descendsFrom(tree *kinematics.Tree, idx, ancestor int) bool {
	return lo.Contains(tree.Traceback(idx), ancestor)
}

// Len returns the number of tracked links.
func (ls *LinkSet) Len() int {
	return len(ls.links)
}

// Link returns the tracked link at index i.
func (ls *LinkSet) Link(i int) TrackedLink {
	return ls.links[i]
}

// Links returns the tracked links in order.
func (ls *LinkSet) Links() []TrackedLink {
	return append([]TrackedLink{}, ls.links...)
}

// Keys returns the segment name each tracked link's pose is looked up for, in order.
func (ls *LinkSet) Keys() []string {
	return lo.Map(ls.links, func(l TrackedLink, _ int) string { return l.Key })
}

// MeshPaths returns the mesh resource paths, index aligned with Keys.
func (ls *LinkSet) MeshPaths() []string {
	return lo.Map(ls.links, func(l TrackedLink, _ int) string { return l.MeshPath })
}
