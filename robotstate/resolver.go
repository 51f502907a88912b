// Package robotstate resolves the pose of every mesh bearing robot link in a camera frame from joint state updates.
package robotstate

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/robotstate/kinematics"
	"go.viam.com/robotstate/logging"
	"go.viam.com/robotstate/referenceframe"
	"go.viam.com/robotstate/referenceframe/urdf"
	spatial "go.viam.com/robotstate/spatialmath"
)

// JointValue is the new value of one named joint.
type JointValue struct {
	Name  string
	Value float64
}

// JointUpdate is a sparse, ordered joint state update. It need not cover every joint and may name joints
// the robot does not have.
type JointUpdate []JointValue

// NewJointUpdate pairs names with values.
func NewJointUpdate(names []string, values []float64) (JointUpdate, error) {
	if len(names) != len(values) {
		return nil, errors.Errorf("joint state has %d names but %d positions", len(names), len(values))
	}
	update := make(JointUpdate, 0, len(names))
	for i, name := range names {
		update = append(update, JointValue{Name: name, Value: values[i]})
	}
	return update, nil
}

// topology is everything about the robot that is fixed once a Resolver is built. It is shared read only
// between streams.
type topology struct {
	cfg    Config
	tree   *kinematics.Tree
	index  *kinematics.JointIndex
	chain  *kinematics.Chain
	solver *kinematics.TreeSolver
	links  *LinkSet
	// chainJoints holds the dense index of each joint along the chain.
	chainJoints []int
	logger      logging.Logger
}

// Resolver is a StateResolver serving a single joint state stream. It keeps the last known value of every
// joint between calls to Resolve.
type Resolver struct {
	*topology

	mu    sync.Mutex
	state []float64
}

// NewResolver indexes the tree's joints against the description, builds the chain from the kinematic frame to the
// camera frame and selects the tracked links. Any inconsistency between the tree, the description and the
// configured frames fails construction.
func NewResolver(
	tree *kinematics.Tree,
	desc kinematics.JointDescriber,
	cfg *Config,
	logger logging.Logger,
) (*Resolver, error) {
	c := *cfg
	c.ApplyDefaults()
	if err := c.Validate("robot_state"); err != nil {
		return nil, err
	}

	index, err := kinematics.NewJointIndex(tree, desc)
	if err != nil {
		return nil, err
	}

	chain, err := kinematics.NewChain(tree, c.KinematicFrame, c.CameraFrame)
	if err != nil {
		return nil, err
	}
	kinIdx, _ := tree.Index(c.KinematicFrame)
	if !tree.ConnectedToRoot(kinIdx) {
		return nil, kinematics.NewDisconnectedSegmentError(c.KinematicFrame, tree.Root())
	}
	if missing := index.Missing(chain.JointNames()); len(missing) > 0 {
		var errs error
		for _, name := range missing {
			errs = multierr.Append(errs, kinematics.NewUnresolvedJointError(name))
		}
		return nil, errors.Wrapf(errs, "chain from %q to %q", c.KinematicFrame, c.CameraFrame)
	}
	chainJoints := make([]int, 0, len(chain.JointNames()))
	for _, name := range chain.JointNames() {
		idx, _ := index.Index(name)
		chainJoints = append(chainJoints, idx)
	}

	links, err := SelectLinks(tree, tree.Root(), c.MeshExtensions, c.CollapseDuplicateLinks, logger)
	if err != nil {
		return nil, err
	}

	logger.Infow("robot state ready",
		"root", tree.Root(),
		"joints", index.Len(),
		"chain", c.KinematicFrame+" -> "+c.CameraFrame,
		"chain_segments", chain.Len(),
		"tracked_links", links.Len(),
	)
	return &Resolver{
		topology: &topology{
			cfg:         c,
			tree:        tree,
			index:       index,
			chain:       chain,
			solver:      kinematics.NewTreeSolver(tree, index),
			links:       links,
			chainJoints: chainJoints,
			logger:      logger,
		},
		state: make([]float64, index.Len()),
	}, nil
}

// NewResolverFromConfig parses the robot description named by the config and builds a Resolver for it.
func NewResolverFromConfig(cfg *Config, logger logging.Logger) (*Resolver, error) {
	if cfg.RobotDescription == "" {
		return nil, errors.New("no robot description configured")
	}
	model, err := urdf.ParseModelXMLFile(cfg.RobotDescription, cfg.RootFrame, logger)
	if err != nil {
		return nil, err
	}
	return NewResolver(model.Tree, model, cfg, logger)
}

// NewStream returns a Resolver for another joint state stream of the same robot. It shares the tree, index, chain
// and links, and starts with every joint at zero.
func (r *Resolver) NewStream() *Resolver {
	return &Resolver{topology: r.topology, state: make([]float64, r.index.Len())}
}

// Resolve merges the update into the joint state and returns the pose of every tracked link in the camera frame.
// Entries naming unknown joints and links that cannot be solved are skipped; their errors are combined in the
// returned error, which can be split with multierr.Errors. The returned FrameMap is never nil.
func (r *Resolver) Resolve(update JointUpdate) (*FrameMap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs error
	for i, jv := range update {
		idx, ok := r.index.Index(jv.Name)
		if !ok {
			r.logger.Warnw("no joint index", "i", i, "name", jv.Name, "position", jv.Value)
			errs = multierr.Append(errs, &JointLookupError{Position: i, Name: jv.Name})
			continue
		}
		r.state[idx] = jv.Value
	}

	frames := newFrameMap(r.links.Len())
	pass, err := r.solver.NewPass(r.state)
	if err != nil {
		return frames, multierr.Append(errs, err)
	}
	rootToCamera, err := r.cameraTransform(pass)
	if err != nil {
		r.logger.Errorw("cannot get transform from kinematic frame to camera", "error", err)
		return frames, multierr.Append(errs, err)
	}
	cameraFromRoot := spatial.PoseInverse(rootToCamera)

	for i, link := range r.links.links {
		rootToLink, err := pass.Solve(link.Key)
		if err != nil {
			err = NewLinkSolveError(link.Key, err)
			r.logger.Warnw("tree solver returned an error", "link", link.Key, "error", err)
			errs = multierr.Append(errs, err)
			continue
		}
		frames.add(LinkPose{
			Index:    i,
			Link:     link.Key,
			MeshPath: urdf.ResolveMeshPath(link.MeshPath, r.cfg.RobotDescriptionPackagePath),
			Pose:     spatial.Compose(cameraFromRoot, rootToLink),
		})
	}
	return frames, errs
}

// cameraTransform returns the transform from the tree root to the camera frame.
func (r *Resolver) cameraTransform(pass *kinematics.Pass) (spatial.Pose, error) {
	values := make([]float64, len(r.chainJoints))
	for i, idx := range r.chainJoints {
		values[i] = r.state[idx]
	}
	kinToCamera, err := kinematics.ChainSolver{}.Solve(r.chain, values)
	if err != nil {
		return nil, err
	}
	if r.cfg.KinematicFrame == r.tree.Root() {
		return kinToCamera, nil
	}
	rootToKin, err := pass.Solve(r.cfg.KinematicFrame)
	if err != nil {
		return nil, err
	}
	return spatial.Compose(rootToKin, kinToCamera), nil
}

// State returns a copy of the dense joint state, ordered by joint index.
func (r *Resolver) State() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64{}, r.state...)
}

// JointNames returns the indexed joint names in index order.
func (r *Resolver) JointNames() []string {
	return r.index.Names()
}

// JointLimits returns the recorded limit of each indexed joint. Limits are never enforced.
func (r *Resolver) JointLimits() []referenceframe.Limit {
	return r.index.Limits()
}

// Links returns the tracked link set.
func (r *Resolver) Links() *LinkSet {
	return r.links
}

// MeshPaths returns the mesh file of every tracked link, index aligned with the FrameMap, with package
// URIs resolved against the configured package path.
func (r *Resolver) MeshPaths() []string {
	paths := r.links.MeshPaths()
	for i, p := range paths {
		paths[i] = urdf.ResolveMeshPath(p, r.cfg.RobotDescriptionPackagePath)
	}
	return paths
}

// Config returns the config the resolver was built with, defaults applied.
func (r *Resolver) Config() Config {
	return r.cfg
}

// Tree returns the kinematic tree.
func (r *Resolver) Tree() *kinematics.Tree {
	return r.tree
}
