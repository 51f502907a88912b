package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"go.viam.com/robotstate/logging"
	"go.viam.com/robotstate/robotstate"
	"go.viam.com/robotstate/ros"
)

// loadConfig reads the config file, if any, and applies the command line overrides.
func loadConfig(c *cli.Context) (*robotstate.Config, error) {
	cfg := &robotstate.Config{}
	if path := c.String(generalFlagConfig); path != "" {
		var err error
		if cfg, err = robotstate.ReadConfigFile(path); err != nil {
			return nil, err
		}
	}
	if urdf := c.String(generalFlagURDF); urdf != "" {
		cfg.RobotDescription = urdf
	}
	if frame := c.String(generalFlagCameraFrame); frame != "" {
		cfg.CameraFrame = frame
	}
	if frame := c.String(generalFlagKinematicFrame); frame != "" {
		cfg.KinematicFrame = frame
	}
	if path := c.String(generalFlagPackagePath); path != "" {
		cfg.RobotDescriptionPackagePath = path
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// newLogger returns the command logger at the requested level. --debug wins over --log-level.
func newLogger(c *cli.Context) (logging.Logger, error) {
	level, err := logging.LevelFromString(c.String(generalFlagLogLevel))
	if err != nil {
		return nil, err
	}
	if c.Bool(generalFlagDebug) {
		level = logging.DEBUG
	}
	logger := logging.NewLogger("robotstate")
	logger.SetLevel(level)
	return logger, nil
}

func newResolver(c *cli.Context) (*robotstate.Resolver, logging.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(c)
	if err != nil {
		return nil, nil, err
	}
	r, err := robotstate.NewResolverFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return r, logger, nil
}

// TreeAction prints the kinematic tree and the joint index.
func TreeAction(c *cli.Context) error {
	r, _, err := newResolver(c)
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", r.Tree().String())

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Index", "Joint", "Limit"})
	limits := r.JointLimits()
	for i, name := range r.JointNames() {
		tw.AppendRow(table.Row{i, name, limits[i]})
	}
	printf(c.App.Writer, "%s", tw.Render())
	return nil
}

// MeshesAction lists the tracked links in the order their poses are reported.
func MeshesAction(c *cli.Context) error {
	r, _, err := newResolver(c)
	if err != nil {
		return err
	}
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Link", "From", "Mesh"})
	paths := r.MeshPaths()
	for i, link := range r.Links().Links() {
		tw.AppendRow(table.Row{i, link.Key, link.Source, paths[i]})
	}
	printf(c.App.Writer, "%s", tw.Render())
	return nil
}

// ResolveAction resolves the link poses for the joint values given on the command line.
func ResolveAction(c *cli.Context) error {
	update, err := parseJointValues(c.StringSlice(resolveFlagJoint))
	if err != nil {
		return err
	}
	r, _, err := newResolver(c)
	if err != nil {
		return err
	}
	frames, err := r.Resolve(update)
	for _, e := range multierr.Errors(err) {
		warningf(c.App.ErrWriter, "%v", e)
	}
	writeFrames(c.App.Writer, frames, c.Bool(resolveFlagAffine))
	return nil
}

// ReplayAction resolves the link poses for every joint state message of a rosbag.
func ReplayAction(c *cli.Context) error {
	r, logger, err := newResolver(c)
	if err != nil {
		return err
	}
	topic := c.String(replayFlagTopic)
	if topic == "" {
		topic = r.Config().JointStateTopic
	}
	rb, err := ros.ReadBag(c.Path(replayFlagBag))
	if err != nil {
		return err
	}
	msgs, err := ros.JointStatesForTopic(rb, topic)
	if err != nil {
		return err
	}

	verbose := c.Bool(replayFlagVerbose)
	err = ros.Replay(r, msgs, logger, func(msg *ros.JointStateMessage, frames *robotstate.FrameMap) error {
		printf(c.App.Writer, "%s seq %d: %d of %d links", msg.Time().Format("15:04:05.000"),
			msg.Data.Header.Seq, frames.Len(), r.Links().Len())
		if verbose {
			writeFrames(c.App.Writer, frames, false)
		}
		return nil
	})
	errs := multierr.Errors(err)
	for _, e := range errs {
		warningf(c.App.ErrWriter, "%v", e)
	}
	printf(c.App.Writer, "replayed %d messages from %s with %d errors", len(msgs), topic, len(errs))
	return nil
}

// SchemaAction prints the JSON schema of the configuration file.
func SchemaAction(c *cli.Context) error {
	schema := jsonschema.Reflect(&robotstate.Config{})
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	printf(c.App.Writer, "%s", data)
	return nil
}

func parseJointValues(values []string) (robotstate.JointUpdate, error) {
	update := make(robotstate.JointUpdate, 0, len(values))
	for _, v := range values {
		name, raw, found := strings.Cut(v, "=")
		if !found || name == "" {
			return nil, errors.Errorf("joint value %q must be NAME=VALUE", v)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "joint value %q", v)
		}
		update = append(update, robotstate.JointValue{Name: strings.TrimSpace(name), Value: value})
	}
	return update, nil
}

func writeFrames(w io.Writer, frames *robotstate.FrameMap, affine bool) {
	tw := table.NewWriter()
	if affine {
		tw.AppendHeader(table.Row{"#", "Link", "Transform"})
	} else {
		tw.AppendHeader(table.Row{"#", "Link", "X", "Y", "Z", "QW", "QX", "QY", "QZ"})
	}
	for _, lp := range frames.Poses() {
		if affine {
			m := lp.Affine()
			rows := make([]string, 0, 4)
			for row := 0; row < 4; row++ {
				rows = append(rows, fmt.Sprintf("% .4f % .4f % .4f % .4f", m.At(row, 0), m.At(row, 1), m.At(row, 2), m.At(row, 3)))
			}
			tw.AppendRow(table.Row{lp.Index, lp.Link, strings.Join(rows, "\n")})
			continue
		}
		pt := lp.Pose.Point()
		q := lp.Pose.Orientation().Quaternion()
		tw.AppendRow(table.Row{
			lp.Index, lp.Link,
			fmt.Sprintf("%.4f", pt.X), fmt.Sprintf("%.4f", pt.Y), fmt.Sprintf("%.4f", pt.Z),
			fmt.Sprintf("%.4f", q.Real), fmt.Sprintf("%.4f", q.Imag), fmt.Sprintf("%.4f", q.Jmag), fmt.Sprintf("%.4f", q.Kmag),
		})
	}
	printf(w, "%s", tw.Render())
}

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// warningf prints a message prefixed with a bold "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, "\x1b[1mWarning:\x1b[0m "+format+"\n", a...)
}
