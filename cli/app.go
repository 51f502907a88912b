// Package cli contains the robot state command line application.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	generalFlagConfig         = "config"
	generalFlagURDF           = "urdf"
	generalFlagCameraFrame    = "camera-frame"
	generalFlagKinematicFrame = "kinematic-frame"
	generalFlagPackagePath    = "package-path"
	generalFlagDebug          = "debug"
	generalFlagLogLevel       = "log-level"

	resolveFlagJoint  = "joint"
	resolveFlagAffine = "affine"

	replayFlagBag     = "bag"
	replayFlagTopic   = "topic"
	replayFlagVerbose = "verbose"
)

var app = &cli.App{
	Name:            "robotstate",
	Usage:           "resolve robot link poses in a camera frame",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    generalFlagConfig,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.StringFlag{
			Name:  generalFlagURDF,
			Usage: "robot description `FILE`, overriding the configured one",
		},
		&cli.StringFlag{
			Name:  generalFlagCameraFrame,
			Usage: "frame link poses are expressed in",
		},
		&cli.StringFlag{
			Name:  generalFlagKinematicFrame,
			Usage: "base frame of the chain to the camera frame",
		},
		&cli.StringFlag{
			Name:  generalFlagPackagePath,
			Usage: "directory package:// mesh paths resolve to",
		},
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:  generalFlagLogLevel,
			Value: "info",
			Usage: "log `LEVEL`: debug, info, warn or error",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "tree",
			Usage:  "print the kinematic tree and joint index",
			Action: TreeAction,
		},
		{
			Name:   "meshes",
			Usage:  "list the tracked links and their mesh files",
			Action: MeshesAction,
		},
		{
			Name:      "resolve",
			Usage:     "resolve link poses for a set of joint values",
			UsageText: "robotstate resolve --joint head_pan=0.3 --joint shoulder=-1",
			Flags: []cli.Flag{
				&cli.StringSliceFlag{
					Name:  resolveFlagJoint,
					Usage: "joint value as `NAME=VALUE`, radians or meters",
				},
				&cli.BoolFlag{
					Name:  resolveFlagAffine,
					Usage: "print 4x4 homogeneous transforms instead of position and quaternion",
				},
			},
			Action: ResolveAction,
		},
		{
			Name:  "replay",
			Usage: "resolve link poses for every joint state recorded in a rosbag",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:     replayFlagBag,
					Required: true,
					Usage:    "rosbag `FILE` to read",
				},
				&cli.StringFlag{
					Name:  replayFlagTopic,
					Usage: "joint state topic, defaults to the configured one",
				},
				&cli.BoolFlag{
					Name:  replayFlagVerbose,
					Usage: "print every link pose of every message",
				},
			},
			Action: ReplayAction,
		},
		{
			Name:   "schema",
			Usage:  "print the JSON schema of the configuration file",
			Action: SchemaAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
