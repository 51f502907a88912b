package robotstate

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/robotstate/utils"
)

// Defaults applied to unset Config fields.
const (
	DefaultCameraFrame     = "XTION"
	DefaultKinematicFrame  = "BASE"
	DefaultPackagePath     = ".."
	DefaultJointStateTopic = "/joint_states"
)

// DefaultMeshExtensions are the mesh resource kinds that get rendered.
var DefaultMeshExtensions = []string{".stl", ".dae"}

// Config describes how robot state is resolved.
type Config struct {
	// CameraFrame is the sensor frame every link pose is expressed in.
	CameraFrame string `json:"camera_frame,omitempty"`
	// KinematicFrame is the base of the chain to the camera frame.
	KinematicFrame string `json:"kinematic_frame,omitempty"`
	// RobotDescription is the path of the URDF document.
	RobotDescription string `json:"robot_description,omitempty"`
	// RobotDescriptionPackagePath replaces "package://<pkg>" in mesh resource paths.
	RobotDescriptionPackagePath string `json:"robot_description_package_path,omitempty"`
	// RootFrame names the tree root. The first parentless link of the description is used when empty.
	RootFrame              string   `json:"root_frame,omitempty"`
	MeshExtensions         []string `json:"mesh_extensions,omitempty"`
	JointStateTopic        string   `json:"joint_state_topic,omitempty"`
	CollapseDuplicateLinks bool     `json:"collapse_duplicate_links,omitempty"`
}

// ApplyDefaults fills every unset field with its default.
func (cfg *Config) ApplyDefaults() {
	if cfg.CameraFrame == "" {
		cfg.CameraFrame = DefaultCameraFrame
	}
	if cfg.KinematicFrame == "" {
		cfg.KinematicFrame = DefaultKinematicFrame
	}
	if cfg.RobotDescriptionPackagePath == "" {
		cfg.RobotDescriptionPackagePath = DefaultPackagePath
	}
	if len(cfg.MeshExtensions) == 0 {
		cfg.MeshExtensions = append([]string{}, DefaultMeshExtensions...)
	}
	if cfg.JointStateTopic == "" {
		cfg.JointStateTopic = DefaultJointStateTopic
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.CameraFrame == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "camera_frame")
	}
	if cfg.KinematicFrame == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "kinematic_frame")
	}
	for _, ext := range cfg.MeshExtensions {
		if !strings.HasPrefix(ext, ".") {
			return utils.NewConfigValidationError(path, errors.Errorf("mesh extension %q must start with a dot", ext))
		}
	}
	return nil
}

// NewConfigFromAttributes decodes an attribute map, such as one read from a larger JSON document, into a
// Config with defaults applied.
func NewConfigFromAttributes(attributes map[string]interface{}) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &cfg})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "cannot decode robot state attributes")
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ReadConfigFile reads a JSON config file, applies defaults and validates it. A relative robot description
// path is taken relative to the config file.
func ReadConfigFile(path string) (*Config, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config file")
	}
	var attributes map[string]interface{}
	if err := json.Unmarshal(data, &attributes); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config file %q", path)
	}
	cfg, err := NewConfigFromAttributes(attributes)
	if err != nil {
		return nil, err
	}
	if cfg.RobotDescription != "" && !filepath.IsAbs(cfg.RobotDescription) {
		cfg.RobotDescription = filepath.Join(filepath.Dir(path), cfg.RobotDescription)
	}
	if err := cfg.Validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}
