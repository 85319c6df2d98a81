package internal

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/hbomb79/camcheck/internal/device"
	"github.com/hbomb79/camcheck/internal/metrics"
	"github.com/hbomb79/camcheck/internal/probe"
	"github.com/hbomb79/camcheck/internal/session"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/mitchellh/go-homedir"
)

// CamcheckConfig is the struct used to contain the
// various user config supplied by file, environment,
// or manually inside the code.
type CamcheckConfig struct {
	Device  device.Config  `yaml:"device"`
	Probe   probe.Config   `yaml:"probe"`
	Session session.Config `yaml:"session"`
	Metrics metrics.Config `yaml:"metrics"`

	// CameraDevice, when set, bypasses device selection entirely
	CameraDevice string `yaml:"camera_device" env:"CAMERA_DEVICE"`

	// Any non-empty value indicates there is nobody available to answer
	// the selection prompt, so the first detected device is used.
	RunningInDocker string `yaml:"running_in_docker" env:"RUNNING_IN_DOCKER"`

	LogLevel string `yaml:"log_level" env:"CAMCHECK_LOG_LEVEL" env-default:"INFO"`
}

// Headless returns true if the program cannot prompt the user.
func (config *CamcheckConfig) Headless() bool {
	return config.RunningInDocker != ""
}

// Load reads the configuration from the YAML file at configPath (if
// provided), before applying any overrides found in the environment.
// Defaults are applied for any values not provided by either.
func Load(configPath string) (*CamcheckConfig, error) {
	config := &CamcheckConfig{}
	if configPath != "" {
		if err := cleanenv.ReadConfig(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", configPath, err)
		}
	} else if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load configuration from environment: %w", err)
	}

	if err := config.expandPaths(); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("configuration is invalid: %w", err)
	}

	return config, nil
}

// expandPaths resolves a leading '~' in any of the configured directories
// to the home directory of the current user.
func (config *CamcheckConfig) expandPaths() error {
	for _, path := range []*string{&config.Device.OutputDir, &config.Session.LogDir, &config.Metrics.TextfilePath} {
		expanded, err := homedir.Expand(*path)
		if err != nil {
			return fmt.Errorf("failed to expand path %s: %w", *path, err)
		}

		*path = expanded
	}

	return nil
}
