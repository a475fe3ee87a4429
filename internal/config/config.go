// Package config loads the idctl configuration file. Values from the file
// are defaults only: environment variables and command-line flags override
// them, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"idctl/pkg/logging"
)

const (
	userConfigDir  = ".config/idctl"
	configFileName = "config.yaml"
)

// Config holds the file-based configuration for idctl.
type Config struct {
	// AuthURL is the identity service URL used for credential exchanges.
	AuthURL string `yaml:"auth_url"`

	// Endpoint overrides catalog resolution of the management endpoint.
	Endpoint string `yaml:"endpoint"`

	// Region narrows catalog endpoint resolution.
	Region string `yaml:"region"`

	// AuthPlugin selects the authentication plugin by name.
	AuthPlugin string `yaml:"auth_plugin"`

	// TokenDir is the directory for the persisted token cache.
	TokenDir string `yaml:"token_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{AuthPlugin: "password"}
}

// DefaultPath returns the default configuration directory.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// Load reads config.yaml from the given directory, overlaying the defaults.
// A missing file is not an error; the defaults are returned.
func Load(configPath string) (Config, error) {
	cfg := Default()

	configFilePath := filepath.Join(configPath, configFileName)
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("Config", "No config.yaml found at %s, using defaults", configFilePath)
			return cfg, nil
		}
		return Config{}, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}

	logging.Debug("Config", "Loaded configuration from %s", configFilePath)
	return cfg, nil
}
