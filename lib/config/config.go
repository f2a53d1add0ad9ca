// Copyright 2026 The Buxton Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSocketPath is where the daemon binds when no supervisor
// hands it a listener. Clients connect here unless BUXTON_SOCKET
// overrides it.
const DefaultSocketPath = "/run/buxton/buxton.sock"

// Config is the daemon configuration.
type Config struct {
	// SocketPath is the Unix socket the daemon listens on when it is
	// started without supervisor-provided descriptors.
	SocketPath string `yaml:"socket_path"`

	// DatabaseRoot is the directory holding the persistent backend's
	// per-layer database files.
	DatabaseRoot string `yaml:"database_root"`

	// LayersFile is the INI-style layer descriptor file.
	LayersFile string `yaml:"layers_file"`

	// SmackEnabled turns label-based access control on. When false
	// the daemon skips label checks entirely (single-user and test
	// deployments).
	SmackEnabled bool `yaml:"smack_enabled"`

	// SmackRules is the access rule file watched for changes while
	// the daemon runs. Required when SmackEnabled is true.
	SmackRules string `yaml:"smack_rules"`
}

// Default returns the base configuration. These values are a
// starting point for LoadFile, not a substitute for a config file.
func Default() *Config {
	return &Config{
		SocketPath:   DefaultSocketPath,
		DatabaseRoot: "/var/lib/buxton",
		LayersFile:   "/etc/buxton/layers.conf",
		SmackEnabled: true,
		SmackRules:   "/sys/fs/smackfs/load2",
	}
}

// Load reads the configuration from the file named by the
// BUXTON_CONFIG environment variable. Fails if the variable is not
// set; there is no fallback search path.
func Load() (*Config, error) {
	path := os.Getenv("BUXTON_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("BUXTON_CONFIG environment variable not set; " +
			"set it to the path of your buxtond.yaml, or use --config")
	}
	return LoadFile(path)
}

// LoadFile reads the configuration from an explicit path, merging it
// over Default().
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.SocketPath == "" {
		errs = append(errs, fmt.Errorf("socket_path is required"))
	}
	if c.DatabaseRoot == "" {
		errs = append(errs, fmt.Errorf("database_root is required"))
	}
	if c.LayersFile == "" {
		errs = append(errs, fmt.Errorf("layers_file is required"))
	}
	if c.SmackEnabled && c.SmackRules == "" {
		errs = append(errs, fmt.Errorf("smack_rules is required when smack_enabled is true"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsureDatabaseRoot creates the database directory if it does not
// exist. The socket directory is the supervisor's responsibility.
func (c *Config) EnsureDatabaseRoot() error {
	if err := os.MkdirAll(c.DatabaseRoot, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", c.DatabaseRoot, err)
	}
	return nil
}

// SocketPathFromEnv resolves the socket path clients should dial:
// the BUXTON_SOCKET environment variable when set, otherwise the
// compiled-in default.
func SocketPathFromEnv() string {
	if path := os.Getenv("BUXTON_SOCKET"); path != "" {
		return path
	}
	return DefaultSocketPath
}
