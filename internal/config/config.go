// Package config manages tool configuration and filesystem paths.
//
// Server access comes from environment variables so the tool runs unattended
// in services; the data root defaults to ~/.ayon-deps and holds the lock
// files written after successful builds.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Environment variable names.
const (
	EnvServerURL = "AYON_SERVER_URL"
	EnvAPIKey    = "AYON_API_KEY"
	EnvRoot      = "AYON_DEPS_ROOT"
)

// Config holds everything the CLI needs to construct an engine.
type Config struct {
	// ServerURL is the addon server base URL.
	ServerURL string

	// APIKey authenticates service requests against the server.
	APIKey string

	// Root is the base directory for tool data (default: ~/.ayon-deps).
	Root string

	// Locks is the directory holding per-bundle lock files.
	Locks string
}

// FromEnv builds a Config from the environment. Flag values, when set,
// override it afterwards.
func FromEnv() (*Config, error) {
	root := os.Getenv(EnvRoot)
	if root == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		root = filepath.Join(home, ".ayon-deps")
	}

	return &Config{
		ServerURL: os.Getenv(EnvServerURL),
		APIKey:    os.Getenv(EnvAPIKey),
		Root:      root,
		Locks:     filepath.Join(root, "locks"),
	}, nil
}

// Validate checks that the server connection is configured.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		return fmt.Errorf("server URL not configured: set %s or pass --server", EnvServerURL)
	}
	if c.APIKey == "" {
		return fmt.Errorf("API key not configured: set %s or pass --api-key", EnvAPIKey)
	}
	return nil
}

// EnsureDirectories creates the data directories if they don't exist.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Root, c.Locks} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
