// Package config manages the datastore configuration file and directory
// structure, and the coordinator's environment-driven settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	ConfigFile   = "microstore.toml"
	DatastoreDir = "datastore"
	DataDir      = "data"
)

// Config identifies a datastore root and its descriptive fields.
type Config struct {
	Name         string `toml:"name"`
	Label        string `toml:"label"`
	Description  string `toml:"description"`
	LanguageCode string `toml:"language_code"`
	path         string // datastore root directory
}

// FindRoot finds the datastore root by walking up from the current
// directory until a microstore.toml is found.
func FindRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ConfigFile)); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a microstore datastore (or any parent up to root)")
		}
		dir = parent
	}
}

// Load loads the configuration from the given datastore root. An empty root
// means discover it with FindRoot.
func Load(root string) (*Config, error) {
	if root == "" {
		found, err := FindRoot()
		if err != nil {
			return nil, err
		}
		root = found
	}

	data, err := os.ReadFile(filepath.Join(root, ConfigFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.path = root
	return &cfg, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(filepath.Join(c.path, ConfigFile), data, 0644)
}

// Root returns the datastore root directory.
func (c *Config) Root() string {
	return c.path
}

// DatastorePath returns the directory holding the ledger files.
func (c *Config) DatastorePath() string {
	return filepath.Join(c.path, DatastoreDir)
}

// DataPath returns the directory holding per-dataset data artifacts.
func (c *Config) DataPath() string {
	return filepath.Join(c.path, DataDir)
}

// Initialize creates a new datastore root with initial configuration and
// the datastore/data directory skeleton.
func Initialize(root, name, label, description, languageCode string) (*Config, error) {
	if _, err := os.Stat(filepath.Join(root, ConfigFile)); err == nil {
		return nil, fmt.Errorf("datastore already exists at %s", root)
	}

	for _, dir := range []string{root, filepath.Join(root, DatastoreDir), filepath.Join(root, DataDir)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	cfg := &Config{
		Name:         name,
		Label:        label,
		Description:  description,
		LanguageCode: languageCode,
		path:         root,
	}

	if err := cfg.Save(); err != nil {
		return nil, err
	}

	return cfg, nil
}
