// Package config loads connstats configuration: built-in defaults, then
// the YAML file, then CONNSTATS_* environment variables. Command-line
// flags are applied on top by the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/coral-mesh/connstats/internal/constants"
	"github.com/coral-mesh/connstats/internal/privilege"
)

// Loader reads and writes the configuration file.
type Loader struct {
	baseDir string
}

// NewLoader resolves the configuration directory:
//  1. CONNSTATS_CONFIG environment variable.
//  2. ~/.connstats of the invoking user, also under sudo.
//  3. <tmp>/connstats-fallback when there is no home directory.
func NewLoader() *Loader {
	if dir := os.Getenv("CONNSTATS_CONFIG"); dir != "" {
		return &Loader{baseDir: dir}
	}

	if home, err := privilege.HomeDir(); err == nil {
		return &Loader{baseDir: filepath.Join(home, constants.DefaultDir)}
	}

	return &Loader{baseDir: filepath.Join(os.TempDir(), "connstats-fallback")}
}

// NewLoaderAt uses dir as the configuration directory.
func NewLoaderAt(dir string) *Loader {
	return &Loader{baseDir: dir}
}

// Dir returns the configuration directory.
func (l *Loader) Dir() string {
	return l.baseDir
}

// ConfigPath returns the configuration file path.
func (l *Loader) ConfigPath() string {
	return filepath.Join(l.baseDir, constants.ConfigFile)
}

// DefaultDatabasePath returns the store path used when none is configured.
func (l *Loader) DefaultDatabasePath() string {
	return filepath.Join(l.baseDir, constants.DefaultDatabaseFile)
}

// Load reads the configuration file if present, applies environment
// overrides, fills the storage path and validates the result.
func (l *Loader) Load() (*Config, error) {
	return l.LoadFile(l.ConfigPath())
}

// LoadFile is Load for an explicit file path. A missing file yields defaults.
func (l *Loader) LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	//nolint:gosec // G304: Path is the user's own configuration file.
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := MergeFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if cfg.Storage.Path == "" {
		cfg.Storage.Path = l.DefaultDatabasePath()
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes cfg to the configuration file.
func (l *Loader) Save(cfg *Config) error {
	return SaveFile(l.ConfigPath(), cfg)
}

// SaveFile writes cfg as YAML to path, creating its directory.
func SaveFile(path string, cfg *Config) error {
	//nolint:gosec // G301: Directory needs standard permissions for traversal.
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
