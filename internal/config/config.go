// Package config loads and watches the rotacal configuration file.
//
// Configuration lives in a YAML file (default ~/.rotacal/config.yaml).
// Every field has a working default so a missing file is not an error;
// serve mode additionally watches the file and applies changes without a
// restart (see Watcher).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that encodes in YAML as a string like
// "30s" or "2m".
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config holds the runtime configuration.
type Config struct {
	// DatabasePath is the SQLite database file backing the record store.
	DatabasePath string `yaml:"database_path"`

	// ListenAddr is the dashboard listen address for serve mode.
	ListenAddr string `yaml:"listen_addr"`

	// FetchInterval is how often serve mode refreshes from the store.
	FetchInterval Duration `yaml:"fetch_interval"`

	// ProtectionWindow overrides the engine's post-operation fetch
	// suppression window. Zero keeps the engine default.
	ProtectionWindow Duration `yaml:"protection_window"`

	// Retention overrides how long completed operations are remembered.
	// Zero keeps the engine default.
	Retention Duration `yaml:"retention"`

	// LogFile is where serve mode writes its log. Empty means stderr.
	LogFile string `yaml:"log_file"`

	// LogMaxSizeMB caps the log file size before rotation.
	LogMaxSizeMB int `yaml:"log_max_size_mb"`

	// LogMaxBackups caps the number of rotated log files kept.
	LogMaxBackups int `yaml:"log_max_backups"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		DatabasePath:  "~/.rotacal/rotacal.db",
		ListenAddr:    ":8080",
		FetchInterval: Duration(30 * time.Second),
		LogMaxSizeMB:  10,
		LogMaxBackups: 3,
	}
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	return "~/.rotacal/config.yaml"
}

// Load reads the configuration file at path. A missing file yields the
// defaults; a present but malformed file is an error. Fields absent from
// the file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()

	expanded, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path cannot be empty")
	}
	if c.FetchInterval < 0 {
		return fmt.Errorf("fetch_interval cannot be negative")
	}
	if c.ProtectionWindow < 0 {
		return fmt.Errorf("protection_window cannot be negative")
	}
	if c.Retention < 0 {
		return fmt.Errorf("retention cannot be negative")
	}
	if c.LogMaxSizeMB < 0 {
		return fmt.Errorf("log_max_size_mb cannot be negative")
	}
	return nil
}

// Save writes the configuration to path, creating parent directories.
func (c *Config) Save(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(expanded, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading ~/ against the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}
