// Package config loads webgate configuration with the usual precedence:
// built-in defaults, then the user config, then the project config, then
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default configuration values exported for documentation and validation
const (
	DefaultDBFile       = "webgate.db"
	DefaultLogLevel     = "info"
	DefaultWebXREnabled = true
)

// Config represents the complete webgate configuration
type Config struct {
	Storage     StorageConfig    `yaml:"storage"`
	Logging     LoggingConfig    `yaml:"logging"`
	Permissions PermissionConfig `yaml:"permissions"`
}

// StorageConfig locates the SQLite database
type StorageConfig struct {
	// Path is the database file. Relative paths resolve against DataDir.
	Path    string `yaml:"path"`
	DataDir string `yaml:"data_dir"`
}

// LoggingConfig controls the structured event logs
type LoggingConfig struct {
	Dir   string `yaml:"dir"`
	Level string `yaml:"level"` // debug, info, warn, error
}

// PermissionConfig seeds policy defaults used when nothing is persisted yet
type PermissionConfig struct {
	AutoplayEnabled bool `yaml:"autoplay_enabled"`
	WebXREnabled    bool `yaml:"webxr_enabled"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		Storage: StorageConfig{
			Path:    DefaultDBFile,
			DataDir: dataDir,
		},
		Logging: LoggingConfig{
			Dir:   filepath.Join(dataDir, "logs"),
			Level: DefaultLogLevel,
		},
		Permissions: PermissionConfig{
			AutoplayEnabled: false,
			WebXREnabled:    DefaultWebXREnabled,
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	if home == "" {
		return ".webgate"
	}
	return filepath.Join(home, ".webgate")
}

// Load loads configuration from default locations with proper precedence
func Load() (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	if home != "" {
		userConfigPath := filepath.Join(home, ".webgate", "config.yaml")
		if err := loadAndMerge(cfg, userConfigPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	projectConfigPath := filepath.Join(".", ".webgate", "config.yaml")
	if err := loadAndMerge(cfg, projectConfigPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadAndMerge(cfg, path); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WEBGATE_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("WEBGATE_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("WEBGATE_LOG_DIR"); v != "" {
		cfg.Logging.Dir = v
	}
	if v := os.Getenv("WEBGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v, ok := envBool("WEBGATE_AUTOPLAY_ENABLED"); ok {
		cfg.Permissions.AutoplayEnabled = v
	}
	if v, ok := envBool("WEBGATE_WEBXR_ENABLED"); ok {
		cfg.Permissions.WebXREnabled = v
	}
}

func envBool(name string) (bool, bool) {
	v := os.Getenv(name)
	if v == "" {
		return false, false
	}
	parsed, err := strconv.ParseBool(strings.ToLower(v))
	if err != nil {
		return false, false
	}
	return parsed, true
}

// DBPath resolves the database file path against DataDir
func (c *Config) DBPath() string {
	if filepath.IsAbs(c.Storage.Path) {
		return c.Storage.Path
	}
	return filepath.Join(c.Storage.DataDir, c.Storage.Path)
}

// Validate checks the configuration for inconsistencies
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage path must not be empty")
	}
	return nil
}
