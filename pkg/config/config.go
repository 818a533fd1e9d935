package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsanders/violation-issues/pkg/contexthash"
	"gopkg.in/yaml.v3"
)

// Config represents the violation-issues configuration
type Config struct {
	// Context fingerprint settings
	Fingerprint FingerprintConfig `yaml:"fingerprint"`

	// Issue collection settings
	Collect CollectConfig `yaml:"collect"`

	// Build and history locations
	Store StoreConfig `yaml:"store"`

	// Logging settings
	Log LogConfig `yaml:"log"`
}

// FingerprintConfig holds context fingerprint settings
type FingerprintConfig struct {
	Window       int    `yaml:"window"`         // Lines hashed on each side of the flagged line
	MaxFileBytes int64  `yaml:"max-file-bytes"` // Larger files are reported unreadable (0 = no limit)
	Encoding     string `yaml:"encoding"`       // Source charset, empty for UTF-8
}

// CollectConfig holds issue collection settings
type CollectConfig struct {
	Parallelism int  `yaml:"parallelism"` // Findings fingerprinted concurrently
	FailFast    bool `yaml:"fail-fast"`   // Exit non-zero when any finding is skipped
}

// StoreConfig holds build and history locations
type StoreConfig struct {
	BuildsDir  string `yaml:"builds-dir"`  // Directory of numbered builds
	HistoryDir string `yaml:"history-dir"` // Directory for issue snapshots
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Fingerprint: FingerprintConfig{
			Window:       contexthash.DefaultWindow,
			MaxFileBytes: contexthash.DefaultMaxFileBytes,
		},
		Collect: CollectConfig{
			Parallelism: 4,
			FailFast:    false,
		},
		Store: StoreConfig{
			BuildsDir:  "builds",
			HistoryDir: ".violation-issues",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w\n\n"+
			"Please check that the file is valid YAML and follows the expected format.", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file '%s': %w", path, err)
	}

	return config, nil
}

// Validate checks value ranges that YAML parsing cannot enforce
func (c *Config) Validate() error {
	if c.Fingerprint.Window < 0 {
		return fmt.Errorf("fingerprint.window cannot be negative: %d", c.Fingerprint.Window)
	}
	if c.Fingerprint.MaxFileBytes < 0 {
		return fmt.Errorf("fingerprint.max-file-bytes cannot be negative: %d", c.Fingerprint.MaxFileBytes)
	}
	if err := contexthash.CheckEncoding(c.Fingerprint.Encoding); err != nil {
		return fmt.Errorf("fingerprint.encoding: %w", err)
	}
	if c.Collect.Parallelism < 1 {
		return fmt.Errorf("collect.parallelism must be at least 1: %d", c.Collect.Parallelism)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json: %q", c.Log.Format)
	}
	return nil
}

// Fingerprinter builds a context fingerprinter from the fingerprint settings
func (c *Config) Fingerprinter() *contexthash.Fingerprinter {
	return contexthash.New(
		contexthash.WithWindow(c.Fingerprint.Window),
		contexthash.WithMaxFileBytes(c.Fingerprint.MaxFileBytes),
	)
}

// FindConfigFile searches for a config file in common locations
// Returns the path to the first config file found, or empty string if none found
func FindConfigFile() string {
	// Check current directory first
	candidates := []string{
		".violation-issues.yaml",
		".violation-issues.yml",
	}

	for _, candidate := range candidates {
		if fileExists(candidate) {
			return candidate
		}
	}

	// Check home directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		for _, candidate := range candidates {
			path := filepath.Join(homeDir, candidate)
			if fileExists(path) {
				return path
			}
		}
	}

	return ""
}

// LoadOrDefault attempts to load a config file, falling back to defaults
func LoadOrDefault() *Config {
	configPath := FindConfigFile()
	if configPath == "" {
		return DefaultConfig()
	}

	config, err := Load(configPath)
	if err != nil {
		// Log the error but return defaults
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config from %s: %v\n", configPath, err)
		fmt.Fprintf(os.Stderr, "Using default configuration.\n\n")
		return DefaultConfig()
	}

	return config
}

// fileExists checks if a file exists
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
