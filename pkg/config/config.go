package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/KevoDB/hdbacc/pkg/common/log"
	"github.com/KevoDB/hdbacc/pkg/scalarfile"
)

const (
	// DefaultConfigFileName is the conventional name of the config file
	DefaultConfigFileName = "hdbacc.json"
	// CurrentConfigVersion is the version written by NewDefaultConfig
	CurrentConfigVersion = 1
)

var (
	// ErrInvalidConfig is returned by Validate for out-of-range settings
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrConfigNotFound is returned by LoadConfig when the file does not exist
	ErrConfigNotFound = errors.New("config file not found")
	// ErrInvalidConfigFile is returned by LoadConfig for malformed JSON
	ErrInvalidConfigFile = errors.New("invalid config file")
)

// Config holds the settings of the hdbacc tool
type Config struct {
	Version int `json:"version"`

	// RootDir is the HDB root to load
	RootDir string `json:"root_dir"`
	// LogLevel is one of debug, info, warn, error, off
	LogLevel string `json:"log_level"`

	// ExportPath, when set, receives the loaded scalars
	ExportPath string `json:"export_path,omitempty"`
	// ExportCodec is one of none, zstd, snappy
	ExportCodec string `json:"export_codec"`

	mu sync.RWMutex
}

// NewDefaultConfig creates a Config for the given HDB root
func NewDefaultConfig(rootDir string) *Config {
	return &Config{
		Version:     CurrentConfigVersion,
		RootDir:     rootDir,
		LogLevel:    "info",
		ExportCodec: scalarfile.CodecZstd.String(),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.Version <= 0 {
		return fmt.Errorf("%w: invalid version %d", ErrInvalidConfig, c.Version)
	}

	if c.RootDir == "" {
		return fmt.Errorf("%w: HDB root directory not specified", ErrInvalidConfig)
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if _, err := scalarfile.ParseCodec(c.ExportCodec); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}

// Level returns the parsed log level
func (c *Config) Level() log.Level {
	c.mu.RLock()
	defer c.mu.RUnlock()
	level, _ := log.ParseLevel(c.LogLevel)
	return level
}

// Codec returns the parsed export codec
func (c *Config) Codec() scalarfile.Codec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	codec, _ := scalarfile.ParseCodec(c.ExportCodec)
	return codec
}

// LoadConfig reads and validates a config file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfigFile, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to path
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := path + ".tmp"

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename config: %w", err)
	}

	return nil
}

// Update applies the given function to modify the configuration
func (c *Config) Update(fn func(*Config)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}
