// Package config loads DarkVM's TOML configuration file: a
// default-path-per-OS and Load/Save shape covering DarkVM's call-depth,
// tracing, and debugger settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config represents DarkVM's configuration.
type Config struct {
	// Execution settings
	Execution struct {
		MaxCallDepth int    `toml:"max_call_depth"`
		EnableTrace  bool   `toml:"enable_trace"`
		TraceFile    string `toml:"trace_file"`
	} `toml:"execution"`

	// Debugger settings
	Debugger struct {
		HistorySize int  `toml:"history_size"`
		ShowStack   bool `toml:"show_stack"`
		ShowStore   bool `toml:"show_store"`
	} `toml:"debugger"`

	// Display settings
	Display struct {
		NumberFormat string `toml:"number_format"` // dec, hex
	} `toml:"display"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Execution.MaxCallDepth = 512
	cfg.Execution.EnableTrace = false
	cfg.Execution.TraceFile = "darkvm-trace.ndjson"

	cfg.Debugger.HistorySize = 1000
	cfg.Debugger.ShowStack = true
	cfg.Debugger.ShowStore = true

	cfg.Display.NumberFormat = "dec"

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "darkvm")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "darkvm")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file. A missing file
// is not an error: it yields the default configuration.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close config file: %w", closeErr)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
