// Package config loads the daemon settings file. All values have
// working defaults so tomatod runs without any configuration on disk.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configurable tomatod settings.
type Config struct {
	SocketPath      string `json:"socket_path"`      // control socket location
	ExportPath      string `json:"export_path"`      // status-bar payload file
	DefaultWorkflow string `json:"default_workflow"` // workflow used by start
	TickSeconds     int    `json:"tick_seconds"`     // countdown granularity
}

// TickInterval returns the tick cadence as a duration, defaulting to
// one second for zero or negative settings.
func (c Config) TickInterval() time.Duration {
	if c.TickSeconds <= 0 {
		return time.Second
	}
	return time.Duration(c.TickSeconds) * time.Second
}

// Defaults returns the built-in configuration values.
func Defaults() Config {
	return Config{
		SocketPath:      defaultSocketPath(),
		ExportPath:      defaultExportPath(),
		DefaultWorkflow: "default",
		TickSeconds:     1,
	}
}

// Load reads $XDG_CONFIG_HOME/tomatod/config.json (falling back to
// ~/.config). Returns defaults if the file is absent; an unparseable
// file is an error so a typo never silently reverts settings.
func Load() (Config, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, err
		}
		base = filepath.Join(home, ".config")
	}
	return loadFile(filepath.Join(base, "tomatod", "config.json"))
}

func loadFile(path string) (Config, error) {
	defaults := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return Config{}, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ParseError{Path: path, Err: err}
	}

	// Missing keys fall back to defaults.
	if cfg.SocketPath == "" {
		cfg.SocketPath = defaults.SocketPath
	}
	if cfg.ExportPath == "" {
		cfg.ExportPath = defaults.ExportPath
	}
	if cfg.DefaultWorkflow == "" {
		cfg.DefaultWorkflow = defaults.DefaultWorkflow
	}
	if cfg.TickSeconds <= 0 {
		cfg.TickSeconds = defaults.TickSeconds
	}
	return cfg, nil
}

// defaultSocketPath prefers the per-user runtime directory, which is
// wiped on logout, and falls back to /tmp with a uid suffix.
func defaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "tomatod.sock")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("tomatod-%d.sock", os.Getuid()))
}

// defaultExportPath places the status-bar payload next to the state
// file in the XDG data directory.
func defaultExportPath() string {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "tomatod-waybar.json")
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, "tomatod", "waybar.json")
}

// ParseError is returned when a config file exists but cannot be
// parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
