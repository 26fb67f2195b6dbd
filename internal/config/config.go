// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for chatmc.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.chatmc/config.toml
//   - Built-in defaults
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatmc configuration.
type Config struct {
	// ServerURL is the base URL of the ChatBot MC backend.
	ServerURL string `toml:"server_url"`

	// RequestTimeoutSecs bounds every backend request in seconds.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`

	// StateDir overrides where session state and logs live
	// (empty = ~/.chatmc).
	StateDir string `toml:"state_dir"`

	// Log configuration
	Log LogConfig `toml:"log"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error"
	Level string `toml:"level"`
	// File is the log file path (empty = <state_dir>/chatmc.log)
	File string `toml:"file"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark" or "light"
	Theme string `toml:"theme"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode"`
	// Markdown renders bot replies as markdown
	Markdown bool `toml:"markdown"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		ServerURL:          "http://localhost:8080",
		RequestTimeoutSecs: 60,

		Log: LogConfig{
			Level: "info",
		},

		UI: UIConfig{
			Theme:       "dark",
			CompactMode: false,
			Markdown:    true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// AppDir returns the chatmc application directory path.
func AppDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatmc"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := AppDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureAppDir ensures the application directory exists.
func EnsureAppDir() error {
	dir, err := AppDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions checks and fixes permissions on the config file.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.chatmc/config.toml, falling back to
// defaults when the file is absent. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		// First run: materialize the defaults so there is a file to edit.
		if err := Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not write default config: %v\n", err)
		}
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode TOML file: %w", err)
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	if err := EnsureAppDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# chatmc configuration file")
	fmt.Fprintln(file, "# Generated by chatmc - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CHATMC_SERVER_URL: overrides server_url
//   - CHATMC_TIMEOUT_SECS: overrides request_timeout_secs
//   - CHATMC_STATE_DIR: overrides state_dir
//   - CHATMC_LOG_LEVEL: overrides log.level
//   - CHATMC_LOG_FILE: overrides log.file
//   - CHATMC_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if serverURL := os.Getenv("CHATMC_SERVER_URL"); serverURL != "" {
		c.ServerURL = serverURL
	}
	if secs := os.Getenv("CHATMC_TIMEOUT_SECS"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil && n > 0 {
			c.RequestTimeoutSecs = n
		}
	}
	if stateDir := os.Getenv("CHATMC_STATE_DIR"); stateDir != "" {
		c.StateDir = stateDir
	}
	if level := os.Getenv("CHATMC_LOG_LEVEL"); level != "" {
		c.Log.Level = strings.ToLower(level)
	}
	if file := os.Getenv("CHATMC_LOG_FILE"); file != "" {
		c.Log.File = file
	}
	if theme := os.Getenv("CHATMC_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for invalid values, clamping recoverable
// ones to their defaults.
func (c *Config) Validate() error {
	if c.ServerURL == "" {
		c.ServerURL = Default().ServerURL
	}
	parsed, err := url.Parse(c.ServerURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("server_url %q is not a valid URL", c.ServerURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server_url scheme must be http or https, got %q", parsed.Scheme)
	}

	if c.RequestTimeoutSecs <= 0 {
		c.RequestTimeoutSecs = Default().RequestTimeoutSecs
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	case "":
		c.Log.Level = Default().Log.Level
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}

	switch c.UI.Theme {
	case "dark", "light":
	case "":
		c.UI.Theme = Default().UI.Theme
	default:
		return fmt.Errorf("ui.theme %q is not one of dark, light", c.UI.Theme)
	}

	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// RequestTimeout returns the configured request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// ResolveStateDir returns the directory holding session state and logs,
// creating nothing.
func (c *Config) ResolveStateDir() (string, error) {
	if c.StateDir != "" {
		return c.StateDir, nil
	}
	return AppDir()
}

// StatePath returns the path of the SQLite state database.
func (c *Config) StatePath() (string, error) {
	dir, err := c.ResolveStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// LogPath returns the path of the log file.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := c.ResolveStateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chatmc.log"), nil
}
