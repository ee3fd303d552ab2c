// Copyright 2026 The Ember Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Ember components.
//
// Configuration is loaded from a single file specified by:
//   - EMBER_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// The config file may contain environment-specific sections (development,
// staging, production) that override base values when the environment matches.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for an Ember gateway.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Listen configures the websocket listener.
	Listen ListenConfig `yaml:"listen"`

	// Database configures persistence.
	Database DatabaseConfig `yaml:"database"`

	// Gateway configures per-connection behavior.
	Gateway GatewayConfig `yaml:"gateway"`

	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Listen   *ListenConfig   `yaml:"listen,omitempty"`
	Database *DatabaseConfig `yaml:"database,omitempty"`
	Gateway  *GatewayConfig  `yaml:"gateway,omitempty"`
	Log      *LogConfig      `yaml:"log,omitempty"`
}

// ListenConfig configures the websocket listener.
type ListenConfig struct {
	// Address is the host:port the gateway binds.
	// Default: 127.0.0.1:9000
	Address string `yaml:"address"`

	// Path is the URL path clients connect to.
	// Default: /ws
	Path string `yaml:"path"`
}

// DatabaseConfig configures persistence.
type DatabaseConfig struct {
	// Path is the SQLite database file. The file and its parent
	// directory are created on first start.
	Path string `yaml:"path"`

	// PoolSize is the number of pooled SQLite connections.
	// Default: 4
	PoolSize int `yaml:"pool_size"`
}

// GatewayConfig configures per-connection behavior.
type GatewayConfig struct {
	// SeenCapacity bounds each connection's duplicate-suppression set.
	// Default: 20
	SeenCapacity int `yaml:"seen_capacity"`

	// EventBuffer is the per-connection event channel depth.
	// Default: 256
	EventBuffer int `yaml:"event_buffer"`

	// AckDelay is the debounce window for read-marker writes, as a
	// duration string.
	// Default: 5s
	AckDelay string `yaml:"ack_delay"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is the minimum level emitted: debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`

	// Format selects the handler: text or json.
	// Default: text (development), json otherwise
	Format string `yaml:"format"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".local", "share", "ember")

	return &Config{
		Environment: Development,
		Listen: ListenConfig{
			Address: "127.0.0.1:9000",
			Path:    "/ws",
		},
		Database: DatabaseConfig{
			Path:     filepath.Join(defaultRoot, "ember.db"),
			PoolSize: 4,
		},
		Gateway: GatewayConfig{
			SeenCapacity: 20,
			EventBuffer:  256,
			AckDelay:     "5s",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from the EMBER_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if EMBER_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("EMBER_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("EMBER_CONFIG environment variable not set; " +
			"set it to the path of your ember.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values - this ensures deterministic, auditable configuration.
// The only expansion performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: structured output for log shippers.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Log: &LogConfig{Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Listen != nil {
		if overrides.Listen.Address != "" {
			c.Listen.Address = overrides.Listen.Address
		}
		if overrides.Listen.Path != "" {
			c.Listen.Path = overrides.Listen.Path
		}
	}

	if overrides.Database != nil {
		if overrides.Database.Path != "" {
			c.Database.Path = overrides.Database.Path
		}
		if overrides.Database.PoolSize != 0 {
			c.Database.PoolSize = overrides.Database.PoolSize
		}
	}

	if overrides.Gateway != nil {
		if overrides.Gateway.SeenCapacity != 0 {
			c.Gateway.SeenCapacity = overrides.Gateway.SeenCapacity
		}
		if overrides.Gateway.EventBuffer != 0 {
			c.Gateway.EventBuffer = overrides.Gateway.EventBuffer
		}
		if overrides.Gateway.AckDelay != "" {
			c.Gateway.AckDelay = overrides.Gateway.AckDelay
		}
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Format != "" {
			c.Log.Format = overrides.Log.Format
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}

	c.Database.Path = expandVars(c.Database.Path, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Listen.Address == "" {
		errs = append(errs, fmt.Errorf("listen.address is required"))
	}

	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}
	if c.Database.PoolSize < 1 {
		errs = append(errs, fmt.Errorf("database.pool_size must be at least 1"))
	}

	if c.Gateway.SeenCapacity < 1 {
		errs = append(errs, fmt.Errorf("gateway.seen_capacity must be at least 1"))
	}
	if _, err := time.ParseDuration(c.Gateway.AckDelay); err != nil {
		errs = append(errs, fmt.Errorf("gateway.ack_delay: %w", err))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !contains(levels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", levels))
	}
	formats := []string{"text", "json"}
	if !contains(formats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", formats))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the database's parent directory if it doesn't exist.
func (c *Config) EnsurePaths() error {
	dir := filepath.Dir(c.Database.Path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
