// Package config holds the explicit runtime configuration: sessions
// directory, context window default, endpoint limits and pricing.
// Values come from a YAML file layered over built-in defaults; there
// are no ambient globals.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/convotree/convotree/core"
	"github.com/convotree/convotree/usage"
)

// Config is the full runtime configuration.
type Config struct {
	// SessionsDir is where the file store keeps session snapshots.
	SessionsDir string `yaml:"sessions_dir"`

	// WindowSize is the default context window in pairs for new sessions.
	WindowSize int `yaml:"window_size"`

	// MaxTokens is the response budget passed to the endpoint.
	MaxTokens int64 `yaml:"max_tokens"`

	// Model is the provider model id.
	Model string `yaml:"model"`

	// Pricing is the per-1K token cost used by the usage tracker.
	Pricing usage.Pricing `yaml:"pricing"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// LogFormat is json or text.
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SessionsDir: "sessions",
		WindowSize:  core.DefaultWindowSize,
		MaxTokens:   4096,
		Model:       "claude-3-5-sonnet-20241022",
		Pricing:     usage.DefaultPricing(),
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

// Load reads a YAML file and layers it over the defaults. Fields absent
// from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values no component can work
// with.
func (c Config) Validate() error {
	if c.SessionsDir == "" {
		return core.NewValidationError("sessions_dir must not be empty")
	}
	if c.WindowSize <= 0 {
		return core.NewValidationError("window_size must be positive, got %d", c.WindowSize)
	}
	if c.MaxTokens <= 0 {
		return core.NewValidationError("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.Pricing.InputPerK < 0 || c.Pricing.OutputPerK < 0 {
		return core.NewValidationError("pricing must not be negative")
	}
	return nil
}
