// Package config loads service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration.
type Config struct {
	Server    ServerConfig
	Workspace WorkspaceConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP control surface configuration.
type ServerConfig struct {
	Port string `envconfig:"JSS_PORT" default:"7007"`
	Host string `envconfig:"JSS_HOST" default:"127.0.0.1"`
}

// WorkspaceConfig holds the managed workspace location and the persisted
// configuration file path relative to it.
type WorkspaceConfig struct {
	Root       string `envconfig:"JSS_WORKSPACE_ROOT" default:""`
	ConfigFile string `envconfig:"JSS_CONFIG_FILE" default:".justserver/servers.yaml"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"JSS_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"JSS_LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration for the control API.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"JSS_RATE_LIMIT_RPS" default:"50"`
	Burst             int  `envconfig:"JSS_RATE_LIMIT_BURST" default:"100"`
	Enabled           bool `envconfig:"JSS_RATE_LIMIT_ENABLED" default:"true"`
}

// Load loads configuration from environment variables. The prefix stays
// empty and each leaf tag carries its full JSS_* name; envconfig's alt-name
// lookup then resolves the tag as-is instead of composing it with the
// nested struct field names.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "7007",
			Host: "127.0.0.1",
		},
		Workspace: WorkspaceConfig{
			ConfigFile: ".justserver/servers.yaml",
		},
		Logging: LogConfig{
			Level: "info",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 50,
			Burst:             100,
			Enabled:           true,
		},
	}
}
