package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "7007", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, ".justserver/servers.yaml", cfg.Workspace.ConfigFile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JSS_PORT", "9000")
	t.Setenv("JSS_WORKSPACE_ROOT", "/srv/workspace")
	t.Setenv("JSS_LOG_LEVEL", "debug")
	t.Setenv("JSS_RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "/srv/workspace", cfg.Workspace.Root)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	t.Setenv("JSS_RATE_LIMIT_RPS", "not-a-number")
	cfg := LoadOrDefault()
	assert.Equal(t, 50, cfg.RateLimit.RequestsPerSecond)
}
