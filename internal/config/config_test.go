package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8000", cfg.Addr)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, 20, cfg.MutationRateLimit)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"addr: \":9000\"\nlog_level: debug\nmutation_rate_limit: 5\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5, cfg.MutationRateLimit)
	// Unset keys keep their defaults.
	assert.Equal(t, 40, cfg.MutationBurst)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadOrDefaultFallsBack(t *testing.T) {
	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, Default().Addr, cfg.Addr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TEAMSHOP_ADDR", ":7777")
	t.Setenv("DATABASE_URL", "postgres://localhost/teamshop")
	t.Setenv("TEAMSHOP_RATE_LIMIT", "3")
	t.Setenv("TEAMSHOP_RATE_BURST", "not-a-number")

	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))

	assert.Equal(t, ":7777", cfg.Addr)
	assert.Equal(t, "postgres://localhost/teamshop", cfg.DatabaseURL)
	assert.Equal(t, 3, cfg.MutationRateLimit)
	assert.Equal(t, Default().MutationBurst, cfg.MutationBurst)
}
