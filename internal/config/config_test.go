package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Panel.Addr)
	assert.Equal(t, 7, cfg.Panel.JobsPageSize)
	assert.Equal(t, 10, cfg.Panel.AppsPageSize)
	assert.Equal(t, "memory", cfg.Session.Store)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
panel:
  addr: ":4000"
  timezone: UTC
backend:
  base_url: http://api.internal/
  timeout: 3s
session:
  store: redis
`), 0o600))

	t.Setenv("API_BASE_URL", "http://override:9000/")
	t.Setenv("SESSION_IDLE_MINUTES", "45")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Panel.Addr)
	assert.Equal(t, "http://override:9000", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, "redis", cfg.Session.Store)
	assert.Equal(t, 45, cfg.Session.IdleMinutes)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestValidateRejectsUnknownStore(t *testing.T) {
	t.Setenv("SESSION_STORE", "sqlite")
	_, err := Load("")
	assert.ErrorContains(t, err, "session.store")
}

func TestDotEnvRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, WriteDotEnv(path, map[string]string{"PANEL_TEST_KEY": "value one"}, false))
	assert.Error(t, WriteDotEnv(path, map[string]string{}, false))

	t.Setenv("PANEL_TEST_KEY", "")
	os.Unsetenv("PANEL_TEST_KEY")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "value one", os.Getenv("PANEL_TEST_KEY"))

	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
