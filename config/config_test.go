package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, "agentlens.yaml", `
server:
  addr: ":9090"
  shutdown_timeout: 30s
  redis_url: redis://localhost:6379/0
  rate_limit: 120
fetch:
  timeout: 5s
scan:
  probe: false
  surface_threshold: 40
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.GetAddr())
	assert.Equal(t, 30*time.Second, cfg.Server.GetShutdownTimeout())
	assert.Equal(t, "redis://localhost:6379/0", cfg.Server.RedisURL)
	assert.Equal(t, 120, cfg.Server.GetRateLimit())
	assert.Equal(t, 5*time.Second, cfg.Fetch.GetTimeout())
	assert.False(t, cfg.Scan.ProbeEnabled())
	assert.Equal(t, 40, cfg.Scan.SurfaceThreshold)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromDirectory(t *testing.T) {
	path := writeConfig(t, "agentlens.yaml", "server:\n  addr: \":7070\"\n")

	cfg, err := Load(filepath.Dir(path))
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Server.GetAddr())
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	assert.Equal(t, ":8080", cfg.Server.GetAddr())
	assert.Equal(t, 10*time.Second, cfg.Server.GetShutdownTimeout())
	assert.Equal(t, 60, cfg.Server.GetRateLimit())
	assert.Equal(t, 10*time.Second, cfg.Fetch.GetTimeout())
	assert.True(t, cfg.Scan.ProbeEnabled())
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.GetAddr())

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.True(t, cfg.Scan.ProbeEnabled())
}

func TestLoadUnparseable(t *testing.T) {
	path := writeConfig(t, "agentlens.yaml", "server: [not a map\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}
