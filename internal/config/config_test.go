package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 5*time.Second, cfg.Scan.Interval)
	assert.Equal(t, 10*time.Second, cfg.Scan.CommandTimeout)
	assert.Equal(t, []string{"idea", "java", "tace", "claude", "springboot"}, cfg.Scan.Keywords())
	assert.True(t, cfg.Scan.Enrich)
	assert.Equal(t, filepath.Join(home, "Library", "LaunchAgents"), cfg.Control.LaunchAgentsDir)
	assert.Equal(t, 4, cfg.Control.BatchConcurrency)
	assert.Empty(t, cfg.Control.ServiceLabels)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PORTMAN_SCAN_INTERVAL", "2s")
	t.Setenv("PORTMAN_SCAN_DEV_KEYWORDS", "Vite, cargo")
	t.Setenv("PORTMAN_HTTP_ADDR", ":9999")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Scan.Interval)
	assert.Equal(t, []string{"vite", "cargo"}, cfg.Scan.Keywords())
	assert.Equal(t, ":9999", cfg.HTTP.Addr)
}

func TestLoadFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "portman.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scan:
  interval: 30s
  enrich: false
control:
  launch_agents_dir: /opt/agents
  service_labels:
    rabbitmq: homebrew.mxcl.rabbitmq
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Scan.Interval)
	assert.False(t, cfg.Scan.Enrich)
	assert.Equal(t, "/opt/agents", cfg.Control.LaunchAgentsDir)
	assert.Equal(t, map[string]string{"rabbitmq": "homebrew.mxcl.rabbitmq"}, cfg.Control.ServiceLabels)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadDefaultFileLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := filepath.Join(home, ".config", "portman")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("http:\n  addr: 0.0.0.0:7000\n"), 0o644))

	cfg, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:7000", cfg.HTTP.Addr)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("PORTMAN_SCAN_INTERVAL", "0s")
	_, err = Load(New(), "")
	assert.ErrorContains(t, err, "scan.interval")
}

func TestValidateLogFormat(t *testing.T) {
	cfg := Config{
		Scan:    ScanConfig{Interval: time.Second, CommandTimeout: time.Second},
		Control: ControlConfig{BatchConcurrency: 1},
		HTTP:    HTTPConfig{ScanRate: 1, ScanBurst: 1},
		Log:     LogConfig{Format: "xml"},
	}
	assert.ErrorContains(t, cfg.Validate(), "log.format")
	cfg.Log.Format = "JSON"
	assert.NoError(t, cfg.Validate())
}
