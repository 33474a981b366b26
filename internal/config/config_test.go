package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allworlds/engine/internal/core/observability/log"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, log.LevelInfo, cfg.LogLevel())
}

func TestLoadYAML(t *testing.T) {
	path := write(t, "engine.yaml", `
log:
  level: debug
  encoding: json
loop:
  interval: 50ms
  max_frames: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, log.LevelDebug, cfg.LogLevel())
	assert.Equal(t, "json", cfg.Log.Encoding)
	assert.Equal(t, 50*time.Millisecond, cfg.Loop.Interval)
	assert.Equal(t, uint64(10), cfg.Loop.MaxFrames)
	assert.Equal(t, ".", cfg.Profile.Path, "unset keys keep defaults")
}

func TestLoadTOML(t *testing.T) {
	path := write(t, "engine.toml", `
[log]
level = "warn"

[loop]
interval = "1s"

[profile]
mode = "cpu"
path = "/tmp/prof"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, log.LevelWarn, cfg.LogLevel())
	assert.Equal(t, "console", cfg.Log.Encoding)
	assert.Equal(t, time.Second, cfg.Loop.Interval)
	assert.Equal(t, "cpu", cfg.Profile.Mode)
	assert.Equal(t, "/tmp/prof", cfg.Profile.Path)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(write(t, "engine.json", `{}`))
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(write(t, "broken.yaml", "log: [\n"))
	assert.Error(t, err)

	_, err = Load(write(t, "invalid.yaml", "loop:\n  interval: 0s\n"))
	assert.ErrorContains(t, err, "loop.interval")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"encoding", func(c *Config) { c.Log.Encoding = "xml" }, "log.encoding"},
		{"interval", func(c *Config) { c.Loop.Interval = -time.Second }, "loop.interval"},
		{"profile", func(c *Config) { c.Profile.Mode = "block" }, "profile.mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
