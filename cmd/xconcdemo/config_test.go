package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xconc/pkg/config/xconf"
	"github.com/omeyang/xconc/pkg/lifecycle/xrun"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	lc, err := loadConfig("")
	require.NoError(t, err)
	assert.Nil(t, lc.file)
	assert.Equal(t, "xconcdemo", lc.Service.Name)
	assert.Equal(t, "info", lc.Log.Level)
	assert.Equal(t, 256, lc.Log.RingCapacity)
	assert.Equal(t, time.Second, lc.Jobs.Interval)
	assert.Equal(t, 5*time.Second, lc.HTTP.ShutdownTimeout)
	assert.True(t, lc.Watch.Enabled)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, "demo.yaml", "log:\n  level: debug\njobs:\n  workers: 5\n  interval: 250ms\n")
	lc, err := loadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, lc.file)
	assert.Equal(t, path, lc.file.Path())
	assert.Equal(t, "debug", lc.Log.Level)
	assert.Equal(t, 5, lc.Jobs.Workers)
	assert.Equal(t, 250*time.Millisecond, lc.Jobs.Interval)
	// 未覆盖的保持默认
	assert.Equal(t, 16, lc.Jobs.Queue)
	assert.Equal(t, "text", lc.Log.Format)
}

func TestLoadConfig_JSON(t *testing.T) {
	path := writeConfig(t, "demo.json", `{"service":{"name":"json-demo"}}`)
	lc, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "json-demo", lc.Service.Name)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		file    string
		want    error
	}{
		{"bad level", "log:\n  level: loud\n", "a.yaml", errInvalidConfig},
		{"bad format", "log:\n  format: xml\n", "a.yaml", errInvalidConfig},
		{"zero workers", "jobs:\n  workers: 0\n", "a.yaml", errInvalidConfig},
		{"bad ring", "log:\n  ring_capacity: -1\n", "a.yaml", errInvalidConfig},
		{"bad interval", "jobs:\n  interval: 0s\n", "a.yaml", errInvalidConfig},
		{"bad schedule", "jobs:\n  schedule: sometimes\n", "a.yaml", xrun.ErrInvalidSchedule},
		{"type mismatch", "jobs:\n  workers: many\n", "a.yaml", errInvalidConfig},
		{"parse error", "jobs: [", "a.yaml", xconf.ErrParseFailed},
		{"unknown extension", "a = 1", "a.toml", xconf.ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.file, tt.content))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, xconf.ErrLoadFailed)
}

func TestLoadedConfig_Render(t *testing.T) {
	lc, err := loadConfig("")
	require.NoError(t, err)

	out, err := lc.render("yaml")
	require.NoError(t, err)
	assert.Contains(t, string(out), "ring_capacity: 256")

	out, err = lc.render("json")
	require.NoError(t, err)
	assert.Contains(t, string(out), `"ring_capacity":256`)

	_, err = lc.render("xml")
	assert.Error(t, err)
}
