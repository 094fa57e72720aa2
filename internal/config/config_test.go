package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 500*time.Millisecond, cfg.Notes.AutosaveDelay)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte(`
storage:
  path: /tmp/markease/test.db
ai:
  model: file-model
  timeout: 10s
notes:
  autosave_delay: 250ms
habit:
  notify: false
`)
	require.NoError(t, os.WriteFile(path, yaml, 0600))

	t.Setenv("MARKEASE_AI_MODEL", "env-model")
	t.Setenv("MARKEASE_AI_BASE_URL", "http://localhost:8080/v1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/markease/test.db", cfg.Storage.Path)
	assert.Equal(t, "env-model", cfg.AI.Model)
	assert.Equal(t, "http://localhost:8080/v1", cfg.AI.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Notes.AutosaveDelay)
	assert.False(t, cfg.Habit.Notify)
	assert.Equal(t, "/tmp/markease", cfg.ConfigDir())
}

func TestLoadRejectsDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"MARKEASE_AI_MODEL":             "ai.model",
		"MARKEASE_AI_API_KEY":           "ai.api_key",
		"MARKEASE_NOTES_AUTOSAVE_DELAY": "notes.autosave_delay",
		"MARKEASE_STORAGE_PATH":         "storage.path",
	}
	for in, want := range tests {
		assert.Equal(t, want, envKey(in), in)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Storage.Path = " "
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.AI.Timeout = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Notes.AutosaveDelay = -time.Second
	assert.Error(t, cfg.Validate())
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, IsPostgres("postgres://me@localhost/markease"))
	assert.True(t, IsPostgres("postgresql://me@localhost/markease"))
	assert.False(t, IsPostgres("~/.config/markease/markease.db"))
}
