package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFileName)

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Equal(t, BackendSQLite, cfg.Storage)
	assert.Equal(t, filepath.Join(dir, "tasks.db"), cfg.DBPath)
	assert.Equal(t, "n", cfg.Keys.Add)
	assert.Equal(t, time.Second, cfg.PollIntervalDuration())
	assert.Zero(t, cfg.OverdueDuration())

	// Second load reads the file it just wrote.
	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreateReadsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFileName)

	body := `
storage = "file"
tasks_path = "/tmp/mytodo.db"
poll_interval = "5s"
overdue_every = "30m"

[keys]
quit = "x"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)

	assert.Equal(t, BackendFile, cfg.Storage)
	assert.Equal(t, "/tmp/mytodo.db", cfg.TasksPath)
	assert.Equal(t, 5*time.Second, cfg.PollIntervalDuration())
	assert.Equal(t, 30*time.Minute, cfg.OverdueDuration())
	assert.Equal(t, "x", cfg.Keys.Quit)
	// Unset paths fall back to defaults next to the config file.
	assert.Equal(t, filepath.Join(dir, "tasks.db"), cfg.DBPath)
	assert.Equal(t, filepath.Join(dir, "notifications.db"), cfg.NotificationsPath)
}

func TestLoadOrCreateRejectsBadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("storage = [unclosed"), 0o644))

	_, err := LoadOrCreate(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := Default(dir)
	cfg.OverdueEvery = "2h"
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, loaded.OverdueDuration())
	assert.Equal(t, cfg.NotifyCommand, loaded.NotifyCommand)
}

func TestPollIntervalFallback(t *testing.T) {
	cfg := Config{PollInterval: "bogus"}
	assert.Equal(t, time.Second, cfg.PollIntervalDuration())

	cfg.PollInterval = ""
	assert.Equal(t, time.Second, cfg.PollIntervalDuration())
}
