package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad_ValidFullConfig(t *testing.T) {
	tomlContent := `
sync_root = "/home/user/Notes"

[filter]
skip_symlinks = false
skip_dirs = ["node_modules", ".git"]
max_file_size = "1GB"
ignore_marker = ".syncignore"

[transfers]
parallel_downloads = 4
parallel_uploads = 4
parallel_checkers = 4
batch_save_size = 25

[safety]
sync_dir_permissions = "0700"
sync_file_permissions = "0600"

[sync]
debounce_seconds = 10
poll_seconds = 120
dry_run = true

[logging]
log_level = "debug"
log_file = "/tmp/notesync.log"
log_format = "json"

[autocommit]
enabled = true
`

	path := writeTestConfig(t, tomlContent)
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "/home/user/Notes", cfg.SyncRoot)

	assert.False(t, cfg.Filter.SkipSymlinks)
	assert.Equal(t, []string{"node_modules", ".git"}, cfg.Filter.SkipDirs)
	assert.Equal(t, "1GB", cfg.Filter.MaxFileSize)
	assert.Equal(t, ".syncignore", cfg.Filter.IgnoreMarker)

	assert.Equal(t, 4, cfg.Transfers.ParallelDownloads)
	assert.Equal(t, 4, cfg.Transfers.ParallelUploads)
	assert.Equal(t, 4, cfg.Transfers.ParallelCheckers)
	assert.Equal(t, 25, cfg.Transfers.BatchSaveSize)

	assert.Equal(t, "0700", cfg.Safety.SyncDirPermissions)
	assert.Equal(t, "0600", cfg.Safety.SyncFilePermissions)

	assert.Equal(t, 10, cfg.Sync.DebounceSeconds)
	assert.Equal(t, 120, cfg.Sync.PollSeconds)
	assert.True(t, cfg.Sync.DryRun)

	assert.Equal(t, "debug", cfg.Logging.LogLevel)
	assert.Equal(t, "/tmp/notesync.log", cfg.Logging.LogFile)
	assert.Equal(t, "json", cfg.Logging.LogFormat)

	assert.True(t, cfg.AutoCommit.Enabled)
}

func TestLoad_MinimalConfig_UsesDefaults(t *testing.T) {
	path := writeTestConfig(t, "")
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Transfers.ParallelDownloads)
	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.Equal(t, 5, cfg.Sync.DebounceSeconds)
}

func TestLoad_MalformedTOML(t *testing.T) {
	path := writeTestConfig(t, `[filter
not valid toml`)
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml", nil)
	require.Error(t, err)
}

func TestLoad_ValidationError(t *testing.T) {
	path := writeTestConfig(t, "sync_root = \"relative/path\"")
	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadOrDefault_FileExists(t *testing.T) {
	path := writeTestConfig(t, "[logging]\nlog_level = \"debug\"\n")
	cfg, err := LoadOrDefault(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.LogLevel)
}

func TestLoadOrDefault_FileNotFound(t *testing.T) {
	cfg, err := LoadOrDefault("/nonexistent/path/config.toml", nil)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.Equal(t, 10, cfg.Transfers.ParallelDownloads)
}

func TestLoad_PartialConfig_UsesDefaults(t *testing.T) {
	path := writeTestConfig(t, "[logging]\nlog_level = \"warn\"\n")
	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.LogLevel)
	assert.Equal(t, 10, cfg.Transfers.ParallelDownloads)
	assert.Equal(t, 5, cfg.Sync.DebounceSeconds)
	assert.Equal(t, ".notesyncignore", cfg.Filter.IgnoreMarker)
}

func TestResolve_EnvThenCLIOverrideSyncRoot(t *testing.T) {
	path := writeTestConfig(t, "sync_root = \"/from/file\"\n")

	cfg, err := Resolve(
		EnvOverrides{ConfigPath: path, SyncRoot: "/from/env"},
		CLIOverrides{},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.SyncRoot)

	cfg, err = Resolve(
		EnvOverrides{ConfigPath: path, SyncRoot: "/from/env"},
		CLIOverrides{SyncRoot: "/from/cli"},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "/from/cli", cfg.SyncRoot)
}

func TestResolve_CLIConfigPathOverridesEnv(t *testing.T) {
	path := writeTestConfig(t, "sync_root = \"/from/file\"\n")

	cfg, err := Resolve(
		EnvOverrides{ConfigPath: "/wrong/path"},
		CLIOverrides{ConfigPath: path},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "/from/file", cfg.SyncRoot)
}

func TestResolve_CLIDryRunOverride(t *testing.T) {
	path := writeTestConfig(t, "sync_root = \"/from/file\"\n")

	dryRun := true
	cfg, err := Resolve(
		EnvOverrides{ConfigPath: path},
		CLIOverrides{DryRun: &dryRun},
		nil,
	)
	require.NoError(t, err)
	assert.True(t, cfg.Sync.DryRun)
}

func TestResolve_NoConfigFile_UsesDefaults(t *testing.T) {
	cfg, err := Resolve(
		EnvOverrides{ConfigPath: "/nonexistent/config.toml"},
		CLIOverrides{SyncRoot: "/home/user/Notes"},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "/home/user/Notes", cfg.SyncRoot)
	assert.Equal(t, 10, cfg.Transfers.ParallelDownloads)
}

func TestResolve_InvalidConfigFile(t *testing.T) {
	path := writeTestConfig(t, "[invalid toml")
	_, err := Resolve(
		EnvOverrides{ConfigPath: path},
		CLIOverrides{},
		nil,
	)
	require.Error(t, err)
}
