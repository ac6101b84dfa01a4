package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_AllFieldsPopulated(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	assert.Empty(t, cfg.SyncRoot)

	assert.True(t, cfg.Filter.SkipSymlinks)
	assert.Equal(t, "0", cfg.Filter.MaxFileSize)
	assert.Equal(t, ".notesyncignore", cfg.Filter.IgnoreMarker)
	assert.Empty(t, cfg.Filter.SkipDirs)

	assert.Equal(t, 10, cfg.Transfers.ParallelDownloads)
	assert.Equal(t, 5, cfg.Transfers.ParallelUploads)
	assert.Equal(t, 8, cfg.Transfers.ParallelCheckers)
	assert.Equal(t, 50, cfg.Transfers.BatchSaveSize)

	assert.Equal(t, "0755", cfg.Safety.SyncDirPermissions)
	assert.Equal(t, "0644", cfg.Safety.SyncFilePermissions)

	assert.Equal(t, 5, cfg.Sync.DebounceSeconds)
	assert.Equal(t, 60, cfg.Sync.PollSeconds)
	assert.False(t, cfg.Sync.DryRun)

	assert.Equal(t, "info", cfg.Logging.LogLevel)
	assert.Empty(t, cfg.Logging.LogFile)
	assert.Equal(t, "auto", cfg.Logging.LogFormat)

	assert.False(t, cfg.AutoCommit.Enabled)
}

func TestDefaultConfig_PassesValidation(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, Validate(cfg))
}
