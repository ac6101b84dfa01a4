package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invalidSizeStr = "not-a-size"

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.SyncRoot = "/home/user/Notes"

	return cfg
}

func TestValidate_ValidDefaults(t *testing.T) {
	err := Validate(validConfig())
	assert.NoError(t, err)
}

func TestValidate_SyncRoot_Relative(t *testing.T) {
	cfg := validConfig()
	cfg.SyncRoot = "relative/path"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync_root")
}

func TestValidate_SyncRoot_EmptyAllowed(t *testing.T) {
	cfg := validConfig()
	cfg.SyncRoot = ""
	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_ParallelDownloads_BelowMin(t *testing.T) {
	cfg := validConfig()
	cfg.Transfers.ParallelDownloads = 0
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel_downloads")
}

func TestValidate_ParallelUploads_AboveMax(t *testing.T) {
	cfg := validConfig()
	cfg.Transfers.ParallelUploads = 65
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel_uploads")
}

func TestValidate_ParallelCheckers_BelowMin(t *testing.T) {
	cfg := validConfig()
	cfg.Transfers.ParallelCheckers = 0
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parallel_checkers")
}

func TestValidate_BatchSaveSize_BelowMin(t *testing.T) {
	cfg := validConfig()
	cfg.Transfers.BatchSaveSize = 0
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_save_size")
}

func TestValidate_Permissions_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"too short", "07"},
		{"too long", "07000"},
		{"not octal", "abc"},
		{"above max", "1000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Safety.SyncDirPermissions = tt.value
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "sync_dir_permissions")
		})
	}
}

func TestValidate_Permissions_Valid(t *testing.T) {
	for _, perm := range []string{"0600", "0700", "0755", "0644", "777"} {
		cfg := validConfig()
		cfg.Safety.SyncDirPermissions = perm
		cfg.Safety.SyncFilePermissions = perm
		err := Validate(cfg)
		assert.NoError(t, err, "expected %s to be valid", perm)
	}
}

func TestValidate_DebounceSeconds_BelowMin(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.DebounceSeconds = 0
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "debounce_seconds")
}

func TestValidate_PollSeconds_BelowMin(t *testing.T) {
	cfg := validConfig()
	cfg.Sync.PollSeconds = 1
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll_seconds")
}

func TestValidate_LogLevel_Invalid(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.LogLevel = "verbose"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
}

func TestValidate_LogLevel_AllValid(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		cfg := validConfig()
		cfg.Logging.LogLevel = level
		err := Validate(cfg)
		assert.NoError(t, err, "expected %s to be valid", level)
	}
}

func TestValidate_LogFormat_Invalid(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.LogFormat = "xml"
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_format")
}

func TestValidate_LogFormat_AllValid(t *testing.T) {
	for _, format := range []string{"auto", "text", "json"} {
		cfg := validConfig()
		cfg.Logging.LogFormat = format
		err := Validate(cfg)
		assert.NoError(t, err, "expected %s to be valid", format)
	}
}

func TestValidate_IgnoreMarker_Empty(t *testing.T) {
	cfg := validConfig()
	cfg.Filter.IgnoreMarker = ""
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ignore_marker")
}

func TestValidate_MaxFileSize_Invalid(t *testing.T) {
	cfg := validConfig()
	cfg.Filter.MaxFileSize = invalidSizeStr
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_file_size")
}

func TestValidate_MaxFileSize_ZeroMeansUnlimited(t *testing.T) {
	cfg := validConfig()
	cfg.Filter.MaxFileSize = "0"
	err := Validate(cfg)
	assert.NoError(t, err)
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Transfers.ParallelDownloads = 0
	cfg.Transfers.ParallelUploads = 0
	cfg.Logging.LogLevel = "invalid-value"
	cfg.Logging.LogFormat = "invalid-value"

	err := Validate(cfg)
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "parallel_downloads")
	assert.Contains(t, errStr, "parallel_uploads")
	assert.Contains(t, errStr, "log_level")
	assert.Contains(t, errStr, "log_format")
}
