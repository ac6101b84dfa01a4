package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadEnvOverrides_AllSet(t *testing.T) {
	t.Setenv("NOTESYNC_CONFIG", "/custom/config.toml")
	t.Setenv("NOTESYNC_SYNC_ROOT", "/home/user/Notes")

	overrides := ReadEnvOverrides()
	assert.Equal(t, "/custom/config.toml", overrides.ConfigPath)
	assert.Equal(t, "/home/user/Notes", overrides.SyncRoot)
}

func TestReadEnvOverrides_NoneSet(t *testing.T) {
	t.Setenv("NOTESYNC_CONFIG", "")
	t.Setenv("NOTESYNC_SYNC_ROOT", "")

	overrides := ReadEnvOverrides()
	assert.Empty(t, overrides.ConfigPath)
	assert.Empty(t, overrides.SyncRoot)
}

func TestReadEnvOverrides_PartiallySet(t *testing.T) {
	t.Setenv("NOTESYNC_CONFIG", "")
	t.Setenv("NOTESYNC_SYNC_ROOT", "/home/user/Notes")

	overrides := ReadEnvOverrides()
	assert.Empty(t, overrides.ConfigPath)
	assert.Equal(t, "/home/user/Notes", overrides.SyncRoot)
}

func TestEnvVarConstants(t *testing.T) {
	assert.Equal(t, "NOTESYNC_CONFIG", EnvConfig)
	assert.Equal(t, "NOTESYNC_SYNC_ROOT", EnvSyncRoot)
}
