package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	notesync "github.com/kallio/notesync/internal/sync"
)

func TestNewSyncCmd_Flags(t *testing.T) {
	cmd := newSyncCmd()
	assert.Equal(t, "sync", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("download-only"))
	assert.NotNil(t, cmd.Flags().Lookup("upload-only"))
}

func TestNewWatchCmd_Use(t *testing.T) {
	cmd := newWatchCmd()
	assert.Equal(t, "watch", cmd.Use)
}

func TestNewDedupCmd_Use(t *testing.T) {
	cmd := newDedupCmd()
	assert.Equal(t, "dedup", cmd.Use)
}

func TestNewConflictsCmd_Use(t *testing.T) {
	cmd := newConflictsCmd()
	assert.Equal(t, "conflicts", cmd.Use)
}

func TestNewStatusCmd_Use(t *testing.T) {
	cmd := newStatusCmd()
	assert.Equal(t, "status", cmd.Use)
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "bidirectional", directionString(notesync.DirectionBoth))
	assert.Equal(t, "upload-only", directionString(notesync.DirectionPush))
	assert.Equal(t, "download-only", directionString(notesync.DirectionPull))
}
