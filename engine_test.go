package main

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kallio/notesync/internal/cloudapi"
	"github.com/kallio/notesync/internal/config"
)

func TestMetadataPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/tmp/notes", "metadata.json"), metadataPath("/tmp/notes"))
}

func TestBuildAutoCommitSink_Disabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AutoCommit.Enabled = false

	sink, err := buildAutoCommitSink(cfg, slog.Default(), false)
	require.NoError(t, err)
	assert.Nil(t, sink)
}

func TestBuildAutoCommitSink_ForcedForWatch(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AutoCommit.Enabled = false

	sink, err := buildAutoCommitSink(cfg, slog.Default(), true)
	if err != nil {
		// git not on PATH in this environment; NewGitSink's own error is
		// the only expected failure mode here.
		assert.Nil(t, sink)

		return
	}

	assert.NotNil(t, sink)
}

func TestBuildOrchestrator_PropagatesCloudClientError(t *testing.T) {
	old := cloudClientFactory
	t.Cleanup(func() { cloudClientFactory = old })

	cloudClientFactory = func(cfg *config.Config, logger *slog.Logger) (cloudapi.Client, error) {
		return nil, errNoCloudTransport
	}

	cfg := config.DefaultConfig()
	cfg.SyncRoot = t.TempDir()

	cc := &CLIContext{Cfg: cfg, Logger: slog.Default()}

	_, err := buildOrchestrator(cc, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoCloudTransport)
}

func TestBuildOrchestrator_WithFakeClient(t *testing.T) {
	old := cloudClientFactory
	t.Cleanup(func() { cloudClientFactory = old })

	cloudClientFactory = func(cfg *config.Config, logger *slog.Logger) (cloudapi.Client, error) {
		return cloudapi.NewFake(), nil
	}

	cfg := config.DefaultConfig()
	cfg.SyncRoot = t.TempDir()

	cc := &CLIContext{Cfg: cfg, Logger: slog.Default()}

	orch, err := buildOrchestrator(cc, false)
	require.NoError(t, err)
	assert.NotNil(t, orch)
}
