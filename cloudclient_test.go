package main

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kallio/notesync/internal/cloudapi"
	"github.com/kallio/notesync/internal/config"
)

func TestCloudClientFactory_DefaultErrors(t *testing.T) {
	client, err := cloudClientFactory(config.DefaultConfig(), nil)
	assert.Nil(t, client)
	require.Error(t, err)
	assert.ErrorIs(t, err, errNoCloudTransport)
}

func TestCloudClientFactory_Overridable(t *testing.T) {
	old := cloudClientFactory
	t.Cleanup(func() { cloudClientFactory = old })

	cloudClientFactory = func(cfg *config.Config, logger *slog.Logger) (cloudapi.Client, error) {
		return cloudapi.NewFake(), nil
	}

	client, err := cloudClientFactory(config.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.NotNil(t, client)
}
