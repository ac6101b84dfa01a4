package main

import (
	"errors"
	"log/slog"

	"github.com/kallio/notesync/internal/cloudapi"
	"github.com/kallio/notesync/internal/config"
)

// errNoCloudTransport is returned by the default cloudClientFactory. The
// cloud service's wire protocol is an external collaborator behind the
// cloudapi.Client interface (see DESIGN.md); this module ships the sync
// engine and CLI against that interface only. cloudapi.Fake exists purely
// for tests and is documented as never wired into the CLI, so a command
// that needs a live client without a real transport linked in fails loudly
// here instead of silently running against an in-memory fake.
var errNoCloudTransport = errors.New("no cloud transport configured: link a cloudapi.Client implementation and set cloudClientFactory")

// cloudClientFactory builds the cloudapi.Client used by sync, watch, and
// dedup. It is a package-level var rather than a hardcoded constructor call
// so a real transport can be substituted by whoever builds notesync for a
// specific cloud-notes backend, without touching any command's source.
var cloudClientFactory = func(cfg *config.Config, logger *slog.Logger) (cloudapi.Client, error) {
	_ = cfg
	_ = logger

	return nil, errNoCloudTransport
}
