package main

import (
	"log/slog"
	"path/filepath"

	"github.com/kallio/notesync/internal/autocommit"
	"github.com/kallio/notesync/internal/config"
	notesync "github.com/kallio/notesync/internal/sync"
)

// metadataFileName is the single metadata file's name, placed directly
// inside the sync root (spec §6). The local scanner only considers
// `.md`-suffixed files, so this un-dotted name never collides with a scan.
const metadataFileName = "metadata.json"

// buildOrchestrator wires the metadata store, cloud client, downloader,
// uploader, and optional auto-commit sink described by cc.Cfg into one
// Orchestrator, ready for a sync or watch pass. forWatch forces the
// auto-commit sink on regardless of config, matching the original
// watcher's unconditional GitHelper use for the long-running mode (the
// one-shot `sync` command stays config-gated).
func buildOrchestrator(cc *CLIContext, forWatch bool) (*notesync.Orchestrator, error) {
	client, err := cloudClientFactory(cc.Cfg, cc.Logger)
	if err != nil {
		return nil, err
	}

	store := notesync.NewMetadataStore(metadataPath(cc.Cfg.SyncRoot), cc.Logger)
	if err := store.Load(); err != nil {
		return nil, err
	}

	uploader := notesync.NewUploader(client, nil, store, cc.Logger)
	downloader := notesync.NewDownloader(client, nil, nil, cc.Logger)

	sink, err := buildAutoCommitSink(cc.Cfg, cc.Logger, forWatch)
	if err != nil {
		return nil, err
	}

	orch := notesync.NewOrchestrator(cc.Cfg.SyncRoot, store, client, downloader, uploader, sink, cc.Logger)

	downloads := cc.Cfg.Transfers.ParallelDownloads
	uploads := cc.Cfg.Transfers.ParallelUploads
	orch.SetPoolSizes(downloads, uploads)

	return orch, nil
}

// buildAutoCommitSink constructs a git autocommit.GitSink when enabled in
// config, or unconditionally when forWatch is set. Absence (nil, nil) is a
// valid, documented configuration for one-shot sync (spec §6).
func buildAutoCommitSink(cfg *config.Config, logger *slog.Logger, forWatch bool) (notesync.AutoCommitSink, error) {
	if !cfg.AutoCommit.Enabled && !forWatch {
		return nil, nil
	}

	sink, err := autocommit.NewGitSink(logger)
	if err != nil {
		return nil, err
	}

	return sink, nil
}

// metadataPath returns the absolute path of the metadata file for a sync
// root.
func metadataPath(syncRoot string) string {
	return filepath.Join(syncRoot, metadataFileName)
}
