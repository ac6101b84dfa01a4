package main

import (
	"fmt"

	"github.com/spf13/cobra"

	notesync "github.com/kallio/notesync/internal/sync"
)

func newDedupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dedup",
		Short: "Find and remove duplicate local content",
		Long: `Scan the local tree for files sharing identical content hashes (file
size is a collision guard) and prune each duplicate group (spec §4.6):

  - a group mixing cloud-tracked and local-only copies loses its
    local-only copies;
  - a group of cloud-tracked text files keeps its best-scoring copy;
  - a group of cloud-tracked asset files keeps every copy referenced by a
    Markdown image reference ![..](..) or a src="..." attribute, or the
    best-scoring copy when none is referenced;
  - a group of local-only copies is left alone.

A referenced asset is never removed. Plain Markdown links are not read as
references.

Use --dry-run (a persistent flag) to preview which files would be removed.`,
		RunE: runDedup,
	}
}

func runDedup(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	client, err := cloudClientFactory(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	store := notesync.NewMetadataStore(metadataPath(cc.Cfg.SyncRoot), cc.Logger)
	if err := store.Load(); err != nil {
		return err
	}

	engine := notesync.NewDedupEngine(cc.Cfg.SyncRoot, store, client, cc.Logger)

	dryRun := cc.Flags.DryRun || cc.Cfg.Sync.DryRun

	report, err := engine.Run(cmd.Context(), dryRun)
	if err != nil {
		return fmt.Errorf("dedup failed: %w", err)
	}

	if cc.Flags.JSON {
		return printSyncReportJSON(&report)
	}

	if report.DedupGroups == 0 {
		cc.Statusf("No duplicate content found.\n")
		return nil
	}

	if dryRun {
		cc.Statusf("Dry run — %d duplicate group(s), %d file(s) would be removed\n",
			report.DedupGroups, report.DedupDelete)
	} else {
		cc.Statusf("Removed %d file(s) across %d duplicate group(s)\n",
			report.DedupDelete, report.DedupGroups)
	}

	return nil
}
