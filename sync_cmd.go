package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	notesync "github.com/kallio/notesync/internal/sync"
)

func newSyncCmd() *cobra.Command {
	var flagDownloadOnly, flagUploadOnly bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one reconciliation pass between the local tree and the cloud",
		Long: `Run a one-shot sync cycle between the local Markdown tree and the cloud
notes service.

By default sync is bidirectional. Use --download-only or --upload-only to
restrict which side's changes get applied. Use --dry-run (a persistent flag)
to preview what would happen without changing anything.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, flagDownloadOnly, flagUploadOnly)
		},
	}

	cmd.Flags().BoolVar(&flagDownloadOnly, "download-only", false, "only apply remote changes")
	cmd.Flags().BoolVar(&flagUploadOnly, "upload-only", false, "only apply local changes")
	cmd.MarkFlagsMutuallyExclusive("download-only", "upload-only")

	return cmd
}

func runSync(cmd *cobra.Command, downloadOnly, uploadOnly bool) error {
	cc := mustCLIContext(cmd.Context())

	direction := notesync.DirectionBoth
	if downloadOnly {
		direction = notesync.DirectionPull
	}

	if uploadOnly {
		direction = notesync.DirectionPush
	}

	orch, err := buildOrchestrator(cc, false)
	if err != nil {
		return err
	}

	dryRun := cc.Flags.DryRun || cc.Cfg.Sync.DryRun

	cc.Logger.Info("sync: starting", "direction", direction, "dry_run", dryRun)

	report, err := orch.Run(cmd.Context(), notesync.RunOpts{Direction: direction, DryRun: dryRun})
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	if cc.Flags.JSON {
		if err := printSyncReportJSON(&report); err != nil {
			return err
		}
	} else {
		printSyncReportText(cc, &report)
	}

	if report.Errors > 0 {
		return fmt.Errorf("sync completed with %d errors", report.Errors)
	}

	return nil
}

func printSyncReportText(cc *CLIContext, report *notesync.SyncReport) {
	if report.Uploaded == 0 && report.Downloaded == 0 && report.Conflicts == 0 &&
		report.Errors == 0 && report.DedupDelete == 0 {
		if report.DryRun {
			cc.Statusf("Dry run complete — already in sync.\n")
		} else {
			cc.Statusf("Already in sync.\n")
		}

		return
	}

	if report.DryRun {
		cc.Statusf("Dry run — no changes made\n")
	} else {
		cc.Statusf("Sync complete\n")
	}

	printSyncCounts(cc, report)
}

func printSyncCounts(cc *CLIContext, report *notesync.SyncReport) {
	if report.Downloaded > 0 {
		cc.Statusf("  Downloaded: %d\n", report.Downloaded)
	}

	if report.Uploaded > 0 {
		cc.Statusf("  Uploaded:   %d\n", report.Uploaded)
	}

	if report.Skipped > 0 {
		cc.Statusf("  Skipped:    %d\n", report.Skipped)
	}

	if report.Conflicts > 0 {
		cc.Statusf("  Conflicts:  %d\n", report.Conflicts)
	}

	if report.DedupGroups > 0 {
		cc.Statusf("  Dedup groups: %d (%d files removed)\n", report.DedupGroups, report.DedupDelete)
	}

	if report.Errors > 0 {
		cc.Statusf("  Errors:     %d\n", report.Errors)
	}
}

// syncReportJSON is the stable JSON shape for a SyncReport.
type syncReportJSON struct {
	Mode         string   `json:"mode"`
	DryRun       bool     `json:"dry_run"`
	Downloaded   int      `json:"downloaded"`
	Uploaded     int      `json:"uploaded"`
	Skipped      int      `json:"skipped"`
	Conflicts    int      `json:"conflicts"`
	Errors       int      `json:"errors"`
	DedupGroups  int      `json:"dedup_groups"`
	DedupDelete  int      `json:"dedup_delete"`
	ChangedPaths []string `json:"changed_paths"`
}

func directionString(d notesync.Direction) string {
	switch d {
	case notesync.DirectionPush:
		return "upload-only"
	case notesync.DirectionPull:
		return "download-only"
	default:
		return "bidirectional"
	}
}

func printSyncReportJSON(report *notesync.SyncReport) error {
	out := syncReportJSON{
		Mode:         directionString(report.Mode),
		DryRun:       report.DryRun,
		Downloaded:   report.Downloaded,
		Uploaded:     report.Uploaded,
		Skipped:      report.Skipped,
		Conflicts:    report.Conflicts,
		Errors:       report.Errors,
		DedupGroups:  report.DedupGroups,
		DedupDelete:  report.DedupDelete,
		ChangedPaths: report.ChangedPaths,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
