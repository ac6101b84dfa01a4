package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	notesync "github.com/kallio/notesync/internal/sync"
)

// statusReportJSON extends the plain sync report with the conflict-backup
// count, since status's whole purpose is a point-in-time picture of
// everything the spec lets the tool persist (spec §6).
type statusReportJSON struct {
	syncReportJSON
	ConflictBackups int `json:"conflict_backups"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report what a sync pass would do right now",
		Long: `Report the current divergence between the local tree and the cloud
without changing anything.

notesync keeps no history of past sync runs (spec §6: a single metadata
file, timestamped conflict backups, and nothing else persists beyond the
local tree). status is always a fresh, dry-run reconciliation pass — the
same computation "sync --dry-run" performs — plus a count of outstanding
conflict backups.`,
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	orch, err := buildOrchestrator(cc, false)
	if err != nil {
		return err
	}

	report, err := orch.Run(cmd.Context(), notesync.RunOpts{Direction: notesync.DirectionBoth, DryRun: true})
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	backups, err := notesync.ListConflictBackups(cc.Cfg.SyncRoot)
	if err != nil {
		return err
	}

	if cc.Flags.JSON {
		return printStatusJSON(&report, len(backups))
	}

	printStatusText(cc, &report, len(backups))

	return nil
}

func printStatusText(cc *CLIContext, report *notesync.SyncReport, conflictBackups int) {
	if report.Uploaded == 0 && report.Downloaded == 0 && report.Conflicts == 0 && conflictBackups == 0 {
		fmt.Println("In sync. No pending changes.")
		return
	}

	fmt.Println("Pending changes:")
	printSyncCounts(cc, report)

	if conflictBackups > 0 {
		fmt.Printf("  Unresolved conflict backups: %d\n", conflictBackups)
	}
}

func printStatusJSON(report *notesync.SyncReport, conflictBackups int) error {
	out := statusReportJSON{
		syncReportJSON: syncReportJSON{
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
		},
		ConflictBackups: conflictBackups,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}
