package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	notesync "github.com/kallio/notesync/internal/sync"
)

func newConflictsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts",
		Short: "List timestamped conflict backups under the sync root",
		Long: `Display every conflict backup found under the local sync root.

notesync keeps no separate conflict database (spec §6): a conflict backup
is itself the record of the conflict, named <stem>.conflict.<timestamp><ext>
next to the file it diverged from.`,
		RunE: runConflicts,
	}
}

type conflictJSON struct {
	Path    string `json:"path"`
	ModTime string `json:"mod_time"`
	Size    int64  `json:"size"`
}

func runConflicts(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	backups, err := notesync.ListConflictBackups(cc.Cfg.SyncRoot)
	if err != nil {
		return err
	}

	if len(backups) == 0 {
		if !cc.Flags.JSON {
			fmt.Println("No conflict backups found.")
		} else {
			fmt.Println("[]")
		}

		return nil
	}

	if cc.Flags.JSON {
		return printConflictsJSON(backups)
	}

	printConflictsTable(backups)

	return nil
}

func printConflictsJSON(backups []notesync.ConflictBackup) error {
	items := make([]conflictJSON, len(backups))
	for i, b := range backups {
		items[i] = conflictJSON{
			Path:    b.RelPath,
			ModTime: b.ModTime.UTC().Format("2006-01-02T15:04:05Z"),
			Size:    b.Size,
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(items)
}

func printConflictsTable(backups []notesync.ConflictBackup) {
	headers := []string{"PATH", "SIZE", "MODIFIED"}
	rows := make([][]string, len(backups))

	for i, b := range backups {
		rows[i] = []string{b.RelPath, formatSize(b.Size), formatTime(b.ModTime)}
	}

	printTable(os.Stdout, headers, rows)
}
