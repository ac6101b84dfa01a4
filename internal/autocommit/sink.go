package autocommit

import (
	"fmt"
	"strings"

	notesync "github.com/kallio/notesync/internal/sync"
)

// commitMessage builds a one-line summary of a pass's counters, used as
// the git commit message body.
func commitMessage(report notesync.SyncReport) string {
	var parts []string

	if report.Uploaded > 0 {
		parts = append(parts, fmt.Sprintf("%d uploaded", report.Uploaded))
	}

	if report.Downloaded > 0 {
		parts = append(parts, fmt.Sprintf("%d downloaded", report.Downloaded))
	}

	if report.DedupDelete > 0 {
		parts = append(parts, fmt.Sprintf("%d deduped", report.DedupDelete))
	}

	if report.Conflicts > 0 {
		parts = append(parts, fmt.Sprintf("%d conflicts", report.Conflicts))
	}

	if len(parts) == 0 {
		return "notesync: sync"
	}

	return "notesync: " + strings.Join(parts, ", ")
}
