package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kallio/notesync/internal/config"
	notesync "github.com/kallio/notesync/internal/sync"
)

// watchPIDFileName names the single-instance lock file, kept inside the
// cache directory alongside any future runtime state so the sync root
// itself stays free of anything but the metadata file and conflict backups.
const watchPIDFileName = "watch.pid"

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the local tree and sync continuously",
		Long: `Watch the local Markdown tree for filesystem changes and run debounced
reconciliation passes, falling back to a periodic poll in case events are
missed (spec §4.7).

Only one watch process may run at a time for the current user: the lock
file lives in the user cache directory, whatever the sync root.`,
		RunE: runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	pidPath := filepath.Join(config.DefaultCacheDir(), watchPIDFileName)

	cleanup, err := writePIDFile(pidPath)
	if err != nil {
		return err
	}

	defer cleanup()

	orch, err := buildOrchestrator(cc, true)
	if err != nil {
		return err
	}

	debounce := cc.Cfg.Sync.DebounceSeconds
	poll := cc.Cfg.Sync.PollSeconds

	watcher := notesync.NewWatcher(cc.Cfg.SyncRoot, orch, debounce, poll, cc.Logger)

	ctx := shutdownContext(cmd.Context(), cc.Logger)

	cc.Statusf("Watching %s (debounce %ds, poll %ds)\n", cc.Cfg.SyncRoot, debounce, poll)

	if err := watcher.Run(ctx); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	return nil
}
