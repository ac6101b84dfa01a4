package sync

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Default debounce and poll intervals (spec §4.7, SPEC_FULL §5).
const (
	defaultDebounceSeconds = 5
	defaultPollSeconds     = 60
	debounceScanInterval   = 1 * time.Second
)

// FsWatcher abstracts filesystem event monitoring so tests can inject a
// fake implementation. Satisfied by *fsnotify.Watcher via fsnotifyWrapper.
type FsWatcher interface {
	Add(name string) error
	Remove(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type fsnotifyWrapper struct {
	w *fsnotify.Watcher
}

func (fw *fsnotifyWrapper) Add(name string) error         { return fw.w.Add(name) }
func (fw *fsnotifyWrapper) Remove(name string) error      { return fw.w.Remove(name) }
func (fw *fsnotifyWrapper) Close() error                  { return fw.w.Close() }
func (fw *fsnotifyWrapper) Events() <-chan fsnotify.Event { return fw.w.Events }
func (fw *fsnotifyWrapper) Errors() <-chan error          { return fw.w.Errors }

// newRealFsWatcher creates an fsnotify-backed FsWatcher.
func newRealFsWatcher() (FsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &fsnotifyWrapper{w: w}, nil
}

// Watcher runs the debounced filesystem-watch daemon described in spec
// §4.7: fsnotify events mark paths "dirty" with a timestamp; a 1-second
// ticker promotes entries whose dirty mark has aged past the debounce
// window into a sync trigger; a separate ticker forces a periodic cloud
// poll even with no local activity; a single-flight guard drops triggers
// that arrive while a pass is already running.
type Watcher struct {
	syncRoot        string
	orchestrator    *Orchestrator
	logger          *slog.Logger
	debounceSeconds int
	pollSeconds     int

	watcherFactory func() (FsWatcher, error)

	mu      sync.Mutex
	dirty   map[string]time.Time
	running bool
}

// NewWatcher creates a Watcher bound to orchestrator. debounceSeconds and
// pollSeconds fall back to their spec-mandated defaults when zero.
func NewWatcher(syncRoot string, orchestrator *Orchestrator, debounceSeconds, pollSeconds int, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}

	if debounceSeconds <= 0 {
		debounceSeconds = defaultDebounceSeconds
	}

	if pollSeconds <= 0 {
		pollSeconds = defaultPollSeconds
	}

	return &Watcher{
		syncRoot:        syncRoot,
		orchestrator:    orchestrator,
		logger:          logger,
		debounceSeconds: debounceSeconds,
		pollSeconds:     pollSeconds,
		watcherFactory:  newRealFsWatcher,
		dirty:           make(map[string]time.Time),
	}
}

// Run starts the watcher daemon and blocks until ctx is canceled. It always
// performs one BOTH-direction pass at startup, then reacts to local
// filesystem events (debounced) and a periodic cloud-poll timer. A
// single-flight guard ensures only one pass runs at a time; triggers that
// arrive mid-pass are coalesced into the next tick rather than queued.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("watcher starting", "sync_root", w.syncRoot,
		"debounce_seconds", w.debounceSeconds, "poll_seconds", w.pollSeconds)

	fw, err := w.watcherFactory()
	if err != nil {
		return fmt.Errorf("creating filesystem watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addWatchesRecursive(fw); err != nil {
		return fmt.Errorf("adding initial watches: %w", err)
	}

	w.runPass(ctx, "startup")

	debounceTicker := time.NewTicker(debounceScanInterval)
	defer debounceTicker.Stop()

	pollTicker := time.NewTicker(time.Duration(w.pollSeconds) * time.Second)
	defer pollTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher stopping")

			return nil

		case ev, ok := <-fw.Events():
			if !ok {
				return nil
			}

			w.handleEvent(fw, ev)

		case err, ok := <-fw.Errors():
			if !ok {
				return nil
			}

			w.logger.Warn("filesystem watch error", "error", err)

		case <-debounceTicker.C:
			if w.matureTriggersPending() {
				w.runPass(ctx, "debounce")
			}

		case <-pollTicker.C:
			w.runPass(ctx, "poll")
		}
	}
}

// handleEvent records a dirty mark for non-directory, in-scope events and
// keeps the watch set in sync with newly created directories.
func (w *Watcher) handleEvent(fw FsWatcher, ev fsnotify.Event) {
	rel, err := filepath.Rel(w.syncRoot, ev.Name)
	if err != nil {
		return
	}

	rel = normalizeRelPath(rel)

	if strings.Contains(rel, ".git/") || strings.HasPrefix(rel, ".git") {
		return
	}

	if isConflictBackupPath(rel) {
		return
	}

	if ev.Op&fsnotify.Create != 0 {
		if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
			if addErr := fw.Add(ev.Name); addErr != nil {
				w.logger.Warn("failed to add watch on new directory", "path", ev.Name, "error", addErr)
			}

			return
		}
	}

	if !strings.EqualFold(filepath.Ext(rel), ".md") {
		return
	}

	w.mu.Lock()
	w.dirty[rel] = time.Now()
	w.mu.Unlock()
}

// matureTriggersPending reports whether any dirty mark has aged past the
// debounce window, and clears the dirty set if so (the next pass will
// observe the true state of every path via a fresh scan, so individual
// paths need not be tracked once a pass is triggered).
func (w *Watcher) matureTriggersPending() bool {
	threshold := time.Duration(w.debounceSeconds) * time.Second

	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()

	for _, markedAt := range w.dirty {
		if now.Sub(markedAt) >= threshold {
			w.dirty = make(map[string]time.Time)

			return true
		}
	}

	return false
}

// runPass invokes one orchestrator BOTH-direction pass, dropping the
// trigger entirely if a pass is already in flight (single-flight guard,
// spec §4.7 "collapses bursts of events into one").
func (w *Watcher) runPass(ctx context.Context, trigger string) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		w.logger.Debug("sync pass already running, dropping trigger", "trigger", trigger)

		return
	}

	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	w.logger.Info("watcher triggering sync pass", "trigger", trigger)

	report, err := w.orchestrator.Run(ctx, RunOpts{Direction: DirectionBoth})
	if err != nil {
		w.logger.Error("watch-triggered sync pass failed", "trigger", trigger, "error", err)

		return
	}

	w.logger.Info("watch-triggered sync pass complete",
		"trigger", trigger,
		"uploaded", report.Uploaded, "downloaded", report.Downloaded,
		"skipped", report.Skipped, "conflicts", report.Conflicts, "errors", report.Errors)
}

// addWatchesRecursive walks the sync root and adds a watch on every
// directory, skipping dotfile directories (spec §4.7).
func (w *Watcher) addWatchesRecursive(fw FsWatcher) error {
	return filepath.WalkDir(w.syncRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("walk error during watch setup", "path", path, "error", err)

			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.IsDir() {
			return nil
		}

		if path != w.syncRoot && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}

		if addErr := fw.Add(path); addErr != nil {
			w.logger.Warn("failed to add watch", "path", path, "error", addErr)
		}

		return nil
	})
}
