package sync

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"

	"github.com/kallio/notesync/internal/cloudapi"
)

// fakeFsWatcher is a no-op FsWatcher for unit-testing Watcher's event
// handling without touching the real filesystem notification subsystem.
type fakeFsWatcher struct {
	added []string
}

func (f *fakeFsWatcher) Add(name string) error {
	f.added = append(f.added, name)

	return nil
}
func (f *fakeFsWatcher) Remove(string) error           { return nil }
func (f *fakeFsWatcher) Close() error                  { return nil }
func (f *fakeFsWatcher) Events() <-chan fsnotify.Event { return nil }
func (f *fakeFsWatcher) Errors() <-chan error          { return nil }

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()

	root := t.TempDir()
	store := NewMetadataStore(filepath.Join(root, "metadata.json"), nil)
	client := cloudapi.NewFake()
	downloader := NewDownloader(client, nil, nil, nil)
	uploader := NewUploader(client, nil, store, nil)
	orch := NewOrchestrator(root, store, client, downloader, uploader, nil, nil)

	return NewWatcher(root, orch, 1, 60, nil)
}

func TestWatcherDefaultsApplied(t *testing.T) {
	w := NewWatcher(t.TempDir(), nil, 0, 0, nil)

	assert.Equal(t, defaultDebounceSeconds, w.debounceSeconds)
	assert.Equal(t, defaultPollSeconds, w.pollSeconds)
}

func TestHandleEventMarksMarkdownDirty(t *testing.T) {
	w := newTestWatcher(t)
	fw := &fakeFsWatcher{}

	path := filepath.Join(w.syncRoot, "note.md")
	w.handleEvent(fw, fsnotify.Event{Name: path, Op: fsnotify.Write})

	w.mu.Lock()
	_, dirty := w.dirty["note.md"]
	w.mu.Unlock()

	assert.True(t, dirty)
}

func TestHandleEventIgnoresNonMarkdown(t *testing.T) {
	w := newTestWatcher(t)
	fw := &fakeFsWatcher{}

	path := filepath.Join(w.syncRoot, "image.png")
	w.handleEvent(fw, fsnotify.Event{Name: path, Op: fsnotify.Write})

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Empty(t, w.dirty)
}

func TestHandleEventIgnoresConflictBackups(t *testing.T) {
	w := newTestWatcher(t)
	fw := &fakeFsWatcher{}

	path := filepath.Join(w.syncRoot, "note.conflict.20260101_000000.md")
	w.handleEvent(fw, fsnotify.Event{Name: path, Op: fsnotify.Write})

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Empty(t, w.dirty)
}

func TestMatureTriggersPendingWaitsForDebounceWindow(t *testing.T) {
	w := newTestWatcher(t)
	w.debounceSeconds = 1

	w.mu.Lock()
	w.dirty["note.md"] = time.Now()
	w.mu.Unlock()

	assert.False(t, w.matureTriggersPending())

	w.mu.Lock()
	w.dirty["note.md"] = time.Now().Add(-2 * time.Second)
	w.mu.Unlock()

	assert.True(t, w.matureTriggersPending())

	w.mu.Lock()
	defer w.mu.Unlock()
	assert.Empty(t, w.dirty)
}

func TestRunPassSingleFlightGuard(t *testing.T) {
	w := newTestWatcher(t)

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	// runPass should return immediately without touching the orchestrator
	// (which would otherwise panic trying to scan a nil store path twice
	// concurrently); this just asserts no blocking/deadlock occurs.
	done := make(chan struct{})

	go func() {
		w.runPass(nil, "test")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runPass did not return promptly when a pass was already in flight")
	}
}
