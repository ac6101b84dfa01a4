// Package autocommit provides the optional post-sync packaging
// collaborator described in spec §6: given a sync root, the list of
// changed absolute paths, and a pass's counters, it performs whatever
// version-control bookkeeping the caller wants. The sync core only
// depends on the sync.AutoCommitSink interface; this package is one
// concrete implementation, absent by default.
package autocommit

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cli/safeexec"

	notesync "github.com/kallio/notesync/internal/sync"
)

// GitSink commits changed paths to a local git repository rooted at the
// sync directory after each pass with real changes. It shells out to the
// git binary rather than linking a git library, mirroring the teacher's
// preference for external, well-tested tools over embedded reimplementations.
type GitSink struct {
	gitPath string
	logger  *slog.Logger
}

// NewGitSink locates the git binary on PATH using safeexec (the same
// lookup pattern used for locating transform binaries like dart-sass or
// babel in the wider ecosystem) and returns a ready-to-use GitSink. An
// error here means git is not installed or not on PATH; callers should
// treat that as "no auto-commit sink configured" rather than fatal.
func NewGitSink(logger *slog.Logger) (*GitSink, error) {
	if logger == nil {
		logger = slog.Default()
	}

	path, err := safeexec.LookPath("git")
	if err != nil {
		return nil, fmt.Errorf("locating git binary: %w", err)
	}

	return &GitSink{gitPath: path, logger: logger}, nil
}

// Commit stages the given absolute paths (skipping any outside syncRoot)
// and creates a commit summarizing the pass's counters. A repository that
// is not yet initialized, or that has nothing staged after `git add`
// (e.g. a dedup-only pass that only deleted already-untracked files), is
// not an error — Commit is a best-effort convenience, not a required step.
func (s *GitSink) Commit(syncRoot string, changedAbsPaths []string, report notesync.SyncReport) error {
	if len(changedAbsPaths) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rels := make([]string, 0, len(changedAbsPaths))

	for _, abs := range changedAbsPaths {
		rel, err := filepath.Rel(syncRoot, abs)
		if err != nil || rel == ".." || strings.HasPrefix(rel, "../") {
			continue
		}

		rels = append(rels, rel)
	}

	if len(rels) == 0 {
		return nil
	}

	if err := s.run(ctx, syncRoot, "rev-parse", "--git-dir"); err != nil {
		s.logger.Debug("autocommit: sync root is not inside a git repository, skipping commit", "error", err)

		return nil
	}

	// A dedup pass removes its victims from disk before Commit is called
	// (internal/sync/dedup.go still reports their paths as changed, so the
	// commit message reflects them). `git add -- <path>` on a path that
	// matches nothing, tracked or on disk, fails the whole invocation, so
	// only still-existing paths go through `add --`; deletions are staged
	// separately via `add -u`, mirroring the split the original's
	// git_helper.py commit_sync makes.
	existing := make([]string, 0, len(rels))

	for _, rel := range rels {
		if _, err := os.Stat(filepath.Join(syncRoot, rel)); err == nil {
			existing = append(existing, rel)
		}
	}

	if len(existing) > 0 {
		addArgs := append([]string{"add", "--"}, existing...)
		if err := s.run(ctx, syncRoot, addArgs...); err != nil {
			return fmt.Errorf("git add: %w", err)
		}
	}

	if report.DedupDelete > 0 {
		if err := s.run(ctx, syncRoot, "add", "-u", "--", "."); err != nil {
			return fmt.Errorf("git add -u: %w", err)
		}
	}

	if !s.hasStagedChanges(ctx, syncRoot) {
		s.logger.Debug("autocommit: nothing staged after add, skipping commit")

		return nil
	}

	message := commitMessage(report)

	if err := s.run(ctx, syncRoot, "commit", "--quiet", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}

	s.logger.Info("autocommit: committed sync changes", "paths", len(rels))

	return nil
}

// hasStagedChanges reports whether `git diff --cached --quiet` found any
// staged difference (exit status 1), as opposed to a real error.
func (s *GitSink) hasStagedChanges(ctx context.Context, dir string) bool {
	cmd := exec.CommandContext(ctx, s.gitPath, "diff", "--cached", "--quiet")
	cmd.Dir = dir

	err := cmd.Run()
	if err == nil {
		return false
	}

	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return exitErr.ExitCode() == 1
	}

	return false
}

func (s *GitSink) run(ctx context.Context, dir string, args ...string) error {
	cmd := exec.CommandContext(ctx, s.gitPath, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: %s", err, stderr.String())
	}

	return nil
}

// asExitError unwraps err into an *exec.ExitError, if it is one.
func asExitError(err error, target **exec.ExitError) bool {
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		return false
	}

	*target = exitErr

	return true
}
