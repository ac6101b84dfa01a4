package sync

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// notesyncIgnoreFile is an optional, additional local-scan exclusion layer
// on top of the mandatory dotfile/.conflict. exclusions (SPEC_FULL §5).
const notesyncIgnoreFile = ".notesyncignore"

// localEntry is one item produced by a local scan.
type localEntry struct {
	RelPath string
	AbsPath string
	IsDir   bool
	ModTime int64
}

// ScanLocal walks root in a single pass, skipping dotfiles, any path
// containing ".conflict.", and (for files) anything but the ".md"
// extension. An optional .notesyncignore at the root provides further
// exclusions (spec §4.2, SPEC_FULL §5).
func ScanLocal(root string, logger *slog.Logger) (map[string]localEntry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ignorer := loadNotesyncIgnore(root, logger)

	out := make(map[string]localEntry)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == root {
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}

		rel = normalizeRelPath(rel)

		if skipEntry(rel, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if ignorer != nil && ignorer.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if !d.IsDir() && !strings.EqualFold(filepath.Ext(rel), ".md") {
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			return fmt.Errorf("stat %s: %w", path, statErr)
		}

		out[rel] = localEntry{
			RelPath: rel,
			AbsPath: path,
			IsDir:   d.IsDir(),
			ModTime: info.ModTime().Unix(),
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning local tree %s: %w", root, err)
	}

	return out, nil
}

// skipEntry reports whether rel should be excluded from all traversals:
// dotfile components and any segment matching the conflict-backup pattern
// (spec §3 invariants 4-5).
func skipEntry(rel string, d fs.DirEntry) bool {
	name := d.Name()

	if strings.HasPrefix(name, ".") {
		return true
	}

	if strings.Contains(rel, ".conflict.") {
		return true
	}

	return false
}

// loadNotesyncIgnore reads .notesyncignore at the sync root, if present.
// Its absence is not an error; a malformed file is logged and ignored.
func loadNotesyncIgnore(root string, logger *slog.Logger) *gitignore.GitIgnore {
	path := filepath.Join(root, notesyncIgnoreFile)

	if _, err := os.Stat(path); err != nil {
		return nil
	}

	ig, err := gitignore.CompileIgnoreFile(path)
	if err != nil {
		logger.Warn("could not parse .notesyncignore, ignoring it", "path", path, "error", err)

		return nil
	}

	return ig
}
