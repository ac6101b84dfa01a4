package sync

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxConflictSuffix bounds the numeric suffix tried during conflict-path
// collision avoidance. Grounded on the teacher's conflict.go constant of the
// same name and purpose.
const maxConflictSuffix = 1000

// conflictBackupPermissions matches the permissions of the file being
// copied as closely as a fixed mode can; os.Chmod afterwards restores the
// original file's exact mode.
const conflictBackupPermissions = 0o644

// backupConflict produces a timestamped copy of localPath in the same
// directory, named `<stem>.conflict.<YYYYMMDD_HHMMSS><ext>` (spec §4.8).
// On failure it logs and returns an empty path; the caller may still
// proceed — the conflict counter communicates the situation to the user.
func backupConflict(localPath string, logger *slog.Logger) string {
	if logger == nil {
		logger = slog.Default()
	}

	backupPath, err := copyToConflictPath(localPath)
	if err != nil {
		logger.Error("conflict backup failed", "path", localPath, "error", err)

		return ""
	}

	return backupPath
}

// copyToConflictPath performs the actual file copy and returns the
// generated backup path.
func copyToConflictPath(localPath string) (string, error) {
	backupPath := generateConflictPath(localPath)

	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening %s for conflict backup: %w", localPath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s for conflict backup: %w", localPath, err)
	}

	dst, err := os.OpenFile(backupPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, conflictBackupPermissions)
	if err != nil {
		return "", fmt.Errorf("creating conflict backup %s: %w", backupPath, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()

		return "", fmt.Errorf("copying content to conflict backup %s: %w", backupPath, err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("closing conflict backup %s: %w", backupPath, err)
	}

	if err := os.Chmod(backupPath, info.Mode()); err != nil {
		return "", fmt.Errorf("setting conflict backup permissions %s: %w", backupPath, err)
	}

	modTime := info.ModTime()
	if err := os.Chtimes(backupPath, modTime, modTime); err != nil {
		return "", fmt.Errorf("setting conflict backup mtime %s: %w", backupPath, err)
	}

	return backupPath, nil
}

// generateConflictPath builds the spec's exact backup naming pattern:
// <stem>.conflict.<YYYYMMDD_HHMMSS><ext>, with numeric-suffix collision
// avoidance. Grounded on the teacher's generateConflictPath, adapted to the
// spec's dot-separated / underscore-time format (the teacher uses
// dash-separated `conflict-YYYYMMDD-HHMMSS`).
func generateConflictPath(originalPath string) string {
	stem, ext := conflictStemExt(originalPath)
	ts := time.Now().UTC().Format("20060102_150405")

	base := stem + ".conflict." + ts + ext
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return base
	}

	for i := 1; i <= maxConflictSuffix; i++ {
		candidate := fmt.Sprintf("%s.conflict.%s_%d%s", stem, ts, i, ext)
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
	}

	return base
}

// conflictStemExt splits originalPath into (stem, ext). Dotfiles whose only
// dot is the leading one (e.g. ".bashrc") are treated as having an empty
// extension so the conflict suffix is appended to the whole filename.
func conflictStemExt(originalPath string) (stem, ext string) {
	base := filepath.Base(originalPath)
	dir := originalPath[:len(originalPath)-len(base)]

	if strings.HasPrefix(base, ".") && strings.Count(base, ".") == 1 {
		return dir + base, ""
	}

	ext = filepath.Ext(base)
	stem = dir + base[:len(base)-len(ext)]

	return stem, ext
}

// isConflictBackupPath reports whether rel matches the conflict-backup
// naming pattern, so scanners and the dedup engine can exclude it
// (spec §3 invariant 4, §4.8).
func isConflictBackupPath(rel string) bool {
	return strings.Contains(rel, ".conflict.")
}

// ConflictBackup describes one timestamped conflict backup found under a
// sync root.
type ConflictBackup struct {
	RelPath string
	ModTime time.Time
	Size    int64
}

// ListConflictBackups walks syncRoot and returns every conflict-backup file
// (spec §4.8), sorted newest first. It is the CLI's `conflicts` command's
// only source of conflict history — spec §6 allows no persisted state
// beyond the metadata file and these backups themselves.
func ListConflictBackups(syncRoot string) ([]ConflictBackup, error) {
	var backups []ConflictBackup

	err := filepath.WalkDir(syncRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		rel, relErr := filepath.Rel(syncRoot, path)
		if relErr != nil {
			return relErr
		}

		if !isConflictBackupPath(rel) {
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}

		backups = append(backups, ConflictBackup{
			RelPath: rel,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing conflict backups under %s: %w", syncRoot, err)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].ModTime.After(backups[j].ModTime)
	})

	return backups, nil
}
