package sync

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/kallio/notesync/internal/cloudapi"
)

// assetExtensions is the fixed, case-insensitive set of extensions treated
// as binary assets rather than text documents (spec §4.6).
var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true,
	".webp": true, ".svg": true, ".ico": true, ".pdf": true, ".amr": true,
	".mp3": true, ".mp4": true, ".wav": true,
}

// referencePattern matches inline Markdown image refs `![...](...)`
// and HTML-style `src="..."` attributes (spec §4.6 "referenced" set).
var referencePattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)|src="([^"]+)"`)

// DedupEngine classifies and removes duplicate content across the local
// tree using content hash as the primary key and file size as a collision
// guard (spec §4.6).
type DedupEngine struct {
	syncRoot string
	store    *MetadataStore
	client   cloudapi.Client
	logger   *slog.Logger
}

// NewDedupEngine creates a DedupEngine. client may be nil if no cloud
// deletion should ever be attempted (tests only — production always wires
// a client).
func NewDedupEngine(syncRoot string, store *MetadataStore, client cloudapi.Client, logger *slog.Logger) *DedupEngine {
	if logger == nil {
		logger = slog.Default()
	}

	return &DedupEngine{syncRoot: syncRoot, store: store, client: client, logger: logger}
}

type dedupFileInfo struct {
	relPath string
	size    int64
	hash    string
}

// Run builds the hash and reference indexes with a single walk, classifies
// duplicate groups, and (unless dryRun) executes the planned deletions
// (spec §4.6).
func (d *DedupEngine) Run(ctx context.Context, dryRun bool) (SyncReport, error) {
	report := SyncReport{DryRun: dryRun}

	files, referenced, err := d.buildIndexes()
	if err != nil {
		return report, fmt.Errorf("building dedup indexes: %w", err)
	}

	byHash := make(map[string][]dedupFileInfo)
	for _, f := range files {
		byHash[f.hash] = append(byHash[f.hash], f)
	}

	for hash, group := range byHash {
		if len(group) < 2 {
			continue
		}

		if isEmptyFileHash(hash) {
			continue
		}

		for _, sub := range d.collisionGuard(group) {
			if len(sub) < 2 {
				continue
			}

			report.DedupGroups++

			toDelete := d.classifyGroup(sub, referenced)
			if len(toDelete) == 0 {
				continue
			}

			if dryRun {
				for _, p := range toDelete {
					d.logger.Info("dedup dry-run: would delete", "path", p)
				}

				report.DedupDelete += len(toDelete)

				continue
			}

			for _, p := range toDelete {
				if err := d.deleteDuplicate(ctx, p); err != nil {
					d.logger.Error("dedup delete failed", "path", p, "error", err)

					continue
				}

				report.DedupDelete++
				report.ChangedPaths = append(report.ChangedPaths, p)
			}
		}
	}

	return report, nil
}

// buildIndexes performs the single filesystem walk that produces both the
// hash index and the set of referenced asset paths (spec §4.6).
func (d *DedupEngine) buildIndexes() ([]dedupFileInfo, map[string]bool, error) {
	var files []dedupFileInfo

	referenced := make(map[string]bool)

	err := filepath.WalkDir(d.syncRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if path == d.syncRoot {
			return nil
		}

		rel, relErr := filepath.Rel(d.syncRoot, path)
		if relErr != nil {
			return relErr
		}

		rel = normalizeRelPath(rel)

		if skipEntry(rel, entry) {
			if entry.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		if entry.IsDir() {
			return nil
		}

		info, statErr := entry.Info()
		if statErr != nil {
			return statErr
		}

		hash := d.cachedHash(rel, path, info.ModTime().Unix())

		files = append(files, dedupFileInfo{relPath: rel, size: info.Size(), hash: hash})

		if strings.EqualFold(filepath.Ext(rel), ".md") {
			body, readErr := os.ReadFile(path)
			if readErr == nil {
				for _, ref := range extractReferences(string(body), filepath.Dir(rel)) {
					referenced[ref] = true
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return files, referenced, nil
}

// cachedHash reuses the stored hash when the on-disk mtime matches the
// metadata record's local_mtime, avoiding a re-read (spec §4.6
// "per-path cache").
func (d *DedupEngine) cachedHash(rel, absPath string, mtime int64) string {
	if rec, ok := d.store.GetFileInfo(rel); ok && rec.LocalMtime == mtime && rec.ContentHash != "" {
		return rec.ContentHash
	}

	hash, err := computeContentHash(absPath)
	if err != nil {
		d.logger.Warn("dedup: could not hash file", "path", absPath, "error", err)

		return ""
	}

	return hash
}

// collisionGuard sub-groups a hash group by byte size. Sub-groups of size 1
// are discarded with a warning — an MD5 collision is suspected when the
// hash matches but the size differs (spec §4.6).
func (d *DedupEngine) collisionGuard(group []dedupFileInfo) [][]dedupFileInfo {
	bySize := make(map[int64][]dedupFileInfo)
	for _, f := range group {
		bySize[f.size] = append(bySize[f.size], f)
	}

	var out [][]dedupFileInfo

	for size, sub := range bySize {
		if len(sub) < 2 {
			d.logger.Warn("dedup: possible MD5 collision, excluding from dedup",
				"hash", group[0].hash, "size", size)

			continue
		}

		out = append(out, sub)
	}

	return out
}

// classifyGroup applies the mixed/all-cloud/all-local classification rules
// and returns the relative paths to delete (spec §4.6 steps 2-5).
func (d *DedupEngine) classifyGroup(group []dedupFileInfo, referenced map[string]bool) []string {
	var cloudPaths, localPaths []dedupFileInfo

	for _, f := range group {
		rec, ok := d.store.GetFileInfo(f.relPath)
		if ok && rec.FileID != "" {
			cloudPaths = append(cloudPaths, f)
		} else {
			localPaths = append(localPaths, f)
		}
	}

	switch {
	case len(cloudPaths) > 0 && len(localPaths) > 0:
		return d.classifyMixed(localPaths, referenced)
	case len(cloudPaths) > 1 && len(localPaths) == 0:
		return d.classifyAllCloud(cloudPaths, referenced)
	default:
		// All-local group: never auto-prune local-only duplicates.
		return nil
	}
}

// classifyMixed deletes local-only paths unless they are a referenced asset
// (spec §4.6 step 3).
func (d *DedupEngine) classifyMixed(localPaths []dedupFileInfo, referenced map[string]bool) []string {
	var toDelete []string

	for _, f := range localPaths {
		if isAsset(f.relPath) && referenced[f.relPath] {
			continue
		}

		toDelete = append(toDelete, f.relPath)
	}

	return toDelete
}

// classifyAllCloud implements the asset vs text branches of spec §4.6
// step 4.
func (d *DedupEngine) classifyAllCloud(group []dedupFileInfo, referenced map[string]bool) []string {
	if isAsset(group[0].relPath) {
		return d.classifyAllCloudAsset(group, referenced)
	}

	// Text: keep the highest-scoring path, delete the rest.
	best := d.pickBest(group)

	var toDelete []string
	for _, f := range group {
		if f.relPath != best.relPath {
			toDelete = append(toDelete, f.relPath)
		}
	}

	return toDelete
}

func (d *DedupEngine) classifyAllCloudAsset(group []dedupFileInfo, referenced map[string]bool) []string {
	var refCount int

	for _, f := range group {
		if referenced[f.relPath] {
			refCount++
		}
	}

	switch {
	case refCount == len(group):
		// All referenced: skip the group entirely.
		return nil
	case refCount > 0:
		var toDelete []string
		for _, f := range group {
			if !referenced[f.relPath] {
				toDelete = append(toDelete, f.relPath)
			}
		}

		return toDelete
	default:
		best := d.pickBest(group)

		var toDelete []string
		for _, f := range group {
			if f.relPath != best.relPath {
				toDelete = append(toDelete, f.relPath)
			}
		}

		return toDelete
	}
}

// pickBest applies the scoring tie-break rule (spec §4.6 "Scoring"): greater
// path depth wins, then shorter basename, then earlier create time.
func (d *DedupEngine) pickBest(group []dedupFileInfo) dedupFileInfo {
	scored := append([]dedupFileInfo(nil), group...)

	sort.Slice(scored, func(i, j int) bool {
		return scoreGreater(d.score(scored[i]), d.score(scored[j]))
	})

	return scored[0]
}

// score returns a tuple ordered so that a lexicographically greater value
// wins: path depth, then negated basename length, then negated create time
// (spec §4.6 "Scoring").
func (d *DedupEngine) score(f dedupFileInfo) [3]int64 {
	depth := int64(strings.Count(f.relPath, "/"))
	basenameLen := int64(len(filepath.Base(f.relPath)))

	var createTime int64

	if rec, ok := d.store.GetFileInfo(f.relPath); ok {
		if rec.CreateTime != 0 {
			createTime = -rec.CreateTime
		} else if rec.CloudMtime != 0 {
			createTime = -rec.CloudMtime
		} else {
			createTime = -rec.LocalMtime
		}
	}

	// Greater depth wins, shorter basename wins (so negate length),
	// earlier create time wins (already negated above).
	return [3]int64{depth, -basenameLen, createTime}
}

// scoreGreater reports whether a outranks b under lexicographic comparison
// of the (depth, -basenameLen, -createTime) tuple (spec §4.6 "Scoring").
func scoreGreater(a, b [3]int64) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}

	return false
}

// deleteDuplicate removes the local file, deletes the cloud node if one is
// recorded, updates metadata, and garbage-collects empty parent
// directories upward (spec §4.6 "Execution").
func (d *DedupEngine) deleteDuplicate(ctx context.Context, rel string) error {
	absPath := filepath.Join(d.syncRoot, filepath.FromSlash(rel))

	rec, hasRec := d.store.GetFileInfo(rel)

	if err := os.Remove(longPathSafe(absPath)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", absPath, err)
	}

	if hasRec && rec.FileID != "" && d.client != nil {
		if err := d.client.DeleteFile(ctx, rec.FileID); err != nil {
			d.logger.Warn("dedup: cloud delete failed", "path", rel, "error", err)
		}
	}

	d.store.RemoveFile(rel)

	d.gcEmptyParents(filepath.Dir(absPath))

	return nil
}

// gcEmptyParents removes empty directories upward from dir to the sync
// root, stopping at the first non-empty one.
func (d *DedupEngine) gcEmptyParents(dir string) {
	root := filepath.Clean(d.syncRoot)

	for {
		dir = filepath.Clean(dir)
		if dir == root || len(dir) <= len(root) {
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}

		if err := os.Remove(dir); err != nil {
			return
		}

		dir = filepath.Dir(dir)
	}
}

// isAsset reports whether rel's extension is in the fixed asset set.
func isAsset(rel string) bool {
	return assetExtensions[strings.ToLower(filepath.Ext(rel))]
}

// extractReferences parses body for `![...](...)` and `src="..."` forms,
// ignoring absolute URLs and data URIs, and resolves relative references
// against baseDir (spec §4.6 "referenced" set).
func extractReferences(body, baseDir string) []string {
	var out []string

	for _, m := range referencePattern.FindAllStringSubmatch(body, -1) {
		ref := m[1]
		if ref == "" {
			ref = m[2]
		}

		ref = strings.TrimSpace(ref)
		if ref == "" || isExternalRef(ref) {
			continue
		}

		resolved := normalizeRelPath(filepath.ToSlash(filepath.Join(baseDir, ref)))
		out = append(out, resolved)
	}

	return out
}

// isExternalRef reports whether ref uses a scheme (http://, data:, etc.)
// rather than a plain relative filesystem path.
func isExternalRef(ref string) bool {
	if strings.HasPrefix(ref, "/") {
		return true
	}

	if idx := strings.Index(ref, "://"); idx >= 0 && idx < 10 {
		return true
	}

	return strings.HasPrefix(ref, "data:")
}
