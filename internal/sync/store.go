package sync

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// storeFilePermissions matches the config package's convention for
// user-data files: owner read/write, group/other read-only.
const storeFilePermissions = 0o644

// storeDirPermissions matches the config package's convention for
// user-data directories.
const storeDirPermissions = 0o755

// metadataDocument is the on-disk JSON shape (spec §6 "Metadata file").
// Records decode into FileRecord and DirRecord, so any field those types do
// not declare is dropped on Load and is absent from the next Save; unknown
// fields are not preserved across a round-trip.
type metadataDocument struct {
	Files       map[string]FileRecord `json:"files"`
	Directories map[string]DirRecord  `json:"directories"`
}

// MetadataStore is the single-writer-appearance persistence layer described
// in spec §4.1: two maps plus a derived reverse hash index, guarded by one
// mutex because critical sections are short. Save is atomic (temp sibling +
// fsync + rename), mirroring the teacher's config.atomicWriteFile.
type MetadataStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger

	files       map[string]FileRecord
	directories map[string]DirRecord
	hashIndex   map[string]string // content_hash -> relative_path
}

// NewMetadataStore creates an empty, unloaded store bound to path. Call Load
// to populate it from disk (a missing file yields an empty store, not an
// error); the commands call Load once, right after creating the store.
func NewMetadataStore(path string, logger *slog.Logger) *MetadataStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &MetadataStore{
		path:        path,
		logger:      logger,
		files:       make(map[string]FileRecord),
		directories: make(map[string]DirRecord),
		hashIndex:   make(map[string]string),
	}
}

// Load reads the metadata file from disk. A missing file yields an empty
// store with no error. Malformed content is logged as a warning and treated
// as an empty store, never a fatal error (spec §4.1, §7).
func (s *MetadataStore) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}

		return fmt.Errorf("reading metadata file %s: %w", s.path, err)
	}

	var doc metadataDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Warn("metadata file is malformed, starting from an empty store",
			"path", s.path, "error", err)

		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if doc.Files != nil {
		s.files = doc.Files
	}

	if doc.Directories != nil {
		s.directories = doc.Directories
	}

	s.rebuildHashIndexLocked()

	return nil
}

// rebuildHashIndexLocked derives the reverse hash index from the files map.
// Must be called with s.mu held.
func (s *MetadataStore) rebuildHashIndexLocked() {
	s.hashIndex = make(map[string]string, len(s.files))

	for path, rec := range s.files {
		if rec.FileID == "" || rec.ContentHash == "" {
			continue
		}

		s.hashIndex[rec.ContentHash] = path
	}
}

// Save serializes the store to disk atomically: write to a temp sibling,
// fsync, chmod, then rename over the target path.
func (s *MetadataStore) Save() error {
	s.mu.Lock()
	doc := metadataDocument{
		Files:       copyFiles(s.files),
		Directories: copyDirs(s.directories),
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	return atomicWriteFile(s.path, data)
}

func copyFiles(m map[string]FileRecord) map[string]FileRecord {
	out := make(map[string]FileRecord, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

func copyDirs(m map[string]DirRecord) map[string]DirRecord {
	out := make(map[string]DirRecord, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

// atomicWriteFile writes data to path via a temp sibling file, fsync, chmod,
// then rename-over. Grounded on the teacher's internal/config/write.go
// atomicWriteFile.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, storeDirPermissions); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, ".notesync-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tempPath := f.Name()

	succeeded := false
	defer func() {
		if !succeeded {
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		f.Close()

		return fmt.Errorf("writing temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()

		return fmt.Errorf("syncing temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tempPath, storeFilePermissions); err != nil {
		return fmt.Errorf("setting file permissions: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}

	succeeded = true

	return nil
}

// GetFileInfo returns the record for path and whether it exists.
func (s *MetadataStore) GetFileInfo(path string) (FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[path]

	return rec, ok
}

// SetFileInfo upserts the record at path. If contentHash is non-empty and
// fileID is non-empty, the reverse hash index is updated in the same
// critical section (spec §4.1, §5 "updated transactionally").
func (s *MetadataStore) SetFileInfo(path, fileID string, cloudMtime, localMtime int64, parentID string, domain Domain, contentHash string, createTime int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := FileRecord{
		FileID:      fileID,
		CloudMtime:  cloudMtime,
		LocalMtime:  localMtime,
		ParentID:    parentID,
		Domain:      domain,
		ContentHash: contentHash,
		CreateTime:  createTime,
	}

	s.files[path] = rec

	if contentHash != "" && fileID != "" {
		s.hashIndex[contentHash] = path
	}
}

// UpdateLocalMtime updates only the local_mtime field of an existing record.
// No-op if the record does not exist.
func (s *MetadataStore) UpdateLocalMtime(path string, mtime int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[path]
	if !ok {
		return
	}

	rec.LocalMtime = mtime
	s.files[path] = rec
}

// UpdateCloudMtime updates only the cloud_mtime field of an existing record.
// No-op if the record does not exist.
func (s *MetadataStore) UpdateCloudMtime(path string, mtime int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[path]
	if !ok {
		return
	}

	rec.CloudMtime = mtime
	s.files[path] = rec
}

// UpdateContentHash updates the content_hash field and maintains the
// reverse index transitively: evicts the old hash pointer (re-pointing it to
// another path sharing the old hash, if one exists), then inserts the new
// pointer (spec §4.1).
func (s *MetadataStore) UpdateContentHash(path, hash string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[path]
	if !ok {
		return
	}

	oldHash := rec.ContentHash
	rec.ContentHash = hash
	s.files[path] = rec

	if oldHash != "" && s.hashIndex[oldHash] == path {
		delete(s.hashIndex, oldHash)

		if altPath, found := s.findOtherPathWithHashLocked(oldHash, path); found {
			s.hashIndex[oldHash] = altPath
		}
	}

	if hash != "" && rec.FileID != "" {
		s.hashIndex[hash] = path
	}
}

// findOtherPathWithHashLocked scans for a path other than exclude whose
// record carries the given hash and a non-empty file id. Must be called
// with s.mu held.
func (s *MetadataStore) findOtherPathWithHashLocked(hash, exclude string) (string, bool) {
	for p, rec := range s.files {
		if p == exclude {
			continue
		}

		if rec.ContentHash == hash && rec.FileID != "" {
			return p, true
		}
	}

	return "", false
}

// RemoveFile evicts the record at path. If the reverse index pointed here,
// it is re-scanned for another path sharing the same hash, or dropped
// entirely if none is found.
func (s *MetadataStore) RemoveFile(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[path]
	if !ok {
		return
	}

	delete(s.files, path)

	if rec.ContentHash != "" && s.hashIndex[rec.ContentHash] == path {
		delete(s.hashIndex, rec.ContentHash)

		if altPath, found := s.findOtherPathWithHashLocked(rec.ContentHash, path); found {
			s.hashIndex[rec.ContentHash] = altPath
		}
	}
}

// FindByFileID performs a linear reverse lookup for the path whose record
// carries the given cloud file id. Acceptable per spec §4.1 ("small n").
func (s *MetadataStore) FindByFileID(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for p, rec := range s.files {
		if rec.FileID == id {
			return p, true
		}
	}

	return "", false
}

// FindByDirID performs a linear reverse lookup for the path whose directory
// record carries the given cloud directory id.
func (s *MetadataStore) FindByDirID(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for p, rec := range s.directories {
		if rec.DirID == id {
			return p, true
		}
	}

	return "", false
}

// FindCloudFileByHash looks up a path already holding the given content hash
// with a non-empty cloud id, excluding excludePath. The index gives O(1)
// lookup; on a validation failure (stale pointer) it performs a linear
// sweep, self-healing the index on hit and evicting it on miss.
func (s *MetadataStore) FindCloudFileByHash(hash, excludePath string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.hashIndex[hash]; ok && p != excludePath {
		if rec, exists := s.files[p]; exists && rec.ContentHash == hash && rec.FileID != "" {
			return p, true
		}

		delete(s.hashIndex, hash)
	}

	for p, rec := range s.files {
		if p == excludePath {
			continue
		}

		if rec.ContentHash == hash && rec.FileID != "" {
			s.hashIndex[hash] = p

			return p, true
		}
	}

	return "", false
}

// ComputeContentHash reads the file at the given absolute path and returns
// its normalized MD5 digest, or false if the file could not be read.
func (s *MetadataStore) ComputeContentHash(absPath string) (string, bool) {
	hash, err := computeContentHash(absPath)
	if err != nil {
		s.logger.Warn("could not compute content hash", "path", absPath, "error", err)

		return "", false
	}

	return hash, true
}

// SetDirInfo upserts a directory record.
func (s *MetadataStore) SetDirInfo(path, dirID, parentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.directories[path] = DirRecord{DirID: dirID, ParentID: parentID}
}

// GetDirInfo returns the directory record for path, if any.
func (s *MetadataStore) GetDirInfo(path string) (DirRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.directories[path]

	return rec, ok
}

// AllFiles returns a snapshot copy of the files map, for tests and the
// dedup engine's index construction.
func (s *MetadataStore) AllFiles() map[string]FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyFiles(s.files)
}

// AllDirs returns a snapshot copy of the directories map.
func (s *MetadataStore) AllDirs() map[string]DirRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return copyDirs(s.directories)
}

// NewLocalFileID mints a fresh client-chosen identifier for a file that has
// no cloud id yet (spec §4.4 upload_file "fresh identifier" for creates).
func NewLocalFileID() string {
	return uuid.NewString()
}
