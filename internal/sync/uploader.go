package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kallio/notesync/internal/cloudapi"
	"github.com/kallio/notesync/internal/convert"
)

// Uploader creates cloud parent directories on demand and pushes file
// bodies, recording the cloud-returned mtime (spec §4.4).
type Uploader struct {
	client    cloudapi.Client
	converter convert.Markdown2NoteConverter
	store     *MetadataStore
	logger    *slog.Logger

	mu      sync.Mutex
	dirIDs  map[string]string // rel path -> cloud dir id, cache for the run
	rootID  string
	hasRoot bool
}

// NewUploader creates an Uploader bound to store for directory-id caching.
// converter may be nil; it is only consulted for domain-0 (proprietary
// note) uploads, which this core never originates on its own (spec §4.4).
func NewUploader(client cloudapi.Client, converter convert.Markdown2NoteConverter, store *MetadataStore, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Uploader{
		client:    client,
		converter: converter,
		store:     store,
		logger:    logger,
		dirIDs:    make(map[string]string),
	}
}

// EnsureRootDir resolves and caches the cloud root directory id for the run.
func (u *Uploader) EnsureRootDir(ctx context.Context) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.hasRoot {
		return u.rootID, nil
	}

	info, err := u.client.GetRootDirInfo(ctx)
	if err != nil {
		return "", fmt.Errorf("resolving cloud root: %w", err)
	}

	u.rootID = info.ID
	u.hasRoot = true
	u.dirIDs[""] = info.ID

	return info.ID, nil
}

// EnsureParentDir recursively creates any missing cloud directories for
// relPath's parent chain and returns the immediate parent's cloud id
// (spec §4.4 ensure_parent_dir).
func (u *Uploader) EnsureParentDir(ctx context.Context, relPath string) (string, error) {
	parentRel := parentDir(relPath)

	return u.EnsureCloudDir(ctx, parentRel)
}

// EnsureCloudDir returns the cloud directory id for relDir, creating it (and
// any missing ancestors) on demand. The directory map doubles as an
// in-memory cache; the metadata store's directory records back it across
// runs (spec §4.4 ensure_cloud_dir).
func (u *Uploader) EnsureCloudDir(ctx context.Context, relDir string) (string, error) {
	if relDir == "" {
		return u.EnsureRootDir(ctx)
	}

	u.mu.Lock()
	if id, ok := u.dirIDs[relDir]; ok {
		u.mu.Unlock()

		return id, nil
	}
	u.mu.Unlock()

	if rec, ok := u.store.GetDirInfo(relDir); ok && rec.DirID != "" {
		u.mu.Lock()
		u.dirIDs[relDir] = rec.DirID
		u.mu.Unlock()

		return rec.DirID, nil
	}

	parentRel := parentDir(relDir)

	parentID, err := u.EnsureCloudDir(ctx, parentRel)
	if err != nil {
		return "", err
	}

	name := filepath.Base(relDir)

	id, err := u.client.CreateDir(ctx, parentID, name)
	if err != nil {
		var dup *cloudapi.DuplicateNameError
		if errors.As(err, &dup) {
			id = dup.ExistingID
		} else {
			return "", fmt.Errorf("creating cloud directory %s: %w", relDir, err)
		}
	}

	u.store.SetDirInfo(relDir, id, parentID)

	u.mu.Lock()
	u.dirIDs[relDir] = id
	u.mu.Unlock()

	return id, nil
}

// parentDir returns the normalized relative parent of relPath, or "" at the
// root.
func parentDir(relPath string) string {
	idx := strings.LastIndex(relPath, "/")
	if idx < 0 {
		return ""
	}

	return relPath[:idx]
}

// UploadResult carries the outcome of a single upload for the orchestrator
// to record in metadata.
type UploadResult struct {
	CloudID string
	ModTime int64
}

// Upload reads localAbsPath, picks a stable cloud id (existing fileID for
// updates, a fresh one for creates), dispatches the push, and returns the
// cloud-reported mtime. Files with no prior metadata and a non-".md"
// extension are still uploaded as Markdown (domain = 1); proprietary-note
// uploads (domain = 0) are routed through the Markdown->note-JSON converter
// first (spec §4.4 upload_file).
func (u *Uploader) Upload(ctx context.Context, localAbsPath, relPath, existingFileID string, parentID string, domain Domain) (UploadResult, error) {
	raw, err := os.ReadFile(localAbsPath)
	if err != nil {
		return UploadResult{}, fmt.Errorf("reading %s for upload: %w", localAbsPath, err)
	}

	fileID := existingFileID
	isCreate := fileID == ""
	if isCreate {
		fileID = NewLocalFileID()
	}

	body := raw
	if domain == DomainNote {
		body, err = u.toNoteJSON(raw)
		if err != nil {
			return UploadResult{}, err
		}
	}

	info, statErr := os.Stat(localAbsPath)
	if statErr != nil {
		return UploadResult{}, fmt.Errorf("stat %s for upload: %w", localAbsPath, statErr)
	}

	name := filepath.Base(relPath)

	result, err := u.client.PushFile(ctx, fileID, parentID, name, domain, body, isCreate, 0, info.ModTime().Unix())
	if err != nil {
		return UploadResult{}, fmt.Errorf("pushing %s: %w", relPath, err)
	}

	return UploadResult{CloudID: fileID, ModTime: result.ModifyTimeSecs}, nil
}

func (u *Uploader) toNoteJSON(raw []byte) ([]byte, error) {
	if u.converter == nil {
		return nil, fmt.Errorf("uploading proprietary-format note: no markdown-to-note converter configured")
	}

	noteJSON, err := u.converter.ConvertMarkdownToNoteJSON(string(raw))
	if err != nil {
		return nil, fmt.Errorf("converting markdown to note json: %w", err)
	}

	return []byte(noteJSON), nil
}

// touchLocalMtime sets a file's access and modification times to the given
// Unix seconds value, the same os.Chtimes restore the downloader performs.
// The orchestrator does not call it after an upload; it records the file's
// on-disk mtime as local_mtime instead.
func touchLocalMtime(absPath string, seconds int64) error {
	t := time.Unix(seconds, 0)

	return os.Chtimes(absPath, t, t)
}
