package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kallio/notesync/internal/cloudapi"
)

// Default pool sizes and save-batch size (spec §5, §4.1).
const (
	defaultDownloadPoolSize = 10
	defaultUploadPoolSize   = 5
	defaultSaveBatchSize    = 50
)

// AutoCommitSink is the optional post-sync packaging collaborator
// (spec §6). Absence is a valid configuration.
type AutoCommitSink interface {
	Commit(syncRoot string, changedAbsPaths []string, report SyncReport) error
}

// RunOpts configures one orchestrator pass.
type RunOpts struct {
	Direction Direction
	DryRun    bool
}

// Orchestrator composes the scanners, decision function, downloader,
// uploader, and dedup engine into one reconciliation pass (spec §4.5). It
// is the only component that mutates the metadata store and emits
// user-visible log lines.
type Orchestrator struct {
	syncRoot string
	store    *MetadataStore
	client   cloudapi.Client
	uploader *Uploader

	downloadPoolSize int
	uploadPoolSize   int
	saveBatchSize    int

	autoCommit AutoCommitSink
	logger     *slog.Logger

	downloader *Downloader
}

// NewOrchestrator creates an Orchestrator. autoCommit may be nil.
func NewOrchestrator(syncRoot string, store *MetadataStore, client cloudapi.Client, downloader *Downloader, uploader *Uploader, autoCommit AutoCommitSink, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Orchestrator{
		syncRoot:         syncRoot,
		store:            store,
		client:           client,
		downloader:       downloader,
		uploader:         uploader,
		downloadPoolSize: defaultDownloadPoolSize,
		uploadPoolSize:   defaultUploadPoolSize,
		saveBatchSize:    defaultSaveBatchSize,
		autoCommit:       autoCommit,
		logger:           logger,
	}
}

// SetPoolSizes overrides the default worker-pool sizes (config-driven, per
// SPEC_FULL §5).
func (o *Orchestrator) SetPoolSizes(downloads, uploads int) {
	if downloads > 0 {
		o.downloadPoolSize = downloads
	}

	if uploads > 0 {
		o.uploadPoolSize = uploads
	}
}

// Run executes one full reconciliation pass (spec §4.5 steps 1-8).
func (o *Orchestrator) Run(ctx context.Context, opts RunOpts) (SyncReport, error) {
	report := SyncReport{Mode: opts.Direction, DryRun: opts.DryRun}

	rootID, err := o.uploader.EnsureRootDir(ctx)
	if err != nil {
		return report, fmt.Errorf("resolving cloud root: %w", err)
	}

	local, cloud, err := o.scanBoth(ctx, rootID)
	if err != nil {
		return report, err
	}

	items := o.buildItems(local, cloud)

	for i := range items {
		items[i].Action = o.labelItem(items[i])
	}

	filtered := filterByDirection(items, opts.Direction)

	dirItems, fileItems := splitDirsFiles(filtered)

	sort.Slice(dirItems, func(i, j int) bool { return dirItems[i].depth() < dirItems[j].depth() })

	if !opts.DryRun {
		o.executeDirs(ctx, dirItems, &report)

		if err := o.executeFiles(ctx, fileItems, opts.Direction, &report); err != nil {
			return report, err
		}

		if err := o.store.Save(); err != nil {
			o.logger.Error("final metadata save failed", "error", err)
		}
	} else {
		for _, it := range fileItems {
			countDryRun(it.Action, &report)
		}
	}

	anyChange := report.Downloaded > 0 || report.Uploaded > 0

	if anyChange && !opts.DryRun {
		dedup := NewDedupEngine(o.syncRoot, o.store, o.client, o.logger)

		dedupReport, err := dedup.Run(ctx, false)
		if err != nil {
			o.logger.Error("dedup pass failed", "error", err)
		} else {
			report.DedupGroups += dedupReport.DedupGroups
			report.DedupDelete += dedupReport.DedupDelete
			report.ChangedPaths = append(report.ChangedPaths, dedupReport.ChangedPaths...)
		}
	}

	if o.autoCommit != nil && !opts.DryRun && len(report.ChangedPaths) > 0 {
		absPaths := make([]string, len(report.ChangedPaths))
		for i, p := range report.ChangedPaths {
			absPaths[i] = filepath.Join(o.syncRoot, p)
		}

		if err := o.autoCommit.Commit(o.syncRoot, absPaths, report); err != nil {
			o.logger.Warn("auto-commit sink failed", "error", err)
		}
	}

	return report, nil
}

// scanBoth launches the local and cloud scanners in parallel and awaits
// both (spec §4.5 step 2, §4.2, §5 "scanners running in parallel: 2").
func (o *Orchestrator) scanBoth(ctx context.Context, rootID string) (map[string]localEntry, map[string]cloudEntry, error) {
	var (
		local map[string]localEntry
		cloud map[string]cloudEntry
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		local, err = ScanLocal(o.syncRoot, o.logger)

		return err
	})

	g.Go(func() error {
		var err error
		cloud, err = ScanCloud(gctx, o.client, rootID, o.logger)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("scanning: %w", err)
	}

	return local, cloud, nil
}

// buildItems builds the union of local and cloud paths into SyncItems,
// supplying the last-known tuple from metadata (spec §4.5 step 3).
func (o *Orchestrator) buildItems(local map[string]localEntry, cloud map[string]cloudEntry) []SyncItem {
	paths := make(map[string]struct{}, len(local)+len(cloud))
	for p := range local {
		paths[p] = struct{}{}
	}

	for p := range cloud {
		paths[p] = struct{}{}
	}

	items := make([]SyncItem, 0, len(paths))

	for p := range paths {
		if isConflictBackupPath(p) {
			continue
		}

		l, lok := local[p]
		c, cok := cloud[p]

		item := SyncItem{
			RelPath:     p,
			LocalPath:   filepath.Join(o.syncRoot, filepath.FromSlash(p)),
			LocalExists: lok,
			CloudExists: cok,
		}

		if lok {
			item.IsDir = l.IsDir
			item.LocalMtime = l.ModTime
		}

		if cok {
			item.IsDir = c.IsDir
			item.CloudID = c.CloudID
			item.CloudParentID = c.ParentID
			item.CloudName = c.CloudName
			item.CloudMtime = c.ModTime
			item.CloudCTime = c.CreateTime
			item.Domain = c.Domain
		}

		items = append(items, item)
	}

	return items
}

// labelItem applies the decision function, consulting metadata for the
// last-known tuple (spec §4.5 step 4, §4.3).
func (o *Orchestrator) labelItem(item SyncItem) Action {
	rec, hasRec := o.store.GetFileInfo(item.RelPath)

	in := decisionInput{
		localExists: item.LocalExists,
		cloudExists: item.CloudExists,
		localMtime:  item.LocalMtime,
		cloudMtime:  item.CloudMtime,
	}

	if hasRec {
		localMeta := rec.LocalMtime
		cloudMeta := rec.CloudMtime
		in.metaLocal = &localMeta
		in.metaCloud = &cloudMeta
	}

	return decide(in)
}

// filterByDirection retains only the actions relevant to the requested
// sync direction (spec §4.5 step 5).
func filterByDirection(items []SyncItem, dir Direction) []SyncItem {
	out := make([]SyncItem, 0, len(items))

	for _, it := range items {
		switch dir {
		case DirectionPush:
			if it.Action == ActionUpload || it.Action == ActionSkip {
				out = append(out, it)
			} else if it.Action == ActionConflict {
				out = append(out, it)
			}
		case DirectionPull:
			if it.Action == ActionDownload || it.Action == ActionSkip {
				out = append(out, it)
			} else if it.Action == ActionConflict {
				out = append(out, it)
			}
		default: // DirectionBoth
			out = append(out, it)
		}
	}

	return out
}

func splitDirsFiles(items []SyncItem) (dirs, files []SyncItem) {
	for _, it := range items {
		if it.IsDir {
			dirs = append(dirs, it)
		} else {
			files = append(files, it)
		}
	}

	return dirs, files
}

func countDryRun(a Action, report *SyncReport) {
	switch a {
	case ActionUpload:
		report.Uploaded++
	case ActionDownload:
		report.Downloaded++
	case ActionSkip:
		report.Skipped++
	case ActionConflict:
		report.Conflicts++
	}
}

// executeDirs processes directory items serially, shallowest-first, so
// parents exist before children (spec §4.5 step 6, §5 ordering guarantees).
func (o *Orchestrator) executeDirs(ctx context.Context, dirs []SyncItem, report *SyncReport) {
	for _, d := range dirs {
		switch d.Action {
		case ActionUpload:
			if _, err := o.uploader.EnsureCloudDir(ctx, d.RelPath); err != nil {
				o.logger.Error("creating cloud directory failed", "path", d.RelPath, "error", err)
				report.Errors++

				continue
			}

			report.Uploaded++
		case ActionDownload:
			if err := ensureLocalDir(filepath.Join(o.syncRoot, filepath.FromSlash(d.RelPath))); err != nil {
				o.logger.Error("creating local directory failed", "path", d.RelPath, "error", err)
				report.Errors++

				continue
			}

			report.Downloaded++
		case ActionSkip:
			report.Skipped++
		case ActionConflict:
			// Directory-level conflicts have no meaningful backup; treat as skip.
			report.Skipped++
		}
	}
}

// executeFiles dispatches file items to bounded worker pools by operation
// class, applying the upload short-circuit and conflict-resolution policy
// (spec §4.5 steps 6-7, conflict resolution paragraph).
func (o *Orchestrator) executeFiles(ctx context.Context, files []SyncItem, direction Direction, report *SyncReport) error {
	var completed int

	var reportMu sync.Mutex

	saveEvery := func() {
		completed++
		if completed%o.saveBatchSize == 0 {
			if err := o.store.Save(); err != nil {
				o.logger.Error("batched metadata save failed", "error", err)
			}
		}
	}

	downloads := make([]SyncItem, 0, len(files))
	uploads := make([]SyncItem, 0, len(files))
	conflicts := make([]SyncItem, 0, len(files))

	for _, it := range files {
		switch it.Action {
		case ActionDownload:
			downloads = append(downloads, it)
		case ActionUpload:
			uploads = append(uploads, it)
		case ActionConflict:
			conflicts = append(conflicts, it)
		case ActionSkip:
			reportMu.Lock()
			report.Skipped++
			reportMu.Unlock()
		}
	}

	for _, it := range conflicts {
		o.resolveConflict(ctx, it, direction, report)
		saveEvery()
	}

	dlGroup, dlCtx := errgroup.WithContext(ctx)
	dlGroup.SetLimit(o.downloadPoolSize)

	for _, it := range downloads {
		it := it

		dlGroup.Go(func() error {
			if err := o.doDownload(dlCtx, it, report, &reportMu); err != nil {
				o.logger.Error("download failed", "path", it.RelPath, "error", err)
			}

			reportMu.Lock()
			saveEvery()
			reportMu.Unlock()

			return nil
		})
	}

	if err := dlGroup.Wait(); err != nil {
		return err
	}

	upGroup, upCtx := errgroup.WithContext(ctx)
	upGroup.SetLimit(o.uploadPoolSize)

	for _, it := range uploads {
		it := it

		upGroup.Go(func() error {
			if err := o.doUpload(upCtx, it, report, &reportMu); err != nil {
				o.logger.Error("upload failed", "path", it.RelPath, "error", err)
			}

			reportMu.Lock()
			saveEvery()
			reportMu.Unlock()

			return nil
		})
	}

	return upGroup.Wait()
}

// doDownload fetches and writes one file, recording metadata on success.
func (o *Orchestrator) doDownload(ctx context.Context, it SyncItem, report *SyncReport, mu *sync.Mutex) error {
	destAbs := longPathSafe(it.LocalPath)

	result, err := o.downloader.Download(ctx, it.CloudID, destAbs, it.CloudMtime)
	if err != nil {
		mu.Lock()
		report.Errors++
		mu.Unlock()

		return err
	}

	hash, _ := o.store.ComputeContentHash(it.LocalPath)

	o.store.SetFileInfo(it.RelPath, it.CloudID, result.ModTime, result.ModTime, it.CloudParentID, it.Domain, hash, it.CloudCTime)

	mu.Lock()
	report.Downloaded++
	report.ChangedPaths = append(report.ChangedPaths, it.RelPath)
	mu.Unlock()

	return nil
}

// doUpload performs the content-dedup short-circuit, then uploads if no
// match is found (spec §4.5 "Upload short-circuit").
func (o *Orchestrator) doUpload(ctx context.Context, it SyncItem, report *SyncReport, mu *sync.Mutex) error {
	hash, ok := o.store.ComputeContentHash(it.LocalPath)
	if ok {
		if _, found := o.store.FindCloudFileByHash(hash, it.RelPath); found {
			mu.Lock()
			report.Skipped++
			mu.Unlock()

			return nil
		}
	}

	parentID, err := o.uploader.EnsureParentDir(ctx, it.RelPath)
	if err != nil {
		mu.Lock()
		report.Errors++
		mu.Unlock()

		return err
	}

	rec, hasRec := o.store.GetFileInfo(it.RelPath)

	existingID := ""
	domain := DomainMarkdown

	if hasRec {
		existingID = rec.FileID
		domain = rec.Domain
	}

	result, err := o.uploader.Upload(ctx, it.LocalPath, it.RelPath, existingID, parentID, domain)
	if err != nil {
		mu.Lock()
		report.Errors++
		mu.Unlock()

		return err
	}

	if hash == "" {
		hash, _ = o.store.ComputeContentHash(it.LocalPath)
	}

	createTime := it.LocalMtime
	if hasRec && rec.CreateTime != 0 {
		createTime = rec.CreateTime
	}

	o.store.SetFileInfo(it.RelPath, result.CloudID, result.ModTime, it.LocalMtime, parentID, domain, hash, createTime)

	mu.Lock()
	report.Uploaded++
	report.ChangedPaths = append(report.ChangedPaths, it.RelPath)
	mu.Unlock()

	return nil
}

// resolveConflict applies the direction-dependent conflict policy
// (spec §4.5 "Conflict resolution"): PULL backs up then downloads; PUSH
// backs up (if present) then uploads; BOTH backs up then downloads,
// leaving the user to resolve manually.
func (o *Orchestrator) resolveConflict(ctx context.Context, it SyncItem, direction Direction, report *SyncReport) {
	report.Conflicts++

	switch direction {
	case DirectionPush:
		if it.LocalExists {
			backupConflict(it.LocalPath, o.logger)
		}

		if err := o.doUpload(ctx, it, report, &sync.Mutex{}); err != nil {
			o.logger.Error("conflict upload failed", "path", it.RelPath, "error", err)
		}
	default: // DirectionPull or DirectionBoth
		if it.LocalExists {
			backupConflict(it.LocalPath, o.logger)
		}

		if err := o.doDownload(ctx, it, report, &sync.Mutex{}); err != nil {
			o.logger.Error("conflict download failed", "path", it.RelPath, "error", err)
		}
	}
}

// ensureLocalDir creates a local directory (and parents) for a cloud-only
// directory item.
func ensureLocalDir(absPath string) error {
	return os.MkdirAll(longPathSafe(absPath), storeDirPermissions)
}

