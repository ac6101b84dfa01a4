package sync

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kallio/notesync/internal/cloudapi"
)

// cloudScanPageSize is the fixed page size used when paginating a
// directory listing (spec §4.2).
const cloudScanPageSize = 200

// cloudScanPoolSize bounds the number of directories expanded concurrently
// within one BFS level (spec §5 "cloud directory scan: 8").
const cloudScanPoolSize = 8

// proprietaryNoteSuffix is the cloud-side filename suffix rewritten to
// ".md" in scan output so joins with the local scanner align (spec §4.2).
const proprietaryNoteSuffix = ".note"

// cloudEntry is one item produced by a cloud scan.
type cloudEntry struct {
	RelPath    string
	CloudID    string
	ParentID   string
	CloudName  string
	IsDir      bool
	ModTime    int64
	CreateTime int64
	Domain     Domain
}

// ScanCloud performs a breadth-first, paginated, concurrency-bounded walk of
// the cloud tree rooted at rootID (spec §4.2). Each level's directories are
// expanded in parallel by a worker pool of cloudScanPoolSize; the loop exits
// when a level is empty.
func ScanCloud(ctx context.Context, client cloudapi.Client, rootID string, logger *slog.Logger) (map[string]cloudEntry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	out := make(map[string]cloudEntry)

	type frontierItem struct {
		id      string
		relPath string
	}

	level := []frontierItem{{id: rootID, relPath: ""}}

	var mu sync.Mutex

	for len(level) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(cloudScanPoolSize)

		var nextLevel []frontierItem

		for _, dir := range level {
			dir := dir

			g.Go(func() error {
				entries, err := listDirAll(gctx, client, dir.id)
				if err != nil {
					return fmt.Errorf("listing cloud directory %q: %w", dir.id, err)
				}

				mu.Lock()
				defer mu.Unlock()

				for _, e := range entries {
					relPath := joinCloudPath(dir.relPath, cloudOutputName(e))

					out[relPath] = cloudEntry{
						RelPath:    relPath,
						CloudID:    e.ID,
						ParentID:   dir.id,
						CloudName:  e.Name,
						IsDir:      e.IsDir,
						ModTime:    e.ModifyTimeSecs,
						CreateTime: e.CreateTimeSecs,
						Domain:     e.Domain,
					}

					if e.IsDir {
						nextLevel = append(nextLevel, frontierItem{id: e.ID, relPath: relPath})
					}
				}

				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}

		level = nextLevel
	}

	return out, nil
}

// listDirAll paginates through a single directory's children until a short
// page signals the end.
func listDirAll(ctx context.Context, client cloudapi.Client, id string) ([]cloudapi.Entry, error) {
	var all []cloudapi.Entry

	offset := 0
	for {
		page, err := client.ListDir(ctx, id, offset, cloudScanPageSize)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Entries...)

		if len(page.Entries) < cloudScanPageSize {
			break
		}

		offset += len(page.Entries)
		if offset >= page.Count {
			break
		}
	}

	return all, nil
}

// cloudOutputName rewrites a proprietary note's cloud-side suffix to ".md"
// so its output path aligns with the local scanner's join key (spec §4.2).
func cloudOutputName(e cloudapi.Entry) string {
	if e.IsDir {
		return e.Name
	}

	if strings.HasSuffix(e.Name, proprietaryNoteSuffix) {
		return strings.TrimSuffix(e.Name, proprietaryNoteSuffix) + ".md"
	}

	return e.Name
}

func joinCloudPath(parent, name string) string {
	if parent == "" {
		return name
	}

	return parent + "/" + name
}
