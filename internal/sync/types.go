// Package sync implements the bidirectional reconciliation engine between a
// local tree of Markdown documents and a remote cloud-notes service: a
// persistent metadata store, local and cloud scanners, a pure decision
// function, a downloader and uploader, a concurrent orchestrator, a
// content-hash dedup engine, and a debounced filesystem watcher.
package sync

import "github.com/kallio/notesync/internal/cloudapi"

// Domain mirrors cloudapi.Domain for convenience inside this package.
type Domain = cloudapi.Domain

const (
	DomainNote     = cloudapi.DomainNote
	DomainMarkdown = cloudapi.DomainMarkdown
)

// FileRecord is one entry of the metadata store's `files` map, keyed by
// normalized relative path.
type FileRecord struct {
	FileID      string `json:"file_id"`
	CloudMtime  int64  `json:"cloud_mtime"`
	LocalMtime  int64  `json:"local_mtime"`
	ParentID    string `json:"parent_id,omitempty"`
	Domain      Domain `json:"domain,omitempty"`
	ContentHash string `json:"content_hash,omitempty"`
	CreateTime  int64  `json:"create_time,omitempty"`
}

// DirRecord is one entry of the metadata store's `directories` map.
type DirRecord struct {
	DirID    string `json:"dir_id"`
	ParentID string `json:"parent_id,omitempty"`
}

// Action is the tagged variant a sync item is labelled with by the decision
// function (spec §4.3, §9 "Polymorphism over action kinds").
type Action int

const (
	ActionSkip Action = iota
	ActionUpload
	ActionDownload
	ActionConflict
)

func (a Action) String() string {
	switch a {
	case ActionSkip:
		return "skip"
	case ActionUpload:
		return "upload"
	case ActionDownload:
		return "download"
	case ActionConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Direction selects which labelled actions a pass actually executes
// (spec §4.5 step 5).
type Direction int

const (
	DirectionBoth Direction = iota
	DirectionPush
	DirectionPull
)

// SyncItem is the transient, per-pass join of local/cloud/metadata state for
// one relative path (spec §3 "Sync item").
type SyncItem struct {
	RelPath       string
	LocalPath     string
	IsDir         bool
	LocalExists   bool
	CloudExists   bool
	CloudID       string
	CloudParentID string
	CloudName     string
	LocalMtime    int64
	CloudMtime    int64
	CloudCTime    int64
	Domain        Domain
	Action        Action
}

// depth returns the number of path separators, used to order directory
// creation shallowest-first.
func (s SyncItem) depth() int {
	n := 0
	for _, c := range s.RelPath {
		if c == '/' {
			n++
		}
	}

	return n
}

// SyncReport carries the user-visible counters for one pass (spec §7, §8
// end-to-end scenarios).
type SyncReport struct {
	Mode         Direction
	DryRun       bool
	Downloaded   int
	Uploaded     int
	Skipped      int
	Conflicts    int
	Errors       int
	DedupGroups  int
	DedupDelete  int
	ChangedPaths []string
}
