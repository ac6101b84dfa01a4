// Package cloudapi defines the abstract contract between the sync core and
// the remote cloud-notes service. The core never parses wire-level bytes —
// it only consumes the typed results declared here. A concrete HTTP
// implementation is an external collaborator and is intentionally absent
// from this package.
package cloudapi

import "context"

// Domain identifies a document's native format on the cloud side.
type Domain int

const (
	// DomainNote is the cloud service's proprietary note format.
	DomainNote Domain = 0
	// DomainMarkdown is plain Markdown.
	DomainMarkdown Domain = 1
)

// Entry describes one node (file or directory) returned by a directory
// listing. Timestamps are integer seconds since epoch, matching the
// metadata store's resolution.
type Entry struct {
	ID             string
	Name           string
	IsDir          bool
	ModifyTimeSecs int64
	CreateTimeSecs int64
	Domain         Domain
	ParentID       string
}

// ListPage is one page of a directory listing.
type ListPage struct {
	Entries []Entry
	Count   int
}

// PushResult is returned by a successful push_file call.
type PushResult struct {
	ModifyTimeSecs int64
}

// RootInfo describes the cloud tree's root directory.
type RootInfo struct {
	ID string
}

// Client is the abstract cloud client contract consumed by the sync core
// (spec §6). Every method may block on network I/O; callers are expected to
// run it from a bounded worker pool and to pass a context with a deadline.
type Client interface {
	// GetRootDirInfo resolves the cloud root directory id.
	GetRootDirInfo(ctx context.Context) (RootInfo, error)

	// ListDir returns one page of a directory's children, starting at offset.
	// Callers paginate by increasing offset until the returned page is
	// shorter than pageSize.
	ListDir(ctx context.Context, id string, offset, pageSize int) (ListPage, error)

	// GetFile fetches the full byte content of a file.
	GetFile(ctx context.Context, id string) ([]byte, error)

	// PushFile creates or updates a file. isCreate distinguishes a brand-new
	// node (id is a client-chosen identifier not yet known to the cloud)
	// from an update to an existing one.
	PushFile(ctx context.Context, id, parentID, name string, domain Domain, body []byte, isCreate bool, createTimeSecs, modifyTimeSecs int64) (PushResult, error)

	// DeleteFile removes a file by id. A not-found id is treated as success
	// by callers, not by this method.
	DeleteFile(ctx context.Context, id string) error

	// CreateDir creates a directory under parentID. If the cloud reports a
	// duplicate-name conflict, the implementation must return a
	// *DuplicateNameError (which wraps ErrDuplicateName) carrying the
	// existing id in ExistingID, so callers can treat CreateDir as idempotent.
	CreateDir(ctx context.Context, parentID, name string) (id string, err error)
}
