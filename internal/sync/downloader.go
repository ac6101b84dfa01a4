package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kallio/notesync/internal/cloudapi"
	"github.com/kallio/notesync/internal/convert"
)

// partialSuffix names the temporary file a download is written to before
// the atomic rename, mirroring the teacher's downloadToPartial convention.
const partialSuffix = ".partial"

// downloadPermissions is the permission mode for newly written Markdown
// files.
const downloadPermissions = 0o644

// Downloader fetches cloud file bytes and materializes them on disk as
// Markdown (spec §4.4). It owns no metadata writes — the orchestrator does.
type Downloader struct {
	client      cloudapi.Client
	converter   convert.Foreign2MarkdownConverter
	urlRewriter convert.URLRewriter
	logger      *slog.Logger
}

// NewDownloader creates a Downloader. converter and urlRewriter may both be
// nil; a missing converter falls back to raw bytes (spec §4.4, §7 "demoted
// to a warning"), and a missing urlRewriter simply skips the post-download
// embedded-reference rewrite — both are optional external collaborators.
func NewDownloader(client cloudapi.Client, converter convert.Foreign2MarkdownConverter, urlRewriter convert.URLRewriter, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}

	return &Downloader{client: client, converter: converter, urlRewriter: urlRewriter, logger: logger}
}

// DownloadResult carries the outcome of a single download for the
// orchestrator to record in metadata.
type DownloadResult struct {
	ModTime int64
}

// Download fetches cloudID's bytes and writes them to destAbsPath, setting
// the file's mtime to cloudMtimeSecs. Proprietary formats are converted to
// Markdown when possible; conversion failure is non-fatal and the raw bytes
// are preserved instead.
func (d *Downloader) Download(ctx context.Context, cloudID, destAbsPath string, cloudMtimeSecs int64) (DownloadResult, error) {
	raw, err := d.client.GetFile(ctx, cloudID)
	if err != nil {
		return DownloadResult{}, fmt.Errorf("fetching file %s: %w", cloudID, err)
	}

	body := d.toMarkdown(raw)

	if err := d.writeAtomic(destAbsPath, body); err != nil {
		return DownloadResult{}, err
	}

	if d.urlRewriter != nil {
		if err := d.urlRewriter.RewriteEmbeddedURLs(destAbsPath); err != nil {
			d.logger.Warn("rewriting embedded references failed, leaving as downloaded", "path", destAbsPath, "error", err)
		}
	}

	modTime := time.Unix(cloudMtimeSecs, 0)
	if err := os.Chtimes(destAbsPath, modTime, modTime); err != nil {
		return DownloadResult{}, fmt.Errorf("setting mtime on %s: %w", destAbsPath, err)
	}

	return DownloadResult{ModTime: cloudMtimeSecs}, nil
}

// toMarkdown converts raw bytes to Markdown when the payload is a
// recognized proprietary format and a converter is configured. Any failure
// — unrecognized format, nil converter, or a conversion error — falls back
// to the raw bytes unchanged (spec §4.4, §7).
func (d *Downloader) toMarkdown(raw []byte) []byte {
	format := convert.DetectFormat(raw)
	if format == convert.FormatMarkdown {
		return raw
	}

	if d.converter == nil {
		d.logger.Warn("no converter configured for foreign format, keeping raw bytes")

		return raw
	}

	markdown, err := d.converter.ConvertForeignToMarkdown(raw)
	if err != nil {
		d.logger.Warn("conversion to markdown failed, keeping raw bytes", "error", err)

		return raw
	}

	return []byte(markdown)
}

// writeAtomic writes body to a ".partial" temp file in the same directory
// as destAbsPath, then renames it into place, mirroring the teacher's
// downloadToPartial pattern.
func (d *Downloader) writeAtomic(destAbsPath string, body []byte) error {
	dir := filepath.Dir(destAbsPath)
	if err := os.MkdirAll(dir, storeDirPermissions); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	partialPath := destAbsPath + partialSuffix

	if err := os.WriteFile(partialPath, body, downloadPermissions); err != nil {
		return fmt.Errorf("writing partial file %s: %w", partialPath, err)
	}

	if err := os.Rename(partialPath, destAbsPath); err != nil {
		os.Remove(partialPath)

		return fmt.Errorf("renaming %s to %s: %w", partialPath, destAbsPath, err)
	}

	return nil
}
