package domain

import (
	"context"
	"io"
	"net/url"
)

// Downloader is one concrete downloader backend (local-extractor-based
// or remote-API-based). Implementations return the acquired media items
// for a source URL, or an error when the whole call failed.
type Downloader interface {
	// Name identifies the backend for logging and error messages.
	Name() string

	// Download acquires media for the given source URL. Ownership of
	// the returned streams transfers to the caller.
	Download(ctx context.Context, uri *url.URL, options DownloadOptions) ([]*DownloadedMedia, error)
}

// DownloaderFactory returns the ordered list of backends to try for a
// source URL, enabling runtime fallback.
type DownloaderFactory interface {
	CreateDownloaders(uri *url.URL) []Downloader
}

// Uploader is the external object-storage client used when an acquired
// file is too large to attach directly. Implemented by platform glue
// outside this module.
type Uploader interface {
	UploadFile(ctx context.Context, r io.Reader, size int64, filename, contentType string) (*url.URL, error)
}
