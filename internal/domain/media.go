package domain

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/google/uuid"
)

// DownloadedMedia is one acquired media item. Media is an open readable
// stream; ownership is single and transfers to whoever consumes the
// item, which must Close it (closing removes any backing temp file).
type DownloadedMedia struct {
	Media io.ReadCloser

	// FileSize is the measured or reported size in bytes, nil if unknown
	// until read.
	FileSize *int64

	// Number is the item's 1-based position within a multi-item source.
	Number int

	Metadata *MediaMetadata

	// Picked formats, for display purposes. Either may be nil.
	VideoFormat *FormatData
	AudioFormat *FormatData
}

// Close releases the underlying stream and any backing temp file.
func (m *DownloadedMedia) Close() error {
	if m.Media == nil {
		return nil
	}
	return m.Media.Close()
}

// Extension returns the effective file extension of the item, falling
// back to mp4. Audio-only opus is special-cased because some consuming
// platforms fail to embed audio-only webm.
func (m *DownloadedMedia) Extension() string {
	format := m.VideoFormat
	if format == nil {
		format = m.AudioFormat
	}

	ext := "mp4"
	if format != nil && format.Extension != nil {
		ext = *format.Extension
	}

	if m.VideoFormat == nil && m.AudioFormat != nil &&
		m.AudioFormat.AudioCodec != nil && *m.AudioFormat.AudioCodec == "opus" {
		ext = "opus"
	}

	return ext
}

// FileName returns a suggested filename: the item title, or a random id
// when the title is absent.
func (m *DownloadedMedia) FileName() string {
	name := ""
	if m.Metadata != nil && m.Metadata.Title != nil {
		name = *m.Metadata.Title
	}
	if name == "" {
		name = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return name + "." + m.Extension()
}

// DisplayResolution returns a human-readable resolution, or the audio
// bitrate for audio-only picks.
func (m *DownloadedMedia) DisplayResolution() string {
	if m.VideoFormat != nil {
		if m.VideoFormat.Resolution != nil {
			return *m.VideoFormat.Resolution
		}
		return "unknown resolution"
	}
	if m.AudioFormat != nil && m.AudioFormat.AudioBitrate != nil {
		return fmt.Sprintf("%.0fkbps", math.Ceil(*m.AudioFormat.AudioBitrate))
	}
	return "unknown bitrate"
}

// DisplayCodec returns a human-readable codec name for the picked
// video (or audio) stream.
func (m *DownloadedMedia) DisplayCodec() string {
	if m.VideoFormat != nil && m.VideoFormat.VideoCodec != nil {
		return *m.VideoFormat.VideoCodec
	}
	if m.AudioFormat != nil && m.AudioFormat.AudioCodec != nil {
		return *m.AudioFormat.AudioCodec
	}
	return "unknown codec"
}

// MediaErrorCode classifies a non-fatal per-backend failure.
type MediaErrorCode string

const (
	// ErrorCodeServiceUnavailable covers transient backend
	// unreachability (failed HTTP responses and the like).
	ErrorCodeServiceUnavailable MediaErrorCode = "service_unavailable"

	// ErrorCodeDownloaderError covers anticipated downloader failures
	// (non-zero exit codes, unexpected API responses).
	ErrorCodeDownloaderError MediaErrorCode = "downloader_error"
)

// MediaDownloadError is one structured error recorded on the aggregate
// result while iterating backends.
type MediaDownloadError struct {
	Code    MediaErrorCode `json:"code"`
	Message string         `json:"message"`
	Details string         `json:"details,omitempty"`
}

// MediaDownloadResult aggregates the media acquired for one source URL
// plus any non-fatal errors encountered along the way. Partial success
// is valid: a result may carry both media and errors.
type MediaDownloadResult struct {
	Media  []*DownloadedMedia
	Errors []MediaDownloadError
}

// IsSuccess reports whether at least one media item was acquired,
// independent of whether errors were also recorded.
func (r *MediaDownloadResult) IsSuccess() bool {
	return len(r.Media) > 0
}

// Close releases every media stream in the result.
func (r *MediaDownloadResult) Close() error {
	var firstErr error
	for _, m := range r.Media {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
