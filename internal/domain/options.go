package domain

// DownloadOptions are the caller-supplied constraints for one request.
// Construct a fresh value per request; the defaults are deliberately
// small, callers are expected to set MaxFilesize explicitly.
type DownloadOptions struct {
	// AudioOnly requests an audio-only pick.
	AudioOnly bool

	// MaxFilesize is the byte budget for a single acquired file.
	MaxFilesize int64

	// MaxDownloads caps how many items are processed from one URL.
	MaxDownloads int64
}

// DefaultDownloadOptions returns options with the built-in defaults
// (1 MiB budget, up to 10 items).
func DefaultDownloadOptions() DownloadOptions {
	return DownloadOptions{
		MaxFilesize:  1 << 20,
		MaxDownloads: 10,
	}
}
