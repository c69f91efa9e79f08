package app

import (
	"net/url"
	"strings"

	"github.com/yourusername/media-grab-go/internal/domain"
)

// DownloaderFactory orders the available backends by how well they
// handle a given host. Instagram goes to cobalt first since yt-dlp
// extraction there is flaky without authentication; everything else
// tries yt-dlp first.
type DownloaderFactory struct {
	ytdlp  domain.Downloader
	cobalt domain.Downloader
}

// NewDownloaderFactory creates a backend factory. cobalt may be nil
// when no instance is configured; it is then left out of every chain.
func NewDownloaderFactory(ytdlp, cobalt domain.Downloader) *DownloaderFactory {
	return &DownloaderFactory{ytdlp: ytdlp, cobalt: cobalt}
}

// CreateDownloaders implements domain.DownloaderFactory.
func (f *DownloaderFactory) CreateDownloaders(uri *url.URL) []domain.Downloader {
	if strings.Contains(uri.Host, "instagram") {
		return compact(f.cobalt, f.ytdlp)
	}
	return compact(f.ytdlp, f.cobalt)
}

func compact(downloaders ...domain.Downloader) []domain.Downloader {
	out := make([]domain.Downloader, 0, len(downloaders))
	for _, d := range downloaders {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}
