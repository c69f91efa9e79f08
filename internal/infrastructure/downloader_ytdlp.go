package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/media-grab-go/internal/domain"
)

// YtdlpDownloader downloads media by shelling out to yt-dlp. It runs
// two phases per URL: a metadata pass that dumps one JSON object per
// playlist item, then one concurrent download per item using a format
// picked against the byte budget.
type YtdlpDownloader struct {
	binary  string
	tempDir string
	picker  *FormatPicker
	logger  *zap.Logger
}

// NewYtdlpDownloader creates a new yt-dlp backed downloader
func NewYtdlpDownloader(cfg domain.YtdlpConfig, logger *zap.Logger) *YtdlpDownloader {
	binary := cfg.Binary
	if binary == "" {
		binary = "yt-dlp"
	}
	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "media-grab-dl")
	}

	return &YtdlpDownloader{
		binary:  binary,
		tempDir: tempDir,
		picker:  NewFormatPicker(),
		logger:  logger,
	}
}

// Name implements domain.Downloader.
func (d *YtdlpDownloader) Name() string {
	return "yt-dlp"
}

// Download fetches all items behind the URL, up to options.MaxDownloads.
// Every returned media stream is backed by a temp file that is removed
// on Close. A format-pick failure for any single item fails the whole
// batch.
func (d *YtdlpDownloader) Download(ctx context.Context, uri *url.URL, options domain.DownloadOptions) ([]*domain.DownloadedMedia, error) {
	if err := os.MkdirAll(d.tempDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}

	proc, err := startYtdlp(ctx, d.binary, metadataArgs(uri, options), d.logger)
	if err != nil {
		return nil, err
	}

	// the metadata phase takes no input
	_ = proc.stdin.Close()

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		media       []*domain.DownloadedMedia
		downloadErr error
	)

	index := 0
	errDetail := ""
	var pickErr error

	for {
		line, readErr := proc.stderr.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		if line != "" {
			metadata := &domain.MediaMetadata{}
			if jsonErr := json.Unmarshal([]byte(line), metadata); jsonErr != nil {
				// a non-json line on stderr is likely an error message; keep
				// it (plus whatever follows) in case yt-dlp exits non-zero
				rest, _ := io.ReadAll(proc.stderr)
				errDetail = line + string(rest)
				break
			}

			index++
			picked := d.picker.PickFormat(metadata, options)
			if picked == nil {
				pickErr = &domain.DownloaderError{
					Message: fmt.Sprintf("failed to pick format for item #%d", index),
				}
				proc.kill()
				break
			}

			wg.Add(1)
			go func(num int, infoJSON string, metadata *domain.MediaMetadata, picked *PickedFormat) {
				defer wg.Done()

				item, err := d.downloadItem(ctx, uri, infoJSON, num, picked, metadata, options)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					if downloadErr == nil {
						downloadErr = err
					}
					return
				}
				media = append(media, item)
			}(index, line, metadata, picked)
		}

		if readErr != nil {
			break
		}
	}

	wg.Wait()
	exitCode, waitErr := proc.wait()

	cleanup := func() {
		for _, m := range media {
			_ = m.Close()
		}
	}

	switch {
	case waitErr != nil:
		cleanup()
		return nil, fmt.Errorf("waiting for yt-dlp: %w", waitErr)
	case pickErr != nil:
		cleanup()
		return nil, pickErr
	case exitCode != 0 && exitCode != ytdlpExitMaxDownloads:
		cleanup()
		return nil, &domain.DownloaderError{
			Message: fmt.Sprintf("yt-dlp exited with non-zero code (%d)", exitCode),
			Details: strings.TrimSpace(errDetail),
		}
	case downloadErr != nil:
		cleanup()
		return nil, downloadErr
	}

	sort.Slice(media, func(i, j int) bool { return media[i].Number < media[j].Number })

	return media, nil
}

// downloadItem downloads a single playlist item using the metadata
// JSON already dumped during the first phase.
func (d *YtdlpDownloader) downloadItem(ctx context.Context, uri *url.URL, infoJSON string, num int,
	picked *PickedFormat, metadata *domain.MediaMetadata, options domain.DownloadOptions) (*domain.DownloadedMedia, error) {
	template := filepath.Join(d.tempDir, strings.ReplaceAll(uuid.New().String(), "-", "")+"%(id)s.%(ext)s")

	proc, err := startYtdlp(ctx, d.binary, downloadArgs(uri, template, picked.FormatString, num), d.logger)
	if err != nil {
		return nil, err
	}

	if _, err := io.WriteString(proc.stdin, infoJSON); err != nil {
		proc.kill()
		_, _ = proc.wait()
		return nil, fmt.Errorf("writing info json to yt-dlp: %w", err)
	}
	_ = proc.stdin.Close()

	// --print after_move:filepath emits the final path as the only
	// stdout line; stderr carries diagnostics
	pathLine, _ := proc.stdout.ReadString('\n')
	errText, _ := io.ReadAll(proc.stderr)

	exitCode, waitErr := proc.wait()
	if waitErr != nil {
		return nil, fmt.Errorf("waiting for yt-dlp: %w", waitErr)
	}
	if exitCode != 0 && exitCode != ytdlpExitMaxDownloads {
		return nil, &domain.DownloaderError{
			Message: fmt.Sprintf("yt-dlp exited with non-zero code (%d)", exitCode),
			Details: strings.TrimSpace(string(errText)),
		}
	}

	path := strings.TrimSpace(pathLine)
	if path == "" {
		return nil, &domain.DownloaderError{Message: "yt-dlp didn't return the path to the downloaded file"}
	}

	file, size, err := openDeleteOnClose(path)
	if err != nil {
		return nil, fmt.Errorf("opening downloaded file: %w", err)
	}

	if size > options.MaxFilesize {
		_ = file.Close()
		return nil, &domain.SizeExceededError{Size: size, Limit: options.MaxFilesize}
	}

	fileSize := size

	return &domain.DownloadedMedia{
		Media:       file,
		FileSize:    &fileSize,
		Number:      num,
		Metadata:    metadata,
		VideoFormat: picked.VideoFormat,
		AudioFormat: picked.AudioFormat,
	}, nil
}

// deleteOnCloseFile removes its backing file from disk once closed, so
// consumed media leaves nothing behind in the temp dir.
type deleteOnCloseFile struct {
	*os.File
	path string
}

func (f *deleteOnCloseFile) Close() error {
	err := f.File.Close()
	if rmErr := os.Remove(f.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}

func openDeleteOnClose(path string) (io.ReadCloser, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return nil, 0, err
	}

	return &deleteOnCloseFile{File: file, path: path}, info.Size(), nil
}
