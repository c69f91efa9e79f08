package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/media-grab-go/internal/app"
	"github.com/yourusername/media-grab-go/internal/domain"
)

// MediaHandler handles media acquisition requests
type MediaHandler struct {
	service *app.MediaService
	repo    domain.DownloadRecordRepository
	config  *domain.Config
	logger  *zap.Logger
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(service *app.MediaService, repo domain.DownloadRecordRepository, config *domain.Config, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		service: service,
		repo:    repo,
		config:  config,
		logger:  logger,
	}
}

// DownloadRequest is the body of POST /api/v1/media
type DownloadRequest struct {
	URL          string `json:"url" binding:"required"`
	AudioOnly    bool   `json:"audio_only"`
	MaxFilesize  int64  `json:"max_filesize"`
	MaxDownloads int64  `json:"max_downloads"`
}

// MediaItemResponse describes one persisted media item
type MediaItemResponse struct {
	Number     int    `json:"number"`
	Title      string `json:"title,omitempty"`
	FileName   string `json:"file_name"`
	FilePath   string `json:"file_path"`
	FileSize   int64  `json:"file_size"`
	Resolution string `json:"resolution"`
	Codec      string `json:"codec"`
}

// DownloadResponse is the response of POST /api/v1/media. Errors may
// accompany media: a fallback success still reports what the earlier
// backends got wrong.
type DownloadResponse struct {
	Media  []MediaItemResponse         `json:"media"`
	Errors []domain.MediaDownloadError `json:"errors,omitempty"`
}

// DownloadMedia handles POST /api/v1/media
func (h *MediaHandler) DownloadMedia(c *gin.Context) {
	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	uri, err := url.Parse(strings.TrimSpace(req.URL))
	if err != nil || !uri.IsAbs() || (uri.Scheme != "http" && uri.Scheme != "https") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url must be an absolute http(s) URL"})
		return
	}

	options := domain.DownloadOptions{
		AudioOnly:    req.AudioOnly,
		MaxFilesize:  h.config.Download.MaxFilesize,
		MaxDownloads: h.config.Download.MaxDownloads,
	}
	if req.MaxFilesize > 0 {
		options.MaxFilesize = req.MaxFilesize
	}
	if req.MaxDownloads > 0 {
		options.MaxDownloads = req.MaxDownloads
	}

	ctx := c.Request.Context()
	if timeout := h.config.Download.RequestTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := h.service.ProcessMediaFromURL(ctx, uri, options)
	if err != nil {
		defer result.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": "download timed out"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer result.Close()

	if !result.IsSuccess() {
		c.JSON(http.StatusBadGateway, DownloadResponse{
			Media:  []MediaItemResponse{},
			Errors: result.Errors,
		})
		return
	}

	items, records, err := h.persistMedia(uri.String(), result.Media)
	if err != nil {
		h.logger.Error("failed to persist media", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist downloaded media"})
		return
	}

	if err := h.repo.Create(records...); err != nil {
		// losing a history row shouldn't fail a completed download
		h.logger.Warn("failed to record download history", zap.Error(err))
	}

	c.JSON(http.StatusOK, DownloadResponse{
		Media:  items,
		Errors: result.Errors,
	})
}

// persistMedia streams each media item into the output directory and
// builds the matching response entries and history records.
func (h *MediaHandler) persistMedia(sourceURL string, media []*domain.DownloadedMedia) ([]MediaItemResponse, []*domain.DownloadRecord, error) {
	outputDir := h.config.Download.OutputDir
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating output dir: %w", err)
	}

	items := make([]MediaItemResponse, 0, len(media))
	records := make([]*domain.DownloadRecord, 0, len(media))

	for _, m := range media {
		name := m.FileName()
		path := filepath.Join(outputDir, name)
		if _, err := os.Stat(path); err == nil {
			// same title downloaded before; don't clobber it
			path = filepath.Join(outputDir, strings.ReplaceAll(uuid.NewString(), "-", "")[:8]+"_"+name)
		}

		size, err := writeStream(path, m.Media)
		if err != nil {
			return nil, nil, fmt.Errorf("writing %s: %w", path, err)
		}

		title := ""
		extractor := ""
		if m.Metadata != nil {
			if m.Metadata.Title != nil {
				title = *m.Metadata.Title
			}
			extractor = m.Metadata.Extractor
		}

		items = append(items, MediaItemResponse{
			Number:     m.Number,
			Title:      title,
			FileName:   filepath.Base(path),
			FilePath:   path,
			FileSize:   size,
			Resolution: m.DisplayResolution(),
			Codec:      m.DisplayCodec(),
		})
		records = append(records, &domain.DownloadRecord{
			SourceURL:  sourceURL,
			FilePath:   path,
			Title:      title,
			Extractor:  extractor,
			FileSize:   size,
			Resolution: m.DisplayResolution(),
			Codec:      m.DisplayCodec(),
		})
	}

	return items, records, nil
}

func writeStream(path string, r io.Reader) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}

	size, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}

	return size, nil
}

// GetHistory handles GET /api/v1/media/history
func (h *MediaHandler) GetHistory(c *gin.Context) {
	if sourceURL := c.Query("url"); sourceURL != "" {
		records, err := h.repo.FindBySourceURL(sourceURL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": records, "count": len(records)})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	records, err := h.repo.FindRecent(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": records, "count": len(records)})
}

// GetStats handles GET /api/v1/media/stats
func (h *MediaHandler) GetStats(c *gin.Context) {
	stats, err := h.repo.GetStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
