package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/yourusername/media-grab-go/internal/domain"
)

// MediaService orchestrates a single acquisition: rewrite the URL,
// then walk the backend chain until one produces media. Backend
// failures accumulate on the result instead of aborting the request,
// so a fallback success still reports what went wrong along the way.
type MediaService struct {
	corrector *URLCorrector
	factory   domain.DownloaderFactory
	logger    *zap.Logger
}

// NewMediaService creates a new media acquisition service
func NewMediaService(corrector *URLCorrector, factory domain.DownloaderFactory, logger *zap.Logger) *MediaService {
	return &MediaService{
		corrector: corrector,
		factory:   factory,
		logger:    logger,
	}
}

// ProcessMediaFromURL downloads media behind the URL through the first
// backend that delivers. The returned result is never nil; the caller
// owns the media streams and must Close the result.
func (s *MediaService) ProcessMediaFromURL(ctx context.Context, uri *url.URL, options domain.DownloadOptions) (*domain.MediaDownloadResult, error) {
	// if there are any replacements to be done on the URL, do them
	fixedURL := s.corrector.CorrectURL(uri)
	downloaders := s.factory.CreateDownloaders(fixedURL)

	result := &domain.MediaDownloadResult{}

	for _, downloader := range downloaders {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		media, err := downloader.Download(ctx, fixedURL, options)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, err
			}

			s.logger.Warn("downloader failed",
				zap.String("downloader", downloader.Name()),
				zap.String("url", fixedURL.String()),
				zap.Error(err))
			result.Errors = append(result.Errors, classifyError(err))
			continue
		}

		if len(media) == 0 {
			continue
		}

		result.Media = media
		break
	}

	return result, nil
}

func classifyError(err error) domain.MediaDownloadError {
	var unavailable *domain.ServiceUnavailableError
	if errors.As(err, &unavailable) {
		return domain.MediaDownloadError{
			Code:    domain.ErrorCodeServiceUnavailable,
			Message: fmt.Sprintf("downloader service %q was unavailable", unavailable.Service),
		}
	}

	var sizeErr *domain.SizeExceededError
	if errors.As(err, &sizeErr) {
		return domain.MediaDownloadError{
			Code:    domain.ErrorCodeDownloaderError,
			Message: "downloaded media exceeds the filesize limit",
			Details: sizeErr.Error(),
		}
	}

	var dlErr *domain.DownloaderError
	if errors.As(err, &dlErr) {
		details := dlErr.Details
		if details == "" {
			details = "[none provided]"
		}
		return domain.MediaDownloadError{
			Code:    domain.ErrorCodeDownloaderError,
			Message: dlErr.Message,
			Details: details,
		}
	}

	return domain.MediaDownloadError{
		Code:    domain.ErrorCodeDownloaderError,
		Message: err.Error(),
	}
}
