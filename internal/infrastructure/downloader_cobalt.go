package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/media-grab-go/internal/domain"
	"github.com/yourusername/media-grab-go/pkg/retry"
)

// retryable in-band error: the instance couldn't fetch the media this
// time around, but a retry often works
const cobaltEmptyFetchCode = "error.api.fetch.empty"

// CobaltDownloader downloads media through a cobalt API instance
// (https://github.com/imputnet/cobalt). One request per URL; cobalt
// resolves formats server-side, so there is no format picking here.
type CobaltDownloader struct {
	baseURL   string
	apiKey    string
	client    *http.Client
	retryOpts retry.Options
	logger    *zap.Logger
}

// NewCobaltDownloader creates a cobalt-backed downloader
func NewCobaltDownloader(cfg domain.CobaltConfig, logger *zap.Logger) *CobaltDownloader {
	return &CobaltDownloader{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		client:    &http.Client{Timeout: 5 * time.Minute},
		retryOpts: retry.DefaultOptions(),
		logger:    logger,
	}
}

// Name implements domain.Downloader.
func (d *CobaltDownloader) Name() string {
	return "cobalt"
}

// Download asks cobalt to resolve the URL and streams the media back
// through the returned tunnel. Transient failures (instance
// unavailable, empty fetch) are retried with backoff before giving up.
func (d *CobaltDownloader) Download(ctx context.Context, uri *url.URL, options domain.DownloadOptions) ([]*domain.DownloadedMedia, error) {
	request := newCobaltRequest(uri.String(), options.AudioOnly)

	response, err := retry.Do(ctx, func(ctx context.Context) (*cobaltResponse, error) {
		resp, err := d.postRequest(ctx, request)
		if err != nil {
			return nil, err
		}
		if resp.apiErr != nil {
			return nil, resp.apiErr
		}
		return resp, nil
	}, cobaltShouldRetry, d.retryOpts)
	if err != nil {
		var apiErr *cobaltAPIError
		if errors.As(err, &apiErr) {
			return nil, &domain.DownloaderError{Message: "cobalt API error", Details: apiErr.Error()}
		}
		return nil, err
	}

	switch {
	case response.tunnel != nil:
		media, err := d.fetchTunnel(ctx, response.tunnel.URL, response.tunnel.Filename, nil)
		if err != nil {
			return nil, err
		}
		return []*domain.DownloadedMedia{media}, nil

	case response.localProcessing != nil:
		lp := response.localProcessing
		if len(lp.Tunnel) != 1 {
			// the "output" member isn't an array, so multiple tunnel URLs
			// have no defined meaning
			return nil, &domain.DownloaderError{
				Message: fmt.Sprintf("cobalt returned a locally-processed response with %d tunnel URLs", len(lp.Tunnel)),
			}
		}

		var title *string
		if lp.Output.Metadata != nil {
			title = lp.Output.Metadata.Title
		}

		media, err := d.fetchTunnel(ctx, lp.Tunnel[0], lp.Output.Filename, title)
		if err != nil {
			return nil, err
		}
		return []*domain.DownloadedMedia{media}, nil

	default:
		// picker responses list photo galleries; nothing downloadable here,
		// let the next backend have a go
		return nil, nil
	}
}

func cobaltShouldRetry(err error) bool {
	var unavailable *domain.ServiceUnavailableError
	if errors.As(err, &unavailable) {
		return true
	}

	var apiErr *cobaltAPIError
	return errors.As(err, &apiErr) && apiErr.Code == cobaltEmptyFetchCode
}

func (d *CobaltDownloader) postRequest(ctx context.Context, request cobaltRequest) (*cobaltResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encoding cobalt request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building cobalt request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Api-Key "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling cobalt: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusServiceUnavailable, http.StatusGatewayTimeout, 522:
		return nil, &domain.ServiceUnavailableError{Service: "cobalt"}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading cobalt response: %w", err)
	}

	return decodeCobaltResponse(raw)
}

// fetchTunnel streams the media behind a tunnel URL. The returned
// media owns the response body; callers must Close it.
func (d *CobaltDownloader) fetchTunnel(ctx context.Context, tunnelURL, filename string, title *string) (*domain.DownloadedMedia, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tunnelURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building tunnel request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching tunnel: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, &domain.DownloaderError{
			Message: "invalid media URL",
			Details: fmt.Sprintf("cobalt replied with a media URL, but downloading from it fails (%d)", resp.StatusCode),
		}
	}

	var fileSize *int64
	if resp.ContentLength >= 0 {
		length := resp.ContentLength
		fileSize = &length
	}

	ext := strings.TrimPrefix(path.Ext(filename), ".")
	var extension *string
	if ext != "" {
		extension = &ext
	}

	if title == nil {
		if stem := strings.TrimSuffix(filename, path.Ext(filename)); stem != "" {
			title = &stem
		}
	}

	return &domain.DownloadedMedia{
		Media:    resp.Body,
		FileSize: fileSize,
		Number:   1,
		Metadata: &domain.MediaMetadata{
			Extractor: "cobalt",
			Title:     title,
			Extension: extension,
		},
	}, nil
}
