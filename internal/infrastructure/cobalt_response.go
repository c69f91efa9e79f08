package infrastructure

import (
	"encoding/json"
	"fmt"

	"github.com/yourusername/media-grab-go/internal/domain"
)

// Wire types for the cobalt API.
// Defaults follow https://github.com/imputnet/cobalt/blob/main/docs/api.md

type cobaltRequest struct {
	URL                   string `json:"url"`
	AudioBitrate          string `json:"audioBitrate"`
	AudioFormat           string `json:"audioFormat"`
	DownloadMode          string `json:"downloadMode"`
	FilenameStyle         string `json:"filenameStyle"`
	YoutubeVideoCodec     string `json:"youtubeVideoCodec"`
	YoutubeVideoContainer string `json:"youtubeVideoContainer"`
	VideoQuality          string `json:"videoQuality"`
	LocalProcessing       string `json:"localProcessing"`

	YoutubeDubLang *string `json:"youtubeDubLang,omitempty"`
	SubtitleLang   *string `json:"subtitleLang,omitempty"`

	DisableMetadata    bool `json:"disableMetadata"`
	AllowH265          bool `json:"allowH265"`
	ConvertGif         bool `json:"convertGif"`
	TiktokFullAudio    bool `json:"tiktokFullAudio"`
	AlwaysProxy        bool `json:"alwaysProxy"`
	YoutubeHLS         bool `json:"youtubeHLS"`
	YoutubeBetterAudio bool `json:"youtubeBetterAudio"`
}

func newCobaltRequest(url string, audioOnly bool) cobaltRequest {
	mode := "auto"
	if audioOnly {
		mode = "audio"
	}

	return cobaltRequest{
		URL:                   url,
		AudioBitrate:          "128",
		AudioFormat:           "mp3",
		DownloadMode:          mode,
		FilenameStyle:         "basic",
		YoutubeVideoCodec:     "h264",
		YoutubeVideoContainer: "auto",
		VideoQuality:          "1080",
		LocalProcessing:       "disabled",
		AllowH265:             true,
		ConvertGif:            true,
	}
}

type cobaltTunnelResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

type cobaltLocalProcessingResponse struct {
	Tunnel []string `json:"tunnel"`
	Output struct {
		Filename string `json:"filename"`
		Metadata *struct {
			Title *string `json:"title"`
		} `json:"metadata"`
	} `json:"output"`
}

type cobaltErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Context *struct {
			Service string `json:"service"`
		} `json:"context"`
	} `json:"error"`
}

// cobaltAPIError is an error the API reported in-band through an
// "error" status response.
type cobaltAPIError struct {
	Code    string
	Service string
}

func (e *cobaltAPIError) Error() string {
	service := e.Service
	if service == "" {
		service = "cobalt"
	}
	return fmt.Sprintf("cobalt returned an error (%s: %s)", service, e.Code)
}

// cobaltResponse is the decoded response union; exactly one branch is
// populated, with picker standing in for "recognized, nothing to
// download directly".
type cobaltResponse struct {
	tunnel          *cobaltTunnelResponse
	localProcessing *cobaltLocalProcessingResponse
	picker          bool
	apiErr          *cobaltAPIError
}

// decodeCobaltResponse resolves the tagged union in two passes: first
// the "status" discriminator, then the status-specific shape.
func decodeCobaltResponse(body []byte) (*cobaltResponse, error) {
	if len(body) == 0 {
		return nil, &domain.DownloaderError{Message: "cobalt returned an empty response"}
	}

	var envelope struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &domain.DownloaderError{Message: "cobalt replied with invalid data", Details: err.Error()}
	}

	switch envelope.Status {
	case "tunnel", "redirect":
		var tunnel cobaltTunnelResponse
		if err := json.Unmarshal(body, &tunnel); err != nil {
			return nil, &domain.DownloaderError{Message: "cobalt replied with invalid data", Details: err.Error()}
		}
		return &cobaltResponse{tunnel: &tunnel}, nil

	case "local-processing":
		var lp cobaltLocalProcessingResponse
		if err := json.Unmarshal(body, &lp); err != nil {
			return nil, &domain.DownloaderError{Message: "cobalt replied with invalid data", Details: err.Error()}
		}
		return &cobaltResponse{localProcessing: &lp}, nil

	case "picker":
		return &cobaltResponse{picker: true}, nil

	case "error":
		var errResp cobaltErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return nil, &domain.DownloaderError{Message: "cobalt replied with invalid data", Details: err.Error()}
		}
		apiErr := &cobaltAPIError{Code: errResp.Error.Code}
		if errResp.Error.Context != nil {
			apiErr.Service = errResp.Error.Context.Service
		}
		return &cobaltResponse{apiErr: apiErr}, nil

	default:
		return nil, &domain.DownloaderError{Message: fmt.Sprintf("unhandled cobalt response type %q", envelope.Status)}
	}
}
