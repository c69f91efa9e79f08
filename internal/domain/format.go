package domain

// FormatData is one candidate encoding of a source media item, as
// enumerated by yt-dlp. Optional fields are pointers so "absent" and
// "zero" stay distinguishable; the picker relies on that for codec
// eligibility and size handling.
type FormatData struct {
	FormatID   string   `json:"format_id"`
	Format     string   `json:"format"`
	FormatNote string   `json:"format_note"`
	Extension  *string  `json:"ext"`
	URL        string   `json:"url"`
	Width      *int     `json:"width"`
	Height     *int     `json:"height"`
	Resolution *string  `json:"resolution"`
	FrameRate  *float64 `json:"fps"`

	// tbr / vbr / abr, in kbit/s
	Bitrate      *float64 `json:"tbr"`
	VideoBitrate *float64 `json:"vbr"`
	AudioBitrate *float64 `json:"abr"`

	VideoCodec *string `json:"vcodec"`
	AudioCodec *string `json:"acodec"`

	FileSize            *int64 `json:"filesize"`
	ApproximateFileSize *int64 `json:"filesize_approx"`

	Protocol string   `json:"protocol"`
	Language *string  `json:"language"`
	Quality  *float64 `json:"quality"`
	HasDRM   *bool    `json:"has_drm"`
}

// SizeOrDefault returns the known or approximate filesize, or def when
// the size is unknown.
func (f *FormatData) SizeOrDefault(def int64) int64 {
	if f.FileSize != nil {
		return *f.FileSize
	}
	if f.ApproximateFileSize != nil {
		return *f.ApproximateFileSize
	}
	return def
}

// MediaMetadata is the per-item JSON object yt-dlp dumps during the
// metadata phase. Only the fields this pipeline consumes are mapped;
// unknown fields are ignored by encoding/json.
type MediaMetadata struct {
	Extractor    string       `json:"extractor"`
	ExtractorKey string       `json:"extractor_key"`
	ID           string       `json:"id"`
	Title        *string      `json:"title"`
	Description  *string      `json:"description"`
	Uploader     *string      `json:"uploader"`
	Duration     *float64     `json:"duration"`
	WebpageURL   string       `json:"webpage_url"`
	Formats      []FormatData `json:"formats"`

	// Top-level already-selected stream fields, present on sources that
	// expose no format list (e.g. Instagram reels).
	Extension  *string `json:"ext"`
	FormatID   string  `json:"format_id"`
	Resolution *string `json:"resolution"`
	VideoCodec *string `json:"vcodec"`
}
