package infrastructure

import (
	"math"
	"regexp"
	"sort"

	"github.com/yourusername/media-grab-go/internal/domain"
)

// PickedFormat is the picker's output: the chosen video and/or audio
// format plus the selector string yt-dlp needs to request exactly that
// combination ("id" or "videoId+audioId"). At least one of VideoFormat
// and AudioFormat is always non-nil.
type PickedFormat struct {
	VideoFormat  *domain.FormatData
	AudioFormat  *domain.FormatData
	FormatString string
}

// FormatPicker selects the best format combination for a media item
// subject to a byte budget, codec-compatibility rules and a quality
// preference ordering. It is pure: no I/O, no state.
type FormatPicker struct{}

// NewFormatPicker creates a new format picker
func NewFormatPicker() *FormatPicker {
	return &FormatPicker{}
}

type codecQuality struct {
	pattern *regexp.Regexp
	mult    float64
}

var videoCodecQuality = []codecQuality{
	// h264 compresses noticeably worse at the same size
	{regexp.MustCompile(`^(avc.*|h264.*)`), 0.6},

	// h265 is baseline quality
	{regexp.MustCompile(`^(hevc.*|h265.*)`), 1.0},

	// about the same as h265, but vp9 gets a boost for being more widely supported
	{regexp.MustCompile(`^(vp0?9.*)`), 1.1},
}

var audioCodecQuality = []codecQuality{
	{regexp.MustCompile(`^mp4a`), 1.0},
	{regexp.MustCompile(`^opus`), 1.1},
}

var eligibleVideoCodec = regexp.MustCompile(`^(hevc.*|h265.*|vp0?9.*|avc.*|h264.*)`)

// PickFormat picks one (premerged) or two (video+audio) formats that
// would be the best for the given metadata, or nil when no combination
// fits the budget. Videos with known-supported codecs are tried first;
// unknown-codec formats only join the pool as a last resort.
func (p *FormatPicker) PickFormat(metadata *domain.MediaMetadata, options domain.DownloadOptions) *PickedFormat {
	if len(metadata.Formats) == 0 {
		// fallback for sources that expose exactly one already-selected
		// stream and no format list (e.g. instagram reels)
		return &PickedFormat{
			VideoFormat: &domain.FormatData{
				Resolution: metadata.Resolution,
				VideoCodec: metadata.VideoCodec,
			},
			AudioFormat:  nil,
			FormatString: metadata.FormatID,
		}
	}

	audioFormats := sortBySize(eligibleAudio(metadata.Formats), options.MaxFilesize)
	videoFormats := sortBySize(eligibleVideos(metadata.Formats, false), options.MaxFilesize)

	if metadata.Extractor == "Instagram" {
		// reel formats that identify themselves as vp9 are not actually
		// source quality; prefer the unknown-codec ones when present
		var unknown []*domain.FormatData
		for i := range metadata.Formats {
			f := &metadata.Formats[i]
			if f.VideoCodec == nil || *f.VideoCodec == "unknown" {
				unknown = append(unknown, f)
			}
		}
		if len(unknown) > 0 {
			videoFormats = unknown
		}
	}

	if best := p.TryPickOptimalFormat(audioFormats, videoFormats, options); best != nil {
		return best
	}

	// failed to pick; see if there are formats with unknown vcodec we
	// could add to the pool
	videoFormats = sortBySize(eligibleVideos(metadata.Formats, true), options.MaxFilesize)

	return p.TryPickOptimalFormat(audioFormats, videoFormats, options)
}

// TryPickOptimalFormat picks the best-scoring combination out of the
// given (size-sorted) audio and video candidate lists, or nil when
// nothing fits the budget.
func (p *FormatPicker) TryPickOptimalFormat(audioFormats, videoFormats []*domain.FormatData, options domain.DownloadOptions) *PickedFormat {
	var video, audio *domain.FormatData

	if options.AudioOnly {
		audio = pickOptimalAudio(audioFormats, videoFormats, options)
		if audio == nil {
			return nil
		}
	} else {
		var ok bool
		video, audio, ok = pickOptimalVideoAudio(audioFormats, videoFormats, options)
		if !ok {
			return nil
		}
	}

	var formatString string
	switch {
	case video != nil && audio != nil:
		formatString = video.FormatID + "+" + audio.FormatID
	case video != nil:
		formatString = video.FormatID
	default:
		formatString = audio.FormatID
	}

	return &PickedFormat{
		VideoFormat:  video,
		AudioFormat:  audio,
		FormatString: formatString,
	}
}

func pickOptimalVideoAudio(audioFormats, videoFormats []*domain.FormatData, options domain.DownloadOptions) (video, audio *domain.FormatData, ok bool) {
	if len(videoFormats) == 0 {
		// link had no videos at all; try at least returning the audio
		if a := pickOptimalAudio(audioFormats, videoFormats, options); a != nil {
			return nil, a, true
		}
		return nil, nil, false
	}

	var bestScore *int64

	for _, vformat := range videoFormats {
		isMerged := vformat.AudioCodec != nil && *vformat.AudioCodec != "none"

		vsize := vformat.SizeOrDefault(0)
		if vsize > options.MaxFilesize {
			// lists are sorted by size; the remaining formats are even bigger
			break
		}

		if isMerged || len(audioFormats) == 0 {
			// premerged format or no audio, no separate audio pick needed
			score, valid := videoFormatScore(vformat, options.MaxFilesize)
			if !valid || (bestScore != nil && score <= *bestScore) {
				continue
			}

			s := score
			bestScore, video, audio, ok = &s, vformat, nil, true
		} else {
			for _, aformat := range audioFormats {
				if !isAllowedCombination(vformat, aformat) {
					continue
				}

				leftover := options.MaxFilesize - aformat.SizeOrDefault(0)
				score, valid := videoFormatScore(vformat, leftover)
				if !valid || (bestScore != nil && score <= *bestScore) {
					continue
				}

				s := score
				bestScore, video, audio, ok = &s, vformat, aformat, true
			}
		}
	}

	return video, audio, ok
}

func pickOptimalAudio(audioFormats, videoFormats []*domain.FormatData, options domain.DownloadOptions) *domain.FormatData {
	bestScore := int64(math.MinInt64)
	var picked *domain.FormatData

	for _, format := range audioFormats {
		score, valid := audioFormatScore(format, options.MaxFilesize)
		if !valid || score <= bestScore {
			continue
		}

		bestScore = score
		picked = format
	}

	// an audio format without a video attached to it is the ideal outcome
	if picked != nil {
		return picked
	}

	// otherwise there are no audio-only formats; best we can do is
	// return a video, which will presumably carry both
	for _, vformat := range videoFormats {
		score, valid := videoFormatScore(vformat, options.MaxFilesize)
		if !valid || score <= bestScore {
			continue
		}

		bestScore = score
		picked = vformat
	}

	return picked
}

// videoFormatScore scores a video format against the remaining byte
// budget: better resolutions trump better codecs, and files closer to
// the budget beat files comfortably under it. Returns valid=false when
// the format cannot be picked at all (over budget).
func videoFormatScore(format *domain.FormatData, sizeBudget int64) (score int64, valid bool) {
	leftover := sizeBudget - format.SizeOrDefault(0)

	// over budget; never pick
	if leftover < 0 {
		return 0, false
	}

	// codec unknown; worst valid choice
	if format.VideoCodec == nil {
		return math.MinInt64, true
	}

	// higher res basically always beats codec choice
	resScore := 1.0
	if format.Width != nil && format.Height != nil {
		resScore = float64(*format.Width) * float64(*format.Height) / 1e6
	}
	if resScore <= 0 {
		resScore = 1.0
	}

	mult := codecMultiplier(videoCodecQuality, *format.VideoCodec)

	// less leftover, higher score; divide so the multiplier interacts
	// with negative numbers correctly
	return int64(float64(-leftover) / mult / resScore), true
}

// audioFormatScore is the audio counterpart of videoFormatScore, with
// the bitrate standing in for resolution.
func audioFormatScore(format *domain.FormatData, sizeBudget int64) (score int64, valid bool) {
	leftover := sizeBudget - format.SizeOrDefault(0)

	if leftover < 0 {
		return 0, false
	}

	if format.AudioCodec == nil {
		return math.MinInt64, true
	}

	resScore := 1.0
	switch {
	case format.AudioBitrate != nil:
		resScore = *format.AudioBitrate
	case format.Bitrate != nil:
		resScore = *format.Bitrate
	}
	if resScore <= 0 {
		resScore = 1.0
	}

	mult := codecMultiplier(audioCodecQuality, *format.AudioCodec)

	return int64(float64(-leftover) / mult / resScore), true
}

func codecMultiplier(table []codecQuality, codec string) float64 {
	for _, entry := range table {
		if entry.pattern.MatchString(codec) {
			return entry.mult
		}
	}
	return 1.0
}

// isAllowedCombination rejects pairings whose merged container is not
// reliably playable (m4a audio can't be embedded in non-mp4 containers
// without producing an unembeddable mkv).
func isAllowedCombination(vformat, aformat *domain.FormatData) bool {
	vext := ""
	if vformat.Extension != nil {
		vext = *vformat.Extension
	}
	aext := ""
	if aformat.Extension != nil {
		aext = *aformat.Extension
	}

	return !(vext != "mp4" && aext == "m4a")
}

func eligibleAudio(formats []domain.FormatData) []*domain.FormatData {
	var out []*domain.FormatData
	for i := range formats {
		f := &formats[i]
		if f.VideoCodec == nil || *f.VideoCodec != "none" {
			continue
		}
		if f.AudioCodec != nil && *f.AudioCodec == "none" {
			continue
		}
		// ec-3/ac-3 are proprietary and unplayable pretty much everywhere
		if f.AudioCodec != nil && (*f.AudioCodec == "ec-3" || *f.AudioCodec == "ac-3") {
			continue
		}
		out = append(out, f)
	}
	return out
}

func eligibleVideos(formats []domain.FormatData, allowUnknownVcodec bool) []*domain.FormatData {
	var out []*domain.FormatData
	for i := range formats {
		f := &formats[i]
		unknown := f.VideoCodec == nil || *f.VideoCodec == "unknown"
		if allowUnknownVcodec && unknown {
			out = append(out, f)
			continue
		}
		if f.VideoCodec != nil && eligibleVideoCodec.MatchString(*f.VideoCodec) {
			out = append(out, f)
		}
	}
	return out
}

// sortBySize sorts ascending by known-or-approximate size; unknown
// sizes sort as if they exactly filled the budget, i.e. borderline
// fitting rather than infinite.
func sortBySize(formats []*domain.FormatData, maxFilesize int64) []*domain.FormatData {
	sort.SliceStable(formats, func(i, j int) bool {
		return formats[i].SizeOrDefault(maxFilesize) < formats[j].SizeOrDefault(maxFilesize)
	})
	return formats
}
