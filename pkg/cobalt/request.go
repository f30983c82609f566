package cobalt

import (
	"encoding/json"
	"fmt"
	"strings"

	"cobaltctl/pkg/ptr"
)

// DownloadMode selects what the instance returns for a source.
type DownloadMode int

// Download modes.
const (
	DownloadModeAuto DownloadMode = iota
	DownloadModeAudio
	DownloadModeMute
)

var downloadModeNames = [...]string{
	DownloadModeAuto:  "auto",
	DownloadModeAudio: "audio",
	DownloadModeMute:  "mute",
}

// String returns the wire encoding of the mode.
func (m DownloadMode) String() string {
	if m < 0 || int(m) >= len(downloadModeNames) {
		return fmt.Sprintf("DownloadMode(%d)", int(m))
	}

	return downloadModeNames[m]
}

// ParseDownloadMode maps a wire string back to its mode. Matching is exact.
func ParseDownloadMode(s string) (DownloadMode, error) {
	for mode, name := range downloadModeNames {
		if s == name {
			return DownloadMode(mode), nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownDownloadMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m DownloadMode) MarshalText() ([]byte, error) {
	if m < 0 || int(m) >= len(downloadModeNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDownloadMode, int(m))
	}

	return []byte(downloadModeNames[m]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *DownloadMode) UnmarshalText(text []byte) error {
	mode, err := ParseDownloadMode(string(text))
	if err != nil {
		return err
	}

	*m = mode

	return nil
}

// FilenameStyle values accepted by the instance.
const (
	FilenameStyleClassic = "classic"
	FilenameStylePretty  = "pretty"
	FilenameStyleBasic   = "basic"
	FilenameStyleNerdy   = "nerdy"
)

// ExtractionRequest is the body of a media request.
// Nil fields are omitted from the payload so the instance applies its own defaults.
type ExtractionRequest struct {
	URL               string        `json:"url"                         toml:"-"`
	VideoQuality      *string       `json:"videoQuality,omitempty"      toml:"video_quality"`
	AudioFormat       *string       `json:"audioFormat,omitempty"       toml:"audio_format"`
	AudioBitrate      *string       `json:"audioBitrate,omitempty"      toml:"audio_bitrate"`
	FilenameStyle     *string       `json:"filenameStyle,omitempty"     toml:"filename_style"`
	DownloadMode      *DownloadMode `json:"downloadMode,omitempty"      toml:"download_mode"`
	YoutubeVideoCodec *string       `json:"youtubeVideoCodec,omitempty" toml:"youtube_video_codec"`
	YoutubeDubLang    *string       `json:"youtubeDubLang,omitempty"    toml:"youtube_dub_lang"`
	AlwaysProxy       *bool         `json:"alwaysProxy,omitempty"       toml:"always_proxy"`
	DisableMetadata   *bool         `json:"disableMetadata,omitempty"   toml:"disable_metadata"`
	TiktokFullAudio   *bool         `json:"tiktokFullAudio,omitempty"   toml:"tiktok_full_audio"`
	TiktokH265        *bool         `json:"tiktokH265,omitempty"        toml:"tiktok_h265"`
	TwitterGif        *bool         `json:"twitterGif,omitempty"        toml:"twitter_gif"`
	YoutubeHLS        *bool         `json:"youtubeHLS,omitempty"        toml:"youtube_hls"`
}

// RequestOption sets an optional field of an ExtractionRequest.
type RequestOption func(*ExtractionRequest)

// NewRequest builds a request for url with the given options applied in order.
func NewRequest(url string, opts ...RequestOption) ExtractionRequest {
	req := ExtractionRequest{URL: url}
	for _, opt := range opts {
		opt(&req)
	}

	return req
}

// WithVideoQuality sets videoQuality, e.g. "1080" or "max".
func WithVideoQuality(q string) RequestOption {
	return func(r *ExtractionRequest) { r.VideoQuality = ptr.Of(q) }
}

// WithAudioFormat sets audioFormat, e.g. "mp3" or "best".
func WithAudioFormat(f string) RequestOption {
	return func(r *ExtractionRequest) { r.AudioFormat = ptr.Of(f) }
}

// WithAudioBitrate sets audioBitrate in kbps, e.g. "128".
func WithAudioBitrate(b string) RequestOption {
	return func(r *ExtractionRequest) { r.AudioBitrate = ptr.Of(b) }
}

// WithFilenameStyle sets filenameStyle to one of the FilenameStyle constants.
func WithFilenameStyle(s string) RequestOption {
	return func(r *ExtractionRequest) { r.FilenameStyle = ptr.Of(s) }
}

// WithDownloadMode sets downloadMode.
func WithDownloadMode(m DownloadMode) RequestOption {
	return func(r *ExtractionRequest) { r.DownloadMode = ptr.Of(m) }
}

// WithYoutubeVideoCodec sets youtubeVideoCodec: h264, av1 or vp9.
func WithYoutubeVideoCodec(c string) RequestOption {
	return func(r *ExtractionRequest) { r.YoutubeVideoCodec = ptr.Of(c) }
}

// WithYoutubeDubLang sets youtubeDubLang to a language code.
func WithYoutubeDubLang(l string) RequestOption {
	return func(r *ExtractionRequest) { r.YoutubeDubLang = ptr.Of(l) }
}

// WithAlwaysProxy sets alwaysProxy, tunnelling the file through the instance.
func WithAlwaysProxy(v bool) RequestOption {
	return func(r *ExtractionRequest) { r.AlwaysProxy = ptr.Of(v) }
}

// WithDisableMetadata sets disableMetadata.
func WithDisableMetadata(v bool) RequestOption {
	return func(r *ExtractionRequest) { r.DisableMetadata = ptr.Of(v) }
}

// WithTiktokFullAudio sets tiktokFullAudio to fetch the original sound.
func WithTiktokFullAudio(v bool) RequestOption {
	return func(r *ExtractionRequest) { r.TiktokFullAudio = ptr.Of(v) }
}

// WithTiktokH265 sets tiktokH265.
func WithTiktokH265(v bool) RequestOption {
	return func(r *ExtractionRequest) { r.TiktokH265 = ptr.Of(v) }
}

// WithTwitterGif sets twitterGif to convert gifs to .gif files.
func WithTwitterGif(v bool) RequestOption {
	return func(r *ExtractionRequest) { r.TwitterGif = ptr.Of(v) }
}

// WithYoutubeHLS sets youtubeHLS.
func WithYoutubeHLS(v bool) RequestOption {
	return func(r *ExtractionRequest) { r.YoutubeHLS = ptr.Of(v) }
}

// Validate checks the required fields.
func (r ExtractionRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return ErrEmptyURL
	}

	return nil
}

// Payload returns the JSON body sent to the instance.
func (r ExtractionRequest) Payload() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	return data, nil
}
