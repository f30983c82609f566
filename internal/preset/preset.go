// Package preset loads named extraction option sets from a TOML file.
//
// A file holds one table per preset:
//
//	[presets.podcast]
//	download_mode = "audio"
//	audio_format = "mp3"
//	audio_bitrate = "128"
package preset

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"cobaltctl/internal/errs"
	"cobaltctl/pkg/cobalt"

	"github.com/BurntSushi/toml"
)

var filenameStyles = []string{
	cobalt.FilenameStyleClassic,
	cobalt.FilenameStylePretty,
	cobalt.FilenameStyleBasic,
	cobalt.FilenameStyleNerdy,
}

type file struct {
	Presets map[string]cobalt.ExtractionRequest `toml:"presets"`
}

// Store holds presets by name. The zero value and a nil *Store are empty stores.
type Store struct {
	presets map[string]cobalt.ExtractionRequest
}

// Load reads presets from path. An empty path yields an empty store.
func Load(path string) (*Store, error) {
	if path == "" {
		return &Store{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}

	store, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}

	return store, nil
}

// Parse decodes a presets document. Unknown keys are rejected.
func Parse(data []byte) (*Store, error) {
	var f file

	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrPresetInvalid, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}

		return nil, fmt.Errorf("%w: unknown keys %s", errs.ErrPresetInvalid, strings.Join(keys, ", "))
	}

	for name, req := range f.Presets {
		if req.FilenameStyle != nil && !slices.Contains(filenameStyles, *req.FilenameStyle) {
			return nil, fmt.Errorf("%w: %s: filename_style %q", errs.ErrPresetInvalid, name, *req.FilenameStyle)
		}
	}

	return &Store{presets: f.Presets}, nil
}

// Names returns the preset names in sorted order.
func (s *Store) Names() []string {
	if s == nil {
		return []string{}
	}

	names := make([]string, 0, len(s.presets))
	for name := range s.presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Request builds a request for url from the named preset.
func (s *Store) Request(name, url string) (cobalt.ExtractionRequest, error) {
	if s == nil {
		return cobalt.ExtractionRequest{}, fmt.Errorf("%w: %q", errs.ErrPresetNotFound, name)
	}

	req, ok := s.presets[name]
	if !ok {
		return cobalt.ExtractionRequest{}, fmt.Errorf("%w: %q", errs.ErrPresetNotFound, name)
	}

	req.URL = url

	return req, nil
}

// Merge returns base with every field that override sets replaced. URL comes from override
// when it is non-empty.
func Merge(base, override cobalt.ExtractionRequest) cobalt.ExtractionRequest {
	out := base

	if override.URL != "" {
		out.URL = override.URL
	}

	pick(&out.VideoQuality, override.VideoQuality)
	pick(&out.AudioFormat, override.AudioFormat)
	pick(&out.AudioBitrate, override.AudioBitrate)
	pick(&out.FilenameStyle, override.FilenameStyle)
	pick(&out.DownloadMode, override.DownloadMode)
	pick(&out.YoutubeVideoCodec, override.YoutubeVideoCodec)
	pick(&out.YoutubeDubLang, override.YoutubeDubLang)
	pick(&out.AlwaysProxy, override.AlwaysProxy)
	pick(&out.DisableMetadata, override.DisableMetadata)
	pick(&out.TiktokFullAudio, override.TiktokFullAudio)
	pick(&out.TiktokH265, override.TiktokH265)
	pick(&out.TwitterGif, override.TwitterGif)
	pick(&out.YoutubeHLS, override.YoutubeHLS)

	return out
}

func pick[T any](dst **T, v *T) {
	if v != nil {
		*dst = v
	}
}
