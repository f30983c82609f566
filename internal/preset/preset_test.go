package preset_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"cobaltctl/internal/errs"
	"cobaltctl/internal/preset"
	"cobaltctl/pkg/cobalt"
	"cobaltctl/pkg/ptr"
)

const presetsTOML = `
[presets.podcast]
download_mode = "audio"
audio_format = "mp3"
audio_bitrate = "128"

[presets.clip]
video_quality = "720"
filename_style = "basic"
twitter_gif = false
`

func TestParse(t *testing.T) {
	t.Parallel()

	store, err := preset.Parse([]byte(presetsTOML))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got, want := store.Names(), []string{"clip", "podcast"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}

	req, err := store.Request("podcast", "https://example.com/ep1")
	if err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	if req.URL != "https://example.com/ep1" {
		t.Errorf("URL = %q", req.URL)
	}

	if req.DownloadMode == nil || *req.DownloadMode != cobalt.DownloadModeAudio {
		t.Errorf("DownloadMode = %v, want audio", req.DownloadMode)
	}

	if req.VideoQuality != nil {
		t.Errorf("VideoQuality = %v, want unset", *req.VideoQuality)
	}

	clip, err := store.Request("clip", "u")
	if err != nil {
		t.Fatalf("Request(clip) error = %v", err)
	}

	if clip.TwitterGif == nil || *clip.TwitterGif {
		t.Errorf("TwitterGif = %v, want explicit false", clip.TwitterGif)
	}
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{name: "unknown download mode", doc: "[presets.a]\ndownload_mode = \"loud\"\n"},
		{name: "unknown key", doc: "[presets.a]\nvideo_qualty = \"720\"\n"},
		{name: "unknown filename style", doc: "[presets.a]\nfilename_style = \"fancy\"\n"},
		{name: "wrong type", doc: "[presets.a]\nalways_proxy = \"yes\"\n"},
		{name: "not toml", doc: "[presets.a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := preset.Parse([]byte(tt.doc)); !errors.Is(err, errs.ErrPresetInvalid) {
				t.Errorf("Parse() error = %v, want ErrPresetInvalid", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	empty, err := preset.Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}

	if len(empty.Names()) != 0 {
		t.Errorf("Names() = %v, want none", empty.Names())
	}

	if _, err := empty.Request("podcast", "u"); !errors.Is(err, errs.ErrPresetNotFound) {
		t.Errorf("Request() error = %v, want ErrPresetNotFound", err)
	}

	path := filepath.Join(t.TempDir(), "presets.toml")
	if err := os.WriteFile(path, []byte(presetsTOML), 0o600); err != nil {
		t.Fatalf("write presets: %v", err)
	}

	store, err := preset.Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(store.Names()) != 2 {
		t.Errorf("Names() = %v", store.Names())
	}

	if _, err := preset.Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load(missing) expected error")
	}
}

func TestMerge(t *testing.T) {
	t.Parallel()

	base := cobalt.NewRequest("",
		cobalt.WithDownloadMode(cobalt.DownloadModeAudio),
		cobalt.WithAudioFormat("mp3"),
	)
	override := cobalt.NewRequest("https://example.com/v",
		cobalt.WithAudioFormat("opus"),
		cobalt.WithAlwaysProxy(false),
	)

	got := preset.Merge(base, override)

	if got.URL != "https://example.com/v" {
		t.Errorf("URL = %q", got.URL)
	}

	if ptr.Deref(got.AudioFormat) != "opus" {
		t.Errorf("AudioFormat = %v, want opus", got.AudioFormat)
	}

	if got.DownloadMode == nil || *got.DownloadMode != cobalt.DownloadModeAudio {
		t.Errorf("DownloadMode = %v, want audio", got.DownloadMode)
	}

	if got.AlwaysProxy == nil || *got.AlwaysProxy {
		t.Errorf("AlwaysProxy = %v, want explicit false", got.AlwaysProxy)
	}

	if ptr.Deref(base.AudioFormat) != "mp3" {
		t.Error("Merge modified base")
	}
}
