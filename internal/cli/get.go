package cli

import (
	"fmt"

	"cobaltctl/internal/preset"
	"cobaltctl/pkg/cobalt"
	"cobaltctl/pkg/urls"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// requestFlags maps command line flags onto an ExtractionRequest. Only flags the user
// actually set end up in the request.
type requestFlags struct {
	preset        string
	mode          string
	videoQuality  string
	audioFormat   string
	audioBitrate  string
	filenameStyle string
	videoCodec    string
	dubLang       string

	alwaysProxy     bool
	disableMetadata bool
	tiktokFullAudio bool
	tiktokH265      bool
	twitterGif      bool
	youtubeHLS      bool
}

func (f *requestFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.preset, "preset", "p", "", "Start from a named preset")
	fs.StringVarP(&f.mode, "mode", "m", "", "Download mode: auto | audio | mute")
	fs.StringVarP(&f.videoQuality, "quality", "q", "", "Video quality, e.g. 1080 or max")
	fs.StringVar(&f.audioFormat, "audio-format", "", "Audio format, e.g. mp3, opus, best")
	fs.StringVar(&f.audioBitrate, "audio-bitrate", "", "Audio bitrate in kbps, e.g. 128")
	fs.StringVar(&f.filenameStyle, "filename-style", "", "Filename style: classic | pretty | basic | nerdy")
	fs.StringVar(&f.videoCodec, "youtube-codec", "", "YouTube video codec: h264 | av1 | vp9")
	fs.StringVar(&f.dubLang, "youtube-dub-lang", "", "YouTube dub language code")
	fs.BoolVar(&f.alwaysProxy, "always-proxy", false, "Always tunnel the file through the instance")
	fs.BoolVar(&f.disableMetadata, "disable-metadata", false, "Do not embed metadata")
	fs.BoolVar(&f.tiktokFullAudio, "tiktok-full-audio", false, "Fetch the original TikTok sound")
	fs.BoolVar(&f.tiktokH265, "tiktok-h265", false, "Allow H265 TikTok videos")
	fs.BoolVar(&f.twitterGif, "twitter-gif", false, "Convert Twitter gifs to .gif")
	fs.BoolVar(&f.youtubeHLS, "youtube-hls", false, "Use HLS for YouTube")
}

// build resolves the request for rawURL: preset options first, explicit flags on top.
func (f *requestFlags) build(a *app, fs *pflag.FlagSet, rawURL string) (cobalt.ExtractionRequest, error) {
	url := urls.FixURL(rawURL)

	base := cobalt.NewRequest(url)
	if f.preset != "" {
		var err error

		base, err = a.presets.Request(f.preset, url)
		if err != nil {
			return cobalt.ExtractionRequest{}, err
		}
	}

	var opts []cobalt.RequestOption

	if fs.Changed("mode") {
		mode, err := cobalt.ParseDownloadMode(f.mode)
		if err != nil {
			return cobalt.ExtractionRequest{}, fmt.Errorf("--mode: %w", err)
		}

		opts = append(opts, cobalt.WithDownloadMode(mode))
	}

	strFlags := []struct {
		name string
		val  string
		opt  func(string) cobalt.RequestOption
	}{
		{"quality", f.videoQuality, cobalt.WithVideoQuality},
		{"audio-format", f.audioFormat, cobalt.WithAudioFormat},
		{"audio-bitrate", f.audioBitrate, cobalt.WithAudioBitrate},
		{"filename-style", f.filenameStyle, cobalt.WithFilenameStyle},
		{"youtube-codec", f.videoCodec, cobalt.WithYoutubeVideoCodec},
		{"youtube-dub-lang", f.dubLang, cobalt.WithYoutubeDubLang},
	}
	for _, sf := range strFlags {
		if fs.Changed(sf.name) {
			opts = append(opts, sf.opt(sf.val))
		}
	}

	boolFlags := []struct {
		name string
		val  bool
		opt  func(bool) cobalt.RequestOption
	}{
		{"always-proxy", f.alwaysProxy, cobalt.WithAlwaysProxy},
		{"disable-metadata", f.disableMetadata, cobalt.WithDisableMetadata},
		{"tiktok-full-audio", f.tiktokFullAudio, cobalt.WithTiktokFullAudio},
		{"tiktok-h265", f.tiktokH265, cobalt.WithTiktokH265},
		{"twitter-gif", f.twitterGif, cobalt.WithTwitterGif},
		{"youtube-hls", f.youtubeHLS, cobalt.WithYoutubeHLS},
	}
	for _, bf := range boolFlags {
		if fs.Changed(bf.name) {
			opts = append(opts, bf.opt(bf.val))
		}
	}

	req := preset.Merge(base, cobalt.NewRequest(url, opts...))

	return req, req.Validate()
}

func newGetCmd(a *app) *cobra.Command {
	var rf requestFlags

	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Resolve a media URL and print what the instance returns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := rf.build(a, cmd.Flags(), args[0])
			if err != nil {
				return err
			}

			c, _, err := a.client(cmd.Context(), nil)
			if err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()

			resp, err := c.GetMedia(ctx, "", req)
			if err != nil {
				return fmt.Errorf("get media: %w", err)
			}

			out := cmd.OutOrStdout()
			if a.jsonOut {
				if err := writeJSON(out, resp); err != nil {
					return err
				}
			} else {
				printResponse(out, resp)
			}

			if e, ok := resp.(*cobalt.ErrorResponse); ok {
				return fmt.Errorf("instance error: %s", e.Error.Code)
			}

			return nil
		},
	}

	rf.register(cmd.Flags())

	return cmd
}
