// Package cobalt is a client for the cobalt media extraction API.
//
// A Client posts an ExtractionRequest to an instance and receives one of three
// responses: an *ErrorResponse with a machine-readable code, a *PickerResponse
// listing several items, or a *RedirectResponse with a single downloadable URL.
// Switch on Response.Status (or a type switch) to branch:
//
//	c, err := cobalt.New(apiKey, "https://cobalt.example.com")
//	resp, err := c.GetMedia(ctx, "", cobalt.NewRequest(src,
//		cobalt.WithDownloadMode(cobalt.DownloadModeAudio),
//	))
//	if r, ok := resp.(*cobalt.RedirectResponse); ok {
//		_, err = c.Download(ctx, r.URL, r.Filename)
//	}
//
// Failures of the protocol operations are *MediaError values; use errors.Is with
// ErrRequest, ErrAPI or ErrDeserialization to tell them apart. Nothing is
// retried, cached or logged by this package.
package cobalt
