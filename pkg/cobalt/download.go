package cobalt

import (
	"context"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"cobaltctl/pkg/calc"
)

const (
	copyBufferSize        = 32 << 10
	defaultProgressPeriod = 500 * time.Millisecond
)

// Progress is a snapshot of a running download.
type Progress struct {
	Downloaded int64
	Total      int64
	Percent    int
	ETA        time.Duration
}

type downloadOptions struct {
	progress       func(Progress)
	progressPeriod time.Duration
	hash           hash.Hash
	sum            string
}

// DownloadOption configures Download and Stream.
type DownloadOption func(*downloadOptions)

// WithProgress calls fn periodically while bytes are copied and once after the last chunk.
func WithProgress(fn func(Progress)) DownloadOption {
	return func(o *downloadOptions) { o.progress = fn }
}

// WithProgressPeriod sets the minimum interval between progress reports.
func WithProgressPeriod(d time.Duration) DownloadOption {
	return func(o *downloadOptions) {
		if d > 0 {
			o.progressPeriod = d
		}
	}
}

// WithChecksum verifies the copied bytes against the hex encoded sum using h.
func WithChecksum(h hash.Hash, sum string) DownloadOption {
	return func(o *downloadOptions) {
		o.hash = h
		o.sum = strings.ToLower(strings.TrimSpace(sum))
	}
}

// Download streams sourceURL into the file at destPath and returns the number of bytes written.
//
// The response must declare a non-zero Content-Length and a success status before
// destPath is created or truncated. A failure while copying leaves the partial file in
// place; removing it is up to the caller. Calling Download again overwrites it.
func (c *Client) Download(ctx context.Context, sourceURL, destPath string, opts ...DownloadOption) (written int64, err error) {
	defer c.observeDownload(time.Now(), &written, &err)

	resp, err := c.openSource(ctx, sourceURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	file, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("create destination: %w", err)
	}

	written, err = copyBody(file, resp, opts)

	closeErr := file.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("%w: close destination: %w", ErrInterrupted, closeErr)
	}

	return written, err
}

// Stream copies sourceURL into w with the same checks as Download.
func (c *Client) Stream(ctx context.Context, sourceURL string, w io.Writer, opts ...DownloadOption) (written int64, err error) {
	defer c.observeDownload(time.Now(), &written, &err)

	resp, err := c.openSource(ctx, sourceURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	return copyBody(w, resp, opts)
}

// openSource issues the GET and validates the declared length and status.
// On error the response body is already closed.
func (c *Client) openSource(ctx context.Context, sourceURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, http.NoBody)
	if err != nil {
		return nil, requestError(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", c.userAgent)
	// the transport drops Content-Length when it decompresses gzip for us
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, requestError(fmt.Errorf("send request: %w", err))
	}

	switch {
	case resp.ContentLength < 0:
		resp.Body.Close()

		return nil, ErrContentLengthMissing
	case resp.ContentLength == 0:
		resp.Body.Close()

		return nil, ErrContentLengthZero
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		resp.Body.Close()

		return nil, &DownloadError{StatusCode: resp.StatusCode}
	}

	return resp, nil
}

func copyBody(w io.Writer, resp *http.Response, opts []DownloadOption) (int64, error) {
	o := downloadOptions{progressPeriod: defaultProgressPeriod}
	for _, opt := range opts {
		opt(&o)
	}

	dst := w
	if o.hash != nil {
		dst = io.MultiWriter(dst, o.hash)
	}

	var pw *progressWriter
	if o.progress != nil {
		pw = &progressWriter{
			w:       dst,
			total:   resp.ContentLength,
			fn:      o.progress,
			period:  o.progressPeriod,
			started: time.Now(),
		}
		dst = pw
	}

	written, err := io.CopyBuffer(dst, resp.Body, make([]byte, copyBufferSize))
	if err != nil {
		return written, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	if written != resp.ContentLength {
		return written, fmt.Errorf("%w: got %d bytes, want %d", ErrContentLengthMismatch, written, resp.ContentLength)
	}

	if o.hash != nil {
		if got := hex.EncodeToString(o.hash.Sum(nil)); got != o.sum {
			return written, fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, o.sum)
		}
	}

	if pw != nil {
		pw.report()
	}

	return written, nil
}

type progressWriter struct {
	w          io.Writer
	total      int64
	downloaded int64
	fn         func(Progress)
	period     time.Duration
	started    time.Time
	last       time.Time
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	p.downloaded += int64(n)

	if now := time.Now(); now.Sub(p.last) >= p.period {
		p.last = now
		p.report()
	}

	return n, err
}

func (p *progressWriter) report() {
	p.fn(Progress{
		Downloaded: p.downloaded,
		Total:      p.total,
		Percent:    calc.Progress(p.downloaded, p.total),
		ETA:        calc.ETA(p.downloaded, p.total, p.started),
	})
}

func (c *Client) observeDownload(start time.Time, written *int64, err *error) {
	if c.observer == nil {
		return
	}

	c.observer.ObserveDownload(*written, *err, time.Since(start))
}
