package cobalt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"cobaltctl/pkg/urls"

	"github.com/caarlos0/env/v11"
)

const (
	// DefaultUserAgent identifies this client to the instance.
	DefaultUserAgent = "Cobalt"
	// maxBodySize caps how much of a JSON or error body is read into memory.
	maxBodySize = 10 << 20
)

// Operation names passed to an Observer.
const (
	OpStatus   = "status"
	OpGetMedia = "get_media"
	OpDownload = "download"
)

// ErrInvalidInstanceURI indicates that the instance URI is not an absolute http(s) URL.
var ErrInvalidInstanceURI = errors.New("instance uri is invalid")

// Observer receives the outcome of every network operation. Implementations must be safe
// for concurrent use.
type Observer interface {
	ObserveRequest(op string, err error, elapsed time.Duration)
	ObserveDownload(written int64, err error, elapsed time.Duration)
}

// Client talks to a single cobalt instance. It holds no mutable state after New returns
// and is safe for concurrent use.
type Client struct {
	apiKey        string
	instanceURI   string
	userAgent     string
	filenameStyle string
	httpClient    *http.Client
	observer      Observer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the client used for all requests. Timeouts and proxies belong there.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithDefaultFilenameStyle fills filenameStyle on requests that leave it unset.
func WithDefaultFilenameStyle(style string) Option {
	return func(c *Client) { c.filenameStyle = style }
}

// WithObserver reports request and download outcomes to o.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New creates a client for the instance at instanceURI authorized by apiKey.
func New(apiKey, instanceURI string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	if strings.TrimSpace(instanceURI) == "" {
		return nil, ErrMissingInstanceURI
	}

	if !urls.IsURLValid(instanceURI) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidInstanceURI, instanceURI)
	}

	c := &Client{
		apiKey:      apiKey,
		instanceURI: instanceURI,
		userAgent:   DefaultUserAgent,
		httpClient:  http.DefaultClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type envConfig struct {
	APIKey      string `env:"API_KEY,required,notEmpty"`
	InstanceURI string `env:"INSTANCE_URI,required,notEmpty"`
}

// FromEnv creates a client from the API_KEY and INSTANCE_URI environment variables.
func FromEnv(opts ...Option) (*Client, error) {
	var cfg envConfig

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return New(cfg.APIKey, cfg.InstanceURI, opts...)
}

var shared = sync.OnceValue(func() *Client {
	c, err := FromEnv()
	if err != nil {
		panic(fmt.Sprintf("cobalt: shared client: %v", err))
	}

	return c
})

// Shared returns the process-wide client built from the environment on first use.
// It panics if API_KEY or INSTANCE_URI is missing.
func Shared() *Client { return shared() }

// InstanceURI returns the instance the client talks to.
func (c *Client) InstanceURI() string { return c.instanceURI }

// Status fetches the instance status. The request is not authenticated.
func (c *Client) Status(ctx context.Context) (status *ServiceStatus, err error) {
	defer c.observe(OpStatus, time.Now(), &err)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.instanceURI, http.NoBody)
	if err != nil {
		return nil, requestError(fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	status, err = ParseStatus(body)
	if err != nil {
		return nil, decodeError(fmt.Errorf("parse status: %w", err))
	}

	return status, nil
}

// Services returns the services enabled on the instance, in the order it lists them.
// An empty list is reported as ErrNoServices.
func (c *Client) Services(ctx context.Context) ([]string, error) {
	status, err := c.Status(ctx)
	if err != nil {
		return nil, err
	}

	if len(status.Cobalt.Services) == 0 {
		return nil, ErrNoServices
	}

	return status.Cobalt.Services, nil
}

// GetMedia asks the instance to resolve req. apiKey overrides the client's
// credential for this call when non-empty.
//
// Errors are *MediaError values classified in this order: transport failure,
// non-success status, undecodable payload.
func (c *Client) GetMedia(ctx context.Context, apiKey string, req ExtractionRequest) (resp Response, err error) {
	if apiKey == "" {
		apiKey = c.apiKey
	}

	if req.FilenameStyle == nil && c.filenameStyle != "" {
		style := c.filenameStyle
		req.FilenameStyle = &style
	}

	payload, err := req.Payload()
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	defer c.observe(OpGetMedia, time.Now(), &err)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.instanceURI, bytes.NewReader(payload))
	if err != nil {
		return nil, requestError(fmt.Errorf("create request: %w", err))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Authorization", "Api-Key "+apiKey)

	body, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}

	resp, err = ParseResponse(body)
	if err != nil {
		return nil, decodeError(fmt.Errorf("parse response: %w", err))
	}

	return resp, nil
}

// do sends req and returns the body of a successful response.
func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, requestError(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &MediaError{Kind: KindAPI, StatusCode: resp.StatusCode}

		// body is best-effort; the status code alone is enough to report
		if body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodySize)); readErr == nil {
			apiErr.Body = strings.TrimSpace(string(body))
		}

		return nil, apiErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, requestError(fmt.Errorf("read body: %w", err))
	}

	return body, nil
}

func (c *Client) observe(op string, start time.Time, err *error) {
	if c.observer == nil {
		return
	}

	c.observer.ObserveRequest(op, *err, time.Since(start))
}
