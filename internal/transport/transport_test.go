package transport_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cobaltctl/internal/config"
	"cobaltctl/internal/proxymgr"
	"cobaltctl/internal/transport"
)

func testConfig() config.Transport {
	return config.Transport{
		DialTimeout:         time.Second,
		TLSHandshakeTimeout: time.Second,
		MaxIdleConns:        4,
		IdleConnTimeout:     time.Second,
	}
}

func get(t *testing.T, c *http.Client, url string) string {
	t.Helper()

	resp, err := c.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	return string(body)
}

func TestNew_Direct(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "direct")
	}))
	defer srv.Close()

	c := transport.New(testConfig(), nil)

	if c.Timeout != 0 {
		t.Errorf("Timeout = %v, want 0", c.Timeout)
	}

	if got := get(t, c, srv.URL); got != "direct" {
		t.Errorf("body = %q, want direct", got)
	}
}

func TestNew_ThroughProxy(t *testing.T) {
	t.Parallel()

	// a forward proxy sees the absolute target URI
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "via proxy to "+r.URL.Host)
	}))
	defer proxy.Close()

	cfg := &config.Config{Proxy: config.Proxy{
		Proxies:        []string{proxy.URL},
		MaxFailures:    3,
		FailureBackoff: time.Minute,
	}}

	mgr, err := proxymgr.New(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, nil)
	if err != nil {
		t.Fatalf("proxymgr.New() error = %v", err)
	}

	c := transport.New(testConfig(), mgr)

	if got := get(t, c, "http://media.example.invalid/file.mp4"); got != "via proxy to media.example.invalid" {
		t.Errorf("body = %q", got)
	}
}
