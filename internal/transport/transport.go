// Package transport builds the outbound HTTP client shared by the instance client and downloads.
package transport

import (
	"crypto/tls"
	"net"
	"net/http"

	"cobaltctl/internal/config"
	"cobaltctl/internal/proxymgr"
)

const maxIdleConnsPerHost = 10

// New creates a hardened HTTP client with secure defaults.
//
// The client has no overall timeout: a download may legitimately outlive any
// request budget, so callers bound each call with a context deadline instead
// (see config.Transport.RequestTimeout and DownloadTimeout).
// proxies may be nil, in which case connections go direct.
func New(cfg config.Transport, proxies *proxymgr.Manager) *http.Client {
	dialer := &net.Dialer{
		Timeout: cfg.DialTimeout,
	}

	base := &http.Transport{
		DialContext: dialer.DialContext,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	var rt http.RoundTripper = base

	if proxies != nil && proxies.ProxyCount() > 0 {
		base.Proxy = proxies.Proxy
		rt = proxies.RoundTripper(base)
	}

	return &http.Client{Transport: rt}
}
