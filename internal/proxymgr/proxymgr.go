// Package proxymgr routes outbound instance and download traffic through a pool of proxies.
// It handles proxy rotation, health checking, and failure tracking.
package proxymgr

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"cobaltctl/internal/config"
	"cobaltctl/internal/errs"
	"cobaltctl/internal/observability"
)

// ProxyState represents the current state of a proxy.
type ProxyState int

const (
	// ProxyStateAvailable indicates the proxy is available for use.
	ProxyStateAvailable ProxyState = iota
	// ProxyStateFailed indicates the proxy has failed and is in backoff.
	ProxyStateFailed
)

// Internal constants.
const (
	// healthCheckTimeout is the timeout for proxy health checks.
	healthCheckTimeout = 10 * time.Second
	maxBackoff         = 1 * time.Hour

	defaultSOCKSPort = "1080"
	defaultHTTPPort  = "8080"
	defaultTLSPort   = "443"
)

type proxyInfo struct {
	URL           *url.URL
	State         ProxyState
	FailureCount  int
	LastFailure   time.Time
	BackoffUntil  time.Time
	LastHealthChk time.Time
}

type ctxKey struct{}

// Manager manages proxy rotation and health.
type Manager struct {
	log     *slog.Logger
	cfg     *config.Config
	metrics *observability.Metrics

	mu      sync.RWMutex
	proxies map[string]*proxyInfo
	order   []string // maintains insertion order for consistent iteration
}

// New creates a proxy manager for cfg.Proxy.Proxies. metrics may be nil.
func New(log *slog.Logger, cfg *config.Config, metrics *observability.Metrics) (*Manager, error) {
	mgr := &Manager{
		log:     log.With(slog.String("package", "proxymgr")),
		cfg:     cfg,
		metrics: metrics,
		proxies: make(map[string]*proxyInfo),
		order:   make([]string, 0, len(cfg.Proxy.Proxies)),
	}

	for _, proxy := range cfg.Proxy.Proxies {
		u, err := parseProxyURL(proxy)
		if err != nil {
			return nil, err
		}

		if _, dup := mgr.proxies[proxy]; dup {
			continue
		}

		mgr.proxies[proxy] = &proxyInfo{URL: u, State: ProxyStateAvailable}
		mgr.order = append(mgr.order, proxy)
	}

	mgr.reportAvailable()

	return mgr, nil
}

func parseProxyURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", errs.ErrInvalidProxy, raw, err)
	}

	switch u.Scheme {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("%w %q: unsupported scheme %q", errs.ErrInvalidProxy, raw, u.Scheme)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w %q: missing host", errs.ErrInvalidProxy, raw)
	}

	return u, nil
}

// GetRandomProxy returns a random available proxy URL.
// Returns empty string if no proxies are available.
func (m *Manager) GetRandomProxy() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	available := m.getAvailableProxies()
	if len(available) == 0 {
		return ""
	}

	return available[rand.IntN(len(available))]
}

// Proxy is an http.Transport Proxy func. It uses the proxy chosen by RoundTripper for the
// request, or a random available one. With nothing configured requests go direct.
func (m *Manager) Proxy(req *http.Request) (*url.URL, error) {
	proxy, ok := req.Context().Value(ctxKey{}).(string)
	if !ok {
		proxy = m.GetRandomProxy()
	}

	if proxy == "" {
		if len(m.proxies) > 0 {
			return nil, errs.ErrNoProxiesAvailable
		}

		return nil, nil //nolint:nilnil // direct connection
	}

	m.mu.RLock()
	info := m.proxies[proxy]
	m.mu.RUnlock()

	return info.URL, nil
}

// RoundTripper pins one proxy per request and records the transport outcome against it.
func (m *Manager) RoundTripper(next http.RoundTripper) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		proxy := m.GetRandomProxy()
		if proxy == "" {
			return next.RoundTrip(req)
		}

		if m.metrics != nil {
			m.metrics.RecordProxyRequest(proxy)
		}

		resp, err := next.RoundTrip(req.WithContext(context.WithValue(req.Context(), ctxKey{}, proxy)))
		if err != nil {
			if req.Context().Err() == nil {
				m.MarkFailed(proxy)
			}

			return nil, err
		}

		m.MarkSuccess(proxy)

		return resp, nil
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

// MarkFailed marks a proxy as failed and applies backoff.
func (m *Manager) MarkFailed(proxyURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, exists := m.proxies[proxyURL]
	if !exists {
		return
	}

	info.FailureCount++
	info.LastFailure = time.Now()

	if m.metrics != nil {
		m.metrics.RecordProxyFailure(proxyURL)
	}

	if info.FailureCount >= m.cfg.Proxy.MaxFailures {
		info.State = ProxyStateFailed
		// Exponential backoff
		backoff := m.cfg.Proxy.FailureBackoff * time.Duration(1<<(info.FailureCount-m.cfg.Proxy.MaxFailures))
		if backoff > maxBackoff || backoff <= 0 {
			backoff = maxBackoff
		}

		info.BackoffUntil = time.Now().Add(backoff)

		m.log.Warn("proxy marked as failed",
			slog.String("proxy", proxyURL),
			slog.Int("failure_count", info.FailureCount),
			slog.Duration("backoff", backoff))
	}

	m.reportAvailableLocked()
}

// MarkSuccess marks a proxy as successful and resets failure count.
func (m *Manager) MarkSuccess(proxyURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, exists := m.proxies[proxyURL]
	if !exists {
		return
	}

	info.State = ProxyStateAvailable
	info.FailureCount = 0
	info.BackoffUntil = time.Time{}

	m.reportAvailableLocked()
}

// HealthCheck dials the proxy and updates its state.
func (m *Manager) HealthCheck(ctx context.Context, proxyURL string) error {
	m.mu.RLock()
	info, exists := m.proxies[proxyURL]
	m.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", errs.ErrProxyUnknown, proxyURL)
	}

	dialer := &net.Dialer{
		Timeout: healthCheckTimeout,
	}

	conn, err := dialer.DialContext(ctx, "tcp", hostPort(info.URL))
	if err != nil {
		m.MarkFailed(proxyURL)

		return fmt.Errorf("%w: dial proxy: %w", errs.ErrProxyFailed, err)
	}
	defer conn.Close()

	m.mu.Lock()
	info.LastHealthChk = time.Now()
	m.mu.Unlock()

	m.MarkSuccess(proxyURL)

	return nil
}

func hostPort(u *url.URL) string {
	if u.Port() != "" {
		return u.Host
	}

	switch u.Scheme {
	case "socks5", "socks5h":
		return net.JoinHostPort(u.Hostname(), defaultSOCKSPort)
	case "https":
		return net.JoinHostPort(u.Hostname(), defaultTLSPort)
	default:
		return net.JoinHostPort(u.Hostname(), defaultHTTPPort)
	}
}

// StartHealthChecker starts background health checking for all proxies.
func (m *Manager) StartHealthChecker(ctx context.Context) {
	if m.cfg.Proxy.HealthCheckInterval <= 0 || len(m.proxies) == 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(m.cfg.Proxy.HealthCheckInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkAllProxies(ctx)
			}
		}
	}()

	m.log.Info("proxy health checker started",
		slog.Duration("interval", m.cfg.Proxy.HealthCheckInterval),
		slog.Int("proxy_count", len(m.proxies)))
}

// ProxyStats represents statistics for a proxy.
type ProxyStats struct {
	State         ProxyState
	FailureCount  int
	LastFailure   time.Time
	BackoffUntil  time.Time
	LastHealthChk time.Time
}

// GetStats returns current proxy statistics.
func (m *Manager) GetStats() map[string]ProxyStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]ProxyStats, len(m.proxies))
	for proxyURL, info := range m.proxies {
		stats[proxyURL] = ProxyStats{
			State:         info.State,
			FailureCount:  info.FailureCount,
			LastFailure:   info.LastFailure,
			BackoffUntil:  info.BackoffUntil,
			LastHealthChk: info.LastHealthChk,
		}
	}

	return stats
}

// ProxyCount returns the total number of configured proxies.
func (m *Manager) ProxyCount() int {
	return len(m.proxies)
}

// AvailableCount returns the number of currently available proxies.
func (m *Manager) AvailableCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.getAvailableProxies())
}

func (m *Manager) getAvailableProxies() []string {
	now := time.Now()
	available := make([]string, 0, len(m.order))

	for _, proxyURL := range m.order {
		info := m.proxies[proxyURL]
		if info.State == ProxyStateAvailable || now.After(info.BackoffUntil) {
			available = append(available, proxyURL)
		}
	}

	return available
}

func (m *Manager) reportAvailable() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.reportAvailableLocked()
}

func (m *Manager) reportAvailableLocked() {
	if m.metrics != nil {
		m.metrics.SetProxiesAvailable(len(m.getAvailableProxies()))
	}
}

func (m *Manager) checkAllProxies(ctx context.Context) {
	m.mu.RLock()
	proxies := make([]string, len(m.order))
	copy(proxies, m.order)
	m.mu.RUnlock()

	for _, proxy := range proxies {
		select {
		case <-ctx.Done():
			return
		default:
			if err := m.HealthCheck(ctx, proxy); err != nil {
				m.log.Debug("proxy health check failed",
					slog.String("proxy", proxy),
					slog.Any("error", err))
			}
		}
	}
}
