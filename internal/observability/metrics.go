// Package observability provides Prometheus metrics for the application.
package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"cobaltctl/pkg/cobalt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cobalt"

// Outcome labels.
const (
	OutcomeOK                   = "ok"
	OutcomeCanceled             = "canceled"
	OutcomeRequestError         = "request_error"
	OutcomeAPIError             = "api_error"
	OutcomeDeserializationError = "deserialization_error"
	OutcomeLengthMissing        = "content_length_missing"
	OutcomeLengthZero           = "content_length_zero"
	OutcomeBadStatus            = "bad_status"
	OutcomeInterrupted          = "interrupted"
	OutcomeLengthMismatch       = "length_mismatch"
	OutcomeChecksumMismatch     = "checksum_mismatch"
	OutcomeOther                = "other"
)

// Metrics holds all application metrics.
type Metrics struct {
	registry *prometheus.Registry

	// Instance client metrics
	ClientRequestsTotal   *prometheus.CounterVec
	ClientRequestDuration *prometheus.HistogramVec
	MediaResponsesTotal   *prometheus.CounterVec

	// Download metrics
	DownloadsTotal   *prometheus.CounterVec
	DownloadBytes    prometheus.Counter
	DownloadDuration prometheus.Histogram

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Proxy metrics
	ProxyRequestsTotal *prometheus.CounterVec
	ProxyFailures      *prometheus.CounterVec
	ProxiesAvailable   prometheus.Gauge
}

// New creates all application metrics on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	metrics := &Metrics{
		registry: reg,

		// Instance client metrics
		ClientRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total number of requests sent to the instance",
		}, []string{"op", "outcome"}),
		ClientRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Histogram of instance request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		MediaResponsesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "client",
			Name:      "media_responses_total",
			Help:      "Total number of decoded media responses by status",
		}, []string{"status"}),

		// Download metrics
		DownloadsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "download",
			Name:      "total",
			Help:      "Total number of downloads by outcome",
		}, []string{"outcome"}),
		DownloadBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "download",
			Name:      "bytes_total",
			Help:      "Total bytes written by downloads",
		}),
		DownloadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "download",
			Name:      "duration_seconds",
			Help:      "Histogram of download duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		HTTPResponseSize: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "response_size_bytes",
			Help:      "Histogram of HTTP response sizes in bytes",
			Buckets:   []float64{100, 1000, 10000, 100000, 1000000, 10000000},
		}, []string{"method", "path"}),

		// Proxy metrics
		ProxyRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Total number of requests made through proxies",
		}, []string{"proxy"}),
		ProxyFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "failures_total",
			Help:      "Total number of proxy failures",
		}, []string{"proxy"}),
		ProxiesAvailable: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "available",
			Help:      "Number of currently available proxies",
		}),
	}

	return metrics
}

// Handler returns the Prometheus HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest implements cobalt.Observer.
func (m *Metrics) ObserveRequest(op string, err error, elapsed time.Duration) {
	m.ClientRequestsTotal.WithLabelValues(op, Outcome(err)).Inc()
	m.ClientRequestDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveDownload implements cobalt.Observer.
func (m *Metrics) ObserveDownload(written int64, err error, elapsed time.Duration) {
	m.DownloadsTotal.WithLabelValues(Outcome(err)).Inc()
	m.DownloadBytes.Add(float64(written))
	m.DownloadDuration.Observe(elapsed.Seconds())
}

// RecordMediaResponse counts a decoded media response by its status.
func (m *Metrics) RecordMediaResponse(resp cobalt.Response) {
	m.MediaResponsesTotal.WithLabelValues(resp.Status().String()).Inc()
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration, size int) {
	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(size))
}

// RecordProxyRequest records a proxy request.
func (m *Metrics) RecordProxyRequest(proxy string) {
	m.ProxyRequestsTotal.WithLabelValues(proxy).Inc()
}

// RecordProxyFailure records a proxy failure.
func (m *Metrics) RecordProxyFailure(proxy string) {
	m.ProxyFailures.WithLabelValues(proxy).Inc()
}

// SetProxiesAvailable sets the number of available proxies.
func (m *Metrics) SetProxiesAvailable(count int) {
	m.ProxiesAvailable.Set(float64(count))
}

// Outcome maps an operation error to a bounded label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	case errors.Is(err, cobalt.ErrContentLengthMissing):
		return OutcomeLengthMissing
	case errors.Is(err, cobalt.ErrContentLengthZero):
		return OutcomeLengthZero
	case errors.Is(err, cobalt.ErrUnexpectedStatus):
		return OutcomeBadStatus
	case errors.Is(err, cobalt.ErrContentLengthMismatch):
		return OutcomeLengthMismatch
	case errors.Is(err, cobalt.ErrChecksumMismatch):
		return OutcomeChecksumMismatch
	case errors.Is(err, cobalt.ErrInterrupted):
		return OutcomeInterrupted
	case errors.Is(err, cobalt.ErrAPI):
		return OutcomeAPIError
	case errors.Is(err, cobalt.ErrDeserialization):
		return OutcomeDeserializationError
	case errors.Is(err, cobalt.ErrRequest):
		return OutcomeRequestError
	default:
		return OutcomeOther
	}
}
