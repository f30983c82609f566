package observability_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cobaltctl/internal/observability"
	"cobaltctl/pkg/cobalt"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, observability.OutcomeOK},
		{"canceled", fmt.Errorf("send request: %w", context.Canceled), observability.OutcomeCanceled},
		{"deadline", context.DeadlineExceeded, observability.OutcomeCanceled},
		{"missing length", cobalt.ErrContentLengthMissing, observability.OutcomeLengthMissing},
		{"zero length", cobalt.ErrContentLengthZero, observability.OutcomeLengthZero},
		{"status", &cobalt.DownloadError{StatusCode: 404}, observability.OutcomeBadStatus},
		{"interrupted", fmt.Errorf("%w: reset", cobalt.ErrInterrupted), observability.OutcomeInterrupted},
		{"mismatch", cobalt.ErrContentLengthMismatch, observability.OutcomeLengthMismatch},
		{"checksum", cobalt.ErrChecksumMismatch, observability.OutcomeChecksumMismatch},
		{"api", &cobalt.MediaError{Kind: cobalt.KindAPI, StatusCode: 500}, observability.OutcomeAPIError},
		{"decode", &cobalt.MediaError{Kind: cobalt.KindDeserialization, Err: errors.New("x")}, observability.OutcomeDeserializationError},
		{"request", &cobalt.MediaError{Kind: cobalt.KindRequest, Err: errors.New("dial")}, observability.OutcomeRequestError},
		{"other", errors.New("boom"), observability.OutcomeOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := observability.Outcome(tt.err); got != tt.want {
				t.Errorf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}

func TestMetrics_Observer(t *testing.T) {
	t.Parallel()

	m := observability.New()

	m.ObserveRequest(cobalt.OpStatus, nil, 10*time.Millisecond)
	m.ObserveRequest(cobalt.OpGetMedia, &cobalt.MediaError{Kind: cobalt.KindAPI}, time.Millisecond)
	m.ObserveDownload(2048, nil, time.Second)
	m.ObserveDownload(0, cobalt.ErrContentLengthZero, time.Millisecond)

	if got := testutil.ToFloat64(m.ClientRequestsTotal.WithLabelValues(cobalt.OpStatus, observability.OutcomeOK)); got != 1 {
		t.Errorf("status ok = %v, want 1", got)
	}

	if got := testutil.ToFloat64(m.ClientRequestsTotal.WithLabelValues(cobalt.OpGetMedia, observability.OutcomeAPIError)); got != 1 {
		t.Errorf("get_media api_error = %v, want 1", got)
	}

	if got := testutil.ToFloat64(m.DownloadBytes); got != 2048 {
		t.Errorf("download bytes = %v, want 2048", got)
	}

	if got := testutil.ToFloat64(m.DownloadsTotal.WithLabelValues(observability.OutcomeLengthZero)); got != 1 {
		t.Errorf("zero-length downloads = %v, want 1", got)
	}
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	// two instances must not collide on registration
	_ = observability.New()
	m := observability.New()

	m.RecordHTTPRequest(http.MethodGet, "/v1/readyz", http.StatusOK, time.Millisecond, 42)
	m.RecordMediaResponse(&cobalt.RedirectResponse{StatusMarker: "redirect", URL: "u", Filename: "f"})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	for _, want := range []string{
		`cobalt_http_requests_total{method="GET",path="/v1/readyz",status="200"} 1`,
		`cobalt_client_media_responses_total{status="redirect"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}
