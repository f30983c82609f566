package cobalt

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed exchange with a cobalt instance.
type ErrorKind int

const (
	// KindRequest means the network exchange could not complete (DNS, connect, timeout, TLS).
	KindRequest ErrorKind = iota
	// KindAPI means the instance answered with a non-success status code.
	KindAPI
	// KindDeserialization means the instance answered successfully but the payload had an unexpected shape.
	KindDeserialization
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindAPI:
		return "api"
	case KindDeserialization:
		return "deserialization"
	default:
		return "unknown"
	}
}

// Kind sentinels, matched by errors.Is against any *MediaError of that kind.
var (
	ErrRequest         = errors.New("request error")
	ErrAPI             = errors.New("api error")
	ErrDeserialization = errors.New("deserialization error")
)

// Client errors.
var (
	// ErrMissingAPIKey indicates that the client was constructed without a credential.
	ErrMissingAPIKey = errors.New("api key is required")
	// ErrMissingInstanceURI indicates that the client was constructed without an instance URI.
	ErrMissingInstanceURI = errors.New("instance uri is required")
	// ErrNoServices indicates that the instance is online but reports no enabled services.
	ErrNoServices = errors.New("no services found")
)

// Model errors.
var (
	// ErrEmptyURL indicates that an extraction request has no source URL.
	ErrEmptyURL = errors.New("url is empty")
	// ErrUnknownDownloadMode indicates that a string does not name a download mode.
	ErrUnknownDownloadMode = errors.New("unknown download mode")
	// ErrNoVariantMatched indicates that a payload matched none of the response shapes.
	ErrNoVariantMatched = errors.New("payload matches no response variant")
)

// Download errors.
var (
	// ErrContentLengthMissing indicates that the source did not declare a Content-Length.
	ErrContentLengthMissing = errors.New("content-length header is missing")
	// ErrContentLengthZero indicates that the source declared a Content-Length of 0.
	ErrContentLengthZero = errors.New("content-length is 0 bytes")
	// ErrUnexpectedStatus indicates that the source answered with a non-success status.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrInterrupted indicates that copying the body failed mid-stream.
	ErrInterrupted = errors.New("download interrupted")
	// ErrContentLengthMismatch indicates that the copied byte count differs from Content-Length.
	ErrContentLengthMismatch = errors.New("content-length mismatch")
	// ErrChecksumMismatch indicates that the downloaded bytes do not hash to the expected sum.
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// MediaError is returned by the protocol operations. It never carries partial data.
type MediaError struct {
	Kind ErrorKind
	// StatusCode is set for KindAPI.
	StatusCode int
	// Body is the best-effort response body for KindAPI; empty if it could not be read.
	Body string
	Err  error
}

func (e *MediaError) Error() string {
	switch e.Kind {
	case KindAPI:
		if e.Body != "" {
			return fmt.Sprintf("api error: request failed with status %d: %s", e.StatusCode, e.Body)
		}

		return fmt.Sprintf("api error: request failed with status %d", e.StatusCode)
	case KindRequest:
		return fmt.Sprintf("request error: %v", e.Err)
	default:
		return fmt.Sprintf("deserialization error: %v", e.Err)
	}
}

func (e *MediaError) Unwrap() error { return e.Err }

// Is reports kind equality with the ErrRequest, ErrAPI and ErrDeserialization sentinels.
func (e *MediaError) Is(target error) bool {
	switch target {
	case ErrRequest:
		return e.Kind == KindRequest
	case ErrAPI:
		return e.Kind == KindAPI
	case ErrDeserialization:
		return e.Kind == KindDeserialization
	}

	return false
}

// DownloadError reports a non-success status from a download source.
type DownloadError struct {
	StatusCode int
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("%s: HTTP %d", ErrUnexpectedStatus, e.StatusCode)
}

// Is matches ErrUnexpectedStatus.
func (e *DownloadError) Is(target error) bool { return target == ErrUnexpectedStatus }

func requestError(err error) error {
	return &MediaError{Kind: KindRequest, Err: err}
}

func decodeError(err error) error {
	return &MediaError{Kind: KindDeserialization, Err: err}
}
