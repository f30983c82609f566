// Package errs defines common error variables used across the application.
package errs

import "errors"

var (
	// ErrInvalidRequestBody indicates that the request body is invalid or cannot be parsed.
	ErrInvalidRequestBody = errors.New("invalid request body")
	// ErrMissingAuthorization indicates that an Authorization header is present but not of the Api-Key scheme.
	ErrMissingAuthorization = errors.New("authorization must use the Api-Key scheme")
)

// Valid request errors.
var (
	// ErrInvalidURL indicates that the URL field in the request is invalid.
	ErrInvalidURL = errors.New("invalid url field")
	// ErrInvalidItem indicates that the item query parameter is not a picker index.
	ErrInvalidItem = errors.New("invalid item parameter")
)

// Preset errors.
var (
	// ErrPresetNotFound indicates that no preset with the given name is loaded.
	ErrPresetNotFound = errors.New("preset not found")
	// ErrPresetInvalid indicates that a preset file entry has an invalid value.
	ErrPresetInvalid = errors.New("preset invalid")
)

// Download errors.
var (
	// ErrNotDownloadable indicates that the media response carries no single file to fetch.
	ErrNotDownloadable = errors.New("media response has no single file to download")
	// ErrUnsafeFilename indicates that a server supplied filename escapes the download directory.
	ErrUnsafeFilename = errors.New("unsafe filename")
)

// Proxy errors.
var (
	// ErrNoProxiesAvailable indicates that no proxies are available.
	ErrNoProxiesAvailable = errors.New("no proxies available")
	// ErrProxyFailed indicates that the proxy request failed.
	ErrProxyFailed = errors.New("proxy failed")
	// ErrInvalidProxy indicates that a configured proxy URL cannot be used.
	ErrInvalidProxy = errors.New("invalid proxy")
	// ErrProxyUnknown indicates that the proxy is not managed by this manager.
	ErrProxyUnknown = errors.New("unknown proxy")
)
