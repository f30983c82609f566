// Package urls provides utility functions for working with URLs.
package urls

import (
	"net/url"
	"strings"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// IsURLValid checks if the given URL is valid.
func IsURLValid(raw string) bool {
	u, err := url.Parse(raw)

	return err == nil && u.Scheme != "" && u.Host != "" && (u.Scheme == schemeHTTP || u.Scheme == schemeHTTPS)
}

// FixURL makes raw an https URL when it has no http(s) scheme.
// Example: instagram.com/p/1 => https://instagram.com/p/1
func FixURL(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || u.Scheme == schemeHTTP || u.Scheme == schemeHTTPS {
		return raw
	}

	if u.Host == "" {
		fixed, err := url.Parse(schemeHTTPS + "://" + strings.TrimPrefix(raw, "//"))
		if err != nil {
			return raw
		}

		return fixed.String()
	}

	u.Scheme = schemeHTTPS

	return u.String()
}

// Normalize trims spaces, parses and returns the URL in string format.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	return u.String()
}
