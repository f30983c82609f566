package request

import (
	"fmt"
	"net/http"
	"strings"

	"cobaltctl/internal/consts"
	"cobaltctl/internal/errs"
	"cobaltctl/pkg/cobalt"
	"cobaltctl/pkg/urls"
)

// Media is the body of POST /v1/media: the extraction options plus an optional preset.
// Options given here take precedence over the preset's.
type Media struct {
	Preset string `json:"preset,omitempty"`
	cobalt.ExtractionRequest
}

func (m *Media) Validate() error {
	m.URL = urls.Normalize(m.URL)
	if !urls.IsURLValid(m.URL) {
		return errs.ErrInvalidURL
	}

	m.Preset = strings.TrimSpace(m.Preset)

	return nil
}

// APIKey extracts the per-call credential from an "Authorization: Api-Key <key>" header.
// A missing header yields "" so the gateway's own key is used.
func APIKey(r *http.Request) (string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", nil
	}

	scheme, key, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, consts.AuthSchemeAPIKey) || strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("%w: got %q", errs.ErrMissingAuthorization, scheme)
	}

	return strings.TrimSpace(key), nil
}
