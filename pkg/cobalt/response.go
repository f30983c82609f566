package cobalt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Status is the variant tag of a Response.
type Status int

// Response variants.
const (
	StatusError Status = iota
	StatusPicker
	StatusRedirect
)

// String returns the variant name.
func (s Status) String() string {
	switch s {
	case StatusError:
		return "error"
	case StatusPicker:
		return "picker"
	case StatusRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Response is one of *ErrorResponse, *PickerResponse or *RedirectResponse.
// The wire format carries no discriminant, see ParseResponse.
type Response interface {
	Status() Status
	isResponse()
}

// ErrorContext gives optional detail about an error code.
type ErrorContext struct {
	Service *string `json:"service,omitempty"`
	Limit   *uint64 `json:"limit,omitempty"`
}

// ErrorDetails holds the machine-readable error code.
type ErrorDetails struct {
	Code    string        `json:"code"`
	Context *ErrorContext `json:"context,omitempty"`
}

// ErrorResponse is returned when the instance refuses or fails an extraction.
type ErrorResponse struct {
	StatusMarker string       `json:"status"`
	Error        ErrorDetails `json:"error"`
}

// MediaItem is a single picker entry.
type MediaItem struct {
	Type  string  `json:"type"`
	URL   string  `json:"url"`
	Thumb *string `json:"thumb,omitempty"`
}

// PickerResponse offers several items to choose from, in presentation order.
type PickerResponse struct {
	StatusMarker  string      `json:"status"`
	Audio         *string     `json:"audio,omitempty"`
	AudioFilename *string     `json:"audioFilename,omitempty"`
	Picker        []MediaItem `json:"picker"`
}

// RedirectResponse resolves the source to a single downloadable URL.
type RedirectResponse struct {
	StatusMarker string `json:"status"`
	URL          string `json:"url"`
	Filename     string `json:"filename"`
}

func (*ErrorResponse) Status() Status    { return StatusError }
func (*PickerResponse) Status() Status   { return StatusPicker }
func (*RedirectResponse) Status() Status { return StatusRedirect }

func (*ErrorResponse) isResponse()    {}
func (*PickerResponse) isResponse()   {}
func (*RedirectResponse) isResponse() {}

type fields map[string]json.RawMessage

// variants lists the trial order used by ParseResponse. Order is fixed: Error, Picker, Redirect.
var variants = []struct {
	name  string
	match func(data []byte, obj fields) (Response, error)
}{
	{name: "error", match: matchError},
	{name: "picker", match: matchPicker},
	{name: "redirect", match: matchRedirect},
}

// ParseResponse decodes an untagged response payload. Each variant is tried in
// the order Error, Picker, Redirect and accepted when all of its required fields
// are present and well-typed. Unknown fields are ignored.
func ParseResponse(data []byte) (Response, error) {
	obj, err := object(data)
	if err != nil {
		return nil, err
	}

	var errs []error

	for _, v := range variants {
		resp, err := v.match(data, obj)
		if err == nil {
			return resp, nil
		}

		errs = append(errs, fmt.Errorf("%s: %w", v.name, err))
	}

	return nil, fmt.Errorf("%w: %w", ErrNoVariantMatched, errors.Join(errs...))
}

func matchError(data []byte, obj fields) (Response, error) {
	if err := obj.require("status", "error"); err != nil {
		return nil, err
	}

	details, err := object(obj["error"])
	if err != nil {
		return nil, fmt.Errorf("field error: %w", err)
	}

	if err := details.require("code"); err != nil {
		return nil, fmt.Errorf("field error: %w", err)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func matchPicker(data []byte, obj fields) (Response, error) {
	if err := obj.require("status", "picker"); err != nil {
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(obj["picker"], &items); err != nil {
		return nil, fmt.Errorf("field picker: %w", err)
	}

	for i, raw := range items {
		item, err := object(raw)
		if err != nil {
			return nil, fmt.Errorf("picker[%d]: %w", i, err)
		}

		if err := item.require("type", "url"); err != nil {
			return nil, fmt.Errorf("picker[%d]: %w", i, err)
		}
	}

	var resp PickerResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	if resp.Picker == nil {
		resp.Picker = []MediaItem{}
	}

	return &resp, nil
}

func matchRedirect(data []byte, obj fields) (Response, error) {
	if err := obj.require("status", "url", "filename"); err != nil {
		return nil, err
	}

	var resp RedirectResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// object decodes data as a JSON object. null and non-object values are rejected.
func object(data []byte) (fields, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fmt.Errorf("expected JSON object")
	}

	var obj fields
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}

	return obj, nil
}

// require checks that every name is present and not null.
func (f fields) require(names ...string) error {
	for _, name := range names {
		raw, ok := f[name]
		if !ok {
			return fmt.Errorf("missing field %q", name)
		}

		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return fmt.Errorf("field %q is null", name)
		}
	}

	return nil
}
