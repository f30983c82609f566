package cobalt_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"cobaltctl/pkg/cobalt"
	"cobaltctl/pkg/ptr"
)

func TestParseResponse_Status(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want cobalt.Status
	}{
		{
			name: "error without context",
			body: `{"status":"error","error":{"code":"error.api.link.invalid"}}`,
			want: cobalt.StatusError,
		},
		{
			name: "error with context",
			body: `{"status":"error","error":{"code":"error.api.content.too_long","context":{"service":"youtube","limit":10800}}}`,
			want: cobalt.StatusError,
		},
		{
			name: "redirect",
			body: `{"status":"redirect","url":"https://cdn.example.com/v.mp4","filename":"v.mp4"}`,
			want: cobalt.StatusRedirect,
		},
		{
			name: "tunnel is structurally a redirect",
			body: `{"status":"tunnel","url":"https://inst.example.com/tunnel?id=1","filename":"a.mp3"}`,
			want: cobalt.StatusRedirect,
		},
		{
			name: "empty picker",
			body: `{"status":"picker","picker":[]}`,
			want: cobalt.StatusPicker,
		},
		{
			name: "picker with audio and unknown fields",
			body: `{"status":"picker","audio":"https://a","audioFilename":"a.mp3","extra":1,"picker":[{"type":"photo","url":"https://p/1"}]}`,
			want: cobalt.StatusPicker,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := cobalt.ParseResponse([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseResponse() error = %v", err)
			}

			if got := resp.Status(); got != tt.want {
				t.Errorf("Status() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseResponse_NoMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "status only", body: `{"status":"error"}`},
		{name: "error without code", body: `{"status":"error","error":{}}`},
		{name: "redirect without filename", body: `{"status":"redirect","url":"https://x"}`},
		{name: "null url", body: `{"status":"redirect","url":null,"filename":"f"}`},
		{name: "picker item without url", body: `{"status":"picker","picker":[{"type":"photo"}]}`},
		{name: "picker not an array", body: `{"status":"picker","picker":{}}`},
		{name: "wrong type", body: `{"status":1,"url":"https://x","filename":"f"}`},
		{name: "array", body: `[]`},
		{name: "null", body: `null`},
		{name: "not json", body: `<html></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := cobalt.ParseResponse([]byte(tt.body))
			if err == nil {
				t.Fatalf("ParseResponse() = %#v, want error", resp)
			}
		})
	}
}

func TestParseResponse_NoMatchWrapsSentinel(t *testing.T) {
	t.Parallel()

	_, err := cobalt.ParseResponse([]byte(`{"status":"ok"}`))
	if !errors.Is(err, cobalt.ErrNoVariantMatched) {
		t.Errorf("error = %v, want ErrNoVariantMatched", err)
	}
}

func TestParseResponse_ErrorRoundTrip(t *testing.T) {
	t.Parallel()

	body := `{"status":"error","error":{"code":"error.api.fetch.rate","context":{"service":"twitter","limit":5}}}`

	first, err := cobalt.ParseResponse([]byte(body))
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}

	want := &cobalt.ErrorResponse{
		StatusMarker: "error",
		Error: cobalt.ErrorDetails{
			Code: "error.api.fetch.rate",
			Context: &cobalt.ErrorContext{
				Service: ptr.Of("twitter"),
				Limit:   ptr.Of(uint64(5)),
			},
		},
	}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("decoded = %#v, want %#v", first, want)
	}

	data, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	second, err := cobalt.ParseResponse(data)
	if err != nil {
		t.Fatalf("ParseResponse(re-encoded) error = %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("round trip = %#v, want %#v", second, first)
	}
}

func TestParseResponse_PickerOrder(t *testing.T) {
	t.Parallel()

	body := `{"status":"picker","picker":[
		{"type":"video","url":"https://m/3","thumb":"https://t/3"},
		{"type":"photo","url":"https://m/1"},
		{"type":"gif","url":"https://m/2"}
	]}`

	resp, err := cobalt.ParseResponse([]byte(body))
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}

	picker, ok := resp.(*cobalt.PickerResponse)
	if !ok {
		t.Fatalf("response type = %T, want *PickerResponse", resp)
	}

	want := []cobalt.MediaItem{
		{Type: "video", URL: "https://m/3", Thumb: ptr.Of("https://t/3")},
		{Type: "photo", URL: "https://m/1"},
		{Type: "gif", URL: "https://m/2"},
	}
	if !reflect.DeepEqual(picker.Picker, want) {
		t.Errorf("picker = %#v, want %#v", picker.Picker, want)
	}
}

func TestParseResponse_ErrorWinsTrialOrder(t *testing.T) {
	t.Parallel()

	// satisfies both the error and redirect shapes
	body := `{"status":"error","error":{"code":"x"},"url":"https://x","filename":"f"}`

	resp, err := cobalt.ParseResponse([]byte(body))
	if err != nil {
		t.Fatalf("ParseResponse() error = %v", err)
	}

	if resp.Status() != cobalt.StatusError {
		t.Errorf("Status() = %v, want error", resp.Status())
	}
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	body := `{"cobalt":{"version":"10.1.0","url":"https://api.example.com/","startTime":"1730000000000",
		"durationLimit":10800,"services":["youtube","tiktok","bilibili"]},
		"git":{"branch":"main","commit":"abc123","remote":"imputnet/cobalt"}}`

	status, err := cobalt.ParseStatus([]byte(body))
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}

	want := &cobalt.ServiceStatus{
		Cobalt: cobalt.Instance{
			Version:       "10.1.0",
			URL:           "https://api.example.com/",
			StartTime:     "1730000000000",
			DurationLimit: 10800,
			Services:      []string{"youtube", "tiktok", "bilibili"},
		},
		Git: cobalt.Git{Branch: "main", Commit: "abc123", Remote: "imputnet/cobalt"},
	}
	if !reflect.DeepEqual(status, want) {
		t.Errorf("status = %#v, want %#v", status, want)
	}

	if _, err := cobalt.ParseStatus([]byte(`{"cobalt":{"version":"10"},"git":{}}`)); err == nil {
		t.Error("ParseStatus() with missing fields: expected error")
	}
}

func TestParseResponse_AudioFilenameKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want *string
	}{
		{name: "camel case", body: `{"status":"picker","audio":"https://a","audioFilename":"a.mp3","picker":[]}`, want: ptr.Of("a.mp3")},
		{name: "snake case is ignored", body: `{"status":"picker","audio":"https://a","audio_filename":"a.mp3","picker":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			resp, err := cobalt.ParseResponse([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseResponse() error = %v", err)
			}

			picker, ok := resp.(*cobalt.PickerResponse)
			if !ok {
				t.Fatalf("response type = %T", resp)
			}

			if !reflect.DeepEqual(picker.AudioFilename, tt.want) {
				t.Errorf("AudioFilename = %v, want %v", ptr.Deref(picker.AudioFilename), ptr.Deref(tt.want))
			}
		})
	}
}
