package urls

import "testing"

func TestIsURLValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"https://cobalt.example.com", true},
		{"http://localhost:9000/", true},
		{"cobalt.example.com", false},
		{"ftp://cobalt.example.com", false},
		{"https://", false},
		{"", false},
	}

	for _, tc := range tests {
		if got := IsURLValid(tc.in); got != tc.want {
			t.Errorf("IsURLValid(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFixURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"https://youtube.com/watch?v=1", "https://youtube.com/watch?v=1"},
		{"http://example.com", "http://example.com"},
		{"//youtu.be/abc", "https://youtu.be/abc"},
		{"instagram.com/p/1", "https://instagram.com/p/1"},
		{" ftp://example.com/a ", "https://example.com/a"},
	}

	for _, tc := range tests {
		if got := FixURL(tc.in); got != tc.want {
			t.Errorf("FixURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	if got := Normalize("  https://example.com/watch?v=1  "); got != "https://example.com/watch?v=1" {
		t.Errorf("Normalize() = %q", got)
	}
}
