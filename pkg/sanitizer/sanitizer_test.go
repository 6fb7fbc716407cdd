package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"E.164", "+14155552671", "+14155552671"},
		{"international with spaces", "+972 50 234 5678", "+972502345678"},
		{"US national format", "(201) 555-0123", "+12015550123"},
		{"surrounding whitespace", "  +14155552671  ", "+14155552671"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"garbage", "call me maybe", ""},
		{"too short", "+1 555", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.input); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if tt.want != "" && NormalizePhone(tt.want) != tt.want {
				t.Errorf("NormalizePhone should be idempotent for %q", tt.want)
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Ada   Lovelace ", "Ada Lovelace"},
		{"Grace\tHopper\n", "Grace Hopper"},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeName(tt.input); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	in := "  I'd like help with\r\n\r\n\r\nsystem design   \ninterviews.  "
	want := "I'd like help with\n\nsystem design\ninterviews."
	if got := NormalizeText(in); got != want {
		t.Errorf("NormalizeText() = %q, want %q", got, want)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Student@Example.COM "); got != "student@example.com" {
		t.Errorf("unexpected email %q", got)
	}
}

func TestNormalizeMeetingLink(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://Zoom.us/j/123?pwd=AbC&utm_source=mail", "https://zoom.us/j/123?pwd=AbC"},
		{"meet.google.com/abc-defg-hij", "https://meet.google.com/abc-defg-hij"},
		{"http://example.com/room", "https://example.com/room"},
		{"", ""},
		{"https://", ""},
	}

	for _, tt := range tests {
		if got := NormalizeMeetingLink(tt.input); got != tt.want {
			t.Errorf("NormalizeMeetingLink(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeSlice(t *testing.T) {
	got := NormalizeSlice([]string{" a@x.io", "A@X.io", "", "b@x.io"}, NormalizeEmail)
	if len(got) != 2 || got[0] != "a@x.io" || got[1] != "b@x.io" {
		t.Errorf("unexpected result %v", got)
	}
}
