package uploader

import (
	"strings"
	"testing"
)

func TestSanitizeContact(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "Alice Motors", "alice-motors"},
		{"phone", "+1 555 0199", "_1-555-0199"},
		{"allowed punctuation", "shop.name_v2-x", "shop.name_v2-x"},
		{"unicode replaced", "café münchen", "caf_-m_nchen"},
		{"trimmed", "  Alice  ", "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeContact(tt.input); got != tt.expected {
				t.Errorf("SanitizeContact(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSanitizeContactLengthCap(t *testing.T) {
	long := strings.Repeat("a", 200)
	if got := SanitizeContact(long); len(got) != 80 {
		t.Errorf("sanitized length = %d, want 80", len(got))
	}
}

func TestImagePath(t *testing.T) {
	got := ImagePath("u1", "s1", "Alice Motors", 4, 2)
	want := "users/u1/sessions/s1/alice-motors/item-004/image-02.jpg"
	if got != want {
		t.Errorf("ImagePath = %q, want %q", got, want)
	}
}

func TestParseDataURL(t *testing.T) {
	contentType, data, err := ParseDataURL("data:image/jpeg;base64,aGVsbG8=")
	if err != nil {
		t.Fatalf("ParseDataURL failed: %v", err)
	}
	if contentType != "image/jpeg" {
		t.Errorf("content type = %q, want image/jpeg", contentType)
	}
	if string(data) != "hello" {
		t.Errorf("payload = %q, want hello", data)
	}
}

func TestParseDataURLErrors(t *testing.T) {
	if _, _, err := ParseDataURL("https://example.com/a.jpg"); err == nil {
		t.Error("expected error for non-data URL")
	}
	if _, _, err := ParseDataURL("data:image/jpeg;base64"); err == nil {
		t.Error("expected error for data URL without payload")
	}
	if _, _, err := ParseDataURL("data:image/jpeg;base64,!!!"); err == nil {
		t.Error("expected error for invalid base64 payload")
	}
}
