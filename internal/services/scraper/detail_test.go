package scraper

import (
	"context"
	"testing"

	"github.com/ternarybob/arbor"
)

func newTestExtractor(page *fakePage) *DetailExtractor {
	return NewDetailExtractor(page, walkerConfig(5), arbor.NewLogger())
}

func TestCaptureReadsDescriptionAndImages(t *testing.T) {
	page := newFakePage([]fakeCard{
		{
			spans:       []string{"Sedan X", "Reliable", "$20,000"},
			description: "A reliable family car",
			images:      []string{"data:image/jpeg;base64,aGVsbG8="},
		},
	})
	page.openCard = 0

	description, images, err := newTestExtractor(page).Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if description != "A reliable family car" {
		t.Errorf("description = %q", description)
	}
	if len(images) != 1 {
		t.Errorf("images = %d, want 1", len(images))
	}
}

func TestCaptureExpandsTruncatedDescription(t *testing.T) {
	page := newFakePage([]fakeCard{
		{
			spans:       []string{"Sedan X", "Reliable", "$20,000"},
			description: "A reliable...",
			expanded:    "A reliable family car with full history",
		},
	})
	page.openCard = 0

	description, _, err := newTestExtractor(page).Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if description != "A reliable family car with full history" {
		t.Errorf("description = %q, want the expanded text", description)
	}
	// The extractor must back out of the expanded view so the walker can
	// return to the list afterwards.
	if page.expandedView {
		t.Error("expanded view left open after capture")
	}
	if page.openCard != 0 {
		t.Error("capture must stay on the detail view, not the list")
	}
}

func TestCaptureMissingAnchorMeansEmptyDescription(t *testing.T) {
	page := newFakePage([]fakeCard{
		{
			spans:    []string{"Sedan X", "Reliable", "$20,000"},
			images:   []string{"data:image/jpeg;base64,aGVsbG8="},
			noAnchor: true,
		},
	})
	page.openCard = 0

	description, images, err := newTestExtractor(page).Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if description != "" {
		t.Errorf("description = %q, want empty", description)
	}
	// Images are still captured even when the description is missing
	if len(images) != 1 {
		t.Errorf("images = %d, want 1", len(images))
	}
}

func TestSpaceBeforeLink(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"glued link", "Call nowhttps://example.com", "Call now https://example.com"},
		{"first occurrence only", "https://a.com and https://b.com", " https://a.com and https://b.com"},
		{"no link", "Just a description", "Just a description"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpaceBeforeLink(tt.input); got != tt.expected {
				t.Errorf("SpaceBeforeLink(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
