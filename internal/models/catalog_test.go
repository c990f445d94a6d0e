package models

import "testing"

func TestNormalizeField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "Sedan X", "sedan x"},
		{"trim", "  Sedan X  ", "sedan x"},
		{"collapse whitespace", "Sedan \t  X\n2024", "sedan x 2024"},
		{"empty", "", ""},
		{"whitespace only", "   \t  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeField(tt.input); got != tt.expected {
				t.Errorf("NormalizeField(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestItemKey(t *testing.T) {
	key := ItemKey("Alice Motors", "Sedan X", "Reliable family car", "$20,000")
	expected := "alice motors||sedan x||reliable family car||$20,000"
	if key != expected {
		t.Errorf("ItemKey = %q, want %q", key, expected)
	}

	// Formatting noise must not change identity
	noisy := ItemKey(" alice  MOTORS ", "SEDAN X", "Reliable  family car", "$20,000 ")
	if noisy != key {
		t.Errorf("normalized keys differ: %q vs %q", noisy, key)
	}

	// Any differing part yields a different key
	other := ItemKey("Alice Motors", "Sedan X", "Reliable family car", "$21,000")
	if other == key {
		t.Error("items with different prices must not share a key")
	}
}

func TestCatalogItemKeyMatchesStoredItem(t *testing.T) {
	scraped := &CatalogItem{Contact: "Alice Motors", Name: "Sedan X", Snippet: "Reliable", Price: "$20,000"}
	stored := &StoredItem{Contact: "alice motors", Name: "sedan x", Snippet: "reliable", Price: "$20,000"}

	if scraped.Key() != stored.Key() {
		t.Errorf("scraped key %q does not match stored key %q", scraped.Key(), stored.Key())
	}
}

func TestSessionProgressAdvance(t *testing.T) {
	p := SessionProgress{Success: 3, Failure: 1}

	p.Advance(10)
	if p.Total != 10 {
		t.Errorf("Total = %d, want hint 10", p.Total)
	}

	// A smaller hint never moves Total down
	p.Advance(5)
	if p.Total != 10 {
		t.Errorf("Total = %d, want 10 after smaller hint", p.Total)
	}

	// Counters overtaking the hint move Total up
	p.Success = 12
	p.Advance(0)
	if p.Total != 13 {
		t.Errorf("Total = %d, want success+failure = 13", p.Total)
	}
}
