package models

import (
	"strings"
	"time"
)

// CatalogItem is a single product scraped from a business catalog.
// Name, Snippet and Price come from the card in the catalog list; Description
// and Images come from the item detail view.
type CatalogItem struct {
	Contact     string    `json:"contact"`     // Business contact the item belongs to
	Name        string    `json:"name"`        // First card span
	Snippet     string    `json:"snippet"`     // Second card span (truncated description)
	Price       string    `json:"price"`       // Third card span, as displayed
	Description string    `json:"description"` // Full description from the detail view
	Images      []string  `json:"-"`           // Captured JPEG data URLs, in page order
	ScrapedAt   time.Time `json:"scraped_at"`
}

// Key returns the identity key for this item.
func (i *CatalogItem) Key() string {
	return ItemKey(i.Contact, i.Name, i.Snippet, i.Price)
}

// ItemKey builds the identity key used for dedup during the walk and for
// matching against previously uploaded items. Each part is normalized
// (trimmed, lowercased, internal whitespace collapsed) and the parts are
// joined with "||". The same item always maps to the same key across runs.
func ItemKey(contact, name, snippet, price string) string {
	return strings.Join([]string{
		NormalizeField(contact),
		NormalizeField(name),
		NormalizeField(snippet),
		NormalizeField(price),
	}, "||")
}

// NormalizeField trims, lowercases, and collapses runs of whitespace to a
// single space.
func NormalizeField(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
