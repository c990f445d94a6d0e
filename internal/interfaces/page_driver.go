package interfaces

import (
	"context"
)

// Target is a semantic page target: a stable name plus the CSS selectors that
// currently resolve it. Selectors are tried in order; WhatsApp Web markup
// shifts between releases, so fallbacks keep the walk alive across updates.
type Target struct {
	Name      string
	Selectors []string
}

// Element is an opaque handle to a resolved page element. ObjectID is the
// driver-specific node reference; Selector records which selector matched,
// for logging.
type Element struct {
	ObjectID string
	Selector string
}

// PageDriver abstracts the live WhatsApp Web page. The chromedp
// implementation drives a real browser; tests substitute an in-memory fake.
// All methods honor the context deadline.
type PageDriver interface {
	// Find resolves a target, trying each selector in order. Returns a
	// TargetError when nothing matches.
	Find(ctx context.Context, target Target) (*Element, error)

	// FindAll resolves every element matching the target's first selector
	// that has matches, in document order.
	FindAll(ctx context.Context, target Target) ([]*Element, error)

	// FindByText resolves the first element matching selector whose exact
	// trimmed text equals text.
	FindByText(ctx context.Context, selector, text string) (*Element, error)

	// Click activates an element the way a user would, descending into
	// nested clickable children when the outer node ignores the gesture.
	Click(ctx context.Context, el *Element) error

	// InsertText focuses the element and types text into it, firing the
	// input events the page listens for.
	InsertText(ctx context.Context, el *Element, text string) error

	// ScrollIntoView brings the element into the viewport.
	ScrollIntoView(ctx context.Context, el *Element) error

	// SpanTexts returns the texts of the element's dir=auto spans in
	// document order.
	SpanTexts(ctx context.Context, el *Element) ([]string, error)

	// TextBeforeAnchor scrolls the target into view and returns the text of
	// its previous sibling. Returns a TargetError when the anchor is absent.
	TextBeforeAnchor(ctx context.Context, target Target) (string, error)

	// CaptureImages re-encodes every detail image on the current view to a
	// JPEG data URL at the given quality. Images that cannot be read
	// (cross-origin canvas taint) are skipped without error.
	CaptureImages(ctx context.Context, quality float64) ([]string, error)
}
