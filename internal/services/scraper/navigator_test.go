package scraper

import (
	"context"
	"fmt"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/browser"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// fakeChatPage implements interfaces.PageDriver for navigation tests
type fakeChatPage struct {
	searchActive bool // Cancel button present
	resultRows   int  // Rows in the results panel, header included
	hasCatalog   bool
	typed        string
	clicks       []string
}

func (f *fakeChatPage) Find(ctx context.Context, target interfaces.Target) (*interfaces.Element, error) {
	switch target.Name {
	case browser.TargetCancelSearch.Name:
		if !f.searchActive {
			return nil, interfaces.TargetError(target.Name)
		}
		return &interfaces.Element{ObjectID: "cancel"}, nil
	case browser.TargetSearchBox.Name:
		return &interfaces.Element{ObjectID: "search"}, nil
	case browser.TargetCatalogButton.Name:
		if !f.hasCatalog {
			return nil, interfaces.TargetError(target.Name)
		}
		return &interfaces.Element{ObjectID: "catalog"}, nil
	case browser.TargetBackButton.Name:
		return &interfaces.Element{ObjectID: "back"}, nil
	default:
		return nil, interfaces.TargetError(target.Name)
	}
}

func (f *fakeChatPage) FindAll(ctx context.Context, target interfaces.Target) ([]*interfaces.Element, error) {
	if target.Name != browser.TargetResultRows.Name {
		return nil, interfaces.TargetError(target.Name)
	}
	els := make([]*interfaces.Element, f.resultRows)
	for i := range els {
		els[i] = &interfaces.Element{ObjectID: fmt.Sprintf("row-%d", i)}
	}
	return els, nil
}

func (f *fakeChatPage) FindByText(ctx context.Context, selector, text string) (*interfaces.Element, error) {
	return nil, interfaces.TargetError("text " + text)
}

func (f *fakeChatPage) Click(ctx context.Context, el *interfaces.Element) error {
	f.clicks = append(f.clicks, el.ObjectID)
	if el.ObjectID == "cancel" {
		f.searchActive = false
	}
	return nil
}

func (f *fakeChatPage) InsertText(ctx context.Context, el *interfaces.Element, text string) error {
	f.typed = text
	f.searchActive = true
	return nil
}

func (f *fakeChatPage) ScrollIntoView(ctx context.Context, el *interfaces.Element) error {
	return nil
}

func (f *fakeChatPage) SpanTexts(ctx context.Context, el *interfaces.Element) ([]string, error) {
	return nil, nil
}

func (f *fakeChatPage) TextBeforeAnchor(ctx context.Context, target interfaces.Target) (string, error) {
	return "", interfaces.TargetError(target.Name)
}

func (f *fakeChatPage) CaptureImages(ctx context.Context, quality float64) ([]string, error) {
	return nil, nil
}

func newTestNavigator(page *fakeChatPage) *Navigator {
	return NewNavigator(page, walkerConfig(5), arbor.NewLogger())
}

func TestOpenContactCatalog(t *testing.T) {
	page := &fakeChatPage{resultRows: 3, hasCatalog: true}

	if err := newTestNavigator(page).OpenContactCatalog(context.Background(), "Alice Motors"); err != nil {
		t.Fatalf("OpenContactCatalog failed: %v", err)
	}

	if page.typed != "Alice Motors" {
		t.Errorf("typed = %q, want the contact name", page.typed)
	}

	// Row 0 is the section header; the first contact is row 1
	expected := []string{"search", "row-1", "catalog"}
	if len(page.clicks) != len(expected) {
		t.Fatalf("clicks = %v, want %v", page.clicks, expected)
	}
	for i, want := range expected {
		if page.clicks[i] != want {
			t.Errorf("click[%d] = %q, want %q", i, page.clicks[i], want)
		}
	}
}

func TestOpenContactCatalogClearsPendingSearch(t *testing.T) {
	page := &fakeChatPage{searchActive: true, resultRows: 3, hasCatalog: true}

	if err := newTestNavigator(page).OpenContactCatalog(context.Background(), "Alice Motors"); err != nil {
		t.Fatalf("OpenContactCatalog failed: %v", err)
	}

	if len(page.clicks) == 0 || page.clicks[0] != "cancel" {
		t.Errorf("clicks = %v, want the pending search cancelled first", page.clicks)
	}
}

func TestOpenContactCatalogNoMatch(t *testing.T) {
	// Only the section header renders when nothing matches
	page := &fakeChatPage{resultRows: 1, hasCatalog: true}

	if err := newTestNavigator(page).OpenContactCatalog(context.Background(), "Nobody"); err == nil {
		t.Fatal("expected error when no contact matches")
	}
}

func TestOpenContactCatalogNoCatalogButton(t *testing.T) {
	page := &fakeChatPage{resultRows: 3, hasCatalog: false}

	if err := newTestNavigator(page).OpenContactCatalog(context.Background(), "Alice Motors"); err == nil {
		t.Fatal("expected error for a contact without a catalog")
	}
}
