package browser

import (
	"github.com/ternarybob/colligo/internal/interfaces"
)

// Semantic targets for the WhatsApp Web UI. Primary selectors first,
// fallbacks after; the markup drifts between releases and fallbacks keep the
// walk alive without a code change.
var (
	// TargetSearchBox is the chat list search input
	TargetSearchBox = interfaces.Target{
		Name: "search_box",
		Selectors: []string{
			`div[contenteditable="true"][aria-label="Search input textbox"]`,
			`div[contenteditable="true"][data-tab="3"]`,
		},
	}

	// TargetCancelSearch clears a pending search
	TargetCancelSearch = interfaces.Target{
		Name: "cancel_search",
		Selectors: []string{
			`button[aria-label="Cancel search"]`,
		},
	}

	// TargetSearchResults is the results panel shown while searching
	TargetSearchResults = interfaces.Target{
		Name: "search_results",
		Selectors: []string{
			`div[aria-label="Search results."]`,
			`div[aria-label="Search results"]`,
		},
	}

	// TargetResultRows are the rows inside the results panel. Row 0 is the
	// section header; the first contact is row 1.
	TargetResultRows = interfaces.Target{
		Name: "result_rows",
		Selectors: []string{
			`div[aria-label="Search results."] div[role="listitem"]`,
			`div[aria-label="Search results"] div[role="listitem"]`,
		},
	}

	// TargetCatalogButton opens a business's catalog from the chat view
	TargetCatalogButton = interfaces.Target{
		Name: "catalog_button",
		Selectors: []string{
			`button[title="Catalog"]`,
			`div[aria-label="Catalog"]`,
		},
	}

	// TargetCatalogCards are the product cards in the catalog list. The last
	// card is the lazy-load sentinel.
	TargetCatalogCards = interfaces.Target{
		Name: "catalog_cards",
		Selectors: []string{
			`div[role="listitem"]`,
		},
	}

	// TargetMessageBusiness anchors the item description: the full text is
	// its previous sibling.
	TargetMessageBusiness = interfaces.Target{
		Name: "message_business",
		Selectors: []string{
			`div[title="Message business"]`,
		},
	}

	// TargetBackButton returns from a detail or expanded view
	TargetBackButton = interfaces.Target{
		Name: "back_button",
		Selectors: []string{
			`div[aria-label="Back"]`,
			`button[aria-label="Back"]`,
		},
	}
)

// CardSpanSelector matches the text spans inside a catalog card. The first
// three are name, description snippet, and price.
const CardSpanSelector = `span[dir="auto"]`

// DetailImageSelector matches product images on the detail view
const DetailImageSelector = `img[draggable="false"]`

// ReadMoreText is the exact span text that expands a truncated description
const ReadMoreText = "Read more"
