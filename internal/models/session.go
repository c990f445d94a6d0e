package models

import (
	"time"
)

// SessionStatus represents the remote state of an upload session
type SessionStatus string

const (
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusFailed    SessionStatus = "failed"
)

// SessionContext holds everything a single scrape run needs to talk to the
// remote session store. One run is active per process; the context is cleared
// when the run completes, fails, or turns out empty.
type SessionContext struct {
	UserID    string   `json:"user_id"`
	SessionID string   `json:"session_id"`
	Contacts  []string `json:"contacts"` // Business contacts assigned to this session
	AuthToken string   `json:"-"`        // Bearer token; never persisted or logged
	// ItemLimit caps items uploaded across all contacts. Zero means unlimited.
	ItemLimit int `json:"item_limit,omitempty"`
}

// SessionProgress are the counters patched to the session document after
// every item. Total is monotonic: it only ever moves up.
type SessionProgress struct {
	Uploaded int `json:"uploaded"` // Items handled this run (uploads plus resume matches)
	Success  int `json:"success"`
	Failure  int `json:"failure"`
	Total    int `json:"total"`
}

// Advance folds a new observation into the counters, keeping Total monotonic:
// it becomes the max of its previous value, success+failure, and the hint.
func (p *SessionProgress) Advance(totalHint int) {
	total := p.Success + p.Failure
	if totalHint > total {
		total = totalHint
	}
	if total > p.Total {
		p.Total = total
	}
}

// StoredItem is the shape of an item document in the session's items
// collection.
type StoredItem struct {
	Contact     string    `json:"contact"`
	Name        string    `json:"name"`
	Snippet     string    `json:"snippet"`
	Price       string    `json:"price"`
	Description string    `json:"description"`
	ImageURLs   []string  `json:"image_urls"`
	ImagePaths  []string  `json:"image_paths"` // Object store paths, kept for reconciliation deletes
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Key returns the identity key of the stored item.
func (s *StoredItem) Key() string {
	return ItemKey(s.Contact, s.Name, s.Snippet, s.Price)
}

// ExistingItem is an item document found in the session before the run
// started. Unmatched entries after the walk are catalog items the seller has
// removed, and get reconciled away during finalize.
type ExistingItem struct {
	DocPath string
	Item    StoredItem
}

// ContactOutcome describes how the walk of one contact ended.
type ContactOutcome string

const (
	ContactExhausted    ContactOutcome = "exhausted"     // Catalog fully walked
	ContactGaveUp       ContactOutcome = "gave_up"       // Lazy-load bound or deadline hit
	ContactLimitReached ContactOutcome = "limit_reached" // Session item limit hit mid-walk
	ContactSkipped      ContactOutcome = "skipped"       // Navigation to the catalog failed
)

// ContactResult is the per-contact summary reported by the orchestrator.
type ContactResult struct {
	Contact  string         `json:"contact"`
	Outcome  ContactOutcome `json:"outcome"`
	Items    int            `json:"items"`
	Error    string         `json:"error,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// SessionSummary is the result of finalizing a session.
type SessionSummary struct {
	SessionID    string          `json:"session_id"`
	Status       SessionStatus   `json:"status"`
	Empty        bool            `json:"empty"` // Session document was deleted (zero items, zero failures)
	Progress     SessionProgress `json:"progress"`
	Reconciled   int             `json:"reconciled"` // Stale item documents removed
	Contacts     []ContactResult `json:"contacts"`
	ErrorMessage string          `json:"error_message,omitempty"`
}
