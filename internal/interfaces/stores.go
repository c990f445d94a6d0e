package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// SessionStore is the remote document store holding session documents and
// their item subcollections. Implementations carry the run's bearer token;
// a rejected token surfaces as ErrUnauthorized.
type SessionStore interface {
	// EnsureSession creates or updates the session document with the given
	// fields (status, counters, timestamps).
	EnsureSession(ctx context.Context, userID, sessionID string, fields map[string]interface{}) error

	// PatchSession updates only the named fields on the session document.
	// The document must already exist.
	PatchSession(ctx context.Context, userID, sessionID string, fields map[string]interface{}) error

	// DeleteSession removes the session document entirely.
	DeleteSession(ctx context.Context, userID, sessionID string) error

	// AddItem appends an item document to the session's items collection and
	// returns its document path.
	AddItem(ctx context.Context, userID, sessionID string, item *models.StoredItem) (string, error)

	// DeleteItem removes an item document by its document path.
	DeleteItem(ctx context.Context, docPath string) error

	// ListItems returns the session's existing item documents, up to
	// pageSize entries.
	ListItems(ctx context.Context, userID, sessionID string, pageSize int) ([]models.ExistingItem, error)
}

// ObjectStore uploads and deletes binary objects (item images).
type ObjectStore interface {
	// Put uploads data at path and returns a public download URL.
	Put(ctx context.Context, path string, data []byte, contentType string) (string, error)

	// Delete removes the object at path. Deleting a missing object is not
	// an error.
	Delete(ctx context.Context, path string) error
}

// StoreProvider builds token-scoped store clients for a run. Tokens arrive
// with the start request and must never outlive the run.
type StoreProvider interface {
	SessionStore(authToken string) SessionStore
	ObjectStore(authToken string) ObjectStore
}
