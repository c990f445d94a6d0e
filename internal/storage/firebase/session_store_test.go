package firebase

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

func testStore(t *testing.T, handler http.HandlerFunc) *SessionStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := common.NewDefaultConfig()
	cfg.Firebase.FirestoreURL = srv.URL
	cfg.Firebase.ProjectID = "p1"
	cfg.Uploader.RateLimit = 0

	return NewSessionStore(cfg, "token", arbor.NewLogger())
}

func TestListItemsDecodesDocuments(t *testing.T) {
	store := testStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))

		name := "Sedan X"
		resp := ListResponse{
			Documents: []Document{
				{
					Name:   "projects/p1/databases/(default)/documents/users/u1/sessions/s1/items/doc1",
					Fields: map[string]Value{"name": {StringValue: &name}},
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	})

	items, err := store.ListItems(context.Background(), "u1", "s1", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "users/u1/sessions/s1/items/doc1", items[0].DocPath)
	assert.Equal(t, "Sedan X", items[0].Item.Name)
}

func TestListItemsMissingParentStartsFresh(t *testing.T) {
	store := testStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"status":"NOT_FOUND"}}`, http.StatusNotFound)
	})

	items, err := store.ListItems(context.Background(), "u1", "s1", 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestListItemsRejectedToken(t *testing.T) {
	store := testStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "expired", http.StatusUnauthorized)
	})

	_, err := store.ListItems(context.Background(), "u1", "s1", 10)
	require.ErrorIs(t, err, interfaces.ErrUnauthorized)
}
