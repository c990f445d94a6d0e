package firebase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// SessionStore implements interfaces.SessionStore against the Firestore REST
// API. Session documents live at users/{uid}/sessions/{sid}, item documents
// in the items subcollection beneath them.
type SessionStore struct {
	client    *restClient
	baseURL   string
	projectID string
	pageSize  int
	logger    arbor.ILogger
}

// NewSessionStore creates a token-scoped Firestore session store
func NewSessionStore(cfg *common.Config, token string, logger arbor.ILogger) *SessionStore {
	return &SessionStore{
		client:    newRESTClient(&cfg.Uploader, token, logger),
		baseURL:   cfg.Firebase.FirestoreURL,
		projectID: cfg.Firebase.ProjectID,
		pageSize:  cfg.Uploader.ListPageSize,
		logger:    logger,
	}
}

// documentsBase is the root of the default database's document tree
func (s *SessionStore) documentsBase() string {
	return fmt.Sprintf("%s/projects/%s/databases/(default)/documents", s.baseURL, s.projectID)
}

func (s *SessionStore) sessionPath(userID, sessionID string) string {
	return fmt.Sprintf("users/%s/sessions/%s", userID, sessionID)
}

// patchURL builds a PATCH URL with one updateMask.fieldPaths entry per field.
// requireExists adds the currentDocument.exists precondition so a patch never
// resurrects a deleted document.
func (s *SessionStore) patchURL(docPath string, fields map[string]interface{}, requireExists bool) string {
	q := url.Values{}
	for k := range fields {
		q.Add("updateMask.fieldPaths", k)
	}
	if requireExists {
		q.Set("currentDocument.exists", "true")
	}
	return fmt.Sprintf("%s/%s?%s", s.documentsBase(), docPath, q.Encode())
}

func (s *SessionStore) patch(ctx context.Context, docPath string, fields map[string]interface{}, requireExists bool) error {
	body, err := json.Marshal(Document{Fields: EncodeFields(fields)})
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	respBody, status, err := s.client.do(ctx, http.MethodPatch, s.patchURL(docPath, fields, requireExists), body, "application/json")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("patch %s failed with status %d: %s", docPath, status, truncate(respBody))
	}
	return nil
}

// EnsureSession upserts the session document with the given fields
func (s *SessionStore) EnsureSession(ctx context.Context, userID, sessionID string, fields map[string]interface{}) error {
	return s.patch(ctx, s.sessionPath(userID, sessionID), fields, false)
}

// PatchSession updates fields on an existing session document
func (s *SessionStore) PatchSession(ctx context.Context, userID, sessionID string, fields map[string]interface{}) error {
	return s.patch(ctx, s.sessionPath(userID, sessionID), fields, true)
}

// DeleteSession removes the session document
func (s *SessionStore) DeleteSession(ctx context.Context, userID, sessionID string) error {
	docURL := fmt.Sprintf("%s/%s", s.documentsBase(), s.sessionPath(userID, sessionID))
	respBody, status, err := s.client.do(ctx, http.MethodDelete, docURL, nil, "")
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return fmt.Errorf("delete session %s failed with status %d: %s", sessionID, status, truncate(respBody))
	}
	return nil
}

// AddItem appends an item document to the session's items collection
func (s *SessionStore) AddItem(ctx context.Context, userID, sessionID string, item *models.StoredItem) (string, error) {
	body, err := json.Marshal(Document{Fields: encodeItem(item)})
	if err != nil {
		return "", fmt.Errorf("failed to marshal item: %w", err)
	}

	collURL := fmt.Sprintf("%s/%s/items", s.documentsBase(), s.sessionPath(userID, sessionID))
	respBody, status, err := s.client.do(ctx, http.MethodPost, collURL, body, "application/json")
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("add item failed with status %d: %s", status, truncate(respBody))
	}

	var doc Document
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return "", fmt.Errorf("failed to decode item document: %w", err)
	}
	return ExtractDocumentPath(doc.Name), nil
}

// DeleteItem removes an item document by document path
func (s *SessionStore) DeleteItem(ctx context.Context, docPath string) error {
	docURL := fmt.Sprintf("%s/%s", s.documentsBase(), docPath)
	respBody, status, err := s.client.do(ctx, http.MethodDelete, docURL, nil, "")
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return fmt.Errorf("delete item %s failed with status %d: %s", docPath, status, truncate(respBody))
	}
	return nil
}

// ListItems fetches the session's existing item documents
func (s *SessionStore) ListItems(ctx context.Context, userID, sessionID string, pageSize int) ([]models.ExistingItem, error) {
	if pageSize <= 0 {
		pageSize = s.pageSize
	}
	collURL := fmt.Sprintf("%s/%s/items?pageSize=%d", s.documentsBase(), s.sessionPath(userID, sessionID), pageSize)
	respBody, status, err := s.client.do(ctx, http.MethodGet, collURL, nil, "")
	if err != nil {
		return nil, err
	}
	// A missing parent document means no previous session run; start fresh.
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("list items failed with status %d: %s", status, truncate(respBody))
	}

	var list ListResponse
	if err := json.Unmarshal(respBody, &list); err != nil {
		return nil, fmt.Errorf("failed to decode item list: %w", err)
	}

	items := make([]models.ExistingItem, 0, len(list.Documents))
	for _, doc := range list.Documents {
		items = append(items, models.ExistingItem{
			DocPath: ExtractDocumentPath(doc.Name),
			Item:    decodeItem(doc.Fields),
		})
	}
	return items, nil
}

func encodeItem(item *models.StoredItem) map[string]Value {
	return EncodeFields(map[string]interface{}{
		"contact":     item.Contact,
		"name":        item.Name,
		"snippet":     item.Snippet,
		"price":       item.Price,
		"description": item.Description,
		"imageUrls":   item.ImageURLs,
		"imagePaths":  item.ImagePaths,
		"uploadedAt":  item.UploadedAt,
	})
}

func decodeItem(fields map[string]Value) models.StoredItem {
	decoded := DecodeFields(fields)

	item := models.StoredItem{
		Contact:     stringField(decoded, "contact"),
		Name:        stringField(decoded, "name"),
		Snippet:     stringField(decoded, "snippet"),
		Price:       stringField(decoded, "price"),
		Description: stringField(decoded, "description"),
		ImageURLs:   stringSliceField(decoded, "imageUrls"),
		ImagePaths:  stringSliceField(decoded, "imagePaths"),
	}
	if t, ok := decoded["uploadedAt"].(time.Time); ok {
		item.UploadedAt = t
	}
	return item
}

func stringField(fields map[string]interface{}, key string) string {
	if s, ok := fields[key].(string); ok {
		return s
	}
	return ""
}

func stringSliceField(fields map[string]interface{}, key string) []string {
	arr, ok := fields[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func truncate(body []byte) string {
	const max = 300
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

var _ interfaces.SessionStore = (*SessionStore)(nil)
