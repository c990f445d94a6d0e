package uploader

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// fakeSessionStore implements interfaces.SessionStore in memory for testing
type fakeSessionStore struct {
	existing       []models.ExistingItem
	listErr        error
	added          []*models.StoredItem
	addErr         error
	patches        []map[string]interface{}
	patchErr       error
	deletedDocs    []string
	sessionDeleted bool
	nextDocID      int
}

func (f *fakeSessionStore) EnsureSession(ctx context.Context, userID, sessionID string, fields map[string]interface{}) error {
	return nil
}

func (f *fakeSessionStore) PatchSession(ctx context.Context, userID, sessionID string, fields map[string]interface{}) error {
	if f.patchErr != nil {
		return f.patchErr
	}
	f.patches = append(f.patches, fields)
	return nil
}

func (f *fakeSessionStore) DeleteSession(ctx context.Context, userID, sessionID string) error {
	f.sessionDeleted = true
	return nil
}

func (f *fakeSessionStore) AddItem(ctx context.Context, userID, sessionID string, item *models.StoredItem) (string, error) {
	if f.addErr != nil {
		return "", f.addErr
	}
	f.added = append(f.added, item)
	f.nextDocID++
	return fmt.Sprintf("users/%s/sessions/%s/items/doc%d", userID, sessionID, f.nextDocID), nil
}

func (f *fakeSessionStore) DeleteItem(ctx context.Context, docPath string) error {
	f.deletedDocs = append(f.deletedDocs, docPath)
	return nil
}

func (f *fakeSessionStore) ListItems(ctx context.Context, userID, sessionID string, pageSize int) ([]models.ExistingItem, error) {
	return f.existing, f.listErr
}

// fakeObjectStore implements interfaces.ObjectStore in memory for testing
type fakeObjectStore struct {
	puts    []string
	putErr  error
	deleted []string
}

func (f *fakeObjectStore) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.puts = append(f.puts, path)
	return "https://storage.example.com/" + path, nil
}

func (f *fakeObjectStore) Delete(ctx context.Context, path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

func testConfig() *common.UploaderConfig {
	return &common.UploaderConfig{
		ImageSkip:    2,
		ImageMax:     5,
		ListPageSize: 1000,
	}
}

func testSession() *models.SessionContext {
	return &models.SessionContext{
		UserID:    "u1",
		SessionID: "s1",
		Contacts:  []string{"Alice Motors"},
		AuthToken: "token",
	}
}

func newTestCoordinator(store *fakeSessionStore, objects *fakeObjectStore) *Coordinator {
	return NewCoordinator(store, objects, nil, testConfig(), arbor.NewLogger())
}

func dataURL(payload string) string {
	return "data:image/jpeg;base64," + payload
}

func testItem(name string, imageCount int) *models.CatalogItem {
	images := make([]string, imageCount)
	for i := range images {
		images[i] = dataURL("aGVsbG8=")
	}
	return &models.CatalogItem{
		Contact: "Alice Motors",
		Name:    name,
		Snippet: "Reliable family car",
		Price:   "$20,000",
		Images:  images,
	}
}

func TestBeginRequiresAuthToken(t *testing.T) {
	c := newTestCoordinator(&fakeSessionStore{}, &fakeObjectStore{})

	session := testSession()
	session.AuthToken = ""

	err := c.Begin(context.Background(), session)
	if !errors.Is(err, interfaces.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestBeginFailureStillMarksSessionFailed(t *testing.T) {
	store := &fakeSessionStore{listErr: errors.New("backend down")}
	c := newTestCoordinator(store, &fakeObjectStore{})

	if err := c.Begin(context.Background(), testSession()); err == nil {
		t.Fatal("expected Begin to fail")
	}

	c.Fail(context.Background(), "begin failed")

	if len(store.patches) == 0 {
		t.Fatal("session document was never patched failed")
	}
	last := store.patches[len(store.patches)-1]
	if last["status"] != string(models.SessionStatusFailed) {
		t.Errorf("status = %v, want failed", last["status"])
	}
}

func TestUploadItemImageWindow(t *testing.T) {
	store := &fakeSessionStore{}
	objects := &fakeObjectStore{}
	c := newTestCoordinator(store, objects)

	if err := c.Begin(context.Background(), testSession()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	// 8 captured images: the first two are UI chrome, so indices 2..6 upload
	if err := c.UploadItem(context.Background(), testItem("Sedan X", 8), 3); err != nil {
		t.Fatalf("UploadItem failed: %v", err)
	}

	if len(objects.puts) != 5 {
		t.Fatalf("uploaded %d images, want 5", len(objects.puts))
	}
	expected := []string{
		"users/u1/sessions/s1/alice-motors/item-000/image-02.jpg",
		"users/u1/sessions/s1/alice-motors/item-000/image-03.jpg",
		"users/u1/sessions/s1/alice-motors/item-000/image-04.jpg",
		"users/u1/sessions/s1/alice-motors/item-000/image-05.jpg",
		"users/u1/sessions/s1/alice-motors/item-000/image-06.jpg",
	}
	for i, want := range expected {
		if objects.puts[i] != want {
			t.Errorf("put[%d] = %q, want %q", i, objects.puts[i], want)
		}
	}

	if len(store.added) != 1 {
		t.Fatalf("stored %d item documents, want 1", len(store.added))
	}
	if len(store.added[0].ImageURLs) != 5 || len(store.added[0].ImagePaths) != 5 {
		t.Errorf("stored item has %d urls and %d paths, want 5 each",
			len(store.added[0].ImageURLs), len(store.added[0].ImagePaths))
	}

	p := c.Progress()
	if p.Success != 1 || p.Uploaded != 1 || p.Failure != 0 {
		t.Errorf("progress = %+v, want one success", p)
	}
	if p.Total != 3 {
		t.Errorf("total = %d, want hint 3", p.Total)
	}
}

func TestUploadItemFewImages(t *testing.T) {
	store := &fakeSessionStore{}
	objects := &fakeObjectStore{}
	c := newTestCoordinator(store, objects)

	if err := c.Begin(context.Background(), testSession()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	// Only one captured image, inside the skip window: item uploads without images
	if err := c.UploadItem(context.Background(), testItem("Sedan X", 1), 1); err != nil {
		t.Fatalf("UploadItem failed: %v", err)
	}

	if len(objects.puts) != 0 {
		t.Errorf("uploaded %d images, want 0", len(objects.puts))
	}
	if len(store.added) != 1 {
		t.Errorf("stored %d item documents, want 1", len(store.added))
	}
}

func TestUploadItemResumeMatch(t *testing.T) {
	store := &fakeSessionStore{
		existing: []models.ExistingItem{
			{
				DocPath: "users/u1/sessions/s1/items/prev1",
				Item: models.StoredItem{
					Contact: "Alice Motors",
					Name:    "Sedan X",
					Snippet: "Reliable family car",
					Price:   "$20,000",
				},
			},
		},
	}
	objects := &fakeObjectStore{}
	c := newTestCoordinator(store, objects)

	if err := c.Begin(context.Background(), testSession()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if err := c.UploadItem(context.Background(), testItem("Sedan X", 8), 1); err != nil {
		t.Fatalf("UploadItem failed: %v", err)
	}

	// Matched item is counted but nothing is re-uploaded
	if len(objects.puts) != 0 {
		t.Errorf("uploaded %d images on resume, want 0", len(objects.puts))
	}
	if len(store.added) != 0 {
		t.Errorf("stored %d item documents on resume, want 0", len(store.added))
	}

	p := c.Progress()
	if p.Success != 1 || p.Uploaded != 1 {
		t.Errorf("progress = %+v, want one matched success", p)
	}
}

func TestUploadItemOrdinalSkipsMatchedItems(t *testing.T) {
	// A resumed session: item A survives from the previous run at item-000.
	// The first new item must take the next slot, not reuse A's paths.
	store := &fakeSessionStore{
		existing: []models.ExistingItem{
			{
				DocPath: "users/u1/sessions/s1/items/prevA",
				Item: models.StoredItem{
					Contact:    "Alice Motors",
					Name:       "Sedan X",
					Snippet:    "Reliable family car",
					Price:      "$20,000",
					ImagePaths: []string{"users/u1/sessions/s1/alice-motors/item-000/image-02.jpg"},
				},
			},
		},
	}
	objects := &fakeObjectStore{}
	c := newTestCoordinator(store, objects)

	if err := c.Begin(context.Background(), testSession()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if err := c.UploadItem(context.Background(), testItem("Sedan X", 8), 2); err != nil {
		t.Fatalf("resume match failed: %v", err)
	}

	newItem := testItem("Coupe Y", 8)
	newItem.Snippet = "Weekend two-seater"
	newItem.Price = "$35,000"
	if err := c.UploadItem(context.Background(), newItem, 2); err != nil {
		t.Fatalf("UploadItem failed: %v", err)
	}

	if len(objects.puts) != 5 {
		t.Fatalf("uploaded %d images, want 5", len(objects.puts))
	}
	for _, put := range objects.puts {
		if put == "users/u1/sessions/s1/alice-motors/item-000/image-02.jpg" {
			t.Fatalf("new item reused the matched item's object path %q", put)
		}
	}
	want := "users/u1/sessions/s1/alice-motors/item-001/image-02.jpg"
	if objects.puts[0] != want {
		t.Errorf("put[0] = %q, want %q", objects.puts[0], want)
	}
}

func TestUploadItemFailureCounted(t *testing.T) {
	store := &fakeSessionStore{}
	objects := &fakeObjectStore{putErr: errors.New("storage unavailable")}
	c := newTestCoordinator(store, objects)

	if err := c.Begin(context.Background(), testSession()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	err := c.UploadItem(context.Background(), testItem("Sedan X", 8), 1)
	if err == nil {
		t.Fatal("expected upload error")
	}

	p := c.Progress()
	if p.Failure != 1 || p.Success != 0 {
		t.Errorf("progress = %+v, want one failure", p)
	}
	if p.Total != 1 {
		t.Errorf("total = %d, failures must still count toward total", p.Total)
	}
}

func TestFinalizeReconcilesRemovedItems(t *testing.T) {
	store := &fakeSessionStore{
		existing: []models.ExistingItem{
			{
				DocPath: "users/u1/sessions/s1/items/keepA",
				Item:    models.StoredItem{Contact: "Alice Motors", Name: "Sedan X", Snippet: "a", Price: "$1"},
			},
			{
				DocPath: "users/u1/sessions/s1/items/staleB",
				Item: models.StoredItem{
					Contact:    "Alice Motors",
					Name:       "Gone Model",
					Snippet:    "b",
					Price:      "$2",
					ImagePaths: []string{"users/u1/sessions/s1/alice-motors/item-001/image-02.jpg"},
				},
			},
		},
	}
	objects := &fakeObjectStore{}
	c := newTestCoordinator(store, objects)

	if err := c.Begin(context.Background(), testSession()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	item := &models.CatalogItem{Contact: "Alice Motors", Name: "Sedan X", Snippet: "a", Price: "$1"}
	if err := c.UploadItem(context.Background(), item, 1); err != nil {
		t.Fatalf("UploadItem failed: %v", err)
	}

	summary, err := c.Finalize(context.Background(), nil)
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if summary.Reconciled != 1 {
		t.Errorf("reconciled = %d, want 1", summary.Reconciled)
	}
	if len(store.deletedDocs) != 1 || store.deletedDocs[0] != "users/u1/sessions/s1/items/staleB" {
		t.Errorf("deleted docs = %v, want only staleB", store.deletedDocs)
	}
	if len(objects.deleted) != 1 {
		t.Errorf("deleted %d stale images, want 1", len(objects.deleted))
	}
	if summary.Status != models.SessionStatusCompleted {
		t.Errorf("status = %s, want completed", summary.Status)
	}
}

func TestFinalizeDeletesEmptySession(t *testing.T) {
	store := &fakeSessionStore{}
	c := newTestCoordinator(store, &fakeObjectStore{})

	if err := c.Begin(context.Background(), testSession()); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	summary, err := c.Finalize(context.Background(), nil)
	if err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}

	if !summary.Empty {
		t.Error("summary should be marked empty")
	}
	if !store.sessionDeleted {
		t.Error("empty session document should be deleted")
	}
}

func TestFinalizeWithoutSession(t *testing.T) {
	c := newTestCoordinator(&fakeSessionStore{}, &fakeObjectStore{})
	if _, err := c.Finalize(context.Background(), nil); err == nil {
		t.Fatal("expected error without an active session")
	}
}

func TestLimitReached(t *testing.T) {
	store := &fakeSessionStore{}
	c := newTestCoordinator(store, &fakeObjectStore{})

	session := testSession()
	session.ItemLimit = 1
	if err := c.Begin(context.Background(), session); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}

	if c.LimitReached() {
		t.Error("limit should not be reached before any upload")
	}

	if err := c.UploadItem(context.Background(), testItem("Sedan X", 3), 1); err != nil {
		t.Fatalf("UploadItem failed: %v", err)
	}

	if !c.LimitReached() {
		t.Error("limit should be reached after one upload")
	}
}
