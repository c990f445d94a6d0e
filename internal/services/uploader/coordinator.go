package uploader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// existingEntry tracks one item document found in the session before the run.
// Entries still unmatched after the walk are items the seller removed; they
// get reconciled away during Finalize.
type existingEntry struct {
	docPath    string
	imagePaths []string
	matched    bool
}

// Coordinator owns the upload side of one scrape session: the existing-item
// index, the progress counters, and session finalization. Item loss is
// counted but never fatal; a rejected auth token is fatal.
type Coordinator struct {
	store   interfaces.SessionStore
	objects interfaces.ObjectStore
	events  interfaces.EventService
	config  *common.UploaderConfig
	logger  arbor.ILogger

	mu       sync.Mutex
	session  *models.SessionContext
	progress models.SessionProgress
	existing map[string]*existingEntry
}

// NewCoordinator creates a coordinator for one session's uploads
func NewCoordinator(store interfaces.SessionStore, objects interfaces.ObjectStore, events interfaces.EventService, config *common.UploaderConfig, logger arbor.ILogger) *Coordinator {
	return &Coordinator{
		store:   store,
		objects: objects,
		events:  events,
		config:  config,
		logger:  logger,
	}
}

// Begin marks the session running and loads the existing-item index so
// re-runs resume instead of duplicating uploads.
func (c *Coordinator) Begin(ctx context.Context, session *models.SessionContext) error {
	if session.AuthToken == "" {
		return fmt.Errorf("%w: session has no auth token", interfaces.ErrUnauthorized)
	}

	// Register the session before the remote calls so a failed begin can
	// still mark the session document failed.
	c.mu.Lock()
	c.session = session
	c.progress = models.SessionProgress{}
	c.existing = make(map[string]*existingEntry)
	c.mu.Unlock()

	existing, err := c.store.ListItems(ctx, session.UserID, session.SessionID, c.config.ListPageSize)
	if err != nil {
		return fmt.Errorf("failed to load existing session items: %w", err)
	}

	index := make(map[string]*existingEntry, len(existing))
	for i := range existing {
		e := &existing[i]
		index[e.Item.Key()] = &existingEntry{
			docPath:    e.DocPath,
			imagePaths: e.Item.ImagePaths,
		}
	}

	err = c.store.EnsureSession(ctx, session.UserID, session.SessionID, map[string]interface{}{
		"status":    string(models.SessionStatusRunning),
		"startedAt": time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to mark session running: %w", err)
	}

	c.mu.Lock()
	c.existing = index
	c.mu.Unlock()

	c.logger.Info().
		Str("session_id", session.SessionID).
		Int("existing_items", len(index)).
		Msg("Upload session started")

	return nil
}

// LimitReached reports whether the session item limit has been hit
func (c *Coordinator) LimitReached() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil && c.session.ItemLimit > 0 && c.progress.Uploaded >= c.session.ItemLimit
}

// Progress returns a snapshot of the session counters
func (c *Coordinator) Progress() models.SessionProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// UploadItem uploads one scraped item, or marks it matched when an identical
// item survives from a previous run. A failed upload is counted as a failure
// and the walk continues; only an auth rejection propagates as an error the
// caller must abort on.
func (c *Coordinator) UploadItem(ctx context.Context, item *models.CatalogItem, totalHint int) error {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		return fmt.Errorf("no active upload session")
	}

	key := item.Key()

	// Idempotent resume: an already-uploaded item is matched, counted, and
	// skipped without re-uploading images.
	c.mu.Lock()
	entry, known := c.existing[key]
	c.mu.Unlock()
	if known {
		c.mu.Lock()
		entry.matched = true
		c.progress.Uploaded++
		c.progress.Success++
		c.progress.Advance(totalHint)
		c.mu.Unlock()

		if err := c.patchProgress(ctx, session); err != nil {
			return err
		}

		c.logger.Debug().
			Str("item", item.Name).
			Str("contact", item.Contact).
			Msg("Item already uploaded, matched for resume")
		c.publishItem(ctx, session, item, false)
		return nil
	}

	err := c.uploadNew(ctx, session, item, key)
	if err != nil {
		c.mu.Lock()
		c.progress.Failure++
		c.progress.Advance(totalHint)
		c.mu.Unlock()

		if patchErr := c.patchProgress(ctx, session); patchErr != nil {
			return patchErr
		}
		c.logger.Warn().
			Err(err).
			Str("item", item.Name).
			Str("contact", item.Contact).
			Msg("Item upload failed, continuing walk")
		// Auth rejection aborts the run; anything else is a counted loss
		return err
	}

	c.mu.Lock()
	c.progress.Uploaded++
	c.progress.Success++
	c.progress.Advance(totalHint)
	c.mu.Unlock()

	if err := c.patchProgress(ctx, session); err != nil {
		return err
	}
	c.publishItem(ctx, session, item, true)
	return nil
}

// uploadNew pushes the item's images to the object store and appends the
// item document.
func (c *Coordinator) uploadNew(ctx context.Context, session *models.SessionContext, item *models.CatalogItem, key string) error {
	// The item ordinal is the number of items handled so far, resume matches
	// and failures included. A resumed run therefore continues past the slots
	// the previous run's items occupy instead of reusing their object paths.
	c.mu.Lock()
	ordinal := c.progress.Success + c.progress.Failure
	c.mu.Unlock()

	// The first captured images are UI chrome (avatar, header), not product
	// shots; upload the configured window, keeping original indices in the
	// object names.
	start := c.config.ImageSkip
	if start > len(item.Images) {
		start = len(item.Images)
	}
	end := start + c.config.ImageMax
	if end > len(item.Images) {
		end = len(item.Images)
	}

	var urls, paths []string
	for idx := start; idx < end; idx++ {
		contentType, data, err := ParseDataURL(item.Images[idx])
		if err != nil {
			c.logger.Warn().
				Err(err).
				Int("image_index", idx).
				Str("item", item.Name).
				Msg("Skipping unreadable image")
			continue
		}

		path := ImagePath(session.UserID, session.SessionID, item.Contact, ordinal, idx)
		url, err := c.objects.Put(ctx, path, data, contentType)
		if err != nil {
			return fmt.Errorf("failed to upload image %s: %w", path, err)
		}
		urls = append(urls, url)
		paths = append(paths, path)
	}

	stored := &models.StoredItem{
		Contact:     item.Contact,
		Name:        item.Name,
		Snippet:     item.Snippet,
		Price:       item.Price,
		Description: item.Description,
		ImageURLs:   urls,
		ImagePaths:  paths,
		UploadedAt:  time.Now(),
	}

	docPath, err := c.store.AddItem(ctx, session.UserID, session.SessionID, stored)
	if err != nil {
		return fmt.Errorf("failed to store item document: %w", err)
	}

	c.mu.Lock()
	c.existing[key] = &existingEntry{
		docPath:    docPath,
		imagePaths: paths,
		matched:    true,
	}
	c.mu.Unlock()

	return nil
}

// patchProgress writes the counters to the session document. Total only
// moves up.
func (c *Coordinator) patchProgress(ctx context.Context, session *models.SessionContext) error {
	c.mu.Lock()
	p := c.progress
	c.mu.Unlock()

	err := c.store.PatchSession(ctx, session.UserID, session.SessionID, map[string]interface{}{
		"uploaded":       p.Uploaded,
		"success":        p.Success,
		"failure":        p.Failure,
		"total":          p.Total,
		"lastUploadedAt": time.Now(),
	})
	if err != nil {
		return err
	}

	if c.events != nil {
		_ = c.events.Publish(ctx, interfaces.Event{
			Type: interfaces.EventScrapeProgress,
			Payload: map[string]interface{}{
				"session_id": session.SessionID,
				"progress":   p,
			},
		})
	}
	return nil
}

// Finalize reconciles removed items and closes the session document. An
// entirely empty session (no items, no failures) is deleted rather than
// completed. The active session context is cleared in every path.
func (c *Coordinator) Finalize(ctx context.Context, contacts []models.ContactResult) (models.SessionSummary, error) {
	c.mu.Lock()
	session := c.session
	progress := c.progress
	existing := c.existing
	c.session = nil
	c.existing = nil
	c.mu.Unlock()

	if session == nil {
		return models.SessionSummary{}, fmt.Errorf("no active upload session")
	}

	summary := models.SessionSummary{
		SessionID: session.SessionID,
		Progress:  progress,
		Contacts:  contacts,
	}

	// Reconcile: unmatched entries are items gone from the seller's catalog.
	// Best effort; a failed delete is logged and skipped.
	for key, entry := range existing {
		if entry.matched {
			continue
		}
		if err := c.store.DeleteItem(ctx, entry.docPath); err != nil {
			c.logger.Warn().Err(err).Str("doc_path", entry.docPath).Msg("Failed to delete stale item document")
			continue
		}
		for _, path := range entry.imagePaths {
			if err := c.objects.Delete(ctx, path); err != nil {
				c.logger.Warn().Err(err).Str("path", path).Msg("Failed to delete stale image")
			}
		}
		summary.Reconciled++
		c.logger.Debug().Str("key", key).Msg("Reconciled removed catalog item")
	}

	if progress.Total == 0 && progress.Failure == 0 {
		if err := c.store.DeleteSession(ctx, session.UserID, session.SessionID); err != nil {
			return summary, fmt.Errorf("failed to delete empty session: %w", err)
		}
		summary.Empty = true
		summary.Status = models.SessionStatusCompleted
		c.logger.Info().Str("session_id", session.SessionID).Msg("Empty session deleted")
		return summary, nil
	}

	err := c.store.PatchSession(ctx, session.UserID, session.SessionID, map[string]interface{}{
		"status":      string(models.SessionStatusCompleted),
		"uploaded":    progress.Uploaded,
		"success":     progress.Success,
		"failure":     progress.Failure,
		"total":       progress.Total,
		"completedAt": time.Now(),
	})
	if err != nil {
		summary.Status = models.SessionStatusFailed
		summary.ErrorMessage = err.Error()

		failErr := c.store.PatchSession(ctx, session.UserID, session.SessionID, map[string]interface{}{
			"status":       string(models.SessionStatusFailed),
			"errorMessage": err.Error(),
		})
		if failErr != nil {
			c.logger.Error().Err(failErr).Str("session_id", session.SessionID).Msg("Failed to mark session failed")
		}
		return summary, fmt.Errorf("failed to complete session: %w", err)
	}

	summary.Status = models.SessionStatusCompleted
	c.logger.Info().
		Str("session_id", session.SessionID).
		Int("success", progress.Success).
		Int("failure", progress.Failure).
		Int("reconciled", summary.Reconciled).
		Msg("Session completed")
	return summary, nil
}

// Fail marks the session failed with an error message and clears the
// active session context.
func (c *Coordinator) Fail(ctx context.Context, message string) {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.existing = nil
	c.mu.Unlock()

	if session == nil {
		return
	}
	err := c.store.PatchSession(ctx, session.UserID, session.SessionID, map[string]interface{}{
		"status":       string(models.SessionStatusFailed),
		"errorMessage": message,
	})
	if err != nil {
		c.logger.Error().Err(err).Str("session_id", session.SessionID).Msg("Failed to mark session failed")
	}
}

func (c *Coordinator) publishItem(ctx context.Context, session *models.SessionContext, item *models.CatalogItem, uploaded bool) {
	if c.events == nil {
		return
	}
	_ = c.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventItemUploaded,
		Payload: map[string]interface{}{
			"session_id": session.SessionID,
			"contact":    item.Contact,
			"name":       item.Name,
			"uploaded":   uploaded,
			"progress":   c.Progress(),
		},
	})
}
