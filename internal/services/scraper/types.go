package scraper

import (
	"context"
	"time"

	"github.com/ternarybob/colligo/internal/models"
)

// ItemSink receives each scraped item synchronously during the walk. The
// uploader coordinator is the production sink.
type ItemSink interface {
	// UploadItem hands one item over. totalHint is the number of cards
	// currently visible, letting the sink keep its total monotonic. A
	// returned auth error aborts the walk; anything else is a counted loss.
	UploadItem(ctx context.Context, item *models.CatalogItem, totalHint int) error

	// LimitReached reports whether the session item limit has been hit.
	LimitReached() bool
}

// settle waits out a UI settle delay, honoring cancellation. Zero delays
// return immediately, which is how tests run the walk at full speed.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
