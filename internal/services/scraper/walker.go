package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/browser"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// Walker runs the catalog walk for one contact at a time. The card list is a
// live lazy-loading view: the last card is a load sentinel that is never
// visited, the list is re-queried after every visit because it re-renders and
// grows, and growth after scrolling the sentinel starts another pass. The
// seen-key set spans the whole run so a card that re-renders is never
// visited twice.
type Walker struct {
	driver interfaces.PageDriver
	detail *DetailExtractor
	config *common.ScraperConfig
	logger arbor.ILogger
	seen   map[string]bool
}

// NewWalker creates a walker for one scrape run
func NewWalker(driver interfaces.PageDriver, detail *DetailExtractor, config *common.ScraperConfig, logger arbor.ILogger) *Walker {
	return &Walker{
		driver: driver,
		detail: detail,
		config: config,
		logger: logger,
		seen:   make(map[string]bool),
	}
}

// Walk visits every catalog card of the currently open contact, handing each
// new item to the sink. It returns the number of items handed over and how
// the walk ended. Lazy loading is bounded by MaxLazyLoadRounds and
// ContactTimeout; hitting either bound reports gave-up, a list that stopped
// growing reports exhausted.
func (w *Walker) Walk(ctx context.Context, contact string, sink ItemSink) (int, models.ContactOutcome, error) {
	deadline := time.Now().Add(w.config.ContactTimeout)
	items := 0
	rounds := 0

	for {
		cards, err := w.driver.FindAll(ctx, browser.TargetCatalogCards)
		if err != nil {
			if errors.Is(err, interfaces.ErrTargetNotFound) {
				return items, models.ContactExhausted, nil
			}
			return items, models.ContactGaveUp, err
		}

		// A real catalog always renders more rows than this; fewer means
		// placeholder rows and no catalog.
		if len(cards) < w.config.MinCatalogCards {
			w.logger.Debug().
				Str("contact", contact).
				Int("cards", len(cards)).
				Msg("Card list below catalog threshold, treating as empty")
			return items, models.ContactExhausted, nil
		}

		passStart := len(cards)

		// Visit indices 0..len-2; the last card is the lazy-load sentinel.
		for i := 0; i < len(cards)-1; i++ {
			if err := ctx.Err(); err != nil {
				return items, models.ContactGaveUp, err
			}
			if time.Now().After(deadline) {
				w.logger.Warn().Str("contact", contact).Msg("Contact walk deadline reached")
				return items, models.ContactGaveUp, nil
			}
			if sink.LimitReached() {
				return items, models.ContactLimitReached, nil
			}

			texts, err := w.driver.SpanTexts(ctx, cards[i])
			if err != nil {
				w.logger.Debug().Err(err).Int("card", i).Msg("Skipping unreadable card")
				continue
			}
			if len(texts) < 3 {
				continue
			}

			name, snippet, price := texts[0], texts[1], texts[2]
			key := models.ItemKey(contact, name, snippet, price)
			if w.seen[key] {
				continue
			}

			item, err := w.visit(ctx, cards[i], contact, name, snippet, price)
			if err != nil {
				return items, models.ContactGaveUp, err
			}
			w.seen[key] = true
			items++

			if err := sink.UploadItem(ctx, item, len(cards)-1); err != nil {
				if errors.Is(err, interfaces.ErrUnauthorized) {
					return items, models.ContactGaveUp, err
				}
				// Counted by the sink; the walk goes on
			}

			// The list re-renders while details open and close; refresh the
			// handles before the next card.
			cards, err = w.driver.FindAll(ctx, browser.TargetCatalogCards)
			if err != nil {
				if errors.Is(err, interfaces.ErrTargetNotFound) {
					return items, models.ContactExhausted, nil
				}
				return items, models.ContactGaveUp, err
			}
		}

		if rounds >= w.config.MaxLazyLoadRounds {
			w.logger.Warn().
				Str("contact", contact).
				Int("rounds", rounds).
				Msg("Lazy-load round bound reached")
			return items, models.ContactGaveUp, nil
		}

		// Nudge the sentinel into view to trigger the next batch.
		if err := w.driver.ScrollIntoView(ctx, cards[len(cards)-1]); err != nil {
			return items, models.ContactExhausted, nil
		}
		if err := settle(ctx, w.config.LazyLoadSettle); err != nil {
			return items, models.ContactGaveUp, err
		}

		grown, err := w.driver.FindAll(ctx, browser.TargetCatalogCards)
		if err != nil || len(grown) <= passStart {
			return items, models.ContactExhausted, nil
		}
		rounds++
	}
}

// visit opens a card, captures its detail view, and returns to the list.
func (w *Walker) visit(ctx context.Context, card *interfaces.Element, contact, name, snippet, price string) (*models.CatalogItem, error) {
	if err := w.driver.Click(ctx, card); err != nil {
		return nil, err
	}
	if err := settle(ctx, w.config.DetailSettle); err != nil {
		return nil, err
	}

	description, images, err := w.detail.Capture(ctx)
	if err != nil {
		return nil, err
	}

	back, err := w.driver.Find(ctx, browser.TargetBackButton)
	if err != nil {
		return nil, err
	}
	if err := w.driver.Click(ctx, back); err != nil {
		return nil, err
	}
	if err := settle(ctx, w.config.NavigationSettle); err != nil {
		return nil, err
	}

	return &models.CatalogItem{
		Contact:     contact,
		Name:        name,
		Snippet:     snippet,
		Price:       price,
		Description: description,
		Images:      images,
		ScrapedAt:   time.Now(),
	}, nil
}
