package scraper

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/browser"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// Navigator moves the WhatsApp session between the chat list and a contact's
// catalog. A failed navigation skips the contact; it never kills the run.
type Navigator struct {
	driver interfaces.PageDriver
	config *common.ScraperConfig
	logger arbor.ILogger
}

// NewNavigator creates a navigator
func NewNavigator(driver interfaces.PageDriver, config *common.ScraperConfig, logger arbor.ILogger) *Navigator {
	return &Navigator{
		driver: driver,
		config: config,
		logger: logger,
	}
}

// OpenContactCatalog searches for the contact, opens its chat, and opens the
// catalog panel.
func (n *Navigator) OpenContactCatalog(ctx context.Context, contact string) error {
	// Clear any pending search first; the cancel button only exists while a
	// search is active.
	if cancel, err := n.driver.Find(ctx, browser.TargetCancelSearch); err == nil {
		if err := n.driver.Click(ctx, cancel); err == nil {
			if err := settle(ctx, n.config.NavigationSettle); err != nil {
				return err
			}
		}
	}

	box, err := n.driver.Find(ctx, browser.TargetSearchBox)
	if err != nil {
		return fmt.Errorf("search box unavailable: %w", err)
	}
	if err := n.driver.Click(ctx, box); err != nil {
		return fmt.Errorf("failed to focus search box: %w", err)
	}
	if err := n.driver.InsertText(ctx, box, contact); err != nil {
		return fmt.Errorf("failed to type contact search: %w", err)
	}
	if err := settle(ctx, n.config.SearchSettle); err != nil {
		return err
	}

	// Row 0 is the results section header; the first contact is row 1.
	rows, err := n.driver.FindAll(ctx, browser.TargetResultRows)
	if err != nil {
		return fmt.Errorf("no search results for %q: %w", contact, err)
	}
	if len(rows) < 2 {
		return fmt.Errorf("no contact found for %q: %w", contact, interfaces.TargetError(browser.TargetResultRows.Name))
	}
	if err := n.driver.Click(ctx, rows[1]); err != nil {
		return fmt.Errorf("failed to open chat for %q: %w", contact, err)
	}
	if err := settle(ctx, n.config.NavigationSettle); err != nil {
		return err
	}

	button, err := n.driver.Find(ctx, browser.TargetCatalogButton)
	if err != nil {
		return fmt.Errorf("contact %q has no catalog button: %w", contact, err)
	}
	if err := n.driver.Click(ctx, button); err != nil {
		return fmt.Errorf("failed to open catalog for %q: %w", contact, err)
	}
	if err := settle(ctx, n.config.NavigationSettle); err != nil {
		return err
	}

	n.logger.Debug().Str("contact", contact).Msg("Catalog opened")
	return nil
}

// Back returns one view towards the chat list
func (n *Navigator) Back(ctx context.Context) error {
	back, err := n.driver.Find(ctx, browser.TargetBackButton)
	if err != nil {
		return err
	}
	if err := n.driver.Click(ctx, back); err != nil {
		return err
	}
	return settle(ctx, n.config.NavigationSettle)
}
