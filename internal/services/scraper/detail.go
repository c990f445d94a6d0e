package scraper

import (
	"context"
	"errors"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/browser"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// DetailExtractor reads an open item detail view: every product image as a
// JPEG data URL plus the full description.
type DetailExtractor struct {
	driver interfaces.PageDriver
	config *common.ScraperConfig
	logger arbor.ILogger
}

// NewDetailExtractor creates a detail extractor
func NewDetailExtractor(driver interfaces.PageDriver, config *common.ScraperConfig, logger arbor.ILogger) *DetailExtractor {
	return &DetailExtractor{
		driver: driver,
		config: config,
		logger: logger,
	}
}

// Capture reads the current detail view. A missing description anchor means
// an empty description, not an error; image capture failures are fatal only
// when the page itself is gone.
func (e *DetailExtractor) Capture(ctx context.Context) (string, []string, error) {
	images, err := e.driver.CaptureImages(ctx, e.config.ImageQuality)
	if err != nil {
		return "", nil, err
	}

	description, err := e.driver.TextBeforeAnchor(ctx, browser.TargetMessageBusiness)
	if err != nil {
		if errors.Is(err, interfaces.ErrTargetNotFound) {
			return "", images, nil
		}
		return "", images, err
	}

	// Truncated descriptions hide behind a "Read more" span; expand, re-read,
	// and back out of the expanded view.
	if readMore, err := e.driver.FindByText(ctx, "span", browser.ReadMoreText); err == nil {
		if err := e.driver.Click(ctx, readMore); err == nil {
			if err := settle(ctx, e.config.DetailSettle); err != nil {
				return "", images, err
			}
			if expanded, err := e.driver.TextBeforeAnchor(ctx, browser.TargetMessageBusiness); err == nil {
				description = expanded
			}
			if back, err := e.driver.Find(ctx, browser.TargetBackButton); err == nil {
				if err := e.driver.Click(ctx, back); err != nil {
					e.logger.Warn().Err(err).Msg("Failed to back out of expanded description")
				}
				if err := settle(ctx, e.config.NavigationSettle); err != nil {
					return "", images, err
				}
			}
		}
	}

	return SpaceBeforeLink(description), images, nil
}

// SpaceBeforeLink inserts a space before the first "https" in a description.
// WhatsApp renders links glued to the preceding text; downstream consumers
// split on whitespace. First occurrence only, matching long-standing
// behavior that stored data already depends on.
func SpaceBeforeLink(description string) string {
	return strings.Replace(description, "https", " https", 1)
}
