package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/interfaces"
)

// Driver implements interfaces.PageDriver over a live chromedp page.
// Element handles are indices into the node registry the page scripts keep;
// any page mutation invalidates them, so callers re-query after navigation
// the same way the walker re-queries the card list.
type Driver struct {
	browser *Browser
	logger  arbor.ILogger
}

// NewDriver creates a page driver bound to the browser's WhatsApp session
func NewDriver(browser *Browser, logger arbor.ILogger) *Driver {
	return &Driver{
		browser: browser,
		logger:  logger,
	}
}

// run executes chromedp actions on the page, honoring the caller's deadline
// and cancellation.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	pageCtx, err := d.browser.PageContext()
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(pageCtx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(runCtx, deadline)
		defer cancel()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func quoteJS(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func nodeIndex(el *interfaces.Element) (int, error) {
	if el == nil {
		return 0, fmt.Errorf("nil element handle")
	}
	i, err := strconv.Atoi(el.ObjectID)
	if err != nil {
		return 0, fmt.Errorf("malformed element handle %q: %w", el.ObjectID, err)
	}
	return i, nil
}

// Find resolves a target, trying each selector in order
func (d *Driver) Find(ctx context.Context, target interfaces.Target) (*interfaces.Element, error) {
	for _, selector := range target.Selectors {
		var count int
		script := fmt.Sprintf(registerNodesJS, quoteJS(selector))
		if err := d.run(ctx, chromedp.Evaluate(script, &count)); err != nil {
			return nil, fmt.Errorf("find %s: %w", target.Name, err)
		}
		if count > 0 {
			return &interfaces.Element{ObjectID: "0", Selector: selector}, nil
		}
	}
	return nil, interfaces.TargetError(target.Name)
}

// FindAll resolves every element for the first selector that matches
func (d *Driver) FindAll(ctx context.Context, target interfaces.Target) ([]*interfaces.Element, error) {
	for _, selector := range target.Selectors {
		var count int
		script := fmt.Sprintf(registerNodesJS, quoteJS(selector))
		if err := d.run(ctx, chromedp.Evaluate(script, &count)); err != nil {
			return nil, fmt.Errorf("find all %s: %w", target.Name, err)
		}
		if count > 0 {
			elements := make([]*interfaces.Element, count)
			for i := 0; i < count; i++ {
				elements[i] = &interfaces.Element{ObjectID: strconv.Itoa(i), Selector: selector}
			}
			return elements, nil
		}
	}
	return nil, interfaces.TargetError(target.Name)
}

// FindByText resolves the first element matching selector with the exact
// trimmed text
func (d *Driver) FindByText(ctx context.Context, selector, text string) (*interfaces.Element, error) {
	var index int
	script := fmt.Sprintf(registerNodesByTextJS, quoteJS(selector), quoteJS(text))
	if err := d.run(ctx, chromedp.Evaluate(script, &index)); err != nil {
		return nil, fmt.Errorf("find by text %q: %w", text, err)
	}
	if index < 0 {
		return nil, interfaces.TargetError(fmt.Sprintf("%s with text %q", selector, text))
	}
	return &interfaces.Element{ObjectID: strconv.Itoa(index), Selector: selector}, nil
}

// Click activates an element the way a user would
func (d *Driver) Click(ctx context.Context, el *interfaces.Element) error {
	i, err := nodeIndex(el)
	if err != nil {
		return err
	}
	var ok bool
	if err := d.run(ctx, chromedp.Evaluate(fmt.Sprintf(clickNodeJS, i), &ok)); err != nil {
		return fmt.Errorf("click %s: %w", el.Selector, err)
	}
	if !ok {
		return fmt.Errorf("click %s: stale element handle", el.Selector)
	}
	return nil
}

// InsertText types text into a contenteditable element
func (d *Driver) InsertText(ctx context.Context, el *interfaces.Element, text string) error {
	i, err := nodeIndex(el)
	if err != nil {
		return err
	}
	var ok bool
	script := fmt.Sprintf(insertTextJS, i, quoteJS(text))
	if err := d.run(ctx, chromedp.Evaluate(script, &ok)); err != nil {
		return fmt.Errorf("insert text into %s: %w", el.Selector, err)
	}
	if !ok {
		return fmt.Errorf("insert text into %s: stale element handle", el.Selector)
	}
	return nil
}

// ScrollIntoView brings the element into the viewport
func (d *Driver) ScrollIntoView(ctx context.Context, el *interfaces.Element) error {
	i, err := nodeIndex(el)
	if err != nil {
		return err
	}
	var ok bool
	if err := d.run(ctx, chromedp.Evaluate(fmt.Sprintf(scrollNodeJS, i), &ok)); err != nil {
		return fmt.Errorf("scroll %s into view: %w", el.Selector, err)
	}
	if !ok {
		return fmt.Errorf("scroll %s: stale element handle", el.Selector)
	}
	return nil
}

// SpanTexts parses the element's HTML snapshot and returns its dir=auto span
// texts in document order.
func (d *Driver) SpanTexts(ctx context.Context, el *interfaces.Element) ([]string, error) {
	i, err := nodeIndex(el)
	if err != nil {
		return nil, err
	}

	var html *string
	if err := d.run(ctx, chromedp.Evaluate(fmt.Sprintf(nodeOuterHTMLJS, i), &html)); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", el.Selector, err)
	}
	if html == nil {
		return nil, fmt.Errorf("snapshot %s: stale element handle", el.Selector)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(*html))
	if err != nil {
		return nil, fmt.Errorf("parse %s snapshot: %w", el.Selector, err)
	}

	var texts []string
	doc.Find(CardSpanSelector).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(s.Text()))
	})
	return texts, nil
}

// TextBeforeAnchor scrolls the anchor into view and reads its previous
// sibling's text
func (d *Driver) TextBeforeAnchor(ctx context.Context, target interfaces.Target) (string, error) {
	for _, selector := range target.Selectors {
		var text *string
		script := fmt.Sprintf(textBeforeAnchorJS, quoteJS(selector))
		if err := d.run(ctx, chromedp.Evaluate(script, &text)); err != nil {
			return "", fmt.Errorf("read before %s: %w", target.Name, err)
		}
		if text != nil {
			return *text, nil
		}
	}
	return "", interfaces.TargetError(target.Name)
}

// CaptureImages re-encodes the detail view's images to JPEG data URLs
func (d *Driver) CaptureImages(ctx context.Context, quality float64) ([]string, error) {
	var images []string
	script := fmt.Sprintf(captureImagesJS, quoteJS(DetailImageSelector), quality)
	if err := d.run(ctx, chromedp.Evaluate(script, &images)); err != nil {
		return nil, fmt.Errorf("capture images: %w", err)
	}
	return images, nil
}

var _ interfaces.PageDriver = (*Driver)(nil)
