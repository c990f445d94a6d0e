package browser

import (
	"context"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/common"
)

// Browser owns the single Chrome instance hosting the WhatsApp Web session.
// The user-data dir carries the login; one instance serves all runs.
type Browser struct {
	config          *common.BrowserConfig
	logger          arbor.ILogger
	mu              sync.Mutex
	browserCtx      context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
	started         bool
}

// New creates a browser manager. Start must be called before PageContext.
func New(config *common.BrowserConfig, logger arbor.ILogger) *Browser {
	return &Browser{
		config: config,
		logger: logger,
	}
}

// Start launches Chrome with the persistent profile and navigates to
// WhatsApp Web.
func (b *Browser) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return fmt.Errorf("browser already started")
	}

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserDataDir(b.config.UserDataDir),
		chromedp.WindowSize(b.config.WindowWidth, b.config.WindowHeight),
	)
	if b.config.ExecPath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(b.config.ExecPath))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	b.logger.Info().
		Str("start_url", b.config.StartURL).
		Bool("headless", b.config.Headless).
		Str("user_data_dir", b.config.UserDataDir).
		Msg("Starting browser")

	navCtx, navCancel := context.WithTimeout(browserCtx, b.config.NavigationTimeout)
	defer navCancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithDeadline(navCtx, deadline)
		defer cancel()
	}

	if err := chromedp.Run(navCtx, chromedp.Navigate(b.config.StartURL)); err != nil {
		browserCancel()
		allocatorCancel()
		return fmt.Errorf("failed to open %s: %w", b.config.StartURL, err)
	}

	b.browserCtx = browserCtx
	b.browserCancel = browserCancel
	b.allocatorCancel = allocatorCancel
	b.started = true

	b.logger.Info().Msg("Browser started")
	return nil
}

// PageContext returns the chromedp context for the live page
func (b *Browser) PageContext() (context.Context, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.started {
		return nil, fmt.Errorf("browser not started")
	}
	return b.browserCtx, nil
}

// Stop shuts the browser down
func (b *Browser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return
	}
	b.browserCancel()
	b.allocatorCancel()
	b.started = false
	b.logger.Info().Msg("Browser stopped")
}
