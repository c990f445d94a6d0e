package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/colligo/internal/browser"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/handlers"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/services/events"
	"github.com/ternarybob/colligo/internal/services/scheduler"
	"github.com/ternarybob/colligo/internal/services/scraper"
	badgerstore "github.com/ternarybob/colligo/internal/storage/badger"
	"github.com/ternarybob/colligo/internal/storage/firebase"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Browser hosting the WhatsApp Web session
	Browser *browser.Browser
	Driver  interfaces.PageDriver

	// Event-driven services
	EventService interfaces.EventService

	// Remote session and object stores (token-scoped per run)
	StoreProvider interfaces.StoreProvider

	// Scrape orchestration
	ScraperService   interfaces.ScraperService
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	APIHandler      *handlers.APIHandler
	ScrapeHandler   *handlers.ScrapeHandler
	ScheduleHandler *handlers.ScheduleHandler
	WSHandler       *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger, &app.Config.WebSocket)

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("project_id", cfg.Firebase.ProjectID).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage initializes the local storage layer (Badger)
func (a *App) initStorage() error {
	storageManager, err := badgerstore.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices wires the browser driver, remote stores, and the scrape and
// scheduler services.
func (a *App) initServices() error {
	a.Browser = browser.New(&a.Config.Browser, a.Logger)
	a.Driver = browser.NewDriver(a.Browser, a.Logger)

	a.StoreProvider = firebase.NewProvider(a.Config, a.Logger)

	a.ScraperService = scraper.NewService(
		a.Driver,
		a.StoreProvider,
		a.EventService,
		a.StorageManager.JobStorage(),
		a.Config,
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(
		a.ScraperService,
		a.StorageManager.ScheduleStorage(),
		a.Logger,
	)

	if a.Config.Scheduler.Enabled {
		if err := a.SchedulerService.Start(context.Background()); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		a.Logger.Debug().Msg("Scheduler service started")
	}

	return nil
}

// initHandlers creates the HTTP handlers
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.ScrapeHandler = handlers.NewScrapeHandler(a.ScraperService, a.StorageManager.JobStorage(), a.Logger)
	a.ScheduleHandler = handlers.NewScheduleHandler(a.SchedulerService, a.Logger)
}

// StartBrowser launches Chrome and loads the start page. Separate from New
// so the HTTP server can come up even while Chrome is still starting.
func (a *App) StartBrowser(ctx context.Context) error {
	return a.Browser.Start(ctx)
}

// Close shuts down all components in reverse dependency order
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.WSHandler != nil {
		a.WSHandler.CloseAll()
	}

	if a.Browser != nil {
		a.Browser.Stop()
		a.Logger.Info().Msg("Browser stopped")
	}

	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
