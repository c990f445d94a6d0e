package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Browser     BrowserConfig   `toml:"browser"`
	Scraper     ScraperConfig   `toml:"scraper"`
	Uploader    UploaderConfig  `toml:"uploader"`
	Firebase    FirebaseConfig  `toml:"firebase"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	WebSocket   WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
}

// BrowserConfig controls the Chrome instance that hosts the WhatsApp Web session.
// UserDataDir must point at a profile that is already logged in; there is no
// QR/login automation.
type BrowserConfig struct {
	ExecPath          string        `toml:"exec_path"`                         // Chrome binary path; empty = chromedp default lookup
	UserDataDir       string        `toml:"user_data_dir" validate:"required"` // Persistent profile directory with the WhatsApp login
	Headless          bool          `toml:"headless"`
	WindowWidth       int           `toml:"window_width"`
	WindowHeight      int           `toml:"window_height"`
	StartURL          string        `toml:"start_url"`          // WhatsApp Web URL
	NavigationTimeout time.Duration `toml:"navigation_timeout"` // Initial page load timeout
}

// ScraperConfig controls the catalog walk. Settle delays are the waits between
// page gestures; tests set them to zero.
type ScraperConfig struct {
	SearchSettle      time.Duration `toml:"search_settle"`     // After typing into the search box
	NavigationSettle  time.Duration `toml:"navigation_settle"` // After clicks that change the visible panel
	DetailSettle      time.Duration `toml:"detail_settle"`     // After opening an item detail view
	LazyLoadSettle    time.Duration `toml:"lazy_load_settle"`  // After scrolling the sentinel card into view
	MinCatalogCards   int           `toml:"min_catalog_cards"` // Below this the list is placeholder rows, not a catalog
	MaxLazyLoadRounds int           `toml:"max_lazy_load_rounds"`
	ContactTimeout    time.Duration `toml:"contact_timeout"` // Wall-clock bound for a single contact's walk
	ImageQuality      float64       `toml:"image_quality" validate:"gt=0,lte=1"`
}

// UploaderConfig controls the session upload coordinator.
type UploaderConfig struct {
	ImageSkip      int           `toml:"image_skip"`      // Leading captured images to drop (UI chrome)
	ImageMax       int           `toml:"image_max"`       // Max images uploaded per item
	ListPageSize   int           `toml:"list_page_size"`  // Page size for the existing-items fetch
	RequestTimeout time.Duration `toml:"request_timeout"` // Per REST call
	RateLimit      time.Duration `toml:"rate_limit"`      // Minimum spacing between REST calls
	MaxRetries     int           `toml:"max_retries"`
}

// FirebaseConfig identifies the remote project the session documents and
// images are written to. Auth tokens arrive per run, never from config.
type FirebaseConfig struct {
	ProjectID     string `toml:"project_id" validate:"required"`
	FirestoreURL  string `toml:"firestore_url"`
	StorageURL    string `toml:"storage_url"`
	StorageBucket string `toml:"storage_bucket" validate:"required"`
}

// SchedulerConfig controls recurring scheduled scrapes.
type SchedulerConfig struct {
	Enabled bool `toml:"enabled"`
}

// WebSocketConfig contains configuration for WebSocket event streaming
type WebSocketConfig struct {
	MinLevel      string   `toml:"min_level"`      // Minimum log level to broadcast ("debug", "info", "warn", "error")
	AllowedEvents []string `toml:"allowed_events"` // Whitelist of event types to broadcast. Empty = all.
	// ProgressThrottle spaces out scrape_progress broadcasts so a fast walk
	// does not flood clients. Empty disables throttling.
	ProgressThrottle string `toml:"progress_throttle"`
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in colligo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Browser: BrowserConfig{
			UserDataDir:       "./profile",
			Headless:          true,
			WindowWidth:       1280,
			WindowHeight:      900,
			StartURL:          "https://web.whatsapp.com/",
			NavigationTimeout: 90 * time.Second,
		},
		Scraper: ScraperConfig{
			SearchSettle:      2 * time.Second,
			NavigationSettle:  1500 * time.Millisecond,
			DetailSettle:      1500 * time.Millisecond,
			LazyLoadSettle:    2 * time.Second,
			MinCatalogCards:   3,
			MaxLazyLoadRounds: 25,
			ContactTimeout:    10 * time.Minute,
			ImageQuality:      0.8,
		},
		Uploader: UploaderConfig{
			ImageSkip:      2,
			ImageMax:       5,
			ListPageSize:   1000,
			RequestTimeout: 30 * time.Second,
			RateLimit:      200 * time.Millisecond,
			MaxRetries:     3,
		},
		Firebase: FirebaseConfig{
			FirestoreURL: "https://firestore.googleapis.com/v1",
			StorageURL:   "https://firebasestorage.googleapis.com/v0",
		},
		Scheduler: SchedulerConfig{
			Enabled: true,
		},
		WebSocket: WebSocketConfig{
			MinLevel:      "info",
			AllowedEvents: []string{},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files; later files override
// earlier files. Priority: CLI flags > environment > last file > ... > defaults.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("COLLIGO_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("COLLIGO_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("COLLIGO_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("COLLIGO_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("COLLIGO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("COLLIGO_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Browser configuration
	if execPath := os.Getenv("COLLIGO_BROWSER_EXEC_PATH"); execPath != "" {
		config.Browser.ExecPath = execPath
	}
	if userDataDir := os.Getenv("COLLIGO_BROWSER_USER_DATA_DIR"); userDataDir != "" {
		config.Browser.UserDataDir = userDataDir
	}
	if headless := os.Getenv("COLLIGO_BROWSER_HEADLESS"); headless != "" {
		if h, err := strconv.ParseBool(headless); err == nil {
			config.Browser.Headless = h
		}
	}
	if startURL := os.Getenv("COLLIGO_BROWSER_START_URL"); startURL != "" {
		config.Browser.StartURL = startURL
	}

	// Scraper configuration
	if contactTimeout := os.Getenv("COLLIGO_SCRAPER_CONTACT_TIMEOUT"); contactTimeout != "" {
		if d, err := time.ParseDuration(contactTimeout); err == nil {
			config.Scraper.ContactTimeout = d
		}
	}
	if maxRounds := os.Getenv("COLLIGO_SCRAPER_MAX_LAZY_LOAD_ROUNDS"); maxRounds != "" {
		if n, err := strconv.Atoi(maxRounds); err == nil {
			config.Scraper.MaxLazyLoadRounds = n
		}
	}

	// Firebase configuration
	if projectID := os.Getenv("COLLIGO_FIREBASE_PROJECT_ID"); projectID != "" {
		config.Firebase.ProjectID = projectID
	}
	if bucket := os.Getenv("COLLIGO_FIREBASE_STORAGE_BUCKET"); bucket != "" {
		config.Firebase.StorageBucket = bucket
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks the configuration against struct tags and cross-field rules
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Uploader.ImageSkip < 0 || c.Uploader.ImageMax <= 0 {
		return fmt.Errorf("invalid uploader image window: skip=%d max=%d", c.Uploader.ImageSkip, c.Uploader.ImageMax)
	}
	if c.Scraper.MinCatalogCards < 1 {
		return fmt.Errorf("min_catalog_cards must be at least 1, got %d", c.Scraper.MinCatalogCards)
	}
	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
