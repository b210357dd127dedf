package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"politefetch/throttle"
)

// Default configuration values. They favor polite crawling over speed:
// the throttle bounds and staleness window are deliberately generous so
// an unconfigured run never hammers a host.
const (
	// AppName is used for XDG directory paths.
	AppName = "politefetch"

	// DefaultStoreFile is the page store file name inside the XDG data
	// directory.
	DefaultStoreFile = "cache.db"

	// DefaultMinDelay and DefaultMaxDelay bound the randomized pause
	// between consecutive fetches from the same client. One to three
	// seconds keeps request timing irregular without making crawls
	// unbearably slow.
	DefaultMinDelay = 1 * time.Second
	DefaultMaxDelay = 3 * time.Second

	// DefaultStalenessDays is how old a cached page may be before it is
	// refetched. A week suits slowly changing sites; callers crawling
	// news-like content should lower it per site.
	DefaultStalenessDays = 7

	// DefaultTimeout is the per-request timeout applied when the caller
	// does not inject an HTTP client.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxGenerations bounds crawl frontier generations.
	DefaultMaxGenerations = 100

	// DefaultMemoCapacity bounds the in-crawl resolution memoizer.
	DefaultMemoCapacity = 10000

	// DefaultConcurrency is the number of batch jobs crawling at once.
	DefaultConcurrency = 4
)

// Config holds knobs for a crawl run. It is populated by the caller,
// optionally from a site-overrides file, and passed through the
// application by dependency injection rather than global state.
//
// Design decision: a single flat struct instead of nested sub-configs.
// The number of options is manageable, and nesting would add
// complexity without significant benefit.
type Config struct {
	// MinDelay and MaxDelay bound the randomized pause between fetches.
	// The actual pause is redrawn from this range after every request.
	MinDelay time.Duration
	MaxDelay time.Duration

	// StalenessDays is the default cache freshness window in days.
	// Zero means cached copies are never acceptable. Site overrides
	// take precedence per host.
	StalenessDays int

	// StorePath is the SQLite page store location. Defaults to
	// cache.db inside the XDG data directory.
	StorePath string

	// MaxGenerations bounds crawl frontier generations. Zero removes
	// the bound.
	MaxGenerations int

	// MaxUnits bounds handler dispatches per crawl. Zero removes the
	// bound.
	MaxUnits int

	// MemoCapacity bounds the resolution memoizer. Zero selects the
	// memo package default.
	MemoCapacity int

	// Concurrency is the number of batch jobs crawling at once.
	Concurrency int

	// Timeout is the per-request timeout for the default HTTP client.
	Timeout time.Duration

	// UserAgent overrides the default User-Agent header when not empty.
	UserAgent string

	// Verbose enables debug-level log output. When false, only
	// warnings and errors are logged.
	Verbose bool

	// SitesFilePath is an explicit path to the site-overrides file.
	// If empty, FindFile searches the usual locations.
	SitesFilePath string

	// Sites holds per-host overrides loaded from the overrides file.
	Sites *File
}

// NewConfig creates a Config with default values.
//
// Design decision: a constructor instead of relying on zero values
// because most defaults are non-zero. It also serves as documentation
// of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MinDelay:       DefaultMinDelay,
		MaxDelay:       DefaultMaxDelay,
		StalenessDays:  DefaultStalenessDays,
		StorePath:      filepath.Join(XDGDataDir(), DefaultStoreFile),
		MaxGenerations: DefaultMaxGenerations,
		MemoCapacity:   DefaultMemoCapacity,
		Concurrency:    DefaultConcurrency,
		Timeout:        DefaultTimeout,
	}
}

// XDGDataDir returns the XDG data directory for politefetch.
// On Linux: ~/.local/share/politefetch
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for politefetch.
// On Linux: ~/.config/politefetch
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for politefetch.
// On Linux: ~/.cache/politefetch
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// ThrottleBounds returns the configured politeness interval range in
// the form the throttle package consumes.
func (c *Config) ThrottleBounds() throttle.Bounds {
	return throttle.Bounds{Min: c.MinDelay, Max: c.MaxDelay}
}

// Validate checks the configuration and returns the first problem
// found. Fixing one error often makes others irrelevant, so errors are
// not collected.
func (c *Config) Validate() error {
	if c.StorePath == "" {
		return ErrNoStorePath
	}

	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return ErrInvalidThrottleBounds
	}

	// Zero staleness is meaningful, it disables the cache. Negative
	// values are a configuration mistake.
	if c.StalenessDays < 0 {
		return ErrInvalidStaleness
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MemoCapacity < 0 {
		return ErrInvalidMemoCapacity
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	return nil
}
