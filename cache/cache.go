package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Store is the persistence layer the cache writes through. It is
// satisfied by *storage.DB.
type Store interface {
	// Upsert stores content for a URL with its fetch date, replacing
	// any existing record.
	Upsert(ctx context.Context, url string, fetchDate time.Time, content []byte) error

	// GetIfFresherThan returns stored content only when its fetch date
	// is strictly later than the threshold date, (nil, nil) otherwise.
	GetIfFresherThan(ctx context.Context, url string, threshold time.Time) ([]byte, error)

	// Delete removes the record for a URL. Absent URLs are not an error.
	Delete(ctx context.Context, url string) error
}

// Cache is a persistent, freshness-bounded cache of fetched pages.
// Content is compressed on write and decompressed on read; freshness is
// decided by calendar date with day granularity.
type Cache struct {
	store  Store
	codec  Codec
	logger *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithCodec replaces the default zlib codec.
func WithCodec(c Codec) Option {
	return func(cc *Cache) {
		cc.codec = c
	}
}

// WithLogger sets the logger. The default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(cc *Cache) {
		cc.logger = l
	}
}

// New creates a Cache over the given store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{
		store:  store,
		codec:  ZlibCodec{},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Read returns cached content for a URL when a record exists whose fetch
// date is strictly later than now minus stalenessDays. A stalenessDays
// of zero or less always misses: the threshold equals or postdates
// today, and the strict comparison can never pass. The boolean reports
// whether a qualifying record was found; a corrupt stored blob surfaces
// as an error, never as a miss.
func (c *Cache) Read(ctx context.Context, url string, stalenessDays int, now time.Time) ([]byte, bool, error) {
	threshold := now.AddDate(0, 0, -stalenessDays)

	stored, err := c.store.GetIfFresherThan(ctx, url, threshold)
	if err != nil {
		return nil, false, fmt.Errorf("cache read for %s: %w", url, err)
	}
	if stored == nil {
		c.logger.Debug("cache miss", "url", url, "staleness_days", stalenessDays)
		return nil, false, nil
	}

	content, err := c.codec.Decode(stored)
	if err != nil {
		return nil, false, fmt.Errorf("cache decode for %s: %w", url, err)
	}

	c.logger.Debug("cache hit", "url", url, "bytes", len(content))
	return content, true, nil
}

// Write compresses content and stores it under the URL with now's
// calendar date as the fetch date. Re-writing a URL replaces both
// content and date.
func (c *Cache) Write(ctx context.Context, url string, content []byte, now time.Time) error {
	encoded, err := c.codec.Encode(content)
	if err != nil {
		return fmt.Errorf("cache encode for %s: %w", url, err)
	}

	if err := c.store.Upsert(ctx, url, now, encoded); err != nil {
		return fmt.Errorf("cache write for %s: %w", url, err)
	}

	c.logger.Debug("cache write", "url", url, "raw_bytes", len(content), "stored_bytes", len(encoded))
	return nil
}

// Evict removes any record for the URL. Evicting an absent URL succeeds.
func (c *Cache) Evict(ctx context.Context, url string) error {
	if err := c.store.Delete(ctx, url); err != nil {
		return fmt.Errorf("cache evict for %s: %w", url, err)
	}

	c.logger.Debug("cache evict", "url", url)
	return nil
}
