package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"politefetch/cache"
	"politefetch/document"
	"politefetch/throttle"
)

// defaultUserAgent mimics a common browser. Sites serve different
// content, or none at all, to clients that identify as tooling.
const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

// defaultHeaders builds the baseline request header set. A fresh map is
// returned on every call so no two clients ever share one.
func defaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      defaultUserAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
}

// BanPredicate inspects a freshly parsed page and reports whether it is
// a ban or block page rather than real content.
type BanPredicate func(*document.Document) bool

// Client resolves URLs to fresh or cached content. Each resolution
// consults the cache first; only a miss (or an evicted ban page) touches
// the network, and every network attempt is paced by the throttle clock.
//
// A Client is single-threaded: it owns its clock and assumes it is the
// only writer of its cache.
type Client struct {
	cache     *cache.Cache
	clock     *throttle.Clock
	transport Transport
	banned    BanPredicate

	// headers is this client's private copy of the request header set.
	// Keys merge case-sensitively as provided.
	headers map[string]string

	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTransport replaces the default HTTP transport.
func WithTransport(t Transport) Option {
	return func(c *Client) {
		c.transport = t
	}
}

// WithHeaders merges headers over the default set. Supplied entries
// override defaults with the same key; the client keeps its own copy of
// the merged result.
func WithHeaders(h map[string]string) Option {
	return func(c *Client) {
		for k, v := range h {
			c.headers[k] = v
		}
	}
}

// WithBanPredicate sets the ban-page detector. The default never flags
// anything.
func WithBanPredicate(p BanPredicate) Option {
	return func(c *Client) {
		if p != nil {
			c.banned = p
		}
	}
}

// WithLogger sets the logger. The default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a Client over the given cache and throttle clock.
func New(c *cache.Cache, clock *throttle.Clock, opts ...Option) *Client {
	cl := &Client{
		cache:     c,
		clock:     clock,
		transport: NewHTTPTransport(&http.Client{}),
		banned:    func(*document.Document) bool { return false },
		headers:   defaultHeaders(),
		logger:    slog.New(slog.DiscardHandler),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// ResolveDocument returns the page at rawURL as a parsed document with
// absolute links, from cache when a record younger than stalenessDays
// exists, from the network otherwise. Freshly fetched pages are checked
// against the ban predicate, absolutized, and cached before they are
// returned.
func (cl *Client) ResolveDocument(ctx context.Context, rawURL string, stalenessDays int) (*document.Document, error) {
	doc, _, err := cl.resolve(ctx, rawURL, stalenessDays, true)
	return doc, err
}

// ResolveBytes returns the raw response body at rawURL, from cache when
// fresh enough, from the network otherwise. The content is cached but
// never parsed, so the ban predicate does not apply.
func (cl *Client) ResolveBytes(ctx context.Context, rawURL string, stalenessDays int) ([]byte, error) {
	_, raw, err := cl.resolve(ctx, rawURL, stalenessDays, false)
	return raw, err
}

// resolve implements the shared resolution loop. The loop runs at most
// twice: a second iteration happens only after a cached ban page was
// evicted, and that iteration must see a cache miss.
func (cl *Client) resolve(ctx context.Context, rawURL string, stalenessDays int, asDocument bool) (*document.Document, []byte, error) {
	const maxAttempts = 2

	for attempt := 0; attempt < maxAttempts; attempt++ {
		retrying := attempt > 0

		content, hit, err := cl.cache.Read(ctx, rawURL, stalenessDays, cl.now())
		if err != nil {
			return nil, nil, err
		}

		if hit {
			if retrying {
				// The entry was evicted right before this iteration and
				// this client is the cache's only writer.
				panic(fmt.Sprintf("fetch: cache entry for %s reappeared after eviction", rawURL))
			}

			if !asDocument {
				return nil, content, nil
			}

			doc, err := document.ParseBytes(content, rawURL)
			if err != nil {
				return nil, nil, fmt.Errorf("fetch %s: cached content unparsable: %w", rawURL, err)
			}
			if !cl.banned(doc) {
				return doc, nil, nil
			}

			// A ban page made it into the cache (typically screened by
			// a predicate that didn't know it yet). Evict and refetch.
			cl.logger.Warn("cached page recognized as ban page, refetching", "url", rawURL)
			if err := cl.cache.Evict(ctx, rawURL); err != nil {
				return nil, nil, err
			}
			continue
		}

		return cl.fetchFresh(ctx, rawURL, asDocument)
	}

	panic(fmt.Sprintf("fetch: resolve loop for %s exceeded its retry limit", rawURL))
}

// fetchFresh performs one throttled network fetch and, on success,
// stores the result in the cache under today's date.
func (cl *Client) fetchFresh(ctx context.Context, rawURL string, asDocument bool) (*document.Document, []byte, error) {
	if err := cl.clock.Wait(ctx); err != nil {
		return nil, nil, err
	}

	// Mark before the request goes out: an attempt that fails from here
	// on still advances pacing.
	cl.clock.Mark()

	status, body, err := cl.transport.Fetch(ctx, rawURL, cl.headers)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer body.Close()

	if status != http.StatusOK {
		return nil, nil, &HTTPStatusError{URL: rawURL, Code: status}
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: failed to read body: %w", rawURL, err)
	}

	if !asDocument {
		if err := cl.cache.Write(ctx, rawURL, raw, cl.now()); err != nil {
			return nil, nil, err
		}
		cl.logger.Debug("fetched", "url", rawURL, "bytes", len(raw))
		return nil, raw, nil
	}

	doc, err := document.ParseBytes(raw, rawURL)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	if cl.banned(doc) {
		// Evict any stored record so the ban page cannot serve from
		// cache on a later call.
		if err := cl.cache.Evict(ctx, rawURL); err != nil {
			cl.logger.Error("failed to evict banned page", "url", rawURL, "error", err)
		}
		cl.logger.Error("fetched page recognized as ban page", "url", rawURL)
		return nil, nil, &BannedError{URL: rawURL}
	}

	doc.AbsolutizeLinks()
	serialized, err := doc.HTML()
	if err != nil {
		return nil, nil, err
	}
	if err := cl.cache.Write(ctx, rawURL, serialized, cl.now()); err != nil {
		return nil, nil, err
	}

	cl.logger.Debug("fetched", "url", rawURL, "bytes", len(serialized))
	return doc, nil, nil
}
