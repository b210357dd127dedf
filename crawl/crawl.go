package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"politefetch/document"
	"politefetch/fetch"
	"politefetch/memo"
)

// DefaultMaxGenerations bounds how many frontier generations a single
// Crawl call processes before giving up.
const DefaultMaxGenerations = 100

// Unit is one piece of crawl work: a URL, how stale a cached copy of it
// may be, and the shape the result should take.
type Unit struct {
	// URL is the absolute URL to resolve.
	URL string

	// StalenessDays is the maximum acceptable age of a cached copy in
	// days. Zero or negative means a cached copy is never acceptable.
	StalenessDays int

	// AsDocument selects parsed HTML resolution. When false the unit
	// resolves to raw response bytes.
	AsDocument bool
}

// Payload carries a resolved unit to its handler. Exactly one field is
// populated, matching the unit's AsDocument flag.
type Payload struct {
	// Doc is the parsed page for document units.
	Doc *document.Document

	// Raw is the response body for byte units.
	Raw []byte
}

// Handler consumes resolved payloads and names the follow-up work.
//
// The spider deduplicates by handler identity, so two handlers
// reporting the same ID share visit state.
type Handler interface {
	// ID identifies the handler for visit bookkeeping.
	ID() string

	// Handle processes one payload and returns follow-up work in
	// dispatch order.
	Handle(p Payload) []Successor
}

// Successor pairs a handler with the units it should process next.
type Successor struct {
	Handler Handler
	Units   []Unit
}

// Seed is a crawl starting point.
type Seed struct {
	Handler Handler
	Unit    Unit
}

// Resolver turns URLs into content. fetch.Client implements it; tests
// substitute fakes.
type Resolver interface {
	// ResolveDocument returns the parsed page for rawURL, served from
	// cache when a copy no older than stalenessDays exists.
	ResolveDocument(ctx context.Context, rawURL string, stalenessDays int) (*document.Document, error)

	// ResolveBytes returns the raw body for rawURL with the same cache
	// semantics.
	ResolveBytes(ctx context.Context, rawURL string, stalenessDays int) ([]byte, error)
}

var _ Resolver = (*fetch.Client)(nil)

// visitKey identifies a handler and unit pairing for deduplication.
// The result shape is deliberately absent: asking for the same URL at
// the same staleness as bytes instead of a document is still the same
// visit.
type visitKey struct {
	handler   string
	url       string
	staleness int
}

// task is one frontier entry awaiting dispatch.
type task struct {
	handler Handler
	unit    Unit
}

func (t task) key() visitKey {
	return visitKey{handler: t.handler.ID(), url: t.unit.URL, staleness: t.unit.StalenessDays}
}

// Spider walks a graph of crawl units generation by generation. It
// manages the frontier, deduplicates work, and keeps units rejected by
// the remote host from ever being queued again.
//
// Design decision: the frontier advances in whole generations rather
// than one popped queue item at a time because:
//  1. Handlers run in a predictable order within a generation
//  2. Deduplication happens at a well-defined point, the generation
//     boundary, which keeps repeated crawls of the same site stable
//  3. Generation and unit limits are easy to reason about
//
// A Spider is not safe for concurrent use. Run one crawl at a time per
// spider; Batch builds one spider per job for exactly this reason.
type Spider struct {
	// resolver produces payloads for units, normally a fetch.Client.
	resolver Resolver

	// maxGenerations bounds frontier generations per Crawl call.
	// Zero or negative means unbounded.
	maxGenerations int

	// maxUnits bounds handler dispatches per Crawl call. Zero means
	// unbounded.
	maxUnits int

	// memoCapacity sizes the resolution memoizer. Zero selects the
	// memo package default.
	memoCapacity int

	// memo absorbs duplicate resolutions. Keyed by the full unit, so
	// document and byte resolutions of one URL are cached separately.
	memo *memo.Cache[Unit, Payload]

	// visited records handler and unit pairings that were dispatched
	// or conclusively failed.
	visited map[visitKey]struct{}

	// disallowed records URLs the remote host rejected with a non-OK
	// status. Units naming them are dropped at enqueue time from then
	// on, whatever their staleness or shape.
	disallowed map[string]struct{}

	// logger receives crawl progress. Defaults to a discard logger.
	logger *slog.Logger
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxGenerations bounds the number of frontier generations one
// Crawl call processes. Zero or negative removes the bound.
func WithMaxGenerations(n int) SpiderOption {
	return func(s *Spider) {
		s.maxGenerations = n
	}
}

// WithMaxUnits bounds the number of handler dispatches in one Crawl
// call. Zero, the default, means no bound.
func WithMaxUnits(n int) SpiderOption {
	return func(s *Spider) {
		s.maxUnits = n
	}
}

// WithMemoCapacity bounds the resolution memoizer. Zero selects the
// memo package default.
func WithMemoCapacity(n int) SpiderOption {
	return func(s *Spider) {
		s.memoCapacity = n
	}
}

// WithLogger sets the logger for crawl progress. The default discards
// everything.
func WithLogger(l *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSpider creates a Spider that resolves units through r.
func NewSpider(r Resolver, opts ...SpiderOption) (*Spider, error) {
	s := &Spider{
		resolver:       r,
		maxGenerations: DefaultMaxGenerations,
		visited:        make(map[visitKey]struct{}),
		disallowed:     make(map[string]struct{}),
		logger:         slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	m, err := memo.New[Unit, Payload](
		memo.WithCapacity(s.memoCapacity),
		memo.WithStats(),
		memo.WithLogger(s.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("build resolution memoizer: %w", err)
	}
	s.memo = m

	return s, nil
}

// Stats summarizes a single Crawl call.
type Stats struct {
	// Generations is the number of frontier generations processed.
	Generations int

	// Dispatched is the number of payloads delivered to handlers.
	Dispatched int

	// Skipped is the number of queued units dropped because their
	// handler and unit pairing was already visited, or because the
	// unit had been disallowed.
	Skipped int

	// Failed is the number of units whose resolution failed for a
	// reason other than a rejected HTTP status.
	Failed int

	// Disallowed is the number of units the remote host rejected.
	Disallowed int
}

// Crawl processes the seeds and everything their handlers reach, and
// reports what happened. It returns early only when ctx is done; any
// other failure is contained to the unit that caused it.
func (s *Spider) Crawl(ctx context.Context, seeds []Seed) (Stats, error) {
	var st Stats

	current := make([]task, 0, len(seeds))
	for _, sd := range seeds {
		current = append(current, task{handler: sd.Handler, unit: sd.Unit})
	}

	for len(current) > 0 {
		if s.maxGenerations > 0 && st.Generations >= s.maxGenerations {
			s.logger.Warn("stopping crawl at generation limit",
				"generations", st.Generations,
				"pending", len(current),
			)
			break
		}
		st.Generations++

		// The whole generation is filtered against visit state up
		// front. A unit queued twice within one generation passes the
		// filter twice and its handler runs twice; the memoizer keeps
		// the second pass from resolving again.
		runnable := make([]task, 0, len(current))
		for _, t := range current {
			if _, seen := s.visited[t.key()]; seen {
				st.Skipped++
				continue
			}
			runnable = append(runnable, t)
		}

		var next []task
		for _, t := range runnable {
			select {
			case <-ctx.Done():
				return st, ctx.Err()
			default:
			}

			if s.maxUnits > 0 && st.Dispatched >= s.maxUnits {
				s.logger.Warn("stopping crawl at unit limit",
					"dispatched", st.Dispatched,
				)
				return st, nil
			}

			p, err := s.resolve(ctx, t.unit)
			if err != nil {
				if ctx.Err() != nil {
					return st, ctx.Err()
				}

				var statusErr *fetch.HTTPStatusError
				if errors.As(err, &statusErr) {
					s.logger.Warn("host disallowed unit",
						"url", t.unit.URL,
						"status", statusErr.Code,
					)
					s.disallowed[t.unit.URL] = struct{}{}
					st.Disallowed++
				} else {
					s.logger.Warn("unit resolution failed",
						"url", t.unit.URL,
						"handler", t.handler.ID(),
						"error", err,
					)
					st.Failed++
				}
				s.visited[t.key()] = struct{}{}
				continue
			}

			successors := t.handler.Handle(p)
			st.Dispatched++
			s.visited[t.key()] = struct{}{}

			for _, succ := range successors {
				for _, u := range succ.Units {
					if _, banned := s.disallowed[u.URL]; banned {
						st.Skipped++
						continue
					}
					next = append(next, task{handler: succ.Handler, unit: u})
				}
			}
		}

		current = next
	}

	s.logger.Debug("crawl finished",
		"generations", st.Generations,
		"dispatched", st.Dispatched,
		"skipped", st.Skipped,
		"failed", st.Failed,
		"disallowed", st.Disallowed,
	)

	return st, nil
}

// resolve produces the payload for a unit through the memoizer.
//
// Design decision: failed resolutions are not memoized because:
//  1. A unit that fails for one handler may be queued later by another
//     handler, and transient failures deserve that second attempt
//  2. Permanent rejections are already covered by the disallowed set
func (s *Spider) resolve(ctx context.Context, u Unit) (Payload, error) {
	return s.memo.Do(u, func() (Payload, error) {
		if u.AsDocument {
			doc, err := s.resolver.ResolveDocument(ctx, u.URL, u.StalenessDays)
			if err != nil {
				return Payload{}, err
			}
			return Payload{Doc: doc}, nil
		}
		raw, err := s.resolver.ResolveBytes(ctx, u.URL, u.StalenessDays)
		if err != nil {
			return Payload{}, err
		}
		return Payload{Raw: raw}, nil
	})
}

// Reset clears visit state, disallow state, and the resolution
// memoizer, allowing the spider to start over.
func (s *Spider) Reset() {
	s.visited = make(map[visitKey]struct{})
	s.disallowed = make(map[string]struct{})
	s.memo.Reset()
}
