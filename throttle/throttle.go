package throttle

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"
)

// ErrInvalidBounds is returned when the interval range is negative or
// inverted.
var ErrInvalidBounds = errors.New("throttle: min must be non-negative and not exceed max")

// Bounds is the inclusive range the pacing interval is drawn from.
type Bounds struct {
	Min time.Duration
	Max time.Duration
}

// validate checks the range.
func (b Bounds) validate() error {
	if b.Min < 0 || b.Max < b.Min {
		return ErrInvalidBounds
	}
	return nil
}

// Clock paces consecutive network fetches. Each fetch attempt marks the
// clock before the request goes out and draws a fresh random interval;
// the next attempt waits until that interval has elapsed since the mark.
// Because the mark happens before the request, a failed attempt still
// advances pacing: the drawn interval persists until consumed by
// waiting, it is never redrawn on failure.
//
// A Clock is owned by one fetch client and is not safe for concurrent
// use.
type Clock struct {
	bounds Bounds

	// last is when the most recent fetch attempt started. Zero means no
	// fetch has happened yet, so Wait returns immediately.
	last time.Time

	// next is the interval that must elapse after last before the next
	// fetch may start.
	next time.Duration

	rng    *rand.Rand
	logger *slog.Logger
}

// Option configures a Clock.
type Option func(*Clock)

// WithRNG replaces the interval source. Tests use a seeded generator for
// deterministic draws.
func WithRNG(r *rand.Rand) Option {
	return func(c *Clock) {
		c.rng = r
	}
}

// WithLogger sets the logger. The default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Clock) {
		c.logger = l
	}
}

// New creates a Clock with the given interval bounds. The first interval
// is drawn immediately.
func New(b Bounds, opts ...Option) (*Clock, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	c := &Clock{
		bounds: b,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.next = c.draw()
	return c, nil
}

// Wait blocks until at least the drawn interval has elapsed since the
// last Mark. It returns immediately before the first fetch, and returns
// ctx.Err() if the context is canceled while waiting.
func (c *Clock) Wait(ctx context.Context) error {
	if c.last.IsZero() {
		return nil
	}

	remaining := c.next - time.Since(c.last)
	if remaining <= 0 {
		return nil
	}

	c.logger.Debug("throttle wait", "remaining", remaining)

	timer := time.NewTimer(remaining)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Mark records that a fetch attempt is starting now and draws the
// interval the next fetch must respect. Call it before issuing the
// network request.
func (c *Clock) Mark() {
	c.last = time.Now()
	c.next = c.draw()
	c.logger.Debug("throttle interval drawn", "interval", c.next)
}

// draw picks an interval uniformly from the configured bounds.
func (c *Clock) draw() time.Duration {
	if c.bounds.Max == c.bounds.Min {
		return c.bounds.Min
	}
	return c.bounds.Min + time.Duration(c.rng.Float64()*float64(c.bounds.Max-c.bounds.Min))
}
