package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Job names one independent crawl: a set of seeds processed by a
// dedicated spider.
type Job struct {
	// Name identifies the job in logs and results.
	Name string

	// Seeds are the job's starting points.
	Seeds []Seed
}

// Result is the outcome of one batch job.
type Result struct {
	// Name echoes the job name.
	Name string

	// Stats summarizes the crawl, including a crawl that stopped
	// part way.
	Stats Stats

	// Err is the job's terminal error, nil on success. Per-unit
	// failures are counted in Stats and do not appear here.
	Err error
}

// SpiderFactory builds a fresh spider for one job.
//
// Design decision: each job gets its own spider rather than sharing
// one because:
//  1. Visit state and memoization stay isolated between jobs
//  2. A spider is single-threaded, so sharing would serialize the batch
//  3. The factory can derive per-job resources, such as a cache store
//     path, from the job itself
type SpiderFactory func(job Job) (*Spider, error)

// Batch runs several crawl jobs concurrently, each on its own spider.
type Batch struct {
	// factory builds the spider for each job.
	factory SpiderFactory

	// concurrency is the maximum number of jobs crawling at once.
	concurrency int

	// logger receives batch-level events.
	logger *slog.Logger

	// results holds one entry per job. Access is synchronized via mu.
	results []Result
	mu      sync.Mutex
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithConcurrency caps the number of jobs crawling at once.
// Default is 4 if not specified.
func WithConcurrency(n int) BatchOption {
	return func(b *Batch) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithBatchLogger sets the logger for batch-level events. The default
// discards everything.
func WithBatchLogger(l *slog.Logger) BatchOption {
	return func(b *Batch) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBatch creates a Batch that builds one spider per job via factory.
func NewBatch(factory SpiderFactory, opts ...BatchOption) *Batch {
	b := &Batch{
		factory:     factory,
		concurrency: 4,
		logger:      slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Run crawls all jobs and returns one result per job, in job order.
// A failed job does not stop its siblings; its error lands in its
// Result. The returned error reports cancellation observed before a
// job started; cancellation mid-crawl is recorded in that job's
// Result instead.
func (b *Batch) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	b.logger.Info("starting crawl batch",
		"jobs", len(jobs),
		"concurrency", b.concurrency,
	)

	start := time.Now()

	// Pre-fill names so jobs that never start still identify
	// themselves in the returned slice.
	b.results = make([]Result, len(jobs))
	for i, job := range jobs {
		b.results[i] = Result{Name: job.Name}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			b.logger.Info("starting job",
				"job", job.Name,
				"seeds", len(job.Seeds),
			)

			res := Result{Name: job.Name}

			spider, err := b.factory(job)
			if err != nil {
				res.Err = fmt.Errorf("build spider for job %q: %w", job.Name, err)
			} else {
				res.Stats, res.Err = spider.Crawl(ctx, job.Seeds)
			}

			b.mu.Lock()
			b.results[i] = res
			b.mu.Unlock()

			if res.Err != nil {
				b.logger.Warn("job failed",
					"job", job.Name,
					"error", res.Err,
				)
				// The error stays in the result so sibling jobs keep
				// running.
				return nil
			}

			b.logger.Info("job completed",
				"job", job.Name,
				"dispatched", res.Stats.Dispatched,
			)

			return nil
		})
	}

	err := g.Wait()

	b.logger.Info("crawl batch complete",
		"jobs", len(jobs),
		"elapsed", time.Since(start),
	)

	return b.results, err
}
