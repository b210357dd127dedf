// Package crawl coordinates polite, cache-backed crawls.
//
// # Architecture
//
// The package is designed around the Spider type. A crawl is a graph
// walk: handlers receive resolved pages and name the units to process
// next, and the spider advances the frontier one generation at a time.
// Fetching, caching, and throttling are delegated to a Resolver,
// normally a fetch.Client, so the spider itself never touches the
// network.
//
// # Components
//
//   - Unit: one piece of work, a URL plus its freshness requirement
//   - Handler: application code that consumes pages and emits units
//   - Spider: the frontier loop with deduplication and limits
//   - Batch: concurrent execution of independent crawl jobs
//
// # Deduplication
//
// Three mechanisms keep a crawl from looping or hammering a host:
//
//   - The visited set drops a handler and unit pairing that was
//     already processed, so cycles terminate
//   - The disallowed set permanently drops any unit naming a URL the
//     host rejected with a non-OK status
//   - A bounded memoizer absorbs duplicate resolutions within a crawl
//
// # Usage
//
//	spider, err := crawl.NewSpider(client, crawl.WithMaxGenerations(10))
//	if err != nil {
//		return err
//	}
//	stats, err := spider.Crawl(ctx, []crawl.Seed{
//		{Handler: index, Unit: crawl.Unit{URL: start, StalenessDays: 7, AsDocument: true}},
//	})
package crawl
