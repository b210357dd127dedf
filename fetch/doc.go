// Package fetch resolves URLs through the cache, the throttle clock,
// and the network.
//
// # Resolution
//
// A resolution asks the cache first. Content younger than the caller's
// staleness bound is returned without touching the network; anything
// else triggers a throttled fetch whose result is compressed and cached
// under today's date. The throttle clock is marked before each request
// is issued, so even attempts that fail at the transport level keep
// their place in the pacing schedule.
//
// # Ban handling
//
// Hosts that dislike automated clients often answer with a normal 200
// page whose content is a ban notice. The configured BanPredicate
// recognizes such pages. A ban detected on a fresh fetch evicts the
// record and surfaces *BannedError. A ban detected on a cached page
// (stored before the predicate knew about it) evicts the record and
// refetches exactly once; the fresh result then follows the fresh-fetch
// rule.
//
// # Usage
//
//	clock, _ := throttle.New(throttle.Bounds{Min: 5 * time.Second, Max: 30 * time.Second})
//	client := fetch.New(pageCache, clock,
//		fetch.WithHeaders(map[string]string{"Accept-Language": "de"}),
//	)
//	doc, err := client.ResolveDocument(ctx, "http://example.com/", 7)
package fetch
