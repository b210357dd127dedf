// Package cache implements the persistent fetch cache.
//
// The cache sits between the fetch client and the page store: writes
// compress the content and record today's calendar date, reads return
// content only when the stored date is strictly later than the staleness
// threshold. Day granularity is deliberate: a page fetched this morning
// and requested again tonight with a one-day staleness bound is a hit,
// while a bound of zero days can never be satisfied and forces a
// refetch.
//
// Compression is pluggable through the Codec interface; the default is
// zlib via github.com/klauspost/compress.
package cache
