// Package storage provides the SQLite-backed page store.
//
// The store keeps one record per URL: the page content (as written by
// the caller, typically compressed) and the calendar date it was fetched
// on. Freshness is a property of the date alone; time of day never
// participates. Dates are stored as zero-padded ISO strings, which makes
// the strict fetch_date > threshold comparison valid as a plain string
// comparison.
//
// The store assumes a single writer. SQLite is accessed through
// modernc.org/sqlite, which is CGO-free, so the store cross-compiles
// with the rest of the module.
//
// # Usage
//
//	db, err := storage.Open(path, storage.DefaultOptions())
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	err = db.Upsert(ctx, url, time.Now(), content)
package storage
