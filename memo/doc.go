// Package memo provides a bounded memoization cache.
//
// Eviction is strictly first-in-first-out: hits do not refresh an
// entry's position, so a hot entry inserted early still leaves before a
// cold entry inserted late. This makes eviction order a pure function of
// insertion order, which keeps repeat runs deterministic.
//
// A cache can persist its contents to a gob snapshot in the XDG cache
// directory, loaded at construction and saved on Close. The usual shape
// is:
//
//	m, err := memo.New[string, int](memo.WithSnapshot("lookups"))
//	if err != nil {
//		return err
//	}
//	defer m.Close()
package memo
