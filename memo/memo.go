package memo

import (
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// DefaultCapacity bounds a cache when no capacity is configured.
const DefaultCapacity = 10000

// ErrInvalidCapacity is returned for a negative capacity.
var ErrInvalidCapacity = errors.New("memo: capacity must be positive")

// Stats counts cache activity.
type Stats struct {
	// Calls is the total number of lookups.
	Calls uint64

	// Hits is the number of lookups answered from the cache.
	Hits uint64
}

// HitRate returns the fraction of calls answered from the cache.
func (s Stats) HitRate() float64 {
	if s.Calls == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Calls)
}

// Cache is a bounded memoization cache with strict FIFO eviction: once
// the capacity has been reached, every insertion of a new key evicts the
// oldest key, regardless of how recently it was hit. Lookups never
// refresh a key's position.
//
// A Cache is single-threaded, like the fetch pipeline it serves.
type Cache[K comparable, V any] struct {
	entries  map[K]V
	order    []K
	capacity int

	// limitHit latches once the cache first fills. From then on every
	// insert evicts before adding.
	limitHit bool

	recordStats bool
	stats       Stats

	// snapshotPath is non-empty when the cache persists to disk.
	snapshotPath string

	logger *slog.Logger
}

// settings collects option state so Option stays free of type
// parameters.
type settings struct {
	capacity     int
	recordStats  bool
	snapshotName string
	snapshotDir  string
	logger       *slog.Logger
}

// Option configures a Cache.
type Option func(*settings)

// WithCapacity bounds the cache at n entries. Zero means
// DefaultCapacity.
func WithCapacity(n int) Option {
	return func(s *settings) {
		s.capacity = n
	}
}

// WithStats enables per-call debug logging of the running hit rate.
// Counters accumulate regardless; the option controls only the logging.
func WithStats() Option {
	return func(s *settings) {
		s.recordStats = true
	}
}

// WithSnapshot enables disk persistence under the given name. The
// snapshot loads at construction and saves on Close. Names identify the
// memoized computation; two caches sharing a name share a snapshot.
func WithSnapshot(name string) Option {
	return func(s *settings) {
		s.snapshotName = name
	}
}

// WithSnapshotDir overrides the snapshot directory. The default is the
// XDG cache home.
func WithSnapshotDir(dir string) Option {
	return func(s *settings) {
		s.snapshotDir = dir
	}
}

// WithLogger sets the logger. The default discards all records.
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}

// New creates a Cache. When a snapshot is configured and present on
// disk, its entries are loaded in their original insertion order;
// entries beyond the capacity are dropped oldest-first.
func New[K comparable, V any](opts ...Option) (*Cache[K, V], error) {
	s := settings{
		capacity: DefaultCapacity,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.capacity < 0 {
		return nil, ErrInvalidCapacity
	}
	if s.capacity == 0 {
		s.capacity = DefaultCapacity
	}

	m := &Cache[K, V]{
		entries:     make(map[K]V),
		order:       make([]K, 0),
		capacity:    s.capacity,
		recordStats: s.recordStats,
		logger:      s.logger,
	}

	if s.snapshotName != "" {
		dir := s.snapshotDir
		if dir == "" {
			dir = filepath.Join(xdg.CacheHome, "politefetch", "memo")
		}
		m.snapshotPath = filepath.Join(dir, s.snapshotName+".gob")

		if err := m.load(); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Do returns the cached value for key, or runs compute, caches its
// result, and returns it. Errors from compute are returned as-is and
// nothing is cached, so a later Do with the same key computes again.
func (m *Cache[K, V]) Do(key K, compute func() (V, error)) (V, error) {
	m.stats.Calls++

	if v, ok := m.entries[key]; ok {
		m.stats.Hits++
		m.logStats()
		return v, nil
	}
	m.logStats()

	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}

	m.insert(key, v)
	return v, nil
}

// insert adds a new key, evicting the oldest entry once the capacity
// latch has tripped.
func (m *Cache[K, V]) insert(key K, value V) {
	if !m.limitHit && len(m.order) >= m.capacity {
		m.limitHit = true
	}
	if m.limitHit {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}

	m.entries[key] = value
	m.order = append(m.order, key)
}

// logStats emits the running hit rate when stats are enabled.
func (m *Cache[K, V]) logStats() {
	if !m.recordStats {
		return
	}
	m.logger.Debug("memo stats",
		"calls", m.stats.Calls,
		"hits", m.stats.Hits,
		"hit_rate", m.stats.HitRate(),
	)
}

// Len returns the number of cached entries.
func (m *Cache[K, V]) Len() int {
	return len(m.entries)
}

// Capacity returns the configured bound.
func (m *Cache[K, V]) Capacity() int {
	return m.capacity
}

// Stats returns a copy of the counters.
func (m *Cache[K, V]) Stats() Stats {
	return m.stats
}

// Reset discards all entries and counters. Capacity and snapshot
// settings are kept, and any snapshot on disk stays as written until
// the next Save.
func (m *Cache[K, V]) Reset() {
	m.entries = make(map[K]V)
	m.order = m.order[:0]
	m.limitHit = false
	m.stats = Stats{}
}

// Save writes the snapshot when one is configured. Entries are stored
// in FIFO order so a reload preserves eviction order.
func (m *Cache[K, V]) Save() error {
	if m.snapshotPath == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(m.snapshotPath), 0750); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	f, err := os.Create(m.snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot %s: %w", m.snapshotPath, err)
	}

	entries := make([]snapshotEntry[K, V], 0, len(m.order))
	for _, k := range m.order {
		entries = append(entries, snapshotEntry[K, V]{Key: k, Value: m.entries[k]})
	}

	if err := gob.NewEncoder(f).Encode(entries); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to encode snapshot %s: %w", m.snapshotPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", m.snapshotPath, err)
	}

	m.logger.Debug("memo snapshot saved", "path", m.snapshotPath, "entries", len(entries))
	return nil
}

// Close persists the snapshot when one is configured. Callers defer it
// so the save runs on every exit path, including failures.
func (m *Cache[K, V]) Close() error {
	return m.Save()
}

// load restores a snapshot if one exists on disk.
func (m *Cache[K, V]) load() error {
	f, err := os.Open(m.snapshotPath)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open snapshot %s: %w", m.snapshotPath, err)
	}
	defer f.Close()

	var entries []snapshotEntry[K, V]
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode snapshot %s: %w", m.snapshotPath, err)
	}

	if over := len(entries) - m.capacity; over > 0 {
		entries = entries[over:]
	}
	for _, e := range entries {
		m.entries[e.Key] = e.Value
		m.order = append(m.order, e.Key)
	}
	if len(m.order) >= m.capacity {
		m.limitHit = true
	}

	m.logger.Debug("memo snapshot loaded", "path", m.snapshotPath, "entries", len(entries))
	return nil
}

// snapshotEntry is the on-disk pair format, ordered oldest first.
type snapshotEntry[K comparable, V any] struct {
	Key   K
	Value V
}

// Func wraps a single-key function with a memoization cache.
type Func[K comparable, V any] struct {
	cache *Cache[K, V]
	fn    func(K) (V, error)
}

// NewFunc memoizes fn with the given cache options.
func NewFunc[K comparable, V any](fn func(K) (V, error), opts ...Option) (*Func[K, V], error) {
	c, err := New[K, V](opts...)
	if err != nil {
		return nil, err
	}
	return &Func[K, V]{cache: c, fn: fn}, nil
}

// Call invokes the wrapped function through the cache.
func (f *Func[K, V]) Call(key K) (V, error) {
	return f.cache.Do(key, func() (V, error) { return f.fn(key) })
}

// Stats returns the underlying cache counters.
func (f *Func[K, V]) Stats() Stats {
	return f.cache.Stats()
}

// Close persists the underlying cache snapshot when one is configured.
func (f *Func[K, V]) Close() error {
	return f.cache.Close()
}
