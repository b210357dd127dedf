package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// dateLayout is the calendar-date format stored in the fetch_date column.
// Zero-padded ISO dates order lexicographically, so freshness comparisons
// can run as plain string comparisons inside SQLite.
const dateLayout = "2006-01-02"

// DB is a SQLite-backed store of fetched page content keyed by URL.
// Each record carries the calendar date it was fetched on; freshness
// queries compare against that date with day granularity.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// path is the location of the SQLite database file.
	path string
}

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended for most use
	// cases; readers are not blocked by the single writer.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the page store at the specified path.
// If CreateIfNotExists is true, the parent directory and database file
// are created as needed. If false and the file doesn't exist, an error
// is returned.
func Open(path string, opts Options) (*DB, error) {
	if !opts.CreateIfNotExists {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("store not found at %s (use CreateIfNotExists option to create)", path)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check store path: %w", err)
		}
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = path + "?mode=rwc"
	} else {
		dsn = path + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &DB{
		db:   db,
		path: path,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *DB) Close() error {
	return s.db.Close()
}

// createTables creates the store schema if it doesn't exist.
func (s *DB) createTables() error {
	schema := `
	-- Pages store one fetched payload per URL with its fetch date.
	CREATE TABLE IF NOT EXISTS pages (
		url TEXT PRIMARY KEY,
		fetch_date TEXT NOT NULL,
		content BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_fetch_date ON pages(fetch_date);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Upsert stores content for a URL, replacing any existing record.
// fetchDate is truncated to calendar-date granularity. The statement is
// a single atomic UPSERT.
func (s *DB) Upsert(ctx context.Context, url string, fetchDate time.Time, content []byte) error {
	query := `
	INSERT INTO pages (url, fetch_date, content)
	VALUES (?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET
		fetch_date = excluded.fetch_date,
		content = excluded.content
	`

	_, err := s.db.ExecContext(ctx, query, url, fetchDate.Format(dateLayout), content)
	if err != nil {
		return fmt.Errorf("failed to upsert page: %w", err)
	}

	return nil
}

// GetIfFresherThan returns the stored content for a URL when its fetch
// date is strictly later than the threshold date. A record fetched on
// the threshold day itself does not qualify. Returns (nil, nil) when no
// qualifying record exists.
func (s *DB) GetIfFresherThan(ctx context.Context, url string, threshold time.Time) ([]byte, error) {
	query := `
	SELECT content FROM pages
	WHERE url = ? AND fetch_date > ?
	`

	var content []byte
	err := s.db.QueryRowContext(ctx, query, url, threshold.Format(dateLayout)).Scan(&content)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	return content, nil
}

// Delete removes the record for a URL. Deleting an absent URL is not an
// error.
func (s *DB) Delete(ctx context.Context, url string) error {
	query := `DELETE FROM pages WHERE url = ?`

	if _, err := s.db.ExecContext(ctx, query, url); err != nil {
		return fmt.Errorf("failed to delete page: %w", err)
	}

	return nil
}

// Has reports whether any record exists for the URL, regardless of age.
func (s *DB) Has(ctx context.Context, url string) (bool, error) {
	query := `SELECT COUNT(*) FROM pages WHERE url = ?`

	var count int
	if err := s.db.QueryRowContext(ctx, query, url).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check page: %w", err)
	}

	return count > 0, nil
}

// Count returns the number of stored records.
func (s *DB) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}

	return count, nil
}
