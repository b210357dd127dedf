package cache

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"politefetch/storage"
)

// setupTestCache creates a cache over a temporary store.
func setupTestCache(t *testing.T) (*Cache, *storage.DB) {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "pages.db"), storage.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return New(db), db
}

func TestReadWrite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, time.August, 25, 15, 30, 0, 0, time.UTC)

	t.Run("round-trips content through compression", func(t *testing.T) {
		t.Parallel()

		c, _ := setupTestCache(t)

		content := []byte(strings.Repeat("<p>hello world</p>", 200))
		if err := c.Write(ctx, "http://example.com/", content, now); err != nil {
			t.Fatalf("failed to write: %v", err)
		}

		got, ok, err := c.Read(ctx, "http://example.com/", 7, now)
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if !ok {
			t.Fatal("expected cache hit for fresh record")
		}
		if !bytes.Equal(got, content) {
			t.Errorf("content changed through cache: got %d bytes, want %d", len(got), len(content))
		}
	})

	t.Run("stored blob is actually compressed", func(t *testing.T) {
		t.Parallel()

		c, db := setupTestCache(t)

		content := []byte(strings.Repeat("repetition compresses well ", 100))
		if err := c.Write(ctx, "http://example.com/", content, now); err != nil {
			t.Fatalf("failed to write: %v", err)
		}

		// Read raw bytes from the store: they must not equal the
		// original content and should be smaller for repetitive input.
		raw, err := db.GetIfFresherThan(ctx, "http://example.com/", now.AddDate(0, 0, -1))
		if err != nil {
			t.Fatalf("failed to read raw record: %v", err)
		}
		if bytes.Equal(raw, content) {
			t.Error("store holds uncompressed content")
		}
		if len(raw) >= len(content) {
			t.Errorf("expected compressed blob smaller than %d bytes, got %d", len(content), len(raw))
		}
	})

	t.Run("staleness of zero always misses", func(t *testing.T) {
		t.Parallel()

		c, _ := setupTestCache(t)

		if err := c.Write(ctx, "http://example.com/", []byte("x"), now); err != nil {
			t.Fatalf("failed to write: %v", err)
		}

		_, ok, err := c.Read(ctx, "http://example.com/", 0, now)
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if ok {
			t.Error("staleness 0 must never produce a hit")
		}
	})

	t.Run("negative staleness always misses", func(t *testing.T) {
		t.Parallel()

		c, _ := setupTestCache(t)

		if err := c.Write(ctx, "http://example.com/", []byte("x"), now); err != nil {
			t.Fatalf("failed to write: %v", err)
		}

		_, ok, err := c.Read(ctx, "http://example.com/", -3, now)
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if ok {
			t.Error("negative staleness must never produce a hit")
		}
	})

	t.Run("record older than the staleness bound misses", func(t *testing.T) {
		t.Parallel()

		c, _ := setupTestCache(t)

		written := now.AddDate(0, 0, -10)
		if err := c.Write(ctx, "http://example.com/", []byte("aged"), written); err != nil {
			t.Fatalf("failed to write: %v", err)
		}

		_, ok, err := c.Read(ctx, "http://example.com/", 10, now)
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if ok {
			t.Error("record exactly stalenessDays old must miss (strict comparison)")
		}

		_, ok, err = c.Read(ctx, "http://example.com/", 11, now)
		if err != nil {
			t.Fatalf("failed to read: %v", err)
		}
		if !ok {
			t.Error("record within a wider staleness bound should hit")
		}
	})

	t.Run("corrupt stored blob surfaces as an error", func(t *testing.T) {
		t.Parallel()

		c, db := setupTestCache(t)

		// Bypass the codec and store garbage directly.
		if err := db.Upsert(ctx, "http://example.com/", now, []byte("not zlib data")); err != nil {
			t.Fatalf("failed to upsert: %v", err)
		}

		_, ok, err := c.Read(ctx, "http://example.com/", 7, now)
		if err == nil {
			t.Fatal("expected decode error for corrupt blob")
		}
		if ok {
			t.Error("corrupt blob must not report a hit")
		}
	})
}

func TestEvict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Date(2026, time.August, 25, 0, 0, 0, 0, time.UTC)

	c, db := setupTestCache(t)

	if err := c.Write(ctx, "http://example.com/", []byte("x"), now); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	if err := c.Evict(ctx, "http://example.com/"); err != nil {
		t.Fatalf("failed to evict: %v", err)
	}

	has, err := db.Has(ctx, "http://example.com/")
	if err != nil {
		t.Fatalf("failed to check store: %v", err)
	}
	if has {
		t.Error("record should be gone after evict")
	}

	if err := c.Evict(ctx, "http://example.com/"); err != nil {
		t.Errorf("evicting an absent record should succeed: %v", err)
	}
}

func TestZlibCodec(t *testing.T) {
	t.Parallel()

	t.Run("round-trip", func(t *testing.T) {
		t.Parallel()

		codec := ZlibCodec{}
		in := []byte("some page content with enough text to compress")

		encoded, err := codec.Encode(in)
		if err != nil {
			t.Fatalf("failed to encode: %v", err)
		}
		decoded, err := codec.Decode(encoded)
		if err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if !bytes.Equal(decoded, in) {
			t.Errorf("round-trip changed content: got %q, want %q", decoded, in)
		}
	})

	t.Run("empty input round-trips", func(t *testing.T) {
		t.Parallel()

		codec := ZlibCodec{}

		encoded, err := codec.Encode(nil)
		if err != nil {
			t.Fatalf("failed to encode empty input: %v", err)
		}
		decoded, err := codec.Decode(encoded)
		if err != nil {
			t.Fatalf("failed to decode empty input: %v", err)
		}
		if len(decoded) != 0 {
			t.Errorf("expected empty output, got %d bytes", len(decoded))
		}
	})

	t.Run("invalid level fails on encode", func(t *testing.T) {
		t.Parallel()

		codec := ZlibCodec{Level: 99}
		if _, err := codec.Encode([]byte("x")); err == nil {
			t.Error("expected error for invalid compression level")
		}
	})

	t.Run("decode rejects garbage", func(t *testing.T) {
		t.Parallel()

		codec := ZlibCodec{}
		if _, err := codec.Decode([]byte("definitely not zlib")); err == nil {
			t.Error("expected error for invalid compressed data")
		}
	})
}
