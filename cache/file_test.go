package cache

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestFileStore(t *testing.T, compression bool) (*FileStore, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "cache.db")
	fs, err := NewFileStore(path, compression)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	t.Cleanup(func() { fs.Close() })

	return fs, path
}

func TestFileStore_SetAndGet(t *testing.T) {
	for _, compression := range []bool{false, true} {
		name := "Plain"
		if compression {
			name = "Compressed"
		}

		t.Run(name, func(t *testing.T) {
			fs, _ := newTestFileStore(t, compression)
			ctx := context.Background()

			value := "1;1000.SGVsbG8=.2000;-9079435;-16777216;-1"
			if err := fs.Set(ctx, "lyrics_abc", value, time.Time{}); err != nil {
				t.Fatalf("Set failed: %v", err)
			}

			got, err := fs.Get(ctx, "lyrics_abc")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got != value {
				t.Errorf("Expected %q, got %q", value, got)
			}
		})
	}
}

func TestFileStore_MissingKey(t *testing.T) {
	fs, _ := newTestFileStore(t, false)

	_, err := fs.Get(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_Expiry(t *testing.T) {
	fs, _ := newTestFileStore(t, false)
	ctx := context.Background()

	if err := fs.Set(ctx, "short", "value", time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	_, err := fs.Get(ctx, "short")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for expired entry, got %v", err)
	}

	if err := fs.Set(ctx, "long", "value", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if _, err := fs.Get(ctx, "long"); err != nil {
		t.Errorf("Expected unexpired entry, got %v", err)
	}
}

func TestFileStore_Overwrite(t *testing.T) {
	fs, _ := newTestFileStore(t, true)
	ctx := context.Background()

	if err := fs.Set(ctx, "key", "first", time.Time{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := fs.Set(ctx, "key", "second", time.Time{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := fs.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "second" {
		t.Errorf("Expected overwritten value, got %q", got)
	}
}

func TestFileStore_ReopenPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	fs, err := NewFileStore(path, true)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if err := fs.Set(ctx, "persisted", "survives restarts", time.Time{}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := fs.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewFileStore(path, true)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "persisted")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got != "survives restarts" {
		t.Errorf("Expected persisted value, got %q", got)
	}
}
