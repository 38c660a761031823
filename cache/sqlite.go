package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"mobile-lyrics-go/logcolors"
)

// SQLiteStore backs the Store interface with a relational `variables` table,
// one row per key. Lyrics records and the access credential share the table.
type SQLiteStore struct {
	db *sql.DB
}

const createVariablesTable = `
CREATE TABLE IF NOT EXISTS variables (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
)`

// NewSQLiteStore opens (or creates) the SQLite database file.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %v", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(createVariablesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create variables table: %w", err)
	}

	log.Infof("%s SQLite cache initialized at %s", logcolors.LogCacheInit, path)
	return &SQLiteStore{db: db}, nil
}

// Get returns the value for key, or ErrNotFound when absent or expired.
func (ss *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	var expiresAt int64

	row := ss.db.QueryRowContext(ctx, "SELECT value, expires_at FROM variables WHERE name = ?", key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("sqlite get: %w", err)
	}

	if expiresAt != 0 && time.Now().UnixMilli() > expiresAt {
		return "", ErrNotFound
	}

	return value, nil
}

// Set upserts the row for key.
func (ss *SQLiteStore) Set(ctx context.Context, key, value string, expiresAt time.Time) error {
	var expiry int64
	if !expiresAt.IsZero() {
		expiry = expiresAt.UnixMilli()
	}

	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO variables (name, value, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiry)
	if err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}
