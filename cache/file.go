package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"mobile-lyrics-go/logcolors"
	"mobile-lyrics-go/utils"
)

const bucketName = "cache"

// FileStore wraps BoltDB with an in-memory cache for fast access
type FileStore struct {
	db                 *bolt.DB
	memCache           sync.Map
	dbPath             string
	compressionEnabled bool
}

type fileEntry struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expiresAt,omitempty"` // unix milliseconds, 0 = no expiry
}

func (e fileEntry) expired() bool {
	return e.ExpiresAt != 0 && time.Now().UnixMilli() > e.ExpiresAt
}

// NewFileStore opens (or creates) the BoltDB file and preloads it to memory
func NewFileStore(dbPath string, compressionEnabled bool) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %v", err)
	}

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %v", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %v", err)
	}

	fs := &FileStore{
		db:                 db,
		dbPath:             dbPath,
		compressionEnabled: compressionEnabled,
	}

	if err := fs.loadToMemory(); err != nil {
		log.Warnf("%s Failed to preload cache to memory: %v", logcolors.LogCache, err)
	}

	log.Infof("%s Persistent cache initialized at %s (compression: %v)", logcolors.LogCacheInit, dbPath, compressionEnabled)
	return fs, nil
}

// loadToMemory loads all cache entries from disk to memory
func (fs *FileStore) loadToMemory() error {
	count := 0
	err := fs.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var entry fileEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				log.Warnf("%s Failed to unmarshal cache entry for key %s: %v", logcolors.LogCache, string(k), err)
				return nil // Continue to next entry
			}
			fs.memCache.Store(string(k), entry)
			count++
			return nil
		})
	})

	if err != nil {
		return err
	}

	log.Infof("%s Loaded %d entries from disk to memory", logcolors.LogCache, count)
	return nil
}

// Get retrieves a value (checks memory first, then disk).
// Returns the decompressed value if compression is enabled.
func (fs *FileStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := fs.memCache.Load(key); ok {
		entry := v.(fileEntry)
		if entry.expired() {
			fs.memCache.Delete(key)
			return "", ErrNotFound
		}
		return fs.decode(key, entry.Value)
	}

	var entry fileEntry
	err := fs.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return ErrNotFound
		}

		data := b.Get([]byte(key))
		if data == nil {
			return ErrNotFound
		}

		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return "", ErrNotFound
	}

	if entry.expired() {
		return "", ErrNotFound
	}

	// Update memory cache with the stored (still compressed) value
	fs.memCache.Store(key, entry)

	return fs.decode(key, entry.Value)
}

func (fs *FileStore) decode(key, value string) (string, error) {
	if !fs.compressionEnabled {
		return value, nil
	}

	decompressed, err := utils.DecompressString(value)
	if err != nil {
		log.Errorf("%s Error decompressing cache value for key %s: %v", logcolors.LogCache, key, err)
		return "", ErrNotFound
	}
	return decompressed, nil
}

// Set stores a value in both memory and disk, compressed when enabled
func (fs *FileStore) Set(_ context.Context, key, value string, expiresAt time.Time) error {
	finalValue := value
	if fs.compressionEnabled {
		compressed, err := utils.CompressString(value)
		if err != nil {
			return fmt.Errorf("failed to compress cache value: %w", err)
		}
		finalValue = compressed
	}

	entry := fileEntry{Value: finalValue}
	if !expiresAt.IsZero() {
		entry.ExpiresAt = expiresAt.UnixMilli()
	}

	fs.memCache.Store(key, entry)

	return fs.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		return b.Put([]byte(key), data)
	})
}

// Close closes the database connection
func (fs *FileStore) Close() error {
	if fs.db != nil {
		return fs.db.Close()
	}
	return nil
}
