package boltdb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.etcd.io/bbolt"

	"github.com/trebbag/revenuepilot-sub003/internal/store"
)

var bucketBlobs = []byte("blobs")

// Storage is the BoltDB-backed persisted store. It survives restarts and is
// shared by the credential mirror, the offline queue, and the wholesale
// caches.
type Storage struct {
	db *bbolt.DB
}

var _ store.Store = (*Storage)(nil)

// New opens (or creates) the BoltDB file at dbPath.
func New(ctx context.Context, dbPath string) (*Storage, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize buckets: %w", err)
	}
	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) initBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketBlobs); err != nil {
			return fmt.Errorf("failed to create blobs bucket: %w", err)
		}
		return nil
	})
}

// Load decodes the blob at key into out. A missing key, corrupt JSON, or a
// closed database all leave out untouched and report false.
func (s *Storage) Load(ctx context.Context, key string, out any) bool {
	if s.db == nil {
		return false
	}

	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBlobs)
		if bucket == nil {
			return store.ErrNotFound
		}
		raw := bucket.Get([]byte(key))
		if raw == nil {
			return store.ErrNotFound
		}
		// Copy out of the transaction; bbolt memory is only valid inside it.
		data = append([]byte(nil), raw...)
		return nil
	})
	if err != nil {
		return false
	}

	if err := json.Unmarshal(data, out); err != nil {
		slog.Debug("discarding corrupt blob", "key", key, "error", err)
		return false
	}
	return true
}

// Save encodes v and writes it at key, best effort.
func (s *Storage) Save(ctx context.Context, key string, v any) {
	if s.db == nil {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		slog.Debug("failed to marshal blob", "key", key, "error", err)
		return
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBlobs)
		if bucket == nil {
			return fmt.Errorf("blobs bucket not found")
		}
		return bucket.Put([]byte(key), data)
	})
	if err != nil {
		slog.Debug("failed to save blob", "key", key, "error", err)
	}
}

// Delete removes the blob at key, if present.
func (s *Storage) Delete(ctx context.Context, key string) {
	if s.db == nil {
		return
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketBlobs)
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		slog.Debug("failed to delete blob", "key", key, "error", err)
	}
}
