// Package bolt implements db.Store on a single local bbolt file, the default
// driver when no Redis is configured.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/greenqa/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

var bucketName = []byte("kv")

var errNoBucket = errors.New("bucket missing")

// Config holds the database file location.
type Config struct {
	Path string
	// Timeout bounds how long Open waits for the file lock held by another process.
	Timeout time.Duration
}

// Store is a bbolt-backed key-value store.
type Store struct {
	db *bbolt.DB
}

// NewStore opens (or creates) the database file.
func NewStore(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	bdb, err := bbolt.Open(cfg.Path, 0o600, &bbolt.Options{Timeout: cfg.Timeout})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Path, err)
	}
	err = bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = bdb.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Store{db: bdb}, nil
}

// Ping checks that the database is open and initialised.
func (s *Store) Ping(_ context.Context) error {
	err := s.db.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketName) == nil {
			return errNoBucket
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// WaitForReady returns once the database answers Ping. A local file is either ready or broken.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("waiting for database: %w", err)
	}
	return s.Ping(ctx)
}

// Close releases the file lock.
func (s *Store) Close() {
	_ = s.db.Close()
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v == nil {
			return db.ErrKeyNotFound
		}
		// v is only valid inside the transaction.
		out = append([]byte(nil), v...)
		return nil
	})
	if errors.Is(err, db.ErrKeyNotFound) {
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Del deletes a key. Deleting a missing key is not an error.
func (s *Store) Del(_ context.Context, key string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Delete([]byte(key))
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}
