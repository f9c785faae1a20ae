// Package snapshot persists the fitted index as zstd-compressed JSON in a key-value store,
// so a restarted service answers questions without re-processing the document.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/kailas-cloud/greenqa/internal/db"
	"github.com/kailas-cloud/greenqa/internal/domain"
	"github.com/kailas-cloud/greenqa/internal/domain/index"
)

const keySuffix = "index:snapshot"

// store is the consumer interface for snapshot persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Del(ctx context.Context, key string) error
}

// Repo stores a single current snapshot under <prefix>index:snapshot.
type Repo struct {
	store store
	key   string
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// New creates a snapshot repository. keyPrefix namespaces the key (e.g. "greenqa:").
func New(s store, keyPrefix string) (*Repo, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &Repo{store: s, key: keyPrefix + keySuffix, enc: enc, dec: dec}, nil
}

// Key returns the storage key.
func (r *Repo) Key() string { return r.key }

// Save replaces the stored snapshot.
func (r *Repo) Save(ctx context.Context, s *index.Snapshot) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.store.Set(ctx, r.key, r.enc.EncodeAll(raw, nil)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the stored snapshot.
// Missing → domain.ErrSnapshotNotFound; undecodable → domain.ErrSnapshotCorrupt.
func (r *Repo) Load(ctx context.Context) (*index.Snapshot, error) {
	data, err := r.store.Get(ctx, r.key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	raw, err := r.dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: decompress: %w", domain.ErrSnapshotCorrupt, err)
	}
	var s index.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", domain.ErrSnapshotCorrupt, err)
	}
	return &s, nil
}

// Delete removes the stored snapshot. A missing snapshot is not an error.
func (r *Repo) Delete(ctx context.Context) error {
	if err := r.store.Del(ctx, r.key); err != nil && !errors.Is(err, db.ErrKeyNotFound) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Close releases the decoder.
func (r *Repo) Close() {
	r.dec.Close()
	_ = r.enc.Close()
}
