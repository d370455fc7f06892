// Package chunkstore persists chunk text keyed by chunk id. The vector
// index stores vectors + metadata pointers; the text body lives here.
package chunkstore

import (
	"context"
	"fmt"

	"github.com/paddocklabs/regsearch/internal/domain"
)

const keyPrefix = domain.KeyPrefix + "chunk:"

// store is the consumer interface for chunk text persistence.
type store interface {
	MGet(ctx context.Context, keys []string) ([][]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Store implements domain.ChunkStore over a key-value store.
type Store struct {
	db store
}

// New creates a chunk text store.
func New(s store) *Store {
	return &Store{db: s}
}

// GetMany returns chunk texts keyed by id. Missing ids are simply absent
// in the returned map.
func (s *Store) GetMany(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id
	}

	values, err := s.db.MGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("mget %d chunks: %w", len(ids), err)
	}

	out := make(map[string]string, len(ids))
	for i, v := range values {
		if v == nil {
			continue
		}
		out[ids[i]] = string(v)
	}
	return out, nil
}

// PutMany stores chunk texts keyed by id.
func (s *Store) PutMany(ctx context.Context, texts map[string]string) error {
	for id, text := range texts {
		if err := s.db.Set(ctx, keyPrefix+id, []byte(text)); err != nil {
			return fmt.Errorf("put chunk %s: %w", id, err)
		}
	}
	return nil
}
