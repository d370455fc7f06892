package retrieval

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/db"
	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/domain/filter"
)

type mockEmbedder struct {
	result  domain.EmbeddingResult
	err     error
	lastHit bool
	calls   int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	return m.result, m.err
}

func (m *mockEmbedder) LastHit() bool { return m.lastHit }

type mockVectorStore struct {
	matches []domain.Match
	err     error
	calls   int
	lastK   int
	lastNS  string
	lastFlt filter.Predicate
}

func (m *mockVectorStore) Query(
	_ context.Context, _ []float32, topK int, namespace string, flt filter.Predicate,
) ([]domain.Match, error) {
	m.calls++
	m.lastK = topK
	m.lastNS = namespace
	m.lastFlt = flt
	return m.matches, m.err
}

func (m *mockVectorStore) Upsert(_ context.Context, _ []domain.Record, _ string) error {
	return nil
}

type mockChunkStore struct {
	texts map[string]string
	err   error
}

func (m *mockChunkStore) GetMany(_ context.Context, ids []string) (map[string]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]string, len(ids))
	for _, id := range ids {
		if t, ok := m.texts[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

func (m *mockChunkStore) PutMany(_ context.Context, _ map[string]string) error { return nil }

type mockCache struct {
	data  map[string][]byte
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = value
	return nil
}

func newTestRetriever(t *testing.T) (*Retriever, *mockEmbedder, *mockVectorStore, *mockChunkStore, *mockCache) {
	t.Helper()
	emb := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	vs := &mockVectorStore{}
	cs := &mockChunkStore{texts: map[string]string{}}
	mc := &mockCache{}
	r := New(emb, vs, cs, mc, zap.NewNop())
	return r, emb, vs, cs, mc
}
