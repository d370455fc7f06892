// Package retrieval is the cached vector retriever: it embeds a query,
// consults the retrieval cache, falls back to the vector store and
// hydrates chunk text from the chunk store. Cache failures degrade to
// misses; a broken cache slows requests down, it never fails them.
package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/db"
	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/domain/filter"
	"github.com/paddocklabs/regsearch/internal/metrics"
	"github.com/paddocklabs/regsearch/internal/repository/cachekey"
)

// DefaultTTL bounds retrieval cache entries. Retrieval results go stale
// when the index changes, so the window is short.
const DefaultTTL = 30 * time.Minute

// embedder is the consumer contract for the embedding stage. LastHit
// feeds per-call debug output.
type embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
	LastHit() bool
}

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Retriever runs embed, ANN query and text hydration as one operation.
type Retriever struct {
	embedder   embedder
	vectors    domain.VectorStore
	chunks     domain.ChunkStore
	cache      kvStore
	ttl        time.Duration
	logger     *zap.Logger
}

func New(
	emb embedder,
	vectors domain.VectorStore,
	chunks domain.ChunkStore,
	cache kvStore,
	logger *zap.Logger,
) *Retriever {
	return &Retriever{
		embedder: emb,
		vectors:  vectors,
		chunks:   chunks,
		cache:    cache,
		ttl:      DefaultTTL,
		logger:   logger,
	}
}

// WithTTL overrides the retrieval cache entry lifetime.
func (r *Retriever) WithTTL(ttl time.Duration) *Retriever {
	r.ttl = ttl
	return r
}

// Retrieve embeds the query, fetches up to recallK nearest matches under
// flt in namespace, and returns them as hydrated chunks. Matches whose
// text is missing or empty in the chunk store are skipped: a citation
// without quotable text is useless downstream.
func (r *Retriever) Retrieve(
	ctx context.Context,
	query string,
	recallK int,
	namespace string,
	flt filter.Predicate,
) ([]domain.Chunk, domain.RetrievalDebug, error) {
	started := time.Now()
	dbg := domain.RetrievalDebug{}

	embRes, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, dbg, err
	}
	dbg.EmbedCacheHit = r.embedder.LastHit()

	surrogate := cachekey.Surrogate(embRes.Embedding)
	key := cachekey.Retrieval(namespace, recallK, surrogate, flt)

	matches, ok := r.getCached(ctx, key)
	dbg.RetrievalCacheHit = ok
	if ok {
		metrics.RetrievalCacheTotal.WithLabelValues("hit").Inc()
	} else {
		metrics.RetrievalCacheTotal.WithLabelValues("miss").Inc()
		matches, err = r.vectors.Query(ctx, embRes.Embedding, recallK, namespace, flt)
		if err != nil {
			return nil, dbg, err
		}
		r.putCached(ctx, key, matches)
	}

	chunks, err := r.hydrate(ctx, matches)
	if err != nil {
		return nil, dbg, err
	}

	dbg.ElapsedMS = time.Since(started).Milliseconds()
	dbg.Returned = len(chunks)
	return chunks, dbg, nil
}

func (r *Retriever) hydrate(ctx context.Context, matches []domain.Match) ([]domain.Chunk, error) {
	if len(matches) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}

	texts, err := r.chunks.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(matches))
	for _, m := range matches {
		text := texts[m.ID]
		if text == "" {
			r.logger.Warn("Skipping match without stored text", zap.String("id", m.ID))
			continue
		}
		chunks = append(chunks, domain.NewChunk(m.ID, text, m.Meta, m.Score))
	}
	return chunks, nil
}

func (r *Retriever) getCached(ctx context.Context, key string) ([]domain.Match, bool) {
	data, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			r.logger.Warn("Failed to read retrieval cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var matches []domain.Match
	if err := json.Unmarshal(data, &matches); err != nil {
		r.logger.Warn("Failed to decode retrieval cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return matches, true
}

func (r *Retriever) putCached(ctx context.Context, key string, matches []domain.Match) {
	data, err := json.Marshal(matches)
	if err != nil {
		r.logger.Warn("Failed to encode retrieval cache entry", zap.Error(err))
		return
	}
	if err := r.cache.SetWithTTL(ctx, key, data, r.ttl); err != nil {
		r.logger.Warn("Failed to write retrieval cache", zap.String("key", key), zap.Error(err))
	}
}
