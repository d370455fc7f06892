package domain

import (
	"context"

	"github.com/paddocklabs/regsearch/internal/domain/filter"
)

// VectorStore is the approximate-nearest-neighbor index contract. The
// implementation normalizes any provider-specific response shape into
// []Match before it crosses into core logic.
type VectorStore interface {
	Query(ctx context.Context, vector []float32, topK int, namespace string, flt filter.Predicate) ([]Match, error)
	Upsert(ctx context.Context, records []Record, namespace string) error
}

// ChunkStore is the persistent chunk-text store contract. GetMany returns
// a map keyed by chunk id; missing ids are simply absent, not an error.
type ChunkStore interface {
	GetMany(ctx context.Context, ids []string) (map[string]string, error)
	PutMany(ctx context.Context, texts map[string]string) error
}

// RetrievalDebug reports cache behavior and timing for one retrieval
// call. It ends up verbatim in response debug payloads.
type RetrievalDebug struct {
	EmbedCacheHit     bool  `json:"embed_cache_hit"`
	RetrievalCacheHit bool  `json:"retrieval_cache_hit"`
	ElapsedMS         int64 `json:"retrieval_ms"`
	Returned          int   `json:"returned"`
}

// Generator is the synchronous answer generation contract.
type Generator interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Scorer is the stateless pairwise relevance model contract.
type Scorer interface {
	Score(ctx context.Context, query, text string) (float64, error)
}
