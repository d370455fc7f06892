package pipeline

import (
	"context"

	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/domain/filter"
	"github.com/paddocklabs/regsearch/internal/domain/plan"
	"github.com/paddocklabs/regsearch/internal/usecase/retrieve"
)

// Executor fans a query plan out over retrieval and merges the results.
type Executor interface {
	Execute(
		ctx context.Context, pl plan.Plan, flt filter.Predicate,
		recallK, topK int,
	) ([]domain.Chunk, retrieve.Debug, error)
}

// Reranker re-orders candidates by relevance to the query.
type Reranker interface {
	Rerank(ctx context.Context, query string, chunks []domain.Chunk, topK int) ([]domain.Chunk, error)
}
