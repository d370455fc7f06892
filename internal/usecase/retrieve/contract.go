package retrieve

import (
	"context"

	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/domain/filter"
)

// Retriever runs one embed-and-search round trip and returns hydrated
// chunks. The executor never talks to the vector store directly.
type Retriever interface {
	Retrieve(
		ctx context.Context, query string,
		recallK int, namespace string, flt filter.Predicate,
	) ([]domain.Chunk, domain.RetrievalDebug, error)
}
