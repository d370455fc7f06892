package retrieve

import (
	"context"
	"fmt"
	"testing"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/domain/filter"
)

type retrieveCall struct {
	query   string
	recallK int
	flt     filter.Predicate
}

// mockRetriever returns canned chunks keyed by the season the filter
// forces, or the default batch for unscoped calls.
type mockRetriever struct {
	bySeason map[int][]domain.Chunk
	chunks   []domain.Chunk
	err      error
	calls    []retrieveCall
}

func (m *mockRetriever) Retrieve(
	_ context.Context, query string, recallK int, _ string, flt filter.Predicate,
) ([]domain.Chunk, domain.RetrievalDebug, error) {
	m.calls = append(m.calls, retrieveCall{query: query, recallK: recallK, flt: flt})
	if m.err != nil {
		return nil, domain.RetrievalDebug{}, m.err
	}
	if m.bySeason != nil {
		if s, ok := forcedSeason(flt); ok {
			return m.bySeason[s], domain.RetrievalDebug{Returned: len(m.bySeason[s])}, nil
		}
	}
	return m.chunks, domain.RetrievalDebug{Returned: len(m.chunks)}, nil
}

func forcedSeason(flt filter.Predicate) (int, bool) {
	switch p := flt.(type) {
	case filter.Clause:
		if p.Field() == "season" && p.IsInt() {
			return p.Int(), true
		}
	case filter.And:
		for _, sub := range p.Preds() {
			if s, ok := forcedSeason(sub); ok {
				return s, true
			}
		}
	}
	return 0, false
}

func testChunks(season, n int) []domain.Chunk {
	out := make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("s%d-c%d", season, i)
		out = append(out, domain.NewChunk(id, "text "+id, domain.ChunkMeta{Season: season}, 1.0-float64(i)*0.1))
	}
	return out
}

func newTestExecutor(t *testing.T, mr *mockRetriever) *Executor {
	t.Helper()
	return NewExecutor(mr, "regs", zap.NewNop())
}
