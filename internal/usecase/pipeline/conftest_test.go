package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/domain/filter"
	"github.com/paddocklabs/regsearch/internal/domain/plan"
	"github.com/paddocklabs/regsearch/internal/usecase/retrieve"
)

type executeCall struct {
	pl      plan.Plan
	flt     filter.Predicate
	recallK int
	topK    int
}

type mockExecutor struct {
	chunks []domain.Chunk
	err    error
	calls  []executeCall
}

func (m *mockExecutor) Execute(
	_ context.Context, pl plan.Plan, flt filter.Predicate, recallK, topK int,
) ([]domain.Chunk, retrieve.Debug, error) {
	m.calls = append(m.calls, executeCall{pl: pl, flt: flt, recallK: recallK, topK: topK})
	if m.err != nil {
		return nil, retrieve.Debug{}, m.err
	}
	return m.chunks, retrieve.Debug{Mode: pl.Mode, Total: len(m.chunks)}, nil
}

type mockReranker struct {
	calls int
}

func (m *mockReranker) Rerank(_ context.Context, _ string, chunks []domain.Chunk, topK int) ([]domain.Chunk, error) {
	m.calls++
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}
	return chunks, nil
}

type mockGenerator struct {
	answer     string
	err        error
	lastSystem string
	lastUser   string
}

func (m *mockGenerator) Complete(_ context.Context, system, user string) (string, error) {
	m.lastSystem = system
	m.lastUser = user
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

func evidenceChunks(n int) []domain.Chunk {
	text := strings.Repeat("the regulation states that ", 5)
	out := make([]domain.Chunk, 0, n)
	for i := 0; i < n; i++ {
		meta := domain.ChunkMeta{
			Tenant: "fia", Season: 2023, Series: "f1",
			Source: "fia_2023_technical.pdf", Page: i + 1,
		}
		out = append(out, domain.NewChunk(fmt.Sprintf("c%d", i), text, meta, 1.0-float64(i)*0.05))
	}
	return out
}

func newChunkWithMeta(c domain.Chunk, meta domain.ChunkMeta) domain.Chunk {
	return domain.NewChunk(c.ID(), c.Text(), meta, c.Score())
}

func newTestService(t *testing.T, ex *mockExecutor, gen *mockGenerator, opts Options) (*Service, *mockReranker) {
	t.Helper()
	rr := &mockReranker{}
	svc := NewService(ex, rr, gen, opts, zap.NewNop())
	return svc, rr
}
