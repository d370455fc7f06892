// Package rerank orders retrieval candidates with a pairwise relevance
// model. Scoring a (query, text) pair is far more accurate than cosine
// similarity but costs a model call per candidate, so it only runs on
// the small post-retrieval set and only when there is something to cut.
package rerank

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/domain"
)

// DefaultMaxChars caps the text passed to the scoring model. Relevance
// signal concentrates in the opening of a chunk.
const DefaultMaxChars = 450

// Reranker re-orders chunks by pairwise relevance to the query.
type Reranker struct {
	scorer   domain.Scorer
	maxChars int
	logger   *zap.Logger
}

func New(scorer domain.Scorer, logger *zap.Logger) *Reranker {
	return &Reranker{scorer: scorer, maxChars: DefaultMaxChars, logger: logger}
}

// WithMaxChars overrides the snippet length fed to the scorer.
func (r *Reranker) WithMaxChars(n int) *Reranker {
	r.maxChars = n
	return r
}

// Rerank scores every chunk against the query and returns the topK best,
// highest first, with rerank scores attached. When the input already fits
// in topK there is nothing to cut and no scorer calls are made.
func (r *Reranker) Rerank(ctx context.Context, query string, chunks []domain.Chunk, topK int) ([]domain.Chunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	if len(chunks) <= topK {
		return chunks, nil
	}

	type scored struct {
		chunk domain.Chunk
		score float64
	}

	items := make([]scored, 0, len(chunks))
	for _, c := range chunks {
		s, err := r.scorer.Score(ctx, query, r.snippet(c.Text()))
		if err != nil {
			return nil, fmt.Errorf("score chunk %s: %w", c.ID(), err)
		}
		items = append(items, scored{chunk: c, score: s})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	out := make([]domain.Chunk, 0, topK)
	for _, it := range items[:topK] {
		out = append(out, it.chunk.WithRerankScore(it.score))
	}

	r.logger.Debug("Reranked candidates",
		zap.Int("candidates", len(chunks)),
		zap.Int("kept", len(out)),
	)
	return out, nil
}

func (r *Reranker) snippet(text string) string {
	t := strings.TrimSpace(text)
	if len(t) > r.maxChars {
		return t[:r.maxChars]
	}
	return t
}
