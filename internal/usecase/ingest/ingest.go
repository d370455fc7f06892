// Package ingest writes pre-chunked regulation pages into the index:
// metadata inference from the filename, article reference extraction,
// batch embedding, vector upsert and chunk text storage.
package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/domain"
)

// embedBatchSize bounds one embedding API call.
const embedBatchSize = 96

// Page is one pre-chunked unit of input: a source document name, a page
// number and the chunk texts extracted from that page in order.
type Page struct {
	Source string   `json:"source"`
	Page   int      `json:"page"`
	Chunks []string `json:"chunks"`
}

// Stats summarizes one ingestion run.
type Stats struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
}

// Service indexes pages into the vector store and chunk store.
type Service struct {
	embedder  domain.BatchEmbedder
	vectors   domain.VectorStore
	chunks    domain.ChunkStore
	namespace string
	dataset   string
	tenant    string
	logger    *zap.Logger
}

func NewService(
	embedder domain.BatchEmbedder,
	vectors domain.VectorStore,
	chunks domain.ChunkStore,
	namespace, dataset, tenant string,
	logger *zap.Logger,
) *Service {
	return &Service{
		embedder:  embedder,
		vectors:   vectors,
		chunks:    chunks,
		namespace: namespace,
		dataset:   dataset,
		tenant:    tenant,
		logger:    logger,
	}
}

// StableDocID derives a short deterministic document id from the source
// name. Re-ingesting the same document overwrites its chunks in place.
func StableDocID(source string) string {
	h := sha1.Sum([]byte(source))
	return hex.EncodeToString(h[:])[:12]
}

// ChunkID derives the id for one chunk of a page.
func ChunkID(docID string, page, idx int) string {
	return fmt.Sprintf("%s-p%d-c%d", docID, page, idx)
}

// Ingest indexes all chunks of the given pages. Chunk texts are written
// before vectors so retrieval never hydrates against missing text.
func (s *Service) Ingest(ctx context.Context, pages []Page) (Stats, error) {
	var (
		ids      []string
		texts    []string
		metas    []domain.ChunkMeta
		docsSeen = make(map[string]struct{})
	)

	for _, p := range pages {
		docID := StableDocID(p.Source)
		docsSeen[p.Source] = struct{}{}

		docMeta := InferMetadata(p.Source, s.dataset, s.tenant)
		docMeta.DocID = docID

		for ci, chunk := range p.Chunks {
			meta := docMeta
			meta.Page = p.Page
			meta.ChunkIndex = ci

			if refs := ExtractArticleRefs(chunk); len(refs) > 0 {
				meta.ArticleRefs = refs
				meta.ArticlePrimary = refs[0]
			}

			ids = append(ids, ChunkID(docID, p.Page, ci))
			texts = append(texts, chunk)
			metas = append(metas, meta)
		}
	}

	if len(ids) == 0 {
		return Stats{}, nil
	}

	textByID := make(map[string]string, len(ids))
	for i, id := range ids {
		textByID[id] = texts[i]
	}
	if err := s.chunks.PutMany(ctx, textByID); err != nil {
		return Stats{}, fmt.Errorf("store chunk texts: %w", err)
	}

	for start := 0; start < len(texts); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		res, err := s.embedder.BatchEmbed(ctx, texts[start:end])
		if err != nil {
			return Stats{}, fmt.Errorf("embed batch at %d: %w", start, err)
		}
		if len(res.Embeddings) != end-start {
			return Stats{}, fmt.Errorf("embed batch at %d: got %d vectors for %d texts",
				start, len(res.Embeddings), end-start)
		}

		records := make([]domain.Record, 0, end-start)
		for i := start; i < end; i++ {
			records = append(records, domain.Record{
				ID:     ids[i],
				Vector: res.Embeddings[i-start],
				Meta:   metas[i],
			})
		}
		if err := s.vectors.Upsert(ctx, records, s.namespace); err != nil {
			return Stats{}, fmt.Errorf("upsert batch at %d: %w", start, err)
		}
	}

	stats := Stats{Documents: len(docsSeen), Chunks: len(ids)}
	s.logger.Info("Ingestion complete",
		zap.Int("documents", stats.Documents),
		zap.Int("chunks", stats.Chunks),
		zap.String("namespace", s.namespace),
	)
	return stats, nil
}
