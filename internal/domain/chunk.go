package domain

// KeyPrefix namespaces every Redis key written by regsearch.
const KeyPrefix = "regsearch:"

// ChunkMeta is the metadata attached to an indexed chunk. Field absence is
// the zero value; JSON tags match the wire names used by the vector store.
type ChunkMeta struct {
	Tenant         string   `json:"tenant,omitempty"`
	Dataset        string   `json:"dataset,omitempty"`
	Series         string   `json:"series,omitempty"`
	DocType        string   `json:"doc_type,omitempty"`
	Season         int      `json:"season,omitempty"`
	RegulationType string   `json:"regulation_type,omitempty"`
	DocID          string   `json:"doc_id,omitempty"`
	DocTitle       string   `json:"doc_title,omitempty"`
	Source         string   `json:"source,omitempty"`
	Page           int      `json:"page,omitempty"`
	ChunkIndex     int      `json:"chunk_index,omitempty"`
	ArticlePrimary string   `json:"article_primary,omitempty"`
	ArticleRefs    []string `json:"article_refs,omitempty"`
	Issue          int      `json:"issue,omitempty"`
	Published      string   `json:"published,omitempty"`
	VersionHash    string   `json:"version_hash,omitempty"`

	// RerankScore is attached by the reranker; zero until a chunk has
	// survived a rerank pass.
	RerankScore float64 `json:"rerank_score,omitempty"`
}

// Chunk is an immutable unit of retrieved evidence. Stages that augment a
// chunk produce a new value; earlier pipeline stages may still hold the
// original for debug capture.
type Chunk struct {
	id    string
	text  string
	meta  ChunkMeta
	score float64
}

// NewChunk creates a chunk.
func NewChunk(id, text string, meta ChunkMeta, score float64) Chunk {
	return Chunk{id: id, text: text, meta: meta, score: score}
}

// ID returns the stable chunk identifier.
func (c Chunk) ID() string { return c.id }

// Text returns the chunk body.
func (c Chunk) Text() string { return c.text }

// Meta returns the chunk metadata.
func (c Chunk) Meta() ChunkMeta { return c.meta }

// Score returns the relevance score. The scale depends on provenance:
// raw similarity before reranking, model score after.
func (c Chunk) Score() float64 { return c.score }

// WithRerankScore returns a copy with the rerank score attached to the
// metadata; remaining fields are preserved.
func (c Chunk) WithRerankScore(score float64) Chunk {
	meta := c.meta
	meta.RerankScore = score
	return Chunk{id: c.id, text: c.text, meta: meta, score: c.score}
}

// Match is a single vector store hit, normalized from the provider
// response shape before it crosses into core logic.
type Match struct {
	ID    string    `json:"id"`
	Score float64   `json:"score"`
	Meta  ChunkMeta `json:"metadata"`
}

// Record is a vector + metadata pair for upsert.
type Record struct {
	ID     string
	Vector []float32
	Meta   ChunkMeta
}

// Citation points a numbered answer reference back at its evidence chunk.
type Citation struct {
	Ref            int    `json:"ref"`
	ChunkID        string `json:"chunk_id"`
	Source         string `json:"source"`
	DocTitle       string `json:"doc_title,omitempty"`
	Season         int    `json:"season,omitempty"`
	Series         string `json:"series,omitempty"`
	RegulationType string `json:"regulation_type,omitempty"`
	Page           int    `json:"page,omitempty"`
	Article        string `json:"article,omitempty"`
}

// CitationsFromChunks numbers chunks in order and projects their metadata.
func CitationsFromChunks(chunks []Chunk) []Citation {
	cites := make([]Citation, 0, len(chunks))
	for i, c := range chunks {
		md := c.Meta()
		cites = append(cites, Citation{
			Ref:            i + 1,
			ChunkID:        c.ID(),
			Source:         md.Source,
			DocTitle:       md.DocTitle,
			Season:         md.Season,
			Series:         md.Series,
			RegulationType: md.RegulationType,
			Page:           md.Page,
			Article:        md.ArticlePrimary,
		})
	}
	return cites
}
