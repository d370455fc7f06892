// Package vecstore implements the vector index collaborator over Redis
// FT.SEARCH. All provider response normalization happens here; core logic
// only ever sees []domain.Match.
package vecstore

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paddocklabs/regsearch/internal/db"
	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/domain/filter"
)

// store is the consumer interface for vector index operations.
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// HNSWConfig holds index build parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Store implements domain.VectorStore.
type Store struct {
	db   store
	dim  int
	hnsw HNSWConfig
}

// New creates a vector store with the given fixed dimensionality.
func New(s store, dim int) *Store {
	return &Store{db: s, dim: dim}
}

// WithHNSW sets HNSW index build parameters.
func (s *Store) WithHNSW(cfg HNSWConfig) *Store {
	s.hnsw = cfg
	return s
}

func indexName(namespace string) string {
	return domain.KeyPrefix + namespace + ":idx"
}

func recordKey(namespace, id string) string {
	return domain.KeyPrefix + namespace + ":doc:" + id
}

// metaFields are the hash fields hydrated back into match metadata.
var metaFields = []string{
	"tenant", "dataset", "series", "doc_type", "season", "regulation_type",
	"doc_id", "doc_title", "source", "page", "chunk_index",
	"article_primary", "article_refs", "issue", "published", "version_hash",
}

// EnsureIndex creates the namespace index if it does not exist yet.
func (s *Store) EnsureIndex(ctx context.Context, namespace string) error {
	name := indexName(namespace)

	exists, err := s.db.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", name, err)
	}
	if exists {
		return nil
	}

	def := &db.IndexDefinition{
		Name:     name,
		Prefixes: []string{domain.KeyPrefix + namespace + ":doc:"},
		Fields: []db.IndexField{
			{Name: "tenant", Type: db.IndexFieldTag},
			{Name: "series", Type: db.IndexFieldTag},
			{Name: "doc_type", Type: db.IndexFieldTag},
			{Name: "season", Type: db.IndexFieldNumeric},
			{Name: "regulation_type", Type: db.IndexFieldTag},
			{Name: "article_refs", Type: db.IndexFieldTag, TagSeparator: ","},
			{
				Name:              "vector",
				Type:              db.IndexFieldVector,
				VectorAlgo:        db.VectorHNSW,
				VectorDim:         s.dim,
				VectorDistance:    db.DistanceCosine,
				VectorM:           s.hnsw.M,
				VectorEFConstruct: s.hnsw.EFConstruct,
			},
		},
	}

	if err := s.db.CreateIndex(ctx, def); err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create index %s: %w", name, err)
	}
	return nil
}

// Query runs a KNN search scoped by the filter predicate and normalizes
// the hits into matches.
func (s *Store) Query(
	ctx context.Context, vector []float32, topK int, namespace string, flt filter.Predicate,
) ([]domain.Match, error) {
	if len(vector) != s.dim {
		return nil, fmt.Errorf("query vector has dim %d, index expects %d: %w",
			len(vector), s.dim, domain.ErrVectorDimMismatch)
	}

	returnFields := append([]string{"__vector_score"}, metaFields...)

	sr, err := s.db.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(namespace),
		Filter:       flt,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", namespace, err)
	}

	prefix := recordKey(namespace, "")
	matches := make([]domain.Match, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		matches = append(matches, domain.Match{
			ID:    strings.TrimPrefix(e.Key, prefix),
			Score: e.Score,
			Meta:  parseMeta(e.Fields),
		})
	}
	return matches, nil
}

// Upsert writes vector records as hashes under the namespace prefix.
func (s *Store) Upsert(ctx context.Context, records []domain.Record, namespace string) error {
	if len(records) == 0 {
		return nil
	}

	items := make([]db.HashSetItem, 0, len(records))
	for _, r := range records {
		if len(r.Vector) != s.dim {
			return fmt.Errorf("record %s has dim %d, index expects %d: %w",
				r.ID, len(r.Vector), s.dim, domain.ErrVectorDimMismatch)
		}
		items = append(items, db.HashSetItem{
			Key:    recordKey(namespace, r.ID),
			Fields: recordFields(r),
		})
	}

	if err := s.db.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert %d records into %s: %w", len(records), namespace, err)
	}
	return nil
}

func recordFields(r domain.Record) map[string]string {
	md := r.Meta
	fields := map[string]string{
		"vector": vectorToBytes(r.Vector),
	}

	setStr := func(name, v string) {
		if v != "" {
			fields[name] = v
		}
	}
	setInt := func(name string, v int) {
		if v != 0 {
			fields[name] = strconv.Itoa(v)
		}
	}

	setStr("tenant", md.Tenant)
	setStr("dataset", md.Dataset)
	setStr("series", md.Series)
	setStr("doc_type", md.DocType)
	setInt("season", md.Season)
	setStr("regulation_type", md.RegulationType)
	setStr("doc_id", md.DocID)
	setStr("doc_title", md.DocTitle)
	setStr("source", md.Source)
	setInt("page", md.Page)
	setInt("chunk_index", md.ChunkIndex)
	setStr("article_primary", md.ArticlePrimary)
	setStr("article_refs", strings.Join(md.ArticleRefs, ","))
	setInt("issue", md.Issue)
	setStr("published", md.Published)
	setStr("version_hash", md.VersionHash)

	return fields
}

func parseMeta(fields map[string]string) domain.ChunkMeta {
	atoi := func(s string) int {
		n, _ := strconv.Atoi(s)
		return n
	}

	md := domain.ChunkMeta{
		Tenant:         fields["tenant"],
		Dataset:        fields["dataset"],
		Series:         fields["series"],
		DocType:        fields["doc_type"],
		Season:         atoi(fields["season"]),
		RegulationType: fields["regulation_type"],
		DocID:          fields["doc_id"],
		DocTitle:       fields["doc_title"],
		Source:         fields["source"],
		Page:           atoi(fields["page"]),
		ChunkIndex:     atoi(fields["chunk_index"]),
		ArticlePrimary: fields["article_primary"],
		Issue:          atoi(fields["issue"]),
		Published:      fields["published"],
		VersionHash:    fields["version_hash"],
	}
	if refs := fields["article_refs"]; refs != "" {
		md.ArticleRefs = strings.Split(refs, ",")
	}
	return md
}

func vectorToBytes(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}
