// Package retrieve turns a query plan into one or more scoped retrieval
// calls and merges the results. Compare-mode queries get one call per
// season so that no single season can crowd the others out of the
// candidate pool.
package retrieve

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/domain/filter"
	"github.com/paddocklabs/regsearch/internal/domain/plan"
)

// minPerSeasonRecall floors the per-season recall width in compare mode:
// below this a season cannot produce a useful citation set.
const minPerSeasonRecall = 6

// Debug reports how a plan was executed.
type Debug struct {
	Mode            plan.Mode             `json:"mode"`
	Seasons         []int                 `json:"seasons,omitempty"`
	PerSeasonRecall int                   `json:"per_season_recall,omitempty"`
	PerSeasonCounts map[int]int           `json:"per_season_counts,omitempty"`
	Filters         filter.Predicate      `json:"filters,omitempty"`
	Total           int                   `json:"total"`
	Cache           domain.RetrievalDebug `json:"cache"`
}

// Executor fans a plan out over the retriever.
type Executor struct {
	retriever Retriever
	namespace string
	logger    *zap.Logger
}

func NewExecutor(retriever Retriever, namespace string, logger *zap.Logger) *Executor {
	return &Executor{retriever: retriever, namespace: namespace, logger: logger}
}

// Execute runs pl against the index. recallK is the total candidate
// budget; the result never exceeds topK chunks. flt is the filter built
// from the original query and applies to every sub-query.
func (e *Executor) Execute(
	ctx context.Context,
	pl plan.Plan,
	flt filter.Predicate,
	recallK, topK int,
) ([]domain.Chunk, Debug, error) {
	if pl.Mode == plan.Compare {
		return e.executeCompare(ctx, pl, flt, recallK, topK)
	}
	return e.executeSingle(ctx, pl, flt, recallK, topK)
}

func (e *Executor) executeSingle(
	ctx context.Context,
	pl plan.Plan,
	flt filter.Predicate,
	recallK, topK int,
) ([]domain.Chunk, Debug, error) {
	sq := pl.SubQueries[0]
	scoped := flt
	if sq.Season != 0 {
		scoped = forceSeason(flt, sq.Season)
	}

	chunks, cacheDbg, err := e.retriever.Retrieve(ctx, sq.Query, recallK, e.namespace, scoped)
	if err != nil {
		return nil, Debug{}, fmt.Errorf("retrieve: %w", err)
	}
	if len(chunks) > topK {
		chunks = chunks[:topK]
	}

	dbg := Debug{
		Mode:    pl.Mode,
		Seasons: pl.Seasons,
		Filters: scoped,
		Total:   len(chunks),
		Cache:   cacheDbg,
	}
	return chunks, dbg, nil
}

func (e *Executor) executeCompare(
	ctx context.Context,
	pl plan.Plan,
	flt filter.Predicate,
	recallK, topK int,
) ([]domain.Chunk, Debug, error) {
	perSeason := recallK / len(pl.SubQueries)
	if perSeason < minPerSeasonRecall {
		perSeason = minPerSeasonRecall
	}

	batches := make([][]domain.Chunk, 0, len(pl.SubQueries))
	counts := make(map[int]int, len(pl.SubQueries))
	var cacheDbg domain.RetrievalDebug

	for _, sq := range pl.SubQueries {
		scoped := forceSeason(flt, sq.Season)

		chunks, sqDbg, err := e.retriever.Retrieve(ctx, sq.Query, perSeason, e.namespace, scoped)
		if err != nil {
			return nil, Debug{}, fmt.Errorf("retrieve season %d: %w", sq.Season, err)
		}

		e.logger.Debug("Compare sub-query retrieved",
			zap.Int("season", sq.Season),
			zap.Int("count", len(chunks)),
		)

		batches = append(batches, chunks)
		counts[sq.Season] = len(chunks)
		cacheDbg.EmbedCacheHit = cacheDbg.EmbedCacheHit || sqDbg.EmbedCacheHit
		cacheDbg.RetrievalCacheHit = cacheDbg.RetrievalCacheHit || sqDbg.RetrievalCacheHit
		cacheDbg.ElapsedMS += sqDbg.ElapsedMS
	}

	merged := mergeBalanced(batches, topK)
	cacheDbg.Returned = len(merged)

	dbg := Debug{
		Mode:            pl.Mode,
		Seasons:         pl.Seasons,
		PerSeasonRecall: perSeason,
		PerSeasonCounts: counts,
		Filters:         flt,
		Total:           len(merged),
		Cache:           cacheDbg,
	}
	return merged, dbg, nil
}

// forceSeason pins the season clause of a filter to the given season,
// replacing any season clause the base filter already carries. Sub-query
// scoping always wins over whatever year the query text mentioned.
func forceSeason(flt filter.Predicate, season int) filter.Predicate {
	seasonClause := filter.EqInt("season", season)
	if flt == nil {
		return seasonClause
	}

	switch p := flt.(type) {
	case filter.Clause:
		if p.Has("season") {
			return seasonClause
		}
		return filter.AndOf(p, seasonClause)
	case filter.And:
		kept := make([]filter.Predicate, 0, len(p.Preds())+1)
		for _, sub := range p.Preds() {
			if sub.Has("season") {
				continue
			}
			kept = append(kept, sub)
		}
		kept = append(kept, seasonClause)
		if len(kept) == 1 {
			return kept[0]
		}
		return filter.AndOf(kept...)
	default:
		return filter.AndOf(flt, seasonClause)
	}
}
