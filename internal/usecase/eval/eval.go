// Package eval runs a labeled query set through the answer pipeline and
// aggregates latency, cache hit rates and answer faithfulness into a
// JSON report.
package eval

import (
	"context"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/usecase/pipeline"
)

// Pipeline answers one query end to end.
type Pipeline interface {
	Run(ctx context.Context, query, tenant string) (pipeline.Result, error)
}

// Item is one labeled query in the eval dataset.
type Item struct {
	Query string `json:"query"`
}

// Row is the per-query eval output.
type Row struct {
	Query     string            `json:"query"`
	LatencyMS float64           `json:"latency_ms"`
	Answer    string            `json:"answer"`
	Citations []domain.Citation `json:"citations"`
	Refused   bool              `json:"refused,omitempty"`
	Judge     Verdict           `json:"judge"`
	Error     string            `json:"error,omitempty"`
}

// LatencySummary aggregates per-query latencies.
type LatencySummary struct {
	Mean float64 `json:"mean"`
	P50  float64 `json:"p50"`
	P95  float64 `json:"p95"`
}

// CacheSummary aggregates cache behavior across the run.
type CacheSummary struct {
	Scored           int     `json:"scored"`
	EmbedHitRate     float64 `json:"embed_hit_rate"`
	RetrievalHitRate float64 `json:"retrieval_hit_rate"`
}

// FaithfulnessSummary aggregates judge verdicts. Rate is over judged
// rows only.
type FaithfulnessSummary struct {
	Judged int     `json:"judged"`
	Rate   float64 `json:"rate"`
}

// Report is the full eval run output.
type Report struct {
	N            int                 `json:"n"`
	Latency      LatencySummary      `json:"latency_ms"`
	Cache        CacheSummary        `json:"cache"`
	Faithfulness FaithfulnessSummary `json:"faithfulness"`
	Rows         []Row               `json:"rows"`
}

// Runner drives a full eval pass.
type Runner struct {
	pipeline Pipeline
	judge    *Judge
	tenant   string
	logger   *zap.Logger
}

func NewRunner(p Pipeline, judge *Judge, tenant string, logger *zap.Logger) *Runner {
	return &Runner{pipeline: p, judge: judge, tenant: tenant, logger: logger}
}

// Run evaluates every item. A pipeline error marks its row and the run
// continues; eval exists to measure failures, not to die on the first.
func (r *Runner) Run(ctx context.Context, items []Item) (Report, error) {
	rows := make([]Row, 0, len(items))
	var latencies []float64
	var embedHits, retrHits int
	var faithful, judged int

	for _, item := range items {
		started := time.Now()
		res, err := r.pipeline.Run(ctx, item.Query, r.tenant)
		elapsed := float64(time.Since(started).Microseconds()) / 1000.0

		row := Row{Query: item.Query, LatencyMS: elapsed}

		if err != nil {
			row.Error = err.Error()
			r.logger.Warn("Eval query failed", zap.String("query", item.Query), zap.Error(err))
			rows = append(rows, row)
			continue
		}

		latencies = append(latencies, elapsed)
		row.Answer = res.Answer
		row.Citations = res.Citations
		row.Refused = res.Refused

		cache := res.Debug.Retrieval.Cache
		if cache.EmbedCacheHit {
			embedHits++
		}
		if cache.RetrievalCacheHit {
			retrHits++
		}

		if !res.Refused && len(res.Debug.JudgeEvidence) > 0 {
			verdict, jerr := r.judge.Faithfulness(ctx, res.Answer, res.Debug.JudgeEvidence)
			if jerr != nil {
				r.logger.Warn("Judge call failed", zap.String("query", item.Query), zap.Error(jerr))
			} else {
				row.Judge = verdict
				if verdict.Judged {
					judged++
					if verdict.Faithful {
						faithful++
					}
				}
			}
		}

		rows = append(rows, row)
	}

	report := Report{
		N:    len(rows),
		Rows: rows,
	}
	report.Latency = summarizeLatency(latencies)
	report.Cache = CacheSummary{Scored: len(latencies)}
	if n := len(latencies); n > 0 {
		report.Cache.EmbedHitRate = float64(embedHits) / float64(n)
		report.Cache.RetrievalHitRate = float64(retrHits) / float64(n)
	}
	report.Faithfulness = FaithfulnessSummary{Judged: judged}
	if judged > 0 {
		report.Faithfulness.Rate = float64(faithful) / float64(judged)
	}

	r.logger.Info("Eval run complete",
		zap.Int("n", report.N),
		zap.Float64("latency_p50", report.Latency.P50),
		zap.Float64("faithfulness_rate", report.Faithfulness.Rate),
	)
	return report, nil
}

func summarizeLatency(vals []float64) LatencySummary {
	if len(vals) == 0 {
		return LatencySummary{}
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return LatencySummary{
		Mean: sum / float64(len(vals)),
		P50:  percentile(vals, 0.50),
		P95:  percentile(vals, 0.95),
	}
}

// percentile uses nearest-rank on a sorted copy.
func percentile(vals []float64, p float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	idx := int(math.Round(float64(len(sorted)-1) * p))
	return sorted[idx]
}
