// Package pipeline is the answer orchestrator: guard the query, plan it,
// retrieve and rerank evidence, generate a cited answer, guard the
// output. Refusals are results, not errors; an error means a collaborator
// failed, a refusal means a guard said no.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/domain"
	"github.com/paddocklabs/regsearch/internal/metrics"
	"github.com/paddocklabs/regsearch/internal/usecase/guard"
	"github.com/paddocklabs/regsearch/internal/usecase/query"
	"github.com/paddocklabs/regsearch/internal/usecase/retrieve"
)

// judgeEvidenceMaxChars caps evidence text carried in debug output for
// downstream faithfulness judging.
const judgeEvidenceMaxChars = 1200

const systemPrompt = "You are a regulations assistant.\n" +
	"Use ONLY the provided context.\n" +
	"If a detail is not explicitly supported, say: \"I don't know based on the provided documents.\"\n" +
	"Write the answer as bullet points.\n" +
	"Every bullet MUST end with at least one citation like [1] or [2].\n" +
	"Do not include any uncited claims.\n"

// Evidence is one chunk's worth of judge input: citation metadata plus
// truncated text.
type Evidence struct {
	Ref            int    `json:"ref"`
	Source         string `json:"source"`
	Page           int    `json:"page"`
	Season         int    `json:"season,omitempty"`
	Series         string `json:"series,omitempty"`
	RegulationType string `json:"regulation_type,omitempty"`
	Article        string `json:"article_primary,omitempty"`
	Text           string `json:"text"`
}

// Debug aggregates everything observed while answering.
type Debug struct {
	Refusal       bool           `json:"refusal,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	Retrieval     retrieve.Debug `json:"retrieval"`
	JudgeEvidence []Evidence     `json:"judge_evidence,omitempty"`
}

// Result is the full pipeline output for one query.
type Result struct {
	Answer    string            `json:"answer"`
	Citations []domain.Citation `json:"citations"`
	Refused   bool              `json:"refused,omitempty"`
	Debug     Debug             `json:"debug"`
}

// Options are the retrieval and rerank knobs.
type Options struct {
	RecallK       int
	TopK          int
	RerankEnabled bool
}

// Service wires the full query-to-answer flow.
type Service struct {
	executor  Executor
	reranker  Reranker
	generator domain.Generator
	opts      Options
	logger    *zap.Logger
}

func NewService(
	executor Executor,
	reranker Reranker,
	generator domain.Generator,
	opts Options,
	logger *zap.Logger,
) *Service {
	return &Service{
		executor:  executor,
		reranker:  reranker,
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// preRerankK is how many candidates to keep ahead of reranking: wide
// enough that the reranker has real choices, bounded so its cost stays
// flat.
func preRerankK(topK int) int {
	k := topK * 4
	if k < 16 {
		k = 16
	}
	if k > 24 {
		k = 24
	}
	return k
}

// Run answers one query for a tenant.
func (s *Service) Run(ctx context.Context, q, tenant string) (Result, error) {
	if g := guard.Input(q); !g.OK {
		metrics.GuardRefusalsTotal.WithLabelValues("input").Inc()
		s.logger.Info("Query refused by input guard", zap.String("reason", g.Reason))
		return refusal(g.Reason, nil, Debug{}), nil
	}

	pl := query.Plan(q)
	flt := query.BuildFilters(q, tenant)

	chunks, retrDbg, err := s.executor.Execute(ctx, pl, flt, s.opts.RecallK, preRerankK(s.opts.TopK))
	if err != nil {
		return Result{}, fmt.Errorf("execute plan: %w", err)
	}

	chunks = guard.Context(chunks, tenant)

	if s.opts.RerankEnabled && s.reranker != nil {
		chunks, err = s.reranker.Rerank(ctx, q, chunks, s.opts.TopK)
		if err != nil {
			return Result{}, fmt.Errorf("rerank: %w", err)
		}
	} else if len(chunks) > s.opts.TopK {
		chunks = chunks[:s.opts.TopK]
	}

	citations := domain.CitationsFromChunks(chunks)
	dbg := Debug{Retrieval: retrDbg}

	answer, err := s.generator.Complete(ctx, systemPrompt, buildUserPrompt(q, chunks))
	if err != nil {
		return Result{}, fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if g := guard.Output(answer, citations); !g.OK {
		metrics.GuardRefusalsTotal.WithLabelValues("output").Inc()
		s.logger.Info("Answer refused by output guard", zap.String("reason", g.Reason))
		return refusal(g.Reason, citations, dbg), nil
	}

	dbg.JudgeEvidence = judgeEvidence(chunks)
	return Result{Answer: answer, Citations: citations, Debug: dbg}, nil
}

func refusal(reason string, citations []domain.Citation, dbg Debug) Result {
	dbg.Refusal = true
	dbg.Reason = reason
	return Result{
		Answer:    "Refused: " + reason,
		Citations: citations,
		Refused:   true,
		Debug:     dbg,
	}
}

// buildUserPrompt renders numbered evidence blocks under the question.
// The header metadata lets the model cite precisely without leaking
// anything beyond what retrieval already returned.
func buildUserPrompt(q string, chunks []domain.Chunk) string {
	var b strings.Builder
	b.WriteString("Question:\n")
	b.WriteString(q)
	b.WriteString("\n\nContext:\n")
	b.WriteString(buildContext(chunks))
	b.WriteString("\n\nAnswer:")
	return b.String()
}

func buildContext(chunks []domain.Chunk) string {
	parts := make([]string, 0, len(chunks)*3)
	for i, c := range chunks {
		md := c.Meta()
		header := fmt.Sprintf(
			"[%d] source=%s page=%d season=%d series=%s type=%s article=%s chunk_id=%s",
			i+1, md.Source, md.Page, md.Season, md.Series,
			md.RegulationType, md.ArticlePrimary, c.ID(),
		)
		parts = append(parts, header, strings.TrimSpace(c.Text()), "")
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func judgeEvidence(chunks []domain.Chunk) []Evidence {
	out := make([]Evidence, 0, len(chunks))
	for i, c := range chunks {
		md := c.Meta()
		text := c.Text()
		if len(text) > judgeEvidenceMaxChars {
			text = text[:judgeEvidenceMaxChars]
		}
		out = append(out, Evidence{
			Ref:            i + 1,
			Source:         md.Source,
			Page:           md.Page,
			Season:         md.Season,
			Series:         md.Series,
			RegulationType: md.RegulationType,
			Article:        md.ArticlePrimary,
			Text:           text,
		})
	}
	return out
}
