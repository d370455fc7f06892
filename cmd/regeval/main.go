// Command regeval runs a labeled query set through the full answer
// pipeline and writes an aggregate JSON report: latency percentiles,
// cache hit rates and LLM-judged faithfulness.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/config"
	dbRedis "github.com/paddocklabs/regsearch/internal/db/redis"
	logpkg "github.com/paddocklabs/regsearch/internal/logger"
	"github.com/paddocklabs/regsearch/internal/metrics"
	"github.com/paddocklabs/regsearch/internal/repository/chunkstore"
	"github.com/paddocklabs/regsearch/internal/repository/embcache"
	"github.com/paddocklabs/regsearch/internal/repository/retrieval"
	"github.com/paddocklabs/regsearch/internal/repository/vecstore"
	openaiProv "github.com/paddocklabs/regsearch/internal/transport/openai"
	"github.com/paddocklabs/regsearch/internal/usecase/eval"
	"github.com/paddocklabs/regsearch/internal/usecase/pipeline"
	"github.com/paddocklabs/regsearch/internal/usecase/rerank"
	"github.com/paddocklabs/regsearch/internal/usecase/retrieve"
	"github.com/paddocklabs/regsearch/internal/version"
)

func main() {
	var (
		inputPath  = flag.String("input", "eval/queries.json", "path to the labeled query set (JSON array)")
		outputPath = flag.String("output", "eval/report.json", "path to write the report to")
	)
	flag.Parse()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting regeval", zap.String("build", version.String()))

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		logger.Fatal("Failed to read query set", zap.Error(err))
	}

	var items []eval.Item
	if err := json.Unmarshal(data, &items); err != nil {
		logger.Fatal("Failed to parse query set", zap.Error(err))
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	readyTimeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(ctx, readyTimeout); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()
	metrics.RegisterPipelineMetrics()

	embedder := embcache.New(
		openaiProv.NewEmbedder(&openaiProv.Config{
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
			Provider:   cfg.Embedding.Provider,
			Logger:     logger,
		}),
		store,
		cfg.Embedding.Model,
		metrics.EmbeddingCacheTotal,
		logger,
	).WithTTL(time.Duration(cfg.Embedding.CacheTTLHr) * time.Hour)

	vectors := vecstore.New(store, cfg.Embedding.Dimensions).WithHNSW(vecstore.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})

	retriever := retrieval.New(embedder, vectors, chunkstore.New(store), store, logger).
		WithTTL(time.Duration(cfg.Retrieval.CacheTTLMin) * time.Minute)

	scorer := openaiProv.NewScorer(&openaiProv.Config{
		APIKey:   cfg.Generation.APIKey,
		BaseURL:  cfg.Generation.BaseURL,
		Model:    cfg.Generation.RerankModel,
		Provider: cfg.Generation.Provider,
		Logger:   logger,
	})

	generator := openaiProv.NewGenerator(&openaiProv.Config{
		APIKey:   cfg.Generation.APIKey,
		BaseURL:  cfg.Generation.BaseURL,
		Model:    cfg.Generation.Model,
		Provider: cfg.Generation.Provider,
		Logger:   logger,
	})

	svc := pipeline.NewService(
		retrieve.NewExecutor(retriever, cfg.Retrieval.Namespace, logger),
		rerank.New(scorer, logger),
		generator,
		pipeline.Options{
			RecallK:       cfg.Retrieval.RecallK,
			TopK:          cfg.Retrieval.TopK,
			RerankEnabled: cfg.RerankOn(),
		},
		logger,
	)

	judge := eval.NewJudge(openaiProv.NewGenerator(&openaiProv.Config{
		APIKey:   cfg.Generation.APIKey,
		BaseURL:  cfg.Generation.BaseURL,
		Model:    cfg.Generation.JudgeModel,
		Provider: cfg.Generation.Provider,
		Logger:   logger,
	}))

	runner := eval.NewRunner(svc, judge, cfg.Retrieval.DefaultTenant, logger)

	report, err := runner.Run(ctx, items)
	if err != nil {
		logger.Fatal("Eval run failed", zap.Error(err))
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal("Failed to encode report", zap.Error(err))
	}
	if err := os.WriteFile(*outputPath, out, 0o644); err != nil {
		logger.Fatal("Failed to write report", zap.Error(err))
	}

	logger.Info("Eval run complete",
		zap.Int("queries", report.N),
		zap.Float64("p50_ms", report.Latency.P50),
		zap.Float64("p95_ms", report.Latency.P95),
		zap.Int("judged", report.Faithfulness.Judged),
		zap.Float64("faithfulness", report.Faithfulness.Rate),
		zap.String("output", *outputPath),
	)
}
