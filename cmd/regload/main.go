// Command regload indexes pre-chunked regulation pages from a JSON file
// into the vector store. Parsing and chunking happen upstream; the input
// is an array of {source, page, chunks} records.
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
	"github.com/paddocklabs/regsearch/internal/repository/vecstore"
	openaiProv "github.com/paddocklabs/regsearch/internal/transport/openai"
	"github.com/paddocklabs/regsearch/internal/usecase/ingest"
	"github.com/paddocklabs/regsearch/internal/version"
)

func main() {
	inputPath := flag.String("input", "", "path to the pages file (JSON array of {source, page, chunks})")
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

	logger.Info("Starting regload", zap.String("build", version.String()))

	if *inputPath == "" {
		logger.Fatal("Missing required -input flag")
	}

	data, err := os.ReadFile(*inputPath)
	if err != nil {
		logger.Fatal("Failed to read pages file", zap.Error(err))
	}

	var pages []ingest.Page
	if err := json.Unmarshal(data, &pages); err != nil {
		logger.Fatal("Failed to parse pages file", zap.Error(err))
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

	embedder := openaiProv.NewEmbedder(&openaiProv.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	vectors := vecstore.New(store, cfg.Embedding.Dimensions).WithHNSW(vecstore.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := vectors.EnsureIndex(ctx, cfg.Retrieval.Namespace); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	svc := ingest.NewService(
		embedder,
		vectors,
		chunkstore.New(store),
		cfg.Retrieval.Namespace,
		cfg.Retrieval.Dataset,
		cfg.Retrieval.DefaultTenant,
		logger,
	)

	started := time.Now()
	stats, err := svc.Ingest(ctx, pages)
	if err != nil {
		logger.Fatal("Ingestion failed", zap.Error(err))
	}

	logger.Info("Ingestion complete",
		zap.Int("documents", stats.Documents),
		zap.Int("chunks", stats.Chunks),
		zap.Duration("elapsed", time.Since(started)),
	)
}
