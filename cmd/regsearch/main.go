package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/paddocklabs/regsearch/internal/config"
	dbRedis "github.com/paddocklabs/regsearch/internal/db/redis"
	"github.com/paddocklabs/regsearch/internal/domain"
	logpkg "github.com/paddocklabs/regsearch/internal/logger"
	"github.com/paddocklabs/regsearch/internal/metrics"
	"github.com/paddocklabs/regsearch/internal/repository/chunkstore"
	"github.com/paddocklabs/regsearch/internal/repository/embcache"
	"github.com/paddocklabs/regsearch/internal/repository/retrieval"
	"github.com/paddocklabs/regsearch/internal/repository/vecstore"
	chiTransport "github.com/paddocklabs/regsearch/internal/transport/chi"
	openaiProv "github.com/paddocklabs/regsearch/internal/transport/openai"
	"github.com/paddocklabs/regsearch/internal/usecase/pipeline"
	"github.com/paddocklabs/regsearch/internal/usecase/rerank"
	"github.com/paddocklabs/regsearch/internal/usecase/retrieve"
	"github.com/paddocklabs/regsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting regsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create store", zap.Error(err))
	}
	defer store.Close()

	readyCtx := context.Background()
	readyTimeout := time.Duration(cfg.Database.ReadinessTimeout) * time.Second
	if err := store.WaitForReady(readyCtx, readyTimeout); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGenerationMetrics()
	metrics.RegisterPipelineMetrics()

	baseEmbedder := openaiProv.NewEmbedder(&openaiProv.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	embedder := embcache.New(
		baseEmbedder,
		store,
		cfg.Embedding.Model,
		metrics.EmbeddingCacheTotal,
		logger,
	).WithTTL(time.Duration(cfg.Embedding.CacheTTLHr) * time.Hour)

	vectors := vecstore.New(store, cfg.Embedding.Dimensions).WithHNSW(vecstore.HNSWConfig{
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})
	if err := vectors.EnsureIndex(readyCtx, cfg.Retrieval.Namespace); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	chunks := chunkstore.New(store)

	retriever := retrieval.New(embedder, vectors, chunks, store, logger).
		WithTTL(time.Duration(cfg.Retrieval.CacheTTLMin) * time.Minute)

	executor := retrieve.NewExecutor(retriever, cfg.Retrieval.Namespace, logger)

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
		executor,
		rerank.New(scorer, logger),
		generator,
		pipeline.Options{
			RecallK:       cfg.Retrieval.RecallK,
			TopK:          cfg.Retrieval.TopK,
			RerankEnabled: cfg.RerankOn(),
		},
		logger,
	)

	server := chiTransport.NewServer(svc, &readiness{store: store, embedder: baseEmbedder}, cfg.Retrieval.DefaultTenant, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// readiness combines database and embedding provider checks behind the
// health endpoint's Ping contract.
type readiness struct {
	store    *dbRedis.Store
	embedder domain.HealthChecker
}

func (r *readiness) Ping(ctx context.Context) error {
	if err := r.store.Ping(ctx); err != nil {
		return err
	}
	return r.embedder.HealthCheck(ctx)
}
