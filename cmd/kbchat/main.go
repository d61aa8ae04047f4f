package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/barekit/kbchat/pkg/cache"
	"github.com/barekit/kbchat/pkg/config"
	"github.com/barekit/kbchat/pkg/knowledge"
	kbopenai "github.com/barekit/kbchat/pkg/knowledge/openai"
	"github.com/barekit/kbchat/pkg/knowledge/store"
	llmopenai "github.com/barekit/kbchat/pkg/llm/openai"
	"github.com/barekit/kbchat/pkg/querylog"
	"github.com/barekit/kbchat/pkg/rag"
	"github.com/barekit/kbchat/pkg/server"
	"github.com/openai/openai-go/option"
)

func main() {
	if err := run(); err != nil {
		slog.Error("kbchat exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	if err := cfg.RequireLLM(); err != nil {
		return err
	}
	if err := cfg.RequireEmbedding(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder := kbopenai.NewEmbedder(
		kbopenai.WithRequestOptions(option.WithBaseURL(cfg.EmbeddingBaseURL), option.WithAPIKey(cfg.EmbeddingAPIKey)),
		kbopenai.WithModel(cfg.EmbeddingModel),
		kbopenai.WithDimensions(cfg.EmbeddingDimensions),
		kbopenai.WithBatchSize(cfg.EmbeddingBatchSize),
	)

	storeCfg := storeConfig(cfg, embedder.ModelInfo())
	vectorStore, err := store.New(ctx, storeCfg)
	if err != nil {
		return err
	}
	defer release(logger, "vector store", func(ctx context.Context) error { return store.Close(ctx, vectorStore) })
	logger.Info("vector store ready", "store", store.Describe(storeCfg))

	provider := llmopenai.New(
		option.WithBaseURL(cfg.LLMBaseURL),
		option.WithAPIKey(cfg.LLMAPIKey),
		option.WithHeader("HTTP-Referer", cfg.SiteURL),
		option.WithHeader("X-Title", cfg.SiteName),
	)
	provider.SetModel(cfg.LLMModel)

	responses, err := cache.NewFactory(ctx, cache.Config{
		Type:             cache.Type(cfg.CacheType),
		ConnectionString: cfg.CacheDSN,
		DBName:           cfg.StoreDBName,
		TTL:              cfg.CacheTTL,
	})
	if err != nil {
		return err
	}
	defer release(logger, "response cache", func(ctx context.Context) error { return cache.Close(ctx, responses) })

	queryLog, err := querylog.NewFactory(ctx, querylog.Config{
		Type:             querylog.Type(cfg.QueryLogType),
		ConnectionString: cfg.QueryLogDSN,
		Username:         cfg.StoreUsername,
		Password:         cfg.StorePassword,
		DBName:           cfg.StoreDBName,
	})
	if err != nil {
		return err
	}
	defer release(logger, "query log", func(ctx context.Context) error { return querylog.Close(ctx, queryLog) })

	pipeline := rag.NewPipeline(
		knowledge.NewKnowledgeBase(embedder, vectorStore),
		rag.NewGenerator(provider, rag.WithTemperature(cfg.LLMTemperature)),
		rag.WithLogger(logger),
		rag.WithTopK(cfg.TopK),
		rag.WithCandidateK(cfg.CandidateK),
		rag.WithRerankWeight(cfg.RerankWeight),
		rag.WithAssembler(rag.NewAssembler(rag.NewTokenEstimator(cfg.TokenFactor), cfg.MaxContextTokens)),
		rag.WithCache(responses),
		rag.WithQueryLog(queryLog),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.New(pipeline, server.WithTimeout(cfg.RequestTimeout), server.WithLogger(logger)).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("kbchat listening", "addr", cfg.Addr, "model", provider.Model(), "embedding_model", embedder.ModelInfo())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// release closes a resource on the way out of run, after the server has drained.
func release(logger *slog.Logger, name string, closeFn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := closeFn(ctx); err != nil {
		logger.Warn("failed to close "+name, "error", err)
	}
}

func storeConfig(cfg *config.Config, model string) store.Config {
	return store.Config{
		Type:             store.Type(cfg.VectorStore),
		SnapshotPath:     cfg.SnapshotPath,
		Model:            model,
		QdrantHost:       cfg.QdrantHost,
		QdrantPort:       cfg.QdrantPort,
		QdrantCollection: cfg.QdrantCollection,
		Dimensions:       cfg.EmbeddingDimensions,
		PostgresDSN:      cfg.PostgresDSN,
	}
}
