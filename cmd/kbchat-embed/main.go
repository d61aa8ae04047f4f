// Command kbchat-embed chunks the knowledge base, embeds every chunk and
// writes the snapshot served by kbchat.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/barekit/kbchat/pkg/config"
	"github.com/barekit/kbchat/pkg/knowledge"
	"github.com/barekit/kbchat/pkg/knowledge/chunker"
	kbopenai "github.com/barekit/kbchat/pkg/knowledge/openai"
	"github.com/barekit/kbchat/pkg/knowledge/snapshot"
	"github.com/barekit/kbchat/pkg/knowledge/store"
	"github.com/openai/openai-go/option"
)

func main() {
	var (
		input    = flag.String("input", "", "knowledge base text file (default KNOWLEDGE_BASE_PATH)")
		output   = flag.String("output", "", "snapshot file to write (default SNAPSHOT_PATH)")
		maxChars = flag.Int("max-chars", chunker.DefaultMaxChars, "maximum characters per chunk")
		upsert   = flag.Bool("upsert", false, "also upsert chunks into VECTOR_STORE when it is qdrant or postgres")
		dryRun   = flag.Bool("dry-run", false, "print chunks without embedding them")
	)
	flag.Parse()

	if err := run(*input, *output, *maxChars, *upsert, *dryRun); err != nil {
		slog.Error("kbchat-embed failed", "error", err)
		os.Exit(1)
	}
}

func run(input, output string, maxChars int, upsert, dryRun bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if input == "" {
		input = cfg.KnowledgeBasePath
	}
	if output == "" {
		output = cfg.SnapshotPath
	}

	text, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read knowledge base: %w", err)
	}
	chunks := chunker.New(chunker.WithMaxChars(maxChars)).Chunk(string(text))
	slog.Info("chunked knowledge base", "path", input, "chunks", len(chunks))
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks found in %s", input)
	}

	if dryRun {
		for i, c := range chunks {
			fmt.Printf("[%d] %s %v %v\n%s\n\n", i, c.Metadata.Title, c.Metadata.Tags, c.Metadata.Dates, c.Text)
		}
		return nil
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

	snap := snapshot.NewStore(output, snapshot.WithExpectedModel(embedder.ModelInfo()))
	if err := knowledge.NewKnowledgeBase(embedder, snap).Ingest(ctx, chunks); err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	slog.Info("snapshot written", "path", output, "chunks", len(chunks), "model", embedder.ModelInfo())

	if !upsert || cfg.VectorStore == string(store.TypeMemory) {
		return nil
	}

	loaded, err := snapshot.Read(output)
	if err != nil {
		return err
	}
	storeCfg := store.Config{
		Type:             store.Type(cfg.VectorStore),
		QdrantHost:       cfg.QdrantHost,
		QdrantPort:       cfg.QdrantPort,
		QdrantCollection: cfg.QdrantCollection,
		Dimensions:       loaded.Dimension,
		PostgresDSN:      cfg.PostgresDSN,
	}
	external, err := store.New(ctx, storeCfg)
	if err != nil {
		return err
	}
	defer store.Close(context.Background(), external)
	if err := external.Upsert(ctx, loaded.Embeddings, loaded.Chunks); err != nil {
		return fmt.Errorf("upsert into %s: %w", store.Describe(storeCfg), err)
	}
	slog.Info("vector store updated", "store", store.Describe(storeCfg), "chunks", len(loaded.Chunks))
	return nil
}
