package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Metadata is the lightweight annotation attached to a chunk.
type Metadata struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Dates []string `json:"dates"`
}

// Chunk is a bounded passage of the knowledge base. Chunks are immutable once built.
type Chunk struct {
	Text     string   `json:"text"`
	Metadata Metadata `json:"metadata"`
}

// UnmarshalJSON also accepts a bare string, the legacy snapshot form.
func (c *Chunk) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = Chunk{Text: s}
		return nil
	}
	type plain Chunk
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*c = Chunk(p)
	return nil
}

// EmbeddingText is the text fed to the embedding model: the title followed by the body.
func (c Chunk) EmbeddingText() string {
	if c.Metadata.Title == "" || strings.HasPrefix(c.Text, c.Metadata.Title) {
		return c.Text
	}
	return c.Metadata.Title + "\n" + c.Text
}

// Match is a retrieved chunk with its relevance score.
type Match struct {
	// Index is the chunk's position in the knowledge-base snapshot.
	Index int     `json:"index"`
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"`
	// Similarity is the raw embedding similarity before reranking.
	Similarity float32 `json:"similarity"`
}

// Embedder is the interface for generating embeddings.
// Query and knowledge-base vectors must come from the same ModelInfo.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	ModelInfo() string
}

// VectorStore is the interface for storing and retrieving vectors.
type VectorStore interface {
	// Upsert inserts or updates chunks and their vectors. vectors[i] belongs to chunks[i].
	Upsert(ctx context.Context, vectors [][]float32, chunks []Chunk) error
	// Search returns at most limit matches sorted by descending score.
	Search(ctx context.Context, query []float32, limit int) ([]Match, error)
}

// KnowledgeBase combines an Embedder and a VectorStore.
type KnowledgeBase struct {
	Embedder    Embedder
	VectorStore VectorStore
}

// NewKnowledgeBase creates a new KnowledgeBase.
func NewKnowledgeBase(embedder Embedder, store VectorStore) *KnowledgeBase {
	return &KnowledgeBase{
		Embedder:    embedder,
		VectorStore: store,
	}
}

// Ingest embeds chunks and adds them to the store.
func (kb *KnowledgeBase) Ingest(ctx context.Context, chunks []Chunk) error {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.EmbeddingText()
	}

	vectors, err := kb.Embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("knowledge: ingest: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	return kb.VectorStore.Upsert(ctx, vectors, chunks)
}

// EmbedQuery embeds a single query text.
func (kb *KnowledgeBase) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := kb.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("knowledge: embed query: no vector returned")
	}
	return vectors[0], nil
}

// Retrieve finds relevant chunks for a query.
func (kb *KnowledgeBase) Retrieve(ctx context.Context, query string, limit int) ([]Match, error) {
	vec, err := kb.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return kb.VectorStore.Search(ctx, vec, limit)
}
