package openai

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/barekit/kbchat/pkg/apperror"
	"github.com/barekit/kbchat/pkg/knowledge"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultBatchSize is the number of texts sent per embeddings request.
const DefaultBatchSize = 5

// Embedder implements knowledge.Embedder using an OpenAI-compatible embeddings API.
// Every vector is L2-normalized.
type Embedder struct {
	client     *openai.Client
	model      string
	dimensions int
	batchSize  int
}

// Option configures the Embedder.
type Option func(*Embedder)

// WithModel sets the embedding model.
func WithModel(model string) Option {
	return func(e *Embedder) {
		if model != "" {
			e.model = model
		}
	}
}

// WithDimensions requests vectors of the given size (text-embedding-3-* only).
func WithDimensions(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.dimensions = n
		}
	}
}

// WithBatchSize sets how many texts are embedded per request.
func WithBatchSize(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithRequestOptions passes options such as option.WithAPIKey to the client.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(e *Embedder) {
		e.client = newClient(opts...)
	}
}

// NewEmbedder creates a new OpenAI Embedder.
func NewEmbedder(opts ...Option) *Embedder {
	e := &Embedder{
		client:    newClient(),
		model:     string(openai.EmbeddingModelTextEmbedding3Small),
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func newClient(opts ...option.RequestOption) *openai.Client {
	opts = append([]option.RequestOption{option.WithMaxRetries(0)}, opts...)
	client := openai.NewClient(opts...)
	return &client
}

// ModelInfo identifies the model and dimensionality; snapshots record it.
func (e *Embedder) ModelInfo() string {
	if e.dimensions == 0 {
		return e.model
	}
	return e.model + "@" + strconv.Itoa(e.dimensions)
}

// Embed generates embeddings for the given texts, batchSize at a time.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for i, t := range texts {
		if t == "" {
			return nil, apperror.Validation("cannot embed empty text at position %d", i)
		}
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dimensions > 0 {
		params.Dimensions = openai.Int(int64(e.dimensions))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperror.Wrap(apperror.KindTimeout, "embedding request timed out", err)
		}
		return nil, apperror.Wrap(apperror.KindEmbeddingUnavailable, "embedding request failed", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, apperror.New(apperror.KindEmbeddingUnavailable,
			fmt.Sprintf("embedding API returned %d vectors for %d inputs", len(resp.Data), len(texts)))
	}

	embeddings := make([][]float32, len(texts))
	for i, data := range resp.Data {
		idx := int(data.Index)
		if idx < 0 || idx >= len(texts) {
			idx = i
		}
		// Convert []float64 to []float32
		vec := make([]float32, len(data.Embedding))
		for j, v := range data.Embedding {
			vec[j] = float32(v)
		}
		knowledge.Normalize(vec)
		embeddings[idx] = vec
	}
	for i, vec := range embeddings {
		if len(vec) == 0 {
			return nil, apperror.New(apperror.KindEmbeddingUnavailable,
				fmt.Sprintf("embedding API returned no vector for input %d", i))
		}
	}

	return embeddings, nil
}
