package rag

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/barekit/kbchat/pkg/apperror"
	"github.com/barekit/kbchat/pkg/cache"
	"github.com/barekit/kbchat/pkg/knowledge"
	"github.com/barekit/kbchat/pkg/querylog"
)

const (
	DefaultTopK         = 4
	DefaultCandidateK   = 8
	DefaultRerankWeight = 0.1
)

// Pipeline answers one query: cache check, embed, retrieve, rerank, assemble,
// generate, cache write, log. Any failing stage ends the request with a typed
// error; nothing is retried.
type Pipeline struct {
	knowledge    *knowledge.KnowledgeBase
	generator    *Generator
	assembler    *Assembler
	cache        cache.Cache
	queryLog     querylog.Logger
	logger       *slog.Logger
	topK         int
	candidateK   int
	rerankWeight float64
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithTopK sets how many chunks reach the context.
func WithTopK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithCandidateK sets how many chunks are retrieved before reranking.
func WithCandidateK(k int) Option {
	return func(p *Pipeline) {
		if k > 0 {
			p.candidateK = k
		}
	}
}

// WithRerankWeight sets the keyword-overlap weight. Zero disables reranking.
func WithRerankWeight(w float64) Option {
	return func(p *Pipeline) {
		if w >= 0 {
			p.rerankWeight = w
		}
	}
}

// WithAssembler replaces the default context assembler.
func WithAssembler(a *Assembler) Option {
	return func(p *Pipeline) {
		if a != nil {
			p.assembler = a
		}
	}
}

// WithCache sets the response cache.
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) {
		if c != nil {
			p.cache = c
		}
	}
}

// WithQueryLog sets the query logger.
func WithQueryLog(l querylog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.queryLog = l
		}
	}
}

// NewPipeline creates a Pipeline over kb and generator. Without options it
// neither caches nor logs queries.
func NewPipeline(kb *knowledge.KnowledgeBase, generator *Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		knowledge:    kb,
		generator:    generator,
		assembler:    NewAssembler(NewTokenEstimator(DefaultTokenFactor), DefaultMaxContextTokens),
		cache:        cache.Nop{},
		queryLog:     querylog.Nop{},
		logger:       slog.Default(),
		topK:         DefaultTopK,
		candidateK:   DefaultCandidateK,
		rerankWeight: DefaultRerankWeight,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.candidateK < p.topK {
		p.candidateK = p.topK
	}
	return p
}

// Result is the outcome of one answered query.
type Result struct {
	Answer  string
	Cached  bool
	Matches []knowledge.Match
	Context Assembled
}

// Answer runs the pipeline for query. Blank queries are rejected; otherwise
// the query is used as given, so the cache is keyed by its exact text.
func (p *Pipeline) Answer(ctx context.Context, query string) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperror.Validation("query is required")
	}

	entry := querylog.NewEntry(query)
	start := time.Now()
	res, err := p.answer(ctx, query)
	entry.Duration = time.Since(start)

	if err != nil {
		entry.ErrorKind = string(apperror.KindOf(err))
		p.logger.Error("query failed",
			"kind", apperror.KindOf(err),
			"upstream_status", apperror.UpstreamStatusOf(err),
			"query_len", len(query),
			"error", err)
	} else {
		entry.Cached = res.Cached
		entry.Answer = res.Answer
		entry.Context = res.Context.Text
		entry.ContextTokens = res.Context.Tokens
		for _, m := range res.Context.Used {
			entry.Chunks = append(entry.Chunks, querylog.ChunkRef{Index: m.Index, Title: m.Chunk.Metadata.Title, Score: m.Score})
		}
	}
	p.appendLog(entry)

	return res, err
}

func (p *Pipeline) answer(ctx context.Context, query string) (*Result, error) {
	p.logger.Debug("cache check", "query_len", len(query))
	if answer, ok, err := p.cache.Get(ctx, query); err != nil {
		p.logger.Warn("cache read failed", "error", err)
	} else if ok {
		p.logger.Debug("cache hit")
		return &Result{Answer: answer, Cached: true}, nil
	}

	p.logger.Debug("embed")
	vec, err := p.knowledge.EmbedQuery(ctx, query)
	if err != nil {
		return nil, classify(ctx, err, apperror.KindEmbeddingUnavailable, "failed to embed query")
	}

	p.logger.Debug("retrieve", "candidates", p.candidateK)
	matches, err := p.knowledge.VectorStore.Search(ctx, vec, p.candidateK)
	if err != nil {
		return nil, classify(ctx, err, apperror.KindInternal, "vector search failed")
	}

	if p.rerankWeight > 0 {
		p.logger.Debug("rerank", "weight", p.rerankWeight)
		matches = knowledge.Rerank(matches, query, p.rerankWeight, p.topK)
	} else if len(matches) > p.topK {
		matches = matches[:p.topK]
	}

	assembled := p.assembler.Assemble(matches)
	p.logger.Debug("context assembled", "chunks", len(assembled.Used), "tokens", assembled.Tokens)

	answer, err := p.generator.Generate(ctx, query, assembled.Text)
	if err != nil {
		return nil, classify(ctx, err, apperror.KindUpstreamLLM, "answer generation failed")
	}

	if IsPlaceholder(answer) {
		p.logger.Debug("placeholder answer not cached")
	} else if err := p.cache.Set(ctx, query, answer); err != nil {
		p.logger.Warn("cache write failed", "error", err)
	}

	return &Result{Answer: answer, Matches: matches, Context: assembled}, nil
}

// appendLog never fails the request. It runs on a fresh context so entries for
// timed-out requests are still written.
func (p *Pipeline) appendLog(e querylog.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.queryLog.Append(ctx, e); err != nil {
		p.logger.Warn("query log append failed", "error", err)
	}
}

// classify keeps typed errors, maps an expired deadline to a timeout and
// wraps anything else as kind.
func classify(ctx context.Context, err error, kind apperror.Kind, message string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		if apperror.Is(err, apperror.KindTimeout) {
			return err
		}
		return apperror.Wrap(apperror.KindTimeout, "request timed out", err)
	}
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperror.Wrap(kind, message, err)
}
