package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/barekit/kbchat/pkg/apperror"
	"github.com/joho/godotenv"
)

// Config holds every setting of the serving and preprocessing binaries.
type Config struct {
	Addr     string
	LogLevel slog.Level

	LLMAPIKey      string
	LLMBaseURL     string
	LLMModel       string
	LLMTemperature float64
	SiteURL        string
	SiteName       string

	EmbeddingAPIKey     string
	EmbeddingBaseURL    string
	EmbeddingModel      string
	EmbeddingDimensions int
	EmbeddingBatchSize  int

	KnowledgeBasePath string
	SnapshotPath      string

	VectorStore      string
	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
	PostgresDSN      string

	CacheType string
	CacheDSN  string
	CacheTTL  time.Duration

	QueryLogType string
	QueryLogDSN  string

	StoreUsername string
	StorePassword string
	StoreDBName   string

	TopK             int
	CandidateK       int
	RerankWeight     float64
	MaxContextTokens int
	TokenFactor      float64
	RequestTimeout   time.Duration
}

// Load reads a .env file if present and then the process environment.
// Missing credentials and malformed values are configuration errors.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	cfg := &Config{
		Addr: r.str("ADDR", ":8080"),

		LLMAPIKey:      r.str("LLM_API_KEY", getenv("OPENROUTER_API_KEY")),
		LLMBaseURL:     r.str("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
		LLMModel:       r.str("LLM_MODEL", "deepseek/deepseek-chat-v3-0324:free"),
		LLMTemperature: r.float("LLM_TEMPERATURE", 0.3),
		SiteURL:        r.str("SITE_URL", "http://localhost:8888"),
		SiteName:       r.str("SITE_NAME", "Portfolio Assistant"),

		EmbeddingAPIKey:     r.str("EMBEDDING_API_KEY", getenv("OPENAI_API_KEY")),
		EmbeddingBaseURL:    r.str("EMBEDDING_BASE_URL", "https://api.openai.com/v1"),
		EmbeddingModel:      r.str("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDimensions: r.int("EMBEDDING_DIMENSIONS", 384),
		EmbeddingBatchSize:  r.int("EMBEDDING_BATCH_SIZE", 5),

		KnowledgeBasePath: r.str("KNOWLEDGE_BASE_PATH", "data/knowledge_base.txt"),
		SnapshotPath:      r.str("SNAPSHOT_PATH", "data/embeddings.json"),

		VectorStore:      r.str("VECTOR_STORE", "memory"),
		QdrantHost:       r.str("QDRANT_HOST", "localhost"),
		QdrantPort:       r.int("QDRANT_PORT", 6334),
		QdrantCollection: r.str("QDRANT_COLLECTION", "kbchat_chunks"),
		PostgresDSN:      r.str("POSTGRES_DSN", ""),

		CacheType: r.str("CACHE_TYPE", "file"),
		CacheDSN:  r.str("CACHE_DSN", "data/response_cache.json"),
		CacheTTL:  r.duration("CACHE_TTL", 0),

		QueryLogType: r.str("QUERY_LOG_TYPE", "file"),
		QueryLogDSN:  r.str("QUERY_LOG_DSN", "data/query_log.jsonl"),

		StoreUsername: r.str("NEO4J_USERNAME", ""),
		StorePassword: r.str("NEO4J_PASSWORD", ""),
		StoreDBName:   r.str("STORE_DB_NAME", ""),

		TopK:             r.int("TOP_K", 4),
		CandidateK:       r.int("CANDIDATE_K", 8),
		RerankWeight:     r.float("RERANK_WEIGHT", 0.1),
		MaxContextTokens: r.int("MAX_CONTEXT_TOKENS", 1500),
		TokenFactor:      r.float("TOKEN_FACTOR", 1.3),
		RequestTimeout:   r.duration("REQUEST_TIMEOUT", 25*time.Second),
	}
	cfg.LogLevel = r.level("LOG_LEVEL", slog.LevelInfo)

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.TopK <= 0:
		return apperror.Configuration("TOP_K must be positive")
	case c.CandidateK < c.TopK:
		return apperror.Configuration("CANDIDATE_K must be at least TOP_K")
	case c.MaxContextTokens <= 0:
		return apperror.Configuration("MAX_CONTEXT_TOKENS must be positive")
	case c.TokenFactor <= 0:
		return apperror.Configuration("TOKEN_FACTOR must be positive")
	case c.EmbeddingBatchSize <= 0:
		return apperror.Configuration("EMBEDDING_BATCH_SIZE must be positive")
	case c.RequestTimeout <= 0:
		return apperror.Configuration("REQUEST_TIMEOUT must be positive")
	case c.VectorStore == "postgres" && c.PostgresDSN == "":
		return apperror.Configuration("POSTGRES_DSN is required when VECTOR_STORE=postgres")
	}
	return nil
}

// RequireLLM fails when the chat-completion credentials are absent.
func (c *Config) RequireLLM() error {
	if c.LLMAPIKey == "" {
		return apperror.Configuration("LLM_API_KEY (or OPENROUTER_API_KEY) environment variable not set")
	}
	return nil
}

// RequireEmbedding fails when the embedding credentials are absent.
func (c *Config) RequireEmbedding() error {
	if c.EmbeddingAPIKey == "" {
		return apperror.Configuration("EMBEDDING_API_KEY (or OPENAI_API_KEY) environment variable not set")
	}
	return nil
}

// reader keeps the first parse error so Load can report it.
type reader struct {
	getenv func(string) string
	err    error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) int(key string, def int) int {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(key, v)
		return def
	}
	return n
}

func (r *reader) float(key string, def float64) float64 {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.fail(key, v)
		return def
	}
	return f
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.fail(key, v)
		return def
	}
	return d
}

func (r *reader) level(key string, def slog.Level) slog.Level {
	v := strings.TrimSpace(r.getenv(key))
	if v == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(v)); err != nil {
		r.fail(key, v)
		return def
	}
	return lvl
}

func (r *reader) fail(key, value string) {
	if r.err == nil {
		r.err = apperror.Configuration("invalid value %q for %s", value, key)
	}
}
