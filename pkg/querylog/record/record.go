// Package record defines the query log entry shared by every backend.
package record

import (
	"time"

	"github.com/google/uuid"
)

// ChunkRef identifies one chunk that went into the context.
type ChunkRef struct {
	Index int     `json:"index" bson:"index"`
	Title string  `json:"title,omitempty" bson:"title,omitempty"`
	Score float32 `json:"score" bson:"score"`
}

// Entry records what context produced what answer for one request.
type Entry struct {
	ID            uuid.UUID     `json:"id" bson:"-"`
	Timestamp     time.Time     `json:"timestamp" bson:"timestamp"`
	Query         string        `json:"query" bson:"query"`
	Cached        bool          `json:"cached" bson:"cached"`
	Chunks        []ChunkRef    `json:"chunks,omitempty" bson:"chunks,omitempty"`
	Context       string        `json:"context,omitempty" bson:"context,omitempty"`
	ContextTokens int           `json:"context_tokens,omitempty" bson:"context_tokens,omitempty"`
	Answer        string        `json:"answer,omitempty" bson:"answer,omitempty"`
	ErrorKind     string        `json:"error_kind,omitempty" bson:"error_kind,omitempty"`
	Duration      time.Duration `json:"duration_ns" bson:"duration_ns"`
}

// New starts an entry for query with a fresh ID and timestamp.
func New(query string) Entry {
	return Entry{ID: uuid.New(), Timestamp: time.Now().UTC(), Query: query}
}
