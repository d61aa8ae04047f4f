package querylog

import (
	"context"

	"github.com/barekit/kbchat/pkg/querylog/record"
)

type (
	Entry    = record.Entry
	ChunkRef = record.ChunkRef
)

// NewEntry starts an entry for query with a fresh ID and timestamp.
func NewEntry(query string) Entry {
	return record.New(query)
}

// Logger appends query log entries. Callers treat errors as non-fatal.
type Logger interface {
	Append(ctx context.Context, e Entry) error
}

// Closer is implemented by backends that hold connections or file handles.
type Closer interface {
	Close(ctx context.Context) error
}

// Close releases l's resources if it holds any.
func Close(ctx context.Context, l Logger) error {
	if cl, ok := l.(Closer); ok {
		return cl.Close(ctx)
	}
	return nil
}

// Nop discards entries.
type Nop struct{}

func (Nop) Append(context.Context, Entry) error { return nil }
