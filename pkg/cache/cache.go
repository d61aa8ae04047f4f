package cache

import (
	"context"
)

// Cache stores generated answers keyed by the query text. Set is an atomic
// per-key upsert; concurrent writers of the same key are last-writer-wins.
type Cache interface {
	// Get returns the cached answer for query. ok is false on a miss or an expired entry.
	Get(ctx context.Context, query string) (answer string, ok bool, err error)
	// Set stores answer for query, replacing any previous entry.
	Set(ctx context.Context, query, answer string) error
}

// Closer is implemented by backends that hold connections or file handles.
type Closer interface {
	Close(ctx context.Context) error
}

// Close releases c's resources if it holds any.
func Close(ctx context.Context, c Cache) error {
	if cl, ok := c.(Closer); ok {
		return cl.Close(ctx)
	}
	return nil
}

// Nop never hits and discards writes.
type Nop struct{}

func (Nop) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (Nop) Set(context.Context, string, string) error { return nil }
