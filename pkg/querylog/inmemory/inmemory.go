package inmemory

import (
	"context"
	"sync"

	"github.com/barekit/kbchat/pkg/querylog/record"
)

// InMemory implements querylog.Logger using a slice.
type InMemory struct {
	mu      sync.RWMutex
	entries []record.Entry
}

// New creates a new InMemory adapter.
func New() *InMemory {
	return &InMemory{}
}

func (l *InMemory) Append(ctx context.Context, e record.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, e)
	return nil
}

// Entries returns a copy of every appended entry.
func (l *InMemory) Entries() []record.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]record.Entry, len(l.entries))
	copy(result, l.entries)
	return result
}
