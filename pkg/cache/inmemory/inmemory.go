package inmemory

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	answer    string
	expiresAt time.Time
}

// InMemory implements cache.Cache using a map.
type InMemory struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a new InMemory cache. A zero ttl keeps entries forever.
func New(ttl time.Duration) *InMemory {
	return &InMemory{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *InMemory) Get(ctx context.Context, query string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[query]
	if !ok || (!e.expiresAt.IsZero() && c.now().After(e.expiresAt)) {
		return "", false, nil
	}
	return e.answer, true, nil
}

func (c *InMemory) Set(ctx context.Context, query, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := entry{answer: answer}
	if c.ttl > 0 {
		e.expiresAt = c.now().Add(c.ttl)
	}
	c.entries[query] = e
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *InMemory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
