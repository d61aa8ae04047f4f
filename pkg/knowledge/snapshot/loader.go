package snapshot

import (
	"context"
	"sync"

	"github.com/barekit/kbchat/pkg/apperror"
	"golang.org/x/sync/singleflight"
)

// Loader loads a snapshot once and memoizes it for the process lifetime.
// Concurrent callers during the first load share one read. Failed loads are
// not memoized, so a later call retries after the file appears.
type Loader struct {
	path  string
	model string
	read  func(path string) (*Snapshot, error)

	group singleflight.Group
	mu    sync.RWMutex
	snap  *Snapshot
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithExpectedModel rejects snapshots built with a different embedding model.
// Snapshots that do not record a model are accepted.
func WithExpectedModel(model string) LoaderOption {
	return func(l *Loader) {
		l.model = model
	}
}

// WithReadFunc replaces the file reader.
func WithReadFunc(read func(path string) (*Snapshot, error)) LoaderOption {
	return func(l *Loader) {
		l.read = read
	}
}

// NewLoader creates a Loader for the snapshot at path.
func NewLoader(path string, opts ...LoaderOption) *Loader {
	l := &Loader{path: path, read: Read}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the memoized snapshot, reading it on first use.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	if s := l.cached(); s != nil {
		return s, nil
	}

	ch := l.group.DoChan(l.path, func() (any, error) {
		if s := l.cached(); s != nil {
			return s, nil
		}
		s, err := l.read(l.path)
		if err != nil {
			return nil, err
		}
		if l.model != "" && s.Model != "" && s.Model != l.model {
			return nil, apperror.Configuration("knowledge base snapshot was built with %s but the embedder uses %s",
				s.Model, l.model)
		}
		l.set(s)
		return s, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Replace installs s as the memoized snapshot.
func (l *Loader) Replace(s *Snapshot) {
	l.set(s)
}

func (l *Loader) cached() *Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

func (l *Loader) set(s *Snapshot) {
	l.mu.Lock()
	l.snap = s
	l.mu.Unlock()
}
