package snapshot

import (
	"context"

	"github.com/barekit/kbchat/pkg/apperror"
	"github.com/barekit/kbchat/pkg/knowledge"
)

// Store implements knowledge.VectorStore over a snapshot file with a linear
// scan. The file is read lazily on the first Search.
type Store struct {
	loader *Loader
	path   string
	model  string
}

// NewStore creates a Store reading and writing the snapshot at path.
func NewStore(path string, opts ...LoaderOption) *Store {
	l := NewLoader(path, opts...)
	return &Store{loader: l, path: path, model: l.model}
}

// Upsert replaces the snapshot with chunks and vectors and persists it.
func (s *Store) Upsert(ctx context.Context, vectors [][]float32, chunks []knowledge.Chunk) error {
	snap, err := New(chunks, vectors, s.model)
	if err != nil {
		return err
	}
	if err := Write(s.path, snap); err != nil {
		return err
	}
	s.loader.Replace(snap)
	return nil
}

// Search ranks every chunk of the snapshot against query.
func (s *Store) Search(ctx context.Context, query []float32, limit int) ([]knowledge.Match, error) {
	snap, err := s.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(snap.Embeddings) > 0 && len(snap.Embeddings[0]) != len(query) {
		return nil, apperror.Configuration("query embedding has dimension %d but the knowledge base uses %d",
			len(query), len(snap.Embeddings[0]))
	}
	return knowledge.Retrieve(query, snap.Chunks, snap.Embeddings, limit), nil
}

// Len reports the number of chunks, loading the snapshot if needed.
func (s *Store) Len(ctx context.Context) (int, error) {
	snap, err := s.loader.Load(ctx)
	if err != nil {
		return 0, err
	}
	return len(snap.Chunks), nil
}
