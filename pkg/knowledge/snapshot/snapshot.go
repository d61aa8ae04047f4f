// Package snapshot persists the paired chunk and embedding arrays of a
// knowledge base and serves them to the query path.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/barekit/kbchat/pkg/apperror"
	"github.com/barekit/kbchat/pkg/knowledge"
)

// Snapshot is the on-disk form {chunks, embeddings}. Model and Dimension are
// optional; older snapshots omit them.
type Snapshot struct {
	Chunks     []knowledge.Chunk `json:"chunks"`
	Embeddings [][]float32       `json:"embeddings"`
	Model      string            `json:"model,omitempty"`
	Dimension  int               `json:"dimension,omitempty"`
}

// New pairs chunks with their vectors and records the embedding model.
func New(chunks []knowledge.Chunk, embeddings [][]float32, model string) (*Snapshot, error) {
	s := &Snapshot{Chunks: chunks, Embeddings: embeddings, Model: model}
	if len(embeddings) > 0 {
		s.Dimension = len(embeddings[0])
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// fileShape mirrors Snapshot with pointer slices so Read can tell a missing
// or null key from an empty array.
type fileShape struct {
	Chunks     *[]knowledge.Chunk `json:"chunks"`
	Embeddings *[][]float32       `json:"embeddings"`
	Model      string             `json:"model"`
	Dimension  int                `json:"dimension"`
}

// Validate checks that the snapshot is non-empty, that every chunk has
// exactly one vector and that all vectors share one dimensionality.
func (s *Snapshot) Validate() error {
	if len(s.Chunks) == 0 {
		return apperror.Configuration("knowledge base snapshot contains no chunks")
	}
	if len(s.Chunks) != len(s.Embeddings) {
		return apperror.Configuration("knowledge base snapshot has %d chunks but %d embeddings",
			len(s.Chunks), len(s.Embeddings))
	}
	dim := s.Dimension
	for i, vec := range s.Embeddings {
		if dim == 0 {
			dim = len(vec)
		}
		if len(vec) == 0 || len(vec) != dim {
			return apperror.Configuration("knowledge base snapshot embedding %d has dimension %d, want %d",
				i, len(vec), dim)
		}
	}
	return nil
}

// Read decodes and validates the snapshot at path. A missing or malformed
// file is a configuration error.
func Read(path string) (*Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperror.Configuration("knowledge base snapshot %s not found; run kbchat-embed first", path)
		}
		return nil, apperror.Wrap(apperror.KindConfiguration, "failed to read knowledge base snapshot", err)
	}

	var f fileShape
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, apperror.Wrap(apperror.KindConfiguration, "knowledge base snapshot is not valid JSON", err)
	}
	switch {
	case f.Chunks == nil:
		return nil, apperror.Configuration("knowledge base snapshot %s has no \"chunks\" array", path)
	case f.Embeddings == nil:
		return nil, apperror.Configuration("knowledge base snapshot %s has no \"embeddings\" array", path)
	}

	s := Snapshot{Chunks: *f.Chunks, Embeddings: *f.Embeddings, Model: f.Model, Dimension: f.Dimension}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Write stores the snapshot at path. The file is replaced atomically.
func Write(path string, s *Snapshot) error {
	if err := s.Validate(); err != nil {
		return err
	}
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	return writeFileAtomic(path, b)
}

func writeFileAtomic(path string, b []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}
