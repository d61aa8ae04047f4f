// Package store selects the VectorStore serving retrieval.
package store

import (
	"context"
	"fmt"

	"github.com/barekit/kbchat/pkg/apperror"
	"github.com/barekit/kbchat/pkg/knowledge"
	"github.com/barekit/kbchat/pkg/knowledge/postgres"
	"github.com/barekit/kbchat/pkg/knowledge/qdrant"
	"github.com/barekit/kbchat/pkg/knowledge/snapshot"
)

type Type string

const (
	// TypeMemory scans the snapshot file in process.
	TypeMemory   Type = "memory"
	TypeQdrant   Type = "qdrant"
	TypePostgres Type = "postgres"
)

// Config holds configuration for vector store adapters.
type Config struct {
	Type Type
	// SnapshotPath and Model configure TypeMemory.
	SnapshotPath string
	Model        string

	QdrantHost       string
	QdrantPort       int
	QdrantCollection string
	Dimensions       int

	PostgresDSN string
}

// New creates a vector store based on the configuration. The memory store
// defers reading its file to the first search.
func New(ctx context.Context, cfg Config) (knowledge.VectorStore, error) {
	switch cfg.Type {
	case TypeMemory, "":
		return snapshot.NewStore(cfg.SnapshotPath, snapshot.WithExpectedModel(cfg.Model)), nil

	case TypeQdrant:
		if cfg.Dimensions <= 0 {
			return nil, apperror.Configuration("qdrant store needs a positive vector dimension")
		}
		s, err := qdrant.New(ctx, cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection, uint64(cfg.Dimensions))
		if err != nil {
			return nil, apperror.Wrap(apperror.KindConfiguration, "failed to initialize qdrant store", err)
		}
		return s, nil

	case TypePostgres:
		s, err := postgres.New(cfg.PostgresDSN)
		if err != nil {
			return nil, apperror.Wrap(apperror.KindConfiguration, "failed to initialize postgres store", err)
		}
		return s, nil

	default:
		return nil, apperror.Configuration("unsupported vector store type: %s", cfg.Type)
	}
}

// Close releases the store's connection if it holds one.
func Close(ctx context.Context, s knowledge.VectorStore) error {
	if cl, ok := s.(interface{ Close(context.Context) error }); ok {
		return cl.Close(ctx)
	}
	return nil
}

// Describe names the store for logs.
func Describe(cfg Config) string {
	switch cfg.Type {
	case TypeQdrant:
		return fmt.Sprintf("qdrant %s:%d/%s", cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection)
	case TypePostgres:
		return "postgres"
	default:
		return "memory " + cfg.SnapshotPath
	}
}
