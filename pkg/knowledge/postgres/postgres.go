package postgres

import (
	"context"
	"fmt"

	"github.com/barekit/kbchat/pkg/consts"
	"github.com/barekit/kbchat/pkg/knowledge"
	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore implements knowledge.VectorStore using pgvector.
type PostgresStore struct {
	db *gorm.DB
}

// ChunkModel is one knowledge-base chunk. ID is the chunk position.
type ChunkModel struct {
	ID        int `gorm:"primaryKey;autoIncrement:false"`
	Text      string
	Title     string
	Tags      []string        `gorm:"serializer:json;type:jsonb"`
	Dates     []string        `gorm:"serializer:json;type:jsonb"`
	Embedding pgvector.Vector `gorm:"type:vector"`
}

func (ChunkModel) TableName() string {
	return consts.ChunkTable
}

type scoredChunk struct {
	ID    int
	Text  string
	Title string
	Tags  []string `gorm:"serializer:json"`
	Dates []string `gorm:"serializer:json"`
	Score float32
}

// New connects to dsn, enables the vector extension and migrates the chunk table.
func New(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	return NewWithDB(db)
}

// NewWithDB uses an existing connection.
func NewWithDB(db *gorm.DB) (*PostgresStore, error) {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return nil, fmt.Errorf("postgres: enable pgvector: %w", err)
	}
	if err := db.AutoMigrate(&ChunkModel{}); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, vectors [][]float32, chunks []knowledge.Chunk) error {
	if len(vectors) != len(chunks) {
		return fmt.Errorf("postgres: upsert: %d vectors for %d chunks", len(vectors), len(chunks))
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, c := range chunks {
			model := ChunkModel{
				ID:        i,
				Text:      c.Text,
				Title:     c.Metadata.Title,
				Tags:      c.Metadata.Tags,
				Dates:     c.Metadata.Dates,
				Embedding: pgvector.NewVector(vectors[i]),
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"text", "title", "tags", "dates", "embedding"}),
			}).Create(&model).Error; err != nil {
				return fmt.Errorf("postgres: upsert chunk %d: %w", i, err)
			}
		}
		// Drop rows left over from a larger knowledge base.
		return tx.Where("id >= ?", len(chunks)).Delete(&ChunkModel{}).Error
	})
}

// Search orders by cosine distance (<=>) and reports 1 - distance as the score.
func (s *PostgresStore) Search(ctx context.Context, query []float32, limit int) ([]knowledge.Match, error) {
	vec := pgvector.NewVector(query)

	var rows []scoredChunk
	err := s.db.WithContext(ctx).
		Model(&ChunkModel{}).
		Select("id, text, title, tags, dates, 1 - (embedding <=> ?) AS score", vec).
		Order(clause.Expr{SQL: "embedding <=> ?", Vars: []interface{}{vec}}).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("postgres: search: %w", err)
	}

	matches := make([]knowledge.Match, len(rows))
	for i, r := range rows {
		matches[i] = knowledge.Match{
			Index: r.ID,
			Chunk: knowledge.Chunk{
				Text:     r.Text,
				Metadata: knowledge.Metadata{Title: r.Title, Tags: r.Tags, Dates: r.Dates},
			},
			Score:      r.Score,
			Similarity: r.Score,
		}
	}
	return matches, nil
}

// Close closes the underlying database connection pool.
func (s *PostgresStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
