package gorm

import (
	"context"
	"fmt"
	"time"

	"github.com/barekit/kbchat/pkg/consts"
	"github.com/barekit/kbchat/pkg/querylog/record"
	"gorm.io/gorm"
)

// Log implements querylog.Logger using GORM.
type Log struct {
	db *gorm.DB
}

// QueryModel represents the database schema for a query log entry.
type QueryModel struct {
	ID            string            `gorm:"primaryKey;size:36"`
	CreatedAt     time.Time         `gorm:"index"`
	Query         string
	Cached        bool
	Chunks        []record.ChunkRef `gorm:"serializer:json;type:text"`
	Context       string
	ContextTokens int
	Answer        string
	ErrorKind     string
	DurationMS    int64
}

// TableName overrides the table name.
func (QueryModel) TableName() string {
	return consts.TableNameQueries
}

// New migrates the schema and creates a new Log.
func New(db *gorm.DB) (*Log, error) {
	if err := db.AutoMigrate(&QueryModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Log{db: db}, nil
}

func (l *Log) Append(ctx context.Context, e record.Entry) error {
	model := QueryModel{
		ID:            e.ID.String(),
		CreatedAt:     e.Timestamp,
		Query:         e.Query,
		Cached:        e.Cached,
		Chunks:        e.Chunks,
		Context:       e.Context,
		ContextTokens: e.ContextTokens,
		Answer:        e.Answer,
		ErrorKind:     e.ErrorKind,
		DurationMS:    e.Duration.Milliseconds(),
	}
	return l.db.WithContext(ctx).Create(&model).Error
}

// Close closes the underlying database connection pool.
func (l *Log) Close(ctx context.Context) error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
