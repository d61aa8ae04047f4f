package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/barekit/kbchat/pkg/cache/cachekey"
	"github.com/barekit/kbchat/pkg/consts"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cache implements cache.Cache using GORM.
type Cache struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// ResponseModel represents the database schema for a cached answer.
type ResponseModel struct {
	QueryHash string `gorm:"primaryKey;size:64"`
	Query     string
	Answer    string
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName overrides the table name.
func (ResponseModel) TableName() string {
	return consts.TableNameResponses
}

// New migrates the schema and creates a new Cache.
func New(db *gorm.DB, ttl time.Duration) (*Cache, error) {
	if err := db.AutoMigrate(&ResponseModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Cache{db: db, ttl: ttl, now: time.Now}, nil
}

func (c *Cache) Get(ctx context.Context, query string) (string, bool, error) {
	var model ResponseModel
	err := c.db.WithContext(ctx).Where(consts.ColQueryHash+" = ?", cachekey.Hash(query)).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if model.ExpiresAt != nil && c.now().After(*model.ExpiresAt) {
		return "", false, nil
	}
	return model.Answer, true, nil
}

// Set upserts the row for query.
func (c *Cache) Set(ctx context.Context, query, answer string) error {
	model := ResponseModel{
		QueryHash: cachekey.Hash(query),
		Query:     query,
		Answer:    answer,
	}
	if c.ttl > 0 {
		exp := c.now().Add(c.ttl)
		model.ExpiresAt = &exp
	}

	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: consts.ColQueryHash}},
		DoUpdates: clause.AssignmentColumns([]string{consts.ColQuery, consts.ColAnswer, consts.ColExpiresAt, consts.ColUpdatedAt}),
	}).Create(&model).Error
}

// Close closes the underlying database connection pool.
func (c *Cache) Close(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
