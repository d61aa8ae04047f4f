package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/barekit/kbchat/pkg/cache/cachekey"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoCache struct {
	client     *mongo.Client
	collection *mongo.Collection
	ttl        time.Duration
}

type ResponseDoc struct {
	ID        string     `bson:"_id"`
	Query     string     `bson:"query"`
	Answer    string     `bson:"answer"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
	UpdatedAt time.Time  `bson:"updated_at"`
}

// New creates a new MongoCache adapter.
func New(client *mongo.Client, dbName, collectionName string, ttl time.Duration) *MongoCache {
	return &MongoCache{
		client:     client,
		collection: client.Database(dbName).Collection(collectionName),
		ttl:        ttl,
	}
}

func (c *MongoCache) Get(ctx context.Context, query string) (string, bool, error) {
	var doc ResponseDoc
	err := c.collection.FindOne(ctx, bson.M{"_id": cachekey.Hash(query)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if doc.ExpiresAt != nil && time.Now().After(*doc.ExpiresAt) {
		return "", false, nil
	}
	return doc.Answer, true, nil
}

func (c *MongoCache) Set(ctx context.Context, query, answer string) error {
	now := time.Now()
	doc := ResponseDoc{
		ID:        cachekey.Hash(query),
		Query:     query,
		Answer:    answer,
		UpdatedAt: now,
	}
	if c.ttl > 0 {
		exp := now.Add(c.ttl)
		doc.ExpiresAt = &exp
	}

	_, err := c.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (c *MongoCache) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
