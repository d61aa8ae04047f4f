// Package bolt stores cached answers in an embedded bbolt database.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

var bucketResponses = []byte("responses")

type entry struct {
	Answer    string    `json:"answer"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// BoltCache upserts each key in its own write transaction.
type BoltCache struct {
	db  *bbolt.DB
	ttl time.Duration
	now func() time.Time
}

// New opens (or creates) the database at path.
func New(path string, ttl time.Duration) (*BoltCache, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketResponses)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltCache{db: db, ttl: ttl, now: time.Now}, nil
}

func (c *BoltCache) Get(ctx context.Context, query string) (string, bool, error) {
	var e entry
	var found bool
	err := c.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketResponses).Get([]byte(query))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &e)
	})
	if err != nil {
		return "", false, err
	}
	if !found || (!e.ExpiresAt.IsZero() && c.now().After(e.ExpiresAt)) {
		return "", false, nil
	}
	return e.Answer, true, nil
}

func (c *BoltCache) Set(ctx context.Context, query, answer string) error {
	e := entry{Answer: answer}
	if c.ttl > 0 {
		e.ExpiresAt = c.now().Add(c.ttl)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketResponses).Put([]byte(query), data)
	})
}

func (c *BoltCache) Close(ctx context.Context) error {
	return c.db.Close()
}
