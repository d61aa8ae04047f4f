package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/barekit/kbchat/pkg/querylog/record"
	"github.com/redis/go-redis/v9"
)

// RedisLog pushes entries as JSON onto a single list.
type RedisLog struct {
	client *redis.Client
	key    string
}

// New creates a new RedisLog appending to the list at key.
func New(client *redis.Client, key string) *RedisLog {
	return &RedisLog{client: client, key: key}
}

func (l *RedisLog) Append(ctx context.Context, e record.Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}
	return l.client.RPush(ctx, l.key, b).Err()
}

// Recent returns up to n of the newest entries, oldest first.
func (l *RedisLog) Recent(ctx context.Context, n int64) ([]record.Entry, error) {
	result, err := l.client.LRange(ctx, l.key, -n, -1).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]record.Entry, len(result))
	for i, item := range result {
		if err := json.Unmarshal([]byte(item), &entries[i]); err != nil {
			return nil, fmt.Errorf("failed to unmarshal entry at index %d: %w", i, err)
		}
	}
	return entries, nil
}

func (l *RedisLog) Close(ctx context.Context) error {
	return l.client.Close()
}
