package redis

import (
	"context"
	"errors"
	"time"

	"github.com/barekit/kbchat/pkg/cache/cachekey"
	"github.com/barekit/kbchat/pkg/consts"
	"github.com/redis/go-redis/v9"
)

// RedisCache stores each answer under "kbchat:response:{sha256(query)}".
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a new RedisCache. A zero ttl keeps entries forever.
func New(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, query string) (string, bool, error) {
	answer, err := c.client.Get(ctx, key(query)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return answer, true, nil
}

func (c *RedisCache) Set(ctx context.Context, query, answer string) error {
	return c.client.Set(ctx, key(query), answer, c.ttl).Err()
}

func key(query string) string {
	return consts.KeyPrefixResponse + cachekey.Hash(query)
}

func (c *RedisCache) Close(ctx context.Context) error {
	return c.client.Close()
}
