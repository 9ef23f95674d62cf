package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

const fetchKeyPrefix = "fetch:"

// RedisCache shares fetched responses between portal replicas. Keys carry no
// expiry; freshness is decided by the fetcher from FetchedAt.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, url string) (Entry, error) {
	raw, err := c.client.Get(ctx, fetchKeyPrefix+url).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (c *RedisCache) Set(ctx context.Context, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, fetchKeyPrefix+entry.URL, raw, 0).Err()
}

func (c *RedisCache) Delete(ctx context.Context, url string) error {
	return c.client.Del(ctx, fetchKeyPrefix+url).Err()
}
