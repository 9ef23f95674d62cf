package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries our token, so an
// expired lock taken over by another replica is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker shares locks between portal replicas. Keys are namespaced
// under prefix.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

type redisLock struct {
	client *redis.Client
	key    string
	token  string
}

// NewRedisClient opens the client used for both the fetch cache and locks.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: client, prefix: "portal:"}
}

func (r *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Lock, bool, error) {
	token, err := lockToken()
	if err != nil {
		return nil, false, err
	}
	key = r.prefix + key
	acquired, err := r.client.SetNX(ctx, key, token, ttl).Result()
	switch {
	case err != nil:
		return nil, false, fmt.Errorf("lock %s: %w", key, err)
	case !acquired:
		return nil, false, nil
	}
	return &redisLock{client: r.client, key: key, token: token}, true, nil
}

func (l *redisLock) Unlock(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}

func lockToken() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf[:]), nil
}
