package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/gitmaxer/gitmaxer-bot/pkg/logger"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	DefaultKey = "gitmaxer:tick"
	DefaultTTL = 10 * time.Minute

	releaseTimeout = 5 * time.Second
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker holds a single expiring key for the duration of a tick. The
// key expires on its own if the holder dies.
type RedisLocker struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, key string, ttl time.Duration) *RedisLocker {
	if key == "" {
		key = DefaultKey
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{rdb: rdb, key: key, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{l.key}, token).Err(); err != nil {
			logger.Error("failed to release tick lock", "key", l.key, "error", err)
		}
	}
	return release, true, nil
}

// NopLocker always grants the lock.
type NopLocker struct{}

func (NopLocker) Acquire(context.Context) (func(), bool, error) {
	return func() {}, true, nil
}
