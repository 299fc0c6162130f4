package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Locker grants a lease on key for ttl to one caller across replicas.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type RedisLocker struct {
	rdb    redis.Cmdable
	prefix string
}

func NewRedisLocker(rdb redis.Cmdable, prefix string) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: prefix}
}

// TryLock never releases early; the lease expires with ttl so a replica that
// dies mid-run does not block the next attempt forever.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.rdb.SetNX(ctx, l.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
}

// LocalLocker is used when no Redis is configured: a single replica owns
// every lease.
type LocalLocker struct{}

func (LocalLocker) TryLock(context.Context, string, time.Duration) (bool, error) { return true, nil }
