package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-grading/internal/platform/logger"
)

// ErrLockHeld is returned when another worker owns the key.
var ErrLockHeld = errors.New("lock held by another worker")

// Locker is a best-effort cross-process mutex keyed by string.
// The database status guard remains the source of truth; the lock only keeps
// two processes from paying for the same generator call.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// NoopLocker always succeeds.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}

// compare-and-delete so an expired holder cannot release a newer owner's lock.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisLocker struct {
	rdb    goredis.UniversalClient
	prefix string
	log    *logger.Logger
}

func NewLocker(rdb goredis.UniversalClient, prefix string, log *logger.Logger) Locker {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "grading:lock:"
	}
	return &redisLocker{rdb: rdb, prefix: prefix, log: log.With("service", "RedisLocker")}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if l == nil || l.rdb == nil {
		return nil, fmt.Errorf("redis locker not initialized")
	}
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	fullKey := l.prefix + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func(rctx context.Context) error {
		if err := releaseScript.Run(rctx, l.rdb, []string{fullKey}, token).Err(); err != nil && !errors.Is(err, goredis.Nil) {
			l.log.Warn("redis lock release failed", "key", fullKey, "error", err)
			return err
		}
		return nil
	}, nil
}
