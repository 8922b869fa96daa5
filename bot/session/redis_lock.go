package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/onboardbot/core/logger"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultLockRetry = 50 * time.Millisecond
)

var luaUnlock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end`)

// RedisLocker serializes a conversation across processes with a SET NX lease.
// The lease must outlive one update cycle including the account call.
type RedisLocker struct {
	rdb   redis.UniversalClient
	ttl   time.Duration
	retry time.Duration
}

// NewRedisLocker builds a locker; zero durations take the defaults.
func NewRedisLocker(rdb redis.UniversalClient, ttl, retry time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if retry <= 0 {
		retry = defaultLockRetry
	}
	return &RedisLocker{rdb: rdb, ttl: ttl, retry: retry}
}

func lockKey(key string) string { return "lock:session:" + key }

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := lockKey(key)
	token := uuid.NewString()
	for {
		ok, err := l.rdb.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
			}
			return nil, storeErr(backendRedis, "lock", err)
		}
		if ok {
			return func() { l.unlock(ctx, k, token) }, nil
		}
		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) unlock(ctx context.Context, k, token string) {
	// the caller's ctx may already be done; release must still reach redis
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := luaUnlock.Run(ctx, l.rdb, []string{k}, token).Err(); err != nil {
		logger.LogEvent(ctx, logger.Session, slog.LevelWarn, "session.unlock",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
	}
}
