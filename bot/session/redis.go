package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const backendRedis = "redis"

// RedisStore keeps each session as a JSON string under session:<key>.
type RedisStore struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

// NewRedisStore wraps rdb. A zero ttl keeps sessions forever; otherwise every
// save refreshes the expiry.
func NewRedisStore(rdb redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func redisKey(key string) string { return "session:" + key }

func (r *RedisStore) Load(ctx context.Context, key string) (Session, error) {
	k := redisKey(key)
	raw, err := r.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		def, encErr := encode(Default())
		if encErr != nil {
			return Session{}, storeErr(backendRedis, "load", encErr)
		}
		created, setErr := r.rdb.SetNX(ctx, k, def, r.ttl).Result()
		if setErr != nil {
			return Session{}, storeErr(backendRedis, "load", setErr)
		}
		if created {
			return Default(), nil
		}
		// another writer created it first
		raw, err = r.rdb.Get(ctx, k).Bytes()
	}
	if err != nil {
		return Session{}, storeErr(backendRedis, "load", err)
	}
	s, err := decode(ctx, backendRedis, raw)
	if err != nil {
		return Session{}, storeErr(backendRedis, "load", err)
	}
	return s, nil
}

func (r *RedisStore) Save(ctx context.Context, key string, s Session) error {
	data, err := encode(s)
	if err != nil {
		return storeErr(backendRedis, "save", err)
	}
	if err := r.rdb.Set(ctx, redisKey(key), data, r.ttl).Err(); err != nil {
		return storeErr(backendRedis, "save", err)
	}
	return nil
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return storeErr(backendRedis, "ping", err)
	}
	return nil
}
