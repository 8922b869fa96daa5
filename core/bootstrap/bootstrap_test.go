package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/onboardbot/core/config"
)

func noLogger(*coreconfig.Config) error { return nil }

func TestRunMemoryStoreSkipsBackends(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Session.Store = coreconfig.StoreMemory
	cfg.Session.Lock = coreconfig.LockLocal

	res, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		Connect: func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error) {
			t.Fatal("database must not be opened for the memory store")
			return nil, nil
		},
		ConnectRedis: func(context.Context, coreconfig.RedisConfig) (*redis.Client, error) {
			t.Fatal("redis must not be opened for a local lock")
			return nil, nil
		},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.DB != nil || res.Redis != nil {
		t.Fatalf("unexpected backends: %+v", res)
	}
	if err := res.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunPropagatesRedisFailure(t *testing.T) {
	cfg := &coreconfig.Config{}
	cfg.Session.Store = coreconfig.StoreRedis
	cfg.Session.Lock = coreconfig.LockRedis
	boom := errors.New("refused")

	_, err := Run(context.Background(), Options{
		Config:     cfg,
		LoggerInit: noLogger,
		ConnectRedis: func(context.Context, coreconfig.RedisConfig) (*redis.Client, error) {
			return nil, boom
		},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
}

func TestRunNilConfig(t *testing.T) {
	if _, err := Run(context.Background(), Options{}); err == nil {
		t.Fatal("expected error for nil config")
	}
}
