package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	coreconfig "github.com/m3rciful/onboardbot/core/config"
	coredatabase "github.com/m3rciful/onboardbot/core/database"
	"github.com/m3rciful/onboardbot/core/logger"
)

// Options control the bootstrap pipeline. Nil hooks fall back to the real implementations.
type Options struct {
	Config *coreconfig.Config

	LoggerInit   func(*coreconfig.Config) error
	Connect      func(context.Context, coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate      func(context.Context, coreconfig.DatabaseConfig) error
	ConnectRedis func(context.Context, coreconfig.RedisConfig) (*redis.Client, error)
}

// Result exposes the infrastructure the session layer needs. Fields are nil
// when the configured backends do not use them.
type Result struct {
	DB    *sqlx.DB
	Redis *redis.Client
}

// Close releases every opened connection.
func (r *Result) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.DB != nil {
		errs = append(errs, r.DB.Close())
	}
	if r.Redis != nil {
		errs = append(errs, r.Redis.Close())
	}
	return errors.Join(errs...)
}

// Run initializes the logger and then whatever storage the session config selects.
func Run(ctx context.Context, opts Options) (*Result, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	res := &Result{}
	if cfg.Session.Store == coreconfig.StorePostgres {
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}
		res.DB = db

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(ctx, cfg.Database); err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}
	}

	if cfg.UsesRedis() {
		connectRedis := opts.ConnectRedis
		if connectRedis == nil {
			connectRedis = ConnectRedis
		}
		rdb, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			_ = res.Close()
			return nil, fmt.Errorf("bootstrap: redis initialization failed: %w", err)
		}
		res.Redis = rdb
	}
	return res, nil
}

// ConnectRedis opens a client and verifies it with PING.
func ConnectRedis(ctx context.Context, cfg coreconfig.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	start := time.Now()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		logger.Session.Error("redis connect failed",
			slog.String("event", "redis.connect"),
			slog.String("host", cfg.Addr),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Session.Info("redis connected",
		slog.String("event", "redis.connect"),
		slog.String("host", cfg.Addr),
		slog.Int("db", cfg.DB),
		slog.Duration("duration", logger.Took(start)),
	)
	return rdb, nil
}
