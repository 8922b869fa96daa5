// Package app assembles the onboarding bot from configuration: storage,
// session serialization, the account client, handlers and the ops listener.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/m3rciful/onboardbot/bot/account"
	"github.com/m3rciful/onboardbot/bot/engine"
	"github.com/m3rciful/onboardbot/bot/handlers"
	"github.com/m3rciful/onboardbot/bot/locale"
	"github.com/m3rciful/onboardbot/bot/session"
	"github.com/m3rciful/onboardbot/core/bootstrap"
	"github.com/m3rciful/onboardbot/core/cmd"
	coreconfig "github.com/m3rciful/onboardbot/core/config"
	"github.com/m3rciful/onboardbot/core/logger"
	"github.com/m3rciful/onboardbot/core/metrics"
	"github.com/m3rciful/onboardbot/core/ops"
	tg "github.com/m3rciful/onboardbot/core/telegram"
	"github.com/m3rciful/onboardbot/core/telegram/sender"
)

const shutdownTimeout = 5 * time.Second

// App is the assembled bot.
type App struct {
	cfg      *coreconfig.Config
	infra    *bootstrap.Result
	sessions *session.Adapter
	handler  *handlers.Handler
	registry *tg.Registry
	ops      *ops.Server
}

// LoadConfig adapts coreconfig.Load to the runner.
func LoadConfig(path string) (cmd.ConfigCarrier, error) {
	return coreconfig.Load(path)
}

// Bootstrap is the runner hook that builds the App with real backends.
func Bootstrap(ctx context.Context, carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	return New(ctx, bootstrap.Options{Config: carrier.CoreConfig()})
}

// New opens the configured backends and wires the bot on top of them.
func New(ctx context.Context, opts bootstrap.Options) (*App, error) {
	infra, err := bootstrap.Run(ctx, opts)
	if err != nil {
		return nil, err
	}
	cfg := opts.Config

	sessions, err := newSessions(cfg, infra)
	if err != nil {
		_ = infra.Close()
		return nil, err
	}

	accounts := account.NewClient(cfg.Account.BaseURL, time.Duration(cfg.Account.TimeoutMS)*time.Millisecond, nil)
	h := handlers.New(
		engine.New(sessions, accounts),
		handlers.NewRenderer(locale.Builtin(), cfg.Forms.BirthdayURL),
	)
	reg := tg.NewRegistry()
	if err := h.Register(reg); err != nil {
		_ = infra.Close()
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}

	metrics.MustRegister(nil)

	return &App{
		cfg:      cfg,
		infra:    infra,
		sessions: sessions,
		handler:  h,
		registry: reg,
	}, nil
}

func newSessions(cfg *coreconfig.Config, infra *bootstrap.Result) (*session.Adapter, error) {
	var store session.Store
	switch cfg.Session.Store {
	case coreconfig.StorePostgres:
		if infra.DB == nil {
			return nil, errors.New("app: postgres store selected but no database connection")
		}
		store = session.NewPostgresStore(infra.DB)
	case coreconfig.StoreRedis:
		if infra.Redis == nil {
			return nil, errors.New("app: redis store selected but no redis connection")
		}
		store = session.NewRedisStore(infra.Redis, time.Duration(cfg.Session.TTLSeconds)*time.Second)
	case coreconfig.StoreMemory:
		logger.Session.Warn("sessions kept in memory; they will not survive a restart",
			slog.String("event", "session.store"),
			slog.String("store", cfg.Session.Store),
		)
		store = session.NewMemoryStore()
	default:
		return nil, fmt.Errorf("app: unknown session store %q", cfg.Session.Store)
	}

	opts := session.AdapterOptions{
		LockWait: time.Duration(cfg.Session.LockWaitMS) * time.Millisecond,
	}
	if cfg.Session.Lock == coreconfig.LockRedis {
		if infra.Redis == nil {
			return nil, errors.New("app: redis lock selected but no redis connection")
		}
		opts.Locker = session.NewRedisLocker(infra.Redis, time.Duration(cfg.Session.LockTTLMS)*time.Millisecond, 0)
		opts.LockName = coreconfig.LockRedis
	}

	logger.Session.Info("sessions configured",
		slog.String("event", "session.config"),
		slog.String("store", cfg.Session.Store),
		slog.String("lock", cfg.Session.Lock),
	)
	return session.NewAdapter(store, opts), nil
}

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (tg.RunOptions, error) {
	return tg.RunOptions{
		Config:            a.cfg,
		Registry:          a.registry,
		DispatcherOptions: sender.Options{MaxRetries: 2},
		Middlewares:       tg.DefaultMiddlewares(a.cfg, nil),
		Routes:            a.handler.Routes(a.registry),
		OnStart:           a.start,
		OnStop:            a.stop,
	}, nil
}

func (a *App) start(_ context.Context, _ tg.Runtime) error {
	if a.cfg.Ops.Listen == "" {
		return nil
	}
	srv, err := ops.Start(ops.Options{
		Listen: a.cfg.Ops.Listen,
		Checks: map[string]ops.Check{"session": a.sessions.Ping},
	})
	if err != nil {
		return fmt.Errorf("app: ops listener: %w", err)
	}
	a.ops = srv
	return nil
}

func (a *App) stop(ctx context.Context, _ tg.Runtime) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	var errs []error
	if a.ops != nil {
		errs = append(errs, a.ops.Shutdown(ctx))
	}
	errs = append(errs, a.infra.Close())
	return errors.Join(errs...)
}
