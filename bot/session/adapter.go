package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/m3rciful/onboardbot/core/logger"
	"github.com/m3rciful/onboardbot/core/metrics"
)

// UpdateFunc computes the next session. Returning an error aborts the cycle
// without saving.
type UpdateFunc func(ctx context.Context, cur Session) (Session, error)

// Adapter runs lock → load → fn → save → unlock for one key at a time.
type Adapter struct {
	store    Store
	locker   Locker
	lockName string
	lockWait time.Duration
}

// AdapterOptions configure NewAdapter.
type AdapterOptions struct {
	// Locker defaults to an in-process KeyedMutex.
	Locker Locker
	// LockName labels lock-wait metrics.
	LockName string
	// LockWait bounds the wait for a busy key; zero waits as long as ctx allows.
	LockWait time.Duration
}

// NewAdapter wraps store with per-key serialization.
func NewAdapter(store Store, opts AdapterOptions) *Adapter {
	if opts.Locker == nil {
		opts.Locker = NewKeyedMutex()
		opts.LockName = "local"
	}
	if opts.LockName == "" {
		opts.LockName = "custom"
	}
	return &Adapter{store: store, locker: opts.Locker, lockName: opts.LockName, lockWait: opts.LockWait}
}

// Update applies fn to the session stored under key. Updates for the same key
// never interleave; different keys proceed independently. An unchanged
// session is not written back.
func (a *Adapter) Update(ctx context.Context, key string, fn UpdateFunc) error {
	ctx = logger.WithSessionKey(ctx, key)

	lockCtx := ctx
	if a.lockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, a.lockWait)
		defer cancel()
	}
	start := time.Now()
	unlock, err := a.locker.Lock(lockCtx, key)
	waited := time.Since(start)
	metrics.ObserveLockWait(a.lockName, waited)
	if err != nil {
		logger.LogEvent(ctx, logger.Session, slog.LevelWarn, "session.lock",
			slog.String("status", "fail"),
			slog.String("lock", a.lockName),
			slog.Duration("wait", waited),
			slog.String("err", err.Error()),
		)
		return err
	}
	defer unlock()

	cur, err := a.store.Load(ctx, key)
	if err != nil {
		return a.storeFailed(ctx, "load", err)
	}
	next, err := fn(ctx, cur)
	if err != nil {
		return err
	}
	if next == cur {
		return nil
	}
	if err := a.store.Save(ctx, key, next); err != nil {
		return a.storeFailed(ctx, "save", err)
	}
	return nil
}

// Ping checks the store backend when it supports health checks.
func (a *Adapter) Ping(ctx context.Context) error {
	if p, ok := a.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (a *Adapter) storeFailed(ctx context.Context, op string, err error) error {
	backend := "unknown"
	var se *StoreError
	if errors.As(err, &se) {
		backend = se.Backend
	} else {
		err = storeErr(backend, op, err)
	}
	metrics.IncStoreError(backend, op)
	logger.LogEvent(ctx, logger.Session, slog.LevelError, "session.store",
		slog.String("status", "fail"),
		slog.String("op", op),
		slog.String("store", backend),
		slog.String("err", err.Error()),
		slog.String("err_code", "STORE_UNAVAILABLE"),
	)
	return err
}
