package session

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable classifies every backend failure of a Store or Locker.
	ErrStoreUnavailable = errors.New("session store unavailable")
	// ErrLockTimeout means the conversation lock was not acquired in time.
	ErrLockTimeout = errors.New("session lock timeout")
)

// Store loads and saves sessions by conversation key.
type Store interface {
	// Load returns the stored session, durably creating the default one on
	// first contact.
	Load(ctx context.Context, key string) (Session, error)
	// Save overwrites the session for key.
	Save(ctx context.Context, key string, s Session) error
}

// Pinger is implemented by stores that can report backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreError wraps a backend failure with the operation that hit it.
type StoreError struct {
	Op      string
	Backend string
	Err     error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("session %s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is makes every StoreError match ErrStoreUnavailable.
func (e *StoreError) Is(target error) bool { return target == ErrStoreUnavailable }

// Code feeds the err_code log attribute.
func (e *StoreError) Code() string { return "STORE_UNAVAILABLE" }

func storeErr(backend, op string, err error) error {
	return &StoreError{Op: op, Backend: backend, Err: err}
}
