// Package kv defines the string-keyed storage port the persistence adapter
// is built on, and the errors shared by its backends.
package kv

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a store after Close
var ErrClosed = errors.New("store is closed")

// Store is a durable string-keyed store. Get reports ok=false for a missing
// key. Implementations may block until the underlying store responds and
// should return ctx.Err() once the context is done.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Lister is implemented by backends that can enumerate keys under a prefix
type Lister interface {
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// Provisioner is implemented by backends that need their schema or file
// created before first use. Init provisions a fresh store; Load opens an
// existing one and fails if it was never initialized.
type Provisioner interface {
	Init(ctx context.Context) error
	Load(ctx context.Context) error
}

// Locator is implemented by backends that persist to a local file
type Locator interface {
	Path() string
}

// Updater is implemented by backends that can read-modify-write one key
// atomically with respect to other processes. fn receives the current value
// (ok=false when absent) and returns the value to store; an error from fn
// aborts the update and is returned unchanged.
type Updater interface {
	Update(ctx context.Context, key string, fn func(old string, ok bool) (string, error)) error
}
