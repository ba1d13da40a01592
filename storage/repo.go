package storage

import (
	"context"

	"github.com/jrsteele09/go-session-client/internal/errors"
)

// ErrNotFound is returned by Get when a key has no value.
var ErrNotFound = errors.ErrNotFound

// Repo is a durable key-value store. It has no expiry semantics of its own.
type Repo interface {
	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Get returns the value for key, or ErrNotFound
	Get(ctx context.Context, key string) (string, error)

	// Remove deletes key. Removing a missing key is not an error
	Remove(ctx context.Context, key string) error
}

// BatchRepo is implemented by repos that can apply several writes as one
// operation, so that readers never observe a subset of them.
type BatchRepo interface {
	Repo

	// SetAll stores every entry in a single write
	SetAll(ctx context.Context, entries map[string]string) error

	// RemoveAll deletes every key in a single write
	RemoveAll(ctx context.Context, keys ...string) error
}
