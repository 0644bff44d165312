// Package kv provides the durable key/value slots the dashboard persists its
// session, local user list and per-user report collections in.
//
// Values are opaque blobs (JSON in practice). Every write replaces the whole
// value; callers doing read-modify-write get no isolation from each other.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete is idempotent: removing an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns every key starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Close() error
}
