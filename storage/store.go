package storage

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("key not found")

// UnexpectedStoreError wraps backend failures (connection refused, timeouts).
// Callers treat these as fatal for the in-flight operation.
var UnexpectedStoreError = errors.New("unexpected store error")

// DocumentStore holds one serialized document per key. It is the single
// source of truth for room state; every mutation goes read -> modify -> write.
type DocumentStore interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set writes the document. A positive ttl (re)arms expiry; ttl == 0
	// keeps whatever expiry the key already carries.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// Keys returns every key starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
