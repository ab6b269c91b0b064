package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist or has expired.
var ErrNotFound = errors.New("key not found")

// Store is the narrow counter contract every piece of cross-request state
// goes through. Implementations must serialize concurrent IncrBy calls on
// the same key: after N concurrent increments the returned value is exactly
// the sum, with no lost updates.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// IncrBy atomically adds delta to the counter at key, creating it at
	// zero if absent, and returns the post-increment value.
	IncrBy(ctx context.Context, key string, delta int64) (int64, error)

	// Expire arms a TTL on key. Callers arm expiry only when an increment
	// returns 1; under concurrent first-requests the TTL may be re-armed
	// more than once, which is harmless.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
