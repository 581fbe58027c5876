package ports

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by a KeyValueStore that refuses a write because
// it would exceed the backend's capacity.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// ErrStoreUnavailable is returned when the backend cannot be reached at all.
var ErrStoreUnavailable = errors.New("storage unavailable")

// KeyValueStore is the durable backend shared by every execution context of
// the application. Each handle carries an Origin identifying its context.
// Watch delivers changes written by other contexts only; a handle never
// observes its own writes through Watch.
type KeyValueStore interface {
	Origin() string
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Watch(fn func(StorageChange)) Subscription
}

// StorageChange describes a write observed from another context. Value is nil
// when the key was deleted.
type StorageChange struct {
	Key    string
	Value  []byte
	Origin string
}
