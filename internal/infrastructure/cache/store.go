// Package cache provides the byte-oriented key-value stores used to memoise
// upstream lookups, backed by Redis when shared state is needed and by an
// in-process cache otherwise.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached
var ErrUnavailable = errors.New("cache: store unavailable")

// Store is a TTL key-value cache
type Store interface {
	// Get returns the value and whether it was found
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value for ttl; a zero ttl uses the store default
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes a key
	Delete(ctx context.Context, key string) error
}
