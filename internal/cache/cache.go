// Package cache stores API responses for a bounded time so that repeated
// reads of the same resource within one TTL skip the network.
package cache

import (
	"context"
	"time"
)

// Store is a TTL-bounded byte cache keyed by request identity.
type Store interface {
	// Get returns the cached value and true on a live hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key until ttl elapses. A non-positive ttl is a no-op.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Prune removes expired entries and returns how many were removed.
	Prune(ctx context.Context) (int, error)

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// Nop is a Store that never holds anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Prune(context.Context) (int, error) { return 0, nil }
func (Nop) Clear(context.Context) error { return nil }
func (Nop) Close() error { return nil }
