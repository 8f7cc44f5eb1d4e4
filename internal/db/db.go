// Package db defines the storage facade the service depends on. Consumers
// take the narrow sub-interfaces; the facade exists for wiring.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	ListStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// ListStore provides capped-list operations used by the history log.
type ListStore interface {
	// LPushTrim prepends value and trims the list to maxLen entries in one
	// round trip.
	LPushTrim(ctx context.Context, key string, value []byte, maxLen int) error
	LRange(ctx context.Context, key string, start, stop int) ([][]byte, error)
	LLen(ctx context.Context, key string) (int64, error)
}
