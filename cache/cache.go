// SPDX-License-Identifier: GPL-3.0-only

// Package cache provides the counter cache behind quota accounting. Two
// implementations share the Cache interface: a Redis client for deployments
// that need a single global count across replicas, and an in-process store
// for tests and single-node setups. Callers treat every error as a cache
// miss and fall back to the durable ledger; the cache is never authoritative.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

type Cache interface {
	Get(ctx context.Context, key string) (int64, error)
	// SetWithTTL stores an absolute value with an expiry.
	SetWithTTL(ctx context.Context, key string, value int64, ttl time.Duration) error
	// Increment atomically adds 1 and returns the new value. The TTL is
	// applied only when the key did not exist before this call, so the
	// expiry always covers the remainder of the period the key was first
	// written in.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Delete(ctx context.Context, key string) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}
