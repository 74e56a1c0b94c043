// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cache provides the caching layer behind the site resolver.
// A memory backend is always available; Redis is used when configured so
// several instances share invalidations.
package cache

import (
	"context"
	"time"
)

// Cacher is the interface shared by the memory and Redis backends.
// Values are raw bytes so both backends serialize the same way.
// All implementations are safe for concurrent use.
type Cacher interface {
	// Get returns the value for key, or ErrCacheMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A zero TTL uses the default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Close releases any resources held by the cache.
	Close() error
}

// Error is the error type for cache operations.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)

// Config holds cache backend configuration.
type Config struct {
	// RedisURL selects the Redis backend when non-empty.
	RedisURL string

	// Prefix is prepended to all Redis keys.
	Prefix string

	// DefaultTTL is the default expiration for entries.
	DefaultTTL time.Duration

	// MaxSize caps the memory backend's entry count (0 = unlimited).
	MaxSize int
}

// New creates a cache from the configuration: Redis when a URL is set,
// otherwise in-memory.
func New(cfg Config) (Cacher, error) {
	if cfg.RedisURL != "" {
		return NewRedisCache(cfg.RedisURL, cfg.Prefix, cfg.DefaultTTL)
	}
	return NewMemoryCache(cfg.DefaultTTL, cfg.MaxSize), nil
}
