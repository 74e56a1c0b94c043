// Copyright (c) 2025-2026 LAP CMS Authors
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lapcms/lapcms/internal/store"
)

// SiteCache caches site rows keyed by API key. It sits in front of the
// store on the SDK hot path, where every request carries an x-api-key.
// The TTL is kept short so deactivations and key rotations propagate
// quickly even without explicit invalidation.
type SiteCache struct {
	backend Cacher
	queries *store.Queries
	ttl     time.Duration
}

// NewSiteCache creates a SiteCache in front of the given backend.
func NewSiteCache(backend Cacher, queries *store.Queries, ttl time.Duration) *SiteCache {
	return &SiteCache{backend: backend, queries: queries, ttl: ttl}
}

func siteKey(apiKey string) string {
	return "site:" + apiKey
}

// GetByAPIKey resolves a site by API key, preferring the cache. A database
// miss is NOT cached: a key that just started resolving must work at once.
func (c *SiteCache) GetByAPIKey(ctx context.Context, apiKey string) (store.Site, error) {
	if data, err := c.backend.Get(ctx, siteKey(apiKey)); err == nil {
		var site store.Site
		if err := json.Unmarshal(data, &site); err == nil {
			return site, nil
		}
		// Corrupt entry, fall through to the store.
		_ = c.backend.Delete(ctx, siteKey(apiKey))
	} else if !errors.Is(err, ErrCacheMiss) {
		// Backend trouble degrades to direct store reads.
		return c.queries.GetSiteByAPIKey(ctx, apiKey)
	}

	site, err := c.queries.GetSiteByAPIKey(ctx, apiKey)
	if err != nil {
		return store.Site{}, err
	}

	if data, err := json.Marshal(site); err == nil {
		_ = c.backend.Set(ctx, siteKey(apiKey), data, c.ttl)
	}
	return site, nil
}

// Invalidate drops a cached API key, used after site updates and key
// rotation.
func (c *SiteCache) Invalidate(ctx context.Context, apiKey string) error {
	if err := c.backend.Delete(ctx, siteKey(apiKey)); err != nil {
		return fmt.Errorf("invalidating site cache: %w", err)
	}
	return nil
}
