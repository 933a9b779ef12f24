// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// content.go provides a Valkey-backed cache for published content bundles.
// The public content endpoint serves from here when possible so steady
// traffic never touches Postgres; a publish invalidates the locale's entry.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"kyctrust/internal/models"
)

const (
	// contentKeyPrefix namespaces content keys in Valkey.
	contentKeyPrefix = "content:"

	// DefaultContentTTL is how long a published bundle stays cached.
	DefaultContentTTL = 5 * time.Minute
)

// ContentCache caches serialized published bundles per locale.
type ContentCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewContentCache creates a content cache backed by the given Valkey client.
func NewContentCache(client *redis.Client, ttl time.Duration) *ContentCache {
	if ttl == 0 {
		ttl = DefaultContentTTL
	}
	return &ContentCache{client: client, ttl: ttl}
}

// Get retrieves the cached bundle JSON for a locale. Returns false on miss.
// A nil cache always misses, so the app runs without Valkey.
func (c *ContentCache) Get(ctx context.Context, locale models.Locale) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, contentKeyPrefix+string(locale)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("content cache get error", "locale", locale, "error", err)
		return nil, false
	}
	return val, true
}

// Set stores the bundle JSON for a locale with the configured TTL.
func (c *ContentCache) Set(ctx context.Context, locale models.Locale, raw []byte) {
	if c == nil {
		return
	}
	if err := c.client.Set(ctx, contentKeyPrefix+string(locale), raw, c.ttl).Err(); err != nil {
		slog.Warn("content cache set error", "locale", locale, "error", err)
	}
}

// Invalidate removes a locale's cached bundle after a publish or restore.
func (c *ContentCache) Invalidate(ctx context.Context, locale models.Locale) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, contentKeyPrefix+string(locale)).Err(); err != nil {
		slog.Warn("content cache invalidate error", "locale", locale, "error", err)
	}
	slog.Debug("content cache invalidated", "locale", locale)
}
