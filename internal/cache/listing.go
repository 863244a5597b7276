// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"aslipolitik/internal/listing"
)

const (
	listingKeyPrefix = "listing:"
	// listingGenKey sits outside listingKeyPrefix so InvalidateAll's scan
	// never deletes it.
	listingGenKey = "listing_gen"

	// DefaultListingTTL bounds how long a page can outlive a missed
	// invalidation.
	DefaultListingTTL = time.Minute
)

// ListingCache stores completed listing pages in Valkey, keyed by the
// filter and window they answer. Every post mutation clears it.
type ListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewListingCache creates a listing cache backed by the given Valkey client.
func NewListingCache(client *redis.Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{client: client, ttl: ttl}
}

// Get implements listing.Cache. Errors are logged and reported as a miss.
func (c *ListingCache) Get(ctx context.Context, key string) (listing.Page, bool) {
	val, err := c.client.Get(ctx, listingKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return listing.Page{}, false
	}
	if err != nil {
		slog.Warn("listing cache get error", "key", key, "error", err)
		return listing.Page{}, false
	}

	var p listing.Page
	if err := json.Unmarshal(val, &p); err != nil {
		slog.Warn("listing cache decode error", "key", key, "error", err)
		return listing.Page{}, false
	}
	return p, true
}

// Set implements listing.Cache.
func (c *ListingCache) Set(ctx context.Context, key string, p listing.Page) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Warn("listing cache encode error", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, listingKeyPrefix+key, data, c.ttl).Err(); err != nil {
		slog.Warn("listing cache set error", "key", key, "error", err)
	}
}

// Generation implements listing.Cache. An unset counter is generation 0.
func (c *ListingCache) Generation(ctx context.Context) (uint64, error) {
	gen, err := c.client.Get(ctx, listingGenKey).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read listing generation: %w", err)
	}
	return gen, nil
}

// InvalidateAll moves the cache to a new generation and removes every
// cached listing page. Any post change can move posts between pages of every
// listing, so nothing is kept.
func (c *ListingCache) InvalidateAll(ctx context.Context) {
	if err := c.client.Incr(ctx, listingGenKey).Err(); err != nil {
		slog.Warn("listing cache generation bump failed", "error", err)
	}

	var cursor uint64
	var deleted int
	for {
		keys, next, err := c.client.Scan(ctx, cursor, listingKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("listing cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("listing cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("listing cache cleared", "deleted", deleted)
	}
}
