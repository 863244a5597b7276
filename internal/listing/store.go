package listing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"aslipolitik/internal/metrics"
	"aslipolitik/internal/models"
)

// Page is what the store returns for one listing round trip: the ordered
// slice of posts and the total number of posts matching the filter.
type Page struct {
	Items []models.Post `json:"items"`
	Total int           `json:"total"`
}

// ContentStore answers listing queries. Implementations must return the
// slice and the total from a single consistent read, ordered by
// published_at descending with id descending as the tie breaker.
type ContentStore interface {
	Query(ctx context.Context, f Filter, offset, limit int) (Page, error)
}

// Cache stores completed pages by key. Misses and failures both report
// ok=false; a cache is never required for a correct answer.
//
// Generation returns a counter that moves forward on every invalidation.
// Pages are stored under the generation read before their query started,
// so a query that overlaps an invalidation can never repopulate the new
// generation with what it read before the change.
type Cache interface {
	Get(ctx context.Context, key string) (Page, bool)
	Set(ctx context.Context, key string, p Page)
	Generation(ctx context.Context) (uint64, error)
}

// CacheKey addresses one filter+window tuple.
func CacheKey(f Filter, offset, limit int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", f.Key(), offset, limit)))
	return hex.EncodeToString(sum[:16])
}

// SharedStore sits in front of the database for every controller. Identical
// in-flight queries of the same cache generation are coalesced and completed
// pages go to the cache.
type SharedStore struct {
	store   ContentStore
	cache   Cache
	group   singleflight.Group
	timeout time.Duration
}

// NewSharedStore wraps store. cache may be nil.
func NewSharedStore(store ContentStore, cache Cache) *SharedStore {
	return &SharedStore{store: store, cache: cache, timeout: 10 * time.Second}
}

// Query implements ContentStore.
func (s *SharedStore) Query(ctx context.Context, f Filter, offset, limit int) (Page, error) {
	key := CacheKey(f, offset, limit)

	cache := s.cache
	if cache != nil {
		gen, err := cache.Generation(ctx)
		if err != nil {
			// Without a generation a stored page could outlive an
			// invalidation; go to the database uncached.
			slog.Warn("listing cache generation unavailable", "error", err)
			cache = nil
		} else {
			key = strconv.FormatUint(gen, 10) + ":" + key
		}
	}

	if cache != nil {
		if p, ok := cache.Get(ctx, key); ok {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return p, nil
		}
		metrics.CacheLookups.WithLabelValues("miss").Inc()
	}

	ch := s.group.DoChan(key, func() (any, error) {
		// The shared query outlives any single caller's cancellation.
		qctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		metrics.StoreQueries.Inc()
		p, err := s.store.Query(qctx, f, offset, limit)
		if err != nil {
			return Page{}, err
		}
		if cache != nil {
			cache.Set(qctx, key, p)
		}
		return p, nil
	})

	select {
	case <-ctx.Done():
		return Page{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			metrics.CoalescedQueries.Inc()
		}
		if res.Err != nil {
			slog.Debug("listing query failed", "filter", f.Key(), "offset", offset, "error", res.Err)
			return Page{}, res.Err
		}
		return res.Val.(Page), nil
	}
}
