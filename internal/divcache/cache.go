// Package divcache stores computed DivisionMaps keyed by document content
// hash, with an at-most-one-computation-per-hash guarantee and
// age-and-popularity based retention.
package divcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Rshan11/submittal4subs-sub001/internal/divisions"
)

// CacheRecord is one cached resolution. The cache owns record storage;
// callers always receive copies.
type CacheRecord struct {
	DocumentHash string                 `json:"document_hash"`
	DivisionMap  *divisions.DivisionMap `json:"division_map"`
	TotalPages   int                    `json:"total_pages"`
	CachedAt     time.Time              `json:"cached_at"`
	LastAccessed time.Time              `json:"last_accessed"`
	AccessCount  int64                  `json:"access_count"`
}

func (r *CacheRecord) copy() *CacheRecord {
	c := *r
	c.DivisionMap = r.DivisionMap.Copy()
	return &c
}

// Store is the persistence contract. Load returns (nil, nil) for a miss;
// absence is not an error. Save must be atomic per hash: a reader never
// observes a partially written record.
type Store interface {
	Load(ctx context.Context, hash string) (*CacheRecord, error)
	Save(ctx context.Context, rec *CacheRecord) error
	Touch(ctx context.Context, hash string, at time.Time) error
	Delete(ctx context.Context, hash string) error
	Evict(ctx context.Context, olderThan time.Time, maxAccessCount int64) (int, error)
}

// ComputeFunc produces a fresh DivisionMap together with the document's
// page count for the cache record.
type ComputeFunc func(ctx context.Context) (*divisions.DivisionMap, int, error)

// Cache fronts a Store with a single-flight guard so concurrent requests
// for the same unresolved hash share one computation.
type Cache struct {
	store  Store
	flight singleflight.Group
	logger *slog.Logger

	hits    atomic.Int64
	misses  atomic.Int64
	evicted atomic.Int64
}

// CacheStats are process-lifetime counters. Hits and misses count
// GetOrCompute resolutions; shared single-flight waiters count once.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Evicted int64 `json:"evicted"`
}

func New(store Store, logger *slog.Logger) *Cache {
	return &Cache{
		store:  store,
		logger: logger.With("component", "divcache"),
	}
}

// GetOrCompute returns the cached DivisionMap for hash, computing and
// persisting it on miss. Concurrent callers for the same hash wait for
// the first computation and share its result. When the map was computed
// but the store could not persist it, the fresh map is returned together
// with the store error so the caller sees the outage.
func (c *Cache) GetOrCompute(ctx context.Context, hash string, compute ComputeFunc) (*divisions.DivisionMap, error) {
	if hash == "" {
		return nil, fmt.Errorf("divcache: empty document hash")
	}

	v, err, shared := c.flight.Do(hash, func() (interface{}, error) {
		rec, err := c.store.Load(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("divcache: load %s: %w", hash, err)
		}
		if rec != nil {
			now := time.Now()
			if terr := c.store.Touch(ctx, hash, now); terr != nil {
				c.logger.Warn("failed to record cache access", "hash", hash, "error", terr)
			}
			c.logger.Debug("cache hit", "hash", hash, "method", rec.DivisionMap.Method)
			c.hits.Add(1)
			return rec.DivisionMap.Copy(), nil
		}

		c.misses.Add(1)
		m, totalPages, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		now := time.Now()
		rec = &CacheRecord{
			DocumentHash: hash,
			DivisionMap:  m,
			TotalPages:   totalPages,
			CachedAt:     now,
			LastAccessed: now,
			AccessCount:  1,
		}
		if serr := c.store.Save(ctx, rec); serr != nil {
			// Degrade to slower, not broken: hand back the fresh map but
			// surface the outage instead of silently recomputing forever.
			return m.Copy(), fmt.Errorf("divcache: save %s: %w", hash, serr)
		}
		c.logger.Info("cache miss resolved", "hash", hash,
			"method", m.Method, "divisions", m.Len())
		return m.Copy(), nil
	})

	if v == nil {
		return nil, err
	}
	m := v.(*divisions.DivisionMap)
	if shared {
		m = m.Copy()
	}
	return m, err
}

// Lookup returns the cached record copy for hash without computing.
func (c *Cache) Lookup(ctx context.Context, hash string) (*CacheRecord, error) {
	rec, err := c.store.Load(ctx, hash)
	if err != nil || rec == nil {
		return nil, err
	}
	if terr := c.store.Touch(ctx, hash, time.Now()); terr != nil {
		c.logger.Warn("failed to record cache access", "hash", hash, "error", terr)
	}
	return rec.copy(), nil
}

// Invalidate removes the record for hash so the next resolution
// recomputes it. Recomputation replaces, never merges.
func (c *Cache) Invalidate(ctx context.Context, hash string) error {
	return c.store.Delete(ctx, hash)
}

// Sweep removes records that are both older than maxAge and accessed
// fewer than minAccess times. Old but popular records survive. Eviction
// is housekeeping: failures are logged, never fatal.
func (c *Cache) Sweep(ctx context.Context, maxAge time.Duration, minAccess int64) int {
	n, err := c.store.Evict(ctx, time.Now().Add(-maxAge), minAccess)
	if err != nil {
		c.logger.Warn("cache sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		c.evicted.Add(int64(n))
		c.logger.Info("cache sweep evicted records", "count", n)
	}
	return n
}

// Stats returns the cache's lifetime counters.
func (c *Cache) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Evicted: c.evicted.Load(),
	}
}
