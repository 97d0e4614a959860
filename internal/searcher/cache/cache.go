// Package cache provides a Redis-backed cache for ranked query results,
// deduplicating concurrent identical queries with singleflight. Cached
// scores are only valid against the snapshot they were computed from, so
// the cache is flushed wholesale on every reindex.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/variantdb/sheetsearch/internal/indexer/tokenizer"
	"github.com/variantdb/sheetsearch/internal/record"
	"github.com/variantdb/sheetsearch/pkg/config"
	pkgredis "github.com/variantdb/sheetsearch/pkg/redis"
)

const keyPrefix = "sheetsearch:query:"

// QueryCache caches ranked search results keyed by (operation, normalized
// query, limit).
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache over the given Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached results for a query, if present.
func (c *QueryCache) Get(ctx context.Context, op, query string, limit int) ([]record.SearchResult, bool) {
	key := c.buildKey(op, query, limit)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var results []record.SearchResult
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return results, true
}

// Set stores results for a query with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, op, query string, limit int, results []record.SearchResult) {
	key := c.buildKey(op, query, limit)
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns cached results when present, otherwise computes and
// caches them. Concurrent identical queries share a single computation.
// The bool reports whether the result came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	op, query string,
	limit int,
	computeFn func() ([]record.SearchResult, error),
) ([]record.SearchResult, bool, error) {
	if results, ok := c.Get(ctx, op, query, limit); ok {
		return results, true, nil
	}
	key := c.buildKey(op, query, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if results, ok := c.Get(ctx, op, query, limit); ok {
			return results, nil
		}
		results, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, op, query, limit, results)
		return results, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]record.SearchResult), false, nil
}

// Invalidate drops every cached query result. Called after each snapshot
// swap. A query computed against the outgoing snapshot can Set its results
// after the flush; such an entry carries stale scores for at most one
// CacheTTL before expiring.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating query cache: %w", err)
	}
	c.logger.Info("query cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns hit and miss counts since startup.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey hashes the operation, the sorted distinct query terms, and the
// limit, so queries differing only in term order or repetition share an
// entry.
func (c *QueryCache) buildKey(op, query string, limit int) string {
	terms := tokenizer.Terms(query)
	sort.Strings(terms)
	raw := fmt.Sprintf("%s|%s|limit=%d", op, strings.Join(terms, ","), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
