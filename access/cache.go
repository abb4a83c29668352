package access

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/darve-social/darve-go/identity"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache memoizes permission decisions keyed by (user, entity). It exists
// because spec.md §4.1 states the path-schema design "keeps checks O(1)
// after schema load" — the schema lookup already is O(1); this cache
// removes the remaining cost, the role-graph read that feeds DerivePath,
// which is the part that actually touches the database per call.
//
// Adapted from the teacher's semantic cache engine (caching/caching.go):
// same namespace isolation + TTL + hit/miss accounting, with the
// embedding-similarity search dropped since permission decisions are
// looked up by exact key, never fuzzy-matched.
type Cache struct {
	rdb    *redis.Client
	logger zerolog.Logger
	ttl    time.Duration

	hits   int64
	misses int64
}

func NewCache(rdb *redis.Client, logger zerolog.Logger, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Cache{rdb: rdb, logger: logger.With().Str("component", "access_cache").Logger(), ttl: ttl}
}

func decisionKey(userID, entityID string, perm identity.Permission) string {
	return fmt.Sprintf("access:decision:%s:%s:%s", userID, entityID, perm)
}

// Get returns a cached decision; ok is false on miss or when Redis is
// unavailable — callers always fall back to a live Decision() call.
func (c *Cache) Get(ctx context.Context, userID, entityID string, perm identity.Permission) (allowed bool, ok bool) {
	if c == nil || c.rdb == nil {
		return false, false
	}
	val, err := c.rdb.Get(ctx, decisionKey(userID, entityID, perm)).Result()
	if err != nil {
		atomic.AddInt64(&c.misses, 1)
		return false, false
	}
	atomic.AddInt64(&c.hits, 1)
	return val == "1", true
}

// Set stores a decision for ttl.
func (c *Cache) Set(ctx context.Context, userID, entityID string, perm identity.Permission, allowed bool) {
	if c == nil || c.rdb == nil {
		return
	}
	v := "0"
	if allowed {
		v = "1"
	}
	if err := c.rdb.Set(ctx, decisionKey(userID, entityID, perm), v, c.ttl).Err(); err != nil {
		c.logger.Debug().Err(err).Msg("access cache set failed")
	}
}

// InvalidateEntity drops every cached decision touching one entity. Access
// graph mutations (Add/Update/RemoveBy*) call this so monotonicity
// (spec.md §8 Property 4) is never masked by a stale cache entry.
func (c *Cache) InvalidateEntity(ctx context.Context, entityID string) {
	if c == nil || c.rdb == nil {
		return
	}
	iter := c.rdb.Scan(ctx, 0, "access:decision:*:"+entityID+":*", 200).Iterator()
	for iter.Next(ctx) {
		_ = c.rdb.Del(ctx, iter.Val()).Err()
	}
}

// Stats returns hit/miss counters for observability.
func (c *Cache) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}
