// Package cache implements the two-tier cache: an
// in-process TTL tier (github.com/patrickmn/go-cache; entries leave it only
// by expiry or invalidation, and it has no entry-count or size limit) backed by an
// external tier (github.com/redis/go-redis/v9), generalized from the
// DynamicPricingEngine's Redis cache usage
// (services/pricing_service/src/DynamicPricingEngine.go's generateCacheKey/
// caching calls) plus PricingController's response cache pattern.
//
// Every method here degrades silently on external-tier failure: a Redis
// error is logged and treated as a miss, never propagated to the caller.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Namespace groups keys so TTLs and invalidation can vary by concern.
type Namespace string

const (
	NamespaceQueryResult    Namespace = "query_result"
	NamespaceSchemaMetadata Namespace = "schema_metadata"
	NamespaceExecutionPlan  Namespace = "execution_plan"
	NamespaceTableEmbedding Namespace = "table_embedding"
)

// defaultTTL returns the per-namespace TTL from this service's cache table.
func defaultTTL(ns Namespace) time.Duration {
	switch ns {
	case NamespaceQueryResult:
		return 5 * time.Minute
	case NamespaceSchemaMetadata:
		return time.Hour
	case NamespaceExecutionPlan:
		return 30 * time.Minute
	case NamespaceTableEmbedding:
		return 24 * time.Hour
	default:
		return 5 * time.Minute
	}
}

// Cache is the two-tier cache: an in-process go-cache instance consulted
// first, and an optional Redis client consulted on local miss. A nil Redis
// client disables the external tier entirely (CacheDisableExt config).
type Cache struct {
	local *gocache.Cache
	ext   *redis.Client
	log   *zap.Logger

	mu     sync.Mutex
	tags   map[string]map[string]struct{}    // tag -> set of keys, for TagInvalidate
	nsKeys map[Namespace]map[string]struct{} // namespace -> set of keys, for InvalidateNamespace
}

// New builds a Cache. redisURL == "" disables the external tier.
func New(redisURL string, log *zap.Logger) *Cache {
	c := &Cache{
		local:  gocache.New(5*time.Minute, 10*time.Minute),
		log:    log,
		tags:   make(map[string]map[string]struct{}),
		nsKeys: make(map[Namespace]map[string]struct{}),
	}
	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			log.Warn("invalid redis url, external cache tier disabled", zap.Error(err))
			return c
		}
		c.ext = redis.NewClient(opts)
	}
	return c
}

func key(ns Namespace, id string) string {
	return string(ns) + ":" + id
}

// Get looks up a value, local tier first, then external. dest must be a
// pointer; the value is JSON-decoded into it. Returns false on any miss or
// error (external errors are logged, never returned).
func (c *Cache) Get(ctx context.Context, ns Namespace, id string, dest interface{}) bool {
	k := key(ns, id)
	if raw, ok := c.local.Get(k); ok {
		if b, ok := raw.([]byte); ok {
			if err := json.Unmarshal(b, dest); err == nil {
				return true
			}
		}
	}
	if c.ext == nil {
		return false
	}
	raw, err := c.ext.Get(ctx, k).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Debug("external cache get failed", zap.String("key", k), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false
	}
	c.local.Set(k, raw, defaultTTL(ns))
	return true
}

// Set writes a value to both tiers with the namespace's default TTL, and
// records it under each tag for later TagInvalidate calls.
func (c *Cache) Set(ctx context.Context, ns Namespace, id string, value interface{}, tags ...string) {
	c.SetTTL(ctx, ns, id, value, defaultTTL(ns), tags...)
}

// SetTTL is Set with an explicit TTL override.
func (c *Cache) SetTTL(ctx context.Context, ns Namespace, id string, value interface{}, ttl time.Duration, tags ...string) {
	k := key(ns, id)
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache marshal failed", zap.String("key", k), zap.Error(err))
		return
	}
	c.local.Set(k, raw, ttl)
	if c.ext != nil {
		if err := c.ext.Set(ctx, k, raw, ttl).Err(); err != nil {
			c.log.Debug("external cache set failed", zap.String("key", k), zap.Error(err))
		}
	}

	c.mu.Lock()
	if c.nsKeys[ns] == nil {
		c.nsKeys[ns] = make(map[string]struct{})
	}
	c.nsKeys[ns][k] = struct{}{}
	for _, t := range tags {
		if c.tags[t] == nil {
			c.tags[t] = make(map[string]struct{})
		}
		c.tags[t][k] = struct{}{}
	}
	c.mu.Unlock()
}

// Invalidate removes a single key from both tiers.
func (c *Cache) Invalidate(ctx context.Context, ns Namespace, id string) {
	k := key(ns, id)
	c.local.Delete(k)
	if c.ext != nil {
		if err := c.ext.Del(ctx, k).Err(); err != nil {
			c.log.Debug("external cache delete failed", zap.String("key", k), zap.Error(err))
		}
	}
	c.mu.Lock()
	delete(c.nsKeys[ns], k)
	c.mu.Unlock()
}

// TagInvalidate removes every key recorded under tag, e.g. invalidating all
// query results touching a product whose price just changed.
func (c *Cache) TagInvalidate(ctx context.Context, tag string) {
	c.mu.Lock()
	keys := c.tags[tag]
	delete(c.tags, tag)
	c.mu.Unlock()
	c.deleteKeys(ctx, keys)
}

// InvalidateNamespace drops every key ever written under ns from both
// tiers and returns how many keys were removed, backing the bulk
// namespace-invalidate endpoint.
func (c *Cache) InvalidateNamespace(ctx context.Context, ns Namespace) int {
	c.mu.Lock()
	keys := c.nsKeys[ns]
	delete(c.nsKeys, ns)
	c.mu.Unlock()
	c.deleteKeys(ctx, keys)
	return len(keys)
}

// InvalidateByTags unions the key sets recorded under each tag and deletes
// the result once, returning the number of distinct keys removed.
func (c *Cache) InvalidateByTags(ctx context.Context, tags []string) int {
	union := make(map[string]struct{})
	c.mu.Lock()
	for _, t := range tags {
		for k := range c.tags[t] {
			union[k] = struct{}{}
		}
		delete(c.tags, t)
	}
	c.mu.Unlock()
	c.deleteKeys(ctx, union)
	return len(union)
}

func (c *Cache) deleteKeys(ctx context.Context, keys map[string]struct{}) {
	for k := range keys {
		c.local.Delete(k)
		if c.ext != nil {
			if err := c.ext.Del(ctx, k).Err(); err != nil {
				c.log.Debug("external cache delete failed", zap.String("key", k), zap.Error(err))
			}
		}
	}
}

// Stats reports local-tier item count and whether the external tier is
// live, surfaced by the monitoring endpoints (H).
type Stats struct {
	LocalItems     int  `json:"local_items"`
	ExternalActive bool `json:"external_active"`
}

func (c *Cache) Stats(ctx context.Context) Stats {
	s := Stats{LocalItems: c.local.ItemCount()}
	if c.ext != nil {
		if err := c.ext.Ping(ctx).Err(); err == nil {
			s.ExternalActive = true
		}
	}
	return s
}

// Close releases the external client, if any.
func (c *Cache) Close() error {
	if c.ext != nil {
		return c.ext.Close()
	}
	return nil
}
