package cache

import "context"

// QueryResultPayload is what gets cached for a processed query result
// (Result Processor, E), keyed by a hash of the normalized query + params.
type QueryResultPayload struct {
	Format string      `json:"format"`
	Data   interface{} `json:"data"`
}

func (c *Cache) CacheQueryResult(ctx context.Context, queryHash string, payload QueryResultPayload, tags ...string) {
	c.Set(ctx, NamespaceQueryResult, queryHash, payload, tags...)
}

func (c *Cache) GetQueryResult(ctx context.Context, queryHash string) (QueryResultPayload, bool) {
	var p QueryResultPayload
	ok := c.Get(ctx, NamespaceQueryResult, queryHash, &p)
	return p, ok
}

// CacheSchemaMetadata stores the catalogue snapshot (A) so repeated
// introspection calls don't hit information_schema every time.
func (c *Cache) CacheSchemaMetadata(ctx context.Context, key string, payload interface{}) {
	c.Set(ctx, NamespaceSchemaMetadata, key, payload)
}

func (c *Cache) GetSchemaMetadata(ctx context.Context, key string, dest interface{}) bool {
	return c.Get(ctx, NamespaceSchemaMetadata, key, dest)
}

// CacheExecutionPlan stores a query planner (C) output.
func (c *Cache) CacheExecutionPlan(ctx context.Context, planHash string, payload interface{}) {
	c.Set(ctx, NamespaceExecutionPlan, planHash, payload)
}

func (c *Cache) GetExecutionPlan(ctx context.Context, planHash string, dest interface{}) bool {
	return c.Get(ctx, NamespaceExecutionPlan, planHash, dest)
}

// CacheTableEmbeddings persists the semantic index's vectors under the
// 24h staleness horizon the embedding namespace uses.
func (c *Cache) CacheTableEmbeddings(ctx context.Context, key string, payload interface{}) {
	c.Set(ctx, NamespaceTableEmbedding, key, payload)
}

func (c *Cache) GetTableEmbeddings(ctx context.Context, key string, dest interface{}) bool {
	return c.Get(ctx, NamespaceTableEmbedding, key, dest)
}
