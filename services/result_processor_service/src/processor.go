package resultprocessor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/quickdeals/price-intel/common/cache"
	"go.uber.org/zap"
)

const allResultsTag = "query_result:all"

// Processor runs raw SQL rows through sampling, pagination, formatting,
// and caching, generalizing QueryResultProcessor to an explicit struct
// held by the Services aggregate instead of a module singleton.
type Processor struct {
	cache *cache.Cache
	log   *zap.Logger
	rng   *rand.Rand
}

func New(c *cache.Cache, log *zap.Logger) *Processor {
	return &Processor{cache: c, log: log, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// ProcessResults is the single entry point names: cache
// lookup, sampling, pagination, formatting, metadata, and cache write, in
// that order, mirroring process_results.
func (p *Processor) ProcessResults(
	ctx context.Context,
	rawResults []Row,
	query string,
	pagination PaginationConfig,
	sampling SamplingConfig,
	cacheCfg CacheConfig,
	format Format,
	queryContext map[string]interface{},
) (*ProcessedResult, error) {
	start := time.Now()
	p.log.Info("processing results", zap.Int("raw_count", len(rawResults)), zap.String("format", string(format)))

	var cacheKey string
	if cacheCfg.Enabled && p.cache != nil {
		cacheKey = generateCacheKey(cacheCfg.KeyPrefix, query, pagination, sampling, format)
		if cached, ok := p.cache.GetQueryResult(ctx, cacheKey); ok {
			var result ProcessedResult
			if err := json.Unmarshal([]byte(toJSONString(cached.Data)), &result); err == nil {
				result.Cached = true
				p.log.Info("returning cached result", zap.String("cache_key", cacheKey))
				return &result, nil
			}
		}
	}

	sampled, samplingMeta := applySampling(rawResults, sampling, p.rng)
	paginated, paginationMeta := applyPagination(sampled, pagination)
	formatted := renderFormat(paginated, format)
	metadata := buildMetadata(rawResults, sampled, paginated, queryContext)

	result := &ProcessedResult{
		Data:            formatted,
		TotalCount:      len(rawResults),
		Sampled:         samplingMeta.Sampled,
		SamplingMethod:  samplingMeta.Method,
		SampleSize:      samplingMeta.SampleSize,
		ConfidenceLevel: samplingMeta.ConfidenceLevel,
		Pagination:      paginationMeta,
		FormatType:      format,
		ProcessingTime:  time.Since(start),
		Cached:          false,
		CacheKey:        cacheKey,
		Metadata:        metadata,
	}

	if cacheCfg.Enabled && p.cache != nil && cacheKey != "" {
		p.cacheResult(ctx, result, cacheKey, cacheCfg)
	}

	p.log.Info("result processing completed", zap.Duration("duration", result.ProcessingTime))
	return result, nil
}

func generateCacheKey(prefix, query string, pagination PaginationConfig, sampling SamplingConfig, format Format) string {
	components := fmt.Sprintf("%s|page_%d|size_%d|sample_%s_%d|format_%s",
		query, pagination.Page, pagination.PageSize, sampling.Method, sampling.SampleSize, format)
	sum := sha256.Sum256([]byte(components))
	return prefix + ":" + hex.EncodeToString(sum[:])[:32]
}

// cacheResult JSON-encodes result and stores it if it fits under
// cacheCfg.MaxSizeMB, mirroring _cache_result's size-ceiling guard.
func (p *Processor) cacheResult(ctx context.Context, result *ProcessedResult, cacheKey string, cacheCfg CacheConfig) {
	raw, err := json.Marshal(result)
	if err != nil {
		p.log.Warn("failed to marshal result for caching", zap.Error(err))
		return
	}
	sizeMB := float64(len(raw)) / (1024 * 1024)
	if sizeMB > cacheCfg.MaxSizeMB {
		p.log.Warn("result too large to cache", zap.Float64("size_mb", sizeMB), zap.Float64("limit_mb", cacheCfg.MaxSizeMB))
		return
	}
	p.cache.SetTTL(ctx, cache.NamespaceQueryResult, cacheKey, cache.QueryResultPayload{
		Format: string(result.FormatType),
		Data:   result,
	}, cacheCfg.TTL, allResultsTag)
}

// InvalidateAll drops every cached processed result.
func (p *Processor) InvalidateAll(ctx context.Context) {
	if p.cache == nil {
		return
	}
	p.cache.TagInvalidate(ctx, allResultsTag)
}

// CacheStats surfaces the two-tier cache's occupancy for the monitoring
// endpoints, mirroring get_cache_stats.
func (p *Processor) CacheStats(ctx context.Context) cache.Stats {
	if p.cache == nil {
		return cache.Stats{}
	}
	return p.cache.Stats(ctx)
}

func toJSONString(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(raw)
}
