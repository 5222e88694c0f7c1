package queryapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/quickdeals/price-intel/common/cache"
	"github.com/quickdeals/price-intel/common/db"
	"github.com/quickdeals/price-intel/common/errtax"
	"github.com/quickdeals/price-intel/common/models"
	monitoring "github.com/quickdeals/price-intel/services/monitoring_service/src"
	resultprocessor "github.com/quickdeals/price-intel/services/result_processor_service/src"
	"go.uber.org/zap"
)

// Controller wires the dispatcher, result processor, and monitoring
// registry into the HTTP handlers, the Go idiom for a
// PricingController struct-of-collaborators composition.
type Controller struct {
	dispatcher *Dispatcher
	processor  *resultprocessor.Processor
	samples    *SampleQueryHandlers
	registry   *monitoring.Registry
	cache      *cache.Cache
	database   *db.DB
	log        *zap.Logger
}

func NewController(
	dispatcher *Dispatcher,
	processor *resultprocessor.Processor,
	samples *SampleQueryHandlers,
	registry *monitoring.Registry,
	c *cache.Cache,
	database *db.DB,
	log *zap.Logger,
) *Controller {
	return &Controller{dispatcher: dispatcher, processor: processor, samples: samples, registry: registry, cache: c, database: database, log: log}
}

// Query handles POST /api/v1/query/.
func (ctl *Controller) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errtax.New(errtax.ValidationError, "invalid request body: "+err.Error()), requestIDFrom(c))
		return
	}
	if verr := ValidateQuery(req.Query); verr != nil {
		writeError(c, verr, requestIDFrom(c))
		return
	}

	ctl.respondToQuery(c, req.Query, req.Context, resultprocessor.NewPaginationConfig(1, 20), resultprocessor.DefaultSamplingConfig(), resultprocessor.FormatStructured)
}

// AdvancedQuery handles POST /api/v1/query/advanced.
func (ctl *Controller) AdvancedQuery(c *gin.Context) {
	var req AdvancedQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errtax.New(errtax.ValidationError, "invalid request body: "+err.Error()), requestIDFrom(c))
		return
	}
	if verr := ValidateQuery(req.Query); verr != nil {
		writeError(c, verr, requestIDFrom(c))
		return
	}

	pagination := resultprocessor.NewPaginationConfig(req.Page, req.PageSize)
	sampling := resultprocessor.DefaultSamplingConfig()
	if req.SamplingMethod != "" {
		sampling.Method = resultprocessor.SamplingMethod(req.SamplingMethod)
	}
	if req.SampleSize > 0 {
		sampling.SampleSize = req.SampleSize
	}
	format := resultprocessor.FormatStructured
	if req.ResultFormat != "" {
		format = resultprocessor.Format(req.ResultFormat)
	}

	ctl.respondToQuery(c, req.Query, req.Context, pagination, sampling, format)
}

func (ctl *Controller) respondToQuery(
	c *gin.Context,
	query string,
	queryContext map[string]interface{},
	pagination resultprocessor.PaginationConfig,
	sampling resultprocessor.SamplingConfig,
	format resultprocessor.Format,
) {
	start := time.Now()
	ctx := c.Request.Context()

	outcome, err := ctl.dispatcher.Dispatch(ctx, query, queryContext)
	if err != nil {
		writeError(c, errtax.Wrap(errtax.QueryProcessingError, "failed to process query", err), requestIDFrom(c))
		return
	}

	rawRows := make([]resultprocessor.Row, 0, len(outcome.Results))
	for _, r := range outcome.Results {
		rawRows = append(rawRows, queryResultToRow(r))
	}

	processed, err := ctl.processor.ProcessResults(
		ctx, rawRows, query, pagination, sampling,
		resultprocessor.DefaultCacheConfig(5*time.Minute), format, queryContext,
	)
	if err != nil {
		writeError(c, errtax.Wrap(errtax.QueryProcessingError, "failed to process results", err), requestIDFrom(c))
		return
	}

	c.JSON(http.StatusOK, QueryResponse{
		Query:          query,
		Results:        outcome.Results,
		ExecutionTime:  time.Since(start).Seconds(),
		RelevantTables: outcome.RelevantTables,
		TotalResults:   processed.TotalCount,
		Cached:         processed.Cached,
		Suggestions:    outcome.Suggestions,
		Metadata:       processed.Metadata,
	})
}

func queryResultToRow(r QueryResult) resultprocessor.Row {
	row := resultprocessor.Row{
		"product_id":    r.ProductID,
		"product_name":  r.ProductName,
		"platform_name": r.PlatformName,
		"current_price": r.CurrentPrice,
		"is_available":  r.IsAvailable,
		"last_updated":  r.LastUpdated,
	}
	if r.OriginalPrice != nil {
		row["original_price"] = *r.OriginalPrice
	}
	if r.DiscountPercentage != nil {
		row["discount_percentage"] = *r.DiscountPercentage
	}
	return row
}

// CompareProducts handles GET/POST /api/v1/products/compare.
func (ctl *Controller) CompareProducts(c *gin.Context) {
	var req ComparisonRequest
	if c.Request.Method == http.MethodGet {
		if err := c.ShouldBindQuery(&req); err != nil {
			writeError(c, errtax.New(errtax.ValidationError, "invalid query parameters"), requestIDFrom(c))
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errtax.New(errtax.ValidationError, "invalid request body"), requestIDFrom(c))
		return
	}
	if req.ProductName == "" {
		writeError(c, errtax.New(errtax.ValidationError, "product_name is required"), requestIDFrom(c))
		return
	}
	if verr := ValidatePlatforms(req.Platforms); verr != nil {
		writeError(c, verr, requestIDFrom(c))
		return
	}

	ctx := c.Request.Context()
	results, err := ctl.samples.HandlePriceComparison(ctx, "compare "+req.ProductName+" between "+joinOrAll(req.Platforms))
	if err != nil {
		writeError(c, errtax.Wrap(errtax.QueryProcessingError, "comparison failed", err), requestIDFrom(c))
		return
	}

	processed, err := ctl.processor.ProcessResults(
		ctx, toRows(results), req.ProductName,
		resultprocessor.NewPaginationConfig(1, 100), resultprocessor.SamplingConfig{Method: resultprocessor.SamplingNone},
		resultprocessor.CacheConfig{Enabled: false}, resultprocessor.FormatComparison, nil,
	)
	if err != nil {
		writeError(c, errtax.Wrap(errtax.QueryProcessingError, "comparison formatting failed", err), requestIDFrom(c))
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_name": req.ProductName, "comparison": processed.Data})
}

// Deals handles GET/POST /api/v1/deals/.
func (ctl *Controller) Deals(c *gin.Context) {
	var req DealsRequest
	if c.Request.Method == http.MethodGet {
		_ = c.ShouldBindQuery(&req)
	} else {
		_ = c.ShouldBindJSON(&req)
	}
	if req.Limit == 0 {
		req.Limit = 50
	}
	if verr := ValidateMinDiscount(req.MinDiscount); verr != nil {
		writeError(c, verr, requestIDFrom(c))
		return
	}
	if verr := ValidateLimit(req.Limit); verr != nil {
		writeError(c, verr, requestIDFrom(c))
		return
	}

	query := "discount search"
	if req.MinDiscount > 0 {
		query = strconv.Itoa(req.MinDiscount) + "% discount"
	}
	if req.Platform != "" {
		query += " on " + req.Platform
	}
	results, err := ctl.samples.HandleDiscountSearch(c.Request.Context(), query)
	if err != nil {
		writeError(c, errtax.Wrap(errtax.QueryProcessingError, "deals lookup failed", err), requestIDFrom(c))
		return
	}
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}
	c.JSON(http.StatusOK, gin.H{"deals": results, "count": len(results)})
}

// Campaigns handles GET /api/v1/deals/campaigns.
func (ctl *Controller) Campaigns(c *gin.Context) {
	var campaigns []models.PromotionalCampaign
	now := time.Now().UTC()
	err := ctl.database.WithContext(c.Request.Context()).
		Where("is_active = ? AND valid_from <= ? AND valid_to >= ?", true, now, now).
		Order("is_featured DESC, valid_to ASC").
		Find(&campaigns).Error
	if err != nil {
		writeError(c, errtax.Wrap(errtax.DatabaseError, "failed to list campaigns", err), requestIDFrom(c))
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// HealthCheck handles GET /api/v1/monitoring/health.
func (ctl *Controller) HealthCheck(c *gin.Context) {
	metrics := ctl.registry.ComprehensiveMetrics()
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"database":  metrics.Database,
		"cache":     metrics.Cache,
	})
}

// DatabasePerformance handles GET /api/v1/monitoring/database/performance.
func (ctl *Controller) DatabasePerformance(c *gin.Context) {
	c.JSON(http.StatusOK, ctl.registry.DB.PerformanceSummary())
}

// SlowQueries handles GET /api/v1/monitoring/database/slow-queries.
func (ctl *Controller) SlowQueries(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	c.JSON(http.StatusOK, gin.H{"slow_queries": ctl.registry.DB.SlowQueries(limit)})
}

// CacheStats handles GET /api/v1/monitoring/cache/stats.
func (ctl *Controller) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, ctl.registry.Cache.Statistics())
}

// MetricsSummary handles GET /api/v1/monitoring/metrics/summary, adding the
// composite efficiency score names on top of the registry's raw
// comprehensive snapshot.
func (ctl *Controller) MetricsSummary(c *gin.Context) {
	metrics := ctl.registry.ComprehensiveMetrics()
	c.JSON(http.StatusOK, gin.H{
		"database":         metrics.Database,
		"cache":            metrics.Cache,
		"system":           metrics.System,
		"active_alerts":    metrics.Alerts,
		"efficiency_score": efficiencyScore(metrics),
	})
}

// efficiencyScore blends error rate and cache hit ratio into a single 0-100
// figure; there is no equivalent in the original system so this composes
// directly from the monitors' own outputs rather than inventing new state.
func efficiencyScore(m monitoring.ComprehensiveMetrics) float64 {
	score := 100.0
	score -= m.Database.ErrorRate * 100
	score -= (1 - m.Cache.HitRatio) * 30
	if score < 0 {
		score = 0
	}
	return score
}

// MetricsRealtime handles GET /api/v1/monitoring/metrics/realtime.
func (ctl *Controller) MetricsRealtime(c *gin.Context) {
	c.JSON(http.StatusOK, ctl.registry.ComprehensiveMetrics())
}

// InvalidateCache handles POST /api/v1/monitoring/cache/invalidate/{namespace}.
func (ctl *Controller) InvalidateCache(c *gin.Context) {
	namespace := c.Param("namespace")
	n := ctl.cache.InvalidateNamespace(c.Request.Context(), cache.Namespace(namespace))
	c.JSON(http.StatusOK, gin.H{"namespace": namespace, "invalidated": n})
}

func joinOrAll(platforms []string) string {
	if len(platforms) == 0 {
		return "all platforms"
	}
	out := platforms[0]
	for _, p := range platforms[1:] {
		out += " and " + p
	}
	return out
}

func toRows(results []QueryResult) []resultprocessor.Row {
	rows := make([]resultprocessor.Row, 0, len(results))
	for _, r := range results {
		rows = append(rows, queryResultToRow(r))
	}
	return rows
}
