package queryapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quickdeals/price-intel/common/db"
	"go.uber.org/zap"
)

// NewRouter wires the gin engine with the middleware chain in order, then
// registers every route, grounded on order_service/main.go's
// setupRoutes/middleware-registration shape.
func NewRouter(ctl *Controller, database *db.DB, limiters *RateLimiters, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestValidationMiddleware())
	router.Use(SecurityHeadersMiddleware())
	router.Use(RequestLoggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	v1 := router.Group("/api/v1")
	{
		query := v1.Group("/query")
		query.Use(RateLimitMiddleware(limiters, "query"), DBHealthGateMiddleware(database))
		query.POST("/", ctl.Query)

		advanced := v1.Group("/query")
		advanced.Use(RateLimitMiddleware(limiters, "advanced"), DBHealthGateMiddleware(database))
		advanced.POST("/advanced", ctl.AdvancedQuery)

		products := v1.Group("/products")
		products.Use(RateLimitMiddleware(limiters, "compare"), DBHealthGateMiddleware(database))
		products.GET("/compare", ctl.CompareProducts)
		products.POST("/compare", ctl.CompareProducts)

		deals := v1.Group("/deals")
		deals.Use(RateLimitMiddleware(limiters, "deals"), DBHealthGateMiddleware(database))
		deals.GET("/", ctl.Deals)
		deals.POST("/", ctl.Deals)
		deals.GET("/campaigns", ctl.Campaigns)

		monitoringGroup := v1.Group("/monitoring")
		{
			monitoringGroup.GET("/health", ctl.HealthCheck)
			monitoringGroup.GET("/database/performance", ctl.DatabasePerformance)
			monitoringGroup.GET("/database/slow-queries", ctl.SlowQueries)
			monitoringGroup.GET("/cache/stats", ctl.CacheStats)
			monitoringGroup.GET("/metrics/summary", ctl.MetricsSummary)
			monitoringGroup.GET("/metrics/realtime", ctl.MetricsRealtime)
			monitoringGroup.POST("/cache/invalidate/:namespace", ctl.InvalidateCache)
		}
	}

	return router
}
