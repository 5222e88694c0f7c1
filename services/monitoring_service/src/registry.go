package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Registry aggregates the four monitors into one object, constructed once
// and passed explicitly through the Services aggregate rather than held as
// package-level globals (unlike monitoring.py's module-level db_monitor/
// cache_monitor/system_monitor/alert_manager singletons).
type Registry struct {
	DB     *DatabaseMonitor
	Cache  *CacheMonitor
	System *SystemMonitor
	Alerts *AlertManager

	log *zap.Logger
}

func NewRegistry(slowThreshold time.Duration, log *zap.Logger, reg prometheus.Registerer) *Registry {
	return &Registry{
		DB:     NewDatabaseMonitor(slowThreshold, reg),
		Cache:  NewCacheMonitor(reg),
		System: NewSystemMonitor(log, reg),
		Alerts: NewAlertManager(DefaultThresholds(), log),
		log:    log,
	}
}

// Run starts the system sampler and, on every sample, feeds it and the
// current cache hit ratio into the alert manager.
func (r *Registry) Run(ctx context.Context, sampleInterval time.Duration) {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			perf := r.DB.PerformanceSummary()
			r.System.UpdateDatabaseMetrics(0, 0, perf.ErrorRate)
			cacheStats := r.Cache.Statistics()
			r.System.UpdateCacheMetrics(cacheStats.HitRatio)
			r.System.sample()
			if sample, ok := r.System.Current(); ok {
				r.Alerts.CheckThresholds(sample, cacheStats.HitRatio)
			}
		}
	}
}

// ComprehensiveMetrics is the payload for GET /api/v1/monitoring/metrics/realtime,
// and the source the health and metrics/summary endpoints draw from.
type ComprehensiveMetrics struct {
	Database PerformanceSummary `json:"database"`
	Cache    CacheStatistics    `json:"cache"`
	System   *SystemSample      `json:"system,omitempty"`
	Alerts   []Alert            `json:"active_alerts"`
}

func (r *Registry) ComprehensiveMetrics() ComprehensiveMetrics {
	m := ComprehensiveMetrics{
		Database: r.DB.PerformanceSummary(),
		Cache:    r.Cache.Statistics(),
		Alerts:   r.Alerts.ActiveAlerts(),
	}
	if sample, ok := r.System.Current(); ok {
		m.System = &sample
	}
	return m
}
