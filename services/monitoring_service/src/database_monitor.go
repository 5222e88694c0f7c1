// Package monitoring implements the observability core:
// DatabaseMonitor, CacheMonitor, SystemMonitor, and AlertManager, each a
// mutex-protected ring buffer/counter set mirrored into Prometheus gauges.
// Grounded on original_source/app/core/monitoring.py's four classes, with
// the PricingMetrics/ControllerMetrics struct-under-mutex idiom used elsewhere in this codebase
// for the Go translation.
package monitoring

import (
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/quickdeals/price-intel/common/models"
)

const (
	queryHistoryCap = 10000
	slowQueryCap    = 1000
	errorQueryCap   = 1000
)

type hourBucket struct {
	Queries   int64
	Errors    int64
	TotalTime time.Duration
}

// DatabaseMonitor tracks every executed statement's latency and outcome.
type DatabaseMonitor struct {
	mu sync.Mutex

	queryHistory []models.QueryMetric
	slowQueries  []models.QueryMetric
	errorQueries []models.QueryMetric

	totalQueries int64
	totalErrors  int64
	threshold    time.Duration

	hourlyStats map[string]*hourBucket

	promQueries  prometheus.Counter
	promErrors   prometheus.Counter
	promDuration prometheus.Histogram
}

func NewDatabaseMonitor(slowThreshold time.Duration, reg prometheus.Registerer) *DatabaseMonitor {
	m := &DatabaseMonitor{
		threshold:   slowThreshold,
		hourlyStats: make(map[string]*hourBucket),
		promQueries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "priceintel_db_queries_total", Help: "Total database queries executed.",
		}),
		promErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "priceintel_db_query_errors_total", Help: "Total database query errors.",
		}),
		promDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "priceintel_db_query_duration_seconds", Help: "Database query duration.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(m.promQueries, m.promErrors, m.promDuration)
	}
	return m
}

// RecordQuery is the instrumentation hook common/db.DB.SetQueryHook wires in.
func (m *DatabaseMonitor) RecordQuery(sqlText string, dur time.Duration, rows int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	metric := models.QueryMetric{
		SQL: sqlText, ExecutionTime: dur, Timestamp: now,
		Success: err == nil, RowsAffected: rows,
	}
	if err != nil {
		metric.ErrorMessage = err.Error()
	}

	m.queryHistory = appendBounded(m.queryHistory, metric, queryHistoryCap)
	m.totalQueries++
	m.promQueries.Inc()
	m.promDuration.Observe(dur.Seconds())

	if err != nil {
		m.errorQueries = appendBounded(m.errorQueries, metric, errorQueryCap)
		m.totalErrors++
		m.promErrors.Inc()
	}
	if dur >= m.threshold {
		m.slowQueries = appendBounded(m.slowQueries, metric, slowQueryCap)
	}

	hourKey := now.Format("2006-01-02-15")
	b := m.hourlyStats[hourKey]
	if b == nil {
		b = &hourBucket{}
		m.hourlyStats[hourKey] = b
	}
	b.Queries++
	b.TotalTime += dur
	if err != nil {
		b.Errors++
	}
}

// PerformanceSummary mirrors get_performance_summary's shape.
type PerformanceSummary struct {
	TotalQueries      int64   `json:"total_queries"`
	TotalErrors       int64   `json:"total_errors"`
	ErrorRate         float64 `json:"error_rate"`
	AvgExecutionTime  float64 `json:"avg_execution_time_seconds"`
	QueriesLastHour   int     `json:"queries_last_hour"`
	ErrorsLastHour    int     `json:"errors_last_hour"`
	AvgResponseTime   float64 `json:"avg_response_time_seconds"`
}

func (m *DatabaseMonitor) PerformanceSummary() PerformanceSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queryHistory) == 0 {
		return PerformanceSummary{}
	}

	var total time.Duration
	for _, q := range m.queryHistory {
		total += q.ExecutionTime
	}
	avg := total.Seconds() / float64(len(m.queryHistory))

	var errorRate float64
	if m.totalQueries > 0 {
		errorRate = float64(m.totalErrors) / float64(m.totalQueries)
	}

	oneHourAgo := time.Now().UTC().Add(-time.Hour)
	var recentTotal time.Duration
	var recentCount, recentErrors int
	for _, q := range m.queryHistory {
		if q.Timestamp.After(oneHourAgo) {
			recentCount++
			recentTotal += q.ExecutionTime
			if !q.Success {
				recentErrors++
			}
		}
	}
	var recentAvg float64
	if recentCount > 0 {
		recentAvg = recentTotal.Seconds() / float64(recentCount)
	}

	return PerformanceSummary{
		TotalQueries:     m.totalQueries,
		TotalErrors:      m.totalErrors,
		ErrorRate:        errorRate,
		AvgExecutionTime: avg,
		QueriesLastHour:  recentCount,
		ErrorsLastHour:   recentErrors,
		AvgResponseTime:  recentAvg,
	}
}

// SlowQueries returns the limit slowest recorded queries, most expensive first.
func (m *DatabaseMonitor) SlowQueries(limit int) []models.SlowQueryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := make([]models.SlowQueryRecord, len(m.slowQueries))
	copy(sorted, m.slowQueries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ExecutionTime > sorted[j].ExecutionTime })
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}

// OptimizationSuggestions mirrors get_query_optimization_suggestions.
func (m *DatabaseMonitor) OptimizationSuggestions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var suggestions []string
	if len(m.slowQueries) > 5 {
		suggestions = append(suggestions, "Consider adding indexes for frequently slow queries")
	}
	var errorRate float64
	if m.totalQueries > 0 {
		errorRate = float64(m.totalErrors) / float64(m.totalQueries)
	}
	if errorRate > 0.05 {
		suggestions = append(suggestions, "High error rate detected - review query validation")
	}
	return suggestions
}

func appendBounded(slice []models.QueryMetric, item models.QueryMetric, cap int) []models.QueryMetric {
	slice = append(slice, item)
	if len(slice) > cap {
		slice = slice[len(slice)-cap:]
	}
	return slice
}
