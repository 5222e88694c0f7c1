package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestDatabaseMonitorRecordsSlowAndErrorQueries(t *testing.T) {
	m := NewDatabaseMonitor(10*time.Millisecond, nil)
	m.RecordQuery("SELECT 1", 1*time.Millisecond, 1, nil)
	m.RecordQuery("SELECT slow", 50*time.Millisecond, 1, nil)
	m.RecordQuery("SELECT bad", 1*time.Millisecond, 0, errors.New("boom"))

	summary := m.PerformanceSummary()
	assert.Equal(t, int64(3), summary.TotalQueries)
	assert.Equal(t, int64(1), summary.TotalErrors)
	assert.InDelta(t, 1.0/3.0, summary.ErrorRate, 0.001)

	slow := m.SlowQueries(10)
	assert.Len(t, slow, 1)
	assert.Equal(t, "SELECT slow", slow[0].SQL)
}

func TestDatabaseMonitorOptimizationSuggestions(t *testing.T) {
	m := NewDatabaseMonitor(time.Millisecond, nil)
	for i := 0; i < 6; i++ {
		m.RecordQuery("SELECT x", 5*time.Millisecond, 1, nil)
	}
	suggestions := m.OptimizationSuggestions()
	assert.Contains(t, suggestions, "Consider adding indexes for frequently slow queries")
}

func TestCacheMonitorHitRatio(t *testing.T) {
	m := NewCacheMonitor(nil)
	m.RecordHit()
	m.RecordHit()
	m.RecordMiss()
	stats := m.Statistics()
	assert.Equal(t, int64(2), stats.CacheHits)
	assert.Equal(t, int64(1), stats.CacheMisses)
	assert.InDelta(t, 2.0/3.0, stats.HitRatio, 0.001)
}

func TestAlertManagerDedupsWithinWindow(t *testing.T) {
	am := NewAlertManager(DefaultThresholds(), zap.NewNop())
	sample := SystemSample{CPUPercent: 95.0, ErrorRate: 0.01}
	am.CheckThresholds(sample, 0.9)
	am.CheckThresholds(sample, 0.9)
	assert.Len(t, am.ActiveAlerts(), 1)
}

func TestAlertManagerCacheHitRatioLow(t *testing.T) {
	am := NewAlertManager(DefaultThresholds(), zap.NewNop())
	am.CheckThresholds(SystemSample{}, 0.1)
	alerts := am.ActiveAlerts()
	assert.Len(t, alerts, 1)
	assert.Equal(t, "cache_hit_ratio_low", alerts[0].Type)
}

func TestSystemMonitorSummaryEmptyWithoutSamples(t *testing.T) {
	sm := NewSystemMonitor(zap.NewNop(), nil)
	summary := sm.MetricsSummary(1)
	assert.Equal(t, 0, summary.DataPoints)
}
