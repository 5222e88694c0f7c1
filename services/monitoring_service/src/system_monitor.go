package monitoring

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

const systemHistoryCap = 1440 // one sample per minute, 24h of history

// SystemSample is one point-in-time resource reading, mirroring
// monitoring.py's SystemMetrics dataclass.
type SystemSample struct {
	Timestamp         time.Time `json:"timestamp"`
	CPUPercent        float64   `json:"cpu_percent"`
	MemoryPercent     float64   `json:"memory_percent"`
	DiskUsagePercent  float64   `json:"disk_usage_percent"`
	ActiveConnections int       `json:"active_connections"`
	QueriesPerMinute  float64   `json:"queries_per_minute"`
	CacheHitRatio     float64   `json:"cache_hit_ratio"`
	ErrorRate         float64   `json:"error_rate"`
}

// SystemMonitor samples host resource usage on an interval via gopsutil,
// replacing monitoring.py's psutil-based _collect_system_metrics.
type SystemMonitor struct {
	mu      sync.Mutex
	history []SystemSample

	activeConnections int
	queriesPerMinute  float64
	cacheHitRatio     float64
	errorRate         float64

	promCPU    prometheus.Gauge
	promMemory prometheus.Gauge
	promDisk   prometheus.Gauge

	log *zap.Logger
}

func NewSystemMonitor(log *zap.Logger, reg prometheus.Registerer) *SystemMonitor {
	m := &SystemMonitor{
		log: log,
		promCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "priceintel_system_cpu_percent", Help: "Host CPU utilization percent.",
		}),
		promMemory: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "priceintel_system_memory_percent", Help: "Host memory utilization percent.",
		}),
		promDisk: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "priceintel_system_disk_percent", Help: "Root filesystem utilization percent.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.promCPU, m.promMemory, m.promDisk)
	}
	return m
}

// UpdateDatabaseMetrics feeds the values the DatabaseMonitor (H) produces
// into the next system sample, mirroring update_database_metrics.
func (m *SystemMonitor) UpdateDatabaseMetrics(activeConnections int, queriesPerMinute, errorRate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeConnections = activeConnections
	m.queriesPerMinute = queriesPerMinute
	m.errorRate = errorRate
}

// UpdateCacheMetrics feeds the CacheMonitor's hit ratio into the next sample.
func (m *SystemMonitor) UpdateCacheMetrics(hitRatio float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cacheHitRatio = hitRatio
}

// Run samples host metrics every interval until ctx is cancelled.
func (m *SystemMonitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *SystemMonitor) sample() {
	sample := SystemSample{Timestamp: time.Now().UTC()}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		sample.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		sample.MemoryPercent = vm.UsedPercent
	}
	if du, err := disk.Usage("/"); err == nil {
		sample.DiskUsagePercent = du.UsedPercent
	}

	m.mu.Lock()
	sample.ActiveConnections = m.activeConnections
	sample.QueriesPerMinute = m.queriesPerMinute
	sample.CacheHitRatio = m.cacheHitRatio
	sample.ErrorRate = m.errorRate

	m.history = append(m.history, sample)
	if len(m.history) > systemHistoryCap {
		m.history = m.history[len(m.history)-systemHistoryCap:]
	}
	m.mu.Unlock()

	m.promCPU.Set(sample.CPUPercent)
	m.promMemory.Set(sample.MemoryPercent)
	m.promDisk.Set(sample.DiskUsagePercent)

	if sample.CPUPercent > 80 {
		m.log.Warn("high CPU usage", zap.Float64("cpu_percent", sample.CPUPercent))
	}
	if sample.MemoryPercent > 85 {
		m.log.Warn("high memory usage", zap.Float64("memory_percent", sample.MemoryPercent))
	}
}

// Current returns the most recent sample, if any.
func (m *SystemMonitor) Current() (SystemSample, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.history) == 0 {
		return SystemSample{}, false
	}
	return m.history[len(m.history)-1], true
}

// MetricsSummary aggregates over the trailing window, mirroring
// get_metrics_summary.
type MetricsSummary struct {
	PeriodHours int     `json:"period_hours"`
	DataPoints  int     `json:"data_points"`
	CPUAvg      float64 `json:"cpu_avg"`
	CPUMax      float64 `json:"cpu_max"`
	CPUMin      float64 `json:"cpu_min"`
	MemoryAvg   float64 `json:"memory_avg"`
	MemoryMax   float64 `json:"memory_max"`
	MemoryMin   float64 `json:"memory_min"`
}

func (m *SystemMonitor) MetricsSummary(hours int) MetricsSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	var recent []SystemSample
	for _, s := range m.history {
		if s.Timestamp.After(cutoff) {
			recent = append(recent, s)
		}
	}
	if len(recent) == 0 {
		return MetricsSummary{PeriodHours: hours}
	}

	summary := MetricsSummary{
		PeriodHours: hours,
		DataPoints:  len(recent),
		CPUMin:      recent[0].CPUPercent,
		CPUMax:      recent[0].CPUPercent,
		MemoryMin:   recent[0].MemoryPercent,
		MemoryMax:   recent[0].MemoryPercent,
	}
	var cpuSum, memSum float64
	for _, s := range recent {
		cpuSum += s.CPUPercent
		memSum += s.MemoryPercent
		if s.CPUPercent > summary.CPUMax {
			summary.CPUMax = s.CPUPercent
		}
		if s.CPUPercent < summary.CPUMin {
			summary.CPUMin = s.CPUPercent
		}
		if s.MemoryPercent > summary.MemoryMax {
			summary.MemoryMax = s.MemoryPercent
		}
		if s.MemoryPercent < summary.MemoryMin {
			summary.MemoryMin = s.MemoryPercent
		}
	}
	summary.CPUAvg = cpuSum / float64(len(recent))
	summary.MemoryAvg = memSum / float64(len(recent))
	return summary
}
