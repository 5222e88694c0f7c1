package monitoring

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Alert mirrors monitoring.py's alert dict shape.
type Alert struct {
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// Thresholds holds the four alerting limits the monitor checks samples against.
type Thresholds struct {
	CPUPercent      float64
	MemoryPercent   float64
	ErrorRate       float64
	CacheHitRatioMin float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{CPUPercent: 80.0, MemoryPercent: 85.0, ErrorRate: 0.05, CacheHitRatioMin: 0.7}
}

// AlertManager checks resource samples against thresholds and dedups
// repeated alerts within a 5-minute window, per _process_alert.
type AlertManager struct {
	mu         sync.Mutex
	thresholds Thresholds
	active     map[string]time.Time
	history    []Alert
	log        *zap.Logger
}

const alertHistoryCap = 1000

func NewAlertManager(thresholds Thresholds, log *zap.Logger) *AlertManager {
	return &AlertManager{
		thresholds: thresholds,
		active:     make(map[string]time.Time),
		log:        log,
	}
}

// CheckThresholds evaluates one system sample plus the current cache hit
// ratio against configured thresholds, raising alerts as needed.
func (a *AlertManager) CheckThresholds(sample SystemSample, cacheHitRatio float64) {
	var alerts []Alert
	if sample.CPUPercent > a.thresholds.CPUPercent {
		alerts = append(alerts, Alert{
			Type: "cpu_high", Severity: "warning",
			Message:   fmt.Sprintf("High CPU usage: %.1f%%", sample.CPUPercent),
			Value:     sample.CPUPercent, Threshold: a.thresholds.CPUPercent,
		})
	}
	if sample.MemoryPercent > a.thresholds.MemoryPercent {
		alerts = append(alerts, Alert{
			Type: "memory_high", Severity: "warning",
			Message:   fmt.Sprintf("High memory usage: %.1f%%", sample.MemoryPercent),
			Value:     sample.MemoryPercent, Threshold: a.thresholds.MemoryPercent,
		})
	}
	if sample.ErrorRate > a.thresholds.ErrorRate {
		alerts = append(alerts, Alert{
			Type: "error_rate_high", Severity: "critical",
			Message:   fmt.Sprintf("High error rate: %.2f%%", sample.ErrorRate*100),
			Value:     sample.ErrorRate, Threshold: a.thresholds.ErrorRate,
		})
	}
	if cacheHitRatio < a.thresholds.CacheHitRatioMin {
		alerts = append(alerts, Alert{
			Type: "cache_hit_ratio_low", Severity: "warning",
			Message:   fmt.Sprintf("Low cache hit ratio: %.1f%%", cacheHitRatio*100),
			Value:     cacheHitRatio, Threshold: a.thresholds.CacheHitRatioMin,
		})
	}
	for _, al := range alerts {
		a.process(al)
	}
}

func (a *AlertManager) process(alert Alert) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now().UTC()
	key := fmt.Sprintf("%s_%v", alert.Type, alert.Value)
	if last, ok := a.active[key]; ok && now.Sub(last) < 5*time.Minute {
		return
	}
	alert.Timestamp = now
	a.active[key] = now

	a.history = append(a.history, alert)
	if len(a.history) > alertHistoryCap {
		a.history = a.history[len(a.history)-alertHistoryCap:]
	}

	if alert.Severity == "critical" {
		a.log.Error("ALERT", zap.String("message", alert.Message))
	} else {
		a.log.Warn("ALERT", zap.String("message", alert.Message))
	}
}

// ActiveAlerts returns every alert raised in the last hour.
func (a *AlertManager) ActiveAlerts() []Alert {
	a.mu.Lock()
	defer a.mu.Unlock()

	cutoff := time.Now().UTC().Add(-time.Hour)
	var out []Alert
	for _, al := range a.history {
		if al.Timestamp.After(cutoff) {
			out = append(out, al)
		}
	}
	return out
}
