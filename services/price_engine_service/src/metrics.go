package priceengine

import (
	"sync"
	"time"

	"github.com/quickdeals/price-intel/common/models"
)

// Metrics tracks cumulative counters for the running engine; they are not
// exported to Prometheus. Shape follows UpdateMetrics in
// price_updater.py, adapted to Go's atomic-struct-under-mutex idiom the
// teacher uses for PricingMetrics/ControllerMetrics.
type Metrics struct {
	mu sync.Mutex

	TotalUpdates       int64
	SuccessfulUpdates  int64
	FailedUpdates      int64
	PriceIncreases     int64
	PriceDecreases     int64
	NewDiscounts       int64
	SurgePricingEvents int64
	ConflictsResolved  int64
	StartTime          time.Time
	LastUpdateTime     time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{StartTime: time.Now()}
}

// Snapshot is an immutable copy for safe export.
type Snapshot struct {
	TotalUpdates       int64   `json:"total_updates"`
	SuccessfulUpdates  int64   `json:"successful_updates"`
	FailedUpdates      int64   `json:"failed_updates"`
	PriceIncreases     int64   `json:"price_increases"`
	PriceDecreases     int64   `json:"price_decreases"`
	NewDiscounts       int64   `json:"new_discounts"`
	SurgePricingEvents int64   `json:"surge_pricing_events"`
	ConflictsResolved  int64   `json:"conflicts_resolved"`
	SuccessRate        float64 `json:"success_rate"`
	UpdatesPerMinute   float64 `json:"updates_per_minute"`
}

func (m *Metrics) recordBatch(batchSize int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TotalUpdates += batchSize
}

func (m *Metrics) recordSuccess(changeType models.ChangeType, hadDiscount, wasSurge, wasConflict bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessfulUpdates++
	m.LastUpdateTime = time.Now()
	if wasConflict {
		m.ConflictsResolved++
	}
	switch changeType {
	case models.ChangeIncrease:
		m.PriceIncreases++
	case models.ChangeDecrease:
		m.PriceDecreases++
	}
	if hadDiscount {
		m.NewDiscounts++
	}
	if wasSurge {
		m.SurgePricingEvents++
	}
}

func (m *Metrics) recordFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedUpdates++
}

func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var successRate, perMinute float64
	if m.TotalUpdates > 0 {
		successRate = float64(m.SuccessfulUpdates) / float64(m.TotalUpdates) * 100
	}
	minutes := time.Since(m.StartTime).Minutes()
	if minutes > 0 {
		perMinute = float64(m.TotalUpdates) / minutes
	}
	return Snapshot{
		TotalUpdates:       m.TotalUpdates,
		SuccessfulUpdates:  m.SuccessfulUpdates,
		FailedUpdates:      m.FailedUpdates,
		PriceIncreases:     m.PriceIncreases,
		PriceDecreases:     m.PriceDecreases,
		NewDiscounts:       m.NewDiscounts,
		SurgePricingEvents: m.SurgePricingEvents,
		ConflictsResolved:  m.ConflictsResolved,
		SuccessRate:        successRate,
		UpdatesPerMinute:   perMinute,
	}
}
