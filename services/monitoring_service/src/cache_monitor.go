package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type cacheHourBucket struct {
	Hits, Misses, Sets, Deletes int64
}

// CacheMonitor tracks hit/miss/set/delete counts for the two-tier cache (F).
type CacheMonitor struct {
	mu sync.Mutex

	hits, misses, sets, deletes int64
	hourly                      map[string]*cacheHourBucket

	promHits   prometheus.Counter
	promMisses prometheus.Counter
}

func NewCacheMonitor(reg prometheus.Registerer) *CacheMonitor {
	m := &CacheMonitor{
		hourly: make(map[string]*cacheHourBucket),
		promHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "priceintel_cache_hits_total", Help: "Cache hits.",
		}),
		promMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "priceintel_cache_misses_total", Help: "Cache misses.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.promHits, m.promMisses)
	}
	return m
}

func (m *CacheMonitor) bucket() *cacheHourBucket {
	key := time.Now().UTC().Format("2006-01-02-15")
	b := m.hourly[key]
	if b == nil {
		b = &cacheHourBucket{}
		m.hourly[key] = b
	}
	return b
}

func (m *CacheMonitor) RecordHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits++
	m.bucket().Hits++
	m.promHits.Inc()
}

func (m *CacheMonitor) RecordMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.misses++
	m.bucket().Misses++
	m.promMisses.Inc()
}

func (m *CacheMonitor) RecordSet() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.bucket().Sets++
}

func (m *CacheMonitor) RecordDelete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	m.bucket().Deletes++
}

// Statistics mirrors get_cache_statistics's shape.
type CacheStatistics struct {
	CacheHits           int64   `json:"cache_hits"`
	CacheMisses         int64   `json:"cache_misses"`
	HitRatio            float64 `json:"hit_ratio"`
	TotalOperations     int64   `json:"total_operations"`
	CacheSets           int64   `json:"cache_sets"`
	CacheDeletes        int64   `json:"cache_deletes"`
	HitsLastHour        int64   `json:"hits_last_hour"`
	MissesLastHour      int64   `json:"misses_last_hour"`
	HitRatioLastHour    float64 `json:"hit_ratio_last_hour"`
}

func (m *CacheMonitor) Statistics() CacheStatistics {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := m.hits + m.misses
	var hitRatio float64
	if total > 0 {
		hitRatio = float64(m.hits) / float64(total)
	}

	recent := m.hourly[time.Now().UTC().Format("2006-01-02-15")]
	var recentHits, recentMisses int64
	var recentRatio float64
	if recent != nil {
		recentHits, recentMisses = recent.Hits, recent.Misses
		if recentHits+recentMisses > 0 {
			recentRatio = float64(recentHits) / float64(recentHits+recentMisses)
		}
	}

	return CacheStatistics{
		CacheHits: m.hits, CacheMisses: m.misses, HitRatio: hitRatio, TotalOperations: total,
		CacheSets: m.sets, CacheDeletes: m.deletes,
		HitsLastHour: recentHits, MissesLastHour: recentMisses, HitRatioLastHour: recentRatio,
	}
}
