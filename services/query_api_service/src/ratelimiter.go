package queryapi

import (
	"sync"

	"golang.org/x/time/rate"
)

// EndpointLimits is the per-route limit table, expressed as
// requests per minute.
var EndpointLimits = map[string]int{
	"query":      10,
	"advanced":   5,
	"compare":    20,
	"deals":      30,
}

// perKeyLimiter is a token-bucket rate limiter keyed by remote address, one
// bucket set per named endpoint group: a map[string]*rate.Limiter behind a
// mutex, one bucket per key, simplified down to a fixed per-minute token
// bucket rather than an adaptive-RPS scheme.
type perKeyLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func newPerKeyLimiter(perMinute int) *perKeyLimiter {
	return &perKeyLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}
}

func (l *perKeyLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[key] = lim
	}
	return lim.Allow()
}

// RateLimiters holds one perKeyLimiter per endpoint group named in
// EndpointLimits.
type RateLimiters struct {
	groups map[string]*perKeyLimiter
}

func NewRateLimiters() *RateLimiters {
	groups := make(map[string]*perKeyLimiter, len(EndpointLimits))
	for name, perMinute := range EndpointLimits {
		groups[name] = newPerKeyLimiter(perMinute)
	}
	return &RateLimiters{groups: groups}
}

func (r *RateLimiters) Allow(group, remoteAddr string) bool {
	g, ok := r.groups[group]
	if !ok {
		return true
	}
	return g.allow(remoteAddr)
}
