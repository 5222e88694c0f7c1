package queryapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPerKeyLimiterAllowsUpToBurst(t *testing.T) {
	l := newPerKeyLimiter(5)
	allowed := 0
	for i := 0; i < 10; i++ {
		if l.allow("1.2.3.4") {
			allowed++
		}
	}
	assert.LessOrEqual(t, allowed, 5)
	assert.Greater(t, allowed, 0)
}

func TestPerKeyLimiterTracksKeysIndependently(t *testing.T) {
	l := newPerKeyLimiter(1)
	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("b"))
}

func TestRateLimitersUnknownGroupAllows(t *testing.T) {
	r := NewRateLimiters()
	assert.True(t, r.Allow("nonexistent", "1.2.3.4"))
}

func TestRateLimitersEnforcesConfiguredGroup(t *testing.T) {
	r := NewRateLimiters()
	allowed := 0
	for i := 0; i < EndpointLimits["advanced"]+5; i++ {
		if r.Allow("advanced", "5.5.5.5") {
			allowed++
		}
	}
	assert.LessOrEqual(t, allowed, EndpointLimits["advanced"])
}
