package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPRateLimiter_PerKey(t *testing.T) {
	l := NewIPRateLimiter(0.001, 1)
	defer l.Stop()

	assert.True(t, l.Allow("10.0.0.1"))
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))
}

func TestIPRateLimiter_EvictsIdle(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	defer l.Stop()

	now := time.Now()
	l.now = func() time.Time { return now }
	l.Allow("10.0.0.1")

	l.now = func() time.Time { return now.Add(limiterIdleTTL + time.Second) }
	l.Allow("10.0.0.2")
	l.evictIdle()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.visitors, "10.0.0.1")
	assert.Contains(t, l.visitors, "10.0.0.2")
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.0.2.7:5123"
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.RemoteAddr = "192.0.2.8"
	assert.Equal(t, "192.0.2.8", clientIP(req))
}

func TestStopIsIdempotent(t *testing.T) {
	l := NewIPRateLimiter(1, 1)
	l.Stop()
	l.Stop()
}
