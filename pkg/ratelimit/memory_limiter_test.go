package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMemoryLimiter(t *testing.T, config *Config) (*MemoryRateLimiter, func(time.Duration)) {
	limiter := NewMemoryRateLimiter(config)
	t.Cleanup(limiter.Close)

	var mu sync.Mutex
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	return limiter, func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}
}

func TestMemoryRateLimiter_Burst(t *testing.T) {
	config := DefaultConfig()
	config.DefaultLimits["auth_login"] = RateLimit{RequestsPerMinute: 4, BurstSize: 3, WindowSize: time.Minute}

	limiter, _ := newTestMemoryLimiter(t, config)

	for i := 0; i < 3; i++ {
		allowed, _, err := limiter.Allow("anon:1.2.3.4", "POST:/api/v1/auth/login")
		require.NoError(t, err)
		assert.True(t, allowed, "Request %d should be allowed", i+1)
	}

	allowed, wait, err := limiter.Allow("anon:1.2.3.4", "POST:/api/v1/auth/login")
	require.NoError(t, err)
	assert.False(t, allowed)
	// 4 per minute refills one token every 15 seconds
	assert.Equal(t, 15*time.Second, wait)
}

func TestMemoryRateLimiter_Refill(t *testing.T) {
	config := DefaultConfig()
	config.DefaultLimits["default"] = RateLimit{RequestsPerMinute: 2, BurstSize: 2, WindowSize: time.Minute}

	limiter, advance := newTestMemoryLimiter(t, config)

	for i := 0; i < 2; i++ {
		allowed, _, _ := limiter.Allow("client", testEndpoint)
		require.True(t, allowed)
	}
	allowed, _, _ := limiter.Allow("client", testEndpoint)
	require.False(t, allowed)

	advance(15 * time.Second)
	allowed, wait, _ := limiter.Allow("client", testEndpoint)
	assert.False(t, allowed, "half a token is not enough")
	assert.Equal(t, 15*time.Second, wait)

	advance(15 * time.Second)
	allowed, _, _ = limiter.Allow("client", testEndpoint)
	assert.True(t, allowed)

	// refill never exceeds the burst
	advance(time.Hour)
	for i := 0; i < 2; i++ {
		allowed, _, _ = limiter.Allow("client", testEndpoint)
		assert.True(t, allowed)
	}
	allowed, _, _ = limiter.Allow("client", testEndpoint)
	assert.False(t, allowed)
}

func TestMemoryRateLimiter_CustomLimitResetsBucket(t *testing.T) {
	config := DefaultConfig()
	config.DefaultLimits["reports"] = RateLimit{RequestsPerMinute: 1, BurstSize: 1, WindowSize: time.Minute}

	limiter, _ := newTestMemoryLimiter(t, config)
	endpoint := "GET:/api/v1/reports/pdf"

	allowed, _, _ := limiter.Allow("user:1", endpoint)
	require.True(t, allowed)
	allowed, _, _ = limiter.Allow("user:1", endpoint)
	require.False(t, allowed)

	custom := RateLimit{RequestsPerMinute: 10, BurstSize: 4, WindowSize: time.Minute}
	require.NoError(t, limiter.SetCustomLimit("user:1", endpoint, custom))
	assert.Equal(t, custom, limiter.Limit("user:1", endpoint))
	assert.Equal(t, custom, limiter.GetLimits("user:1")[endpoint])

	for i := 0; i < 4; i++ {
		allowed, _, _ = limiter.Allow("user:1", endpoint)
		assert.True(t, allowed, "Request %d should be allowed with custom limit", i+1)
	}
	allowed, _, _ = limiter.Allow("user:1", endpoint)
	assert.False(t, allowed)
}

func TestMemoryRateLimiter_Disabled(t *testing.T) {
	config := DefaultConfig()
	config.Enabled = false

	limiter, _ := newTestMemoryLimiter(t, config)

	for i := 0; i < 20; i++ {
		allowed, _, err := limiter.Allow("client", "POST:/api/v1/auth/login")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestMemoryRateLimiter_GetStats(t *testing.T) {
	config := DefaultConfig()
	config.DefaultLimits["default"] = RateLimit{RequestsPerMinute: 5, BurstSize: 1, WindowSize: time.Minute}

	limiter, _ := newTestMemoryLimiter(t, config)

	limiter.Allow("user:a", testEndpoint)
	limiter.Allow("user:a", testEndpoint)
	limiter.Allow("anon:10.0.0.1", testEndpoint)
	limiter.Allow("anon:10.0.0.1", "GET:/api/v1/health")

	stats := limiter.GetStats()
	assert.Equal(t, int64(4), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.BlockedRequests)
	assert.Equal(t, 25.0, stats.BlockedPercent)
	assert.Equal(t, 2, stats.ActiveClients)
}

func TestClientOf(t *testing.T) {
	assert.Equal(t, "anon:10.0.0.1", clientOf("anon:10.0.0.1:fuel"))
	assert.Equal(t, "plain", clientOf("plain"))
}
