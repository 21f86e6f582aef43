package ratelimit

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// MemoryRateLimiter implements RateLimiter with per-process token buckets.
// Buckets hold BurstSize tokens and refill at RequestsPerMinute.
type MemoryRateLimiter struct {
	config       *Config
	stats        *RateLimiterStats
	customLimits map[string]map[string]RateLimit // clientID -> endpoint -> limit
	tokens       map[string]*TokenBucket         // clientID:endpoint -> bucket
	mu           sync.RWMutex
	now          func() time.Time
	ctx          context.Context
	cancel       context.CancelFunc
}

// NewMemoryRateLimiter creates a new in-memory rate limiter
func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	limiter := &MemoryRateLimiter{
		config:       config,
		stats:        &RateLimiterStats{},
		customLimits: make(map[string]map[string]RateLimit),
		tokens:       make(map[string]*TokenBucket),
		now:          time.Now,
		ctx:          ctx,
		cancel:       cancel,
	}

	go limiter.cleanupExpiredTokens()

	return limiter
}

// Allow checks if a request should be allowed based on rate limits
func (r *MemoryRateLimiter) Allow(clientID string, endpoint string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.TotalRequests, 1)

	limit := r.Limit(clientID, endpoint)
	key := fmt.Sprintf("%s:%s", clientID, r.config.GetEndpointKey(endpoint))

	r.mu.Lock()
	defer r.mu.Unlock()

	bucket := r.getOrCreateTokenBucket(key, limit)
	now := r.now()

	elapsed := now.Sub(bucket.LastRefill)
	if elapsed > 0 {
		bucket.Tokens = math.Min(float64(bucket.Capacity), bucket.Tokens+float64(limit.RequestsPerMinute)*elapsed.Minutes())
		bucket.LastRefill = now
	}

	if bucket.Tokens >= 1 {
		bucket.Tokens--
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.BlockedRequests, 1)

	if limit.RequestsPerMinute <= 0 {
		return false, limit.WindowSize, nil
	}
	missing := 1 - bucket.Tokens
	wait := time.Duration(missing / float64(limit.RequestsPerMinute) * float64(time.Minute))
	return false, wait, nil
}

// Limit returns the custom limit for the client if one is set, otherwise the
// endpoint category's limit.
func (r *MemoryRateLimiter) Limit(clientID, endpoint string) RateLimit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if clientLimits, exists := r.customLimits[clientID]; exists {
		if limit, exists := clientLimits[endpoint]; exists {
			return limit
		}
	}
	return r.config.LimitFor(endpoint)
}

func (r *MemoryRateLimiter) getOrCreateTokenBucket(key string, limit RateLimit) *TokenBucket {
	if bucket, exists := r.tokens[key]; exists {
		return bucket
	}

	bucket := &TokenBucket{
		Capacity:   limit.BurstSize,
		Tokens:     float64(limit.BurstSize),
		RefillRate: limit.RequestsPerMinute,
		LastRefill: r.now(),
	}
	r.tokens[key] = bucket
	return bucket
}

// GetLimits returns the current rate limits for a client
func (r *MemoryRateLimiter) GetLimits(clientID string) map[string]RateLimit {
	limits := make(map[string]RateLimit, len(r.config.DefaultLimits))
	for category, limit := range r.config.DefaultLimits {
		limits[category] = limit
	}

	r.mu.RLock()
	for endpoint, limit := range r.customLimits[clientID] {
		limits[endpoint] = limit
	}
	r.mu.RUnlock()

	return limits
}

// SetCustomLimit sets a custom rate limit for a specific client and endpoint
func (r *MemoryRateLimiter) SetCustomLimit(clientID string, endpoint string, limit RateLimit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.customLimits[clientID] == nil {
		r.customLimits[clientID] = make(map[string]RateLimit)
	}
	r.customLimits[clientID][endpoint] = limit

	// the next request starts a bucket sized for the new limit
	delete(r.tokens, fmt.Sprintf("%s:%s", clientID, r.config.GetEndpointKey(endpoint)))
	return nil
}

// GetStats returns current rate limiter statistics
func (r *MemoryRateLimiter) GetStats() RateLimiterStats {
	stats := RateLimiterStats{
		TotalRequests:   atomic.LoadInt64(&r.stats.TotalRequests),
		BlockedRequests: atomic.LoadInt64(&r.stats.BlockedRequests),
	}

	r.mu.RLock()
	clients := make(map[string]struct{})
	for key := range r.tokens {
		clients[clientOf(key)] = struct{}{}
	}
	r.mu.RUnlock()
	stats.ActiveClients = len(clients)

	if stats.TotalRequests > 0 {
		stats.BlockedPercent = float64(stats.BlockedRequests) / float64(stats.TotalRequests) * 100
	}
	return stats
}

// Close stops the cleanup goroutine.
func (r *MemoryRateLimiter) Close() {
	r.cancel()
}

// cleanupExpiredTokens drops buckets idle for more than an hour
func (r *MemoryRateLimiter) cleanupExpiredTokens() {
	interval := r.config.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			now := r.now()
			for key, bucket := range r.tokens {
				if now.Sub(bucket.LastRefill) > time.Hour {
					delete(r.tokens, key)
				}
			}
			r.mu.Unlock()
		}
	}
}

// clientOf strips the trailing ":category" from a bucket key. Client ids may
// themselves contain colons.
func clientOf(key string) string {
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
