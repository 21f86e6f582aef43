package ratelimit

import (
	"time"
)

// RateLimiter defines the interface for rate limiting functionality
type RateLimiter interface {
	// Allow consumes one request for clientID on endpoint ("METHOD:/path").
	// When denied it also returns how long until the next request may pass.
	Allow(clientID string, endpoint string) (bool, time.Duration, error)
	// Limit is the limit that applies to clientID on endpoint.
	Limit(clientID string, endpoint string) RateLimit
	GetLimits(clientID string) map[string]RateLimit
	SetCustomLimit(clientID string, endpoint string, limit RateLimit) error
	GetStats() RateLimiterStats
}

// RateLimit defines the configuration for rate limiting
type RateLimit struct {
	RequestsPerMinute int           `json:"requestsPerMinute"`
	BurstSize         int           `json:"burstSize"`
	WindowSize        time.Duration `json:"windowSize"`
}

// RateLimiterStats provides statistics about rate limiting
type RateLimiterStats struct {
	TotalRequests   int64   `json:"totalRequests"`
	BlockedRequests int64   `json:"blockedRequests"`
	BlockedPercent  float64 `json:"blockedPercent"`
	ActiveClients   int     `json:"activeClients"`
}

// TokenBucket represents a token bucket for rate limiting
type TokenBucket struct {
	Capacity   int       `json:"capacity"`
	Tokens     float64   `json:"tokens"`
	RefillRate int       `json:"refillRate"`
	LastRefill time.Time `json:"lastRefill"`
}
