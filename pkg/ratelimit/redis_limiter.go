package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fuel-tracker/pkg/logger"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// fixedWindowScript counts requests in a window that opens on the first
// request and lasts window_ms. It returns {allowed, ms until the window closes}.
var fixedWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local burst_size = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])

	local count = tonumber(redis.call('HGET', key, 'count')) or 0
	local window_start = tonumber(redis.call('HGET', key, 'window_start')) or now

	if now - window_start >= window_ms then
		count = 0
		window_start = now
	end

	local allowed = count < burst_size
	if allowed then
		count = count + 1
	end

	local reset_ms = 0
	if not allowed then
		reset_ms = (window_start + window_ms) - now
	end

	redis.call('HSET', key, 'count', count, 'window_start', window_start)
	redis.call('PEXPIRE', key, window_ms + 1000)

	return {allowed and 1 or 0, reset_ms}
`)

// RedisRateLimiter implements RateLimiter using Redis as the backend, so the
// limit is shared by every server instance.
type RedisRateLimiter struct {
	client       *redis.Client
	config       *Config
	stats        *RateLimiterStats
	customLimits map[string]map[string]RateLimit // clientID -> endpoint -> limit
	mu           sync.RWMutex
	now          func() time.Time
	ctx          context.Context
	log          *log.Entry
}

// NewRedisRateLimiter creates a new Redis-backed rate limiter
func NewRedisRateLimiter(client *redis.Client, config *Config) *RedisRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	return &RedisRateLimiter{
		client:       client,
		config:       config,
		stats:        &RateLimiterStats{},
		customLimits: make(map[string]map[string]RateLimit),
		now:          time.Now,
		ctx:          context.Background(),
		log:          logger.For(logger.ComponentRateLimit),
	}
}

// Allow checks if a request should be allowed based on rate limits
func (r *RedisRateLimiter) Allow(clientID string, endpoint string) (bool, time.Duration, error) {
	if !r.config.Enabled {
		return true, 0, nil
	}

	atomic.AddInt64(&r.stats.TotalRequests, 1)

	limit := r.Limit(clientID, endpoint)
	key := fmt.Sprintf("%s%s:%s", r.config.RedisKeyPrefix, clientID, r.config.GetEndpointKey(endpoint))

	allowed, resetTime, err := r.checkWindow(key, limit)
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	if !allowed {
		atomic.AddInt64(&r.stats.BlockedRequests, 1)
		return false, resetTime, nil
	}

	return true, 0, nil
}

func (r *RedisRateLimiter) checkWindow(key string, limit RateLimit) (bool, time.Duration, error) {
	result, err := fixedWindowScript.Run(r.ctx, r.client, []string{key},
		limit.BurstSize,
		limit.WindowSize.Milliseconds(),
		r.now().UnixMilli(),
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(result) != 2 {
		return false, 0, fmt.Errorf("unexpected script result length %d", len(result))
	}

	return result[0] == 1, time.Duration(result[1]) * time.Millisecond, nil
}

// Limit returns the custom limit for the client if one is set, otherwise the
// endpoint category's limit.
func (r *RedisRateLimiter) Limit(clientID, endpoint string) RateLimit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if clientLimits, exists := r.customLimits[clientID]; exists {
		if limit, exists := clientLimits[endpoint]; exists {
			return limit
		}
	}
	return r.config.LimitFor(endpoint)
}

// GetLimits returns the current rate limits for a client
func (r *RedisRateLimiter) GetLimits(clientID string) map[string]RateLimit {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limits := make(map[string]RateLimit, len(r.config.DefaultLimits))
	for category, limit := range r.config.DefaultLimits {
		limits[category] = limit
	}
	for endpoint, limit := range r.customLimits[clientID] {
		limits[endpoint] = limit
	}

	return limits
}

// SetCustomLimit sets a custom rate limit for a specific client and endpoint
// and persists the client's overrides for a day.
func (r *RedisRateLimiter) SetCustomLimit(clientID string, endpoint string, limit RateLimit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.customLimits[clientID] == nil {
		r.customLimits[clientID] = make(map[string]RateLimit)
	}
	r.customLimits[clientID][endpoint] = limit

	data, err := json.Marshal(r.customLimits[clientID])
	if err != nil {
		return fmt.Errorf("failed to marshal custom limits: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(r.ctx, r.customKey(clientID), data, 24*time.Hour)
	pipe.Del(r.ctx, fmt.Sprintf("%s%s:%s", r.config.RedisKeyPrefix, clientID, r.config.GetEndpointKey(endpoint)))
	if _, err := pipe.Exec(r.ctx); err != nil {
		return fmt.Errorf("failed to persist custom limits: %w", err)
	}

	return nil
}

// GetStats returns current rate limiter statistics. ActiveClients counts
// clients with a live window in Redis.
func (r *RedisRateLimiter) GetStats() RateLimiterStats {
	stats := RateLimiterStats{
		TotalRequests:   atomic.LoadInt64(&r.stats.TotalRequests),
		BlockedRequests: atomic.LoadInt64(&r.stats.BlockedRequests),
	}
	if stats.TotalRequests > 0 {
		stats.BlockedPercent = float64(stats.BlockedRequests) / float64(stats.TotalRequests) * 100
	}

	clients := make(map[string]struct{})
	customPrefix := r.customKey("")
	iter := r.client.Scan(r.ctx, 0, r.config.RedisKeyPrefix+"*", 100).Iterator()
	for iter.Next(r.ctx) {
		key := iter.Val()
		if strings.HasPrefix(key, customPrefix) {
			continue
		}
		clients[clientOf(strings.TrimPrefix(key, r.config.RedisKeyPrefix))] = struct{}{}
	}
	if err := iter.Err(); err != nil {
		r.log.WithError(err).Warn("Failed to count active rate limit clients")
	}
	stats.ActiveClients = len(clients)

	return stats
}

// LoadCustomLimits loads persisted custom limits, typically on startup.
func (r *RedisRateLimiter) LoadCustomLimits() error {
	prefix := r.customKey("")
	iter := r.client.Scan(r.ctx, 0, prefix+"*", 100).Iterator()

	r.mu.Lock()
	defer r.mu.Unlock()

	loaded := 0
	for iter.Next(r.ctx) {
		key := iter.Val()
		clientID := strings.TrimPrefix(key, prefix)

		data, err := r.client.Get(r.ctx, key).Bytes()
		if err != nil {
			r.log.WithError(err).WithField("key", key).Warn("Skipping unreadable custom limits")
			continue
		}

		var limits map[string]RateLimit
		if err := json.Unmarshal(data, &limits); err != nil {
			r.log.WithError(err).WithField("key", key).Warn("Skipping malformed custom limits")
			continue
		}

		r.customLimits[clientID] = limits
		loaded++
	}

	if loaded > 0 {
		r.log.WithField("clients", loaded).Info("Loaded custom rate limits")
	}
	return iter.Err()
}

func (r *RedisRateLimiter) customKey(clientID string) string {
	return r.config.RedisKeyPrefix + "custom:" + clientID
}
