package cache

import (
	"fuel-tracker/pkg/redis"
)

// NewCacheManager returns a Redis-backed manager, or nil when there is no
// Redis client. Services treat a nil manager as caching disabled.
func NewCacheManager(redisClient *redis.Client, config CacheConfig) CacheManager {
	if redisClient == nil {
		return nil
	}
	return NewRedisCacheManager(redisClient, config)
}
