package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"fuel-tracker/pkg/logger"
	"fuel-tracker/pkg/redis"

	redisClient "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisCacheManager implements CacheManager using Redis
type RedisCacheManager struct {
	client *redis.Client
	config CacheConfig
	stats  *cacheStats
	ctx    context.Context
	log    *log.Entry
}

// cacheStats tracks cache performance metrics
type cacheStats struct {
	mu            sync.RWMutex
	totalHits     int64
	totalMisses   int64
	evictionCount int64
}

// NewRedisCacheManager creates a new Redis-backed cache manager
func NewRedisCacheManager(client *redis.Client, config CacheConfig) *RedisCacheManager {
	return &RedisCacheManager{
		client: client,
		config: config,
		stats:  &cacheStats{},
		ctx:    context.Background(),
		log:    logger.For(logger.ComponentCache),
	}
}

func (r *RedisCacheManager) Get(key string, dest interface{}) (bool, error) {
	cacheKey := r.buildKey(key)

	data, err := r.client.GetClient().Get(r.ctx, cacheKey).Bytes()
	if err != nil {
		if errors.Is(err, redisClient.Nil) {
			r.recordMiss()
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s from cache: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("failed to unmarshal cached %s: %w", key, err)
	}

	r.recordHit()
	return true, nil
}

func (r *RedisCacheManager) Set(key string, value interface{}, ttl time.Duration, tags ...string) error {
	cacheKey := r.buildKey(key)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := r.client.GetClient().Set(r.ctx, cacheKey, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in cache: %w", key, err)
	}

	if len(tags) > 0 {
		if err := r.TagKey(key, tags...); err != nil {
			r.log.WithError(err).WithField(logger.FieldCacheKey, cacheKey).Warn("Failed to tag cache key")
		}
	}

	return nil
}

func (r *RedisCacheManager) Delete(key string) error {
	cacheKey := r.buildKey(key)

	if err := r.removeKeyTags(cacheKey); err != nil {
		r.log.WithError(err).WithField(logger.FieldCacheKey, cacheKey).Warn("Failed to remove tags for key")
	}

	return r.client.GetClient().Del(r.ctx, cacheKey).Err()
}

// TagKey associates tags with a cache key so InvalidateByTag can find it.
func (r *RedisCacheManager) TagKey(key string, tags ...string) error {
	if len(tags) == 0 {
		return nil
	}

	cacheKey := r.buildKey(key)
	ttl := r.config.maxTTL() * 2

	members := make([]interface{}, len(tags))
	for i, tag := range tags {
		members[i] = tag
	}

	pipe := r.client.GetClient().Pipeline()

	keyTagsKey := r.buildTagKey("key_tags", cacheKey)
	pipe.SAdd(r.ctx, keyTagsKey, members...)
	pipe.Expire(r.ctx, keyTagsKey, ttl)

	for _, tag := range tags {
		tagKeysKey := r.buildTagKey("tag_keys", tag)
		pipe.SAdd(r.ctx, tagKeysKey, cacheKey)
		pipe.Expire(r.ctx, tagKeysKey, ttl)
	}

	_, err := pipe.Exec(r.ctx)
	return err
}

// InvalidateByTag removes all keys associated with a tag
func (r *RedisCacheManager) InvalidateByTag(tag string) error {
	tagKeysKey := r.buildTagKey("tag_keys", tag)

	keys, err := r.client.GetClient().SMembers(r.ctx, tagKeysKey).Result()
	if err != nil {
		return fmt.Errorf("failed to get keys for tag %s: %w", tag, err)
	}

	if len(keys) == 0 {
		return nil
	}

	pipe := r.client.GetClient().Pipeline()
	for _, key := range keys {
		// drop the key from its other tags too
		if err := r.removeKeyTags(key); err != nil {
			r.log.WithError(err).WithField(logger.FieldCacheKey, key).Warn("Failed to remove tags for key")
		}
		pipe.Del(r.ctx, key)
	}
	pipe.Del(r.ctx, tagKeysKey)

	if _, err := pipe.Exec(r.ctx); err != nil {
		return fmt.Errorf("failed to invalidate keys for tag %s: %w", tag, err)
	}

	r.stats.mu.Lock()
	r.stats.evictionCount += int64(len(keys))
	r.stats.mu.Unlock()

	r.log.WithFields(log.Fields{"tag": tag, "keys": len(keys)}).Debug("Invalidated cache tag")
	return nil
}

// GetCacheStats returns cache performance statistics
func (r *RedisCacheManager) GetCacheStats() CacheStats {
	r.stats.mu.RLock()
	totalHits := r.stats.totalHits
	totalMisses := r.stats.totalMisses
	evictionCount := r.stats.evictionCount
	r.stats.mu.RUnlock()

	total := totalHits + totalMisses
	var hitRate, missRate float64
	if total > 0 {
		hitRate = float64(totalHits) / float64(total)
		missRate = float64(totalMisses) / float64(total)
	}

	var memoryUsage int64
	if info, err := r.client.GetClient().Info(r.ctx, "memory").Result(); err == nil {
		for _, line := range strings.Split(info, "\n") {
			if value, ok := strings.CutPrefix(strings.TrimSpace(line), "used_memory:"); ok {
				if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
					memoryUsage = parsed
				}
			}
		}
	}

	keyCount := 0
	iter := r.client.GetClient().Scan(r.ctx, 0, r.config.KeyPrefix+"*", 100).Iterator()
	for iter.Next(r.ctx) {
		keyCount++
	}

	return CacheStats{
		HitRate:       hitRate,
		MissRate:      missRate,
		MemoryUsage:   memoryUsage,
		KeyCount:      keyCount,
		EvictionCount: int(evictionCount),
		TotalHits:     totalHits,
		TotalMisses:   totalMisses,
	}
}

// HealthCheck verifies cache connectivity
func (r *RedisCacheManager) HealthCheck() error {
	return r.client.GetClient().Ping(r.ctx).Err()
}

func (r *RedisCacheManager) Close() error {
	return r.client.Close()
}

func (r *RedisCacheManager) buildKey(key string) string {
	return r.config.KeyPrefix + key
}

func (r *RedisCacheManager) buildTagKey(keyType, identifier string) string {
	return fmt.Sprintf("%s%s:%s", r.config.TagPrefix, keyType, identifier)
}

func (r *RedisCacheManager) recordHit() {
	r.stats.mu.Lock()
	r.stats.totalHits++
	r.stats.mu.Unlock()
}

func (r *RedisCacheManager) recordMiss() {
	r.stats.mu.Lock()
	r.stats.totalMisses++
	r.stats.mu.Unlock()
}

func (r *RedisCacheManager) removeKeyTags(cacheKey string) error {
	keyTagsKey := r.buildTagKey("key_tags", cacheKey)

	tags, err := r.client.GetClient().SMembers(r.ctx, keyTagsKey).Result()
	if err != nil {
		return err
	}

	pipe := r.client.GetClient().Pipeline()
	for _, tag := range tags {
		pipe.SRem(r.ctx, r.buildTagKey("tag_keys", tag), cacheKey)
	}
	pipe.Del(r.ctx, keyTagsKey)

	_, err = pipe.Exec(r.ctx)
	return err
}
