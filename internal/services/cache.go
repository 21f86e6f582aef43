package services

import (
	"time"

	"fuel-tracker/pkg/cache"
	"fuel-tracker/pkg/logger"

	log "github.com/sirupsen/logrus"
)

// cacheSupport is embedded by services that cache derived data. A nil manager
// disables caching.
type cacheSupport struct {
	cacheManager cache.CacheManager
	cacheConfig  cache.CacheConfig
}

func newCacheSupport() cacheSupport {
	return cacheSupport{cacheConfig: cache.DefaultCacheConfig()}
}

// SetCacheManager allows setting the cache manager for caching operations
func (c *cacheSupport) SetCacheManager(cacheManager cache.CacheManager) {
	c.cacheManager = cacheManager
}

// SetCacheConfig allows setting custom cache configuration
func (c *cacheSupport) SetCacheConfig(config cache.CacheConfig) {
	c.cacheConfig = config
}

// scopeTags tags a value scoped to one vehicle, or to all of the user's
// vehicles when vehicleID is empty.
func scopeTags(userID, vehicleID string) []string {
	if vehicleID == "" {
		return []string{cache.UserTag(userID), cache.AllVehiclesTag(userID)}
	}
	return []string{cache.UserTag(userID), cache.VehicleTag(vehicleID)}
}

// cached returns the value stored under key, or loads, stores and returns it.
// Cache failures are logged and fall through to load.
func cached[T any](c *cacheSupport, key, dataType string, tags []string, load func() (T, error)) (T, error) {
	if c.cacheManager != nil {
		var value T
		found, err := c.cacheManager.Get(key, &value)
		if err != nil {
			logger.For(logger.ComponentCache).WithError(err).WithField(logger.FieldCacheKey, key).Warn("Cache read failed")
		} else if found {
			return value, nil
		}
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	if c.cacheManager != nil {
		ttl := c.cacheConfig.GetTTLForDataType(dataType)
		if err := c.cacheManager.Set(key, value, ttl, tags...); err != nil {
			logger.For(logger.ComponentCache).WithError(err).WithField(logger.FieldCacheKey, key).Warn("Cache write failed")
		}
	}
	return value, nil
}

// invalidateScope drops the values derived from one vehicle's data and the
// user's all-vehicle values.
func (c *cacheSupport) invalidateScope(userID, vehicleID string) {
	c.invalidate(cache.VehicleTag(vehicleID), cache.AllVehiclesTag(userID))
}

// invalidateUser drops every cached value of the user.
func (c *cacheSupport) invalidateUser(userID string) {
	c.invalidate(cache.UserTag(userID))
}

func (c *cacheSupport) invalidate(tags ...string) {
	if c.cacheManager == nil {
		return
	}
	for _, tag := range tags {
		if err := c.cacheManager.InvalidateByTag(tag); err != nil {
			logger.For(logger.ComponentCache).WithError(err).WithField("tag", tag).Warn("Cache invalidation failed")
		}
	}
}

func (c *cacheSupport) forget(key string) {
	if c.cacheManager == nil {
		return
	}
	if err := c.cacheManager.Delete(key); err != nil {
		logger.For(logger.ComponentCache).WithError(err).WithField(logger.FieldCacheKey, key).Warn("Cache delete failed")
	}
}

// timed logs how long a load took at debug level.
func timed(entry *log.Entry, operation string, start time.Time) {
	entry.WithFields(log.Fields{
		logger.FieldOperation: operation,
		logger.FieldDuration:  time.Since(start).Milliseconds(),
	}).Debug("Loaded")
}
