package cache

import (
	"fmt"
	"time"
)

// CacheManager defines the interface for caching operations
type CacheManager interface {
	// Get decodes the cached value into dest and reports whether it was found.
	Get(key string, dest interface{}) (bool, error)
	// Set stores value and tags the key for later invalidation.
	Set(key string, value interface{}, ttl time.Duration, tags ...string) error
	Delete(key string) error

	// Tag operations for invalidation on writes
	TagKey(key string, tags ...string) error
	InvalidateByTag(tag string) error

	GetCacheStats() CacheStats
	HealthCheck() error
	Close() error
}

// CacheStats provides cache performance metrics
type CacheStats struct {
	HitRate       float64 `json:"hitRate"`
	MissRate      float64 `json:"missRate"`
	MemoryUsage   int64   `json:"memoryUsage"`
	KeyCount      int     `json:"keyCount"`
	EvictionCount int     `json:"evictionCount"`
	TotalHits     int64   `json:"totalHits"`
	TotalMisses   int64   `json:"totalMisses"`
}

// UserTag groups every cached value derived from one user's data.
func UserTag(userID string) string {
	return "user:" + userID
}

// VehicleTag groups every cached value derived from one vehicle's data.
func VehicleTag(vehicleID string) string {
	return "vehicle:" + vehicleID
}

// ScopeKey builds the key of a per-user value, optionally narrowed to one
// vehicle and qualified by extra parts such as a year.
func ScopeKey(kind, userID, vehicleID string, parts ...interface{}) string {
	if vehicleID == "" {
		vehicleID = "all"
	}
	key := fmt.Sprintf("%s:%s:%s", kind, userID, vehicleID)
	for _, part := range parts {
		key += fmt.Sprintf(":%v", part)
	}
	return key
}

// AllVehiclesTag groups a user's values computed across all vehicles. Writes to
// any one vehicle invalidate it together with that vehicle's VehicleTag.
func AllVehiclesTag(userID string) string {
	return "user_all:" + userID
}
