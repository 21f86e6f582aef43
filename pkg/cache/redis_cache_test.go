package cache

import (
	"testing"
	"time"

	"fuel-tracker/internal/config"
	"fuel-tracker/internal/ledger"
	"fuel-tracker/pkg/redis"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*RedisCacheManager, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(config.RedisConfig{
		Host:        mr.Host(),
		Port:        mr.Port(),
		PoolSize:    5,
		DialTimeout: time.Second,
		ReadTimeout: time.Second,
	})

	cfg := DefaultCacheConfig()
	cfg.KeyPrefix = "test:"
	cfg.TagPrefix = "test_tag:"

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return NewRedisCacheManager(client, cfg), mr
}

func TestRedisCacheManager_GetSet(t *testing.T) {
	manager, mr := setupTestCache(t)

	stats := ledger.FuelStats{TotalEntries: 3, TotalCost: 9500, TotalLiters: 95, TotalDistance: 500}
	key := ScopeKey("fuel_stats", "u1", "v1")

	t.Run("Miss", func(t *testing.T) {
		var cached ledger.FuelStats
		found, err := manager.Get(key, &cached)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("SetThenHit", func(t *testing.T) {
		require.NoError(t, manager.Set(key, stats, time.Minute))
		assert.True(t, mr.Exists("test:"+key))

		var cached ledger.FuelStats
		found, err := manager.Get(key, &cached)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, stats, cached)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, manager.Delete(key))

		var cached ledger.FuelStats
		found, err := manager.Get(key, &cached)
		assert.NoError(t, err)
		assert.False(t, found)
	})
}

func TestRedisCacheManager_TTLBehavior(t *testing.T) {
	manager, mr := setupTestCache(t)

	require.NoError(t, manager.Set("short", 42, 100*time.Millisecond))

	var value int
	found, err := manager.Get("short", &value)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 42, value)

	mr.FastForward(200 * time.Millisecond)

	found, err = manager.Get("short", &value)
	assert.NoError(t, err)
	assert.False(t, found)
}

func TestRedisCacheManager_InvalidateByTag(t *testing.T) {
	manager, _ := setupTestCache(t)

	userOne := UserTag("u1")
	vehicleA := VehicleTag("va")
	vehicleB := VehicleTag("vb")

	require.NoError(t, manager.Set(ScopeKey("fuel_stats", "u1", "va"), 1, time.Minute, userOne, vehicleA))
	require.NoError(t, manager.Set(ScopeKey("fuel_stats", "u1", "vb"), 2, time.Minute, userOne, vehicleB))
	require.NoError(t, manager.Set(ScopeKey("fuel_stats", "u1", ""), 3, time.Minute, userOne))
	require.NoError(t, manager.Set(ScopeKey("fuel_stats", "u2", ""), 4, time.Minute, UserTag("u2")))

	exists := func(key string) bool {
		var v int
		found, err := manager.Get(key, &v)
		require.NoError(t, err)
		return found
	}

	t.Run("VehicleTagLeavesOtherVehicles", func(t *testing.T) {
		require.NoError(t, manager.InvalidateByTag(vehicleA))

		assert.False(t, exists(ScopeKey("fuel_stats", "u1", "va")))
		assert.True(t, exists(ScopeKey("fuel_stats", "u1", "vb")))
		assert.True(t, exists(ScopeKey("fuel_stats", "u1", "")))
	})

	t.Run("UserTagLeavesOtherUsers", func(t *testing.T) {
		require.NoError(t, manager.InvalidateByTag(userOne))

		assert.False(t, exists(ScopeKey("fuel_stats", "u1", "vb")))
		assert.False(t, exists(ScopeKey("fuel_stats", "u1", "")))
		assert.True(t, exists(ScopeKey("fuel_stats", "u2", "")))
	})

	t.Run("UnknownTagIsNoop", func(t *testing.T) {
		assert.NoError(t, manager.InvalidateByTag("user:nobody"))
	})

	assert.Equal(t, 3, manager.GetCacheStats().EvictionCount)
}

func TestRedisCacheManager_Stats(t *testing.T) {
	manager, _ := setupTestCache(t)

	stats := manager.GetCacheStats()
	assert.Equal(t, int64(0), stats.TotalHits)
	assert.Equal(t, int64(0), stats.TotalMisses)

	var value string
	_, err := manager.Get("missing", &value)
	require.NoError(t, err)

	stats = manager.GetCacheStats()
	assert.Equal(t, int64(1), stats.TotalMisses)
	assert.Equal(t, 1.0, stats.MissRate)

	require.NoError(t, manager.Set("present", "yes", time.Minute))
	_, err = manager.Get("present", &value)
	require.NoError(t, err)

	stats = manager.GetCacheStats()
	assert.Equal(t, int64(1), stats.TotalHits)
	assert.Equal(t, 0.5, stats.HitRate)
	assert.Equal(t, 0.5, stats.MissRate)
	assert.Equal(t, 1, stats.KeyCount)
}

func TestRedisCacheManager_HealthCheck(t *testing.T) {
	manager, mr := setupTestCache(t)

	assert.NoError(t, manager.HealthCheck())

	mr.Close()
	assert.Error(t, manager.HealthCheck())
}

func TestScopeKey(t *testing.T) {
	assert.Equal(t, "monthly:u1:all:2024", ScopeKey("monthly", "u1", "", 2024))
	assert.Equal(t, "fuel_stats:u1:v9", ScopeKey("fuel_stats", "u1", "v9"))
}

func TestCacheConfig_WithStatsTTL(t *testing.T) {
	cfg := DefaultCacheConfig().WithStatsTTL(time.Minute)

	assert.Equal(t, time.Minute, cfg.GetTTLForDataType(DataTypeFuelStats))
	assert.Equal(t, 2*time.Minute, cfg.GetTTLForDataType(DataTypeMonthly))
	assert.Equal(t, DefaultCacheConfig().SettingsTTL, cfg.GetTTLForDataType(DataTypeSettings))
	assert.Equal(t, DefaultCacheConfig(), DefaultCacheConfig().WithStatsTTL(0))
}
