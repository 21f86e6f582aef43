package cache

import "time"

// Data types understood by GetTTLForDataType
const (
	DataTypeFuelStats   = "fuel_stats"
	DataTypeMonthly     = "monthly"
	DataTypeMaintenance = "maintenance_stats"
	DataTypeAnalytics   = "analytics"
	DataTypeVehicleList = "vehicle_list"
	DataTypeSettings    = "settings"
)

// CacheConfig holds configuration for cache TTL values and behavior
type CacheConfig struct {
	FuelStatsTTL   time.Duration `json:"fuelStatsTTL"`
	MonthlyTTL     time.Duration `json:"monthlyTTL"`
	MaintenanceTTL time.Duration `json:"maintenanceTTL"`
	AnalyticsTTL   time.Duration `json:"analyticsTTL"`
	VehicleListTTL time.Duration `json:"vehicleListTTL"`
	SettingsTTL    time.Duration `json:"settingsTTL"`
	KeyPrefix      string        `json:"keyPrefix"`
	TagPrefix      string        `json:"tagPrefix"`
}

// DefaultCacheConfig returns default cache configuration. Derived stats only
// change on writes, which invalidate them by tag, so their TTLs are long.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		FuelStatsTTL:   5 * time.Minute,
		MonthlyTTL:     10 * time.Minute,
		MaintenanceTTL: 5 * time.Minute,
		AnalyticsTTL:   5 * time.Minute,
		VehicleListTTL: 2 * time.Minute,
		SettingsTTL:    30 * time.Minute,
		KeyPrefix:      "fuel:",
		TagPrefix:      "tag:",
	}
}

// WithStatsTTL overrides the TTL of every derived statistic.
func (c CacheConfig) WithStatsTTL(ttl time.Duration) CacheConfig {
	if ttl <= 0 {
		return c
	}
	c.FuelStatsTTL = ttl
	c.MonthlyTTL = 2 * ttl
	c.MaintenanceTTL = ttl
	c.AnalyticsTTL = ttl
	return c
}

// GetTTLForDataType returns appropriate TTL based on data type
func (c CacheConfig) GetTTLForDataType(dataType string) time.Duration {
	switch dataType {
	case DataTypeFuelStats:
		return c.FuelStatsTTL
	case DataTypeMonthly:
		return c.MonthlyTTL
	case DataTypeMaintenance:
		return c.MaintenanceTTL
	case DataTypeAnalytics:
		return c.AnalyticsTTL
	case DataTypeVehicleList:
		return c.VehicleListTTL
	case DataTypeSettings:
		return c.SettingsTTL
	default:
		return c.FuelStatsTTL
	}
}

func (c CacheConfig) maxTTL() time.Duration {
	max := c.FuelStatsTTL
	for _, ttl := range []time.Duration{c.MonthlyTTL, c.MaintenanceTTL, c.AnalyticsTTL, c.VehicleListTTL, c.SettingsTTL} {
		if ttl > max {
			max = ttl
		}
	}
	return max
}
