package ratelimit

import (
	"strings"
	"time"
)

// Config holds the configuration for rate limiting
type Config struct {
	// Limits per endpoint category
	DefaultLimits map[string]RateLimit `json:"defaultLimits"`

	// Endpoint ("METHOD:/path", trailing * allowed) to category
	EndpointCategories map[string]string `json:"endpointCategories"`

	RedisKeyPrefix  string        `json:"redisKeyPrefix"`
	CleanupInterval time.Duration `json:"cleanupInterval"`
	Enabled         bool          `json:"enabled"`
}

// DefaultConfig returns a default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultLimits: map[string]RateLimit{
			// Credential and recovery endpoints are the ones worth guessing at
			"auth":          {RequestsPerMinute: 20, BurstSize: 10, WindowSize: time.Minute},
			"auth_login":    {RequestsPerMinute: 5, BurstSize: 5, WindowSize: time.Minute},
			"auth_recovery": {RequestsPerMinute: 5, BurstSize: 3, WindowSize: time.Minute},

			"fuel":               {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
			"fuel_write":         {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},
			"maintenance":        {RequestsPerMinute: 120, BurstSize: 30, WindowSize: time.Minute},
			"maintenance_write":  {RequestsPerMinute: 30, BurstSize: 10, WindowSize: time.Minute},
			"vehicles":           {RequestsPerMinute: 100, BurstSize: 20, WindowSize: time.Minute},
			"vehicles_write":     {RequestsPerMinute: 20, BurstSize: 5, WindowSize: time.Minute},
			"analytics":          {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
			"reports":            {RequestsPerMinute: 10, BurstSize: 3, WindowSize: time.Minute},
			"settings":           {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
			"health":             {RequestsPerMinute: 1000, BurstSize: 100, WindowSize: time.Minute},
			"default":            {RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute},
		},
		EndpointCategories: map[string]string{
			"POST:/api/v1/auth/login":                     "auth_login",
			"POST:/api/v1/auth/register":                  "auth",
			"POST:/api/v1/auth/check-email":               "auth",
			"GET:/api/v1/auth/security-questions":         "auth_recovery",
			"POST:/api/v1/auth/security-questions/verify": "auth_recovery",
			"PUT:/api/v1/auth/reset-password":             "auth_recovery",
			"*:/api/v1/auth/*":                            "auth",

			"GET:/api/v1/fuel*":    "fuel",
			"POST:/api/v1/fuel*":   "fuel_write",
			"PUT:/api/v1/fuel*":    "fuel_write",
			"DELETE:/api/v1/fuel*": "fuel_write",

			"GET:/api/v1/maintenance-costs*":    "maintenance",
			"POST:/api/v1/maintenance-costs*":   "maintenance_write",
			"PUT:/api/v1/maintenance-costs*":    "maintenance_write",
			"DELETE:/api/v1/maintenance-costs*": "maintenance_write",

			"GET:/api/v1/vehicles*":    "vehicles",
			"POST:/api/v1/vehicles*":   "vehicles_write",
			"PUT:/api/v1/vehicles*":    "vehicles_write",
			"DELETE:/api/v1/vehicles*": "vehicles_write",

			"GET:/api/v1/analytics*": "analytics",
			"GET:/api/v1/reports*":   "reports",
			"*:/api/v1/settings":     "settings",
			"GET:/api/v1/health":     "health",
		},
		RedisKeyPrefix:  "ratelimit:",
		CleanupInterval: 5 * time.Minute,
		Enabled:         true,
	}
}

// GetEndpointKey maps an endpoint of the form "METHOD:/path" to its rate
// limit category. Exact matches win over wildcard patterns; among patterns the
// longest one wins.
func (c *Config) GetEndpointKey(endpoint string) string {
	if category, exists := c.EndpointCategories[endpoint]; exists {
		return category
	}

	best, bestLen := "default", -1
	for pattern, category := range c.EndpointCategories {
		if matchesPattern(endpoint, pattern) && len(pattern) > bestLen {
			best, bestLen = category, len(pattern)
		}
	}
	return best
}

// LimitFor returns the limit of the endpoint's category, falling back to the
// "default" category.
func (c *Config) LimitFor(endpoint string) RateLimit {
	if limit, exists := c.DefaultLimits[c.GetEndpointKey(endpoint)]; exists {
		return limit
	}
	if limit, exists := c.DefaultLimits["default"]; exists {
		return limit
	}
	return RateLimit{RequestsPerMinute: 60, BurstSize: 15, WindowSize: time.Minute}
}

// matchesPattern checks an endpoint against a pattern. A "*" method matches
// any method and a trailing "*" matches any path suffix.
func matchesPattern(endpoint, pattern string) bool {
	method, path, ok := strings.Cut(endpoint, ":")
	if !ok {
		return false
	}
	patternMethod, patternPath, ok := strings.Cut(pattern, ":")
	if !ok {
		return false
	}

	if patternMethod != "*" && patternMethod != method {
		return false
	}
	if prefix, wildcard := strings.CutSuffix(patternPath, "*"); wildcard {
		return strings.HasPrefix(path, prefix)
	}
	return path == patternPath
}
