package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port             string
	MongoURI         string
	JWTSecret        string
	JWTExpiry        string
	ResetTokenExpiry string
	AllowedOrigins   []string
	CookieName       string
	CookieSecure     bool
	LogLevel         string
	GinMode          string
	CacheTTL         time.Duration
	RateLimitEnabled bool
	RateLimitBackend string
	RedisEnabled     bool
	CleanupInterval  time.Duration
	Redis            RedisConfig
}

type RedisConfig struct {
	URL                string
	Host               string
	Port               string
	Password           string
	DB                 int
	PoolSize           int
	MinIdleConns       int
	MaxRetries         int
	RetryDelay         time.Duration
	DialTimeout        time.Duration
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	PoolTimeout        time.Duration
	IdleTimeout        time.Duration
	IdleCheckFrequency time.Duration
}

func Load() *Config {
	// load .env variable
	if err := godotenv.Load(); err != nil {
		log.WithError(err).Debug("No .env file loaded, using process environment")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI environment variable is not set")
	}

	allowedOrigins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		Port:             getEnv("PORT", "8080"),
		MongoURI:         mongoURI,
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTExpiry:        getEnv("JWT_EXPIRY", "168h"),
		ResetTokenExpiry: getEnv("RESET_TOKEN_EXPIRY", "15m"),
		AllowedOrigins:   origins,
		CookieName:       getEnv("COOKIE_NAME", "auth-token"),
		CookieSecure:     getBool("COOKIE_SECURE", false),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		GinMode:          getEnv("GIN_MODE", "debug"),
		CacheTTL:         getDuration("CACHE_TTL", 5*time.Minute),
		RateLimitEnabled: getBool("RATE_LIMIT_ENABLED", true),
		RateLimitBackend: getEnv("RATE_LIMIT_BACKEND", "memory"),
		RedisEnabled:     getBool("REDIS_ENABLED", true),
		CleanupInterval:  getDuration("CLEANUP_INTERVAL", 24*time.Hour),
		Redis:            LoadRedisConfig(),
	}
}

// LoadRedisConfig reads the Redis settings. REDIS_URL wins over host and port.
func LoadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:                os.Getenv("REDIS_URL"),
		Host:               getEnv("REDIS_HOST", "localhost"),
		Port:               getEnv("REDIS_PORT", "6379"),
		Password:           os.Getenv("REDIS_PASSWORD"),
		DB:                 getInt("REDIS_DB", 0),
		PoolSize:           getInt("REDIS_POOL_SIZE", 10),
		MinIdleConns:       getInt("REDIS_MIN_IDLE_CONNS", 2),
		MaxRetries:         getInt("REDIS_MAX_RETRIES", 3),
		RetryDelay:         getDuration("REDIS_RETRY_DELAY", time.Second),
		DialTimeout:        getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:        getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout:       getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		PoolTimeout:        getDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		IdleTimeout:        getDuration("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		IdleCheckFrequency: getDuration("REDIS_IDLE_CHECK_FREQUENCY", time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return value
}
