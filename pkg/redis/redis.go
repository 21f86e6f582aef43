package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fuel-tracker/internal/config"
	"fuel-tracker/pkg/logger"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Client wraps a go-redis client with periodic health checks and automatic
// reconnection. The wrapped client may be replaced on reconnect, so callers
// fetch it through GetClient for every operation.
type Client struct {
	client        *redis.Client
	config        config.RedisConfig
	mu            sync.RWMutex
	isConnected   bool
	reconnectChan chan struct{}
	ctx           context.Context
	cancel        context.CancelFunc
	log           *log.Entry
}

type HealthStatus struct {
	IsConnected    bool          `json:"isConnected"`
	LastPing       time.Time     `json:"lastPing"`
	ResponseTime   time.Duration `json:"responseTime"`
	ConnectionInfo string        `json:"connectionInfo"`
	Error          string        `json:"error,omitempty"`
}

// NewClient creates a new Redis client with connection pooling
func NewClient(cfg config.RedisConfig) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		config:        cfg,
		reconnectChan: make(chan struct{}, 1),
		ctx:           ctx,
		cancel:        cancel,
		log:           logger.For(logger.ComponentRedis),
	}

	client.connect()
	go client.healthCheckLoop()
	go client.reconnectLoop()

	return client
}

func (c *Client) options() *redis.Options {
	if c.config.URL != "" {
		opt, err := redis.ParseURL(c.config.URL)
		if err == nil {
			c.applyPoolSettings(opt)
			return opt
		}
		c.log.WithError(err).Warn("Failed to parse REDIS_URL, falling back to host and port")
	}

	opt := &redis.Options{
		Addr:     c.address(),
		Password: c.config.Password,
		DB:       c.config.DB,
	}
	c.applyPoolSettings(opt)
	return opt
}

func (c *Client) applyPoolSettings(opt *redis.Options) {
	opt.PoolSize = c.config.PoolSize
	opt.MinIdleConns = c.config.MinIdleConns
	opt.MaxRetries = c.config.MaxRetries
	opt.MinRetryBackoff = c.config.RetryDelay
	opt.DialTimeout = c.config.DialTimeout
	opt.ReadTimeout = c.config.ReadTimeout
	opt.WriteTimeout = c.config.WriteTimeout
	opt.PoolTimeout = c.config.PoolTimeout
	opt.ConnMaxIdleTime = c.config.IdleTimeout
}

func (c *Client) address() string {
	return fmt.Sprintf("%s:%s", c.config.Host, c.config.Port)
}

// connect builds a fresh client and records whether it answers a ping.
func (c *Client) connect() {
	client := redis.NewClient(c.options())

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Ping(ctx).Err()

	c.mu.Lock()
	c.isConnected = err == nil
	c.mu.Unlock()

	if err != nil {
		c.log.WithError(err).Warn("Redis connection test failed")
	} else {
		c.log.WithField("addr", client.Options().Addr).Info("Redis connected")
	}
}

// GetClient returns the Redis client instance (thread-safe)
func (c *Client) GetClient() *redis.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// IsConnected returns the current connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// HealthCheck pings Redis and schedules a reconnect when the ping fails.
func (c *Client) HealthCheck() HealthStatus {
	client := c.GetClient()

	status := HealthStatus{
		IsConnected:    c.IsConnected(),
		ConnectionInfo: c.address(),
	}
	if client != nil {
		status.ConnectionInfo = client.Options().Addr
	}

	if client == nil {
		status.Error = "Redis client not initialized"
		return status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	start := time.Now()
	err := client.Ping(ctx).Err()
	status.ResponseTime = time.Since(start)
	status.LastPing = time.Now()
	status.IsConnected = err == nil

	c.mu.Lock()
	c.isConnected = status.IsConnected
	c.mu.Unlock()

	if err != nil {
		status.Error = err.Error()
		c.triggerReconnect()
	}

	return status
}

func (c *Client) triggerReconnect() {
	select {
	case c.reconnectChan <- struct{}{}:
	default:
	}
}

func (c *Client) healthCheckLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if status := c.HealthCheck(); !status.IsConnected {
				c.log.WithField("error", status.Error).Warn("Redis health check failed")
			}
		}
	}
}

// reconnectLoop handles automatic reconnection with exponential backoff
func (c *Client) reconnectLoop() {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.reconnectChan:
			if c.IsConnected() {
				continue
			}

			c.log.Info("Attempting to reconnect to Redis")

			if old := c.GetClient(); old != nil {
				old.Close()
			}
			c.connect()

			if c.IsConnected() {
				c.log.Info("Reconnected to Redis")
				backoff = time.Second
				continue
			}

			c.log.WithField("retry_in", backoff.String()).Warn("Reconnection failed")
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(backoff):
			}

			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			c.triggerReconnect()
		}
	}
}

// Close gracefully shuts down the Redis client
func (c *Client) Close() error {
	c.cancel()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// GetConnectionStats returns connection pool statistics
func (c *Client) GetConnectionStats() map[string]interface{} {
	client := c.GetClient()
	if client == nil {
		return map[string]interface{}{
			"error": "Redis client not initialized",
		}
	}

	stats := client.PoolStats()
	return map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"totalConns":  stats.TotalConns,
		"idleConns":   stats.IdleConns,
		"staleConns":  stats.StaleConns,
		"isConnected": c.IsConnected(),
	}
}
