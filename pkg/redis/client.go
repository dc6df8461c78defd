package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contactdesk/backend/config"
	"github.com/contactdesk/backend/pkg/cache"
	"github.com/contactdesk/backend/pkg/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Client is the subset of Redis used by the service: plain key/value
// caching plus the fixed-window counter behind the rate limiter. A
// disabled client is returned when Redis is turned off so callers never
// have to nil-check.
type Client interface {
	IsEnabled() bool
	Ping(ctx context.Context) error
	Close() error
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	// IncrWindow increments the counter stored at key, setting its expiry
	// to window on first increment, and returns the new count.
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

type client struct {
	rdb *redis.Client
}

// NewClient connects to Redis using the service configuration. When Redis
// is disabled in config an in-process cache takes its place.
func NewClient(cfg *config.Config) (Client, error) {
	if !cfg.Redis.Enabled {
		logger.GetLogger().Info("Redis disabled, falling back to in-process cache")
		return &localClient{cache: cache.NewCache()}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddress(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.Database,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})

	c := &client{rdb: rdb}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx); err != nil {
		logger.GetLogger().Error("Failed to connect to Redis",
			zap.String("address", cfg.RedisAddress()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.GetLogger().Info("Successfully connected to Redis",
		zap.String("address", cfg.RedisAddress()),
		zap.Int("database", cfg.Redis.Database),
	)

	return c, nil
}

func (c *client) IsEnabled() bool {
	return true
}

func (c *client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *client) Close() error {
	return c.rdb.Close()
}

func (c *client) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", false, nil // Cache miss
		}
		return "", false, fmt.Errorf("failed to get cache: %w", err)
	}
	return val, true, nil
}

func (c *client) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.GetLogger().Error("Failed to set cache",
			zap.String("key", key),
			zap.Duration("ttl", ttl),
			zap.Error(err),
		)
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

func (c *client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache: %w", err)
	}
	return nil
}

func (c *client) DeleteByPattern(ctx context.Context, pattern string) error {
	keys, err := c.rdb.Keys(ctx, pattern).Result()
	if err != nil {
		return fmt.Errorf("failed to get keys by pattern: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}

	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		logger.GetLogger().Error("Failed to delete cache by pattern",
			zap.String("pattern", pattern),
			zap.Error(err),
		)
		return fmt.Errorf("failed to delete cache by pattern: %w", err)
	}

	logger.GetLogger().Debug("Cache deleted by pattern",
		zap.String("pattern", pattern),
		zap.Int("deleted_count", len(keys)),
	)

	return nil
}

func (c *client) IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := c.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to increment window counter: %w", err)
	}
	return incr.Val(), nil
}

// localClient satisfies Client with an in-process cache when Redis is not
// configured. Counters always report zero, which disables the distributed
// limiter path in favor of the in-process one.
type localClient struct {
	cache *cache.Cache
}

func (l *localClient) IsEnabled() bool            { return false }
func (l *localClient) Ping(context.Context) error { return nil }
func (l *localClient) Close() error               { return nil }

func (l *localClient) Get(_ context.Context, key string) (string, bool, error) {
	val, ok := l.cache.Get(key)
	return val, ok, nil
}

func (l *localClient) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	l.cache.Set(key, value, ttl)
	return nil
}

func (l *localClient) Delete(_ context.Context, keys ...string) error {
	for _, key := range keys {
		l.cache.Delete(key)
	}
	return nil
}

func (l *localClient) DeleteByPattern(_ context.Context, pattern string) error {
	// Patterns used by callers are all prefix globs
	l.cache.DeletePrefix(strings.TrimSuffix(pattern, "*"))
	return nil
}

func (l *localClient) IncrWindow(context.Context, string, time.Duration) (int64, error) {
	return 0, nil
}
