package utils

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cppla/postboard/config"
)

// NewRedisClient builds a Redis client from REDIS_URL or the host/port settings.
// It returns nil, nil when Redis is not configured.
func NewRedisClient(cfg config.AppConfig) (*redis.Client, error) {
	var opts *redis.Options
	switch {
	case cfg.RedisURL != "":
		if strings.Contains(cfg.RedisURL, "://") {
			parsed, err := redis.ParseURL(cfg.RedisURL)
			if err != nil {
				return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
			}
			opts = parsed
		} else {
			opts = &redis.Options{Addr: cfg.RedisURL}
		}
	case cfg.RedisHost != "":
		opts = &redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, strconv.Itoa(cfg.RedisPort)),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	default:
		return nil, nil
	}
	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second
	return redis.NewClient(opts), nil
}

// NewCache picks the cache backend: Redis when configured, else the in-process cache.
// An unreachable Redis is kept; its errors surface as CacheError and are tolerated.
func NewCache(cfg config.AppConfig) (Cache, error) {
	rc, err := NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return NewMemoryCache(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		L().Warn("redis ping failed, continuing with degraded cache", zap.Error(err))
	}
	return NewRedisCache(rc), nil
}
