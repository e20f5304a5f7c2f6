package redisclient

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"

	"media-pipeline-service/pkg/config"
)

// Client wraps the go-redis client to allow tailored helpers.
type Client struct {
	native *redis.Client
}

// New builds a redis client using service configuration and validates the connection.
func New(cfg config.RedisConfig) (*Client, error) {
	opts := &redis.Options{
		Addr: cfg.GetRedisAddr(),
	}

	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}

	opts.DialTimeout = pickDuration(cfg.DialTimeout, 5*time.Second)
	opts.ReadTimeout = pickDuration(cfg.ReadTimeout, 3*time.Second)
	opts.WriteTimeout = pickDuration(cfg.WriteTimeout, 3*time.Second)

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cli := redis.NewClient(opts)
	if err := cli.Ping(context.Background()).Err(); err != nil {
		_ = cli.Close()
		return nil, err
	}

	return &Client{native: cli}, nil
}

// Raw exposes the underlying go-redis client for advanced use cases.
func (c *Client) Raw() *redis.Client {
	return c.native
}

// SetIfAbsent 键不存在时写入并设置过期时间, 返回是否写入成功
func (c *Client) SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.native.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339Nano), ttl).Result()
}

// Delete 删除键, 键不存在不算错误
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.native.Del(ctx, keys...).Err()
}

// Wrap 包装已有的go-redis客户端, 测试时使用
func Wrap(native *redis.Client) *Client {
	return &Client{native: native}
}

// Close stops the redis client and releases pooled connections.
func (c *Client) Close() error {
	return c.native.Close()
}

func pickDuration(v time.Duration, fallback time.Duration) time.Duration {
	if v <= 0 {
		return fallback
	}
	return v
}
