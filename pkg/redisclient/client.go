package redisclient

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/redis/go-redis/v9"

	"stream-service/pkg/config"
)

// Client wraps the go-redis client with the lease helpers the job guard needs.
type Client struct {
	native *redis.Client
}

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the TTL only while the caller still owns the key.
var refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// New builds a redis client using service configuration and validates the connection.
func New(cfg config.RedisConfig) (*Client, error) {
	opts := &redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  pickDuration(cfg.DialTimeout, 5*time.Second),
		ReadTimeout:  pickDuration(cfg.ReadTimeout, 3*time.Second),
		WriteTimeout: pickDuration(cfg.WriteTimeout, 3*time.Second),
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
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

// Wrap adopts an existing go-redis client.
func Wrap(native *redis.Client) *Client {
	return &Client{native: native}
}

// Raw exposes the underlying go-redis client for advanced use cases.
func (c *Client) Raw() *redis.Client {
	return c.native
}

// AcquireLease sets key to token if absent. It reports whether the caller now holds the lease.
func (c *Client) AcquireLease(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return c.native.SetNX(ctx, key, token, ttl).Result()
}

// ReleaseLease removes key if token still owns it.
func (c *Client) ReleaseLease(ctx context.Context, key, token string) (bool, error) {
	n, err := releaseScript.Run(ctx, c.native, []string{key}, token).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RefreshLease extends the lease TTL if token still owns key.
func (c *Client) RefreshLease(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	n, err := refreshScript.Run(ctx, c.native, []string{key}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// LeaseHolder returns the token stored at key, or "" when free.
func (c *Client) LeaseHolder(ctx context.Context, key string) (string, error) {
	v, err := c.native.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
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
