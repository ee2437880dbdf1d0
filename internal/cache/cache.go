package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable is returned by strict operations when no client is configured.
var ErrUnavailable = errors.New("redis unavailable")

// Client wraps a redis client. Every operation reports redis errors to the
// caller; a nil or unconfigured client returns ErrUnavailable.
type Client struct {
	client redis.UniversalClient
}

// New creates a new Redis client.
func New(addr, password string, db int) *Client {
	opts := &redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}
	return &Client{client: redis.NewClient(opts)}
}

// NewFromClient wraps an existing client.
func NewFromClient(client redis.UniversalClient) *Client {
	return &Client{client: client}
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying connections.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Exists reports whether key is present.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	if c == nil || c.client == nil {
		return false, ErrUnavailable
	}
	n, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Set stores value with TTL.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c == nil || c.client == nil {
		return ErrUnavailable
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

// HSetNX sets field only when it is absent and reports whether it was set.
func (c *Client) HSetNX(ctx context.Context, key, field string, value []byte) (bool, error) {
	if c == nil || c.client == nil {
		return false, ErrUnavailable
	}
	return c.client.HSetNX(ctx, key, field, value).Result()
}

// HDel removes field and reports whether it existed.
func (c *Client) HDel(ctx context.Context, key, field string) (bool, error) {
	if c == nil || c.client == nil {
		return false, ErrUnavailable
	}
	n, err := c.client.HDel(ctx, key, field).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// HGetAll returns every field of the hash.
func (c *Client) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	if c == nil || c.client == nil {
		return nil, ErrUnavailable
	}
	return c.client.HGetAll(ctx, key).Result()
}

// HLen returns the number of fields in the hash.
func (c *Client) HLen(ctx context.Context, key string) (int64, error) {
	if c == nil || c.client == nil {
		return 0, ErrUnavailable
	}
	return c.client.HLen(ctx, key).Result()
}
