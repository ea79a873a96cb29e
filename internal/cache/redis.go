package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Client holds the Redis client
type Client struct {
	Redis *redis.Client
}

// NewClient connects to redisURL, or to addr when the URL is empty, and pings it
func NewClient(ctx context.Context, redisURL, addr, password string, db int) (*Client, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	if redisURL != "" {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("failed parsing redis URL: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed connecting to redis: %w", err)
	}

	return &Client{Redis: client}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.Redis.Close()
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.Redis.Ping(ctx).Err()
}

// AcquireLock takes key for ttl if nobody holds it. The returned token is needed to release it.
func (c *Client) AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()

	ok, err := c.Redis.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

// ReleaseLock frees key if it is still held with token; an expired or stolen lock is left alone
func (c *Client) ReleaseLock(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, c.Redis, []string{key}, token).Err()
}
