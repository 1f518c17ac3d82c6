package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLeaseTTL bounds how long a crashed instance can hold an account.
const DefaultLeaseTTL = 5 * time.Minute

// Config holds Redis connection configuration.
type Config struct {
	URL       string        `yaml:"url"`
	Password  string        `yaml:"password"`
	LeaseTTL  time.Duration `yaml:"lease_ttl"`
	KeyPrefix string        `yaml:"key_prefix"`
}

// Client wraps Redis operations for account leases.
type Client struct {
	rdb    *redis.Client
	owner  string
	ttl    time.Duration
	prefix string
}

// releaseScript deletes the lease only if this instance still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newClient(rdb, cfg), nil
}

func newClient(rdb *redis.Client, cfg Config) *Client {
	ttl := cfg.LeaseTTL
	if ttl <= 0 {
		ttl = DefaultLeaseTTL
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "hivera"
	}
	return &Client{
		rdb:    rdb,
		owner:  uuid.NewString(),
		ttl:    ttl,
		prefix: prefix,
	}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Owner returns the token identifying this instance's leases.
func (c *Client) Owner() string {
	return c.owner
}

func (c *Client) leaseKey(account string) string {
	return fmt.Sprintf("%s:lease:%s", c.prefix, account)
}

// Acquire attempts to take the processing lease for an account.
func (c *Client) Acquire(ctx context.Context, account string) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, c.leaseKey(account), c.owner, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return ok, nil
}

// Release gives up the lease if this instance holds it.
func (c *Client) Release(ctx context.Context, account string) error {
	if err := releaseScript.Run(ctx, c.rdb, []string{c.leaseKey(account)}, c.owner).Err(); err != nil {
		return fmt.Errorf("release failed: %w", err)
	}
	return nil
}

// Holder returns the owner token holding an account's lease, or "" if free.
func (c *Client) Holder(ctx context.Context, account string) (string, error) {
	val, err := c.rdb.Get(ctx, c.leaseKey(account)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get failed: %w", err)
	}
	return val, nil
}
