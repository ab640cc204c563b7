package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"martcli/internal/domain"
)

const DefaultNamespace = "martcli"

// RedisReportCache stores earnings reports as JSON strings under
// "<namespace>:<key>".
type RedisReportCache struct {
	client    *redis.Client
	namespace string
}

// NewRedisReportCache connects to addr, which is either host:port or a
// redis:// URL. A URL carries its own password and database; password and db
// then only fill in what the URL leaves out.
func NewRedisReportCache(addr string, password string, db int) (*RedisReportCache, error) {
	opts := &redis.Options{Addr: addr, Password: password, DB: db}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		if parsed.Password == "" {
			parsed.Password = password
		}
		if parsed.DB == 0 {
			parsed.DB = db
		}
		opts = parsed
	}
	return &RedisReportCache{client: redis.NewClient(opts), namespace: DefaultNamespace}, nil
}

// WithNamespace returns a cache sharing the connection under another key
// namespace.
func (c *RedisReportCache) WithNamespace(namespace string) *RedisReportCache {
	return &RedisReportCache{client: c.client, namespace: namespace}
}

func (c *RedisReportCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping %s: %w", c.client.Options().Addr, err)
	}
	return nil
}

func (c *RedisReportCache) Close() error {
	return c.client.Close()
}

// Get reports a miss for absent keys. An entry that no longer decodes is
// evicted and also reported as a miss.
func (c *RedisReportCache) Get(ctx context.Context, key string) (*domain.EarningsReport, bool, error) {
	fullKey := c.key(key)
	raw, err := c.client.Get(ctx, fullKey).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("redis get %s: %w", fullKey, err)
	}

	var report domain.EarningsReport
	if err := json.Unmarshal(raw, &report); err != nil {
		if delErr := c.client.Del(ctx, fullKey).Err(); delErr != nil {
			return nil, false, fmt.Errorf("evict corrupt %s: %w", fullKey, delErr)
		}
		return nil, false, nil
	}
	return &report, true, nil
}

func (c *RedisReportCache) Set(ctx context.Context, key string, report *domain.EarningsReport, ttl time.Duration) error {
	if report == nil {
		return nil
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	fullKey := c.key(key)
	if err := c.client.Set(ctx, fullKey, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", fullKey, err)
	}
	return nil
}

func (c *RedisReportCache) key(key string) string {
	return c.namespace + ":" + key
}
