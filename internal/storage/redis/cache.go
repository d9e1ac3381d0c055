package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const rateLimitPrefix = "inviteme:ratelimit:"

// Cache 基于 Redis 的限流计数器
// 实现 storage.RateLimitRepository
type Cache struct {
	client *goredis.Client
	ctx    context.Context
}

// NewCache 创建限流计数器
func NewCache(client *Client) *Cache {
	return &Cache{
		client: client.Client(),
		ctx:    context.Background(),
	}
}

// IncrementRateLimit 增加限流计数
// 计数键在窗口结束后自动过期
func (c *Cache) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	pipe := c.client.Pipeline()

	incr := pipe.Incr(c.ctx, rateLimitPrefix+key)
	pipe.Expire(c.ctx, rateLimitPrefix+key, window)

	if _, err := pipe.Exec(c.ctx); err != nil {
		return 0, fmt.Errorf("increment rate limit: %w", err)
	}
	return incr.Val(), nil
}

// GetRateLimit 获取限流计数
func (c *Cache) GetRateLimit(key string) (int64, error) {
	count, err := c.client.Get(c.ctx, rateLimitPrefix+key).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get rate limit: %w", err)
	}
	return count, nil
}
