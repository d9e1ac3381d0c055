package cache

import (
	"sync"
	"time"
)

// TTLCache 带过期时间的进程内缓存
//
// 特点：
// - 使用 sync.Map 实现无锁读取
// - 条目按 TTL 过期，后台定期清理
// - 用于限流器等按来源 IP 建条目的场景，防止条目无限增长
type TTLCache struct {
	data sync.Map
	ttl  time.Duration
	stop chan struct{}
	once sync.Once
}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// NewTTLCache 创建缓存并启动后台清理
func NewTTLCache(ttl time.Duration) *TTLCache {
	c := &TTLCache{
		ttl:  ttl,
		stop: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get 获取缓存值，过期视同不存在
func (c *TTLCache) Get(key string) (interface{}, bool) {
	val, ok := c.data.Load(key)
	if !ok {
		return nil, false
	}

	e := val.(*entry)
	if time.Now().After(e.expiresAt) {
		c.data.Delete(key)
		return nil, false
	}
	return e.value, true
}

// GetOrCreate 返回已有值；不存在或已过期时调用 create 生成并存入。
//
// 并发调用同一 key 时 create 可能执行多次，但只有一个结果会被保留，
// 所有调用方拿到的是同一个值。
func (c *TTLCache) GetOrCreate(key string, create func() interface{}) interface{} {
	if val, ok := c.Get(key); ok {
		return val
	}

	e := &entry{value: create(), expiresAt: time.Now().Add(c.ttl)}
	actual, loaded := c.data.LoadOrStore(key, e)
	if loaded {
		existing := actual.(*entry)
		if time.Now().Before(existing.expiresAt) {
			return existing.value
		}
		c.data.Store(key, e)
	}
	return e.value
}

// Set 写入缓存值，覆盖已有条目
func (c *TTLCache) Set(key string, value interface{}) {
	c.data.Store(key, &entry{value: value, expiresAt: time.Now().Add(c.ttl)})
}

// Delete 删除缓存值
func (c *TTLCache) Delete(key string) {
	c.data.Delete(key)
}

// Close 停止后台清理
func (c *TTLCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

// cleanupLoop 定期清理过期条目
func (c *TTLCache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			now := time.Now()
			c.data.Range(func(key, value interface{}) bool {
				if now.After(value.(*entry).expiresAt) {
					c.data.Delete(key)
				}
				return true
			})
		}
	}
}
