package utils

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// MemoryCache 进程内缓存，实现 repository.CountCache
type MemoryCache struct {
	store *cache.Cache
	ttl   time.Duration
}

// NewMemoryCache ttl 为默认过期时间，清理间隔取两倍
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		store: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (m *MemoryCache) GetCount(_ context.Context, key string) (int64, bool) {
	v, ok := m.store.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int64)
	return n, ok
}

func (m *MemoryCache) SetCount(_ context.Context, key string, n int64) {
	m.store.Set(key, n, m.ttl)
}

// Flush 清空所有缓存
func (m *MemoryCache) Flush() {
	m.store.Flush()
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// TTLCache 带过期时间的 LRU 缓存
type TTLCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewTTLCache size 是最大缓存条数，ttl 是数据有效期
func NewTTLCache[T any](size int, ttl time.Duration) *TTLCache[T] {
	// lru.New 是线程安全的
	c, _ := lru.New[string, CacheItem[T]](size)
	return &TTLCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

func (c *TTLCache[T]) Set(key string, value T) {
	c.storage.Add(key, CacheItem[T]{
		Value:     value,
		ExpiredAt: time.Now().Add(c.ttl),
	})
}

// Get 带过期检查
func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}

	return item.Value, true
}

// GetOrAdd 取出已有值，不存在或已过期时用 create 生成并写入
func (c *TTLCache[T]) GetOrAdd(key string, create func() T) T {
	if v, ok := c.Get(key); ok {
		return v
	}

	item := CacheItem[T]{Value: create(), ExpiredAt: time.Now().Add(c.ttl)}
	prev, found, _ := c.storage.PeekOrAdd(key, item)
	if !found {
		return item.Value
	}
	if time.Now().Before(prev.ExpiredAt) {
		// 并发写入时以先到者为准
		return prev.Value
	}
	c.storage.Add(key, item)
	return item.Value
}

func (c *TTLCache[T]) Delete(key string) {
	c.storage.Remove(key)
}

func (c *TTLCache[T]) Len() int {
	return c.storage.Len()
}
