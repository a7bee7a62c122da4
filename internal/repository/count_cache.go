package repository

import (
	"context"

	"github.com/user/moviescroll/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// CountCache 缓存符合条件的电影总数
type CountCache interface {
	GetCount(ctx context.Context, key string) (int64, bool)
	SetCount(ctx context.Context, key string, n int64)
}

// CachedCatalog 缓存 Count 结果，Fetch 直接透传
type CachedCatalog struct {
	CatalogStore
	cache CountCache
	group singleflight.Group
}

func NewCachedCatalog(next CatalogStore, cache CountCache) *CachedCatalog {
	return &CachedCatalog{CatalogStore: next, cache: cache}
}

func (c *CachedCatalog) Count(ctx context.Context, q Query) (int64, error) {
	key := "catalog:count:" + q.Key()
	if n, ok := c.cache.GetCount(ctx, key); ok {
		metrics.CountCacheLookups.WithLabelValues("hit").Inc()
		return n, nil
	}
	metrics.CountCacheLookups.WithLabelValues("miss").Inc()

	// 并发未命中只查询一次
	v, err, _ := c.group.Do(key, func() (any, error) {
		n, err := c.CatalogStore.Count(ctx, q)
		if err != nil {
			return int64(0), err
		}
		c.cache.SetCount(ctx, key, n)
		return n, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}
