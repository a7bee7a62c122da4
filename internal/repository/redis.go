package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/moviescroll/internal/config"
	"github.com/user/moviescroll/internal/logging"
)

// InitRedis 连接 Redis，Addr 为空时返回 nil
func InitRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping 失败: %w", err)
	}
	return rdb, nil
}

// RedisCountCache 多实例共享的 count 缓存
type RedisCountCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCountCache(rdb *redis.Client, ttl time.Duration) *RedisCountCache {
	return &RedisCountCache{rdb: rdb, ttl: ttl}
}

func (r *RedisCountCache) GetCount(ctx context.Context, key string) (int64, bool) {
	n, err := r.rdb.Get(ctx, key).Int64()
	if err != nil {
		if err != redis.Nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("读取 count 缓存失败")
		}
		return 0, false
	}
	return n, true
}

func (r *RedisCountCache) SetCount(ctx context.Context, key string, n int64) {
	if err := r.rdb.Set(ctx, key, n, r.ttl).Err(); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("写入 count 缓存失败")
	}
}
