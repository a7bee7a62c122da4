package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/user/moviescroll/internal/logging"
	"github.com/user/moviescroll/internal/metrics"
	"github.com/user/moviescroll/internal/model"
)

// BreakerConfig 熔断参数
type BreakerConfig struct {
	Name             string
	MaxFailures      uint32        // 连续失败多少次后打开
	OpenTimeout      time.Duration // 打开后多久进入半开
	HalfOpenRequests uint32
}

// DefaultBreakerConfig 默认熔断参数
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "catalog",
		MaxFailures:      5,
		OpenTimeout:      30 * time.Second,
		HalfOpenRequests: 1,
	}
}

// BreakerCatalog 为目录存储加熔断
type BreakerCatalog struct {
	next  CatalogStore
	count *gobreaker.CircuitBreaker[int64]
	fetch *gobreaker.CircuitBreaker[[]model.CatalogRow]
}

func NewBreakerCatalog(next CatalogStore, cfg BreakerConfig) *BreakerCatalog {
	return &BreakerCatalog{
		next:  next,
		count: gobreaker.NewCircuitBreaker[int64](breakerSettings(cfg, cfg.Name+".count")),
		fetch: gobreaker.NewCircuitBreaker[[]model.CatalogRow](breakerSettings(cfg, cfg.Name+".fetch")),
	}
}

func breakerSettings(cfg BreakerConfig, name string) gobreaker.Settings {
	metrics.BreakerState.WithLabelValues(name).Set(0)
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxFailures
		},
		// 调用方取消不算存储故障
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("熔断器状态变化")
		},
	}
}

func (b *BreakerCatalog) Count(ctx context.Context, q Query) (int64, error) {
	return b.count.Execute(func() (int64, error) {
		return b.next.Count(ctx, q)
	})
}

func (b *BreakerCatalog) Fetch(ctx context.Context, q Query) ([]model.CatalogRow, error) {
	return b.fetch.Execute(func() ([]model.CatalogRow, error) {
		return b.next.Fetch(ctx, q)
	})
}
