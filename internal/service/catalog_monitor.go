package service

import (
	"context"
	"time"

	"github.com/user/moviescroll/internal/logging"
	"github.com/user/moviescroll/internal/metrics"
	"github.com/user/moviescroll/internal/repository"
)

// CatalogMonitor 定时统计可展示电影数
type CatalogMonitor struct {
	store    repository.CatalogStore
	interval time.Duration
}

// NewCatalogMonitor 创建目录统计任务
func NewCatalogMonitor(store repository.CatalogStore, interval time.Duration) *CatalogMonitor {
	return &CatalogMonitor{store: store, interval: interval}
}

// Start 启动定时统计，ctx 结束后停止；interval 不大于 0 时不启动
func (m *CatalogMonitor) Start(ctx context.Context) {
	if m.interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		// 启动时先运行一次
		m.RunOnce(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.RunOnce(ctx)
			}
		}
	}()
}

// RunOnce 统计一次并更新指标
func (m *CatalogMonitor) RunOnce(ctx context.Context) (int64, error) {
	n, err := m.store.Count(ctx, EligibleQuery())
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("[CatalogMonitor] 统计可展示电影失败")
		return 0, err
	}
	metrics.CatalogEligible.Set(float64(n))
	if n == 0 {
		logging.Ctx(ctx).Warn().Msg("[CatalogMonitor] 目录中没有可展示的电影")
	} else {
		logging.Ctx(ctx).Debug().Int64("eligible", n).Msg("[CatalogMonitor] 统计完成")
	}
	return n, nil
}
