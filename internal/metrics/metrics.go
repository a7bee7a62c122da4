// Package metrics Prometheus 指标
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests HTTP 请求计数
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviescroll_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration HTTP 请求耗时
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviescroll_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// CatalogQueryDuration 目录查询耗时
	CatalogQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moviescroll_catalog_query_duration_seconds",
			Help:    "Catalog store query latency in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"op"},
	)

	// CatalogQueryErrors 目录查询失败次数
	CatalogQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviescroll_catalog_query_errors_total",
			Help: "Total number of failed catalog store queries",
		},
		[]string{"op"},
	)

	// CountCacheLookups count 缓存命中情况
	CountCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moviescroll_count_cache_lookups_total",
			Help: "Eligible-movie count cache lookups",
		},
		[]string{"result"},
	)

	// BreakerState 熔断器状态：0 closed, 1 half-open, 2 open
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "moviescroll_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// MoviesServed 返回给客户端的电影数量
	MoviesServed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviescroll_movies_served_total",
			Help: "Total number of movies returned by the next-batch endpoint",
		},
	)

	// RowsRejected 被标准化规则丢弃的行
	RowsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviescroll_rows_rejected_total",
			Help: "Catalog rows dropped by normalization",
		},
	)

	// CatalogEligible 最近一次统计到的可展示电影数
	CatalogEligible = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moviescroll_catalog_eligible_movies",
			Help: "Number of catalog movies with a trailer, refreshed periodically",
		},
	)

	// RateLimited 被限流的请求
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moviescroll_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
	)
)

// ObserveCatalogQuery 记录一次目录查询
func ObserveCatalogQuery(op string, start time.Time, err error) {
	CatalogQueryDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		CatalogQueryErrors.WithLabelValues(op).Inc()
	}
}
