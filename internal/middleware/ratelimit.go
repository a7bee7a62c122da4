package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/moviescroll/internal/logging"
	"github.com/user/moviescroll/internal/metrics"
	"github.com/user/moviescroll/internal/utils"
	"golang.org/x/time/rate"
)

const (
	limiterCacheSize = 10000
	limiterIdleTTL   = 10 * time.Minute
)

// RateLimit 按客户端 IP 的令牌桶限流，rps <= 0 时不限流
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if burst <= 0 {
		burst = 1
	}

	limiters := utils.NewTTLCache[*rate.Limiter](limiterCacheSize, limiterIdleTTL)
	return func(c *gin.Context) {
		limiter := limiters.GetOrAdd(c.ClientIP(), func() *rate.Limiter {
			return rate.NewLimiter(rate.Limit(rps), burst)
		})
		if !limiter.Allow() {
			metrics.RateLimited.Inc()
			logging.Ctx(c.Request.Context()).Warn().
				Str("client", utils.HashIP(c.ClientIP())).
				Str("path", c.Request.URL.Path).
				Msg("请求过于频繁")
			utils.TooManyRequests(c)
			return
		}
		c.Next()
	}
}
