package middleware

import "github.com/gin-gonic/gin"

// Security 安全响应头
func Security() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		// 预告片通过 youtube iframe 播放
		h.Set("Content-Security-Policy", "default-src 'self'; frame-src https://www.youtube.com; img-src 'self' data:; style-src 'self' 'unsafe-inline'")
		c.Next()
	}
}
