package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gin-gonic/gin"
	"github.com/user/moviescroll/internal/model"
)

// HashIP 对 IP 地址进行哈希处理（日志中不记录原始 IP）
func HashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}

// Error 返回 {error} 错误响应
func Error(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, model.ErrorResponse{Error: message})
}

// ErrorWithDetail 返回 {error, detail} 错误响应，detail 为空时省略
func ErrorWithDetail(c *gin.Context, code int, message, detail string) {
	c.AbortWithStatusJSON(code, model.ErrorResponse{Error: message, Detail: detail})
}

// BadRequest 返回400错误
func BadRequest(c *gin.Context, message string) {
	Error(c, 400, message)
}

// TooManyRequests 返回429错误
func TooManyRequests(c *gin.Context) {
	Error(c, 429, "Too many requests")
}

// ServiceUnavailable 返回503错误
func ServiceUnavailable(c *gin.Context, message string) {
	Error(c, 503, message)
}
