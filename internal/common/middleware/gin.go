package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GinRateLimit 把 RateLimiter 接到 gin 上；超限直接 429。
// 目前挂在出车/回场提交路由上，防止客户端重试风暴打穿存储。
func GinRateLimit(limiter RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter != nil && !limiter.Allow(c.Request.Context()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{"kind": "rate_limited", "message": "too many requests"},
			})
			return
		}
		c.Next()
	}
}
