package middleware

import (
	"time"

	"github.com/bhavyaajainn/chatly/pkg/logger"

	"github.com/gin-gonic/gin"
)

// GinLogger 请求日志中间件。
// 正常请求不记录，只记录服务端错误(5xx)和慢请求(>2s)，
// 避免高 QPS 下日志刷屏。
func GinLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		cost := time.Since(start)
		status := c.Writer.Status()

		if status >= 500 || cost > 2*time.Second {
			logger.Warn(c.Request.Context(), "慢请求或服务端错误",
				logger.Int("status", status),
				logger.String("method", c.Request.Method),
				logger.String("path", path),
				logger.String("query", query),
				logger.String("ip", c.ClientIP()),
				logger.String("user-agent", c.Request.UserAgent()),
				logger.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()),
				logger.Duration("cost", cost),
			)
		}
	}
}
