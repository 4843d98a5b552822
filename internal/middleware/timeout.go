package middleware

import (
	"context"
	"time"

	"github.com/bhavyaajainn/chatly/consts"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	"github.com/bhavyaajainn/chatly/pkg/result"

	"github.com/gin-gonic/gin"
)

// TimeoutMiddleware 请求超时控制中间件。
// 不额外开协程，把带超时的 ctx 塞进请求，依赖下游感知退出；
// 下游没来得及写响应时由这里兜底返回超时错误。
func TimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			if !c.Writer.Written() {
				logger.Warn(c.Request.Context(), "请求强制超时",
					logger.String("path", c.Request.URL.Path),
					logger.Duration("timeout", timeout),
				)
				result.Fail(c, nil, consts.CodeTimeoutError)
			}
		}
	}
}
