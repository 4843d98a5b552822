package middleware

import (
	"net"
	"net/http/httputil"
	"os"
	"runtime/debug"
	"strings"

	"github.com/bhavyaajainn/chatly/consts"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	"github.com/bhavyaajainn/chatly/pkg/result"

	"github.com/gin-gonic/gin"
)

// GinRecovery panic 恢复中间件。
// broken pipe 类错误说明客户端已断开，无法也无需写响应，
// 只记日志后中断；其余 panic 记录堆栈并返回内部错误。
func GinRecovery(stack bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				var brokenPipe bool
				if ne, ok := err.(*net.OpError); ok {
					if se, ok := ne.Err.(*os.SyscallError); ok {
						msg := strings.ToLower(se.Error())
						if strings.Contains(msg, "broken pipe") ||
							strings.Contains(msg, "connection reset by peer") {
							brokenPipe = true
						}
					}
				}

				ctx := c.Request.Context()
				httpRequest, _ := httputil.DumpRequest(c.Request, false)
				if brokenPipe {
					logger.Error(ctx, "连接已断开",
						logger.String("path", c.Request.URL.Path),
						logger.Any("error", err),
						logger.String("request", string(httpRequest)),
					)
					c.Abort()
					return
				}

				if stack {
					logger.Error(ctx, "请求处理 panic",
						logger.Any("error", err),
						logger.String("request", string(httpRequest)),
						logger.String("stack", string(debug.Stack())),
					)
				} else {
					logger.Error(ctx, "请求处理 panic",
						logger.Any("error", err),
						logger.String("request", string(httpRequest)),
					)
				}
				result.Fail(c, nil, consts.CodeInternalError)
				c.Abort()
			}
		}()
		c.Next()
	}
}
