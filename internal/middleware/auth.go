package middleware

import (
	"net/http"
	"strings"

	"github.com/bhavyaajainn/chatly/config"
	"github.com/bhavyaajainn/chatly/consts"
	rediskey "github.com/bhavyaajainn/chatly/consts/redisKey"
	"github.com/bhavyaajainn/chatly/pkg/ctxmeta"
	pkgredis "github.com/bhavyaajainn/chatly/pkg/redis"
	"github.com/bhavyaajainn/chatly/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// JWTAuthMiddleware JWT 认证中间件
// 从请求头中提取 Token 并验证，验证通过后将用户信息存入 Context
func JWTAuthMiddleware(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. 从 Header 中获取 Authorization
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			// 客户端请求错误,属于正常业务流程,不记录日志
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    consts.CodeUnauthorized,
				"message": "未提供认证信息",
			})
			c.Abort()
			return
		}

		// 2. 验证格式: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    consts.CodeUnauthorized,
				"message": "认证格式错误",
			})
			c.Abort()
			return
		}

		// 3. 解析并验证 Token
		claims, err := util.ParseAccessToken(cfg, parts[1])
		if err != nil {
			// Token 无效或过期,属于正常业务流程,不记录日志
			code := consts.CodeInvalidToken
			if err == util.ErrTokenExpired {
				code = consts.CodeTokenExpired
			}
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    code,
				"message": "Token 无效或已过期",
			})
			c.Abort()
			return
		}

		// 4. 白名单校验：登出或重新登录后旧令牌立即失效。
		// Redis 不可用时降级为纯签名校验。
		if rdb := pkgredis.Client(); rdb != nil {
			stored, err := rdb.Get(c.Request.Context(), rediskey.AccessTokenKey(claims.UserUUID)).Result()
			if err == nil && stored != parts[1] {
				c.JSON(http.StatusUnauthorized, gin.H{
					"code":    consts.CodeInvalidToken,
					"message": "Token 已失效",
				})
				c.Abort()
				return
			}
			if err == redis.Nil {
				c.JSON(http.StatusUnauthorized, gin.H{
					"code":    consts.CodeInvalidToken,
					"message": "Token 已失效",
				})
				c.Abort()
				return
			}
		}

		// 5. 将用户信息存入 Context，供后续 Handler 使用
		c.Set("user_uuid", claims.UserUUID)
		c.Request = c.Request.WithContext(
			ctxmeta.WithUserUUID(c.Request.Context(), claims.UserUUID),
		)

		c.Next()
	}
}

// GetUserUUID 从 Context 中获取当前登录用户的 UUID
func GetUserUUID(c *gin.Context) (string, bool) {
	userUUID, exists := c.Get("user_uuid")
	if !exists {
		return "", false
	}
	uuid, ok := userUUID.(string)
	return uuid, ok
}
