package middleware

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/bhavyaajainn/chatly/consts"
	rediskey "github.com/bhavyaajainn/chatly/consts/redisKey"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	pkgredis "github.com/bhavyaajainn/chatly/pkg/redis"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// luaTokenBucket Redis 令牌桶脚本，原子更新桶状态并判断放行。
// KEYS[1]: 限流 key
// ARGV[1]: 当前时间戳(毫秒)  ARGV[2]: 桶容量
// ARGV[3]: 每秒产生令牌数    ARGV[4]: 本次消耗令牌数
// 返回 1 放行，0 限流。
const luaTokenBucket = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])

local info = redis.call('HMGET', key, 'tokens', 'last_time')
local current_tokens = tonumber(info[1])
local last_time = tonumber(info[2])

if current_tokens == nil then
    current_tokens = capacity
end
if last_time == nil then
    last_time = now
end

local time_diff = math.max(0, now - last_time)
local new_tokens = math.floor((time_diff * rate) / 1000)

if new_tokens > 0 then
    current_tokens = math.min(capacity, current_tokens + new_tokens)
    last_time = now
end

local allowed = 0
if current_tokens >= requested then
    current_tokens = current_tokens - requested
    allowed = 1
end

redis.call('HMSET', key, 'tokens', current_tokens, 'last_time', last_time)

local fill_time = math.ceil(capacity / rate)
local ttl = math.max(60, fill_time * 2)
redis.call('EXPIRE', key, ttl)

return allowed
`

// RateLimiter 令牌桶限流器。
// Redis 可用时多实例共享一个桶；Redis 不可用时降级为
// 进程内令牌桶，保证单实例仍有保护。
type RateLimiter struct {
	rate  float64
	burst int

	mu     sync.Mutex
	locals map[string]*rate.Limiter
}

// NewRateLimiter 创建限流器
// rate: 每秒产生的令牌数  burst: 令牌桶容量
func NewRateLimiter(ratePerSec float64, burst int) *RateLimiter {
	return &RateLimiter{
		rate:   ratePerSec,
		burst:  burst,
		locals: make(map[string]*rate.Limiter),
	}
}

// Allow 检查 key 是否允许通过
func (r *RateLimiter) Allow(ctx context.Context, key string) bool {
	client := pkgredis.Client()
	if client == nil {
		return r.allowLocal(key)
	}

	// Redis 操作加独立短超时，防止响应慢拖死入口
	redisCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	now := time.Now().UnixMilli()
	raw, err := client.Eval(redisCtx, luaTokenBucket, []string{key}, now, r.burst, r.rate, 1).Result()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			logger.Warn(ctx, "限流检查超时，降级本地限流",
				logger.String("key", key),
				logger.ErrorField(err),
			)
		} else {
			logger.Error(ctx, "限流检查失败，降级本地限流",
				logger.String("key", key),
				logger.ErrorField(err),
			)
		}
		return r.allowLocal(key)
	}

	allowed, ok := raw.(int64)
	if !ok {
		logger.Warn(ctx, "限流脚本返回值类型错误，放行",
			logger.String("key", key),
			logger.Any("result", raw),
		)
		return true
	}
	return allowed == 1
}

// allowLocal 进程内令牌桶，按 key 懒创建
func (r *RateLimiter) allowLocal(key string) bool {
	r.mu.Lock()
	limiter, ok := r.locals[key]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(r.rate), r.burst)
		r.locals[key] = limiter
	}
	r.mu.Unlock()
	return limiter.Allow()
}

// IPRateLimitMiddleware IP 级别限流中间件
func IPRateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			logger.Warn(c.Request.Context(), "无法获取客户端 IP，跳过限流检查",
				logger.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		if !limiter.Allow(c.Request.Context(), rediskey.IPRateLimitKey(ip)) {
			logger.Warn(c.Request.Context(), "IP 请求被限流",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path),
				logger.String("method", c.Request.Method),
			)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    consts.CodeTooManyRequests,
				"message": "请求过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserRateLimitMiddleware 用户级别限流中间件，需在 JWT 认证之后使用
func UserRateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userUUID, exists := GetUserUUID(c)
		if !exists || userUUID == "" {
			logger.Warn(c.Request.Context(), "无法获取用户 UUID，跳过用户限流检查",
				logger.String("path", c.Request.URL.Path),
			)
			c.Next()
			return
		}

		if !limiter.Allow(c.Request.Context(), rediskey.UserRateLimitKey(userUUID)) {
			logger.Warn(c.Request.Context(), "用户请求被限流",
				logger.String("user_uuid", userUUID),
				logger.String("path", c.Request.URL.Path),
			)
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    consts.CodeTooManyRequests,
				"message": "请求过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
