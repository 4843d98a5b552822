package router

import (
	"time"

	"github.com/bhavyaajainn/chatly/config"
	"github.com/bhavyaajainn/chatly/internal/middleware"
	v1 "github.com/bhavyaajainn/chatly/internal/router/v1"
	"github.com/bhavyaajainn/chatly/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers 路由依赖的处理器集合
type Handlers struct {
	Auth   *v1.AuthHandler
	Friend *v1.FriendHandler
	Chat   *v1.ChatHandler
	WS     *v1.WSHandler
}

// InitRouter 初始化路由
func InitRouter(cfg config.JWTConfig, rateCfg config.RateLimitConfig, h Handlers) *gin.Engine {
	r := gin.New()

	// 恢复中间件
	r.Use(middleware.GinRecovery(true))

	// 追踪中间件 (生成 trace_id)
	r.Use(util.TraceLogger())

	// 日志中间件
	r.Use(middleware.GinLogger())

	// Prometheus 监控中间件
	r.Use(middleware.MetricsMiddleware())

	// 跨域中间件
	r.Use(middleware.CorsMiddleware())

	// IP 级别限流
	ipLimiter := middleware.NewRateLimiter(rateCfg.Rate, rateCfg.Burst)
	r.Use(middleware.IPRateLimitMiddleware(ipLimiter))

	// 健康检查（无需认证）
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	// Prometheus 指标暴露接口
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// WebSocket 订阅入口（token 走 query，握手内部鉴权）
	r.GET("/ws/chat", h.WS.ServeWS)

	// API 路由组
	api := r.Group("/api/v1")
	{
		// 公开接口（不需要认证）
		public := api.Group("/public")
		public.Use(middleware.TimeoutMiddleware(5 * time.Second))
		{
			public.POST("/register", h.Auth.Register)
			public.POST("/login", h.Auth.Login)
			public.POST("/send-verify-code", h.Auth.SendVerifyCode)
			public.POST("/verify-email", h.Auth.VerifyEmail)
			public.POST("/forgot-password", h.Auth.ForgotPassword)
			public.POST("/reset-password", h.Auth.ResetPassword)
		}

		// 需要认证的接口
		auth := api.Group("/auth")
		auth.Use(middleware.JWTAuthMiddleware(cfg))
		userLimiter := middleware.NewRateLimiter(rateCfg.Rate*10, rateCfg.Burst*10)
		auth.Use(middleware.UserRateLimitMiddleware(userLimiter))
		{
			// 用户相关接口
			user := auth.Group("/user")
			{
				user.GET("/profile", h.Auth.GetProfile)
				user.PUT("/profile", h.Auth.UpdateProfile)
				user.POST("/avatar", h.Auth.UploadAvatar)
				user.POST("/logout", h.Auth.Logout)
			}

			// 好友相关接口
			friend := auth.Group("/friend")
			{
				friend.POST("/request", h.Friend.SendRequest)
				friend.POST("/request/accept", h.Friend.Accept)
				friend.POST("/request/reject", h.Friend.Reject)
				friend.POST("/request/cancel", h.Friend.Cancel)
				friend.POST("/remove", h.Friend.Remove)
				friend.GET("/requests", h.Friend.ListRequests)
				friend.GET("/list", h.Friend.ListFriends)
			}

			// 聊天相关接口
			chat := auth.Group("/chat")
			{
				// 附件上传慢，单独放宽超时
				chat.POST("/message", middleware.TimeoutMiddleware(60*time.Second), h.Chat.SendMessage)
				chat.GET("/messages", h.Chat.ListMessages)
				chat.GET("/channels", h.Chat.ListChannels)
				chat.POST("/delete", h.Chat.DeleteChat)
				chat.GET("/gifs", h.Chat.SearchGifs)
			}
		}
	}

	return r
}
