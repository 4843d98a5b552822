package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/bhavyaajainn/chatly/config"
	"github.com/bhavyaajainn/chatly/internal/live"
	"github.com/bhavyaajainn/chatly/internal/mq"
	"github.com/bhavyaajainn/chatly/internal/repository"
	"github.com/bhavyaajainn/chatly/internal/router"
	v1 "github.com/bhavyaajainn/chatly/internal/router/v1"
	"github.com/bhavyaajainn/chatly/internal/service"
	"github.com/bhavyaajainn/chatly/model"
	"github.com/bhavyaajainn/chatly/pkg/async"
	"github.com/bhavyaajainn/chatly/pkg/database"
	"github.com/bhavyaajainn/chatly/pkg/giphy"
	"github.com/bhavyaajainn/chatly/pkg/logger"
	"github.com/bhavyaajainn/chatly/pkg/mail"
	"github.com/bhavyaajainn/chatly/pkg/minio"
	pkgredis "github.com/bhavyaajainn/chatly/pkg/redis"
	"github.com/bhavyaajainn/chatly/pkg/util"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 初始化日志
	logCfg := config.DefaultLoggerConfig()
	zl, err := logger.Build(logCfg)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	logger.ReplaceGlobal(zl)
	defer zl.Sync()

	// 2. 初始化雪花节点
	if err := util.InitIDNode(int64(config.DefaultNodeID())); err != nil {
		log.Fatalf("初始化雪花节点失败: %v", err)
	}

	// 3. 初始化 MySQL
	dbCfg := config.DefaultDatabaseConfig()
	db, err := database.Build(dbCfg)
	if err != nil {
		log.Fatalf("初始化MySQL失败: %v", err)
	}
	if err := db.AutoMigrate(
		&model.UserInfo{},
		&model.FriendRequest{},
		&model.Message{},
		&model.ChannelMeta{},
	); err != nil {
		log.Fatalf("表结构迁移失败: %v", err)
	}

	// 4. 初始化 Redis
	redisCfg := config.DefaultRedisConfig()
	redisClient, err := pkgredis.Build(redisCfg)
	if err != nil {
		// 验证码、重置令牌、令牌白名单都依赖 Redis，起不来就没法对外服务
		log.Fatalf("Redis 初始化失败: %v", err)
	}
	pkgredis.ReplaceGlobal(redisClient)
	logger.Info(ctx, "Redis 初始化成功",
		logger.String("addr", redisCfg.Addr),
	)

	// 5. 初始化协程池
	asyncCfg := config.DefaultAsyncConfig()
	if err := async.Init(asyncCfg); err != nil {
		log.Fatalf("初始化协程池失败: %v", err)
	}
	defer func() {
		if err := async.Release(); err != nil {
			logger.Warn(context.Background(), "协程池释放超时", logger.ErrorField(err))
		}
	}()

	// 6. 初始化 MinIO
	minioCfg := config.DefaultMinIOConfig()
	minioClient, err := minio.Build(minioCfg)
	if err != nil {
		log.Fatalf("初始化MinIO失败: %v", err)
	}
	minio.ReplaceGlobal(minioClient)

	// 7. 初始化邮件与 GIF 搜索客户端
	mailSender := mail.NewSender(config.DefaultMailConfig())
	giphyClient := giphy.NewClient(config.DefaultGiphyConfig())

	// 8. 初始化事件生产者（未配置 broker 时为空实现）
	producer := mq.NewProducer(config.DefaultKafkaConfig())
	defer producer.Close()

	// 9. 组装依赖 - Repository 层
	userRepo := repository.NewUserRepository(db, redisClient)
	friendRepo := repository.NewFriendRepository(db, redisClient)
	msgRepo := repository.NewMessageRepository(db, redisClient)

	// 10. 订阅中心，快照直接走消息仓储
	hub := live.NewHub(func(ctx context.Context, channelID string) ([]model.Message, error) {
		return msgRepo.ListByChannel(ctx, channelID, 500)
	})

	// 11. 组装依赖 - Service 层
	jwtCfg := config.DefaultJWTConfig()
	mailCfg := config.DefaultMailConfig()
	authService := service.NewAuthService(userRepo, mailSender, minioClient, jwtCfg, mailCfg.ResetURLBase)
	friendService := service.NewFriendService(friendRepo, userRepo)
	chatService := service.NewChatService(msgRepo, friendRepo, minioClient, giphyClient, hub, producer)

	// 12. 组装依赖 - Handler 层
	handlers := router.Handlers{
		Auth:   v1.NewAuthHandler(authService),
		Friend: v1.NewFriendHandler(friendService),
		Chat:   v1.NewChatHandler(chatService),
		WS:     v1.NewWSHandler(hub, jwtCfg),
	}

	// 13. 启动 HTTP 服务
	srvCfg := config.DefaultServerConfig()
	engine := router.InitRouter(jwtCfg, config.DefaultRateLimitConfig(), handlers)
	srv := &http.Server{
		Addr:           srvCfg.Addr,
		Handler:        engine,
		ReadTimeout:    srvCfg.ReadTimeout,
		WriteTimeout:   srvCfg.WriteTimeout,
		MaxHeaderBytes: srvCfg.MaxHeaderBytes,
	}

	go func() {
		logger.Info(ctx, "服务启动成功", logger.String("addr", srvCfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "HTTP 服务启动失败", logger.ErrorField(err))
		}
	}()

	// 14. 等待退出信号，优雅关停
	<-ctx.Done()
	logger.Info(context.Background(), "收到退出信号，开始优雅关停")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn(context.Background(), "HTTP 服务关停超时", logger.ErrorField(err))
	}
	logger.Info(context.Background(), "服务已退出")
}
