package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/bhavyaajainn/chatly/config"

	"github.com/redis/go-redis/v9"
)

// EmptyPlaceholder 缓存空值占位符，防止缓存穿透
const EmptyPlaceholder = "__EMPTY__"

var global *redis.Client

// Client 返回全局 Redis 客户端（未初始化时为 nil）
func Client() *redis.Client {
	return global
}

// ReplaceGlobal 设置全局 Redis 客户端
func ReplaceGlobal(c *redis.Client) {
	global = c
}

// Build 根据配置创建 Redis 客户端并验证连通性。
func Build(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
