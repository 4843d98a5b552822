package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr           string        `json:"addr" yaml:"addr"`                     // 监听地址，如: 0.0.0.0:8080
	ReadTimeout    time.Duration `json:"readTimeout" yaml:"readTimeout"`       // 读取超时
	WriteTimeout   time.Duration `json:"writeTimeout" yaml:"writeTimeout"`     // 写入超时
	MaxHeaderBytes int           `json:"maxHeaderBytes" yaml:"maxHeaderBytes"` // 最大请求头
	RequestTimeout time.Duration `json:"requestTimeout" yaml:"requestTimeout"` // 单请求超时（中间件层）
}

// DefaultServerConfig 返回本地开发的默认配置。
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           envString("CHATLY_ADDR", "0.0.0.0:8080"),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
		RequestTimeout: 8 * time.Second,
	}
}

// DefaultNodeID 雪花节点 id，多实例部署时必须各不相同。
func DefaultNodeID() int {
	return envInt("CHATLY_NODE_ID", 0)
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level            string   `json:"level" yaml:"level"`                       // debug/info/warn/error
	Encoding         string   `json:"encoding" yaml:"encoding"`                 // json/console
	EnableColor      bool     `json:"enableColor" yaml:"enableColor"`           // console 模式下彩色等级
	Development      bool     `json:"development" yaml:"development"`           // 开发模式（错误带堆栈）
	OutputPaths      []string `json:"outputPaths" yaml:"outputPaths"`           // 普通日志输出，支持 stdout/文件路径
	ErrorOutputPaths []string `json:"errorOutputPaths" yaml:"errorOutputPaths"` // 错误日志输出
}

// DefaultLoggerConfig 返回本地开发的默认配置。
// 容器场景默认输出 stdout/stderr，滚动由外部系统负责。
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:            envString("CHATLY_LOG_LEVEL", "info"),
		Encoding:         "json",
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
}

// DatabaseConfig MySQL 配置
type DatabaseConfig struct {
	DSN             string        `json:"dsn" yaml:"dsn"`                         // 主库 DSN
	ReplicaDSNs     []string      `json:"replicaDsns" yaml:"replicaDsns"`         // 只读副本 DSN（可空，开启 dbresolver 读写分离）
	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`       // 最大打开连接数
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`       // 最大空闲连接数
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"` // 连接最大生命周期
}

// DefaultDatabaseConfig 返回本地开发的默认配置（与 docker-compose 对齐）。
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		DSN:             envString("CHATLY_MYSQL_DSN", "chatly:chatly@tcp(127.0.0.1:3306)/chatly?charset=utf8mb4&parseTime=True&loc=Local"),
		ReplicaDSNs:     envStringList("CHATLY_MYSQL_REPLICA_DSNS"),
		MaxOpenConns:    100,
		MaxIdleConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr         string        `json:"addr" yaml:"addr"`
	Password     string        `json:"password" yaml:"password"`
	DB           int           `json:"db" yaml:"db"`
	DialTimeout  time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
	ReadTimeout  time.Duration `json:"readTimeout" yaml:"readTimeout"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	PoolSize     int           `json:"poolSize" yaml:"poolSize"`
}

// DefaultRedisConfig 返回本地开发的默认配置。
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         envString("CHATLY_REDIS_ADDR", "127.0.0.1:6379"),
		Password:     envString("CHATLY_REDIS_PASSWORD", ""),
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     50,
	}
}

// JWTConfig 访问令牌配置
type JWTConfig struct {
	Secret       string        `json:"secret" yaml:"secret"`             // 签名密钥（生产环境从环境变量读取）
	Issuer       string        `json:"issuer" yaml:"issuer"`             // 签发者
	AccessExpire time.Duration `json:"accessExpire" yaml:"accessExpire"` // 访问令牌有效期
}

// DefaultJWTConfig 返回本地开发的默认配置。
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		Secret:       envString("CHATLY_JWT_SECRET", "chatly-dev-secret"),
		Issuer:       "chatly",
		AccessExpire: 24 * time.Hour,
	}
}

// MailConfig SMTP 邮件配置（验证码 / 重置密码）
type MailConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
	// ResetURLBase 密码重置页地址，邮件里拼接 token
	ResetURLBase string `json:"resetUrlBase" yaml:"resetUrlBase"`
}

// DefaultMailConfig 返回本地开发的默认配置。
func DefaultMailConfig() MailConfig {
	return MailConfig{
		Host:     envString("CHATLY_SMTP_HOST", "127.0.0.1"),
		Port:     envInt("CHATLY_SMTP_PORT", 1025),
		Username: envString("CHATLY_SMTP_USER", ""),
		Password: envString("CHATLY_SMTP_PASSWORD", ""),
		From:     envString("CHATLY_SMTP_FROM", "noreply@chatly.local"),
		ResetURLBase: envString("CHATLY_RESET_URL", "http://localhost:3000/reset-password"),
	}
}

// GiphyConfig 外部 GIF 搜索配置
type GiphyConfig struct {
	BaseURL string        `json:"baseUrl" yaml:"baseUrl"`
	APIKey  string        `json:"apiKey" yaml:"apiKey"`
	Limit   int           `json:"limit" yaml:"limit"`   // 单次搜索返回条数
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// DefaultGiphyConfig 返回默认配置。APIKey 必须从环境变量注入。
func DefaultGiphyConfig() GiphyConfig {
	return GiphyConfig{
		BaseURL: envString("CHATLY_GIPHY_BASE_URL", "https://api.giphy.com"),
		APIKey:  envString("CHATLY_GIPHY_API_KEY", ""),
		Limit:   25,
		Timeout: 5 * time.Second,
	}
}

// KafkaConfig 消息事件投递配置
type KafkaConfig struct {
	Brokers      []string      `json:"brokers" yaml:"brokers"`
	Topic        string        `json:"topic" yaml:"topic"`
	WriteTimeout time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
	Enabled      bool          `json:"enabled" yaml:"enabled"` // 关闭时事件仅做本地分发
}

// DefaultKafkaConfig 返回本地开发的默认配置。
func DefaultKafkaConfig() KafkaConfig {
	brokers := envStringList("CHATLY_KAFKA_BROKERS")
	return KafkaConfig{
		Brokers:      brokers,
		Topic:        envString("CHATLY_KAFKA_TOPIC", "chatly.message.sent"),
		WriteTimeout: 3 * time.Second,
		Enabled:      len(brokers) > 0,
	}
}

// RateLimitConfig 入口限流配置
type RateLimitConfig struct {
	Rate  float64 `json:"rate" yaml:"rate"`   // 每秒产生的令牌数
	Burst int     `json:"burst" yaml:"burst"` // 令牌桶容量
}

// DefaultRateLimitConfig 返回默认配置：10 req/s，突发 20。
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{Rate: 10.0, Burst: 20}
}

// ==================== 环境变量读取辅助 ====================

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envStringList(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
