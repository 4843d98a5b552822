package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatly",
			Name:      "http_requests_total",
			Help:      "HTTP 请求总数",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chatly",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP 请求耗时分布",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	wsSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chatly",
			Name:      "feed_subscriptions",
			Help:      "当前会话订阅数",
		},
	)
)

// MetricsMiddleware 请求指标采集中间件。
// path 用路由模板（c.FullPath）而非原始 URL，避免标签爆炸。
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			// 未匹配到路由统一归类，防止恶意 path 打爆标签
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

// SubscriptionOpened 订阅建立时调用
func SubscriptionOpened() { wsSubscriptions.Inc() }

// SubscriptionClosed 订阅取消时调用
func SubscriptionClosed() { wsSubscriptions.Dec() }
