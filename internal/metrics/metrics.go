package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP 指标以路由模板（而非原始路径）为标签，slug 与用户名不会进入标签值。
var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "HTTP 请求计数（按路由/方法/状态）"},
		[]string{"path", "method", "status"},
	)
	HTTPLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP 请求耗时（秒）", Buckets: prometheus.DefBuckets},
		[]string{"path", "method"},
	)
)

// 业务计数
var (
	UsersRegistered   = promauto.NewCounter(prometheus.CounterOpts{Name: "users_registered_total", Help: "注册用户总数"})
	ArticlesPublished = promauto.NewCounter(prometheus.CounterOpts{Name: "articles_published_total", Help: "发布文章总数"})
	CommentsPosted    = promauto.NewCounter(prometheus.CounterOpts{Name: "comments_posted_total", Help: "发表评论总数"})
	// reason: missing | invalid | bad_credentials
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{Name: "auth_failures_total", Help: "认证失败计数（按原因）"},
		[]string{"reason"},
	)
	// scope: login | register
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{Name: "rate_limited_total", Help: "被限流的请求计数（按作用域）"},
		[]string{"scope"},
	)
)

// Handler 记录每个请求的计数与耗时；未匹配的路由统一记为 "unmatched"。
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		HTTPLatency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
		HTTPRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Exposer 返回默认注册表的 Prometheus 暴露处理器。
func Exposer() gin.HandlerFunc { return gin.WrapH(promhttp.Handler()) }
