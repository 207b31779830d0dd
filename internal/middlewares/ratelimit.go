package middlewares

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"realworld/internal/metrics"
)

// Limiter 判断 key 在窗口内是否仍有配额。
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// CounterStore 是 RedisLimiter 所需的最小 Redis 能力，*redis.Client 满足该接口。
type CounterStore interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisLimiter 使用 Redis INCR+TTL 实现固定窗口计数，适用于多实例部署。
type RedisLimiter struct{ store CounterStore }

func NewRedisLimiter(store CounterStore) *RedisLimiter { return &RedisLimiter{store: store} }

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	rkey := "rl:" + key
	// 第一次自增时同时设置 TTL 窗口
	cnt, err := l.store.Incr(ctx, rkey).Result()
	if err != nil {
		return true, err
	}
	// 未设置 TTL 的计数键永不过期，失败时删除以免该 key 被永久限流
	if cnt == 1 {
		if err := l.store.Expire(ctx, rkey, window).Err(); err != nil {
			_ = l.store.Del(context.WithoutCancel(ctx), rkey).Err()
			return true, fmt.Errorf("expire %s: %w", rkey, err)
		}
	}
	return cnt <= int64(limit), nil
}

// LocalLimiter 为进程内令牌桶（未启用 Redis 时使用），按 key 维护 rate.Limiter。
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	now     func() time.Time
}

type localBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// 超过该数量时清理闲置的桶。
const maxLocalBuckets = 10000

func NewLocalLimiter() *LocalLimiter {
	return &LocalLimiter{buckets: map[string]*localBucket{}, now: time.Now}
}

func (l *LocalLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return true, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		if len(l.buckets) >= maxLocalBuckets {
			l.prune(now, window)
		}
		b = &localBucket{lim: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
		l.buckets[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1), nil
}

func (l *LocalLimiter) prune(now time.Time, idle time.Duration) {
	for k, b := range l.buckets {
		if now.Sub(b.seen) > idle {
			delete(l.buckets, k)
		}
	}
}

// RateLimit 返回限流中间件；scope 区分不同接口的配额，keyFn 构建请求者唯一键（如按 IP）。
// limiter 为 nil 或 limit<=0 时不限流；后端出错时放行并记录日志。
func RateLimit(l Limiter, scope string, limit int, window time.Duration, keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || limit <= 0 {
			c.Next()
			return
		}
		key := keyFn(c)
		if key == "" {
			c.Next()
			return
		}
		ok, err := l.Allow(c.Request.Context(), scope+":"+key, limit, window)
		if err != nil {
			log.WithError(err).WithField("scope", scope).Warn("rate limiter unavailable")
		}
		if !ok {
			metrics.RateLimited.WithLabelValues(scope).Inc()
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			AbortWithErrors(c, http.StatusTooManyRequests, "Too many requests, please try again later")
			return
		}
		c.Next()
	}
}

// ByClientIP 以客户端 IP 作为限流键。
func ByClientIP(c *gin.Context) string { return c.ClientIP() }
