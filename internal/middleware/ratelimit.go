package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"inviteme/backend/internal/cache"
	"inviteme/backend/internal/monitoring"
	"inviteme/backend/internal/storage"
)

// RateLimiter 按来源 IP 限制表单提交频率
// 配置了 Redis 时计数跨实例共享，否则退化为进程内令牌桶
type RateLimiter struct {
	repo    storage.RateLimitRepository
	limit   int
	window  time.Duration
	metrics *monitoring.Metrics
	log     *zap.Logger

	// 按 IP 缓存的令牌桶，TTL 过期防止条目无限增长
	limiters *cache.TTLCache
}

// NewRateLimiter 创建限流中间件
// repo 与 metrics 均可为 nil
func NewRateLimiter(repo storage.RateLimitRepository, limit int, window time.Duration, metrics *monitoring.Metrics, log *zap.Logger) *RateLimiter {
	limiterTTL := 2 * window
	if limiterTTL < 10*time.Minute {
		limiterTTL = 10 * time.Minute
	}
	return &RateLimiter{
		repo:     repo,
		limit:    limit,
		window:   window,
		metrics:  metrics,
		log:      log,
		limiters: cache.NewTTLCache(limiterTTL),
	}
}

// LimitSubmissions 表单提交限流
func (rl *RateLimiter) LimitSubmissions() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 {
			c.Next()
			return
		}

		if !rl.allow(c.ClientIP()) {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimitBlock("submission")
			}
			rl.log.Warn("提交频率超限",
				zap.String("ip", c.ClientIP()))
			c.Header("Retry-After", rl.window.Round(time.Second).String())
			c.String(http.StatusTooManyRequests, "Too many requests. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	if rl.repo != nil {
		count, err := rl.repo.IncrementRateLimit("submit:"+ip, rl.window)
		if err != nil {
			// Redis 故障时放行，限流不能变成单点
			rl.log.Error("限流计数失败", zap.Error(err))
			return true
		}
		return count <= int64(rl.limit)
	}
	return rl.localLimiter(ip).Allow()
}

func (rl *RateLimiter) localLimiter(ip string) *rate.Limiter {
	return rl.limiters.GetOrCreate(ip, func() interface{} {
		return rate.NewLimiter(rate.Every(rl.window/time.Duration(rl.limit)), rl.limit)
	}).(*rate.Limiter)
}
