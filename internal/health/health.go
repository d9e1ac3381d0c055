// Package health 提供基于 heptiolabs/healthcheck 的健康检查
package health

import (
	"net/http"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"inviteme/backend/internal/storage"
)

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	store  storage.Store
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器
// rateLimiter 可为 nil，表示未启用 Redis 限流
func NewHealthChecker(store storage.Store, rateLimiter storage.RateLimitRepository, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		logger: logger,
	}

	// 存储连接检查
	hc.health.AddReadinessCheck("storage", func() error {
		return hc.store.Health()
	})

	// Redis 连接检查
	if rateLimiter != nil {
		hc.health.AddReadinessCheck("redis", RedisHealthCheck(rateLimiter))
	}

	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(500))

	return hc
}

// Handler 返回健康检查处理器
// 暴露 /live 和 /ready 两个端点
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

// RedisHealthCheck Redis 健康检查
func RedisHealthCheck(store storage.RateLimitRepository) healthcheck.Check {
	return func() error {
		_, err := store.GetRateLimit("health_check")
		return err
	}
}
