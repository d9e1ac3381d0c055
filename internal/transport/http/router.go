// Package httptransport 提供基于 Gin 的 HTTP 传输层
package httptransport

import (
	"html/template"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"inviteme/backend/internal/auth"
	jwtpkg "inviteme/backend/internal/auth/jwt"
	"inviteme/backend/internal/config"
	"inviteme/backend/internal/health"
	"inviteme/backend/internal/middleware"
	"inviteme/backend/internal/monitoring"
	"inviteme/backend/internal/service"
	"inviteme/backend/internal/storage"
	"inviteme/backend/web"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config        *config.Config
	InviteService *service.InviteService
	AdminService  *service.AdminService
	AuthService   *auth.Service
	JWTManager    *jwtpkg.Manager
	RateLimiter   storage.RateLimitRepository // 可为 nil，退化为进程内限流
	HealthChecker *health.HealthChecker       // 可为 nil
	Metrics       *monitoring.Metrics         // 可为 nil
	Logger        *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 使用自定义中间件替代默认中间件
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	if deps.Metrics != nil {
		router.Use(middleware.HTTPMetrics(deps.Metrics))
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 页面模板
	tmpl := template.Must(template.New("").ParseFS(web.TemplateFS, "templates/*.html"))
	router.SetHTMLTemplate(tmpl)

	// Swagger 文档
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 健康检查与监控端点
	if deps.HealthChecker != nil {
		healthHandler := gin.WrapH(deps.HealthChecker.Handler())
		router.GET("/live", healthHandler)
		router.GET("/ready", healthHandler)
	}
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	// 创建处理器
	inviteHandler := NewInviteHandler(deps.InviteService, deps.Config, deps.Logger)
	adminHandler := NewAdminHandler(deps.AdminService, deps.AuthService, deps.JWTManager, deps.Logger)

	// 创建中间件
	jwtAuth := middleware.NewJWTAuth(deps.JWTManager, deps.Logger)
	rateLimiter := middleware.NewRateLimiter(
		deps.RateLimiter,
		deps.Config.Form.RateLimit,
		deps.Config.Form.RateWindow,
		deps.Metrics,
		deps.Logger,
	)

	// ========== 邀请流程（HTML 页面） ==========
	router.GET("/", inviteHandler.ShowForm)
	router.POST("/post/", rateLimiter.LimitSubmissions(), inviteHandler.Submit)
	router.GET("/confirm/:key", inviteHandler.Confirm)

	// ========== 管理 API ==========
	v1 := router.Group("/v1")
	{
		adminRoutes := v1.Group("/admin")
		{
			adminRoutes.POST("/login", adminHandler.Login)
			adminRoutes.POST("/refresh", adminHandler.Refresh)

			authed := adminRoutes.Group("")
			authed.Use(jwtAuth.RequireAuth())
			{
				authed.GET("/me", adminHandler.Me)
				authed.GET("/contacts", adminHandler.ListContacts)
			}
		}
	}

	return router
}
