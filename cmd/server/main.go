package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"inviteme/backend/internal/auth"
	jwtpkg "inviteme/backend/internal/auth/jwt"
	"inviteme/backend/internal/config"
	"inviteme/backend/internal/health"
	"inviteme/backend/internal/logger"
	"inviteme/backend/internal/mailer"
	"inviteme/backend/internal/monitoring"
	"inviteme/backend/internal/security"
	"inviteme/backend/internal/service"
	sigbus "inviteme/backend/internal/signal"
	"inviteme/backend/internal/storage"
	"inviteme/backend/internal/storage/memory"
	"inviteme/backend/internal/storage/postgres"
	redisstore "inviteme/backend/internal/storage/redis"
	"inviteme/backend/internal/token"
	httptransport "inviteme/backend/internal/transport/http"
)

// main 启动邀请确认 Web 服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		LogFile:     "",
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      28,
		Compress:    true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	log.Info("starting inviteme server",
		zap.String("site", cfg.Site.Name),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层
	var store storage.Store
	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		store, err = initializeDatabaseStorage(cfg, log)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize database storage: %v", err))
		}
		log.Info("using database storage", zap.String("type", cfg.Database.Type))
	} else {
		store = memory.NewStore()
		log.Info("using memory storage (development mode)")
	}

	// 初始化 Redis 限流计数（可选）
	var rateLimitRepo storage.RateLimitRepository
	if cfg.Redis.Address != "" {
		redisClient, err := redisstore.New(cfg.Redis, log)
		if err != nil {
			panic(fmt.Sprintf("failed to connect to redis: %v", err))
		}
		defer redisClient.Close()
		rateLimitRepo = redisstore.NewCache(redisClient)
		log.Info("using redis rate limiting", zap.String("address", cfg.Redis.Address))
	} else {
		log.Info("redis not configured, using in-process rate limiting")
	}

	// 初始化监控系统
	metrics := monitoring.NewMetrics()

	// 初始化健康检查
	healthChecker := health.NewHealthChecker(store, rateLimitRepo, log)

	// 初始化邮件发送（并发会话上限 4，匹配常见服务商限制）
	transport := mailer.NewPooledTransport(mailer.NewSMTPTransport(cfg.SMTP), 4)
	dispatcher, err := mailer.NewDispatcher(transport, cfg.Site, cfg.Notify, cfg.SMTP.From, log)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize mail dispatcher: %v", err))
	}

	// 初始化信号总线：垃圾提交筛查 + 审计日志
	bus := sigbus.NewBus()
	bus.Subscribe(sigbus.ConfirmationWillBeRequested, security.NewScreener().Receiver())
	registerAuditReceivers(bus, log)

	// 初始化业务服务
	codec := token.NewCodec(cfg.Token.Secret, cfg.Token.Salt)
	inviteService := service.NewInviteService(codec, dispatcher, bus, store, metrics, cfg, log)
	adminService := service.NewAdminService(store)

	// 初始化认证服务
	authService := auth.NewService(store)
	jwtManager := jwtpkg.NewManager(
		cfg.JWT.Secret,
		cfg.JWT.Issuer,
		cfg.JWT.AccessExpiry,
		cfg.JWT.RefreshExpiry,
	)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:        cfg,
		InviteService: inviteService,
		AdminService:  adminService,
		AuthService:   authService,
		JWTManager:    jwtManager,
		RateLimiter:   rateLimitRepo,
		HealthChecker: healthChecker,
		Metrics:       metrics,
		Logger:        log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}

		if err := store.Close(); err != nil {
			log.Warn("storage close warning", zap.Error(err))
		}

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// registerAuditReceivers 在信号总线上挂载审计日志接收器。
//
// 接收器只记录不否决，部署方可以在此基础上追加自定义拦截逻辑。
func registerAuditReceivers(bus *sigbus.Bus, log *zap.Logger) {
	bus.Subscribe(sigbus.ConfirmationRequested, func(_ sigbus.Event, p sigbus.Payload) bool {
		log.Info("confirmation email requested",
			zap.String("email", p.Submission.Email),
			zap.String("remote_addr", p.RemoteAddr),
		)
		return true
	})
	bus.Subscribe(sigbus.ConfirmationReceived, func(_ sigbus.Event, p sigbus.Payload) bool {
		log.Info("confirmation link visited",
			zap.String("email", p.Submission.Email),
			zap.String("remote_addr", p.RemoteAddr),
		)
		return true
	})
}

// initializeDatabaseStorage 根据配置建立数据库存储
func initializeDatabaseStorage(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	log.Info("initializing database storage",
		zap.String("database_type", cfg.Database.Type),
	)

	switch cfg.Database.Type {
	case "postgres":
		return postgres.NewStore(cfg.Database.DSN)
	case "mysql":
		return postgres.NewMySQLStore(cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database type: %q", cfg.Database.Type)
	}
}
