// Package main 是应用程序入口
package main

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/cache"
	"github.com/dumeirei/glamping-backend/internal/common/config"
	"github.com/dumeirei/glamping-backend/internal/common/jwt"
	"github.com/dumeirei/glamping-backend/internal/common/metrics"
	commonMiddleware "github.com/dumeirei/glamping-backend/internal/common/middleware"
	"github.com/dumeirei/glamping-backend/internal/common/qrcode"
	bookingHandler "github.com/dumeirei/glamping-backend/internal/handler/booking"
	"github.com/dumeirei/glamping-backend/internal/middleware"
	"github.com/dumeirei/glamping-backend/internal/repository"
	"github.com/dumeirei/glamping-backend/internal/scheduler"
	bookingService "github.com/dumeirei/glamping-backend/internal/service/booking"
)

// maxBodyBytes 单个请求体上限
const maxBodyBytes = 1 << 20

// setupRouter 设置路由，返回需要在退出时关闭的资源
func setupRouter(
	r *gin.Engine,
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	redisClient *redis.Client,
) []io.Closer {
	// 创建 JWT 管理器
	jwtManager := jwt.NewManager(&jwt.Config{
		Secret:            cfg.JWT.Secret,
		AccessExpireTime:  cfg.JWT.AccessTokenDuration(),
		RefreshExpireTime: cfg.JWT.RefreshTokenDuration(),
		Issuer:            cfg.JWT.Issuer,
	})

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.Init(cfg.Metrics.Namespace)
	}

	// 初始化服务
	services := bookingService.NewServices(db, cache.New(redisClient), m, cfg, nil)

	// 总额巡检，先于通知器关闭
	tasks := scheduler.NewTaskHandler(repository.NewBookingRepository(db), services.Recalculator, services.Booking)
	sched := scheduler.NewScheduler(5 * time.Minute)
	sched.AddTask("repair_totals_drift",
		time.Duration(cfg.Business.Booking.DriftCheckInterval)*time.Second, tasks.RepairTotalsDriftTask)
	sched.Start()

	closers := []io.Closer{sched}
	if c, ok := services.Notifier.(io.Closer); ok {
		closers = append(closers, c)
	}

	// 初始化处理器
	bookingH := bookingHandler.NewHandler(services.Booking, services.Quote, services.Validator,
		qrcode.NewGenerator(qrcode.WithSize(256), qrcode.WithRecoveryLevel(qrcode.Medium)))

	// 全局中间件
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.SecureHeaders())
	r.Use(middleware.CORSFromConfig(&cfg.CORS))
	if cfg.Tracing.Enabled {
		r.Use(commonMiddleware.Tracing(&commonMiddleware.TracingConfig{
			ServiceName: cfg.Tracing.ServiceName,
			SkipPaths:   []string{"/health", "/ping", "/ready", cfg.Metrics.Path},
			ActorID:     middleware.GetAdminID,
		}))
	}
	if m != nil {
		r.Use(m.Middleware())
		r.GET(cfg.Metrics.Path, metrics.Handler())
	}
	r.Use(middleware.AccessLog(logger))

	// 健康检查（不需要认证）
	r.GET("/health", healthHandler)
	r.GET("/ping", pingHandler)
	r.GET("/ready", readyHandler(db, redisClient))

	// Swagger 文档
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1 路由组
	v1 := r.Group("/api/v1")
	v1.Use(middleware.BodyLimit(maxBodyBytes))
	if cfg.RateLimit.Enabled {
		v1.Use(middleware.IPRateLimit(redisClient, cfg.RateLimit.Limit, time.Duration(cfg.RateLimit.Window)*time.Second))
	}
	{
		// 报价与优惠预览（无需认证，只读）
		bookingH.RegisterPublicRoutes(v1)

		// 后台接口（需要操作员认证）
		admin := v1.Group("/admin")
		admin.Use(middleware.AdminAuth(jwtManager))
		admin.Use(middleware.RequireRoles(jwt.RoleOperator, jwt.RoleManager, jwt.RoleSuperAdmin))
		{
			bookingH.RegisterRoutes(admin, middleware.RequireMinRole(jwt.RoleManager))
			bookingHandler.NewNotificationHandler(services.Inbox).RegisterRoutes(admin)
		}
	}

	return closers
}
