package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/ohsched/office-hours-api/api/swagger"
	"github.com/ohsched/office-hours-api/internal/handler"
	"github.com/ohsched/office-hours-api/internal/ics"
	"github.com/ohsched/office-hours-api/internal/middleware"
	"github.com/ohsched/office-hours-api/internal/models"
	"github.com/ohsched/office-hours-api/internal/repository"
	"github.com/ohsched/office-hours-api/internal/service"
	"github.com/ohsched/office-hours-api/pkg/cache"
	"github.com/ohsched/office-hours-api/pkg/config"
	"github.com/ohsched/office-hours-api/pkg/database"
	"github.com/ohsched/office-hours-api/pkg/logger"
	corsmiddleware "github.com/ohsched/office-hours-api/pkg/middleware/cors"
	reqidmiddleware "github.com/ohsched/office-hours-api/pkg/middleware/requestid"
)

// @title Office Hours Scheduler API
// @version 1.0.0
// @description Recurring office-hours scheduling with host coverage and notifications
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	seriesRepo := repository.NewSeriesRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	eventRepo := repository.NewEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, public projection cache disabled", "error", err)
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	renderer := ics.NewRenderer(cfg.Outbox.ICSProductID, cfg.Outbox.ICSDomain)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	userSvc := service.NewUserService(userRepo, validate, logr)

	projectionSvc := service.NewProjectionService(
		seriesRepo, overrideRepo, eventRepo, userRepo, settingsRepo,
		cacheRepo, metricsSvc, validate, logr, cfg.Projector.PublicCacheTTL,
	).WithRenderer(renderer)

	outboxSvc := service.NewOutboxService(notificationRepo, settingsRepo, renderer, nil, metricsSvc, logr, service.OutboxConfig{
		WorkerCount:      cfg.Outbox.WorkerCount,
		DispatchInterval: cfg.Outbox.DispatchInterval,
		MaxRetries:       cfg.Outbox.MaxRetries,
		RetryDelay:       cfg.Outbox.RetryDelay,
	})

	coverageSvc := service.NewCoverageService(projectionSvc, overrideRepo, eventRepo, userRepo, settingsRepo, outboxSvc, validate, logr)
	seriesSvc := service.NewSeriesService(seriesRepo, settingsRepo, projectionSvc, validate, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, projectionSvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc, userSvc)
	userHandler := handler.NewUserHandler(userSvc)
	seriesHandler := handler.NewSeriesHandler(seriesSvc)
	eventHandler := handler.NewEventHandler(projectionSvc)
	coverageHandler := handler.NewCoverageHandler(coverageSvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	notificationHandler := handler.NewNotificationHandler(outboxSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.GET("/public/events", eventHandler.ListPublic)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/auth/me", authHandler.Me)
		authed.POST("/auth/change-password", authHandler.ChangePassword)

		authed.GET("/events", eventHandler.List)
		authed.GET("/events/unclaimed", eventHandler.Unclaimed)
		authed.GET("/events/:id/ics", eventHandler.DownloadICS)

		authed.POST("/coverage/assign", coverageHandler.Assign)
		authed.POST("/coverage/unassign", coverageHandler.Unassign)

		authed.GET("/series", seriesHandler.List)
		authed.GET("/series/:id", seriesHandler.Get)

		authed.GET("/settings", settingsHandler.Get)

		selfOrAdmin := middleware.RBAC(string(models.RoleAdmin), "SELF")
		authed.GET("/users/:id", selfOrAdmin, userHandler.Get)
		authed.PUT("/users/:id/ooo", selfOrAdmin, userHandler.SetOutOfOffice)
		authed.PUT("/users/:id/notifications", selfOrAdmin, userHandler.UpdateNotificationSettings)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.POST("/users", userHandler.Create)
		admin.PUT("/users/:id", userHandler.Update)
		admin.PATCH("/users/:id/status", userHandler.SetStatus)

		admin.POST("/series", seriesHandler.Create)
		admin.PUT("/series/:id", seriesHandler.Update)
		admin.POST("/series/:id/pause", seriesHandler.TogglePause)
		admin.DELETE("/series/:id", seriesHandler.Delete)

		admin.POST("/events", eventHandler.CreateOneOff)
		admin.GET("/events/coverage", eventHandler.CoverageHistory)
		if cfg.Exports.Enabled {
			admin.GET("/events/export/csv", eventHandler.ExportCSV)
			admin.GET("/events/export/pdf", eventHandler.ExportPDF)
		}

		admin.POST("/coverage/cancel", coverageHandler.Cancel)
		admin.POST("/coverage/reschedule", coverageHandler.Reschedule)

		admin.PUT("/settings", settingsHandler.Update)
		admin.GET("/notifications", notificationHandler.List)
		admin.GET("/metrics/summary", metricsHandler.Summary)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Outbox.DispatchEnabled {
		outboxSvc.StartDispatcher(ctx)
		defer outboxSvc.StopDispatcher()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
