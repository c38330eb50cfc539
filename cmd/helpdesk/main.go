package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/campusq/helpdesk-api/api/swagger"
	"github.com/campusq/helpdesk-api/internal/handler"
	"github.com/campusq/helpdesk-api/internal/middleware"
	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/repository"
	"github.com/campusq/helpdesk-api/internal/service"
	"github.com/campusq/helpdesk-api/internal/store"
	appsync "github.com/campusq/helpdesk-api/internal/sync"
	"github.com/campusq/helpdesk-api/pkg/cache"
	"github.com/campusq/helpdesk-api/pkg/config"
	"github.com/campusq/helpdesk-api/pkg/logger"
	corsmiddleware "github.com/campusq/helpdesk-api/pkg/middleware/cors"
	reqidmiddleware "github.com/campusq/helpdesk-api/pkg/middleware/requestid"
)

// @title CampusQ Helpdesk API
// @version 0.1.0
// @description Role-based campus helpdesk over a shared state store
// @BasePath /
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect redis", "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	kv := store.NewRedisKV(redisClient, cfg.Sync.Channel, metricsSvc, logr)
	defer kv.Close() //nolint:errcheck

	queryRepo := repository.NewQueryRepository(kv)
	notificationRepo := repository.NewNotificationRepository(kv)
	userRepo := repository.NewUserRepository(kv)

	notificationSvc := service.NewNotificationService(notificationRepo, metricsSvc, logr)
	querySvc := service.NewQueryService(queryRepo, notificationSvc, validate, logr)
	reportSvc := service.NewReportService(queryRepo, cfg.Overdue.Threshold, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	profileSvc := service.NewProfileService(userRepo, validate, logr, map[models.UserRole]models.Profile{
		models.RoleAdmin: {
			Name:      "Admin",
			Email:     cfg.Seed.AdminEmail,
			AdminRole: "Helpdesk Admin",
		},
		models.RoleStudent: {
			Name:       "John Doe",
			Email:      cfg.Seed.StudentEmail,
			StudentID:  cfg.Seed.StudentID,
			Department: "Computer Science",
		},
	})
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seedCtx, cancelSeed := context.WithTimeout(ctx, 10*time.Second)
	if err := authSvc.Seed(seedCtx, []service.SeedAccount{
		{
			Email:     cfg.Seed.AdminEmail,
			Password:  cfg.Seed.AdminPassword,
			Name:      "Admin",
			Role:      models.RoleAdmin,
			AdminRole: "Helpdesk Admin",
		},
		{
			Email:      cfg.Seed.StudentEmail,
			Password:   cfg.Seed.StudentPassword,
			Name:       "John Doe",
			Role:       models.RoleStudent,
			StudentID:  cfg.Seed.StudentID,
			Department: "Computer Science",
		},
	}); err != nil {
		logr.Sugar().Warnw("seed failed", "error", err)
	}
	cancelSeed()

	watcher := appsync.NewWatcher(kv, cfg.Sync.PollInterval, metricsSvc, logr)
	watcher.Start(ctx)
	defer watcher.Stop()

	var scanner *service.OverdueScanner
	if cfg.Overdue.Enabled {
		scanner = service.NewOverdueScanner(queryRepo, notificationSvc, cfg.Overdue.Threshold, cfg.Overdue.ScanInterval, logr)
		scanner.Start(ctx)
		defer scanner.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		readyCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := redisClient.Ping(readyCtx).Err(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(authSvc)
	queryHandler := handler.NewQueryHandler(querySvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	reportHandler := handler.NewReportHandler(reportSvc, notificationSvc, cfg.Export.Enabled)
	userHandler := handler.NewUserHandler(userSvc)
	profileHandler := handler.NewProfileHandler(profileSvc)
	watchHandler := handler.NewWatchHandler(watcher, logr)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/queries", queryHandler.List)
		authed.POST("/queries", queryHandler.Create)
		authed.GET("/queries/:id", queryHandler.Get)
		authed.DELETE("/queries/:id", queryHandler.Delete)

		authed.GET("/notifications", notificationHandler.List)
		authed.GET("/notifications/unread", notificationHandler.Unread)
		authed.POST("/notifications/seen", notificationHandler.MarkSeen)

		authed.GET("/reports/summary", reportHandler.Summary)

		authed.GET("/profile", profileHandler.Get)
		authed.PUT("/profile", profileHandler.Update)

		authed.GET("/watch", watchHandler.Watch)
		authed.POST("/sync/refresh", watchHandler.Refresh)
	}

	admin := api.Group("")
	admin.Use(middleware.JWT(authSvc), middleware.RequireRole(models.RoleAdmin))
	{
		admin.PUT("/queries/:id", queryHandler.Update)

		admin.GET("/reports/queries", reportHandler.Report)
		admin.GET("/reports/queries/export.csv", reportHandler.ExportCSV)
		admin.GET("/reports/queries/export.pdf", reportHandler.ExportPDF)

		admin.GET("/users", userHandler.List)
		admin.POST("/users", userHandler.Create)
		admin.PUT("/users/:id", userHandler.Update)
		admin.DELETE("/users/:id", userHandler.Delete)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
		os.Exit(1)
	}
	logr.Sugar().Infow("server stopped")
}
