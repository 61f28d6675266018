package main

import (
	"context"
	"errors"
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
	"go.uber.org/zap"

	_ "github.com/noah-isme/harada-api/api/swagger"
	"github.com/noah-isme/harada-api/internal/handler"
	"github.com/noah-isme/harada-api/internal/middleware"
	"github.com/noah-isme/harada-api/internal/models"
	"github.com/noah-isme/harada-api/internal/repository"
	"github.com/noah-isme/harada-api/internal/service"
	"github.com/noah-isme/harada-api/pkg/cache"
	"github.com/noah-isme/harada-api/pkg/config"
	"github.com/noah-isme/harada-api/pkg/database"
	"github.com/noah-isme/harada-api/pkg/jobs"
	"github.com/noah-isme/harada-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/harada-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/harada-api/pkg/middleware/requestid"
	"github.com/noah-isme/harada-api/pkg/storage"
)

// @title Harada API
// @version 1.0.0
// @description Goal-planning API: 9x9 charts, weekly review cycles and review exports
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	chartRepo := repository.NewChartRepository(db)
	cycleRepo := repository.NewCycleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	exportRepo := repository.NewExportRepository(db)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Charts.CacheTTL, logr, cfg.Charts.CacheEnabled)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "harada-api",
	})
	chartSvc := service.NewChartService(chartRepo, userRepo, cacheSvc, cfg.Charts.CacheTTL, logr)
	cycleSvc := service.NewCycleService(cycleRepo, chartRepo, userRepo, cacheSvc, metricsSvc, validate, logr, cfg.Cycles.SampleSize)

	authHandler := handler.NewAuthHandler(authSvc)
	chartHandler := handler.NewChartHandler(chartSvc)
	cycleHandler := handler.NewCycleHandler(cycleSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc,
		handler.ReadinessCheck{Name: "postgres", Check: db.Ping},
		handler.ReadinessCheck{Name: "redis", Check: func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return redisClient.Ping(pingCtx).Err()
		}},
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.POST("/logout", authHandler.Logout)
		authed.POST("/change-password", middleware.Audit(userRepo, "PASSWORD_CHANGE", "user"), authHandler.ChangePassword)
		authed.GET("/me", authHandler.Me)
	}

	protected := api.Group("", middleware.JWT(authSvc))

	charts := protected.Group("/charts")
	{
		charts.GET("/me", chartHandler.MyChart)
		charts.GET("/:chartId/cells", chartHandler.ListCells)
		charts.PUT("/:chartId/cells/:row/:col", chartHandler.UpsertCell)
		charts.DELETE("/:chartId/cells/:row/:col", chartHandler.DeleteCell)
		charts.GET("/:chartId/cycles/current", cycleHandler.Current)
		charts.GET("/:chartId/cycles", cycleHandler.History)
	}

	cycles := protected.Group("/cycles")
	{
		cycles.POST("/:cycleId/start", cycleHandler.Start)
		cycles.POST("/:cycleId/complete", cycleHandler.Complete)
		cycles.GET("/:cycleId/actions", cycleHandler.Actions)
	}

	actions := protected.Group("/actions")
	{
		actions.PATCH("/:actionId/status", cycleHandler.UpdateActionStatus)
		actions.PATCH("/:actionId/score", cycleHandler.UpdateActionScore)
		actions.PATCH("/:actionId/notes", cycleHandler.UpdateActionNotes)
	}

	protected.GET("/metrics/summary", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Summary)

	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to init export storage", zap.Error(err))
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

		exportSvc := service.NewExportService(cycleRepo, chartRepo, files, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr, nil, nil)

		worker := service.NewExportWorker(exportRepo, exportSvc, cfg.Exports.WorkerRetries, logr)
		exportQueue = jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})

		jobSvc := service.NewExportJobService(exportRepo, chartRepo, cycleRepo, exportQueue, exportSvc, logr, service.ExportJobConfig{
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
			MaxRetries:      cfg.Exports.WorkerRetries,
		})

		exportHandler := handler.NewExportHandler(jobSvc)
		protected.POST("/exports", middleware.Audit(userRepo, "EXPORT_REQUEST", "export_job"), exportHandler.Create)
		protected.GET("/exports/:jobId", exportHandler.Status)
		api.GET("/exports/download", exportHandler.Download)

		exportQueue.Start(ctx)
		jobSvc.RecoverPendingJobs(ctx)
		jobSvc.StartCleanup(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if exportQueue != nil {
		exportQueue.Stop()
	}
}
