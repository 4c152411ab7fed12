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

	_ "github.com/seonlab/studyplan-api/api/swagger"
	"github.com/seonlab/studyplan-api/internal/handler"
	"github.com/seonlab/studyplan-api/internal/middleware"
	"github.com/seonlab/studyplan-api/internal/models"
	"github.com/seonlab/studyplan-api/internal/repository"
	"github.com/seonlab/studyplan-api/internal/service"
	"github.com/seonlab/studyplan-api/pkg/cache"
	"github.com/seonlab/studyplan-api/pkg/config"
	"github.com/seonlab/studyplan-api/pkg/database"
	"github.com/seonlab/studyplan-api/pkg/lock"
	"github.com/seonlab/studyplan-api/pkg/logger"
	corsmiddleware "github.com/seonlab/studyplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/seonlab/studyplan-api/pkg/middleware/requestid"
	"github.com/seonlab/studyplan-api/pkg/storage"
)

// @title Study Plan API
// @version 1.0.0
// @description Study-plan scheduling and placement engine
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
	sugar := logr.Sugar()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		sugar.Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var locks lock.Provider
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		if cfg.Env == config.EnvProduction {
			sugar.Fatalw("failed to connect to redis", "error", err)
		}
		sugar.Warnw("redis unavailable, using in-process locks", "error", err)
		locks = lock.NewMemoryProvider(cfg.Lock.WaitTimeout)
	} else {
		defer redisClient.Close()
		locks = lock.NewRedisProvider(redisClient, cfg.Lock.WaitTimeout)
	}

	validate := validator.New()

	planGroups := repository.NewPlanGroupRepository(db)
	plans := repository.NewPlanRepository(db)
	contents := repository.NewContentRepository(db)
	risks := repository.NewRiskIndexRepository(db)
	users := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()
	resolution := service.NewContentResolutionService(contents, logr)

	generation := service.NewPlanGenerationService(
		planGroups,
		plans,
		resolution,
		risks,
		locks,
		db,
		metricsSvc,
		validate,
		logr,
		service.PlanGenerationConfig{
			PlacementStrategy:  models.PlacementStrategy(cfg.Engine.PlacementStrategy),
			AllocationStrategy: models.AllocationStrategy(cfg.Engine.AllocationStrategy),
			MinRangeMinutes:    cfg.Engine.MinRangeMinutes,
			BatchSize:          cfg.Engine.BatchSize,
			LockTTL:            cfg.Lock.TTL,
			PreviewTTL:         cfg.Engine.PreviewTTL,
		},
	)

	async := service.NewAsyncGenerationService(generation, service.AsyncGenerationConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
	}, logr)
	async.Start(context.Background())
	defer async.Stop()

	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "studyplan-api",
	})

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		localStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			sugar.Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(planGroups, plans, localStorage, signer, logr)
	}

	planHandler := handler.NewPlanHandler(generation, async)
	authHandler := handler.NewAuthHandler(authSvc)

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
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	groups := protected.Group("/plan-groups/:id")
	groups.POST("/plans", planHandler.Generate)
	groups.GET("/plans", planHandler.List)
	groups.POST("/plans/preview", planHandler.Preview)
	groups.POST("/plans/async", planHandler.GenerateAsync)
	groups.POST("/schedule/preview", planHandler.SchedulePreview)
	groups.GET("/docked", planHandler.Docked)

	if exportSvc != nil {
		exportHandler := handler.NewExportHandler(exportSvc)
		groups.POST("/export", exportHandler.Export)
		api.GET("/exports/download", exportHandler.Download)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		sugar.Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
}
