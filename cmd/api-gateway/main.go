package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-grading-api/api/swagger"
	"github.com/noah-isme/sma-grading-api/internal/handler"
	"github.com/noah-isme/sma-grading-api/internal/middleware"
	"github.com/noah-isme/sma-grading-api/internal/repository"
	"github.com/noah-isme/sma-grading-api/internal/seed"
	"github.com/noah-isme/sma-grading-api/internal/service"
	"github.com/noah-isme/sma-grading-api/pkg/cache"
	"github.com/noah-isme/sma-grading-api/pkg/config"
	"github.com/noah-isme/sma-grading-api/pkg/database"
	"github.com/noah-isme/sma-grading-api/pkg/jobs"
	"github.com/noah-isme/sma-grading-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-grading-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-grading-api/pkg/middleware/requestid"
)

// @title School Grading API
// @version 1.0.0
// @description Grading systems, grade bands and student evaluation
// @BasePath /api/v1
// @schemes http

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) PingContext(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close()

	checks := map[string]handler.Pinger{"postgres": db}
	var redisClient *redis.Client
	if cfg.Grading.CacheEnabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, grading cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			checks["redis"] = redisPinger{client: redisClient}
		}
	}

	catalog, err := seed.Load()
	if err != nil {
		logr.Fatal("failed to load reference grading scales", zap.Error(err))
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Grading.CacheTTL, logr, redisClient != nil)

	systemRepo := repository.NewGradingSystemRepository(db)
	configRepo := repository.NewInstitutionConfigRepository(db)

	resolver := service.NewGradingSystemResolver(systemRepo, configRepo, catalog, cacheSvc, metrics,
		service.GradingSystemResolverConfig{CacheTTL: cfg.Grading.CacheTTL, UseSeedFallback: cfg.Grading.UseSeedFallback}, logr)
	pool := jobs.NewPool("grading-batch", jobs.PoolConfig{Workers: cfg.Grading.BatchWorkers, Logger: logr})

	systemSvc := service.NewGradingSystemService(systemRepo, resolver, validate, logr)
	gradingSvc := service.NewGradingService(resolver, pool, metrics, validate, service.GradingServiceConfig{MaxBatchSize: cfg.Grading.MaxBatchSize}, logr)
	configSvc := service.NewInstitutionConfigService(configRepo, resolver, validate, logr)

	systemHandler := handler.NewGradingSystemHandler(systemSvc, resolver)
	gradingHandler := handler.NewGradingHandler(gradingSvc)
	configHandler := handler.NewInstitutionConfigHandler(configSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	systems := api.Group("/grading-systems")
	systems.GET("", systemHandler.List)
	systems.POST("", systemHandler.Create)
	systems.GET("/defaults/:institutionType", systemHandler.Default)
	systems.GET("/:id", systemHandler.Get)
	systems.PUT("/:id", systemHandler.Update)
	systems.POST("/:id/activate", systemHandler.Activate)
	systems.POST("/:id/validate", systemHandler.Validate)

	institutions := api.Group("/institutions/:id/grading-config")
	institutions.GET("/:level", configHandler.Get)
	institutions.PUT("/:level", configHandler.Set)

	gradingGroup := api.Group("/grading")
	gradingGroup.POST("/grade", gradingHandler.Grade)
	gradingGroup.POST("/evaluate", gradingHandler.Evaluate)
	gradingGroup.POST("/evaluate/batch", gradingHandler.EvaluateBatch)
	gradingGroup.POST("/rank", gradingHandler.Rank)
	gradingGroup.POST("/gpa", gradingHandler.GPA)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "reference_scales", len(catalog.Codes()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Info("server stopped")
}
