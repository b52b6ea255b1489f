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
	"go.uber.org/zap"

	_ "github.com/listhaven/doclife-api/api/swagger"
	"github.com/listhaven/doclife-api/internal/handler"
	"github.com/listhaven/doclife-api/internal/middleware"
	"github.com/listhaven/doclife-api/internal/models"
	"github.com/listhaven/doclife-api/internal/repository"
	"github.com/listhaven/doclife-api/internal/service"
	"github.com/listhaven/doclife-api/pkg/cache"
	"github.com/listhaven/doclife-api/pkg/config"
	"github.com/listhaven/doclife-api/pkg/database"
	"github.com/listhaven/doclife-api/pkg/jobs"
	"github.com/listhaven/doclife-api/pkg/logger"
	corsmiddleware "github.com/listhaven/doclife-api/pkg/middleware/cors"
	reqidmiddleware "github.com/listhaven/doclife-api/pkg/middleware/requestid"
	"github.com/listhaven/doclife-api/pkg/storage"
)

// @title DocLife API
// @version 1.0.0
// @description Document and consent lifecycle engine for the ListHaven marketplace
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, derived-status caching disabled", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck

	artifactRepo := repository.NewArtifactRepository(db)
	linkRepo := repository.NewListingLinkRepository(db)
	userRepo := repository.NewUserRepository(db)

	metricsSvc := service.NewMetricsService()

	// Lifecycle events fan out through the in-memory queue; the handler is
	// the notification edge (currently log-only delivery).
	eventQueue := jobs.NewQueue("lifecycle-events", func(ctx context.Context, job jobs.Job) error {
		logr.Sugar().Infow("lifecycle event delivered",
			"type", job.Type,
			"artifact_id", job.ID,
		)
		return nil
	}, jobs.QueueConfig{
		Workers:    cfg.Renewal.WorkerConcurrency,
		MaxRetries: cfg.Renewal.WorkerRetries,
		Logger:     logr,
	})
	eventQueue.Start(ctx)
	defer eventQueue.Stop()

	validate := validator.New()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "doclife-api",
	})
	lifecycleCfg := service.ArtifactServiceConfig{
		ValidityMonths:        cfg.Lifecycle.ValidityMonths,
		ExpiringSoonThreshold: cfg.Lifecycle.ExpiringSoonThreshold,
	}
	artifactSvc := service.NewArtifactService(artifactRepo, userRepo, eventQueue, validate, logr, lifecycleCfg)
	linkageSvc := service.NewLinkageService(linkRepo, artifactRepo, userRepo, logr, lifecycleCfg)
	exportSvc := service.NewExportService(artifactRepo, nil, nil, logr, lifecycleCfg)

	renewalSvc := service.NewRenewalService(artifactRepo, eventQueue, userRepo, metricsSvc, logr, service.RenewalServiceConfig{
		SweepInterval:         cfg.Renewal.SweepInterval,
		PageSize:              cfg.Renewal.PageSize,
		ExpiringSoonThreshold: cfg.Lifecycle.ExpiringSoonThreshold,
	})
	if cfg.Renewal.Enabled {
		renewalSvc.Start(ctx)
	}

	blobs, err := storage.NewLocalBlobStore(cfg.Artifacts.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init blob store", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Artifacts.SignedURLSecret, cfg.Artifacts.SignedURLTTL)

	authHandler := handler.NewAuthHandler(authSvc)
	artifactHandler := handler.NewArtifactHandler(artifactSvc, cacheRepo, metricsSvc, cfg.Lifecycle.StatusCacheTTL)
	contentHandler := handler.NewContentHandler(artifactSvc, blobs, signer, cfg.Artifacts.MaxFileSizeBytes)
	linkageHandler := handler.NewLinkageHandler(linkageSvc)
	renewalHandler := handler.NewRenewalHandler(renewalSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)
	// Signed token downloads carry their own authorization.
	api.GET("/downloads/:token", contentHandler.Download)

	protected := api.Group("", middleware.JWT(authSvc))
	protected.GET("/auth/me", authHandler.Me)

	protected.POST("/uploads", contentHandler.Upload)

	protected.POST("/artifacts", artifactHandler.Submit)
	protected.GET("/artifacts", artifactHandler.List)
	protected.GET("/artifacts/:id", artifactHandler.Get)
	protected.GET("/artifacts/:id/status", artifactHandler.Status)
	protected.GET("/artifacts/:id/content", contentHandler.SignedURL)
	protected.POST("/artifacts/:id/decision", middleware.RequireRoles(models.RoleAdmin), artifactHandler.Decide)
	protected.POST("/artifacts/:id/withdraw", artifactHandler.Withdraw)
	protected.POST("/artifacts/:id/renew", artifactHandler.Renew)

	protected.POST("/listings/:id/consents", middleware.RequireRoles(models.RoleAdmin, models.RoleBroker), linkageHandler.Link)
	protected.DELETE("/listings/:id/consents/:consentId", middleware.RequireRoles(models.RoleAdmin, models.RoleBroker), linkageHandler.Unlink)
	protected.GET("/listings/:id/eligibility", linkageHandler.Eligibility)
	protected.GET("/consents/:id/usage", linkageHandler.Usage)

	protected.POST("/renewals/sweep", middleware.RequireRoles(models.RoleAdmin), renewalHandler.Sweep)

	if cfg.Exports.Enabled {
		protected.GET("/exports/register",
			middleware.RequireRoles(models.RoleAdmin),
			middleware.Audit(userRepo, models.AuditActionExportRegister, "export"),
			exportHandler.Register,
		)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
