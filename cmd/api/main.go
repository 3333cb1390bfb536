package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/smansa-dev/portal-api/api/swagger"
	"github.com/smansa-dev/portal-api/internal/handler"
	"github.com/smansa-dev/portal-api/internal/middleware"
	"github.com/smansa-dev/portal-api/internal/repository"
	"github.com/smansa-dev/portal-api/internal/service"
	"github.com/smansa-dev/portal-api/pkg/cache"
	"github.com/smansa-dev/portal-api/pkg/config"
	"github.com/smansa-dev/portal-api/pkg/database"
	"github.com/smansa-dev/portal-api/pkg/export"
	"github.com/smansa-dev/portal-api/pkg/logger"
	corsmiddleware "github.com/smansa-dev/portal-api/pkg/middleware/cors"
	reqidmiddleware "github.com/smansa-dev/portal-api/pkg/middleware/requestid"
	"github.com/smansa-dev/portal-api/pkg/storage"
	"github.com/smansa-dev/portal-api/pkg/upload"
)

// @title School Portal API
// @version 1.0.0
// @description Content lifecycle and visibility API for the public school portal
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
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheRepo *repository.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect redis", "error", err)
		}
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
		defer cacheRepo.Close() //nolint:errcheck
	}

	blob, err := buildStorageBackend(cfg)
	if err != nil {
		logr.Sugar().Fatalw("failed to init storage backend", "error", err)
	}

	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
	policy := upload.Policy{
		AllowedTypes: cfg.Uploads.AllowedMIMEs,
		MaxBytes:     cfg.Uploads.MaxFileSizeBytes,
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	eventRepo := repository.NewEventRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	classGroupRepo := repository.NewClassGroupRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	attachmentSvc := service.NewAttachmentService(attachmentRepo, blob, signer, logr, policy, cfg.APIPrefix)

	var summaryCache service.SummaryCache
	if cacheRepo != nil {
		summaryCache = cacheRepo
	}
	summarySvc := service.NewSummaryService(eventRepo, announcementRepo, classGroupRepo, summaryCache, metricsSvc, cfg.Summary.CacheTTL, logr)

	eventSvc := service.NewEventService(eventRepo, attachmentSvc, summarySvc, validate, logr)
	announcementSvc := service.NewAnnouncementService(announcementRepo, attachmentSvc, summarySvc, validate, logr)
	classGroupSvc := service.NewClassGroupService(classGroupRepo, attachmentSvc, summarySvc, validate, logr)
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)

	csvExporter := export.NewCSVExporter()
	pdfExporter := export.NewPDFExporter()

	handlers := handler.Handlers{
		Events:        handler.NewEventHandler(eventSvc, csvExporter, pdfExporter),
		Announcements: handler.NewAnnouncementHandler(announcementSvc, csvExporter, pdfExporter),
		ClassGroups:   handler.NewClassGroupHandler(classGroupSvc, csvExporter, pdfExporter),
		Attachments:   handler.NewAttachmentHandler(attachmentSvc),
		Summary:       handler.NewSummaryHandler(summarySvc),
	}
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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, middleware.JWT(tokenSvc), handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func buildStorageBackend(cfg *config.Config) (storage.Backend, error) {
	switch cfg.Uploads.Backend {
	case "s3":
		return storage.NewS3Storage(context.Background(), cfg.Uploads.S3)
	default:
		return storage.NewLocalStorage(cfg.Uploads.StorageDir)
	}
}
