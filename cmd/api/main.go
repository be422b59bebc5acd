package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"fileflow/config"
	"fileflow/internal/domain/download"
	outboxdomain "fileflow/internal/domain/outbox"
	"fileflow/internal/domain/session"
	"fileflow/internal/events"
	"fileflow/internal/handler"
	"fileflow/internal/middleware"
	"fileflow/internal/outbox"
	"fileflow/internal/reaper"
	"fileflow/internal/redis"
	"fileflow/internal/repository"
	"fileflow/internal/services"
	"fileflow/internal/storage"
	"fileflow/pkg/database"
	"fileflow/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	l := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(l)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to Database
	database.Connect(cfg)
	defer database.Close()

	// Run Raw Migrations (Extensions)
	if err := database.ApplyRawMigrations("migrations"); err != nil {
		log.Fatalf("Failed to apply raw migrations: %v", err)
	}

	// Run GORM AutoMigrate for Tables
	if err := database.DB.AutoMigrate(
		&session.UploadSession{},
		&session.CompletedPart{},
		&outboxdomain.Entry{},
		&download.ExternalDownload{},
	); err != nil {
		log.Fatalf("Failed to apply GORM migrations: %v", err)
	}

	redis.Initialize(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	redisClient := redis.GetClient()

	store, err := storage.NewClient(ctx, storage.S3Config{
		Region:     cfg.S3Region,
		Bucket:     cfg.S3Bucket,
		AccessKey:  cfg.S3AccessKey,
		SecretKey:  cfg.S3SecretKey,
		Endpoint:   cfg.S3Endpoint,
		PublicBase: cfg.S3PublicBase,
		PresignTTL: cfg.S3PresignTTL,
	})
	if err != nil {
		log.Fatalf("Failed to create object store client: %v", err)
	}

	sessionRepo := repository.NewSessionRepository(database.DB)
	outboxRepo := repository.NewOutboxRepository(database.DB)
	downloadRepo := repository.NewDownloadRepository(database.DB)

	ttlStore := redis.NewSessionTTLStore(redisClient)
	locks := redis.NewLockProvider(redisClient)
	subscriber := redis.NewExpirySubscriber(redisClient, cfg.RedisDB)
	publisher := events.NewRedisPublisher(redisClient)

	sessionSvc := services.NewSessionService(sessionRepo, store, ttlStore, cfg.SingleSessionTTL, l)
	multipartSvc := services.NewMultipartService(sessionRepo, store, ttlStore, cfg.MultipartSessionTTL, cfg.MaxPartCount, l)
	downloadSvc := services.NewDownloadService(downloadRepo, l)

	outboxCfg := outbox.Config{
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		MaxRetries: cfg.OutboxMaxRetries,
		RetryAfter: cfg.OutboxRetryAfter,
		StaleAfter: cfg.OutboxStaleAfter,
	}
	pipelineWorker := services.NewPipelineWorker(sessionRepo, services.NewPublishingRunner(publisher), l)
	downloadWorker := services.NewDownloadWorker(downloadRepo, store, cfg.WebhookTimeout, l)
	webhookWorker := services.NewWebhookWorker(downloadRepo, store, cfg.WebhookTimeout, l)

	runner := outbox.NewRunner(
		outbox.NewDispatcher(outboxRepo, pipelineWorker, outboxCfg, l),
		outbox.NewDispatcher(outboxRepo, downloadWorker, outboxCfg, l),
		outbox.NewDispatcher(outboxRepo, webhookWorker, outboxCfg, l),
	)
	runner.Start(ctx)

	expiryReaper := reaper.NewReaper(sessionRepo, locks, subscriber, cfg.LockWaitTimeout, cfg.LockLease, l)
	go expiryReaper.Run(ctx)

	if cfg.AppMode == logger.ProductionMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.TenantMiddleware())
	r.Use(middleware.LoggingMiddleware(l))
	r.Use(middleware.ErrorHandler(l))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	uploadHandler := handler.NewUploadHandler(sessionSvc, multipartSvc)
	downloadHandler := handler.NewDownloadHandler(downloadSvc)

	api := r.Group("/api/v1")
	{
		uploads := api.Group("/uploads")
		{
			uploads.POST("/single", uploadHandler.InitSingle)
			uploads.POST("/multipart", uploadHandler.InitMultipart)
			uploads.GET("", uploadHandler.ListByTenant)
			uploads.GET("/:id", uploadHandler.GetByID)
			uploads.POST("/:id/complete", uploadHandler.CompleteSingle)
			uploads.POST("/:id/complete-multipart", uploadHandler.CompleteMultipart)
			uploads.PUT("/:id/parts/:number", uploadHandler.ReportPart)
			uploads.POST("/:id/fail", uploadHandler.Fail)
			uploads.POST("/:id/cancel", uploadHandler.Cancel)
			uploads.DELETE("/stale", uploadHandler.DeleteStale)
		}
		downloads := api.Group("/downloads")
		{
			downloads.POST("", downloadHandler.Request)
			downloads.GET("/:id", downloadHandler.GetByID)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.AppPort),
		Handler: r,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")
	if err := srv.Shutdown(context.Background()); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
