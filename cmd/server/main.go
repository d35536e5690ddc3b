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

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/fathima-sithara/social-app/internal/apperr"
	"github.com/fathima-sithara/social-app/internal/auth"
	"github.com/fathima-sithara/social-app/internal/config"
	"github.com/fathima-sithara/social-app/internal/database"
	"github.com/fathima-sithara/social-app/internal/events"
	"github.com/fathima-sithara/social-app/internal/handlers"
	"github.com/fathima-sithara/social-app/internal/hub"
	"github.com/fathima-sithara/social-app/internal/logger"
	"github.com/fathima-sithara/social-app/internal/mailer"
	"github.com/fathima-sithara/social-app/internal/metrics"
	"github.com/fathima-sithara/social-app/internal/repository"
	"github.com/fathima-sithara/social-app/internal/routes"
	"github.com/fathima-sithara/social-app/internal/services"
	"github.com/fathima-sithara/social-app/internal/storage"
	"github.com/fathima-sithara/social-app/internal/ws"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	sugar, err := logger.New(cfg.App.Env == "development")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()
	sugar.Infof("starting social-app in %s environment on port %d", cfg.App.Env, cfg.App.Port)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		sugar.Fatalf("mongo: %v", err)
	}
	if err := database.EnsureIndexes(ctx, db); err != nil {
		sugar.Fatalf("mongo indexes: %v", err)
	}
	rdb, err := database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		sugar.Fatalf("redis: %v", err)
	}

	codes := database.NewCodeStore(rdb)
	presence := database.NewPresenceStore(rdb)

	var blob storage.BlobStore
	if cfg.S3.Bucket != "" {
		s3store, err := storage.NewS3Store(ctx, cfg.S3.Region, cfg.S3.Bucket)
		if err != nil {
			sugar.Fatalf("s3: %v", err)
		}
		blob = s3store
	} else {
		sugar.Warn("no S3 bucket configured, media uploads disabled")
	}

	producer := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, sugar)
	if producer == nil {
		sugar.Warn("no Kafka brokers configured, event publishing disabled")
	}

	mail := mailer.NewBrevoClient(cfg.Brevo.APIKey, cfg.Brevo.FromEmail, cfg.Brevo.FromName, sugar)
	jwtManager := auth.NewJWTManager(cfg.App.JWT.Secret, cfg.App.JWT.AccessTTLMinutes, cfg.App.JWT.RefreshTTLDays)
	socketHub := hub.New(sugar)

	userRepo := repository.NewMongoUserRepo(db)
	postRepo := repository.NewMongoPostRepo(db)
	convRepo := repository.NewMongoConversationRepo(db)
	msgRepo := repository.NewMongoMessageRepo(db)
	notifRepo := repository.NewMongoNotificationRepo(db)

	notifSvc := services.NewNotificationService(notifRepo, socketHub, producer, sugar)
	authSvc := services.NewAuthService(userRepo, codes, mail, jwtManager,
		cfg.Security.OtpTTLMinutes, cfg.Security.OtpRateLimitPerEmailPerHour, cfg.App.JWT.RefreshTTLDays, sugar)
	userSvc := services.NewUserService(userRepo, notifSvc, sugar)
	mediaSvc := services.NewMediaService(blob, sugar)
	postSvc := services.NewPostService(postRepo, userRepo, notifSvc, sugar)
	chatSvc := services.NewChatService(convRepo, msgRepo, userRepo, socketHub, producer, sugar)
	adminSvc := services.NewAdminService(userRepo, postRepo, msgRepo, notifRepo)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
		IdleTimeout:  cfg.App.IdleTimeout,
		ErrorHandler: apperr.FiberErrorHandler(sugar),
	})
	app.Use(recover.New())
	app.Use(cors.New())

	routes.Register(app, routes.Handlers{
		Auth:          handlers.NewAuthHandler(authSvc),
		User:          handlers.NewUserHandler(userSvc, presence),
		Post:          handlers.NewPostHandler(postSvc, mediaSvc),
		Chat:          handlers.NewChatHandler(chatSvc, mediaSvc),
		Notifications: handlers.NewNotificationHandler(notifSvc),
		Admin:         handlers.NewAdminHandler(adminSvc),
		WS: ws.NewHandler(socketHub, jwtManager, chatSvc, presence,
			float64(cfg.Security.WsMessagesPerSecond), sugar),
	}, jwtManager, rdb)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.MetricsPort),
		Handler: metricsMux,
	}
	go func() {
		sugar.Infof("metrics listening on %s", metricsSrv.Addr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Errorf("metrics server: %v", err)
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		sugar.Infof("server listening on %s", addr)
		if err := app.Listen(addr); err != nil {
			sugar.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	sugar.Info("shutting down")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutCancel()

	if err := app.ShutdownWithContext(shutCtx); err != nil {
		sugar.Errorf("app shutdown: %v", err)
	}
	if err := metricsSrv.Shutdown(shutCtx); err != nil {
		sugar.Errorf("metrics shutdown: %v", err)
	}
	if err := producer.Close(); err != nil {
		sugar.Errorf("kafka close: %v", err)
	}
	if err := db.Client().Disconnect(shutCtx); err != nil {
		sugar.Errorf("mongo disconnect: %v", err)
	}
	if err := rdb.Close(); err != nil {
		sugar.Errorf("redis close: %v", err)
	}
	sugar.Info("shutdown complete")
}
