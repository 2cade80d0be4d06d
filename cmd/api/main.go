package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"clone-chat/internal/config"
	"clone-chat/internal/db"
	apihttp "clone-chat/internal/http"
	"clone-chat/internal/realtime"
	"clone-chat/internal/repository"
	"clone-chat/internal/service"
	"clone-chat/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		logger.Fatal("db schema", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	conversationRepo := repository.NewPgConversationRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)

	hub := realtime.NewHub(logger)
	defer hub.Shutdown()

	var (
		invalidator service.Invalidator = hub
		redisClient *redis.Client
		slots       storage.SlotStore
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			slots = storage.NewRedisSlotStore(redisClient)
			bridge := realtime.NewRedisBridge(logger, redisClient, hub)
			go bridge.Run(ctx)
			invalidator = bridge
		}
		cancel()
	}
	if slots == nil {
		slots = storage.NewMemorySlotStore()
	}

	gateway, err := storage.NewLocalGateway(
		cfg.MediaDir,
		cfg.PublicBaseURL,
		slots,
		time.Duration(cfg.UploadSlotTTL)*time.Minute,
	)
	if err != nil {
		logger.Fatal("media gateway init", zap.Error(err))
	}

	tokenSvc := service.NewTokenService(cfg.JWTSecret, 24*time.Hour)
	identitySvc := service.NewIdentityService(userRepo)
	userSvc := service.NewUserService(logger, userRepo)
	conversationSvc := service.NewConversationService(logger, conversationRepo, userRepo, messageRepo, gateway, invalidator)
	messageSvc := service.NewMessageService(logger, messageRepo, conversationRepo, gateway, invalidator)
	feedSvc := service.NewFeedService(messageSvc, conversationRepo, userRepo)

	userHandler := apihttp.NewUserHandler(logger, userSvc, cfg.WebhookSecret)
	conversationHandler := apihttp.NewConversationHandler(logger, conversationSvc)
	messageHandler := apihttp.NewMessageHandler(logger, messageSvc, feedSvc)
	uploadHandler := apihttp.NewUploadHandler(logger, gateway)
	wsHandler := apihttp.NewWSHandler(logger, hub, conversationSvc, feedSvc, userSvc)

	router := apihttp.NewRouter(logger, tokenSvc, identitySvc, userHandler, conversationHandler, messageHandler, uploadHandler, wsHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
