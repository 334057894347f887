package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"shop-chat/internal/config"
	"shop-chat/internal/db"
	apihttp "shop-chat/internal/http"
	"shop-chat/internal/llm"
	"shop-chat/internal/logging"
	"shop-chat/internal/repository"
	"shop-chat/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger := logging.New(cfg)
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(pool, logger); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
	}

	userRepo := repository.NewPgUserRepository(pool)
	conversationRepo := repository.NewPgConversationRepository(pool)
	messageRepo := repository.NewPgMessageRepository(pool)
	productRepo := repository.NewPgProductRepository(pool)

	catalog, err := service.NewCachedCatalog(productRepo, cfg.CatalogCacheSize, cfg.CatalogCacheTTL)
	if err != nil {
		logger.Fatal("catalog cache", zap.Error(err))
	}

	if cfg.LLMAPIKey == "" {
		logger.Warn("llm api key not configured, chat replies will fall back to the apology message")
	}
	if cfg.ConversationLockTTL <= cfg.LLMTimeout {
		logger.Warn("conversation lock ttl should exceed llm timeout",
			zap.Duration("lock_ttl", cfg.ConversationLockTTL),
			zap.Duration("llm_timeout", cfg.LLMTimeout),
		)
	}
	llmClient := llm.NewOpenAIClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, logger)

	var (
		locker      service.ConversationLocker
		limiter     service.ChatRateLimiter
		redisClient *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-process lock and rate limiter", zap.Error(err))
		} else {
			locker = service.NewRedisConversationLocker(redisClient, cfg.ConversationLockTTL, logger)
			limiter = service.NewRedisChatRateLimiter(redisClient, cfg.ChatRateWindow, cfg.ChatRateLimit, logger)
		}
		cancel()
		defer redisClient.Close()
	}
	if locker == nil {
		locker = service.NewMemoryConversationLocker()
	}
	if limiter == nil {
		limiter = service.NewChatRateLimiter(cfg.ChatRateWindow, cfg.ChatRateLimit)
	}

	messageSvc := service.NewMessageService(messageRepo)
	contextBuilder := service.NewContextBuilder(cfg.SystemPrompt, catalog, cfg.ContextMaxHistory, logger)
	generationSvc := service.NewGenerationService(llmClient, cfg.LLMTimeout, logger)
	chatSvc := service.NewChatService(conversationRepo, messageSvc, contextBuilder, generationSvc, locker, logger)
	userSvc := service.NewUserService(logger, userRepo, conversationRepo)

	handlers := apihttp.NewHandlers(logger, pool, userRepo, productRepo, conversationRepo, messageRepo)
	userHandler := apihttp.NewUserHandler(logger, userSvc)
	chatHandler := apihttp.NewChatHandler(logger, chatSvc, userSvc, limiter)
	productHandler := apihttp.NewProductHandler(logger, productRepo)
	router := apihttp.NewRouter(logger, handlers, userHandler, chatHandler, productHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	// Los turnos en vuelo pueden tardar lo que tarda el modelo.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.LLMTimeout+5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
}
