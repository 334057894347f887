package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"shop-chat/internal/catalog"
	"shop-chat/internal/config"
	"shop-chat/internal/db"
	"shop-chat/internal/logging"
	"shop-chat/internal/repository"
	"shop-chat/internal/service"
)

var demoUsers = []service.CreateUserInput{
	{Username: "demo_user", Email: "demo@example.com", FullName: "Demo User"},
	{Username: "test_user", Email: "test@example.com", FullName: "Test User"},
}

func main() {
	csvPath := flag.String("csv", "data/sample_products.csv", "archivo CSV con productos")
	batchSize := flag.Int("batch", catalog.DefaultBatchSize, "filas por lote")
	skipUsers := flag.Bool("skip-users", false, "no crear los usuarios demo")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(cfg)
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(pool, logger); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	file, err := os.Open(*csvPath)
	if err != nil {
		logger.Fatal("open csv", zap.String("path", *csvPath), zap.Error(err))
	}
	defer file.Close()

	productRepo := repository.NewPgProductRepository(pool)
	result, err := catalog.LoadCSV(ctx, file, productRepo, *batchSize, logger)
	if err != nil {
		logger.Fatal("load products", zap.Error(err), zap.Int("inserted", result.Inserted))
	}
	logger.Info("products loaded",
		zap.String("path", *csvPath),
		zap.Int("rows", result.Rows),
		zap.Int("inserted", result.Inserted),
		zap.Int("skipped", result.Skipped),
		zap.Int("invalid", result.Invalid),
	)

	if *skipUsers {
		return
	}
	userSvc := service.NewUserService(logger, repository.NewPgUserRepository(pool), nil)
	for _, input := range demoUsers {
		user, err := userSvc.EnsureUser(ctx, input)
		if err != nil {
			logger.Fatal("seed user", zap.String("username", input.Username), zap.Error(err))
		}
		logger.Info("demo user ready", zap.String("username", user.Username), zap.String("user_id", user.ID))
	}
}
