package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/recipeshare/backend/config"
	"github.com/recipeshare/backend/internal/api"
	"github.com/recipeshare/backend/internal/database"
	"github.com/recipeshare/backend/internal/middleware"
	"github.com/recipeshare/backend/internal/router"
	"github.com/recipeshare/backend/internal/server"
	"github.com/recipeshare/backend/internal/service"
	"github.com/recipeshare/backend/internal/storage"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := database.New(cfg.DB)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := database.RunMigrations(db, "migrations"); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	var limiter *middleware.RateLimiter
	if cfg.Redis.Addr != "" {
		redisClient, err := database.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		limiter = middleware.NewMutationRateLimiter(redisClient)
	}

	var store storage.Store
	switch cfg.Storage.Backend {
	case "s3":
		s3Cfg, err := config.NewS3Config(context.Background(), cfg.Storage)
		if err != nil {
			logger.Fatal("failed to configure S3 storage", zap.Error(err))
		}
		store = storage.NewS3(s3Cfg)
	default:
		store = storage.NewLocal(cfg.Storage.LocalRoot)
	}

	authService := service.NewAuthService(db, cfg.JWT.Secret)
	recipeService := service.NewRecipeService(db, store, logger)
	recipeHandler := api.NewRecipeHandler(recipeService, logger)
	healthHandler := api.NewHealthHandler(db)

	engine := router.SetupRouter(recipeHandler, healthHandler, authService, limiter, cfg.Server.AllowedOrigins)
	srv := server.New(net.JoinHostPort(cfg.Server.Host, cfg.Server.Port), engine, logger)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-quit:
		logger.Info("received signal", zap.String("signal", sig.String()))
	}

	logger.Info("shutting down server")
	if err := srv.Shutdown(context.Background()); err != nil {
		logger.Fatal("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
}
