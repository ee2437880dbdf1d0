package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"clfadmin/docs" // swagger docs
	"clfadmin/internal/auth"
	"clfadmin/internal/cache"
	"clfadmin/internal/config"
	"clfadmin/internal/db"
	"clfadmin/internal/handler"
	"clfadmin/internal/logger"
	"clfadmin/internal/registry"
	"clfadmin/internal/repository"
	"clfadmin/internal/router"
	"clfadmin/internal/service"
)

// @title Classification Admin API
// @version 1.0
// @description Model registry, user management and per-user classification history.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	gormDB, err := db.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("database init", zap.Error(err))
	}
	if cfg.ResetDB {
		log.Warn("RESET_DB=true detected, dropping all tables")
	}
	if err := db.Migrate(gormDB, cfg.ResetDB); err != nil {
		log.Fatal("auto-migrate", zap.Error(err))
	}

	ctx := context.Background()
	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	redisErr := cacheClient.Ping(ctx)

	// Initialize model registry
	var reg registry.Registry
	switch cfg.RegistryBackend {
	case config.RegistryMemory:
		reg = registry.NewMemoryRegistry()
	default:
		if redisErr != nil {
			log.Fatal("redis unavailable for model registry", zap.String("addr", cfg.RedisAddr), zap.Error(redisErr))
		}
		reg = registry.NewRedisRegistry(cacheClient, registry.DefaultRedisKey)
	}
	seeded, err := registry.Seed(ctx, reg, cfg.RegistrySeedModels)
	if err != nil {
		log.Fatal("seed model registry", zap.Error(err))
	}
	log.Info("model registry ready", zap.String("backend", cfg.RegistryBackend), zap.Int("seeded", seeded))

	// Token revocation needs redis; without it logout cannot be enforced.
	var tokenStore auth.TokenStoreInterface = auth.NewTokenStore(cacheClient)
	if redisErr != nil {
		log.Warn("redis unavailable, token revocation disabled", zap.String("addr", cfg.RedisAddr), zap.Error(redisErr))
		tokenStore = auth.NoopTokenStore{}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	historyRepo := repository.NewHistoryRepository(gormDB)

	// Initialize services
	access := service.NewAccessControl(userRepo)
	historyService := service.NewHistoryService(historyRepo, access, log)
	userService := service.NewUserService(userRepo, access, log)
	modelService := service.NewModelService(reg, access, log)

	// Initialize handlers
	historyHandler := handler.NewHistoryHandler(historyService)
	userHandler := handler.NewUserHandler(userService)
	modelHandler := handler.NewModelHandler(modelService)
	authHandler := handler.NewAuthHandler(tokenStore, log)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Register routes
	router.Register(
		e,
		cfg,
		log,
		access,
		tokenStore,
		historyHandler,
		userHandler,
		modelHandler,
		authHandler,
	)

	if cfg.SwaggerHost != "" {
		host := strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
		docs.SwaggerInfo.Host = strings.TrimRight(host, "/")
	}
	log.Info("swagger documentation available", zap.String("url", cfg.SwaggerURL()))

	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server starting", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server start", zap.Error(err))
		}
	}()

	stop, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-stop.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	log.Info("server stopped")
}
