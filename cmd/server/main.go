package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"titulacion/config"
	"titulacion/internal/api/handler"
	"titulacion/internal/api/router"
	"titulacion/internal/repository"
	"titulacion/internal/service"
	"titulacion/internal/workflow"
	"titulacion/pkg/database"
	"titulacion/pkg/jwt"
	applogger "titulacion/pkg/logger"
	"titulacion/pkg/redis"
	"titulacion/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	flag.Parse()

	// 1. configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. logging
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting titulacion",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. database
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database failed", zap.Error(err))
	}
	if err := database.Migrate(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("migrate database failed", zap.Error(err))
	}
	repo := repository.NewRepository(db)

	// 3.1 stage catalog, fixed for the life of the process
	stages, err := repo.Stage.List(context.Background())
	if err != nil {
		logger.Fatal("load stages failed", zap.Error(err))
	}
	machine, err := workflow.NewMachine(stages)
	if err != nil {
		logger.Fatal("invalid stage catalog; run cmd/seed first", zap.Error(err))
	}

	// 4. Redis is optional: without it tokens cannot be revoked and logins are not rate limited
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, token blacklist and rate limiting disabled", zap.Error(err))
		rdb = nil
	}
	var (
		blacklist service.TokenBlacklist
		sec       router.Security
	)
	if rdb != nil {
		blacklist = rdb
		sec.Blacklist = rdb
		sec.RateLimiter = rdb
	}

	// 5. tokens and files
	jwtMgr := jwt.NewManager(&cfg.Auth)
	sec.Tokens = jwtMgr

	files, err := storage.New(cfg.Storage.MediaRoot, cfg.Storage.MaxFileSize)
	if err != nil {
		logger.Fatal("init storage failed", zap.Error(err))
	}

	// 6. Repository → Service → Handler
	svc := service.NewService(service.Deps{
		Config:    cfg,
		Repo:      repo,
		Machine:   machine,
		Tokens:    jwtMgr,
		Blacklist: blacklist,
		Files:     files,
		Logger:    logger,
	})
	h := handler.NewHandler(cfg, svc, repo)

	// 7. routes
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.Setup(cfg, h, sec, logger)

	// 8. HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("server stopped")
}
