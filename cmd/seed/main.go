// Command seed loads the initial catalog: groups, the school-services user,
// fixture graduates, document types and stages. Running it twice is harmless.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"titulacion/config"
	"titulacion/internal/repository"
	"titulacion/internal/seed"
	"titulacion/pkg/database"
	applogger "titulacion/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml")
	catalogPath := flag.String("catalog", "", "YAML catalog replacing the embedded one")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database failed", zap.Error(err))
	}
	defer func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	}()
	if err := database.Migrate(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("migrate database failed", zap.Error(err))
	}

	catalog, err := loadCatalog(*catalogPath)
	if err != nil {
		logger.Fatal("load seed catalog failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := seed.Run(ctx, repository.NewRepository(db), catalog, cfg.Seed.StaffPassword, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
}

func loadCatalog(path string) (*seed.Catalog, error) {
	if path == "" {
		return seed.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return seed.Parse(data)
}
