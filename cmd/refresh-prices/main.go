package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ryanrahman1/edutrade-backend/internal/config"
	"github.com/ryanrahman1/edutrade-backend/internal/logger"
	"github.com/ryanrahman1/edutrade-backend/internal/portfolio"
	"github.com/ryanrahman1/edutrade-backend/internal/postgres"
	"github.com/ryanrahman1/edutrade-backend/internal/quote"
)

const (
	_cfgFilePath = "./configs/edutrade.yaml"
)

// One-shot sweep over every held symbol, for cron-style deployments.
func main() {
	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Info)
	if err != nil {
		log.Fatalf("%s: can't init logger", err)
	}
	defer loggerSync()

	if err := godotenv.Load(); err != nil {
		zapLogger.Warnf("can't detect .env file")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(_cfgFilePath)
	if err != nil {
		zapLogger.Warnf("%s: can't load config, using defaults", err)
		if err := cfg.ValidateAndSetup(); err != nil {
			zapLogger.Fatalf("%s: can't setup default cfg", err)
		}
	}

	pgConfig := postgres.NewConfigFromEnv().Setup()
	db, err := postgres.NewDB(pgConfig)
	if err != nil {
		zapLogger.Fatalf("%s: can't connect to db", err)
	}

	store := portfolio.NewDBStore(db)
	provider := quote.NewProvider(cfg.Provider, zapLogger)
	cache := quote.NewCache(provider, quote.NewSnapshot(cfg.Cache.SnapshotPath), cfg.Cache.TTL, cfg.Cache.FlushInterval, zapLogger)

	if err := portfolio.NewRefresher(store, cache, zapLogger).RefreshAll(ctx); err != nil {
		zapLogger.Fatalf("%s: refresh sweep failed", err)
	}

	if err := cache.Flush(); err != nil {
		zapLogger.Errorf("%s: can't flush quote cache", err)
	}
}
