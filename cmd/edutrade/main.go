package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/ryanrahman1/edutrade-backend/internal/config"
	"github.com/ryanrahman1/edutrade-backend/internal/logger"
	"github.com/ryanrahman1/edutrade-backend/internal/portfolio"
	"github.com/ryanrahman1/edutrade-backend/internal/postgres"
	"github.com/ryanrahman1/edutrade-backend/internal/quote"
	"github.com/ryanrahman1/edutrade-backend/internal/server"
)

const (
	_cfgFilePath = "./configs/edutrade.yaml"
)

func main() {
	zapLogger, loggerSync, err := logger.NewZapLogger(logger.Debug)
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
	zapLogger.Debugf("trying to connect to db with: %s", pgConfig)
	db, err := postgres.NewDB(pgConfig)
	if err != nil {
		zapLogger.Fatalf("%s: can't connect to db", err)
	}

	store := portfolio.NewDBStore(db)

	provider := quote.NewProvider(cfg.Provider, zapLogger)
	cache := quote.NewCache(provider, quote.NewSnapshot(cfg.Cache.SnapshotPath), cfg.Cache.TTL, cfg.Cache.FlushInterval, zapLogger)
	go cache.Run(ctx)
	history := quote.NewHistory(provider, zapLogger)

	executor := portfolio.NewExecutor(store, cache, zapLogger)
	valuator := portfolio.NewValuator(store)
	refresher := portfolio.NewRefresher(store, cache, zapLogger)
	go refresher.Run(ctx, cfg.Refresher.Interval)

	handler := server.NewHandler(executor, valuator, refresher, store, cache, history, cfg.StartingCash, zapLogger)

	zapLogger.Infof("listening on :%s", cfg.Server.Port)
	if err := server.NewHTTPServer(ctx, cfg.Server.Port, handler.Router()).Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zapLogger.Errorf("%s: server stopped", err)
	}

	if err := cache.Flush(); err != nil {
		zapLogger.Errorf("%s: can't flush quote cache", err)
	}
}
