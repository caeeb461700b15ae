package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dca-trade-bot-go/internal/config"
	"dca-trade-bot-go/internal/database"
	"dca-trade-bot-go/internal/engine"
	"dca-trade-bot-go/internal/exchange"
	"dca-trade-bot-go/internal/executor"
	"dca-trade-bot-go/internal/logger"
	"dca-trade-bot-go/internal/secrets"
	"dca-trade-bot-go/internal/store"
	"dca-trade-bot-go/internal/strategy"

	"go.uber.org/zap"
)

func main() {
	// Load secrets before configuration so viper's env overlay sees them.
	secrets.Bootstrap()

	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	log.Info("Configuration loaded")

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection successful and schema migrated.")

	tradeStore := store.New(db)

	// Construct the exchange provider named in the config.
	provider, err := exchange.New(cfg.Exchange.Provider, &cfg.Exchange, log)
	if err != nil {
		log.Fatal("Failed to construct exchange provider", zap.Error(err))
	}
	log.Info("Exchange provider constructed", zap.String("provider", provider.Name()))

	tradeEngine := engine.NewEngine(provider, tradeStore, log)

	strat, err := strategy.New(cfg.Bot.Strategy, &cfg, tradeEngine, log)
	if err != nil {
		log.Fatal("Failed to construct strategy", zap.Error(err))
	}

	// Setup context for graceful shutdown. The signal handler only
	// cancels; teardown happens after the loop drains.
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigchan := make(chan os.Signal, 1)
		signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)
		<-sigchan
		log.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	exec := executor.New(strat, time.Duration(cfg.Bot.TickInterval)*time.Second, log)
	if err := exec.Run(ctx); err != nil {
		log.Error("Executor exited with error", zap.Error(err))
	}

	if err := provider.Close(); err != nil {
		log.Warn("Failed to close exchange provider", zap.Error(err))
	}
	log.Info("Bot has been shut down.")
}
