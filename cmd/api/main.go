package main

import (
	"fmt"
	"net/http"
	"os"

	"dca-trade-bot-go/internal/config"
	"dca-trade-bot-go/internal/database"
	"dca-trade-bot-go/internal/logger"
	"dca-trade-bot-go/internal/store"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	// Load configuration
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

	// Connect to the database the bot writes to
	db, err := database.NewDatabase(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}

	handler := NewAPIHandler(log.Named("api-server"), store.New(db))

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handler.HealthHandler)
	mux.HandleFunc("/trades", handler.TradesHandler)
	mux.HandleFunc("/positions", handler.PositionsHandler)

	burst := int(cfg.Server.RequestsPerSec)
	if burst < 1 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(cfg.Server.RequestsPerSec), burst)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Info("Starting API server", zap.String("address", addr))
	if err := http.ListenAndServe(addr, throttle(limiter, mux)); err != nil {
		log.Fatal("API server failed", zap.Error(err))
	}
}

// throttle rejects requests beyond the configured rate with 429.
func throttle(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
