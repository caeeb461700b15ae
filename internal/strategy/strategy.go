package strategy

import (
	"context"
	"fmt"
	"strings"

	"dca-trade-bot-go/internal/config"
	"dca-trade-bot-go/internal/exchange"
	"dca-trade-bot-go/internal/models"

	"go.uber.org/zap"
)

// TradeEngine is the slice of the trade engine a strategy drives.
type TradeEngine interface {
	// ExecuteBuy places a buy order and records it; nil price means market.
	ExecuteBuy(ctx context.Context, symbol string, amount float64, price *float64) (*exchange.Order, error)

	// SnapshotBalance captures the current account balance for audit.
	SnapshotBalance(ctx context.Context) (*models.AccountSnapshot, error)
}

// Strategy defines the interface for a trading strategy. All methods
// are suspension points and must be safe to call repeatedly after
// Start has run once.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string

	// Start gives the strategy a chance to perform setup tasks.
	Start(ctx context.Context) error

	// Stop releases whatever Start set up.
	Stop(ctx context.Context) error

	// OnTick is the periodic decision function, called by the executor
	// loop on its fixed cadence.
	OnTick(ctx context.Context) error

	// OnCandle handles a new candle.
	OnCandle(ctx context.Context, candle exchange.Candle) error

	// OnOrderFilled is invoked when an order reaches a terminal state.
	OnOrderFilled(ctx context.Context, order *exchange.Order) error
}

// Constructor builds a strategy from configuration and its collaborators.
type Constructor func(cfg *config.Config, eng TradeEngine, logger *zap.Logger) (Strategy, error)

var registry = map[string]Constructor{}

// Register makes a strategy constructor available under the given name.
func Register(name string, fn Constructor) {
	registry[strings.ToLower(name)] = fn
}

// New creates the strategy named in the configuration.
func New(name string, cfg *config.Config, eng TradeEngine, logger *zap.Logger) (Strategy, error) {
	fn, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}
	return fn(cfg, eng, logger)
}
