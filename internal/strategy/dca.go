package strategy

import (
	"context"
	"time"

	"dca-trade-bot-go/internal/config"
	"dca-trade-bot-go/internal/exchange"

	"go.uber.org/zap"
)

func init() {
	Register("dca", NewDCA)
}

// DCAStrategy buys a fixed amount of one symbol at fixed time
// intervals regardless of price. Its only state is the time of the
// last successful buy.
type DCAStrategy struct {
	engine   TradeEngine
	logger   *zap.Logger
	symbol   string
	amount   float64
	interval time.Duration

	lastBuy time.Time
	now     func() time.Time // overridable in tests
}

// ensure DCAStrategy implements the interface
var _ Strategy = (*DCAStrategy)(nil)

// NewDCA creates a DCA strategy from the configuration.
func NewDCA(cfg *config.Config, eng TradeEngine, logger *zap.Logger) (Strategy, error) {
	return &DCAStrategy{
		engine:   eng,
		logger:   logger.Named("dca"),
		symbol:   cfg.DCA.Symbol,
		amount:   cfg.DCA.Amount,
		interval: time.Duration(cfg.DCA.IntervalSeconds) * time.Second,
		now:      time.Now,
	}, nil
}

// Name returns the strategy's registry name.
func (s *DCAStrategy) Name() string { return "dca" }

// Start logs the schedule and captures a balance snapshot for audit.
// A failed snapshot is not fatal; trading can proceed without it.
func (s *DCAStrategy) Start(ctx context.Context) error {
	s.logger.Info("Strategy started",
		zap.String("symbol", s.symbol),
		zap.Float64("amount", s.amount),
		zap.Duration("interval", s.interval),
	)

	if _, err := s.engine.SnapshotBalance(ctx); err != nil {
		s.logger.Warn("Failed to snapshot starting balance", zap.Error(err))
	}
	return nil
}

// Stop logs shutdown. The strategy holds no resources of its own.
func (s *DCAStrategy) Stop(ctx context.Context) error {
	s.logger.Info("Strategy stopped")
	return nil
}

// OnTick buys the configured amount when the interval since the last
// successful buy has elapsed. lastBuy moves forward only on success;
// after a failure the elapsed check re-triggers on the next tick.
func (s *DCAStrategy) OnTick(ctx context.Context) error {
	now := s.now()
	if now.Sub(s.lastBuy) <= s.interval {
		return nil
	}

	s.logger.Info("DCA triggered", zap.String("symbol", s.symbol))
	order, err := s.engine.ExecuteBuy(ctx, s.symbol, s.amount, nil)
	if err != nil {
		s.logger.Error("DCA buy failed", zap.Error(err))
		return err
	}
	s.lastBuy = now

	if order.Status == exchange.StatusClosed || order.Status == exchange.StatusFilled {
		return s.OnOrderFilled(ctx, order)
	}
	return nil
}

// OnCandle is a no-op; DCA is purely time-based.
func (s *DCAStrategy) OnCandle(ctx context.Context, candle exchange.Candle) error {
	return nil
}

// OnOrderFilled logs the fill.
func (s *DCAStrategy) OnOrderFilled(ctx context.Context, order *exchange.Order) error {
	s.logger.Info("Order filled",
		zap.String("order_id", order.ID),
		zap.String("symbol", order.Symbol),
		zap.Float64("amount", order.Amount),
	)
	return nil
}
