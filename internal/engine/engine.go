package engine

import (
	"context"
	"fmt"

	"dca-trade-bot-go/internal/exchange"
	"dca-trade-bot-go/internal/models"
	"dca-trade-bot-go/internal/store"

	"go.uber.org/zap"
)

// PersistenceError reports the one failure mode with real financial
// risk: an order was placed on the exchange but the database write
// recording it failed.
type PersistenceError struct {
	OrderID string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("order %s placed but not recorded: %v", e.OrderID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Engine orchestrates "place order, persist trade, reconcile position"
// as one unit of work. It holds no persistent state of its own.
type Engine struct {
	provider exchange.Provider
	store    *store.Store
	logger   *zap.Logger
}

// NewEngine creates a trade engine.
func NewEngine(provider exchange.Provider, st *store.Store, logger *zap.Logger) *Engine {
	return &Engine{
		provider: provider,
		store:    st,
		logger:   logger,
	}
}

// ExecuteBuy places a buy order and records the result. A nil price
// places a market order. On exchange failure the error propagates
// unchanged and nothing is written. On success, one trade row and,
// for an immediately closed order, one position replace are committed
// together.
func (e *Engine) ExecuteBuy(ctx context.Context, symbol string, amount float64, price *float64) (*exchange.Order, error) {
	orderType := exchange.OrderTypeMarket
	if price != nil {
		orderType = exchange.OrderTypeLimit
	}

	e.logger.Info("Executing buy",
		zap.String("symbol", symbol),
		zap.Float64("amount", amount),
		zap.String("type", orderType),
	)

	order, err := e.provider.PlaceOrder(ctx, symbol, exchange.SideBuy, amount, price, orderType)
	if err != nil {
		return nil, err
	}

	// The requested price, or 0 for a market order. This approximates
	// the actual fill price until a reconciliation pass corrects it.
	recordedPrice := 0.0
	if price != nil {
		recordedPrice = *price
	}

	err = e.store.Transaction(func(tx *store.Store) error {
		trade := &models.Trade{
			Provider:        e.provider.Name(),
			Symbol:          symbol,
			Side:            models.SideBuy,
			Amount:          amount,
			Price:           recordedPrice,
			Status:          order.Status,
			ExchangeOrderID: order.ID,
			MetaData:        order.Raw,
		}
		if _, err := tx.SaveTrade(trade); err != nil {
			return err
		}

		if order.Status == exchange.StatusClosed {
			// Straight replace of the position with this fill's size
			// and price; repeated partial fills are not accumulated.
			if _, err := tx.SavePosition(symbol, amount, recordedPrice); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		perr := &PersistenceError{OrderID: order.ID, Err: err}
		e.logger.Error("CRITICAL: order placed on exchange but not recorded",
			zap.String("order_id", order.ID),
			zap.String("symbol", symbol),
			zap.Error(err),
		)
		return order, perr
	}

	e.logger.Info("Buy recorded",
		zap.String("order_id", order.ID),
		zap.String("status", order.Status),
	)
	return order, nil
}

// SnapshotBalance captures the current exchange balance as an
// append-only account snapshot.
func (e *Engine) SnapshotBalance(ctx context.Context) (*models.AccountSnapshot, error) {
	balance, err := e.provider.FetchBalance(ctx)
	if err != nil {
		return nil, err
	}

	assets := make(map[string]any, len(balance.Assets))
	for asset, amounts := range balance.Assets {
		assets[asset] = map[string]any{"free": amounts.Free, "locked": amounts.Locked}
	}
	return e.store.SaveAccountSnapshot(assets)
}
