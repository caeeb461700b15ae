package engine

import (
	"context"
	"errors"
	"testing"

	"dca-trade-bot-go/internal/exchange"
	"dca-trade-bot-go/internal/models"
	"dca-trade-bot-go/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockProvider is a mock implementation of the exchange.Provider interface.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string { return "binance" }

func (m *MockProvider) FetchBalance(ctx context.Context) (*exchange.Balance, error) {
	args := m.Called()
	return args.Get(0).(*exchange.Balance), args.Error(1)
}

func (m *MockProvider) FetchOHLCV(ctx context.Context, symbol, timeframe string, since int64, limit int) ([]exchange.Candle, error) {
	args := m.Called(symbol, timeframe, since, limit)
	return args.Get(0).([]exchange.Candle), args.Error(1)
}

func (m *MockProvider) PlaceOrder(ctx context.Context, symbol, side string, amount float64, price *float64, orderType string) (*exchange.Order, error) {
	args := m.Called(symbol, side, amount, price, orderType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exchange.Order), args.Error(1)
}

func (m *MockProvider) FetchOrder(ctx context.Context, orderID, symbol string) (*exchange.Order, error) {
	args := m.Called(orderID, symbol)
	return args.Get(0).(*exchange.Order), args.Error(1)
}

func (m *MockProvider) Supports(capability string) bool { return true }

func (m *MockProvider) Close() error { return nil }

// setupEngine creates an engine over a mock provider and an in-memory store.
func setupEngine(t *testing.T) (*Engine, *MockProvider, *store.Store) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	err = db.AutoMigrate(&models.Trade{}, &models.Position{}, &models.AccountSnapshot{})
	assert.NoError(t, err)

	provider := new(MockProvider)
	st := store.New(db)
	return NewEngine(provider, st, zap.NewNop()), provider, st
}

func TestExecuteBuy_OpenOrder_RecordsTradeOnly(t *testing.T) {
	eng, provider, st := setupEngine(t)

	provider.On("PlaceOrder", "BTC/USDT", "buy", 0.1, (*float64)(nil), "market").
		Return(&exchange.Order{ID: "123", Status: exchange.StatusOpen}, nil)

	order, err := eng.ExecuteBuy(context.Background(), "BTC/USDT", 0.1, nil)

	assert.NoError(t, err)
	assert.Equal(t, "123", order.ID)

	trades, err := st.GetTrades(10, 0)
	assert.NoError(t, err)
	assert.Len(t, trades, 1)
	assert.Equal(t, exchange.StatusOpen, trades[0].Status)
	assert.Equal(t, "123", trades[0].ExchangeOrderID)
	assert.Equal(t, "binance", trades[0].Provider)
	assert.Equal(t, 0.0, trades[0].Price) // market order, fill price unknown

	// No fill yet, so no position.
	_, err = st.GetPosition("BTC/USDT")
	assert.ErrorIs(t, err, store.ErrNotFound)
	provider.AssertExpectations(t)
}

func TestExecuteBuy_ClosedOrder_CreatesPosition(t *testing.T) {
	eng, provider, st := setupEngine(t)

	provider.On("PlaceOrder", "BTC/USDT", "buy", 0.1, (*float64)(nil), "market").
		Return(&exchange.Order{ID: "124", Status: exchange.StatusClosed}, nil)

	_, err := eng.ExecuteBuy(context.Background(), "BTC/USDT", 0.1, nil)
	assert.NoError(t, err)

	position, err := st.GetPosition("BTC/USDT")
	assert.NoError(t, err)
	assert.Equal(t, 0.1, position.Size)
	assert.Equal(t, 0.0, position.AvgPrice) // market-order approximation
	provider.AssertExpectations(t)
}

func TestExecuteBuy_LimitOrder_RecordsRequestedPrice(t *testing.T) {
	eng, provider, st := setupEngine(t)

	price := 42000.0
	provider.On("PlaceOrder", "BTC/USDT", "buy", 0.1, &price, "limit").
		Return(&exchange.Order{ID: "125", Status: exchange.StatusClosed}, nil)

	_, err := eng.ExecuteBuy(context.Background(), "BTC/USDT", 0.1, &price)
	assert.NoError(t, err)

	trades, err := st.GetTrades(1, 0)
	assert.NoError(t, err)
	assert.Equal(t, 42000.0, trades[0].Price)

	position, err := st.GetPosition("BTC/USDT")
	assert.NoError(t, err)
	assert.Equal(t, 42000.0, position.AvgPrice)
}

func TestExecuteBuy_ExchangeFailure_NothingPersisted(t *testing.T) {
	eng, provider, st := setupEngine(t)

	provider.On("PlaceOrder", "BTC/USDT", "buy", 0.1, (*float64)(nil), "market").
		Return(nil, &exchange.Error{Op: "place_order", Err: errors.New("exchange down")})

	_, err := eng.ExecuteBuy(context.Background(), "BTC/USDT", 0.1, nil)

	var exchangeErr *exchange.Error
	assert.ErrorAs(t, err, &exchangeErr)

	trades, err := st.GetTrades(10, 0)
	assert.NoError(t, err)
	assert.Empty(t, trades)
	provider.AssertExpectations(t)
}

func TestExecuteBuy_PersistenceFailure_ReturnsPersistenceError(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)
	err = db.AutoMigrate(&models.Trade{}, &models.Position{}, &models.AccountSnapshot{})
	assert.NoError(t, err)

	provider := new(MockProvider)
	st := store.New(db)
	eng := NewEngine(provider, st, zap.NewNop())

	provider.On("PlaceOrder", "BTC/USDT", "buy", 0.1, (*float64)(nil), "market").
		Return(&exchange.Order{ID: "321", Status: exchange.StatusClosed}, nil)

	// The order goes through on the exchange, then the trades table
	// vanishes before the recording transaction can commit.
	assert.NoError(t, db.Migrator().DropTable(&models.Trade{}))

	order, err := eng.ExecuteBuy(context.Background(), "BTC/USDT", 0.1, nil)

	var perr *PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.Equal(t, "321", perr.OrderID)

	// The placed order is still handed back so the caller can reconcile.
	assert.NotNil(t, order)
	assert.Equal(t, "321", order.ID)

	// The unit of work rolled back: no position half-written either.
	_, err = st.GetPosition("BTC/USDT")
	assert.ErrorIs(t, err, store.ErrNotFound)
	provider.AssertExpectations(t)
}

func TestSnapshotBalance(t *testing.T) {
	eng, provider, _ := setupEngine(t)

	provider.On("FetchBalance").Return(&exchange.Balance{
		Assets: map[string]exchange.Asset{
			"BTC": {Free: 1.5, Locked: 0.5},
		},
	}, nil)

	snapshot, err := eng.SnapshotBalance(context.Background())
	assert.NoError(t, err)
	assert.NotZero(t, snapshot.ID)
	assert.Contains(t, snapshot.Balance, "BTC")
	provider.AssertExpectations(t)
}
