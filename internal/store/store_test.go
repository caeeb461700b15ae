package store

import (
	"errors"
	"testing"
	"time"

	"dca-trade-bot-go/internal/models"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupStore creates a Store on a fresh in-memory database.
func setupStore(t *testing.T) *Store {
	// Use a new, non-shared in-memory database for each test to ensure isolation.
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	assert.NoError(t, err)

	err = db.AutoMigrate(&models.Trade{}, &models.Position{}, &models.AccountSnapshot{})
	assert.NoError(t, err)

	return New(db)
}

func buyTrade(orderID string) *models.Trade {
	return &models.Trade{
		Provider:        "binance",
		Symbol:          "BTC/USDT",
		Side:            models.SideBuy,
		Amount:          0.1,
		Price:           50000.0,
		Status:          models.StatusFilled,
		ExchangeOrderID: orderID,
		MetaData:        map[string]any{"orderId": orderID},
	}
}

func TestSaveTrade_And_GetTrades(t *testing.T) {
	st := setupStore(t)

	saved, err := st.SaveTrade(buyTrade("12345"))
	assert.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.False(t, saved.ExecutedAt.IsZero())

	trades, err := st.GetTrades(1, 0)
	assert.NoError(t, err)
	assert.Len(t, trades, 1)
	assert.Equal(t, saved.ID, trades[0].ID)
	assert.Equal(t, "BTC/USDT", trades[0].Symbol)
	assert.Equal(t, "12345", trades[0].ExchangeOrderID)
}

func TestSaveTrade_DuplicateOrderUpserts(t *testing.T) {
	st := setupStore(t)

	first, err := st.SaveTrade(buyTrade("777"))
	assert.NoError(t, err)

	// Re-recording the same exchange order must not create a second row.
	dup := buyTrade("777")
	dup.Status = models.StatusClosed
	dup.Price = 51000.0
	_, err = st.SaveTrade(dup)
	assert.NoError(t, err)

	trades, err := st.GetTrades(10, 0)
	assert.NoError(t, err)
	assert.Len(t, trades, 1)
	assert.Equal(t, first.ID, trades[0].ID)
	assert.Equal(t, models.StatusClosed, trades[0].Status)
	assert.Equal(t, 51000.0, trades[0].Price)
}

func TestGetTrades_NewestFirst(t *testing.T) {
	st := setupStore(t)

	older := buyTrade("1")
	older.ExecutedAt = time.Now().Add(-time.Hour)
	_, err := st.SaveTrade(older)
	assert.NoError(t, err)

	newer := buyTrade("2")
	_, err = st.SaveTrade(newer)
	assert.NoError(t, err)

	trades, err := st.GetTrades(10, 0)
	assert.NoError(t, err)
	assert.Len(t, trades, 2)
	assert.Equal(t, "2", trades[0].ExchangeOrderID)
	assert.Equal(t, "1", trades[1].ExchangeOrderID)
}

func TestUpdateTrade(t *testing.T) {
	st := setupStore(t)

	saved, err := st.SaveTrade(buyTrade("55"))
	assert.NoError(t, err)

	updated, err := st.UpdateTrade(saved.ID, map[string]any{"status": models.StatusClosed, "price": 49000.0})
	assert.NoError(t, err)
	assert.Equal(t, models.StatusClosed, updated.Status)
	assert.Equal(t, 49000.0, updated.Price)

	_, err = st.UpdateTrade(9999, map[string]any{"status": models.StatusClosed})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSavePosition_ReplaceSemantics(t *testing.T) {
	st := setupStore(t)
	base := time.Now()
	st.now = func() time.Time { return base }

	first, err := st.SavePosition("BTC/USDT", 0.1, 50000.0)
	assert.NoError(t, err)
	assert.Equal(t, 0.1, first.Size)

	// Second write replaces size and avg price wholesale and refreshes
	// updated_at.
	st.now = func() time.Time { return base.Add(time.Second) }
	_, err = st.SavePosition("BTC/USDT", 0.3, 48000.0)
	assert.NoError(t, err)

	positions, err := st.GetPositions()
	assert.NoError(t, err)
	assert.Len(t, positions, 1)
	assert.Equal(t, 0.3, positions[0].Size)
	assert.Equal(t, 48000.0, positions[0].AvgPrice)
	assert.True(t, positions[0].UpdatedAt.After(first.UpdatedAt))
}

func TestGetPosition_NotFound(t *testing.T) {
	st := setupStore(t)

	_, err := st.GetPosition("ETH/USDT")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAccountSnapshot(t *testing.T) {
	st := setupStore(t)

	snapshot, err := st.SaveAccountSnapshot(map[string]any{"BTC": 1.5})
	assert.NoError(t, err)
	assert.NotZero(t, snapshot.ID)
	assert.False(t, snapshot.Timestamp.IsZero())
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	st := setupStore(t)

	err := st.Transaction(func(tx *Store) error {
		if _, err := tx.SaveTrade(buyTrade("99")); err != nil {
			return err
		}
		return errors.New("boom")
	})
	assert.Error(t, err)

	trades, err := st.GetTrades(10, 0)
	assert.NoError(t, err)
	assert.Empty(t, trades)
}
