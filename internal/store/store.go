package store

import (
	"errors"
	"fmt"
	"time"

	"dca-trade-bot-go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store owns persistence of trades, positions and account snapshots.
// It is the only component that mutates those tables. Every call is
// one atomic unit of work; multi-write scopes go through Transaction.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New creates a Store on top of an opened gorm database.
func New(db *gorm.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Transaction runs fn with a Store bound to a single database
// transaction. Either everything fn writes is committed, or nothing is.
func (s *Store) Transaction(fn func(tx *Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, now: s.now})
	})
}

// SaveTrade inserts a trade record. Inserts are idempotent with respect
// to (provider, exchange_order_id): recording the same exchange order
// twice updates the existing row in place (upsert) instead of creating
// a duplicate or surfacing an opaque constraint violation.
func (s *Store) SaveTrade(trade *models.Trade) (*models.Trade, error) {
	if trade.ExecutedAt.IsZero() {
		trade.ExecutedAt = s.now()
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "exchange_order_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "price", "amount", "meta_data"}),
	}).Create(trade).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save trade: %w", err)
	}
	return trade, nil
}

// GetTrades returns up to limit trades, newest executed_at first.
func (s *Store) GetTrades(limit, offset int) ([]models.Trade, error) {
	var trades []models.Trade
	err := s.db.Order("executed_at desc").Limit(limit).Offset(offset).Find(&trades).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get trades: %w", err)
	}
	return trades, nil
}

// UpdateTrade applies the given field updates to an existing trade and
// returns the refreshed record. ErrNotFound is returned when no trade
// has that id.
func (s *Store) UpdateTrade(id uint, fields map[string]any) (*models.Trade, error) {
	var trade models.Trade
	if err := s.db.First(&trade, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find trade %d: %w", id, err)
	}

	if err := s.db.Model(&trade).Updates(fields).Error; err != nil {
		return nil, fmt.Errorf("failed to update trade %d: %w", id, err)
	}
	return &trade, nil
}

// GetPosition returns the position for a symbol, or ErrNotFound.
func (s *Store) GetPosition(symbol string) (*models.Position, error) {
	var position models.Position
	err := s.db.Where("symbol = ?", symbol).First(&position).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position for %s: %w", symbol, err)
	}
	return &position, nil
}

// GetPositions returns all positions.
func (s *Store) GetPositions() ([]models.Position, error) {
	var positions []models.Position
	if err := s.db.Find(&positions).Error; err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	return positions, nil
}

// SavePosition creates the position for symbol if absent, otherwise
// replaces its size and average price wholesale and refreshes
// updated_at. Callers compute the new aggregate themselves; this is
// not an accumulating average.
func (s *Store) SavePosition(symbol string, size, avgPrice float64) (*models.Position, error) {
	var position models.Position
	err := s.db.Where("symbol = ?", symbol).First(&position).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		position = models.Position{Symbol: symbol, Size: size, AvgPrice: avgPrice, UpdatedAt: s.now()}
		if err := s.db.Create(&position).Error; err != nil {
			return nil, fmt.Errorf("failed to create position for %s: %w", symbol, err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to load position for %s: %w", symbol, err)
	default:
		updates := map[string]any{"size": size, "avg_price": avgPrice, "updated_at": s.now()}
		if err := s.db.Model(&position).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update position for %s: %w", symbol, err)
		}
		if err := s.db.Where("symbol = ?", symbol).First(&position).Error; err != nil {
			return nil, fmt.Errorf("failed to reload position for %s: %w", symbol, err)
		}
	}
	return &position, nil
}

// SaveAccountSnapshot appends a point-in-time balance capture.
func (s *Store) SaveAccountSnapshot(balance map[string]any) (*models.AccountSnapshot, error) {
	snapshot := models.AccountSnapshot{Balance: balance, Timestamp: s.now()}
	if err := s.db.Create(&snapshot).Error; err != nil {
		return nil, fmt.Errorf("failed to save account snapshot: %w", err)
	}
	return &snapshot, nil
}
