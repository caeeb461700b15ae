package models

import "time"

// Trade side values as recorded in the database.
const (
	SideBuy  = "buy"
	SideSell = "sell"
)

// Trade statuses mirror the exchange order statuses they were recorded from.
const (
	StatusOpen     = "open"
	StatusClosed   = "closed"
	StatusFilled   = "filled"
	StatusCanceled = "canceled"
)

// Trade is an immutable execution record, created once per placed order.
// (Provider, ExchangeOrderID) is unique: re-recording the same exchange
// order must never produce a second row.
type Trade struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"index;uniqueIndex:uq_provider_order_id" json:"provider"`
	Symbol          string         `gorm:"index" json:"symbol"`
	Side            string         `json:"side"` // "buy" or "sell"
	Amount          float64        `json:"amount"`
	Price           float64        `json:"price"` // 0 means market/unknown at record time
	Status          string         `json:"status"`
	ExchangeOrderID string         `gorm:"uniqueIndex:uq_provider_order_id" json:"exchange_order_id"`
	ExecutedAt      time.Time      `gorm:"index" json:"executed_at"`
	MetaData        map[string]any `gorm:"serializer:json" json:"meta_data,omitempty"`
}

// TableName specifies the table name for the Trade model.
func (Trade) TableName() string {
	return "trades"
}
