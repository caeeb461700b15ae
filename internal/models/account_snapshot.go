package models

import "time"

// AccountSnapshot is an append-only point-in-time balance capture kept
// for auditing. Rows are never mutated after insert.
type AccountSnapshot struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Balance   map[string]any `gorm:"serializer:json" json:"balance"`
	Timestamp time.Time      `gorm:"index" json:"timestamp"`
}

// TableName specifies the table name for the AccountSnapshot model.
func (AccountSnapshot) TableName() string {
	return "account_snapshots"
}
