package models

import "time"

// Position is the mutable aggregate held per symbol.
// There is at most one row per symbol; writes replace size and
// average price wholesale.
type Position struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	Symbol    string    `gorm:"uniqueIndex" json:"symbol"`
	Size      float64   `json:"size"`
	AvgPrice  float64   `json:"avg_price"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Position model.
func (Position) TableName() string {
	return "positions"
}
