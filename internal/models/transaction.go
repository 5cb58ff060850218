package models

import "time"

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "buy"
	TransactionTypeSell TransactionType = "sell"
)

// Transaction represents a single buy or sell of an asset. Quantity and
// TotalILS are always positive; the sign of the effect on holdings is
// determined by Type.
//
// A zero Date is a sentinel meaning "today": the valuation engine resolves it
// to the current day instead of treating it as an ancient date.
type Transaction struct {
	Base
	UserID   string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Asset    Asset           `gorm:"not null;index" json:"asset"`
	Type     TransactionType `gorm:"not null" json:"type"`
	Quantity float64         `gorm:"not null" json:"quantity"`
	TotalILS float64         `gorm:"column:total_ils;not null" json:"total_ils"`
	Date     time.Time       `gorm:"not null;index" json:"date"`
}
