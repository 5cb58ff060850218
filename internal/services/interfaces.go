package services

import (
	"context"
	"time"

	"shekelfolio/internal/models"
	"shekelfolio/internal/pagination"
	"shekelfolio/internal/valuation"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	Asset    *models.Asset
	Type     *models.TransactionType
	FromDate *time.Time
	ToDate   *time.Time
}

// TransactionUpdateFields holds the mutable transaction fields for a partial
// update; nil means "leave unchanged".
type TransactionUpdateFields struct {
	Asset    *models.Asset
	Type     *models.TransactionType
	Quantity *float64
	TotalILS *float64
	Date     *time.Time
}

// ImportRow is one row of a bulk transaction import. Rows are validated
// individually; malformed rows are skipped silently, not surfaced as errors.
type ImportRow struct {
	Date     string  `json:"date"`
	Asset    string  `json:"asset"`
	Type     string  `json:"type"`
	Quantity float64 `json:"quantity"`
	TotalILS float64 `json:"total_ils"`
}

// ImportSummary reports the outcome of a bulk import.
type ImportSummary struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, asset models.Asset, txType models.TransactionType, quantity, totalILS float64, date time.Time) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	ListAllTransactions(userID string) ([]models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	ImportTransactions(userID string, rows []ImportRow) (ImportSummary, error)
}

// AssetHolding is one asset's current position with live pricing applied.
type AssetHolding struct {
	Asset           models.Asset `json:"asset"`
	DisplayName     string       `json:"display_name"`
	Quantity        float64      `json:"quantity"`
	AvgCostILS      float64      `json:"avg_cost_ils"`
	CurrentPriceILS float64      `json:"current_price_ils"`
	ValueILS        int64        `json:"value_ils"`
	Change24h       float64      `json:"change_24h"`
}

// PortfolioServicer defines the contract for portfolio views: current
// holdings with live quotes and the historical value series.
type PortfolioServicer interface {
	Holdings(ctx context.Context, userID string) ([]AssetHolding, error)
	History(ctx context.Context, userID string) ([]valuation.ValuePoint, error)
}
