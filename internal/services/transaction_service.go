package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "shekelfolio/internal/errors"
	"shekelfolio/internal/logger"
	"shekelfolio/internal/models"
	"shekelfolio/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// CreateTransaction records a buy or sell of an asset for a user.
// A zero date is stored as-is: it is the sentinel the valuation engine
// resolves to "today".
func (s *transactionService) CreateTransaction(
	userID string,
	asset models.Asset,
	txType models.TransactionType,
	quantity, totalILS float64,
	date time.Time,
) (*models.Transaction, error) {
	if !asset.Valid() {
		return nil, apperrors.ErrInvalidAsset
	}
	if txType != models.TransactionTypeBuy && txType != models.TransactionTypeSell {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be buy or sell")
	}
	if quantity <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be greater than zero")
	}
	if totalILS <= 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total_ils must be greater than zero")
	}

	transaction := &models.Transaction{
		UserID:   userID,
		Asset:    asset,
		Type:     txType,
		Quantity: quantity,
		TotalILS: totalILS,
		Date:     date,
	}

	if err := s.db.Create(transaction).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, nil
}

// GetUserTransactions retrieves a paginated, filtered list of the user's transactions.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListAllTransactions returns the user's full transaction list, unpaginated.
// The valuation engine needs the whole log to replay holdings.
func (s *transactionService) ListAllTransactions(userID string) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if err := s.db.Where("user_id = ?", userID).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return transactions, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.Asset != nil {
		q = q.Where("asset = ?", *f.Asset)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.FromDate != nil {
		q = q.Where("date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", *f.ToDate)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction applies a partial update over any subset of the mutable fields.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if fields.Asset != nil {
		if !fields.Asset.Valid() {
			return nil, apperrors.ErrInvalidAsset
		}
		updates["asset"] = *fields.Asset
	}
	if fields.Type != nil {
		if *fields.Type != models.TransactionTypeBuy && *fields.Type != models.TransactionTypeSell {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "type must be buy or sell")
		}
		updates["type"] = *fields.Type
	}
	if fields.Quantity != nil {
		if *fields.Quantity <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "quantity must be greater than zero")
		}
		updates["quantity"] = *fields.Quantity
	}
	if fields.TotalILS != nil {
		if *fields.TotalILS <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "total_ils must be greater than zero")
		}
		updates["total_ils"] = *fields.TotalILS
	}
	if fields.Date != nil {
		updates["date"] = *fields.Date
	}

	if len(updates) == 0 {
		return transaction, nil
	}

	if err := s.db.Model(transaction).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return transaction, nil
}

// DeleteTransaction soft-deletes a transaction owned by the user.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	if err := s.db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ImportTransactions bulk-creates transactions from externally sourced rows.
// Malformed rows are skipped silently and counted; input validation here is
// a prior concern, separate from valuation errors.
func (s *transactionService) ImportTransactions(userID string, rows []ImportRow) (ImportSummary, error) {
	var summary ImportSummary

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			transaction, ok := parseImportRow(userID, row)
			if !ok {
				summary.Skipped++
				continue
			}
			if err := tx.Create(transaction).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			summary.Imported++
		}
		return nil
	})
	if err != nil {
		return ImportSummary{}, err
	}

	if summary.Skipped > 0 {
		logger.Get().Infow("import skipped malformed rows",
			"user_id", userID,
			"imported", summary.Imported,
			"skipped", summary.Skipped,
		)
	}

	return summary, nil
}

// parseImportRow validates one import row. The date "0" is the sentinel for
// "today" and is stored as the zero time.
func parseImportRow(userID string, row ImportRow) (*models.Transaction, bool) {
	asset := models.Asset(row.Asset)
	if !asset.Valid() {
		return nil, false
	}

	txType := models.TransactionType(row.Type)
	if txType != models.TransactionTypeBuy && txType != models.TransactionTypeSell {
		return nil, false
	}

	if row.Quantity <= 0 || row.TotalILS <= 0 {
		return nil, false
	}

	var date time.Time
	switch row.Date {
	case "", "0":
		// sentinel, resolved to "today" at valuation time
	default:
		parsed, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return nil, false
		}
		date = parsed
	}

	return &models.Transaction{
		UserID:   userID,
		Asset:    asset,
		Type:     txType,
		Quantity: row.Quantity,
		TotalILS: row.TotalILS,
		Date:     date,
	}, true
}
