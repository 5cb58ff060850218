package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "shekelfolio/internal/errors"
	"shekelfolio/internal/models"
	"shekelfolio/internal/pagination"
	"shekelfolio/internal/services"
)

type mockTransactionService struct {
	createFn func(userID string, asset models.Asset, txType models.TransactionType, quantity, totalILS float64, date time.Time) (*models.Transaction, error)
	listFn   func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getFn    func(userID, transactionID string) (*models.Transaction, error)
	updateFn func(userID, transactionID string, fields services.TransactionUpdateFields) (*models.Transaction, error)
	deleteFn func(userID, transactionID string) error
	importFn func(userID string, rows []services.ImportRow) (services.ImportSummary, error)
}

func (m *mockTransactionService) CreateTransaction(userID string, asset models.Asset, txType models.TransactionType, quantity, totalILS float64, date time.Time) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(userID, asset, txType, quantity, totalILS, date)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.listFn != nil {
		return m.listFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse[models.Transaction](nil, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) ListAllTransactions(string) ([]models.Transaction, error) {
	return nil, nil
}

func (m *mockTransactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	if m.getFn != nil {
		return m.getFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(userID, transactionID string, fields services.TransactionUpdateFields) (*models.Transaction, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, transactionID, fields)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(userID, transactionID string) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, transactionID)
	}
	return nil
}

func (m *mockTransactionService) ImportTransactions(userID string, rows []services.ImportRow) (services.ImportSummary, error) {
	if m.importFn != nil {
		return m.importFn(userID, rows)
	}
	return services.ImportSummary{}, nil
}

const testTxID = "018f4a2e-2222-7000-8000-000000000002"

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := injectUserID(testUserID)
	r.POST("/transactions", auth, handler.CreateTransaction)
	r.GET("/transactions", auth, handler.GetUserTransactions)
	r.POST("/transactions/import", auth, handler.ImportTransactions)
	r.GET("/transactions/:id", auth, handler.GetTransactionByID)
	r.PATCH("/transactions/:id", auth, handler.UpdateTransaction)
	r.DELETE("/transactions/:id", auth, handler.DeleteTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var gotDate time.Time
		svc := &mockTransactionService{
			createFn: func(userID string, asset models.Asset, txType models.TransactionType, quantity, totalILS float64, date time.Time) (*models.Transaction, error) {
				gotDate = date
				return &models.Transaction{
					Base: models.Base{ID: testTxID}, UserID: userID,
					Asset: asset, Type: txType, Quantity: quantity, TotalILS: totalILS, Date: date,
				}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "POST", "/transactions",
			`{"asset":"BTC","type":"buy","quantity":0.5,"total_ils":120000,"date":"2025-03-01"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		if !gotDate.Equal(want) {
			t.Errorf("expected date %v, got %v", want, gotDate)
		}
	})

	t.Run("sentinel date zero maps to zero time", func(t *testing.T) {
		var gotDate time.Time
		svc := &mockTransactionService{
			createFn: func(_ string, _ models.Asset, _ models.TransactionType, _, _ float64, date time.Time) (*models.Transaction, error) {
				gotDate = date
				return &models.Transaction{}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "POST", "/transactions",
			`{"asset":"Pension","type":"buy","quantity":100,"total_ils":100,"date":"0"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !gotDate.IsZero() {
			t.Errorf("expected zero time for sentinel date, got %v", gotDate)
		}
	})

	t.Run("returns 400 on unsupported asset", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"asset":"DOGE","type":"buy","quantity":1,"total_ils":100}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on non-positive quantity", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"asset":"BTC","type":"buy","quantity":-1,"total_ils":100}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed date", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions",
			`{"asset":"BTC","type":"buy","quantity":1,"total_ils":100,"date":"yesterday"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetUserTransactions(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var gotFilter services.TransactionFilter
		svc := &mockTransactionService{
			listFn: func(_ string, _ pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				gotFilter = filter
				resp := pagination.NewPageResponse[models.Transaction](nil, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "GET", "/transactions?asset=ETH&type=sell&from_date=2025-01-01", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.Asset == nil || *gotFilter.Asset != models.AssetETH {
			t.Error("expected asset filter ETH")
		}
		if gotFilter.Type == nil || *gotFilter.Type != models.TransactionTypeSell {
			t.Error("expected type filter sell")
		}
		if gotFilter.FromDate == nil {
			t.Error("expected from_date filter")
		}
	})

	t.Run("returns 400 on invalid asset filter", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "GET", "/transactions?asset=DOGE", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_ASSET")
	})

	t.Run("returns 400 on invalid type filter", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "GET", "/transactions?type=hold", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_GetTransactionByID(t *testing.T) {
	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockTransactionService{
			getFn: func(string, string) (*models.Transaction, error) {
				return nil, apperrors.ErrTransactionNotFound
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "GET", "/transactions/"+testTxID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "GET", "/transactions/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_UpdateTransaction(t *testing.T) {
	t.Run("passes only provided fields", func(t *testing.T) {
		var gotFields services.TransactionUpdateFields
		svc := &mockTransactionService{
			updateFn: func(_, _ string, fields services.TransactionUpdateFields) (*models.Transaction, error) {
				gotFields = fields
				return &models.Transaction{}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "PATCH", "/transactions/"+testTxID, `{"quantity":2.5}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFields.Quantity == nil || *gotFields.Quantity != 2.5 {
			t.Error("expected quantity update 2.5")
		}
		if gotFields.Asset != nil || gotFields.Type != nil || gotFields.TotalILS != nil || gotFields.Date != nil {
			t.Error("expected untouched fields to stay nil")
		}
	})

	t.Run("returns 400 on invalid asset", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "PATCH", "/transactions/"+testTxID, `{"asset":"DOGE"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	svc := &mockTransactionService{
		deleteFn: func(userID, transactionID string) error {
			if userID != testUserID || transactionID != testTxID {
				t.Errorf("unexpected args: %s %s", userID, transactionID)
			}
			return nil
		},
	}
	r := setupTransactionRouter(NewTransactionHandler(svc))

	rec := doRequest(r, "DELETE", "/transactions/"+testTxID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestTransactionHandler_ImportTransactions(t *testing.T) {
	t.Run("returns summary", func(t *testing.T) {
		svc := &mockTransactionService{
			importFn: func(_ string, rows []services.ImportRow) (services.ImportSummary, error) {
				return services.ImportSummary{Imported: len(rows) - 1, Skipped: 1}, nil
			},
		}
		r := setupTransactionRouter(NewTransactionHandler(svc))

		rec := doRequest(r, "POST", "/transactions/import",
			`{"transactions":[{"date":"2025-01-01","asset":"BTC","type":"buy","quantity":1,"total_ils":100},{"date":"x","asset":"BTC","type":"buy","quantity":1,"total_ils":100}]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		if result["imported"] != float64(1) {
			t.Errorf("expected imported 1, got %v", result["imported"])
		}
		if result["skipped"] != float64(1) {
			t.Errorf("expected skipped 1, got %v", result["skipped"])
		}
	})

	t.Run("returns 400 without transactions field", func(t *testing.T) {
		r := setupTransactionRouter(NewTransactionHandler(&mockTransactionService{}))

		rec := doRequest(r, "POST", "/transactions/import", `{}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
