package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"shekelfolio/internal/handlers"
	"shekelfolio/internal/logger"
	"shekelfolio/internal/middleware"
	"shekelfolio/internal/models"
	"shekelfolio/internal/pricing"
	"shekelfolio/internal/services"
	"shekelfolio/internal/validator"
	"shekelfolio/internal/valuation"
)

// upstreamPrices are the constant prices served by the fake venues.
const (
	upstreamBTC  = 100000.0
	upstreamETH  = 3000.0
	upstreamSPY  = 600.0
	upstreamRate = 3.6
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine

	// failFX makes the exchange-rate upstream return 503 when set.
	failFX *atomic.Bool
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Transaction{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// startUpstreams starts fake Binance, Finnhub, and exchange-rate servers.
func startUpstreams(t *testing.T, failFX *atomic.Bool) (binanceURL, finnhubURL, fxURL string) {
	t.Helper()

	binance := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/v3/klines"):
			limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
			price := upstreamBTC
			if r.URL.Query().Get("symbol") == "ETHUSDT" {
				price = upstreamETH
			}
			today := time.Now().UTC().Truncate(24 * time.Hour)
			rows := make([]string, 0, limit)
			for i := limit - 1; i >= 0; i-- {
				openTime := today.AddDate(0, 0, -i).UnixMilli()
				rows = append(rows, fmt.Sprintf(`[%d,"0","0","0","%f","0",0]`, openTime, price))
			}
			_, _ = w.Write([]byte("[" + strings.Join(rows, ",") + "]"))
		case strings.HasPrefix(r.URL.Path, "/api/v3/ticker/24hr"):
			price := upstreamBTC
			if r.URL.Query().Get("symbol") == "ETHUSDT" {
				price = upstreamETH
			}
			fmt.Fprintf(w, `{"lastPrice":"%f","priceChangePercent":"1.5"}`, price)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(binance.Close)

	finnhub := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"c":%f,"dp":0.8}`, upstreamSPY)
	}))
	t.Cleanup(finnhub.Close)

	fx := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if failFX.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprintf(w, `{"result":"success","rates":{"USD":1,"ILS":%f}}`, upstreamRate)
	}))
	t.Cleanup(fx.Close)

	return binance.URL, finnhub.URL, fx.URL
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database and fake pricing upstreams.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	failFX := &atomic.Bool{}
	binanceURL, finnhubURL, fxURL := startUpstreams(t, failFX)

	// Pricing stack
	httpClient := &http.Client{Timeout: 5 * time.Second}
	priceRouter := pricing.NewRouter(
		pricing.NewFixedILSSource(),
		pricing.NewBinanceSource(httpClient, binanceURL),
		pricing.NewFinnhubSource(httpClient, finnhubURL, "test-key"),
	)
	quotes := pricing.NewQuoteCache(priceRouter, time.Minute)
	rates := pricing.NewExchangeRateAPI(httpClient, fxURL)
	engine := valuation.NewEngine(priceRouter, rates)

	// Services
	userService := services.NewUserService(db)
	transactionService := services.NewTransactionService(db)
	portfolioService := services.NewPortfolioService(transactionService, engine, quotes, rates)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	assetHandler := handlers.NewAssetHandler()
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	v1.GET("/assets", assetHandler.ListAssets)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.POST("/import", transactionHandler.ImportTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	portfolio := protected.Group("/portfolio")
	portfolio.GET("/holdings", portfolioHandler.GetHoldings)
	portfolio.GET("/history", portfolioHandler.GetHistory)

	return &testApp{DB: db, Router: router, failFX: failFX}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// createTransaction creates a transaction and returns its ID.
func (app *testApp) createTransaction(t *testing.T, token, asset, txType string, quantity, totalILS float64, date string) string {
	t.Helper()
	body := fmt.Sprintf(`{"asset":%q,"type":%q,"quantity":%f,"total_ils":%f,"date":%q}`,
		asset, txType, quantity, totalILS, date)
	rec := app.request("POST", "/api/v1/transactions", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	tx := result["transaction"].(map[string]interface{})
	return tx["id"].(string)
}

// isoDaysAgo formats a date n days before today as YYYY-MM-DD.
func isoDaysAgo(n int) string {
	return time.Now().UTC().AddDate(0, 0, -n).Format("2006-01-02")
}
