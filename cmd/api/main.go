package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"shekelfolio/internal/config"
	"shekelfolio/internal/database"
	"shekelfolio/internal/handlers"
	"shekelfolio/internal/logger"
	"shekelfolio/internal/middleware"
	"shekelfolio/internal/pricing"
	"shekelfolio/internal/services"
	"shekelfolio/internal/validator"
	"shekelfolio/internal/valuation"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "shekelfolio/internal/docs" // Import swagger docs
)

// @title           Shekelfolio API
// @version         1.0
// @description     Shekelfolio is a personal finance tracker that records buy/sell transactions across a fixed asset catalog and values the portfolio in ILS, historically and live.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Price and FX collaborators. The router dispatches each asset to the
	// first source that supports it; order puts the no-network source first.
	httpClient := &http.Client{Timeout: 10 * time.Second}
	priceRouter := pricing.NewRouter(
		pricing.NewFixedILSSource(),
		pricing.NewBinanceSource(httpClient, appConfig.BinanceBaseURL),
		pricing.NewFinnhubSource(httpClient, appConfig.FinnhubBaseURL, appConfig.FinnhubAPIKey),
	)
	quotes := pricing.NewQuoteCache(priceRouter, appConfig.QuoteCacheTTL)
	rates := pricing.NewExchangeRateAPI(httpClient, appConfig.FXBaseURL)
	engine := valuation.NewEngine(priceRouter, rates)

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	transactionService := services.NewTransactionService(db)
	portfolioService := services.NewPortfolioService(transactionService, engine, quotes, rates)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	assetHandler := handlers.NewAssetHandler()
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	v1.GET("/assets", assetHandler.ListAssets)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.POST("/import", transactionHandler.ImportTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PATCH("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Portfolio routes
	portfolio := protected.Group("/portfolio")
	portfolio.GET("/holdings", portfolioHandler.GetHoldings)
	portfolio.GET("/history", portfolioHandler.GetHistory)

	log.Infof("Starting Shekelfolio backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
