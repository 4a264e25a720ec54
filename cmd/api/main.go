package main

import (
	"fmt"
	"net/http"
	"os"

	"drachma/internal/config"
	"drachma/internal/database"
	"drachma/internal/handlers"
	"drachma/internal/logger"
	"drachma/internal/mail"
	"drachma/internal/middleware"
	"drachma/internal/services"
	"drachma/internal/validator"

	"github.com/gin-gonic/gin"
)

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

	// Register custom request validators
	validator.Register()

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

	// Run migrations
	if err := dbManager.Migrate(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	sender := mail.NewSMTPSender(
		appConfig.SMTPHost,
		appConfig.SMTPPort,
		appConfig.SMTPUsername,
		appConfig.SMTPPassword,
		appConfig.EmailFrom,
	)

	accountService := services.NewAccountService(db)
	transactionService := services.NewTransactionService(db, accountService)
	budgetService := services.NewBudgetService(db, accountService, sender)

	// Initialize handlers
	accountHandler := handlers.NewAccountHandler(accountService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group. Identity is asserted by the gateway in front of this
	// service via the X-User-ID header.
	v1 := router.Group("/api/v1")
	v1.Use(middleware.UserContext())

	// Account routes
	accounts := v1.Group("/accounts")
	accounts.POST("", accountHandler.CreateAccount)
	accounts.GET("", accountHandler.ListAccounts)
	accounts.GET("/:id", accountHandler.GetAccount)
	accounts.PUT("/:id/default", accountHandler.SetDefaultAccount)
	accounts.GET("/:id/transactions", transactionHandler.ListTransactions)

	// Transaction routes
	transactions := v1.Group("/transactions")
	transactions.POST("", transactionHandler.PostTransaction)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.RepostTransaction)

	// Budget routes
	budget := v1.Group("/budget")
	budget.PUT("", budgetHandler.SetBudget)
	budget.GET("", budgetHandler.GetBudget)

	log.Infof("Starting drachma API server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
