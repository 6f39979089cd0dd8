package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"paisa/internal/config"
	"paisa/internal/database"
	"paisa/internal/handlers"
	"paisa/internal/interpreter"
	"paisa/internal/logger"
	"paisa/internal/middleware"
	"paisa/internal/services"
	"paisa/internal/validator"
)

// @title           Paisa API
// @version         1.0
// @description     Paisa is a conversational salary-cycle expense tracker: natural-language messages become ledger entries, budget envelopes and cycle aggregates.

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

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	auditService := services.NewAuditService(db)
	cycleService := services.NewCycleService(db)
	envelopeService := services.NewEnvelopeService(db)
	ledgerService := services.NewLedgerService(db, cycleService)
	reminderService := services.NewReminderService(db)

	interpreterClient := interpreter.NewClient(appConfig, nil)
	processor := services.NewProcessor(db, cycleService, envelopeService, appConfig.OverdraftSplit)
	chatService := services.NewChatService(db, cycleService, envelopeService, interpreterClient, processor)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	chatHandler := handlers.NewChatHandler(chatService, auditService)
	cycleHandler := handlers.NewCycleHandler(cycleService, auditService)
	transactionHandler := handlers.NewTransactionHandler(ledgerService, auditService)
	envelopeHandler := handlers.NewEnvelopeHandler(envelopeService, cycleService, auditService)
	reminderHandler := handlers.NewReminderHandler(reminderService, auditService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

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

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.Me)

	// Conversational endpoint
	protected.POST("/chat", chatHandler.Chat)

	// Cycle routes
	cycles := protected.Group("/cycles")
	cycles.GET("/active", cycleHandler.GetActiveCycle)
	cycles.GET("/history", cycleHandler.GetCycleHistory)
	cycles.POST("/start", cycleHandler.StartCycle)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Envelope routes
	envelopes := protected.Group("/envelopes")
	envelopes.GET("", envelopeHandler.ListEnvelopes)
	envelopes.POST("", envelopeHandler.AllocateEnvelope)
	envelopes.PUT("/:id", envelopeHandler.UpdateEnvelope)
	envelopes.DELETE("/:id", envelopeHandler.DeleteEnvelope)

	// Analytics routes
	analytics := protected.Group("/analytics")
	analytics.GET("/dashboard", cycleHandler.GetDashboard)

	// Reminder routes
	reminders := protected.Group("/reminders")
	reminders.GET("", reminderHandler.ListReminders)
	reminders.POST("", reminderHandler.CreateReminder)
	reminders.PATCH("/:id", reminderHandler.UpdateReminder)
	reminders.DELETE("/:id", reminderHandler.DeleteReminder)

	log.Infof("Starting Paisa backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
