package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/omovigho/student-finance-tracker/internal/config"
	"github.com/omovigho/student-finance-tracker/internal/database"
	"github.com/omovigho/student-finance-tracker/internal/handlers"
	"github.com/omovigho/student-finance-tracker/internal/logger"
	"github.com/omovigho/student-finance-tracker/internal/middleware"
	"github.com/omovigho/student-finance-tracker/internal/services"
	"github.com/omovigho/student-finance-tracker/internal/validator"
)

// @title           Student Finance Tracker API
// @version         1.0
// @description     Personal finance and student aid tracking: income and expense ledger, loan lifecycle with repayments, scholarships, and notifications.

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

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("closing database: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	emailSender := services.NewSMTPSender(appConfig)
	userService := services.NewUserService(db)
	notificationService := services.NewNotificationService(db, emailSender)
	repaymentEngine := services.NewRepaymentEngine(db)
	schemeService := services.NewSchemeService(db)
	loanService := services.NewLoanService(db, repaymentEngine, notificationService)
	scholarshipService := services.NewScholarshipService(db, notificationService)
	incomeService := services.NewIncomeService(db)
	expenseService := services.NewExpenseService(db)
	categoryService := services.NewCategoryService(db)
	budgetService := services.NewBudgetService(db)
	ledgerService := services.NewLedgerService(db)
	reminderService := services.NewReminderService(db, repaymentEngine, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	schemeHandler := handlers.NewSchemeHandler(schemeService)
	loanHandler := handlers.NewLoanHandler(loanService)
	scholarshipHandler := handlers.NewScholarshipHandler(scholarshipService)
	incomeHandler := handlers.NewIncomeHandler(incomeService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	financeHandler := handlers.NewFinanceHandler(ledgerService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Repayment reminder scan on a cron schedule
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(appConfig.ReminderSchedule, func() {
		if _, err := reminderService.SendRepaymentReminders(); err != nil {
			log.Errorw("repayment reminder scan failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule reminder scan: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

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
	protected.GET("/profile", authHandler.GetProfile)

	// Loan scheme routes
	schemes := protected.Group("/loan-schemes")
	schemes.POST("", schemeHandler.CreateScheme)
	schemes.GET("", schemeHandler.ListSchemes)
	schemes.GET("/:id", schemeHandler.GetScheme)
	schemes.PATCH("/:id", schemeHandler.UpdateScheme)
	schemes.DELETE("/:id", schemeHandler.DeleteScheme)

	// Loan routes
	loans := protected.Group("/loans")
	loans.POST("/apply", loanHandler.ApplyLoan)
	loans.GET("", loanHandler.ListLoans)
	loans.GET("/summary", loanHandler.LoanSummary)
	loans.GET("/history", loanHandler.LoanHistory)
	loans.GET("/:id", loanHandler.GetLoan)
	loans.GET("/:id/repayments", loanHandler.ListRepayments)
	loans.POST("/:id/activate", loanHandler.ActivateLoan)
	loans.POST("/:id/decline", loanHandler.DeclineLoan)
	loans.POST("/:id/payoff", loanHandler.PayoffLoan)
	protected.GET("/admin/loans", loanHandler.AdminLoanHistory)

	// Scholarship routes
	scholarships := protected.Group("/scholarships")
	scholarships.POST("", scholarshipHandler.CreateScholarship)
	scholarships.GET("", scholarshipHandler.ListScholarships)
	scholarships.GET("/:id", scholarshipHandler.GetScholarship)
	scholarships.PATCH("/:id", scholarshipHandler.UpdateScholarship)
	scholarships.DELETE("/:id", scholarshipHandler.DeleteScholarship)
	scholarships.POST("/:id/apply", scholarshipHandler.ApplyScholarship)
	scholarships.GET("/:id/applications", scholarshipHandler.ListApplications)
	applications := protected.Group("/scholarship-applications")
	applications.GET("", scholarshipHandler.MyApplications)
	applications.POST("/:id/review", scholarshipHandler.ReviewApplication)

	// Income routes
	incomes := protected.Group("/incomes")
	incomes.POST("", incomeHandler.CreateIncome)
	incomes.GET("", incomeHandler.ListIncomes)
	incomes.GET("/:id", incomeHandler.GetIncome)
	incomes.PATCH("/:id", incomeHandler.UpdateIncome)
	incomes.DELETE("/:id", incomeHandler.DeleteIncome)

	// Expense routes
	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PATCH("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.PATCH("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PATCH("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	// Finance aggregate routes
	finance := protected.Group("/finance")
	finance.GET("/summary", financeHandler.Summary)
	finance.GET("/trends", financeHandler.Trends)
	finance.GET("/expenses-by-category", financeHandler.ExpensesByCategory)
	finance.GET("/category-breakdown", financeHandler.CategoryBreakdown)
	finance.GET("/incomes-by-source", financeHandler.IncomesBySource)

	// Notification routes
	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.ListNotifications)
	notifications.POST("/mark-read", notificationHandler.MarkRead)
	notifications.POST("/:id/read", notificationHandler.MarkOneRead)

	log.Infof("Starting student finance tracker API on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
