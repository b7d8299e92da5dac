package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/omovigho/student-finance-tracker/internal/handlers"
	"github.com/omovigho/student-finance-tracker/internal/logger"
	"github.com/omovigho/student-finance-tracker/internal/middleware"
	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/services"
	"github.com/omovigho/student-finance-tracker/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
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
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.LoanScheme{},
		&models.Loan{},
		&models.Repayment{},
		&models.Scholarship{},
		&models.ScholarshipApplication{},
		&models.ScholarshipDisbursement{},
		&models.Category{},
		&models.Income{},
		&models.Expense{},
		&models.Budget{},
		&models.Notification{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	notificationService := services.NewNotificationService(db, nil)
	repaymentEngine := services.NewRepaymentEngine(db)
	schemeService := services.NewSchemeService(db)
	loanService := services.NewLoanService(db, repaymentEngine, notificationService)
	scholarshipService := services.NewScholarshipService(db, notificationService)
	incomeService := services.NewIncomeService(db)
	expenseService := services.NewExpenseService(db)
	categoryService := services.NewCategoryService(db)
	budgetService := services.NewBudgetService(db)
	ledgerService := services.NewLedgerService(db)

	// Handlers
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

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	schemes := protected.Group("/loan-schemes")
	schemes.POST("", schemeHandler.CreateScheme)
	schemes.GET("", schemeHandler.ListSchemes)
	schemes.GET("/:id", schemeHandler.GetScheme)
	schemes.PATCH("/:id", schemeHandler.UpdateScheme)
	schemes.DELETE("/:id", schemeHandler.DeleteScheme)

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

	incomes := protected.Group("/incomes")
	incomes.POST("", incomeHandler.CreateIncome)
	incomes.GET("", incomeHandler.ListIncomes)
	incomes.GET("/:id", incomeHandler.GetIncome)
	incomes.PATCH("/:id", incomeHandler.UpdateIncome)
	incomes.DELETE("/:id", incomeHandler.DeleteIncome)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("", expenseHandler.ListExpenses)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PATCH("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.ListCategories)
	categories.PATCH("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.ListBudgets)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PATCH("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	finance := protected.Group("/finance")
	finance.GET("/summary", financeHandler.Summary)
	finance.GET("/trends", financeHandler.Trends)
	finance.GET("/expenses-by-category", financeHandler.ExpensesByCategory)
	finance.GET("/category-breakdown", financeHandler.CategoryBreakdown)
	finance.GET("/incomes-by-source", financeHandler.IncomesBySource)

	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.ListNotifications)
	notifications.POST("/mark-read", notificationHandler.MarkRead)
	notifications.POST("/:id/read", notificationHandler.MarkOneRead)

	return &testApp{DB: db, Router: router}
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

// registerUser registers a user with the given role and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email, role string) (token string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","first_name":"Test","last_name":"User","role":%q,"student_id":"S%d"}`,
		email, role, dbCounter.Add(1))
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(float64)
}

// registerStudent registers a student account.
func (app *testApp) registerStudent(t *testing.T, email string) (string, float64) {
	return app.registerUser(t, email, "student")
}

// registerAdmin registers an administrator account.
func (app *testApp) registerAdmin(t *testing.T, email string) string {
	token, _ := app.registerUser(t, email, "admin")
	return token
}

// createScheme creates a loan scheme as the given admin and returns its ID.
func (app *testApp) createScheme(t *testing.T, adminToken string) float64 {
	t.Helper()
	rec := app.request("POST", "/api/v1/loan-schemes",
		`{"name":"Semester Support","lender_name":"Campus Credit Union","principal":"600","interest_rate":"5","term_months":6}`,
		adminToken)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create scheme failed: %d %s", rec.Code, rec.Body.String())
	}
	scheme := parseJSON(t, rec)["scheme"].(map[string]interface{})
	return scheme["id"].(float64)
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, code string) {
	t.Helper()
	result := parseJSON(t, rec)
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}
