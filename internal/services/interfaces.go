package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string, role models.Role, studentID, phoneNumber, department string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// NotificationServicer is the notification sink consumed by the loan,
// scholarship, and reminder components. Create is fire-and-forget from the
// caller's perspective: a failed email never rolls back the triggering
// operation.
type NotificationServicer interface {
	Create(userID uint, title, message string, notificationType models.NotificationType, sendEmail bool) (*models.Notification, error)
	GetUserNotifications(userID uint, page pagination.PageRequest, unreadOnly bool) (*pagination.PageResponse[models.Notification], error)
	MarkRead(userID uint, ids []uint, markAll bool) (int64, error)
	MarkOneRead(userID, notificationID uint) error
}

// RepaymentEngine computes repayment schedules and applies payments.
type RepaymentEngine interface {
	// BuildSchedule computes due date, interest, and total payable on the
	// loan and returns the repayment rows to persist. Fails when the loan
	// has no start date.
	BuildSchedule(loan *models.Loan) ([]models.Repayment, error)
	// ApplyPayment increments the repayment's paid amount within tx,
	// marking it paid once settled in full.
	ApplyPayment(tx *gorm.DB, repayment *models.Repayment, amount decimal.Decimal) error
	OutstandingBalance(loanID uint) (decimal.Decimal, error)
	// NextDue returns the earliest pending repayment and its amount due,
	// or a zero amount and nil when none remain.
	NextDue(loanID uint) (decimal.Decimal, *models.Repayment, error)
	// FlagOverdue marks pending repayments past their due date as late and
	// returns how many rows changed.
	FlagOverdue(today time.Time) (int64, error)
}

// LoanSummaryEntry describes one active loan for dashboard widgets.
type LoanSummaryEntry struct {
	LoanID             uint              `json:"loan_id"`
	LoanName           string            `json:"loan_name"`
	Status             models.LoanStatus `json:"status"`
	DueDate            *time.Time        `json:"due_date"`
	AmountDue          string            `json:"amount_due"`
	OutstandingBalance string            `json:"outstanding_balance"`
	DaysUntilDue       *int              `json:"days_until_due"`
}

// LoanHistory groups a user's loans by status.
type LoanHistory map[models.LoanStatus][]models.Loan

// AdminLoanHistory is the administrator overview of all loans.
type AdminLoanHistory struct {
	Results []models.Loan               `json:"results"`
	Totals  map[models.LoanStatus]int64 `json:"totals"`
}

// LoanServicer governs the loan lifecycle. Status only changes through
// these operations; invalid source states fail without mutation.
type LoanServicer interface {
	Apply(userID, schemeID uint, notes string) (*models.Loan, error)
	Activate(adminID, loanID uint) (*models.Loan, error)
	Decline(adminID, loanID uint, note string) (*models.Loan, error)
	Payoff(userID, loanID uint) (*models.Loan, error)
	GetLoanByID(userID uint, role models.Role, loanID uint) (*models.Loan, error)
	ListLoans(userID uint, role models.Role, status *models.LoanStatus, page pagination.PageRequest) (*pagination.PageResponse[models.Loan], error)
	ListRepayments(userID uint, role models.Role, loanID uint) ([]models.Repayment, error)
	Summary(userID uint) ([]LoanSummaryEntry, error)
	History(userID uint) (LoanHistory, error)
	AdminHistory() (*AdminLoanHistory, error)
}

// SchemeServicer manages loan scheme templates.
type SchemeServicer interface {
	CreateScheme(adminID uint, name, description, lenderName string, principal, interestRate decimal.Decimal, termMonths int) (*models.LoanScheme, error)
	GetSchemeByID(schemeID uint) (*models.LoanScheme, error)
	// ListSchemes hides inactive schemes and schemes the student already
	// holds a pending, active, or paid loan against when the caller is not
	// an administrator.
	ListSchemes(userID uint, role models.Role, page pagination.PageRequest) (*pagination.PageResponse[models.LoanScheme], error)
	UpdateScheme(schemeID uint, name, description, lenderName string, principal, interestRate *decimal.Decimal, termMonths *int, isActive *bool) (*models.LoanScheme, error)
	DeleteScheme(schemeID uint) error
}

// ScholarshipServicer governs the scholarship catalog and the application
// review workflow.
type ScholarshipServicer interface {
	CreateScholarship(name, description, provider, eligibility string, amount decimal.Decimal, deadline time.Time) (*models.Scholarship, error)
	GetScholarshipByID(scholarshipID uint) (*models.Scholarship, error)
	ListScholarships(userID uint, role models.Role, page pagination.PageRequest) (*pagination.PageResponse[models.Scholarship], error)
	UpdateScholarship(scholarshipID uint, name, description, provider, eligibility string, amount *decimal.Decimal, deadline *time.Time, isActive *bool) (*models.Scholarship, error)
	DeleteScholarship(scholarshipID uint) error

	Apply(userID, scholarshipID uint, note string) (*models.ScholarshipApplication, error)
	Review(adminID, applicationID uint, action string, note string) (*models.ScholarshipApplication, error)
	MyApplications(userID uint, status *models.ApplicationStatus) ([]models.ScholarshipApplication, error)
	ListApplications(scholarshipID uint) ([]models.ScholarshipApplication, error)
}

// DateRangeFilter restricts ledger queries to an optional date window.
type DateRangeFilter struct {
	Start  *time.Time
	End    *time.Time
	Search string
}

// IncomeServicer manages income entries.
type IncomeServicer interface {
	CreateIncome(userID uint, source string, amount decimal.Decimal, dateReceived time.Time, notes string) (*models.Income, error)
	GetIncomeByID(userID, incomeID uint) (*models.Income, error)
	ListIncomes(userID uint, filter DateRangeFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Income], error)
	UpdateIncome(userID, incomeID uint, source string, amount *decimal.Decimal, dateReceived *time.Time, notes *string) (*models.Income, error)
	DeleteIncome(userID, incomeID uint) error
}

// ExpenseServicer manages expense entries.
type ExpenseServicer interface {
	CreateExpense(userID uint, merchant string, amount decimal.Decimal, dateSpent time.Time, notes string, categoryID *uint) (*models.Expense, error)
	GetExpenseByID(userID, expenseID uint) (*models.Expense, error)
	ListExpenses(userID uint, filter DateRangeFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error)
	UpdateExpense(userID, expenseID uint, merchant string, amount *decimal.Decimal, dateSpent *time.Time, notes *string, categoryID *uint) (*models.Expense, error)
	DeleteExpense(userID, expenseID uint) error
}

// CategoryServicer manages the admin-owned expense categories.
type CategoryServicer interface {
	CreateCategory(name string) (*models.Category, error)
	ListCategories(page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	UpdateCategory(categoryID uint, name string) (*models.Category, error)
	DeleteCategory(categoryID uint) error
}

// BudgetServicer manages per-period budgets.
type BudgetServicer interface {
	CreateBudget(userID uint, periodStart, periodEnd time.Time, allocatedAmount decimal.Decimal) (*models.Budget, error)
	GetBudgetByID(userID, budgetID uint) (*models.Budget, error)
	ListBudgets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	UpdateBudget(userID, budgetID uint, allocatedAmount *decimal.Decimal) (*models.Budget, error)
	DeleteBudget(userID, budgetID uint) error
}

// FinanceSummary is the dashboard summary payload. Every monetary value is
// an exact two-decimal string; change percentages are nil when the previous
// month has no data.
type FinanceSummary struct {
	TotalIncome      string  `json:"total_income"`
	TotalExpense     string  `json:"total_expense"`
	NetBalance       string  `json:"net_balance"`
	IncomeThisMonth  string  `json:"income_this_month"`
	ExpenseThisMonth string  `json:"expense_this_month"`
	CurrentBalance   string  `json:"current_balance"`
	IncomeChange     *string `json:"income_change"`
	ExpenseChange    *string `json:"expense_change"`
	BalanceChange    *string `json:"balance_change"`
}

// TrendRow is one month of income vs expense totals.
type TrendRow struct {
	Month   string `json:"month"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
}

// CategoryTotal is one category's total within a period.
type CategoryTotal struct {
	CategoryID *uint  `json:"category_id"`
	Category   string `json:"category"`
	Amount     string `json:"amount"`
}

// BreakdownMonth is one month of per-category expense totals.
type BreakdownMonth struct {
	Month      string          `json:"month"`
	MonthKey   string          `json:"month_key"`
	Categories []CategoryTotal `json:"categories"`
	Total      string          `json:"total"`
}

// LedgerServicer computes read-side finance aggregates. It never mutates.
type LedgerServicer interface {
	Summary(userID uint, start, end *time.Time) (*FinanceSummary, error)
	Trends(userID uint, windowMonths int, includeCurrent bool) ([]TrendRow, error)
	ExpensesByCategory(userID uint, period string) ([]CategoryTotal, error)
	CategoryBreakdownSeries(userID uint, mode, month string) ([]BreakdownMonth, error)
	IncomesBySource(userID uint, period string) ([]CategoryTotal, error)
}

// ReminderServicer scans for repayments due soon and emits reminder
// notifications. It is invoked by an external scheduler and safe to re-run;
// a rescan may resend reminders.
type ReminderServicer interface {
	SendRepaymentReminders() (int, error)
}
