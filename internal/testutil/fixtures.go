package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/omovigho/student-finance-tracker/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a student with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleStudent)
}

// CreateTestAdmin creates an administrator.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithRole(t, db, models.RoleAdmin)
}

// CreateTestUserWithRole creates a user with the given role.
func CreateTestUserWithRole(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	n := nextID()
	user := &models.User{
		Email:    fmt.Sprintf("user%d@test.com", n),
		Password: string(hash),
		Role:     role,
		IsActive: true,
	}
	if role == models.RoleStudent {
		studentID := fmt.Sprintf("S%06d", n)
		user.StudentID = &studentID
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestScheme creates an active loan scheme with the given terms.
func CreateTestScheme(t *testing.T, db *gorm.DB, principal, rate string, termMonths int) *models.LoanScheme {
	t.Helper()

	scheme := &models.LoanScheme{
		Name:         fmt.Sprintf("Test Scheme %d", nextID()),
		LenderName:   "Test Lender",
		Principal:    decimal.RequireFromString(principal),
		InterestRate: decimal.RequireFromString(rate),
		TermMonths:   termMonths,
		IsActive:     true,
	}
	if err := db.Create(scheme).Error; err != nil {
		t.Fatalf("failed to create test scheme: %v", err)
	}
	return scheme
}

// CreateTestLoan creates a loan against the scheme in the given status,
// copying the scheme's terms the way the application flow does.
func CreateTestLoan(t *testing.T, db *gorm.DB, userID uint, scheme *models.LoanScheme, status models.LoanStatus) *models.Loan {
	t.Helper()

	loan := &models.Loan{
		UserID:       userID,
		SchemeID:     scheme.ID,
		LenderName:   scheme.LenderName,
		Principal:    scheme.Principal,
		InterestRate: scheme.InterestRate,
		TermMonths:   scheme.TermMonths,
		Status:       status,
		AppliedAt:    time.Now(),
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("failed to create test loan: %v", err)
	}
	return loan
}

// CreateTestScholarship creates an active scholarship with the given deadline.
func CreateTestScholarship(t *testing.T, db *gorm.DB, amount string, deadline time.Time) *models.Scholarship {
	t.Helper()

	scholarship := &models.Scholarship{
		Name:     fmt.Sprintf("Test Scholarship %d", nextID()),
		Amount:   decimal.RequireFromString(amount),
		Provider: "Test Provider",
		Deadline: deadline,
		IsActive: true,
	}
	if err := db.Create(scholarship).Error; err != nil {
		t.Fatalf("failed to create test scholarship: %v", err)
	}
	return scholarship
}

// CreateTestCategory creates an expense category. An empty name gets a
// unique generated one.
func CreateTestCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()

	if name == "" {
		name = fmt.Sprintf("Test Category %d", nextID())
	}
	category := &models.Category{Name: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestIncome creates an income entry on the given date.
func CreateTestIncome(t *testing.T, db *gorm.DB, userID uint, amount string, date time.Time) *models.Income {
	t.Helper()

	income := &models.Income{
		UserID:       userID,
		Source:       fmt.Sprintf("Source %d", nextID()),
		Amount:       decimal.RequireFromString(amount),
		DateReceived: date,
	}
	if err := db.Create(income).Error; err != nil {
		t.Fatalf("failed to create test income: %v", err)
	}
	return income
}

// CreateTestExpense creates an expense entry on the given date. Pass a nil
// categoryID for an uncategorised expense.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID uint, amount string, date time.Time, categoryID *uint) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:     userID,
		Merchant:   fmt.Sprintf("Merchant %d", nextID()),
		Amount:     decimal.RequireFromString(amount),
		DateSpent:  date,
		CategoryID: categoryID,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestBudget creates a budget covering the given period.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID uint, start, end time.Time, amount string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:          userID,
		PeriodStart:     start,
		PeriodEnd:       end,
		AllocatedAmount: decimal.RequireFromString(amount),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}
