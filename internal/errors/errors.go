// Package errors provides custom error types for the student finance API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Loan scheme errors.
var (
	ErrSchemeNotFound = &AppError{Code: "SCHEME_NOT_FOUND", Message: "Loan scheme not found", StatusCode: http.StatusNotFound}
	ErrSchemeInactive = &AppError{Code: "SCHEME_INACTIVE", Message: "Loan scheme is not accepting applications", StatusCode: http.StatusBadRequest}
	ErrSchemeInUse    = &AppError{Code: "SCHEME_IN_USE", Message: "Loan scheme has loans referencing it", StatusCode: http.StatusConflict}
)

// Loan and repayment errors.
var (
	ErrLoanNotFound      = &AppError{Code: "LOAN_NOT_FOUND", Message: "Loan not found", StatusCode: http.StatusNotFound}
	ErrInvalidLoanState  = &AppError{Code: "INVALID_STATE", Message: "Operation not valid for the loan's current status", StatusCode: http.StatusConflict}
	ErrRepaymentNotFound = &AppError{Code: "REPAYMENT_NOT_FOUND", Message: "No pending repayments found", StatusCode: http.StatusNotFound}
	ErrAlreadySettled    = &AppError{Code: "ALREADY_SETTLED", Message: "This loan is already settled", StatusCode: http.StatusConflict}
	ErrExceedsBalance    = &AppError{Code: "EXCEEDS_BALANCE", Message: "Payment exceeds amount due", StatusCode: http.StatusBadRequest}
	ErrDuplicateLoan     = &AppError{Code: "DUPLICATE_LOAN", Message: "You already have a loan against this scheme", StatusCode: http.StatusConflict}
	ErrMissingStartDate  = &AppError{Code: "INVALID_STATE", Message: "Loan must have a start date to generate a repayment schedule", StatusCode: http.StatusConflict}
)

// Scholarship errors.
var (
	ErrScholarshipNotFound  = &AppError{Code: "SCHOLARSHIP_NOT_FOUND", Message: "Scholarship not found", StatusCode: http.StatusNotFound}
	ErrApplicationNotFound  = &AppError{Code: "APPLICATION_NOT_FOUND", Message: "Application not found", StatusCode: http.StatusNotFound}
	ErrDeadlinePassed       = &AppError{Code: "DEADLINE_PASSED", Message: "You cannot apply after the scholarship deadline", StatusCode: http.StatusBadRequest}
	ErrDuplicateApplication = &AppError{Code: "DUPLICATE_APPLICATION", Message: "You have already applied for this scholarship", StatusCode: http.StatusConflict}
	ErrAlreadyReviewed      = &AppError{Code: "ALREADY_REVIEWED", Message: "Application has already been reviewed", StatusCode: http.StatusConflict}
)

// Finance errors.
var (
	ErrIncomeNotFound   = &AppError{Code: "INCOME_NOT_FOUND", Message: "Income not found", StatusCode: http.StatusNotFound}
	ErrExpenseNotFound  = &AppError{Code: "EXPENSE_NOT_FOUND", Message: "Expense not found", StatusCode: http.StatusNotFound}
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse    = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing expenses", StatusCode: http.StatusConflict}
	ErrBudgetNotFound   = &AppError{Code: "BUDGET_NOT_FOUND", Message: "Budget not found", StatusCode: http.StatusNotFound}
	ErrDuplicateBudget  = &AppError{Code: "DUPLICATE_BUDGET", Message: "A budget already exists for this period", StatusCode: http.StatusConflict}
)

// Notification errors.
var (
	ErrNotificationNotFound = &AppError{Code: "NOTIFICATION_NOT_FOUND", Message: "Notification not found", StatusCode: http.StatusNotFound}
)
