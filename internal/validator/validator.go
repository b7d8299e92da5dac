// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("user_role", validateUserRole)
		_ = v.RegisterValidation("loan_status", validateLoanStatus)
		_ = v.RegisterValidation("review_action", validateReviewAction)
		_ = v.RegisterValidation("breakdown_period", validateBreakdownPeriod)
		_ = v.RegisterValidation("money", validateMoney)
	}
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "student", "admin", "sponsor":
		return true
	}
	return false
}

func validateLoanStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "pending", "active", "paid", "closed", "defaulted":
		return true
	}
	return false
}

func validateReviewAction(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "approve", "reject":
		return true
	}
	return false
}

func validateBreakdownPeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "current_month", "previous_month", "last_6_months":
		return true
	}
	return false
}

// validateMoney accepts a positive decimal string with at most two decimal
// places, e.g. "150.00". Amounts travel as strings, never binary floats.
func validateMoney(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	if !d.IsPositive() {
		return false
	}
	return d.Exponent() >= -2
}
