package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus represents a loan's lifecycle state.
type LoanStatus string

const (
	LoanStatusPending LoanStatus = "pending"
	LoanStatusActive  LoanStatus = "active"
	LoanStatusPaid    LoanStatus = "paid"
	LoanStatusClosed  LoanStatus = "closed"
	// LoanStatusDefaulted is a valid terminal state with no transition in
	// the current API surface; kept for forward compatibility.
	LoanStatusDefaulted LoanStatus = "defaulted"
)

// Loan represents a student's loan application and its lifecycle. Status is
// only ever mutated through the loan service's state transitions.
type Loan struct {
	Base
	UserID         uint            `gorm:"not null;index:idx_loans_user_status" json:"user_id"`
	SchemeID       uint            `gorm:"not null;index:idx_loans_scheme_status" json:"scheme_id"`
	LenderName     string          `gorm:"not null" json:"lender_name"`
	Principal      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"principal"`
	InterestRate   decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	InterestAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"interest_amount"`
	TotalPayable   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"total_payable"`
	TermMonths     int             `gorm:"not null" json:"term_months"`
	StartDate      *time.Time      `gorm:"type:date" json:"start_date,omitempty"`
	DueDate        *time.Time      `gorm:"type:date" json:"due_date,omitempty"`
	Status         LoanStatus      `gorm:"not null;default:pending;index:idx_loans_user_status;index:idx_loans_scheme_status" json:"status"`
	Notes          string          `json:"notes"`
	AppliedAt      time.Time       `json:"applied_at"`
	ApprovedAt     *time.Time      `json:"approved_at,omitempty"`
	DeclinedAt     *time.Time      `json:"declined_at,omitempty"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`

	User       User        `gorm:"foreignKey:UserID" json:"-"`
	Scheme     LoanScheme  `gorm:"foreignKey:SchemeID" json:"scheme,omitempty"`
	Repayments []Repayment `gorm:"foreignKey:LoanID" json:"repayments,omitempty"`
}

// SchemeName returns the scheme's display name with the copied lender name
// as a fallback when the scheme is not preloaded.
func (l *Loan) SchemeName() string {
	if l.Scheme.Name != "" {
		return l.Scheme.Name
	}
	return l.LenderName
}
