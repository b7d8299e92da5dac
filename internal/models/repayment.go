package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RepaymentStatus represents a repayment's state.
type RepaymentStatus string

const (
	RepaymentStatusPending RepaymentStatus = "pending"
	RepaymentStatusPaid    RepaymentStatus = "paid"
	RepaymentStatusLate    RepaymentStatus = "late"
)

// Repayment is a scheduled amount owed against a loan, with partial payment
// tracking. Invariant: PaidAmount never exceeds AmountDue, and PaidDate is
// set only once the repayment is fully paid.
type Repayment struct {
	Base
	LoanID     uint            `gorm:"not null;index:idx_repayments_loan_due" json:"loan_id"`
	AmountDue  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount_due"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"paid_amount"`
	DueDate    time.Time       `gorm:"type:date;not null;index:idx_repayments_loan_due" json:"due_date"`
	PaidDate   *time.Time      `gorm:"type:date" json:"paid_date,omitempty"`
	Status     RepaymentStatus `gorm:"not null;default:pending;index" json:"status"`

	Loan Loan `gorm:"foreignKey:LoanID" json:"-"`
}
