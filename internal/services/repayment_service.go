package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/models"
)

var oneHundred = decimal.NewFromInt(100)

// openRepaymentStatuses are the states in which a repayment still awaits
// settlement. Late repayments stay payable.
var openRepaymentStatuses = []models.RepaymentStatus{
	models.RepaymentStatusPending,
	models.RepaymentStatusLate,
}

// repaymentEngine implements the repayment schedule and payment arithmetic.
// All monetary rounding uses decimal half-up rounding to two places.
type repaymentEngine struct {
	db *gorm.DB
}

// NewRepaymentEngine creates a new RepaymentEngine.
func NewRepaymentEngine(db *gorm.DB) RepaymentEngine {
	return &repaymentEngine{db: db}
}

// BuildSchedule computes the loan's due date, interest amount, and total
// payable, and returns a single pending repayment covering the full balance.
// The caller persists the loan fields and repayments in one transaction.
func (e *repaymentEngine) BuildSchedule(loan *models.Loan) ([]models.Repayment, error) {
	if loan.StartDate == nil {
		return nil, apperrors.ErrMissingStartDate
	}

	maturity := addMonths(*loan.StartDate, loan.TermMonths)
	loan.DueDate = &maturity
	loan.InterestAmount = loan.Principal.Mul(loan.InterestRate).Div(oneHundred).Round(2)
	loan.TotalPayable = loan.Principal.Add(loan.InterestAmount).Round(2)

	repayment := models.Repayment{
		LoanID:     loan.ID,
		AmountDue:  loan.TotalPayable,
		PaidAmount: decimal.Zero,
		DueDate:    maturity,
		Status:     models.RepaymentStatusPending,
	}
	return []models.Repayment{repayment}, nil
}

// ApplyPayment adds amount to the repayment's paid total within tx. The
// update is guarded on the previously observed paid amount so a concurrent
// payment cannot double-apply; the loser fails with INVALID_STATE.
func (e *repaymentEngine) ApplyPayment(tx *gorm.DB, repayment *models.Repayment, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Payment amount must be positive")
	}

	newTotal := repayment.PaidAmount.Add(amount).Round(2)
	if newTotal.GreaterThan(repayment.AmountDue) {
		return apperrors.ErrExceedsBalance
	}

	updates := map[string]interface{}{"paid_amount": newTotal}
	settled := newTotal.Equal(repayment.AmountDue)
	var paidDate time.Time
	if settled {
		paidDate = today()
		updates["status"] = models.RepaymentStatusPaid
		updates["paid_date"] = paidDate
	}

	res := tx.Model(&models.Repayment{}).
		Where("id = ? AND paid_amount = ?", repayment.ID, repayment.PaidAmount).
		Updates(updates)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidLoanState, "Repayment was modified concurrently")
	}

	repayment.PaidAmount = newTotal
	if settled {
		repayment.Status = models.RepaymentStatusPaid
		repayment.PaidDate = &paidDate
	}
	return nil
}

// OutstandingBalance returns sum(amount_due) - sum(paid_amount) across the
// loan's repayments, rounded to two places. No repayments means zero.
func (e *repaymentEngine) OutstandingBalance(loanID uint) (decimal.Decimal, error) {
	var totals struct {
		Due  decimal.Decimal
		Paid decimal.Decimal
	}
	err := e.db.Model(&models.Repayment{}).
		Select("COALESCE(SUM(amount_due), 0) AS due, COALESCE(SUM(paid_amount), 0) AS paid").
		Where("loan_id = ?", loanID).
		Scan(&totals).Error
	if err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return totals.Due.Sub(totals.Paid).Round(2), nil
}

// NextDue returns the earliest-due pending repayment for the loan, or a zero
// amount and nil when none remain.
func (e *repaymentEngine) NextDue(loanID uint) (decimal.Decimal, *models.Repayment, error) {
	var repayment models.Repayment
	err := e.db.Where("loan_id = ? AND status IN ?", loanID, openRepaymentStatuses).
		Order("due_date ASC").
		First(&repayment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil, nil
		}
		return decimal.Zero, nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return repayment.AmountDue, &repayment, nil
}

// FlagOverdue marks pending repayments whose due date has passed as late.
func (e *repaymentEngine) FlagOverdue(today time.Time) (int64, error) {
	res := e.db.Model(&models.Repayment{}).
		Where("status = ? AND due_date < ?", models.RepaymentStatusPending, today).
		Update("status", models.RepaymentStatusLate)
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}
