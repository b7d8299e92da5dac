package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/logger"
	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
)

// restrictedLoanStatuses are the statuses that block a student from applying
// to the same scheme again.
var restrictedLoanStatuses = []models.LoanStatus{
	models.LoanStatusPending,
	models.LoanStatusActive,
	models.LoanStatusPaid,
}

// loanService implements the loan lifecycle state machine. Transitions run
// inside a single transaction guarded by conditional updates on the source
// status, so a concurrent duplicate call observes the post-transition state
// and fails with INVALID_STATE instead of double-applying.
type loanService struct {
	db            *gorm.DB
	engine        RepaymentEngine
	notifications NotificationServicer
}

// NewLoanService creates a new LoanServicer.
func NewLoanService(db *gorm.DB, engine RepaymentEngine, notifications NotificationServicer) LoanServicer {
	return &loanService{db: db, engine: engine, notifications: notifications}
}

// Apply creates a pending loan for the student against an active scheme,
// copying the scheme's terms.
func (s *loanService) Apply(userID, schemeID uint, notes string) (*models.Loan, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	if !models.HasCapability(user, models.RoleStudent) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "Only students can apply for loans")
	}

	var scheme models.LoanScheme
	if err := s.db.First(&scheme, schemeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSchemeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !scheme.IsActive {
		return nil, apperrors.ErrSchemeInactive
	}

	var existing int64
	if err := s.db.Model(&models.Loan{}).
		Where("user_id = ? AND scheme_id = ? AND status IN ?", userID, schemeID, restrictedLoanStatuses).
		Count(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return nil, apperrors.ErrDuplicateLoan
	}

	loan := &models.Loan{
		UserID:       userID,
		SchemeID:     scheme.ID,
		LenderName:   scheme.LenderName,
		Principal:    scheme.Principal,
		InterestRate: scheme.InterestRate,
		TermMonths:   scheme.TermMonths,
		Status:       models.LoanStatusPending,
		Notes:        notes,
		AppliedAt:    time.Now(),
	}
	if err := s.db.Create(loan).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	loan.Scheme = scheme

	s.notify(userID, "Loan Application Submitted",
		fmt.Sprintf("Your application for %s has been received and is pending review.", scheme.Name),
		false)

	return loan, nil
}

// Activate transitions a pending loan to active: it sets the start date,
// regenerates the repayment schedule (destructively replacing any prior
// repayments), and stamps the approval time. Everything commits in one
// transaction or not at all.
func (s *loanService) Activate(adminID, loanID uint) (*models.Loan, error) {
	if err := s.requireAdmin(adminID); err != nil {
		return nil, err
	}

	loan, err := s.loadLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanStatusPending {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidLoanState, "Only pending loans can be activated")
	}

	start := today()
	loan.StartDate = &start
	schedule, err := s.engine.BuildSchedule(loan)
	if err != nil {
		return nil, err
	}
	approvedAt := time.Now()

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Loan{}).
			Where("id = ? AND status = ?", loan.ID, models.LoanStatusPending).
			Updates(map[string]interface{}{
				"status":          models.LoanStatusActive,
				"start_date":      start,
				"due_date":        *loan.DueDate,
				"interest_amount": loan.InterestAmount,
				"total_payable":   loan.TotalPayable,
				"approved_at":     approvedAt,
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidLoanState, "Only pending loans can be activated")
		}

		// Schedule regeneration is destructive: stale repayments go away
		// before the replacement rows are created.
		if err := tx.Unscoped().Where("loan_id = ?", loan.ID).Delete(&models.Repayment{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Create(&schedule).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	loan.Status = models.LoanStatusActive
	loan.ApprovedAt = &approvedAt
	loan.Repayments = schedule

	s.notify(loan.UserID, "Loan Approved",
		fmt.Sprintf("Your loan for %s has been approved. Repayment is due on %s.",
			loan.SchemeName(), loan.DueDate.Format("2006-01-02")),
		false)

	return loan, nil
}

// Decline closes a pending loan application with an optional note.
func (s *loanService) Decline(adminID, loanID uint, note string) (*models.Loan, error) {
	if err := s.requireAdmin(adminID); err != nil {
		return nil, err
	}

	loan, err := s.loadLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status != models.LoanStatusPending {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidLoanState, "Only pending loans can be declined")
	}

	declinedAt := time.Now()
	updates := map[string]interface{}{
		"status":      models.LoanStatusClosed,
		"declined_at": declinedAt,
	}
	if note != "" {
		updates["notes"] = note
	}

	res := s.db.Model(&models.Loan{}).
		Where("id = ? AND status = ?", loan.ID, models.LoanStatusPending).
		Updates(updates)
	if res.Error != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidLoanState, "Only pending loans can be declined")
	}

	loan.Status = models.LoanStatusClosed
	loan.DeclinedAt = &declinedAt
	if note != "" {
		loan.Notes = note
	}

	s.notify(loan.UserID, "Loan Application Update",
		fmt.Sprintf("Your loan application for %s was declined.", loan.SchemeName()),
		false)

	return loan, nil
}

// Payoff settles an active loan in full. The repayment update and the loan
// status change commit in one transaction; a repayment marked paid with the
// loan left active is never observable.
func (s *loanService) Payoff(userID, loanID uint) (*models.Loan, error) {
	loan, err := s.loadLoan(loanID)
	if err != nil {
		return nil, err
	}
	if loan.UserID != userID {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "You cannot pay off a loan that is not yours")
	}
	if loan.Status != models.LoanStatusActive {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidLoanState, "Only active loans can be paid off")
	}

	_, repayment, err := s.engine.NextDue(loan.ID)
	if err != nil {
		return nil, err
	}
	if repayment == nil {
		return nil, apperrors.ErrRepaymentNotFound
	}

	outstanding := repayment.AmountDue.Sub(repayment.PaidAmount).Round(2)
	if !outstanding.IsPositive() {
		return nil, apperrors.ErrAlreadySettled
	}

	paidAt := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.engine.ApplyPayment(tx, repayment, outstanding); err != nil {
			return err
		}

		res := tx.Model(&models.Loan{}).
			Where("id = ? AND status = ?", loan.ID, models.LoanStatusActive).
			Updates(map[string]interface{}{
				"status":  models.LoanStatusPaid,
				"paid_at": paidAt,
			})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidLoanState, "Only active loans can be paid off")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	loan.Status = models.LoanStatusPaid
	loan.PaidAt = &paidAt

	s.notify(loan.UserID, "Loan Settled",
		fmt.Sprintf("You have successfully repaid your loan from %s.", loan.LenderName),
		false)

	return loan, nil
}

// GetLoanByID returns a loan visible to the caller: owners see their own
// loans, administrators see all.
func (s *loanService) GetLoanByID(userID uint, role models.Role, loanID uint) (*models.Loan, error) {
	loan, err := s.loadLoan(loanID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && loan.UserID != userID {
		return nil, apperrors.ErrLoanNotFound
	}
	return loan, nil
}

// ListLoans lists the caller's loans (all loans for administrators), with an
// optional status filter.
func (s *loanService) ListLoans(
	userID uint,
	role models.Role,
	status *models.LoanStatus,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.Loan], error) {
	page.Defaults()

	base := s.db.Model(&models.Loan{})
	if role != models.RoleAdmin {
		base = base.Where("user_id = ?", userID)
	}
	if status != nil {
		base = base.Where("status = ?", *status)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var loans []models.Loan
	if err := base.Preload("Scheme").Preload("Repayments").
		Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(loans, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// ListRepayments returns a loan's repayments for the owner or an admin.
func (s *loanService) ListRepayments(userID uint, role models.Role, loanID uint) ([]models.Repayment, error) {
	loan, err := s.GetLoanByID(userID, role, loanID)
	if err != nil {
		return nil, err
	}

	var repayments []models.Repayment
	if err := s.db.Where("loan_id = ?", loan.ID).Order("due_date ASC").Find(&repayments).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return repayments, nil
}

// Summary returns dashboard rows for the user's active loans: next due
// amount and date, outstanding balance, and days until due.
func (s *loanService) Summary(userID uint) ([]LoanSummaryEntry, error) {
	var loans []models.Loan
	if err := s.db.Preload("Scheme").
		Where("user_id = ? AND status = ?", userID, models.LoanStatusActive).
		Order("due_date ASC, created_at ASC").
		Find(&loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	now := today()
	entries := make([]LoanSummaryEntry, 0, len(loans))
	for i := range loans {
		loan := &loans[i]

		amountDue, next, err := s.engine.NextDue(loan.ID)
		if err != nil {
			return nil, err
		}
		outstanding, err := s.engine.OutstandingBalance(loan.ID)
		if err != nil {
			return nil, err
		}

		dueDate := loan.DueDate
		if next != nil {
			dueDate = &next.DueDate
		}
		if next == nil {
			amountDue = loan.TotalPayable
		}

		entry := LoanSummaryEntry{
			LoanID:             loan.ID,
			LoanName:           loan.SchemeName(),
			Status:             loan.Status,
			DueDate:            dueDate,
			AmountDue:          amountDue.StringFixed(2),
			OutstandingBalance: outstanding.StringFixed(2),
		}
		if dueDate != nil {
			days := int(dueDate.Sub(now).Hours() / 24)
			entry.DaysUntilDue = &days
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// History returns the user's loans grouped by status. Every status appears
// in the result, empty or not.
func (s *loanService) History(userID uint) (LoanHistory, error) {
	var loans []models.Loan
	if err := s.db.Preload("Scheme").Preload("Repayments").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	grouped := LoanHistory{
		models.LoanStatusPending:   {},
		models.LoanStatusActive:    {},
		models.LoanStatusPaid:      {},
		models.LoanStatusClosed:    {},
		models.LoanStatusDefaulted: {},
	}
	for _, loan := range loans {
		grouped[loan.Status] = append(grouped[loan.Status], loan)
	}
	return grouped, nil
}

// AdminHistory returns all loans plus per-status totals.
func (s *loanService) AdminHistory() (*AdminLoanHistory, error) {
	var loans []models.Loan
	if err := s.db.Preload("Scheme").Preload("Repayments").
		Order("created_at DESC").
		Find(&loans).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := map[models.LoanStatus]int64{
		models.LoanStatusPending:   0,
		models.LoanStatusActive:    0,
		models.LoanStatusPaid:      0,
		models.LoanStatusClosed:    0,
		models.LoanStatusDefaulted: 0,
	}
	for _, loan := range loans {
		totals[loan.Status]++
	}
	return &AdminLoanHistory{Results: loans, Totals: totals}, nil
}

func (s *loanService) loadLoan(loanID uint) (*models.Loan, error) {
	var loan models.Loan
	if err := s.db.Preload("Scheme").First(&loan, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrLoanNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &loan, nil
}

func (s *loanService) getUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

func (s *loanService) requireAdmin(userID uint) error {
	user, err := s.getUser(userID)
	if err != nil {
		return err
	}
	if !models.HasCapability(user, models.RoleAdmin) {
		return apperrors.WithMessage(apperrors.ErrForbidden, "Only administrators can perform this action")
	}
	return nil
}

// notify sends a loan notification, logging any failure instead of
// propagating it.
func (s *loanService) notify(userID uint, title, message string, sendEmail bool) {
	if _, err := s.notifications.Create(userID, title, message, models.NotificationTypeLoan, sendEmail); err != nil {
		logger.Get().Warnw("loan notification failed",
			"user_id", userID, "title", title, "error", err.Error())
	}
}
