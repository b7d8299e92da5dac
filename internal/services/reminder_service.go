package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/logger"
	"github.com/omovigho/student-finance-tracker/internal/models"
)

// reminderWindow is how far ahead the scan looks for upcoming due dates.
const reminderWindow = 48 * time.Hour

// reminderService scans open repayments and emits reminder notifications.
// It is driven by the cron scheduler in the API entrypoint.
type reminderService struct {
	db            *gorm.DB
	engine        RepaymentEngine
	notifications NotificationServicer
}

// NewReminderService creates a new ReminderServicer.
func NewReminderService(db *gorm.DB, engine RepaymentEngine, notifications NotificationServicer) ReminderServicer {
	return &reminderService{db: db, engine: engine, notifications: notifications}
}

// SendRepaymentReminders flags overdue repayments, then notifies the owner
// of every open repayment due within the next 48 hours. Returns how many
// reminders were sent. A rescan may resend reminders for the same
// repayment; the notification itself is the idempotency boundary callers
// should not rely on.
func (s *reminderService) SendRepaymentReminders() (int, error) {
	log := logger.Get()
	now := time.Now()

	flagged, err := s.engine.FlagOverdue(now)
	if err != nil {
		return 0, err
	}
	if flagged > 0 {
		log.Infow("flagged overdue repayments", "count", flagged)
	}

	var repayments []models.Repayment
	if err := s.db.Preload("Loan").Preload("Loan.Scheme").
		Where("status IN ?", openRepaymentStatuses).
		Where("due_date <= ?", now.Add(reminderWindow)).
		Find(&repayments).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	sent := 0
	for _, repayment := range repayments {
		outstanding := repayment.AmountDue.Sub(repayment.PaidAmount)
		if !outstanding.IsPositive() {
			continue
		}

		title := "Loan repayment due soon"
		message := fmt.Sprintf(
			"Your repayment of %s for %s is due on %s.",
			outstanding.StringFixed(2),
			repayment.Loan.SchemeName(),
			repayment.DueDate.Format("02 Jan 2006"),
		)
		if repayment.DueDate.Before(now) {
			title = "Loan repayment overdue"
			message = fmt.Sprintf(
				"Your repayment of %s for %s was due on %s and is now overdue.",
				outstanding.StringFixed(2),
				repayment.Loan.SchemeName(),
				repayment.DueDate.Format("02 Jan 2006"),
			)
		}

		if _, err := s.notifications.Create(repayment.Loan.UserID, title, message, models.NotificationTypeLoan, true); err != nil {
			log.Errorw("failed to create repayment reminder", "repayment_id", repayment.ID, "error", err)
			continue
		}
		sent++
	}

	log.Infow("repayment reminder scan complete", "reminders_sent", sent)
	return sent, nil
}
