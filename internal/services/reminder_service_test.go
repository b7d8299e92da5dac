package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/testutil"
)

func createRepayment(t *testing.T, db *gorm.DB, loanID uint, amount string, due time.Time, status models.RepaymentStatus) *models.Repayment {
	t.Helper()
	repayment := &models.Repayment{
		LoanID:    loanID,
		AmountDue: decimal.RequireFromString(amount),
		DueDate:   due,
		Status:    status,
	}
	if err := db.Create(repayment).Error; err != nil {
		t.Fatalf("failed to create repayment: %v", err)
	}
	return repayment
}

func TestSendRepaymentReminders(t *testing.T) {
	newService := func(db *gorm.DB) ReminderServicer {
		return NewReminderService(db, NewRepaymentEngine(db), NewNotificationService(db, &recordingSender{}))
	}

	t.Run("reminds_upcoming_and_overdue", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newService(db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		loan := testutil.CreateTestLoan(t, db, student.ID, scheme, models.LoanStatusActive)

		upcoming := createRepayment(t, db, loan.ID, "630", time.Now().Add(24*time.Hour), models.RepaymentStatusPending)
		overdue := createRepayment(t, db, loan.ID, "200", time.Now().Add(-24*time.Hour), models.RepaymentStatusPending)
		createRepayment(t, db, loan.ID, "100", time.Now().Add(30*24*time.Hour), models.RepaymentStatusPending)

		sent, err := svc.SendRepaymentReminders()
		testutil.AssertNoError(t, err)
		if sent != 2 {
			t.Errorf("expected 2 reminders, got %d", sent)
		}

		var lateRow models.Repayment
		testutil.AssertNoError(t, db.First(&lateRow, overdue.ID).Error)
		if lateRow.Status != models.RepaymentStatusLate {
			t.Errorf("expected overdue repayment flagged late, got %s", lateRow.Status)
		}
		var pendingRow models.Repayment
		testutil.AssertNoError(t, db.First(&pendingRow, upcoming.ID).Error)
		if pendingRow.Status != models.RepaymentStatusPending {
			t.Errorf("expected upcoming repayment untouched, got %s", pendingRow.Status)
		}

		var notifications int64
		testutil.AssertNoError(t, db.Model(&models.Notification{}).
			Where("user_id = ? AND send_email = ?", student.ID, true).
			Count(&notifications).Error)
		if notifications != 2 {
			t.Errorf("expected 2 email-flagged notifications, got %d", notifications)
		}
	})

	t.Run("settled_and_far_future_repayments_are_skipped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newService(db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		loan := testutil.CreateTestLoan(t, db, student.ID, scheme, models.LoanStatusActive)

		paid := createRepayment(t, db, loan.ID, "630", time.Now().Add(24*time.Hour), models.RepaymentStatusPaid)
		testutil.AssertNoError(t, db.Model(paid).Update("paid_amount", paid.AmountDue).Error)
		createRepayment(t, db, loan.ID, "100", time.Now().Add(90*24*time.Hour), models.RepaymentStatusPending)

		sent, err := svc.SendRepaymentReminders()
		testutil.AssertNoError(t, err)
		if sent != 0 {
			t.Errorf("expected no reminders, got %d", sent)
		}
	})

	t.Run("late_repayment_is_reminded_again_on_rescan", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newService(db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		loan := testutil.CreateTestLoan(t, db, student.ID, scheme, models.LoanStatusActive)
		createRepayment(t, db, loan.ID, "630", time.Now().Add(-72*time.Hour), models.RepaymentStatusLate)

		for i := 0; i < 2; i++ {
			sent, err := svc.SendRepaymentReminders()
			testutil.AssertNoError(t, err)
			if sent != 1 {
				t.Errorf("expected 1 reminder on scan %d, got %d", i+1, sent)
			}
		}
	})
}
