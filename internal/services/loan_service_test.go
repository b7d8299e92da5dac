package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/testutil"
)

func newLoanService(db *gorm.DB) LoanServicer {
	notifications := NewNotificationService(db, nil)
	return NewLoanService(db, NewRepaymentEngine(db), notifications)
}

func TestLoanApply(t *testing.T) {
	t.Run("student_creates_pending_loan", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)

		loan, err := svc.Apply(student.ID, scheme.ID, "tuition support")
		testutil.AssertNoError(t, err)

		if loan.Status != models.LoanStatusPending {
			t.Errorf("expected pending status, got %s", loan.Status)
		}
		if !loan.Principal.Equal(scheme.Principal) {
			t.Errorf("expected principal copied from scheme, got %s", loan.Principal)
		}
		if loan.LenderName != scheme.LenderName {
			t.Errorf("expected lender name copied, got %q", loan.LenderName)
		}
		if loan.StartDate != nil {
			t.Error("a pending loan must not have a start date")
		}

		var count int64
		testutil.AssertNoError(t, db.Model(&models.Notification{}).
			Where("user_id = ?", student.ID).Count(&count).Error)
		if count != 1 {
			t.Errorf("expected one notification, got %d", count)
		}
	})

	t.Run("admin_cannot_apply", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		admin := testutil.CreateTestAdmin(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)

		_, err := svc.Apply(admin.ID, scheme.ID, "")
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("inactive_scheme", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		testutil.AssertNoError(t, db.Model(scheme).Update("is_active", false).Error)

		_, err := svc.Apply(student.ID, scheme.ID, "")
		testutil.AssertAppError(t, err, "SCHEME_INACTIVE")
	})

	t.Run("duplicate_scheme_application", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)

		_, err := svc.Apply(student.ID, scheme.ID, "")
		testutil.AssertNoError(t, err)

		_, err = svc.Apply(student.ID, scheme.ID, "")
		testutil.AssertAppError(t, err, "DUPLICATE_LOAN")
	})

	t.Run("closed_loan_allows_reapplication", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		testutil.CreateTestLoan(t, db, student.ID, scheme, models.LoanStatusClosed)

		_, err := svc.Apply(student.ID, scheme.ID, "")
		testutil.AssertNoError(t, err)
	})

	t.Run("unknown_scheme", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		student := testutil.CreateTestUser(t, db)

		_, err := svc.Apply(student.ID, 99999, "")
		testutil.AssertAppError(t, err, "SCHEME_NOT_FOUND")
	})
}

func TestLoanActivate(t *testing.T) {
	t.Run("pending_becomes_active_with_schedule", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		admin := testutil.CreateTestAdmin(t, db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		loan := testutil.CreateTestLoan(t, db, student.ID, scheme, models.LoanStatusPending)

		activated, err := svc.Activate(admin.ID, loan.ID)
		testutil.AssertNoError(t, err)

		if activated.Status != models.LoanStatusActive {
			t.Errorf("expected active status, got %s", activated.Status)
		}
		if activated.StartDate == nil || activated.DueDate == nil {
			t.Fatal("expected start and due dates to be set")
		}
		testutil.AssertAmount(t, activated.TotalPayable, "630.00")
		if activated.ApprovedAt == nil {
			t.Error("expected approval timestamp")
		}

		var repayments []models.Repayment
		testutil.AssertNoError(t, db.Where("loan_id = ?", loan.ID).Find(&repayments).Error)
		if len(repayments) != 1 {
			t.Fatalf("expected one scheduled repayment, got %d", len(repayments))
		}
		testutil.AssertAmount(t, repayments[0].AmountDue, "630.00")
	})

	t.Run("non_admin_forbidden", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		loan := testutil.CreateTestLoan(t, db, student.ID, scheme, models.LoanStatusPending)

		_, err := svc.Activate(student.ID, loan.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("active_loan_cannot_be_activated_again", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		admin := testutil.CreateTestAdmin(t, db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		loan := testutil.CreateTestLoan(t, db, student.ID, scheme, models.LoanStatusPending)

		_, err := svc.Activate(admin.ID, loan.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.Activate(admin.ID, loan.ID)
		testutil.AssertAppError(t, err, "INVALID_STATE")
	})
}

func TestLoanDecline(t *testing.T) {
	t.Run("pending_becomes_closed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		admin := testutil.CreateTestAdmin(t, db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		loan := testutil.CreateTestLoan(t, db, student.ID, scheme, models.LoanStatusPending)

		declined, err := svc.Decline(admin.ID, loan.ID, "insufficient documentation")
		testutil.AssertNoError(t, err)

		if declined.Status != models.LoanStatusClosed {
			t.Errorf("expected closed status, got %s", declined.Status)
		}
		if declined.DeclinedAt == nil {
			t.Error("expected decline timestamp")
		}
		if declined.Notes != "insufficient documentation" {
			t.Errorf("expected decline note recorded, got %q", declined.Notes)
		}
	})

	t.Run("active_loan_cannot_be_declined", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		admin := testutil.CreateTestAdmin(t, db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		loan := testutil.CreateTestLoan(t, db, student.ID, scheme, models.LoanStatusActive)

		_, err := svc.Decline(admin.ID, loan.ID, "")
		testutil.AssertAppError(t, err, "INVALID_STATE")
	})
}

func TestLoanPayoff(t *testing.T) {
	t.Run("full_lifecycle", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		engine := NewRepaymentEngine(db)
		admin := testutil.CreateTestAdmin(t, db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)

		loan, err := svc.Apply(student.ID, scheme.ID, "")
		testutil.AssertNoError(t, err)
		_, err = svc.Activate(admin.ID, loan.ID)
		testutil.AssertNoError(t, err)

		paid, err := svc.Payoff(student.ID, loan.ID)
		testutil.AssertNoError(t, err)

		if paid.Status != models.LoanStatusPaid {
			t.Errorf("expected paid status, got %s", paid.Status)
		}
		if paid.PaidAt == nil {
			t.Error("expected paid timestamp")
		}

		outstanding, err := engine.OutstandingBalance(loan.ID)
		testutil.AssertNoError(t, err)
		if !outstanding.IsZero() {
			t.Errorf("expected zero outstanding balance, got %s", outstanding)
		}

		var repayment models.Repayment
		testutil.AssertNoError(t, db.Where("loan_id = ?", loan.ID).First(&repayment).Error)
		if repayment.Status != models.RepaymentStatusPaid {
			t.Errorf("expected repayment paid, got %s", repayment.Status)
		}
		testutil.AssertAmount(t, repayment.PaidAmount, "630.00")
	})

	t.Run("only_owner_can_pay", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		admin := testutil.CreateTestAdmin(t, db)
		student := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)

		loan, err := svc.Apply(student.ID, scheme.ID, "")
		testutil.AssertNoError(t, err)
		_, err = svc.Activate(admin.ID, loan.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.Payoff(other.ID, loan.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("pending_loan_cannot_be_paid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		loan := testutil.CreateTestLoan(t, db, student.ID, scheme, models.LoanStatusPending)

		_, err := svc.Payoff(student.ID, loan.ID)
		testutil.AssertAppError(t, err, "INVALID_STATE")
	})

	t.Run("second_payoff_fails", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		admin := testutil.CreateTestAdmin(t, db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)

		loan, err := svc.Apply(student.ID, scheme.ID, "")
		testutil.AssertNoError(t, err)
		_, err = svc.Activate(admin.ID, loan.ID)
		testutil.AssertNoError(t, err)
		_, err = svc.Payoff(student.ID, loan.ID)
		testutil.AssertNoError(t, err)

		_, err = svc.Payoff(student.ID, loan.ID)
		testutil.AssertAppError(t, err, "INVALID_STATE")
	})
}

func TestLoanQueries(t *testing.T) {
	t.Run("owner_visibility", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		student := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		loan := testutil.CreateTestLoan(t, db, student.ID, scheme, models.LoanStatusPending)

		_, err := svc.GetLoanByID(other.ID, models.RoleStudent, loan.ID)
		testutil.AssertAppError(t, err, "LOAN_NOT_FOUND")

		got, err := svc.GetLoanByID(other.ID, models.RoleAdmin, loan.ID)
		testutil.AssertNoError(t, err)
		if got.ID != loan.ID {
			t.Errorf("expected loan %d, got %d", loan.ID, got.ID)
		}
	})

	t.Run("history_groups_every_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		student := testutil.CreateTestUser(t, db)
		schemeA := testutil.CreateTestScheme(t, db, "600", "5", 6)
		schemeB := testutil.CreateTestScheme(t, db, "900", "4", 12)
		testutil.CreateTestLoan(t, db, student.ID, schemeA, models.LoanStatusActive)
		testutil.CreateTestLoan(t, db, student.ID, schemeB, models.LoanStatusClosed)

		history, err := svc.History(student.ID)
		testutil.AssertNoError(t, err)

		for _, status := range []models.LoanStatus{
			models.LoanStatusPending, models.LoanStatusActive, models.LoanStatusPaid,
			models.LoanStatusClosed, models.LoanStatusDefaulted,
		} {
			if _, ok := history[status]; !ok {
				t.Errorf("expected status %s present in history", status)
			}
		}
		if len(history[models.LoanStatusActive]) != 1 {
			t.Errorf("expected one active loan, got %d", len(history[models.LoanStatusActive]))
		}
		if len(history[models.LoanStatusDefaulted]) != 0 {
			t.Errorf("expected no defaulted loans, got %d", len(history[models.LoanStatusDefaulted]))
		}
	})

	t.Run("summary_reports_active_loans", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		admin := testutil.CreateTestAdmin(t, db)
		student := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)

		loan, err := svc.Apply(student.ID, scheme.ID, "")
		testutil.AssertNoError(t, err)
		_, err = svc.Activate(admin.ID, loan.ID)
		testutil.AssertNoError(t, err)

		entries, err := svc.Summary(student.ID)
		testutil.AssertNoError(t, err)
		if len(entries) != 1 {
			t.Fatalf("expected one summary entry, got %d", len(entries))
		}
		entry := entries[0]
		if entry.AmountDue != "630.00" {
			t.Errorf("expected amount due 630.00, got %s", entry.AmountDue)
		}
		if entry.OutstandingBalance != "630.00" {
			t.Errorf("expected outstanding 630.00, got %s", entry.OutstandingBalance)
		}
		if entry.DaysUntilDue == nil {
			t.Fatal("expected days until due")
		}
		if *entry.DaysUntilDue < 180 || *entry.DaysUntilDue > 185 {
			t.Errorf("expected roughly six months until due, got %d days", *entry.DaysUntilDue)
		}
	})

	t.Run("admin_history_totals", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newLoanService(db)
		studentA := testutil.CreateTestUser(t, db)
		studentB := testutil.CreateTestUser(t, db)
		scheme := testutil.CreateTestScheme(t, db, "600", "5", 6)
		testutil.CreateTestLoan(t, db, studentA.ID, scheme, models.LoanStatusActive)
		testutil.CreateTestLoan(t, db, studentB.ID, scheme, models.LoanStatusPending)

		history, err := svc.AdminHistory()
		testutil.AssertNoError(t, err)
		if len(history.Results) != 2 {
			t.Errorf("expected 2 loans, got %d", len(history.Results))
		}
		if history.Totals[models.LoanStatusActive] != 1 {
			t.Errorf("expected 1 active, got %d", history.Totals[models.LoanStatusActive])
		}
		if history.Totals[models.LoanStatusPending] != 1 {
			t.Errorf("expected 1 pending, got %d", history.Totals[models.LoanStatusPending])
		}
	})
}
