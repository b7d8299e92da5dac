package services

import (
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
	"github.com/omovigho/student-finance-tracker/internal/testutil"
)

// recordingSender captures outgoing emails instead of dialing SMTP.
type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) Send(to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, to)
	return nil
}

func seedNotifications(t *testing.T, db *gorm.DB, svc NotificationServicer, userID uint, n int) []uint {
	t.Helper()
	ids := make([]uint, 0, n)
	for i := 0; i < n; i++ {
		notification, err := svc.Create(userID, "Title", "Message", models.NotificationTypeGeneral, false)
		testutil.AssertNoError(t, err)
		ids = append(ids, notification.ID)
	}
	return ids
}

func TestNotificationCreate(t *testing.T) {
	t.Run("persists_unread", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db, nil)
		user := testutil.CreateTestUser(t, db)

		notification, err := svc.Create(user.ID, "Loan Update", "Your loan is active.",
			models.NotificationTypeLoan, false)
		testutil.AssertNoError(t, err)

		if notification.IsRead {
			t.Error("expected new notification unread")
		}
		if notification.Type != models.NotificationTypeLoan {
			t.Errorf("expected loan type, got %s", notification.Type)
		}
	})

	t.Run("nil_sender_still_persists_email_flagged_rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db, nil)
		user := testutil.CreateTestUser(t, db)

		notification, err := svc.Create(user.ID, "Approved", "Congratulations.",
			models.NotificationTypeScholarship, true)
		testutil.AssertNoError(t, err)
		if !notification.SendEmail {
			t.Error("expected email flag persisted")
		}
	})
}

func TestNotificationQueriesAndMarking(t *testing.T) {
	t.Run("unread_filter", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db, nil)
		user := testutil.CreateTestUser(t, db)
		ids := seedNotifications(t, db, svc, user.ID, 3)

		testutil.AssertNoError(t, svc.MarkOneRead(user.ID, ids[0]))

		all, err := svc.GetUserNotifications(user.ID, pagination.PageRequest{}, false)
		testutil.AssertNoError(t, err)
		if len(all.Data) != 3 {
			t.Errorf("expected 3 notifications, got %d", len(all.Data))
		}

		unread, err := svc.GetUserNotifications(user.ID, pagination.PageRequest{}, true)
		testutil.AssertNoError(t, err)
		if len(unread.Data) != 2 {
			t.Errorf("expected 2 unread notifications, got %d", len(unread.Data))
		}
	})

	t.Run("mark_read_by_ids", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db, nil)
		user := testutil.CreateTestUser(t, db)
		ids := seedNotifications(t, db, svc, user.ID, 3)

		updated, err := svc.MarkRead(user.ID, ids[:2], false)
		testutil.AssertNoError(t, err)
		if updated != 2 {
			t.Errorf("expected 2 updates, got %d", updated)
		}
	})

	t.Run("mark_all", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db, nil)
		user := testutil.CreateTestUser(t, db)
		seedNotifications(t, db, svc, user.ID, 3)

		updated, err := svc.MarkRead(user.ID, nil, true)
		testutil.AssertNoError(t, err)
		if updated != 3 {
			t.Errorf("expected 3 updates, got %d", updated)
		}
	})

	t.Run("mark_read_ignores_other_users_rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db, nil)
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		ids := seedNotifications(t, db, svc, owner.ID, 2)

		updated, err := svc.MarkRead(other.ID, ids, false)
		testutil.AssertNoError(t, err)
		if updated != 0 {
			t.Errorf("expected no cross-user updates, got %d", updated)
		}

		err = svc.MarkOneRead(other.ID, ids[0])
		testutil.AssertAppError(t, err, "NOTIFICATION_NOT_FOUND")
	})

	t.Run("empty_ids_without_mark_all_is_a_no_op", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewNotificationService(db, nil)
		user := testutil.CreateTestUser(t, db)
		seedNotifications(t, db, svc, user.ID, 2)

		updated, err := svc.MarkRead(user.ID, nil, false)
		testutil.AssertNoError(t, err)
		if updated != 0 {
			t.Errorf("expected no updates, got %d", updated)
		}
	})
}
