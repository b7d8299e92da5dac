package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/logger"
	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
)

// notificationService persists in-app notifications and optionally sends
// email copies through an EmailSender.
type notificationService struct {
	db     *gorm.DB
	sender EmailSender
}

// NewNotificationService creates a new NotificationServicer. The sender may
// be nil, in which case email-flagged notifications are stored without
// dispatching mail.
func NewNotificationService(db *gorm.DB, sender EmailSender) NotificationServicer {
	return &notificationService{db: db, sender: sender}
}

// Create stores a notification and, when requested, dispatches an email copy.
// Email failures are logged and never returned: a failed dispatch must not
// roll back the state transition that triggered it.
func (s *notificationService) Create(
	userID uint,
	title, message string,
	notificationType models.NotificationType,
	sendEmail bool,
) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      notificationType,
		SendEmail: sendEmail,
	}

	if err := s.db.Create(notification).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if sendEmail && s.sender != nil {
		var user models.User
		if err := s.db.Select("email").First(&user, userID).Error; err != nil {
			logger.Get().Warnw("notification email skipped: user lookup failed",
				"user_id", userID, "error", err.Error())
			return notification, nil
		}
		go func(to, subject, body string) {
			if err := s.sender.Send(to, subject, body); err != nil {
				logger.Get().Warnw("notification email dispatch failed",
					"user_id", userID, "title", subject, "error", err.Error())
			}
		}(user.Email, title, message)
	}

	return notification, nil
}

// GetUserNotifications lists the user's notifications, newest first.
func (s *notificationService) GetUserNotifications(
	userID uint,
	page pagination.PageRequest,
	unreadOnly bool,
) (*pagination.PageResponse[models.Notification], error) {
	page.Defaults()

	base := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		base = base.Where("is_read = ?", false)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var notifications []models.Notification
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&notifications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(notifications, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// MarkRead marks the given notification IDs (or all of the user's
// notifications) as read and returns the number updated.
func (s *notificationService) MarkRead(userID uint, ids []uint, markAll bool) (int64, error) {
	query := s.db.Model(&models.Notification{}).Where("user_id = ?", userID)
	if !markAll {
		if len(ids) == 0 {
			return 0, nil
		}
		query = query.Where("id IN ?", ids)
	}

	res := query.Update("is_read", true)
	if res.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	return res.RowsAffected, nil
}

// MarkOneRead marks a single notification as read.
func (s *notificationService) MarkOneRead(userID, notificationID uint) error {
	var notification models.Notification
	if err := s.db.Where("id = ? AND user_id = ?", notificationID, userID).First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotificationNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if notification.IsRead {
		return nil
	}
	if err := s.db.Model(&notification).Update("is_read", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
