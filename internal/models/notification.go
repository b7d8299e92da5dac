package models

// NotificationType classifies the component a notification came from.
type NotificationType string

const (
	NotificationTypeLoan        NotificationType = "loan"
	NotificationTypeScholarship NotificationType = "scholarship"
	NotificationTypeFinance     NotificationType = "finance"
	NotificationTypeGeneral     NotificationType = "general"
)

// Notification is an in-app notification. Records are created by the loan,
// scholarship, and reminder components, never directly by users.
type Notification struct {
	Base
	UserID    uint             `gorm:"not null;index:idx_notifications_user_read" json:"user_id"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"not null" json:"message"`
	Type      NotificationType `gorm:"not null;default:general;index" json:"type"`
	IsRead    bool             `gorm:"default:false;index:idx_notifications_user_read" json:"is_read"`
	SendEmail bool             `gorm:"default:false" json:"send_email"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
