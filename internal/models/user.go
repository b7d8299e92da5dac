package models

import "time"

// Role represents the capability a user carries in the system.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	RoleSponsor Role = "sponsor"
)

// User represents the user model in the database
type User struct {
	Base
	Email       string     `gorm:"uniqueIndex;not null" json:"email"`
	Password    string     `gorm:"not null" json:"-"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	StudentID   *string    `gorm:"uniqueIndex" json:"student_id,omitempty"`
	PhoneNumber string     `json:"phone_number"`
	Department  string     `json:"department"`
	Role        Role       `gorm:"not null;default:student;index" json:"role"`
	DOB         *time.Time `json:"dob,omitempty"`
	IsActive    bool       `gorm:"default:true" json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	Loans         []Loan         `gorm:"foreignKey:UserID" json:"loans,omitempty"`
	Incomes       []Income       `gorm:"foreignKey:UserID" json:"incomes,omitempty"`
	Expenses      []Expense      `gorm:"foreignKey:UserID" json:"expenses,omitempty"`
	Budgets       []Budget       `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
	Notifications []Notification `gorm:"foreignKey:UserID" json:"notifications,omitempty"`
}

// FullName returns the user's display name, falling back to the email.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// HasCapability reports whether the user carries the given role. Every
// guarded operation calls this explicitly rather than relying on
// middleware alone.
func HasCapability(user *User, required Role) bool {
	if user == nil {
		return false
	}
	return user.Role == required
}
