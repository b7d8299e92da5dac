package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is an expense category managed by administrators. Deletion is
// blocked while expenses reference it.
type Category struct {
	Base
	Name string `gorm:"uniqueIndex;not null;size:120" json:"name"`

	Expenses []Expense `gorm:"foreignKey:CategoryID" json:"expenses,omitempty"`
}

// Income is an income entry recorded by a user.
type Income struct {
	Base
	UserID       uint            `gorm:"not null;index:idx_incomes_user_date" json:"user_id"`
	Source       string          `gorm:"not null" json:"source"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	DateReceived time.Time       `gorm:"type:date;not null;index:idx_incomes_user_date" json:"date_received"`
	Notes        string          `json:"notes"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

// Expense is an expense entry tracked by a user.
type Expense struct {
	Base
	UserID     uint            `gorm:"not null;index:idx_expenses_user_date" json:"user_id"`
	Merchant   string          `gorm:"not null" json:"merchant"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	DateSpent  time.Time       `gorm:"type:date;not null;index:idx_expenses_user_date" json:"date_spent"`
	Notes      string          `json:"notes"`
	CategoryID *uint           `json:"category_id,omitempty"`

	User     User      `gorm:"foreignKey:UserID" json:"-"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Budget is a spending allocation for a period. A user holds at most one
// budget per (period_start, period_end) pair.
type Budget struct {
	Base
	UserID          uint            `gorm:"not null;uniqueIndex:idx_budgets_user_period" json:"user_id"`
	PeriodStart     time.Time       `gorm:"type:date;not null;uniqueIndex:idx_budgets_user_period" json:"period_start"`
	PeriodEnd       time.Time       `gorm:"type:date;not null;uniqueIndex:idx_budgets_user_period" json:"period_end"`
	AllocatedAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"allocated_amount"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}
