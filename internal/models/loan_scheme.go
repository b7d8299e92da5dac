package models

import "github.com/shopspring/decimal"

// LoanScheme is a reusable loan template published by administrators.
// Students apply against a scheme; the loan copies the scheme's terms.
type LoanScheme struct {
	Base
	Name         string          `gorm:"not null" json:"name"`
	Description  string          `json:"description"`
	LenderName   string          `gorm:"not null" json:"lender_name"`
	Principal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"principal"`
	InterestRate decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"interest_rate"`
	TermMonths   int             `gorm:"not null" json:"term_months"`
	IsActive     bool            `gorm:"default:true;index" json:"is_active"`
	CreatedByID  *uint           `json:"created_by,omitempty"`

	Loans []Loan `gorm:"foreignKey:SchemeID" json:"loans,omitempty"`
}
