package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scholarship is an opportunity students can apply for before its deadline.
type Scholarship struct {
	Base
	Name                string          `gorm:"uniqueIndex;not null" json:"name"`
	Description         string          `json:"description"`
	Amount              decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Provider            string          `json:"provider"`
	EligibilityCriteria string          `json:"eligibility_criteria"`
	Deadline            time.Time       `gorm:"type:date;not null;index" json:"deadline"`
	IsActive            bool            `gorm:"default:true;index" json:"is_active"`

	Applications  []ScholarshipApplication  `gorm:"foreignKey:ScholarshipID" json:"applications,omitempty"`
	Disbursements []ScholarshipDisbursement `gorm:"foreignKey:ScholarshipID" json:"disbursements,omitempty"`
}

// ApplicationStatus represents a scholarship application's review state.
type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusApproved ApplicationStatus = "approved"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

// ScholarshipApplication tracks one student's application for a scholarship.
// The (scholarship, applicant) pair is unique at the storage level; the
// service-level pre-check alone is not enough under concurrency.
type ScholarshipApplication struct {
	Base
	ScholarshipID uint              `gorm:"not null;uniqueIndex:idx_applications_scholarship_applicant" json:"scholarship_id"`
	ApplicantID   uint              `gorm:"not null;uniqueIndex:idx_applications_scholarship_applicant" json:"applicant_id"`
	Note          string            `gorm:"not null" json:"note"`
	Status        ApplicationStatus `gorm:"not null;default:pending;index" json:"status"`
	SubmittedAt   time.Time         `json:"submitted_at"`
	ReviewedAt    *time.Time        `json:"reviewed_at,omitempty"`

	Scholarship Scholarship `gorm:"foreignKey:ScholarshipID" json:"scholarship,omitempty"`
	Applicant   User        `gorm:"foreignKey:ApplicantID" json:"-"`
}

// DisbursementStatus represents a disbursement's state.
type DisbursementStatus string

const (
	DisbursementStatusPending   DisbursementStatus = "pending"
	DisbursementStatusCompleted DisbursementStatus = "completed"
	DisbursementStatusFailed    DisbursementStatus = "failed"
)

// ScholarshipDisbursement records scholarship funds released to an approved
// applicant. At most one exists per (scholarship, user) pair.
type ScholarshipDisbursement struct {
	Base
	ScholarshipID    uint               `gorm:"not null;uniqueIndex:idx_disbursements_scholarship_user" json:"scholarship_id"`
	UserID           uint               `gorm:"not null;uniqueIndex:idx_disbursements_scholarship_user" json:"user_id"`
	Amount           decimal.Decimal    `gorm:"type:decimal(12,2);not null" json:"amount"`
	DisbursementDate time.Time          `gorm:"type:date;not null" json:"disbursement_date"`
	Reference        string             `gorm:"uniqueIndex;not null;size:50" json:"reference"`
	Status           DisbursementStatus `gorm:"not null;default:pending;index" json:"status"`

	Scholarship Scholarship `gorm:"foreignKey:ScholarshipID" json:"-"`
	User        User        `gorm:"foreignKey:UserID" json:"-"`
}
