package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/logger"
	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
)

// minNoteLength is the minimum trimmed length of an application note.
const minNoteLength = 30

// scholarshipService governs the scholarship catalog, the application
// review workflow, and disbursement creation.
type scholarshipService struct {
	db            *gorm.DB
	notifications NotificationServicer
}

// NewScholarshipService creates a new ScholarshipServicer.
func NewScholarshipService(db *gorm.DB, notifications NotificationServicer) ScholarshipServicer {
	return &scholarshipService{db: db, notifications: notifications}
}

// CreateScholarship publishes a new scholarship. The deadline must not be in
// the past.
func (s *scholarshipService) CreateScholarship(
	name, description, provider, eligibility string,
	amount decimal.Decimal,
	deadline time.Time,
) (*models.Scholarship, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be greater than zero")
	}
	if deadline.Before(today()) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Deadline must be today or in the future")
	}

	scholarship := &models.Scholarship{
		Name:                name,
		Description:         description,
		Amount:              amount.Round(2),
		Provider:            provider,
		EligibilityCriteria: eligibility,
		Deadline:            deadline,
		IsActive:            true,
	}
	if err := s.db.Create(scholarship).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "A scholarship with this name already exists")
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return scholarship, nil
}

// GetScholarshipByID returns a scholarship by ID.
func (s *scholarshipService) GetScholarshipByID(scholarshipID uint) (*models.Scholarship, error) {
	var scholarship models.Scholarship
	if err := s.db.First(&scholarship, scholarshipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrScholarshipNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &scholarship, nil
}

// ListScholarships lists scholarships ordered by deadline. Non-admin callers
// only see active scholarships whose deadline has not passed.
func (s *scholarshipService) ListScholarships(
	userID uint,
	role models.Role,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.Scholarship], error) {
	page.Defaults()

	base := s.db.Model(&models.Scholarship{})
	if role != models.RoleAdmin {
		base = base.Where("is_active = ? AND deadline >= ?", true, today())
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var scholarships []models.Scholarship
	if err := base.Scopes(pagination.Paginate(page)).
		Order("deadline ASC, name ASC").
		Find(&scholarships).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(scholarships, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateScholarship updates scholarship fields.
func (s *scholarshipService) UpdateScholarship(
	scholarshipID uint,
	name, description, provider, eligibility string,
	amount *decimal.Decimal,
	deadline *time.Time,
	isActive *bool,
) (*models.Scholarship, error) {
	scholarship, err := s.GetScholarshipByID(scholarshipID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != "" {
		updates["name"] = name
	}
	if description != "" {
		updates["description"] = description
	}
	if provider != "" {
		updates["provider"] = provider
	}
	if eligibility != "" {
		updates["eligibility_criteria"] = eligibility
	}
	if amount != nil {
		if !amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be greater than zero")
		}
		updates["amount"] = amount.Round(2)
	}
	if deadline != nil {
		updates["deadline"] = *deadline
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(scholarship).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return scholarship, nil
}

// DeleteScholarship removes a scholarship and cascades to its applications.
func (s *scholarshipService) DeleteScholarship(scholarshipID uint) error {
	scholarship, err := s.GetScholarshipByID(scholarshipID)
	if err != nil {
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("scholarship_id = ?", scholarshipID).Delete(&models.ScholarshipApplication{}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(scholarship).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// Apply submits a student's application for a scholarship. The note must
// carry at least 30 characters after trimming, the deadline must not have
// passed, and a student applies to a scholarship at most once. The unique
// constraint on (scholarship, applicant) closes the race the pre-check
// leaves open.
func (s *scholarshipService) Apply(userID, scholarshipID uint, note string) (*models.ScholarshipApplication, error) {
	user, err := s.getUser(userID)
	if err != nil {
		return nil, err
	}
	if !models.HasCapability(user, models.RoleStudent) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "Only students can apply for scholarships")
	}

	trimmed := strings.TrimSpace(note)
	if len(trimmed) < minNoteLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("Respond to the eligibility criteria using at least %d characters", minNoteLength))
	}

	scholarship, err := s.GetScholarshipByID(scholarshipID)
	if err != nil {
		return nil, err
	}
	if scholarship.Deadline.Before(today()) {
		return nil, apperrors.ErrDeadlinePassed
	}

	var existing int64
	if err := s.db.Model(&models.ScholarshipApplication{}).
		Where("scholarship_id = ? AND applicant_id = ?", scholarshipID, userID).
		Count(&existing).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if existing > 0 {
		return nil, apperrors.ErrDuplicateApplication
	}

	application := &models.ScholarshipApplication{
		ScholarshipID: scholarshipID,
		ApplicantID:   userID,
		Note:          trimmed,
		Status:        models.ApplicationStatusPending,
		SubmittedAt:   time.Now(),
	}
	if err := s.db.Create(application).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateApplication
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	application.Scholarship = *scholarship

	s.notify(userID, "Scholarship Application Received",
		fmt.Sprintf("We received your application for %s.", scholarship.Name),
		false)

	return application, nil
}

// Review approves or rejects a pending application. ReviewedAt is stamped
// exactly once, guarded by the conditional status update so a retried call
// cannot overwrite it. On first approval a disbursement is created with a
// fresh reference; the unique (scholarship, user) constraint guarantees at
// most one disbursement and one approval email even under concurrent
// duplicate reviews. Reviewing is deliberately allowed after the
// scholarship's deadline.
func (s *scholarshipService) Review(adminID, applicationID uint, action, note string) (*models.ScholarshipApplication, error) {
	admin, err := s.getUser(adminID)
	if err != nil {
		return nil, err
	}
	if !models.HasCapability(admin, models.RoleAdmin) {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "Only administrators can review applications")
	}

	var application models.ScholarshipApplication
	if err := s.db.Preload("Scholarship").First(&application, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrApplicationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if application.Status != models.ApplicationStatusPending {
		return nil, apperrors.ErrAlreadyReviewed
	}

	newStatus := models.ApplicationStatusRejected
	if action == "approve" {
		newStatus = models.ApplicationStatusApproved
	}
	reviewedAt := time.Now()

	var disbursement *models.ScholarshipDisbursement
	disbursementCreated := false

	err = s.db.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":      newStatus,
			"reviewed_at": reviewedAt,
		}
		if note != "" {
			updates["note"] = note
		}

		res := tx.Model(&models.ScholarshipApplication{}).
			Where("id = ? AND status = ?", application.ID, models.ApplicationStatusPending).
			Updates(updates)
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrAlreadyReviewed
		}

		if newStatus == models.ApplicationStatusApproved {
			d, created, err := s.getOrCreateDisbursement(tx, &application)
			if err != nil {
				return err
			}
			disbursement = d
			disbursementCreated = created
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	application.Status = newStatus
	application.ReviewedAt = &reviewedAt
	if note != "" {
		application.Note = note
	}

	switch newStatus {
	case models.ApplicationStatusApproved:
		if disbursementCreated {
			s.notify(application.ApplicantID, "Scholarship Approved",
				fmt.Sprintf("Congratulations! Your application for %s has been approved. Disbursement reference: %s.",
					application.Scholarship.Name, disbursement.Reference),
				true)
		}
	case models.ApplicationStatusRejected:
		s.notify(application.ApplicantID, "Scholarship Update",
			fmt.Sprintf("Your application for %s was not successful this time.", application.Scholarship.Name),
			false)
	}

	return &application, nil
}

// getOrCreateDisbursement creates the disbursement for an approved
// application, or returns the existing one when the (scholarship, user)
// pair already has one.
func (s *scholarshipService) getOrCreateDisbursement(
	tx *gorm.DB,
	application *models.ScholarshipApplication,
) (*models.ScholarshipDisbursement, bool, error) {
	disbursement := &models.ScholarshipDisbursement{
		ScholarshipID:    application.ScholarshipID,
		UserID:           application.ApplicantID,
		Amount:           application.Scholarship.Amount,
		DisbursementDate: today(),
		Reference:        newDisbursementReference(),
		Status:           models.DisbursementStatusPending,
	}

	err := tx.Create(disbursement).Error
	if err == nil {
		return disbursement, true, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var existing models.ScholarshipDisbursement
	if err := tx.Where("scholarship_id = ? AND user_id = ?",
		application.ScholarshipID, application.ApplicantID).
		First(&existing).Error; err != nil {
		return nil, false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &existing, false, nil
}

// newDisbursementReference returns a short opaque unique token.
func newDisbursementReference() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return strings.ToUpper(raw[:12])
}

// MyApplications returns the user's applications, newest first, with an
// optional status filter.
func (s *scholarshipService) MyApplications(userID uint, status *models.ApplicationStatus) ([]models.ScholarshipApplication, error) {
	query := s.db.Preload("Scholarship").Where("applicant_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var applications []models.ScholarshipApplication
	if err := query.Order("submitted_at DESC").Find(&applications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return applications, nil
}

// ListApplications returns every application for a scholarship, newest
// first.
func (s *scholarshipService) ListApplications(scholarshipID uint) ([]models.ScholarshipApplication, error) {
	if _, err := s.GetScholarshipByID(scholarshipID); err != nil {
		return nil, err
	}

	var applications []models.ScholarshipApplication
	if err := s.db.Preload("Scholarship").
		Where("scholarship_id = ?", scholarshipID).
		Order("submitted_at DESC").
		Find(&applications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return applications, nil
}

func (s *scholarshipService) getUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// notify sends a scholarship notification, logging any failure instead of
// propagating it.
func (s *scholarshipService) notify(userID uint, title, message string, sendEmail bool) {
	if _, err := s.notifications.Create(userID, title, message, models.NotificationTypeScholarship, sendEmail); err != nil {
		logger.Get().Warnw("scholarship notification failed",
			"user_id", userID, "title", title, "error", err.Error())
	}
}
