package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
)

// schemeService manages loan scheme templates.
type schemeService struct {
	db *gorm.DB
}

// NewSchemeService creates a new SchemeServicer.
func NewSchemeService(db *gorm.DB) SchemeServicer {
	return &schemeService{db: db}
}

// CreateScheme publishes a new loan scheme.
func (s *schemeService) CreateScheme(
	adminID uint,
	name, description, lenderName string,
	principal, interestRate decimal.Decimal,
	termMonths int,
) (*models.LoanScheme, error) {
	if !principal.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Principal must be greater than zero")
	}
	if interestRate.IsNegative() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Interest rate cannot be negative")
	}
	if termMonths < 1 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Term must be at least one month")
	}

	scheme := &models.LoanScheme{
		Name:         name,
		Description:  description,
		LenderName:   lenderName,
		Principal:    principal.Round(2),
		InterestRate: interestRate.Round(2),
		TermMonths:   termMonths,
		IsActive:     true,
		CreatedByID:  &adminID,
	}
	if err := s.db.Create(scheme).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return scheme, nil
}

// GetSchemeByID returns a scheme by ID.
func (s *schemeService) GetSchemeByID(schemeID uint) (*models.LoanScheme, error) {
	var scheme models.LoanScheme
	if err := s.db.First(&scheme, schemeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSchemeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &scheme, nil
}

// ListSchemes lists schemes. Administrators see everything; students see
// only active schemes they do not already hold a pending, active, or paid
// loan against.
func (s *schemeService) ListSchemes(
	userID uint,
	role models.Role,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.LoanScheme], error) {
	page.Defaults()

	base := s.db.Model(&models.LoanScheme{})
	if role != models.RoleAdmin {
		applied := s.db.Model(&models.Loan{}).
			Select("scheme_id").
			Where("user_id = ? AND status IN ?", userID, restrictedLoanStatuses)
		base = base.Where("is_active = ?", true).Where("id NOT IN (?)", applied)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var schemes []models.LoanScheme
	if err := base.Scopes(pagination.Paginate(page)).
		Order("created_at DESC").
		Find(&schemes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(schemes, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateScheme updates scheme fields, including the activation toggle.
func (s *schemeService) UpdateScheme(
	schemeID uint,
	name, description, lenderName string,
	principal, interestRate *decimal.Decimal,
	termMonths *int,
	isActive *bool,
) (*models.LoanScheme, error) {
	scheme, err := s.GetSchemeByID(schemeID)
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
	if lenderName != "" {
		updates["lender_name"] = lenderName
	}
	if principal != nil {
		if !principal.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Principal must be greater than zero")
		}
		updates["principal"] = principal.Round(2)
	}
	if interestRate != nil {
		if interestRate.IsNegative() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Interest rate cannot be negative")
		}
		updates["interest_rate"] = interestRate.Round(2)
	}
	if termMonths != nil {
		if *termMonths < 1 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Term must be at least one month")
		}
		updates["term_months"] = *termMonths
	}
	if isActive != nil {
		updates["is_active"] = *isActive
	}

	if len(updates) > 0 {
		if err := s.db.Model(scheme).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return scheme, nil
}

// DeleteScheme removes a scheme. Schemes with loans referencing them are
// protected from deletion.
func (s *schemeService) DeleteScheme(schemeID uint) error {
	scheme, err := s.GetSchemeByID(schemeID)
	if err != nil {
		return err
	}

	var loanCount int64
	if err := s.db.Model(&models.Loan{}).Where("scheme_id = ?", schemeID).Count(&loanCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if loanCount > 0 {
		return apperrors.ErrSchemeInUse
	}

	if err := s.db.Delete(scheme).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
