package services

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
)

// incomeService manages income entries. Every operation is scoped to the
// owning user; there is no cross-user read path.
type incomeService struct {
	db *gorm.DB
}

// NewIncomeService creates a new IncomeServicer.
func NewIncomeService(db *gorm.DB) IncomeServicer {
	return &incomeService{db: db}
}

// CreateIncome records a new income entry.
func (s *incomeService) CreateIncome(
	userID uint,
	source string,
	amount decimal.Decimal,
	dateReceived time.Time,
	notes string,
) (*models.Income, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be greater than zero")
	}

	income := &models.Income{
		UserID:       userID,
		Source:       source,
		Amount:       amount.Round(2),
		DateReceived: dateReceived,
		Notes:        notes,
	}
	if err := s.db.Create(income).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return income, nil
}

// GetIncomeByID returns one of the user's income entries.
func (s *incomeService) GetIncomeByID(userID, incomeID uint) (*models.Income, error) {
	var income models.Income
	if err := s.db.Where("id = ? AND user_id = ?", incomeID, userID).First(&income).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrIncomeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &income, nil
}

// ListIncomes lists the user's incomes, newest first, optionally filtered
// by date range and a source search term.
func (s *incomeService) ListIncomes(
	userID uint,
	filter DateRangeFilter,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.Income], error) {
	page.Defaults()

	query := s.db.Model(&models.Income{}).Where("user_id = ?", userID)
	if filter.Start != nil {
		query = query.Where("date_received >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("date_received <= ?", *filter.End)
	}
	if filter.Search != "" {
		query = query.Where("source LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var incomes []models.Income
	if err := query.Scopes(pagination.Paginate(page)).
		Order("date_received DESC, id DESC").
		Find(&incomes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(incomes, page.Page, page.PageSize, total)
	return &resp, nil
}

// UpdateIncome applies a partial update to one of the user's income entries.
func (s *incomeService) UpdateIncome(
	userID, incomeID uint,
	source string,
	amount *decimal.Decimal,
	dateReceived *time.Time,
	notes *string,
) (*models.Income, error) {
	income, err := s.GetIncomeByID(userID, incomeID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if source != "" {
		updates["source"] = source
	}
	if amount != nil {
		if !amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be greater than zero")
		}
		updates["amount"] = amount.Round(2)
	}
	if dateReceived != nil {
		updates["date_received"] = *dateReceived
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	if len(updates) == 0 {
		return income, nil
	}

	if err := s.db.Model(income).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetIncomeByID(userID, incomeID)
}

// DeleteIncome removes one of the user's income entries.
func (s *incomeService) DeleteIncome(userID, incomeID uint) error {
	income, err := s.GetIncomeByID(userID, incomeID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(income).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
