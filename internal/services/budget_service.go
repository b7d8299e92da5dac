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

// budgetService manages per-period spending budgets.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget records a budget for a period. A user holds at most one
// budget per (period_start, period_end) pair.
func (s *budgetService) CreateBudget(
	userID uint,
	periodStart, periodEnd time.Time,
	allocatedAmount decimal.Decimal,
) (*models.Budget, error) {
	if !periodEnd.After(periodStart) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Period end must be after period start")
	}
	if !allocatedAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Allocated amount must be greater than zero")
	}

	budget := &models.Budget{
		UserID:          userID,
		PeriodStart:     periodStart,
		PeriodEnd:       periodEnd,
		AllocatedAmount: allocatedAmount.Round(2),
	}
	if err := s.db.Create(budget).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrDuplicateBudget
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// GetBudgetByID returns one of the user's budgets.
func (s *budgetService) GetBudgetByID(userID, budgetID uint) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// ListBudgets lists the user's budgets, most recent period first.
func (s *budgetService) ListBudgets(userID uint, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	query := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := query.Scopes(pagination.Paginate(page)).
		Order("period_start DESC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(budgets, page.Page, page.PageSize, total)
	return &resp, nil
}

// UpdateBudget changes the allocated amount. The period itself is fixed
// once created; delete and recreate to move a budget.
func (s *budgetService) UpdateBudget(userID, budgetID uint, allocatedAmount *decimal.Decimal) (*models.Budget, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if allocatedAmount == nil {
		return budget, nil
	}
	if !allocatedAmount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Allocated amount must be greater than zero")
	}

	if err := s.db.Model(budget).Update("allocated_amount", allocatedAmount.Round(2)).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.AllocatedAmount = allocatedAmount.Round(2)
	return budget, nil
}

// DeleteBudget removes one of the user's budgets.
func (s *budgetService) DeleteBudget(userID, budgetID uint) error {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(budget).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
