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

// expenseService manages expense entries scoped to the owning user.
type expenseService struct {
	db *gorm.DB
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB) ExpenseServicer {
	return &expenseService{db: db}
}

// CreateExpense records a new expense entry. A category is optional but
// must exist when given.
func (s *expenseService) CreateExpense(
	userID uint,
	merchant string,
	amount decimal.Decimal,
	dateSpent time.Time,
	notes string,
	categoryID *uint,
) (*models.Expense, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be greater than zero")
	}
	if categoryID != nil {
		if err := s.checkCategory(*categoryID); err != nil {
			return nil, err
		}
	}

	expense := &models.Expense{
		UserID:     userID,
		Merchant:   merchant,
		Amount:     amount.Round(2),
		DateSpent:  dateSpent,
		Notes:      notes,
		CategoryID: categoryID,
	}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// GetExpenseByID returns one of the user's expenses with its category.
func (s *expenseService) GetExpenseByID(userID, expenseID uint) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Preload("Category").
		Where("id = ? AND user_id = ?", expenseID, userID).
		First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// ListExpenses lists the user's expenses, newest first, optionally filtered
// by date range and a merchant search term.
func (s *expenseService) ListExpenses(
	userID uint,
	filter DateRangeFilter,
	page pagination.PageRequest,
) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	query := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	if filter.Start != nil {
		query = query.Where("date_spent >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("date_spent <= ?", *filter.End)
	}
	if filter.Search != "" {
		query = query.Where("merchant LIKE ?", "%"+filter.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := query.Preload("Category").
		Scopes(pagination.Paginate(page)).
		Order("date_spent DESC, id DESC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	resp := pagination.NewPageResponse(expenses, page.Page, page.PageSize, total)
	return &resp, nil
}

// UpdateExpense applies a partial update to one of the user's expenses.
func (s *expenseService) UpdateExpense(
	userID, expenseID uint,
	merchant string,
	amount *decimal.Decimal,
	dateSpent *time.Time,
	notes *string,
	categoryID *uint,
) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if merchant != "" {
		updates["merchant"] = merchant
	}
	if amount != nil {
		if !amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Amount must be greater than zero")
		}
		updates["amount"] = amount.Round(2)
	}
	if dateSpent != nil {
		updates["date_spent"] = *dateSpent
	}
	if notes != nil {
		updates["notes"] = *notes
	}
	if categoryID != nil {
		// A zero category ID clears the assignment.
		if *categoryID == 0 {
			updates["category_id"] = nil
		} else {
			if err := s.checkCategory(*categoryID); err != nil {
				return nil, err
			}
			updates["category_id"] = *categoryID
		}
	}
	if len(updates) == 0 {
		return expense, nil
	}

	// Update through a bare model: updating the loaded instance would write
	// its populated category_id back over a nil in the update map.
	if err := s.db.Model(&models.Expense{}).Where("id = ?", expense.ID).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetExpenseByID(userID, expenseID)
}

// DeleteExpense removes one of the user's expenses.
func (s *expenseService) DeleteExpense(userID, expenseID uint) error {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(expense).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *expenseService) checkCategory(categoryID uint) error {
	var count int64
	if err := s.db.Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrCategoryNotFound
	}
	return nil
}
