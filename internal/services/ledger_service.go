package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/models"
)

// Breakdown periods accepted by ExpensesByCategory and IncomesBySource.
const (
	PeriodCurrentMonth  = "current_month"
	PeriodPreviousMonth = "previous_month"
	PeriodLastSixMonths = "last_6_months"
)

// ledgerService computes read-side income/expense aggregates. It performs no
// mutation; every figure is recomputed from the ledger rows on demand.
type ledgerService struct {
	db *gorm.DB
}

// NewLedgerService creates a new LedgerServicer.
func NewLedgerService(db *gorm.DB) LedgerServicer {
	return &ledgerService{db: db}
}

// Summary sums income and expense over the optional date range and compares
// the current month against the previous one. Change percentages are nil
// when the previous month has no data.
func (s *ledgerService) Summary(userID uint, start, end *time.Time) (*FinanceSummary, error) {
	if start != nil && end != nil && end.Before(*start) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "End date must be greater than or equal to start date")
	}

	totalIncome, err := s.sumIncomes(userID, start, end)
	if err != nil {
		return nil, err
	}
	totalExpense, err := s.sumExpenses(userID, start, end)
	if err != nil {
		return nil, err
	}

	currentStart := monthStart(today())
	nextStart := shiftMonth(currentStart, 1)
	previousStart := shiftMonth(currentStart, -1)

	currentIncome, err := s.sumIncomes(userID, &currentStart, beforeExclusive(nextStart))
	if err != nil {
		return nil, err
	}
	currentExpense, err := s.sumExpenses(userID, &currentStart, beforeExclusive(nextStart))
	if err != nil {
		return nil, err
	}
	previousIncome, err := s.sumIncomes(userID, &previousStart, beforeExclusive(currentStart))
	if err != nil {
		return nil, err
	}
	previousExpense, err := s.sumExpenses(userID, &previousStart, beforeExclusive(currentStart))
	if err != nil {
		return nil, err
	}

	currentBalance := currentIncome.Sub(currentExpense)
	previousBalance := previousIncome.Sub(previousExpense)

	return &FinanceSummary{
		TotalIncome:      totalIncome.StringFixed(2),
		TotalExpense:     totalExpense.StringFixed(2),
		NetBalance:       totalIncome.Sub(totalExpense).StringFixed(2),
		IncomeThisMonth:  currentIncome.StringFixed(2),
		ExpenseThisMonth: currentExpense.StringFixed(2),
		CurrentBalance:   currentBalance.StringFixed(2),
		IncomeChange:     formatChange(PercentChange(currentIncome, previousIncome)),
		ExpenseChange:    formatChange(PercentChange(currentExpense, previousExpense)),
		BalanceChange:    formatChange(PercentChange(currentBalance, previousBalance)),
	}, nil
}

// PercentChange returns ((current-previous)/previous)*100 rounded to two
// places, or nil when previous is zero.
func PercentChange(current, previous decimal.Decimal) *decimal.Decimal {
	if previous.IsZero() {
		return nil
	}
	change := current.Sub(previous).Div(previous).Mul(oneHundred).Round(2)
	return &change
}

// Trends returns one row per month over the window, oldest first. The
// window is clamped to [1, 24] months.
func (s *ledgerService) Trends(userID uint, windowMonths int, includeCurrent bool) ([]TrendRow, error) {
	if windowMonths < 1 {
		windowMonths = 1
	}
	if windowMonths > 24 {
		windowMonths = 24
	}

	currentStart := monthStart(today())
	startOffset := -windowMonths
	endOffset := 0
	if includeCurrent {
		startOffset = -(windowMonths - 1)
		endOffset = 1
	}

	rows := make([]TrendRow, 0, windowMonths)
	for offset := startOffset; offset < endOffset; offset++ {
		from := shiftMonth(currentStart, offset)
		to := shiftMonth(from, 1)

		income, err := s.sumIncomes(userID, &from, beforeExclusive(to))
		if err != nil {
			return nil, err
		}
		expense, err := s.sumExpenses(userID, &from, beforeExclusive(to))
		if err != nil {
			return nil, err
		}

		rows = append(rows, TrendRow{
			Month:   from.Format("Jan 2006"),
			Income:  income.StringFixed(2),
			Expense: expense.StringFixed(2),
		})
	}
	return rows, nil
}

// ExpensesByCategory groups the user's expenses by category within the
// period. Expenses without a category are labelled "Uncategorised".
func (s *ledgerService) ExpensesByCategory(userID uint, period string) ([]CategoryTotal, error) {
	from, to, err := periodBounds(period)
	if err != nil {
		return nil, err
	}
	return s.categoryTotals(userID, from, to)
}

// CategoryBreakdownSeries returns per-month category totals with a grand
// total per month. Mode is "month" (with a YYYY-MM month), "last_3_months",
// or "last_6_months".
func (s *ledgerService) CategoryBreakdownSeries(userID uint, mode, month string) ([]BreakdownMonth, error) {
	currentStart := monthStart(today())

	var monthStarts []time.Time
	switch mode {
	case "last_3_months", "last_6_months":
		window := 3
		if mode == "last_6_months" {
			window = 6
		}
		for offset := -(window - 1); offset <= 0; offset++ {
			monthStarts = append(monthStarts, shiftMonth(currentStart, offset))
		}
	case "month":
		if month == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month parameter is required for mode=month")
		}
		parsed, err := time.ParseInLocation("2006-01", month, time.Local)
		if err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid month format. Use YYYY-MM")
		}
		monthStarts = []time.Time{parsed}
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Unsupported mode")
	}

	series := make([]BreakdownMonth, 0, len(monthStarts))
	for _, ms := range monthStarts {
		next := shiftMonth(ms, 1)
		categories, err := s.categoryTotals(userID, &ms, beforeExclusive(next))
		if err != nil {
			return nil, err
		}

		total := decimal.Zero
		for _, c := range categories {
			amount, err := decimal.NewFromString(c.Amount)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			total = total.Add(amount)
		}

		series = append(series, BreakdownMonth{
			Month:      ms.Format("Jan 2006"),
			MonthKey:   ms.Format("2006-01"),
			Categories: categories,
			Total:      total.StringFixed(2),
		})
	}
	return series, nil
}

// IncomesBySource groups the user's incomes by source within the period.
func (s *ledgerService) IncomesBySource(userID uint, period string) ([]CategoryTotal, error) {
	from, to, err := periodBounds(period)
	if err != nil {
		return nil, err
	}

	query := s.db.Model(&models.Income{}).
		Select("source, COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ?", userID)
	if from != nil {
		query = query.Where("date_received >= ?", *from)
	}
	if to != nil {
		query = query.Where("date_received < ?", *to)
	}

	var rows []struct {
		Source string
		Total  decimal.Decimal
	}
	if err := query.Group("source").Order("source").Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := make([]CategoryTotal, 0, len(rows))
	for _, row := range rows {
		label := row.Source
		if label == "" {
			label = "Uncategorised"
		}
		totals = append(totals, CategoryTotal{Category: label, Amount: row.Total.Round(2).StringFixed(2)})
	}
	return totals, nil
}

// categoryTotals sums expenses per category within the given bounds.
func (s *ledgerService) categoryTotals(userID uint, from, to *time.Time) ([]CategoryTotal, error) {
	query := s.db.Model(&models.Expense{}).
		Select("expenses.category_id, categories.name AS category_name, COALESCE(SUM(expenses.amount), 0) AS total").
		Joins("LEFT JOIN categories ON categories.id = expenses.category_id").
		Where("expenses.user_id = ? AND expenses.deleted_at IS NULL", userID)
	if from != nil {
		query = query.Where("expenses.date_spent >= ?", *from)
	}
	if to != nil {
		query = query.Where("expenses.date_spent < ?", *to)
	}

	var rows []struct {
		CategoryID   *uint
		CategoryName *string
		Total        decimal.Decimal
	}
	if err := query.Group("expenses.category_id, categories.name").
		Order("categories.name").
		Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totals := make([]CategoryTotal, 0, len(rows))
	for _, row := range rows {
		label := "Uncategorised"
		if row.CategoryName != nil && *row.CategoryName != "" {
			label = *row.CategoryName
		}
		totals = append(totals, CategoryTotal{
			CategoryID: row.CategoryID,
			Category:   label,
			Amount:     row.Total.Round(2).StringFixed(2),
		})
	}
	return totals, nil
}

// sumIncomes sums income amounts for the user between from (inclusive) and
// to (exclusive); nil bounds leave the range open.
func (s *ledgerService) sumIncomes(userID uint, from, to *time.Time) (decimal.Decimal, error) {
	return s.sumAmounts(&models.Income{}, "date_received", userID, from, to)
}

// sumExpenses sums expense amounts for the user between from (inclusive)
// and to (exclusive); nil bounds leave the range open.
func (s *ledgerService) sumExpenses(userID uint, from, to *time.Time) (decimal.Decimal, error) {
	return s.sumAmounts(&models.Expense{}, "date_spent", userID, from, to)
}

func (s *ledgerService) sumAmounts(model interface{}, dateColumn string, userID uint, from, to *time.Time) (decimal.Decimal, error) {
	query := s.db.Model(model).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ?", userID)
	if from != nil {
		query = query.Where(dateColumn+" >= ?", *from)
	}
	if to != nil {
		query = query.Where(dateColumn+" < ?", *to)
	}

	var total decimal.Decimal
	if err := query.Scan(&total).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return total.Round(2), nil
}

// periodBounds translates a named period into half-open month bounds. An
// empty period means all-time; anything else unrecognised is rejected.
func periodBounds(period string) (*time.Time, *time.Time, error) {
	currentStart := monthStart(today())
	switch period {
	case "":
		return nil, nil, nil
	case PeriodCurrentMonth:
		next := shiftMonth(currentStart, 1)
		return &currentStart, &next, nil
	case PeriodPreviousMonth:
		previous := shiftMonth(currentStart, -1)
		return &previous, &currentStart, nil
	case PeriodLastSixMonths:
		sixAgo := shiftMonth(currentStart, -6)
		return &sixAgo, &currentStart, nil
	default:
		return nil, nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid period")
	}
}

// beforeExclusive adapts an exclusive upper bound for the sum helpers.
func beforeExclusive(t time.Time) *time.Time {
	return &t
}

// formatChange renders a percent change as a two-decimal string, keeping nil
// as nil.
func formatChange(change *decimal.Decimal) *string {
	if change == nil {
		return nil
	}
	s := change.StringFixed(2)
	return &s
}
