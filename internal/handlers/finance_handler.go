package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/services"
)

// FinanceHandler serves the read-side finance aggregates.
type FinanceHandler struct {
	ledgerService services.LedgerServicer
}

// NewFinanceHandler creates a new FinanceHandler.
func NewFinanceHandler(ledgerService services.LedgerServicer) *FinanceHandler {
	return &FinanceHandler{ledgerService: ledgerService}
}

// Summary returns income and expense totals with month-over-month changes
// @Summary     Finance summary
// @Description Totals over the optional date range plus current vs previous month comparison
// @Tags        finance
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Range start (YYYY-MM-DD)"
// @Param       end_date query string false "Range end (YYYY-MM-DD)"
// @Success     200 {object} services.FinanceSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid range"
// @Router      /finance/summary [get]
func (h *FinanceHandler) Summary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseDateQuery(c, "end_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.ledgerService.Summary(userID, start, end)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// Trends returns monthly income vs expense totals
// @Summary     Monthly trends
// @Description One row per month over the window, oldest first; window is clamped to 1..24
// @Tags        finance
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "Window size in months (default 6)"
// @Param       include_current query bool false "Include the current month"
// @Success     200 {object} map[string][]services.TrendRow "Trend rows"
// @Router      /finance/trends [get]
func (h *FinanceHandler) Trends(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months := 6
	if raw := c.Query("months"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid months"))
			return
		}
		months = parsed
	}
	includeCurrent := c.Query("include_current") == "true"

	rows, err := h.ledgerService.Trends(userID, months, includeCurrent)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trends": rows})
}

// ExpensesByCategory returns per-category expense totals
// @Summary     Expenses by category
// @Tags        finance
// @Produce     json
// @Security    BearerAuth
// @Param       period query string false "Period (current_month, previous_month, last_6_months)"
// @Success     200 {object} map[string][]services.CategoryTotal "Category totals"
// @Router      /finance/expenses-by-category [get]
func (h *FinanceHandler) ExpensesByCategory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := bindPeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.ledgerService.ExpensesByCategory(userID, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": totals})
}

// CategoryBreakdown returns per-month category expense totals
// @Summary     Category breakdown series
// @Description Per-month per-category totals for a single month or a trailing window
// @Tags        finance
// @Produce     json
// @Security    BearerAuth
// @Param       mode query string false "Mode (month, last_3_months, last_6_months)"
// @Param       month query string false "Month (YYYY-MM), required when mode=month"
// @Success     200 {object} map[string][]services.BreakdownMonth "Breakdown series"
// @Failure     400 {object} ErrorResponse "Invalid mode or month"
// @Router      /finance/category-breakdown [get]
func (h *FinanceHandler) CategoryBreakdown(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	mode := c.DefaultQuery("mode", "last_6_months")
	month := c.Query("month")

	series, err := h.ledgerService.CategoryBreakdownSeries(userID, mode, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"breakdown": series})
}

// IncomesBySource returns per-source income totals
// @Summary     Incomes by source
// @Tags        finance
// @Produce     json
// @Security    BearerAuth
// @Param       period query string false "Period (current_month, previous_month, last_6_months)"
// @Success     200 {object} map[string][]services.CategoryTotal "Source totals"
// @Router      /finance/incomes-by-source [get]
func (h *FinanceHandler) IncomesBySource(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	period, err := bindPeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.ledgerService.IncomesBySource(userID, period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sources": totals})
}

// bindPeriod validates the shared period query parameter. An empty period
// means all time.
func bindPeriod(c *gin.Context) (string, error) {
	period := c.Query("period")
	switch period {
	case "", services.PeriodCurrentMonth, services.PeriodPreviousMonth, services.PeriodLastSixMonths:
		return period, nil
	default:
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid period")
	}
}
