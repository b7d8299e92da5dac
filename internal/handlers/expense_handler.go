package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
	"github.com/omovigho/student-finance-tracker/internal/services"
)

// ExpenseHandler handles expense entry requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService}
}

// CreateExpenseRequest represents the request payload for creating an expense
type CreateExpenseRequest struct {
	Merchant   string `json:"merchant" binding:"required,max=255"`
	Amount     string `json:"amount" binding:"required,money"`
	DateSpent  string `json:"date_spent" binding:"required"`
	Notes      string `json:"notes" binding:"max=2000"`
	CategoryID *uint  `json:"category_id"`
}

// UpdateExpenseRequest represents the request payload for updating an expense
type UpdateExpenseRequest struct {
	Merchant   string  `json:"merchant" binding:"max=255"`
	Amount     *string `json:"amount" binding:"omitempty,money"`
	DateSpent  *string `json:"date_spent"`
	Notes      *string `json:"notes"`
	CategoryID *uint   `json:"category_id"`
}

// CreateExpense records a new expense entry
// @Summary     Create an expense entry
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := parseMoney(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	dateSpent, err := time.ParseInLocation("2006-01-02", req.DateSpent, time.Local)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date_spent. Use YYYY-MM-DD"))
		return
	}

	expense, err := h.expenseService.CreateExpense(userID, req.Merchant, amount, dateSpent, req.Notes, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// ListExpenses lists the caller's expenses
// @Summary     List expense entries
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Filter from date (YYYY-MM-DD)"
// @Param       end_date query string false "Filter to date (YYYY-MM-DD)"
// @Param       search query string false "Search by merchant"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Expenses"
// @Router      /expenses [get]
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := bindDateRangeFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenses, err := h.expenseService.ListExpenses(userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, expenses)
}

// GetExpense returns a single expense entry
// @Summary     Get an expense entry
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Success     200 {object} models.Expense "Expense"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense updates an expense entry
// @Summary     Update an expense entry
// @Description Partially update an expense; a zero category_id clears the category
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Fields to update"
// @Success     200 {object} models.Expense "Updated expense"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /expenses/{id} [patch]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		parsed, err := parseMoney(*req.Amount)
		if err != nil {
			respondWithError(c, err)
			return
		}
		amount = &parsed
	}
	var dateSpent *time.Time
	if req.DateSpent != nil {
		parsed, err := time.ParseInLocation("2006-01-02", *req.DateSpent, time.Local)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date_spent. Use YYYY-MM-DD"))
			return
		}
		dateSpent = &parsed
	}

	expense, err := h.expenseService.UpdateExpense(userID, expenseID, req.Merchant, amount, dateSpent, req.Notes, req.CategoryID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense removes an expense entry
// @Summary     Delete an expense entry
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Expense ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Expense deleted"})
}
