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

// IncomeHandler handles income entry requests.
type IncomeHandler struct {
	incomeService services.IncomeServicer
}

// NewIncomeHandler creates a new IncomeHandler.
func NewIncomeHandler(incomeService services.IncomeServicer) *IncomeHandler {
	return &IncomeHandler{incomeService: incomeService}
}

// CreateIncomeRequest represents the request payload for creating an income
type CreateIncomeRequest struct {
	Source       string `json:"source" binding:"required,max=255"`
	Amount       string `json:"amount" binding:"required,money"`
	DateReceived string `json:"date_received" binding:"required"`
	Notes        string `json:"notes" binding:"max=2000"`
}

// UpdateIncomeRequest represents the request payload for updating an income
type UpdateIncomeRequest struct {
	Source       string  `json:"source" binding:"max=255"`
	Amount       *string `json:"amount" binding:"omitempty,money"`
	DateReceived *string `json:"date_received"`
	Notes        *string `json:"notes"`
}

// CreateIncome records a new income entry
// @Summary     Create an income entry
// @Tags        incomes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateIncomeRequest true "Income details"
// @Success     201 {object} models.Income "Income created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /incomes [post]
func (h *IncomeHandler) CreateIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateIncomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := parseMoney(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	dateReceived, err := time.ParseInLocation("2006-01-02", req.DateReceived, time.Local)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date_received. Use YYYY-MM-DD"))
		return
	}

	income, err := h.incomeService.CreateIncome(userID, req.Source, amount, dateReceived, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"income": income})
}

// ListIncomes lists the caller's income entries
// @Summary     List income entries
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Param       start_date query string false "Filter from date (YYYY-MM-DD)"
// @Param       end_date query string false "Filter to date (YYYY-MM-DD)"
// @Param       search query string false "Search by source"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Income] "Incomes"
// @Router      /incomes [get]
func (h *IncomeHandler) ListIncomes(c *gin.Context) {
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

	incomes, err := h.incomeService.ListIncomes(userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, incomes)
}

// GetIncome returns a single income entry
// @Summary     Get an income entry
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Income ID"
// @Success     200 {object} models.Income "Income"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /incomes/{id} [get]
func (h *IncomeHandler) GetIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	incomeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	income, err := h.incomeService.GetIncomeByID(userID, incomeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"income": income})
}

// UpdateIncome updates an income entry
// @Summary     Update an income entry
// @Tags        incomes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Income ID"
// @Param       request body UpdateIncomeRequest true "Fields to update"
// @Success     200 {object} models.Income "Updated income"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /incomes/{id} [patch]
func (h *IncomeHandler) UpdateIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	incomeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateIncomeRequest
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
	var dateReceived *time.Time
	if req.DateReceived != nil {
		parsed, err := time.ParseInLocation("2006-01-02", *req.DateReceived, time.Local)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid date_received. Use YYYY-MM-DD"))
			return
		}
		dateReceived = &parsed
	}

	income, err := h.incomeService.UpdateIncome(userID, incomeID, req.Source, amount, dateReceived, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"income": income})
}

// DeleteIncome removes an income entry
// @Summary     Delete an income entry
// @Tags        incomes
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Income ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /incomes/{id} [delete]
func (h *IncomeHandler) DeleteIncome(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	incomeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.incomeService.DeleteIncome(userID, incomeID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Income deleted"})
}

// bindDateRangeFilter reads the shared start_date, end_date, and search
// query parameters.
func bindDateRangeFilter(c *gin.Context) (services.DateRangeFilter, error) {
	start, err := parseDateQuery(c, "start_date")
	if err != nil {
		return services.DateRangeFilter{}, err
	}
	end, err := parseDateQuery(c, "end_date")
	if err != nil {
		return services.DateRangeFilter{}, err
	}
	return services.DateRangeFilter{
		Start:  start,
		End:    end,
		Search: c.Query("search"),
	}, nil
}
