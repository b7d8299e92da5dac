package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
	"github.com/omovigho/student-finance-tracker/internal/services"
)

// LoanHandler handles loan lifecycle requests.
type LoanHandler struct {
	loanService services.LoanServicer
}

// NewLoanHandler creates a new LoanHandler.
func NewLoanHandler(loanService services.LoanServicer) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// ApplyLoanRequest represents the request payload for a loan application
type ApplyLoanRequest struct {
	SchemeID uint   `json:"scheme_id" binding:"required"`
	Notes    string `json:"notes" binding:"max=2000"`
}

// DeclineLoanRequest represents the request payload for declining a loan
type DeclineLoanRequest struct {
	Note string `json:"note" binding:"max=2000"`
}

// ApplyLoan submits a loan application
// @Summary     Apply for a loan
// @Description Apply for a loan against an active scheme (students only)
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ApplyLoanRequest true "Application details"
// @Success     201 {object} models.Loan "Loan created in pending status"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate application"
// @Router      /loans/apply [post]
func (h *LoanHandler) ApplyLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ApplyLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	loan, err := h.loanService.Apply(userID, req.SchemeID, req.Notes)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"loan": loan})
}

// ActivateLoan approves a pending loan
// @Summary     Activate a loan
// @Description Approve a pending loan and generate its repayment schedule (admin only)
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Loan ID"
// @Success     200 {object} models.Loan "Activated loan"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Loan not pending"
// @Router      /loans/{id}/activate [post]
func (h *LoanHandler) ActivateLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.loanService.Activate(userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// DeclineLoan declines a pending loan
// @Summary     Decline a loan
// @Description Decline a pending loan application (admin only)
// @Tags        loans
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Loan ID"
// @Param       request body DeclineLoanRequest false "Decline note"
// @Success     200 {object} models.Loan "Declined loan"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Loan not pending"
// @Router      /loans/{id}/decline [post]
func (h *LoanHandler) DeclineLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req DeclineLoanRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	loan, err := h.loanService.Decline(userID, loanID, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// PayoffLoan settles an active loan in full
// @Summary     Pay off a loan
// @Description Settle the loan's outstanding balance in a single payment
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Loan ID"
// @Success     200 {object} models.Loan "Paid loan"
// @Failure     409 {object} ErrorResponse "Loan not active or already settled"
// @Router      /loans/{id}/payoff [post]
func (h *LoanHandler) PayoffLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.loanService.Payoff(userID, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// ListLoans lists the caller's loans
// @Summary     List loans
// @Description List the caller's loans; administrators see every loan
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "Filter by status"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Loan] "Loans"
// @Router      /loans [get]
func (h *LoanHandler) ListLoans(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	role, err := getRole(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var status *models.LoanStatus
	if raw := c.Query("status"); raw != "" {
		s := models.LoanStatus(raw)
		switch s {
		case models.LoanStatusPending, models.LoanStatusActive, models.LoanStatusPaid,
			models.LoanStatusClosed, models.LoanStatusDefaulted:
			status = &s
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid status filter"))
			return
		}
	}

	loans, err := h.loanService.ListLoans(userID, role, status, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, loans)
}

// GetLoan returns a single loan
// @Summary     Get a loan
// @Description Get one of the caller's loans; administrators can fetch any loan
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Loan ID"
// @Success     200 {object} models.Loan "Loan"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /loans/{id} [get]
func (h *LoanHandler) GetLoan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	role, err := getRole(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	loan, err := h.loanService.GetLoanByID(userID, role, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loan": loan})
}

// ListRepayments lists a loan's repayment schedule
// @Summary     List loan repayments
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Loan ID"
// @Success     200 {object} map[string][]models.Repayment "Repayments"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /loans/{id}/repayments [get]
func (h *LoanHandler) ListRepayments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	role, err := getRole(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	loanID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	repayments, err := h.loanService.ListRepayments(userID, role, loanID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"repayments": repayments})
}

// LoanSummary returns dashboard entries for the caller's active loans
// @Summary     Loan dashboard summary
// @Description Per-loan next due date, amount due, and outstanding balance
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]services.LoanSummaryEntry "Summary"
// @Router      /loans/summary [get]
func (h *LoanHandler) LoanSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.loanService.Summary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"loans": summary})
}

// LoanHistory returns the caller's loans grouped by status
// @Summary     Loan history
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.LoanHistory "History grouped by status"
// @Router      /loans/history [get]
func (h *LoanHandler) LoanHistory(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	history, err := h.loanService.History(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// AdminLoanHistory returns every loan with per-status totals
// @Summary     Administrator loan overview
// @Tags        loans
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.AdminLoanHistory "All loans and totals"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /admin/loans [get]
func (h *LoanHandler) AdminLoanHistory(c *gin.Context) {
	if err := requireAdminRole(c); err != nil {
		respondWithError(c, err)
		return
	}

	history, err := h.loanService.AdminHistory()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, history)
}
