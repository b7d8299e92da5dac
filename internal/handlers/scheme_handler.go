package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
	"github.com/omovigho/student-finance-tracker/internal/services"
)

// SchemeHandler handles loan scheme requests.
type SchemeHandler struct {
	schemeService services.SchemeServicer
}

// NewSchemeHandler creates a new SchemeHandler.
func NewSchemeHandler(schemeService services.SchemeServicer) *SchemeHandler {
	return &SchemeHandler{schemeService: schemeService}
}

// CreateSchemeRequest represents the request payload for creating a scheme
type CreateSchemeRequest struct {
	Name         string `json:"name" binding:"required,max=255"`
	Description  string `json:"description" binding:"max=2000"`
	LenderName   string `json:"lender_name" binding:"required,max=255"`
	Principal    string `json:"principal" binding:"required,money"`
	InterestRate string `json:"interest_rate" binding:"required"`
	TermMonths   int    `json:"term_months" binding:"required,min=1,max=480"`
}

// UpdateSchemeRequest represents the request payload for updating a scheme
type UpdateSchemeRequest struct {
	Name         string  `json:"name" binding:"max=255"`
	Description  *string `json:"description"`
	LenderName   string  `json:"lender_name" binding:"max=255"`
	Principal    *string `json:"principal" binding:"omitempty,money"`
	InterestRate *string `json:"interest_rate"`
	TermMonths   *int    `json:"term_months" binding:"omitempty,min=1,max=480"`
	IsActive     *bool   `json:"is_active"`
}

func requireAdminRole(c *gin.Context) error {
	role, err := getRole(c)
	if err != nil {
		return err
	}
	if role != models.RoleAdmin {
		return apperrors.ErrForbidden
	}
	return nil
}

// CreateScheme publishes a new loan scheme
// @Summary     Create a loan scheme
// @Description Publish a new loan scheme students can apply against (admin only)
// @Tags        schemes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateSchemeRequest true "Scheme details"
// @Success     201 {object} models.LoanScheme "Scheme created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /loan-schemes [post]
func (h *SchemeHandler) CreateScheme(c *gin.Context) {
	if err := requireAdminRole(c); err != nil {
		respondWithError(c, err)
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateSchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	principal, err := parseMoney(req.Principal)
	if err != nil {
		respondWithError(c, err)
		return
	}
	rate, err := decimal.NewFromString(req.InterestRate)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid interest rate"))
		return
	}

	scheme, err := h.schemeService.CreateScheme(userID, req.Name, req.Description, req.LenderName, principal, rate, req.TermMonths)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"scheme": scheme})
}

// ListSchemes lists available loan schemes
// @Summary     List loan schemes
// @Description Students see active schemes they have not applied to; admins see all
// @Tags        schemes
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.LoanScheme] "Schemes"
// @Router      /loan-schemes [get]
func (h *SchemeHandler) ListSchemes(c *gin.Context) {
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

	schemes, err := h.schemeService.ListSchemes(userID, role, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, schemes)
}

// GetScheme returns a single loan scheme
// @Summary     Get a loan scheme
// @Tags        schemes
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Scheme ID"
// @Success     200 {object} models.LoanScheme "Scheme"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /loan-schemes/{id} [get]
func (h *SchemeHandler) GetScheme(c *gin.Context) {
	schemeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	scheme, err := h.schemeService.GetSchemeByID(schemeID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scheme": scheme})
}

// UpdateScheme updates a loan scheme
// @Summary     Update a loan scheme
// @Description Partially update a loan scheme (admin only)
// @Tags        schemes
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Scheme ID"
// @Param       request body UpdateSchemeRequest true "Fields to update"
// @Success     200 {object} models.LoanScheme "Updated scheme"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /loan-schemes/{id} [patch]
func (h *SchemeHandler) UpdateScheme(c *gin.Context) {
	if err := requireAdminRole(c); err != nil {
		respondWithError(c, err)
		return
	}
	schemeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateSchemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var principal, rate *decimal.Decimal
	if req.Principal != nil {
		parsed, err := parseMoney(*req.Principal)
		if err != nil {
			respondWithError(c, err)
			return
		}
		principal = &parsed
	}
	if req.InterestRate != nil {
		parsed, err := decimal.NewFromString(*req.InterestRate)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid interest rate"))
			return
		}
		rate = &parsed
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}

	scheme, err := h.schemeService.UpdateScheme(schemeID, req.Name, description, req.LenderName, principal, rate, req.TermMonths, req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scheme": scheme})
}

// DeleteScheme removes a loan scheme
// @Summary     Delete a loan scheme
// @Description Delete a scheme with no loans referencing it (admin only)
// @Tags        schemes
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Scheme ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Scheme in use"
// @Router      /loan-schemes/{id} [delete]
func (h *SchemeHandler) DeleteScheme(c *gin.Context) {
	if err := requireAdminRole(c); err != nil {
		respondWithError(c, err)
		return
	}
	schemeID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.schemeService.DeleteScheme(schemeID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Loan scheme deleted"})
}
