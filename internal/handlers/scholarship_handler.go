package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/models"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
	"github.com/omovigho/student-finance-tracker/internal/services"
)

// ScholarshipHandler handles scholarship catalog and application requests.
type ScholarshipHandler struct {
	scholarshipService services.ScholarshipServicer
}

// NewScholarshipHandler creates a new ScholarshipHandler.
func NewScholarshipHandler(scholarshipService services.ScholarshipServicer) *ScholarshipHandler {
	return &ScholarshipHandler{scholarshipService: scholarshipService}
}

// CreateScholarshipRequest represents the request payload for creating a scholarship
type CreateScholarshipRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description" binding:"max=4000"`
	Provider    string `json:"provider" binding:"required,max=255"`
	Eligibility string `json:"eligibility" binding:"max=4000"`
	Amount      string `json:"amount" binding:"required,money"`
	Deadline    string `json:"deadline" binding:"required"`
}

// UpdateScholarshipRequest represents the request payload for updating a scholarship
type UpdateScholarshipRequest struct {
	Name        string  `json:"name" binding:"max=255"`
	Description *string `json:"description"`
	Provider    string  `json:"provider" binding:"max=255"`
	Eligibility *string `json:"eligibility"`
	Amount      *string `json:"amount" binding:"omitempty,money"`
	Deadline    *string `json:"deadline"`
	IsActive    *bool   `json:"is_active"`
}

// ApplyScholarshipRequest represents the request payload for applying
type ApplyScholarshipRequest struct {
	Note string `json:"note" binding:"required"`
}

// ReviewApplicationRequest represents the request payload for reviewing an application
type ReviewApplicationRequest struct {
	Action string `json:"action" binding:"required,review_action"`
	Note   string `json:"note" binding:"max=2000"`
}

func parseDeadline(raw string) (time.Time, error) {
	deadline, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid deadline. Use YYYY-MM-DD")
	}
	return deadline, nil
}

// CreateScholarship publishes a new scholarship
// @Summary     Create a scholarship
// @Description Publish a scholarship students can apply for (admin only)
// @Tags        scholarships
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateScholarshipRequest true "Scholarship details"
// @Success     201 {object} models.Scholarship "Scholarship created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /scholarships [post]
func (h *ScholarshipHandler) CreateScholarship(c *gin.Context) {
	if err := requireAdminRole(c); err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateScholarshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := parseMoney(req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}
	deadline, err := parseDeadline(req.Deadline)
	if err != nil {
		respondWithError(c, err)
		return
	}

	scholarship, err := h.scholarshipService.CreateScholarship(req.Name, req.Description, req.Provider, req.Eligibility, amount, deadline)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"scholarship": scholarship})
}

// ListScholarships lists scholarships
// @Summary     List scholarships
// @Description Students see active scholarships with open deadlines; admins see all
// @Tags        scholarships
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Scholarship] "Scholarships"
// @Router      /scholarships [get]
func (h *ScholarshipHandler) ListScholarships(c *gin.Context) {
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

	scholarships, err := h.scholarshipService.ListScholarships(userID, role, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, scholarships)
}

// GetScholarship returns a single scholarship
// @Summary     Get a scholarship
// @Tags        scholarships
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Scholarship ID"
// @Success     200 {object} models.Scholarship "Scholarship"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /scholarships/{id} [get]
func (h *ScholarshipHandler) GetScholarship(c *gin.Context) {
	scholarshipID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	scholarship, err := h.scholarshipService.GetScholarshipByID(scholarshipID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scholarship": scholarship})
}

// UpdateScholarship updates a scholarship
// @Summary     Update a scholarship
// @Description Partially update a scholarship (admin only)
// @Tags        scholarships
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Scholarship ID"
// @Param       request body UpdateScholarshipRequest true "Fields to update"
// @Success     200 {object} models.Scholarship "Updated scholarship"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /scholarships/{id} [patch]
func (h *ScholarshipHandler) UpdateScholarship(c *gin.Context) {
	if err := requireAdminRole(c); err != nil {
		respondWithError(c, err)
		return
	}
	scholarshipID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateScholarshipRequest
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
	var deadline *time.Time
	if req.Deadline != nil {
		parsed, err := parseDeadline(*req.Deadline)
		if err != nil {
			respondWithError(c, err)
			return
		}
		deadline = &parsed
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	eligibility := ""
	if req.Eligibility != nil {
		eligibility = *req.Eligibility
	}

	scholarship, err := h.scholarshipService.UpdateScholarship(scholarshipID, req.Name, description, req.Provider, eligibility, amount, deadline, req.IsActive)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scholarship": scholarship})
}

// DeleteScholarship removes a scholarship and its applications
// @Summary     Delete a scholarship
// @Tags        scholarships
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Scholarship ID"
// @Success     200 {object} map[string]string "Deleted"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /scholarships/{id} [delete]
func (h *ScholarshipHandler) DeleteScholarship(c *gin.Context) {
	if err := requireAdminRole(c); err != nil {
		respondWithError(c, err)
		return
	}
	scholarshipID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.scholarshipService.DeleteScholarship(scholarshipID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Scholarship deleted"})
}

// ApplyScholarship submits a scholarship application
// @Summary     Apply for a scholarship
// @Description Submit an application with a motivation note of at least 30 characters
// @Tags        scholarships
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Scholarship ID"
// @Param       request body ApplyScholarshipRequest true "Application note"
// @Success     201 {object} models.ScholarshipApplication "Application created"
// @Failure     400 {object} ErrorResponse "Invalid note or deadline passed"
// @Failure     409 {object} ErrorResponse "Duplicate application"
// @Router      /scholarships/{id}/apply [post]
func (h *ScholarshipHandler) ApplyScholarship(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	scholarshipID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ApplyScholarshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	application, err := h.scholarshipService.Apply(userID, scholarshipID, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"application": application})
}

// ReviewApplication approves or rejects a pending application
// @Summary     Review an application
// @Description Approve or reject a pending application; approval creates the disbursement (admin only)
// @Tags        scholarships
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Application ID"
// @Param       request body ReviewApplicationRequest true "Review action"
// @Success     200 {object} models.ScholarshipApplication "Reviewed application"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Failure     409 {object} ErrorResponse "Already reviewed"
// @Router      /scholarship-applications/{id}/review [post]
func (h *ScholarshipHandler) ReviewApplication(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	applicationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReviewApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	application, err := h.scholarshipService.Review(userID, applicationID, req.Action, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"application": application})
}

// MyApplications lists the caller's scholarship applications
// @Summary     List my applications
// @Tags        scholarships
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "Filter by status (pending, approved, rejected)"
// @Success     200 {object} map[string][]models.ScholarshipApplication "Applications"
// @Router      /scholarship-applications [get]
func (h *ScholarshipHandler) MyApplications(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var status *models.ApplicationStatus
	if raw := c.Query("status"); raw != "" {
		s := models.ApplicationStatus(raw)
		switch s {
		case models.ApplicationStatusPending, models.ApplicationStatusApproved, models.ApplicationStatusRejected:
			status = &s
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid status filter"))
			return
		}
	}

	applications, err := h.scholarshipService.MyApplications(userID, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": applications})
}

// ListApplications lists all applications for a scholarship
// @Summary     List a scholarship's applications
// @Tags        scholarships
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Scholarship ID"
// @Success     200 {object} map[string][]models.ScholarshipApplication "Applications"
// @Failure     403 {object} ErrorResponse "Forbidden"
// @Router      /scholarships/{id}/applications [get]
func (h *ScholarshipHandler) ListApplications(c *gin.Context) {
	if err := requireAdminRole(c); err != nil {
		respondWithError(c, err)
		return
	}
	scholarshipID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	applications, err := h.scholarshipService.ListApplications(scholarshipID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"applications": applications})
}
