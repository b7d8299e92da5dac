package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/omovigho/student-finance-tracker/internal/errors"
	"github.com/omovigho/student-finance-tracker/internal/pagination"
	"github.com/omovigho/student-finance-tracker/internal/services"
)

// NotificationHandler handles in-app notification requests.
type NotificationHandler struct {
	notificationService services.NotificationServicer
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService services.NotificationServicer) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// MarkReadRequest represents the request payload for marking notifications read
type MarkReadRequest struct {
	IDs     []uint `json:"ids"`
	MarkAll bool   `json:"mark_all"`
}

// ListNotifications lists the caller's notifications
// @Summary     List notifications
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       unread query bool false "Only unread notifications"
// @Param       page query int false "Page number"
// @Param       page_size query int false "Page size"
// @Success     200 {object} pagination.PageResponse[models.Notification] "Notifications"
// @Router      /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
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
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.notificationService.GetUserNotifications(userID, page, unreadOnly)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkRead marks a set of the caller's notifications as read
// @Summary     Mark notifications read
// @Description Mark the given notification IDs read, or all with mark_all
// @Tags        notifications
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body MarkReadRequest true "IDs to mark read"
// @Success     200 {object} map[string]int64 "Count of updated notifications"
// @Router      /notifications/mark-read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if !req.MarkAll && len(req.IDs) == 0 {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Provide ids or set mark_all"))
		return
	}

	updated, err := h.notificationService.MarkRead(userID, req.IDs, req.MarkAll)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// MarkOneRead marks a single notification as read
// @Summary     Mark one notification read
// @Tags        notifications
// @Produce     json
// @Security    BearerAuth
// @Param       id path int true "Notification ID"
// @Success     200 {object} map[string]string "Marked read"
// @Failure     404 {object} ErrorResponse "Not found"
// @Router      /notifications/{id}/read [post]
func (h *NotificationHandler) MarkOneRead(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	notificationID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.notificationService.MarkOneRead(userID, notificationID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
}
