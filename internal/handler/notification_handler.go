package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusq/helpdesk-api/internal/models"
	"github.com/campusq/helpdesk-api/internal/service"
	appErrors "github.com/campusq/helpdesk-api/pkg/errors"
	"github.com/campusq/helpdesk-api/pkg/response"
)

// NotificationHandler serves the admin and per-student notification streams.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List godoc
// @Summary List notifications for the caller's stream
// @Tags Notifications
// @Produce json
// @Param search query string false "Substring match over messages"
// @Param since query string false "Only entries at or after this RFC 3339 instant"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := buildNotificationFilter(c)

	var (
		items      []models.Notification
		pagination *models.Pagination
		err        error
	)
	if claims.Role == models.RoleAdmin {
		items, pagination, err = h.notifications.AdminList(c.Request.Context(), filter)
	} else {
		items, pagination, err = h.notifications.StudentList(c.Request.Context(), claims.StudentID, filter)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Unread godoc
// @Summary Report whether the caller has unseen notifications
// @Tags Notifications
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /notifications/unread [get]
func (h *NotificationHandler) Unread(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var (
		unread bool
		err    error
	)
	if claims.Role == models.RoleAdmin {
		unread, err = h.notifications.AdminUnread(c.Request.Context())
	} else {
		unread, err = h.notifications.StudentUnread(c.Request.Context(), claims.StudentID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unread": unread}, nil)
}

// MarkSeen godoc
// @Summary Mark the caller's stream as seen
// @Tags Notifications
// @Success 204
// @Router /notifications/seen [post]
func (h *NotificationHandler) MarkSeen(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var err error
	if claims.Role == models.RoleAdmin {
		err = h.notifications.MarkAdminSeen(c.Request.Context())
	} else {
		err = h.notifications.MarkStudentSeen(c.Request.Context(), claims.StudentID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func buildNotificationFilter(c *gin.Context) models.NotificationFilter {
	filter := models.NotificationFilter{
		Search: strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("since"); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			filter.Since = &t
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil {
		filter.PageSize = size
	}
	return filter
}
