package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nick-lortz/steelbuild-pro-sub016/services"
)

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	Notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{Notifications: notifications}
}

// List handles POST /api/notifications/list
func (h *NotificationHandler) List(c *gin.Context) {
	notifications, err := h.Notifications.ListNotifications(c.Request.Context(), identityFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notifications": notifications})
}

// MarkRead handles POST /api/notifications/mark-read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	var input struct {
		NotificationID string `json:"notification_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	n, err := h.Notifications.MarkRead(c.Request.Context(), identityFrom(c), input.NotificationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "notification": n})
}

// RegisterDevice handles POST /api/notifications/register-device
func (h *NotificationHandler) RegisterDevice(c *gin.Context) {
	var input struct {
		Token string `json:"token"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, err)
		return
	}
	if err := h.Notifications.RegisterDevice(c.Request.Context(), identityFrom(c), input.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
