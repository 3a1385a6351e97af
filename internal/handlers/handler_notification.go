package handlers

import (
	"net/http"

	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/dto"
	"github.com/gin-gonic/gin"
)

type notificationHandler struct {
	notificationService portssvc.NotificationSvcFacade
}

// RegisterNotificationRoutes registers the in-app notification routes.
func RegisterNotificationRoutes(rg *gin.RouterGroup, notificationService portssvc.NotificationSvcFacade) {
	h := &notificationHandler{notificationService: notificationService}

	notifications := rg.Group("/notifications")
	{
		notifications.GET("", h.list)
		notifications.GET("/unread-count", h.unreadCount)
		notifications.POST("/read-all", h.markAllRead)
		notifications.POST("/:notificationID/read", h.markRead)
	}
}

// list godoc
// @Summary List my notifications
// @Tags notifications
// @Produce  json
// @Param   unreadOnly query bool false "Only unread notifications"
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token of the next page"
// @Success 200 {object} dto.ListNotificationsResponse
// @Security BearerAuth
// @Router /notifications [get]
func (h *notificationHandler) list(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var params dto.ListNotificationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}
	ns, next, err := h.notificationService.ListNotifications(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, err, "Failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, dto.ListNotificationsResponse{Notifications: dto.ToNotificationResponses(ns), NextToken: next})
}

// unreadCount godoc
// @Summary Count my unread notifications
// @Tags notifications
// @Produce  json
// @Success 200 {object} dto.UnreadCountResponse
// @Security BearerAuth
// @Router /notifications/unread-count [get]
func (h *notificationHandler) unreadCount(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	n, err := h.notificationService.CountUnread(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to count notifications")
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCountResponse{Unread: n})
}

// markRead godoc
// @Summary Mark a notification as read
// @Tags notifications
// @Param   notificationID path string true "Notification ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Notification not found"
// @Security BearerAuth
// @Router /notifications/{notificationID}/read [post]
func (h *notificationHandler) markRead(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("notificationID"), userID); err != nil {
		respondError(c, err, "Failed to mark notification read")
		return
	}
	c.Status(http.StatusNoContent)
}

// markAllRead godoc
// @Summary Mark all my notifications as read
// @Tags notifications
// @Produce  json
// @Success 200 {object} map[string]int64
// @Security BearerAuth
// @Router /notifications/read-all [post]
func (h *notificationHandler) markAllRead(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	n, err := h.notificationService.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to mark notifications read")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}
