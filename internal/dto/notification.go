package dto

import (
	"time"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
)

// ListNotificationsParams defines query parameters for listing notifications.
type ListNotificationsParams struct {
	UnreadOnly bool    `form:"unreadOnly"`
	Limit      int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken  *string `form:"nextToken"`
}

// NotificationResponse defines the data returned for a notification.
type NotificationResponse struct {
	NotificationID string    `json:"notificationID"`
	ExpenseID      string    `json:"expenseID"`
	Kind           string    `json:"kind"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ListNotificationsResponse wraps a page of notifications.
type ListNotificationsResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	NextToken     *string                `json:"nextToken,omitempty"`
}

// UnreadCountResponse reports the number of unread notifications.
type UnreadCountResponse struct {
	Unread int `json:"unread"`
}

// ToNotificationResponses converts notifications to response DTOs.
func ToNotificationResponses(ns []domain.Notification) []NotificationResponse {
	out := make([]NotificationResponse, len(ns))
	for i, n := range ns {
		out[i] = NotificationResponse{
			NotificationID: n.NotificationID,
			ExpenseID:      n.ExpenseID,
			Kind:           string(n.Kind),
			Title:          n.Title,
			Message:        n.Message,
			IsRead:         n.IsRead,
			CreatedAt:      n.CreatedAt,
		}
	}
	return out
}
