package repositories

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
)

// NotificationReader defines read operations for in-app notifications
type NotificationReader interface {
	// ListNotificationsByUser retrieves a page of a user's notifications, newest first.
	// It returns the notifications, a token for the next page, and an error.
	ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool, limit int, nextToken *string) ([]domain.Notification, *string, error)

	// CountUnread counts a user's unread notifications.
	CountUnread(ctx context.Context, userID string) (int, error)
}

// NotificationWriter defines write operations for in-app notifications
type NotificationWriter interface {
	// SaveNotification persists a new notification.
	SaveNotification(ctx context.Context, notification domain.Notification) error

	// MarkRead marks one of the user's notifications as read.
	MarkRead(ctx context.Context, notificationID, userID string) error

	// MarkAllRead marks all of the user's notifications as read and returns how many changed.
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}

// NotificationRepositoryFacade combines all notification repository interfaces
type NotificationRepositoryFacade interface {
	NotificationReader
	NotificationWriter
}
