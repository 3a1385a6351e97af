package services

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/SscSPs/expense_approval_app/internal/dto"
)

// Notifier delivers a notification. Implementations must not block the caller on delivery.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// NotificationSvcFacade manages a user's in-app notifications.
type NotificationSvcFacade interface {
	ListNotifications(ctx context.Context, userID string, params dto.ListNotificationsParams) ([]domain.Notification, *string, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
}
