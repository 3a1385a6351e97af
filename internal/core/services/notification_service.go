package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/dto"
)

type notificationService struct {
	BaseService
	repo portsrepo.NotificationRepositoryFacade
}

// NewNotificationService creates the in-app notification service.
func NewNotificationService(repo portsrepo.NotificationRepositoryFacade) portssvc.NotificationSvcFacade {
	return &notificationService{repo: repo}
}

var _ portssvc.NotificationSvcFacade = (*notificationService)(nil)

func (s *notificationService) ListNotifications(ctx context.Context, userID string, params dto.ListNotificationsParams) ([]domain.Notification, *string, error) {
	notes, next, err := s.repo.ListNotificationsByUser(ctx, userID, params.UnreadOnly, params.Limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list notifications", slog.String("user_id", userID))
		return nil, nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notes, next, nil
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return n, nil
}

// MarkRead fails with apperrors.ErrNotFound when the notification does not belong to userID.
func (s *notificationService) MarkRead(ctx context.Context, notificationID, userID string) error {
	return s.repo.MarkRead(ctx, notificationID, userID)
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	s.LogDebug(ctx, "Notifications marked read", slog.Int64("count", n))
	return n, nil
}
