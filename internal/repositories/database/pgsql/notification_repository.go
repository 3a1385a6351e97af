package pgsql

import (
	"context"
	"strconv"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	"github.com/SscSPs/expense_approval_app/internal/models"
	"github.com/SscSPs/expense_approval_app/internal/utils/mapping"
	"github.com/SscSPs/expense_approval_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxNotificationRepository stores in-app notifications.
type PgxNotificationRepository struct {
	BaseRepository
}

func newPgxNotificationRepository(pool *pgxpool.Pool) portsrepo.NotificationRepositoryFacade {
	return &PgxNotificationRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.NotificationRepositoryFacade = (*PgxNotificationRepository)(nil)

// ListNotificationsByUser lists a user's notifications, newest first, using token-based pagination.
func (r *PgxNotificationRepository) ListNotificationsByUser(ctx context.Context, userID string, unreadOnly bool, limit int, nextToken *string) ([]domain.Notification, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	args := []any{userID}
	query := `
		SELECT notification_id, user_id, expense_id, kind, title, message, is_read, created_at
		FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND NOT is_read`
	}
	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, err := pagination.DecodeDateBasedToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", apperrors.ErrValidation)
		}
		args = append(args, lastCreatedAt)
		query += ` AND created_at < $` + strconv.Itoa(len(args))
	}
	args = append(args, limit+1)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query notifications", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var m models.Notification
		if err := rows.Scan(&m.NotificationID, &m.UserID, &m.ExpenseID, &m.Kind, &m.Title, &m.Message, &m.IsRead, &m.CreatedAt); err != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan notification row", err)
		}
		out = append(out, mapping.ToDomainNotification(m))
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating notification rows", err)
	}

	var next *string
	if len(out) > limit {
		token := pagination.EncodeDateBasedToken(out[limit-1].CreatedAt)
		next = &token
		out = out[:limit]
	}
	return out, next, nil
}

func (r *PgxNotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID).Scan(&n); err != nil {
		return 0, apperrors.NewAppError(500, "failed to count unread notifications", err)
	}
	return n, nil
}

func (r *PgxNotificationRepository) SaveNotification(ctx context.Context, notification domain.Notification) error {
	m := mapping.ToModelNotification(notification)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO notifications (notification_id, user_id, expense_id, kind, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.NotificationID, m.UserID, m.ExpenseID, m.Kind, m.Title, m.Message, m.IsRead, m.CreatedAt)
	if err != nil {
		return mapWriteError(err, "failed to insert notification")
	}
	return nil
}

// MarkRead marks a notification read. Another user's notification is reported as not found.
func (r *PgxNotificationRepository) MarkRead(ctx context.Context, notificationID, userID string) error {
	tag, err := r.Pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE notification_id = $1 AND user_id = $2`, notificationID, userID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark notification read", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("notification " + notificationID + " not found")
	}
	return nil
}

func (r *PgxNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.Pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND NOT is_read`, userID)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to mark notifications read", err)
	}
	return tag.RowsAffected(), nil
}
