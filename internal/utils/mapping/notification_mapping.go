package mapping

import (
	"database/sql"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/SscSPs/expense_approval_app/internal/models"
)

// ToModelNotification converts a domain Notification to a model Notification.
// An empty ExpenseID is stored as NULL.
func ToModelNotification(d domain.Notification) models.Notification {
	return models.Notification{
		NotificationID: d.NotificationID,
		UserID:         d.UserID,
		ExpenseID:      sql.NullString{String: d.ExpenseID, Valid: d.ExpenseID != ""},
		Kind:           string(d.Kind),
		Title:          d.Title,
		Message:        d.Message,
		IsRead:         d.IsRead,
		CreatedAt:      d.CreatedAt,
	}
}

// ToDomainNotification converts a model Notification to a domain Notification
func ToDomainNotification(m models.Notification) domain.Notification {
	return domain.Notification{
		NotificationID: m.NotificationID,
		UserID:         m.UserID,
		ExpenseID:      m.ExpenseID.String,
		Kind:           domain.NotificationKind(m.Kind),
		Title:          m.Title,
		Message:        m.Message,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
	}
}
