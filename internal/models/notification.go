package models

import (
	"database/sql"
	"time"
)

// Notification is a row of notifications.
type Notification struct {
	NotificationID string         `db:"notification_id"`
	UserID         string         `db:"user_id"`
	ExpenseID      sql.NullString `db:"expense_id"`
	Kind           string         `db:"kind"`
	Title          string         `db:"title"`
	Message        string         `db:"message"`
	IsRead         bool           `db:"is_read"`
	CreatedAt      time.Time      `db:"created_at"`
}
