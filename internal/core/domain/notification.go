package domain

import "time"

// NotificationKind classifies in-app notifications.
type NotificationKind string

const (
	NotificationApprovalRequest  NotificationKind = "approval_request"
	NotificationExpenseSubmitted NotificationKind = "expense_submitted"
	NotificationStepApproved     NotificationKind = "expense_step_approved"
	NotificationExpenseApproved  NotificationKind = "expense_approved"
	NotificationExpenseRejected  NotificationKind = "expense_rejected"
)

// Notification is a message addressed to a single user about an expense.
type Notification struct {
	NotificationID string           `json:"notificationID"`
	UserID         string           `json:"userID"`
	ExpenseID      string           `json:"expenseID"`
	Kind           NotificationKind `json:"kind"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	IsRead         bool             `json:"isRead"`
	CreatedAt      time.Time        `json:"createdAt"`
}
