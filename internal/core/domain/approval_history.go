package domain

import "time"

// ApprovalAction is the decision an approver recorded.
type ApprovalAction string

const (
	ActionApproved ApprovalAction = "approved"
	ActionRejected ApprovalAction = "rejected"
)

// ApprovalHistoryEntry is an immutable record of one approve/reject action on an expense.
type ApprovalHistoryEntry struct {
	EntryID      string         `json:"entryID"`
	ExpenseID    string         `json:"expenseID"`
	ApproverID   string         `json:"approverID"`
	ApproverName string         `json:"approverName,omitempty"`
	Action       ApprovalAction `json:"action"`
	Comments     string         `json:"comments"`
	StepNumber   int            `json:"stepNumber"`
	ActionedAt   time.Time      `json:"actionedAt"`
}
