package services

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
)

// ApprovalDecisionSvc records approval decisions on expenses.
type ApprovalDecisionSvc interface {
	// ApproveExpense records an approval by the expense's current approver and applies the linked rules.
	// It fails with apperrors.ErrInvalidState when the expense is not pending approval and with
	// apperrors.ErrForbidden when actorID is not the current approver.
	ApproveExpense(ctx context.Context, expenseID, actorID, comments string) (*domain.Expense, error)

	// RejectExpense records a rejection by the current approver, which always terminates the expense.
	// comments must not be blank.
	RejectExpense(ctx context.Context, expenseID, actorID, comments string) (*domain.Expense, error)
}

// ApprovalQuerySvc exposes read-only views of the approval workflow.
type ApprovalQuerySvc interface {
	// ListPendingApprovals lists the expenses waiting on approverID.
	ListPendingApprovals(ctx context.Context, approverID string) ([]domain.Expense, error)

	// GetApprovalHistory returns the ledger of an expense to its employee, its approvers or company managers.
	GetApprovalHistory(ctx context.Context, expenseID, requestingUserID string) ([]domain.ApprovalHistoryEntry, error)
}

// ApprovalSvcFacade combines all approval workflow service interfaces
type ApprovalSvcFacade interface {
	ApprovalDecisionSvc
	ApprovalQuerySvc
}
