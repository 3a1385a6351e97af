package repositories

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ApprovalHistoryReader defines read operations on the approval ledger
type ApprovalHistoryReader interface {
	// FindEntriesByExpenseID retrieves the history of an expense for display, ordered by step then time,
	// with approver names filled in.
	FindEntriesByExpenseID(ctx context.Context, expenseID string) ([]domain.ApprovalHistoryEntry, error)
}

// ApprovalHistoryTxOperations are ledger operations that take part in a caller-managed transaction.
// Entries are append-only; there is no update or delete.
type ApprovalHistoryTxOperations interface {
	// AppendEntryInTx appends an entry to the ledger.
	AppendEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.ApprovalHistoryEntry) error

	// FindEntriesByExpenseIDInTx retrieves the history of an expense in creation order within tx.
	FindEntriesByExpenseIDInTx(ctx context.Context, tx pgx.Tx, expenseID string) ([]domain.ApprovalHistoryEntry, error)
}

// ApprovalHistoryRepositoryFacade combines all approval history repository interfaces
type ApprovalHistoryRepositoryFacade interface {
	ApprovalHistoryReader
	ApprovalHistoryTxOperations
}
