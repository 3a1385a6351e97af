package pgsql

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxApprovalHistoryRepository stores the append-only approval ledger.
type PgxApprovalHistoryRepository struct {
	BaseRepository
}

func newPgxApprovalHistoryRepository(pool *pgxpool.Pool) portsrepo.ApprovalHistoryRepositoryFacade {
	return &PgxApprovalHistoryRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ApprovalHistoryRepositoryFacade = (*PgxApprovalHistoryRepository)(nil)

func queryEntries(ctx context.Context, q querier, sql string, args ...any) ([]domain.ApprovalHistoryEntry, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query approval history", err)
	}
	defer rows.Close()

	var out []domain.ApprovalHistoryEntry
	for rows.Next() {
		var e domain.ApprovalHistoryEntry
		var action string
		if err := rows.Scan(&e.EntryID, &e.ExpenseID, &e.ApproverID, &e.ApproverName, &action, &e.Comments, &e.StepNumber, &e.ActionedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan approval history row", err)
		}
		e.Action = domain.ApprovalAction(action)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating approval history rows", err)
	}
	return out, nil
}

const entrySelect = `
	SELECT ah.entry_id, ah.expense_id, ah.approver_id, u.name, ah.action, ah.comments, ah.step_number, ah.actioned_at
	FROM approval_history ah
	JOIN users u ON u.user_id = ah.approver_id
	WHERE ah.expense_id = $1`

// FindEntriesByExpenseID returns the ledger ordered for display, by step then time.
func (r *PgxApprovalHistoryRepository) FindEntriesByExpenseID(ctx context.Context, expenseID string) ([]domain.ApprovalHistoryEntry, error) {
	return queryEntries(ctx, r.Pool, entrySelect+` ORDER BY ah.step_number ASC, ah.actioned_at ASC, ah.seq ASC`, expenseID)
}

// FindEntriesByExpenseIDInTx returns the ledger in the order entries were recorded.
func (r *PgxApprovalHistoryRepository) FindEntriesByExpenseIDInTx(ctx context.Context, tx pgx.Tx, expenseID string) ([]domain.ApprovalHistoryEntry, error) {
	return queryEntries(ctx, tx, entrySelect+` ORDER BY ah.seq ASC`, expenseID)
}

// AppendEntryInTx records an action. Entries are never updated or deleted.
func (r *PgxApprovalHistoryRepository) AppendEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.ApprovalHistoryEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO approval_history (entry_id, expense_id, approver_id, action, comments, step_number, actioned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.EntryID, entry.ExpenseID, entry.ApproverID, string(entry.Action), entry.Comments, entry.StepNumber, entry.ActionedAt)
	if err != nil {
		return mapWriteError(err, "failed to append approval history")
	}
	return nil
}
