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
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const expenseColumns = `
	expense_id, company_id, employee_id, description, category, amount, currency_code, expense_date,
	status, current_approver_id, approval_step, converted_amount, final_approved_at, final_approved_by,
	created_at, created_by, last_updated_at, last_updated_by, version`

// PgxExpenseRepository implements portsrepo.ExpenseRepositoryWithTx using pgxpool.
type PgxExpenseRepository struct {
	BaseRepository
}

func newPgxExpenseRepository(pool *pgxpool.Pool) portsrepo.ExpenseRepositoryWithTx {
	return &PgxExpenseRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ExpenseRepositoryWithTx = (*PgxExpenseRepository)(nil)

func scanExpense(row pgx.Row) (domain.Expense, error) {
	var m models.Expense
	err := row.Scan(
		&m.ExpenseID, &m.CompanyID, &m.EmployeeID, &m.Description, &m.Category, &m.Amount, &m.CurrencyCode, &m.ExpenseDate,
		&m.Status, &m.CurrentApproverID, &m.ApprovalStep, &m.ConvertedAmount, &m.FinalApprovedAt, &m.FinalApprovedBy,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy, &m.Version,
	)
	if err != nil {
		return domain.Expense{}, err
	}
	return mapping.ToDomainExpense(m), nil
}

func collectExpenses(rows pgx.Rows) ([]domain.Expense, error) {
	defer rows.Close()
	var out []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan expense row", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating expense rows", err)
	}
	return out, nil
}

// SaveExpense inserts a new expense.
func (r *PgxExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	m := mapping.ToModelExpense(expense)
	_, err := r.Pool.Exec(ctx, `
		INSERT INTO expenses (`+expenseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		m.ExpenseID, m.CompanyID, m.EmployeeID, m.Description, m.Category, m.Amount, m.CurrencyCode, m.ExpenseDate,
		m.Status, m.CurrentApproverID, m.ApprovalStep, m.ConvertedAmount, m.FinalApprovedAt, m.FinalApprovedBy,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "failed to insert expense")
	}
	return nil
}

// FindExpenseByID retrieves an expense by its ID.
func (r *PgxExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	e, err := scanExpense(r.Pool.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE expense_id = $1`, expenseID))
	if err != nil {
		return nil, mapReadError(err, "expense "+expenseID)
	}
	return &e, nil
}

// FindExpenseByIDForUpdate locks the expense row for the rest of tx.
func (r *PgxExpenseRepository) FindExpenseByIDForUpdate(ctx context.Context, tx pgx.Tx, expenseID string) (*domain.Expense, error) {
	e, err := scanExpense(tx.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE expense_id = $1 FOR UPDATE`, expenseID))
	if err != nil {
		return nil, mapReadError(err, "expense "+expenseID)
	}
	return &e, nil
}

// UpdateExpenseStateInTx writes the workflow fields of expense if its version is still current.
func (r *PgxExpenseRepository) UpdateExpenseStateInTx(ctx context.Context, tx pgx.Tx, expense domain.Expense) error {
	m := mapping.ToModelExpense(expense)
	tag, err := tx.Exec(ctx, `
		UPDATE expenses
		SET status = $1, current_approver_id = $2, approval_step = $3, converted_amount = $4,
		    final_approved_at = $5, final_approved_by = $6,
		    last_updated_at = $7, last_updated_by = $8, version = version + 1
		WHERE expense_id = $9 AND version = $10`,
		m.Status, m.CurrentApproverID, m.ApprovalStep, m.ConvertedAmount,
		m.FinalApprovedAt, m.FinalApprovedBy,
		m.LastUpdatedAt, m.LastUpdatedBy,
		m.ExpenseID, m.Version,
	)
	if err != nil {
		return mapWriteError(err, "failed to update expense "+expense.ExpenseID)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewAppError(409, "expense "+expense.ExpenseID+" was modified concurrently", apperrors.ErrConflict)
	}
	return nil
}

// ListExpensesByEmployee lists an employee's expenses, newest expense date first, using token-based pagination.
func (r *PgxExpenseRepository) ListExpensesByEmployee(ctx context.Context, employeeID string, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	// one extra row tells whether there is a next page
	fetchLimit := limit + 1

	args := []any{employeeID}
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE employee_id = $1`
	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", apperrors.ErrValidation)
		}
		query += ` AND (expense_date, created_at) < ($2, $3)`
		args = append(args, lastDate, lastCreatedAt)
	}
	query += ` ORDER BY expense_date DESC, created_at DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query expenses for employee "+employeeID, err)
	}
	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, nil, err
	}

	var next *string
	if len(expenses) > limit {
		last := expenses[limit-1]
		token := pagination.EncodeToken(last.ExpenseDate, last.CreatedAt)
		next = &token
		expenses = expenses[:limit]
	}
	return expenses, next, nil
}

// ListPendingForApprover lists the expenses waiting on approverID, oldest first.
func (r *PgxExpenseRepository) ListPendingForApprover(ctx context.Context, approverID string) ([]domain.Expense, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+expenseColumns+` FROM expenses
		WHERE current_approver_id = $1 AND status = $2
		ORDER BY created_at ASC`,
		approverID, string(domain.ExpensePendingApproval),
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query pending expenses", err)
	}
	return collectExpenses(rows)
}
