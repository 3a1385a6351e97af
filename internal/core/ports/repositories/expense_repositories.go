package repositories

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ExpenseReader defines read operations for expense data
type ExpenseReader interface {
	// FindExpenseByID retrieves a specific expense by its ID.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// ListExpensesByEmployee retrieves a page of an employee's expenses, newest first.
	// It returns the expenses, a token for the next page, and an error.
	ListExpensesByEmployee(ctx context.Context, employeeID string, limit int, nextToken *string) ([]domain.Expense, *string, error)

	// ListPendingForApprover retrieves expenses in pending_approval whose current approver is approverID.
	ListPendingForApprover(ctx context.Context, approverID string) ([]domain.Expense, error)
}

// ExpenseWriter defines write operations for expense data
type ExpenseWriter interface {
	// SaveExpense persists a new expense.
	SaveExpense(ctx context.Context, expense domain.Expense) error
}

// ExpenseTxOperations are the expense operations that take part in a caller-managed transaction.
type ExpenseTxOperations interface {
	// FindExpenseByIDForUpdate loads the expense and locks its row until tx ends.
	FindExpenseByIDForUpdate(ctx context.Context, tx pgx.Tx, expenseID string) (*domain.Expense, error)

	// UpdateExpenseStateInTx writes the approval state of expense (status, approver, step, conversion,
	// final approval). The write is guarded by expense.Version and fails with apperrors.ErrConflict
	// if the row changed since it was read.
	UpdateExpenseStateInTx(ctx context.Context, tx pgx.Tx, expense domain.Expense) error
}

// ExpenseRepositoryFacade combines all expense-related repository interfaces
type ExpenseRepositoryFacade interface {
	ExpenseReader
	ExpenseWriter
	ExpenseTxOperations
}

// ExpenseRepositoryWithTx extends ExpenseRepositoryFacade with transaction capabilities
type ExpenseRepositoryWithTx interface {
	ExpenseRepositoryFacade
	TransactionManager
}
