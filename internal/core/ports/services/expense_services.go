package services

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/SscSPs/expense_approval_app/internal/dto"
)

// ExpenseReaderSvc defines read operations for expenses
type ExpenseReaderSvc interface {
	// GetExpense returns an expense to its employee, its current approver or an admin/manager of its company.
	GetExpense(ctx context.Context, expenseID, requestingUserID string) (*domain.Expense, error)

	// ListMyExpenses lists the requesting user's expenses, newest first.
	ListMyExpenses(ctx context.Context, requestingUserID string, params dto.ListExpensesParams) ([]domain.Expense, *string, error)
}

// ExpenseWriterSvc defines write operations for expenses
type ExpenseWriterSvc interface {
	// CreateExpense creates a draft owned by the requesting user.
	CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, requestingUserID string) (*domain.Expense, error)

	// SubmitExpense moves the requesting user's draft into the approval workflow.
	SubmitExpense(ctx context.Context, expenseID, requestingUserID string) (*domain.Expense, error)
}

// ExpenseSvcFacade combines all expense service interfaces
type ExpenseSvcFacade interface {
	ExpenseReaderSvc
	ExpenseWriterSvc
}
