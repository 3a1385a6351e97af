package dto

import (
	"time"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateExpenseRequest defines the structure for creating a draft expense.
type CreateExpenseRequest struct {
	Description  string          `json:"description" binding:"required,notblank,max=500"`
	Category     string          `json:"category" binding:"required,notblank,max=100"`
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3,uppercase"`
	ExpenseDate  time.Time       `json:"expenseDate" binding:"required"`
}

// ListExpensesParams defines query parameters for listing the caller's expenses.
type ListExpensesParams struct {
	Limit     int     `form:"limit,default=20" binding:"min=1,max=100"`
	NextToken *string `form:"nextToken"`
}

// ExpenseResponse defines the data returned for an expense.
type ExpenseResponse struct {
	ExpenseID         string           `json:"expenseID"`
	CompanyID         string           `json:"companyID"`
	EmployeeID        string           `json:"employeeID"`
	Description       string           `json:"description"`
	Category          string           `json:"category"`
	Amount            decimal.Decimal  `json:"amount"`
	CurrencyCode      string           `json:"currencyCode"`
	ExpenseDate       time.Time        `json:"expenseDate"`
	Status            string           `json:"status"`
	CurrentApproverID *string          `json:"currentApproverID,omitempty"`
	ApprovalStep      int              `json:"approvalStep"`
	ConvertedAmount   *decimal.Decimal `json:"convertedAmount,omitempty"`
	FinalApprovedAt   *time.Time       `json:"finalApprovedAt,omitempty"`
	FinalApprovedBy   *string          `json:"finalApprovedBy,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
	LastUpdatedAt     time.Time        `json:"lastUpdatedAt"`
}

// ListExpensesResponse wraps a page of expenses.
type ListExpensesResponse struct {
	Expenses  []ExpenseResponse `json:"expenses"`
	NextToken *string           `json:"nextToken,omitempty"`
}

// ToExpenseResponse converts a domain.Expense to ExpenseResponse DTO.
func ToExpenseResponse(e *domain.Expense) ExpenseResponse {
	return ExpenseResponse{
		ExpenseID:         e.ExpenseID,
		CompanyID:         e.CompanyID,
		EmployeeID:        e.EmployeeID,
		Description:       e.Description,
		Category:          e.Category,
		Amount:            e.Amount,
		CurrencyCode:      e.CurrencyCode,
		ExpenseDate:       e.ExpenseDate,
		Status:            string(e.Status),
		CurrentApproverID: e.CurrentApproverID,
		ApprovalStep:      e.ApprovalStep,
		ConvertedAmount:   e.ConvertedAmount,
		FinalApprovedAt:   e.FinalApprovedAt,
		FinalApprovedBy:   e.FinalApprovedBy,
		CreatedAt:         e.CreatedAt,
		LastUpdatedAt:     e.LastUpdatedAt,
	}
}

// ToExpenseResponses converts a slice of domain.Expense to []ExpenseResponse.
func ToExpenseResponses(expenses []domain.Expense) []ExpenseResponse {
	responses := make([]ExpenseResponse, len(expenses))
	for i := range expenses {
		responses[i] = ToExpenseResponse(&expenses[i])
	}
	return responses
}
