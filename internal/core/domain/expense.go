package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseStatus indicates where an expense is in its lifecycle.
type ExpenseStatus string

const (
	ExpenseDraft           ExpenseStatus = "draft"
	ExpenseSubmitted       ExpenseStatus = "submitted"
	ExpensePendingApproval ExpenseStatus = "pending_approval"
	ExpenseApproved        ExpenseStatus = "approved"
	ExpenseRejected        ExpenseStatus = "rejected"
)

// IsTerminal reports whether no further transitions are permitted.
func (s ExpenseStatus) IsTerminal() bool {
	return s == ExpenseApproved || s == ExpenseRejected
}

// Expense is a reimbursement claim filed by an employee.
type Expense struct {
	ExpenseID         string           `json:"expenseID"`
	CompanyID         string           `json:"companyID"`
	EmployeeID        string           `json:"employeeID"`
	Description       string           `json:"description"`
	Category          string           `json:"category"`
	Amount            decimal.Decimal  `json:"amount"`
	CurrencyCode      string           `json:"currencyCode"`
	ExpenseDate       time.Time        `json:"expenseDate"`
	Status            ExpenseStatus    `json:"status"`
	CurrentApproverID *string          `json:"currentApproverID,omitempty"`
	ApprovalStep      int              `json:"approvalStep"`
	ConvertedAmount   *decimal.Decimal `json:"convertedAmount,omitempty"` // In the company currency
	FinalApprovedAt   *time.Time       `json:"finalApprovedAt,omitempty"`
	FinalApprovedBy   *string          `json:"finalApprovedBy,omitempty"`
	AuditFields
}

// IsAwaiting reports whether userID is the approver the expense is currently waiting on.
func (e *Expense) IsAwaiting(userID string) bool {
	return e.CurrentApproverID != nil && *e.CurrentApproverID == userID
}

// Submit moves a draft into the approval workflow. With a manager the expense waits on that
// manager at step 1; without one it is parked in submitted with nobody to act on it.
func (e *Expense) Submit(managerID string, actorID string, now time.Time) {
	if managerID != "" {
		e.Status = ExpensePendingApproval
		e.CurrentApproverID = &managerID
		e.ApprovalStep = 1
	} else {
		e.Status = ExpenseSubmitted
		e.CurrentApproverID = nil
		e.ApprovalStep = 0
	}
	e.touch(actorID, now)
}

// AdvanceTo hands the expense to the next approver in the chain.
func (e *Expense) AdvanceTo(approverID string, actorID string, now time.Time) {
	e.CurrentApproverID = &approverID
	e.ApprovalStep++
	e.touch(actorID, now)
}

// MarkApproved finalizes the expense with its amount converted to the company currency.
func (e *Expense) MarkApproved(converted decimal.Decimal, actorID string, now time.Time) {
	e.Status = ExpenseApproved
	e.CurrentApproverID = nil
	e.ConvertedAmount = &converted
	e.FinalApprovedAt = &now
	e.FinalApprovedBy = &actorID
	e.touch(actorID, now)
}

// CompleteApproval closes the step the final approver acted on and finalizes the expense, so
// approval_step ends one past the last approved step.
func (e *Expense) CompleteApproval(converted decimal.Decimal, actorID string, now time.Time) {
	e.ApprovalStep++
	e.MarkApproved(converted, actorID, now)
}

// MarkRejected terminates the expense.
func (e *Expense) MarkRejected(actorID string, now time.Time) {
	e.Status = ExpenseRejected
	e.CurrentApproverID = nil
	e.touch(actorID, now)
}

func (e *Expense) touch(actorID string, now time.Time) {
	e.LastUpdatedAt = now
	e.LastUpdatedBy = actorID
}
