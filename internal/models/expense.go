package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a row of expenses.
type Expense struct {
	ExpenseID         string              `db:"expense_id"`
	CompanyID         string              `db:"company_id"`
	EmployeeID        string              `db:"employee_id"`
	Description       string              `db:"description"`
	Category          string              `db:"category"`
	Amount            decimal.Decimal     `db:"amount"`
	CurrencyCode      string              `db:"currency_code"`
	ExpenseDate       time.Time           `db:"expense_date"`
	Status            string              `db:"status"`
	CurrentApproverID sql.NullString      `db:"current_approver_id"`
	ApprovalStep      int                 `db:"approval_step"`
	ConvertedAmount   decimal.NullDecimal `db:"converted_amount"`
	FinalApprovedAt   sql.NullTime        `db:"final_approved_at"`
	FinalApprovedBy   sql.NullString      `db:"final_approved_by"`
	AuditFields
}
