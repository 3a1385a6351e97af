package mapping

import (
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/SscSPs/expense_approval_app/internal/models"
	"github.com/shopspring/decimal"
)

// ToModelExpense converts a domain Expense to a model Expense
func ToModelExpense(d domain.Expense) models.Expense {
	m := models.Expense{
		ExpenseID:         d.ExpenseID,
		CompanyID:         d.CompanyID,
		EmployeeID:        d.EmployeeID,
		Description:       d.Description,
		Category:          d.Category,
		Amount:            d.Amount,
		CurrencyCode:      d.CurrencyCode,
		ExpenseDate:       d.ExpenseDate,
		Status:            string(d.Status),
		CurrentApproverID: toNullString(d.CurrentApproverID),
		ApprovalStep:      d.ApprovalStep,
		FinalApprovedAt:   toNullTime(d.FinalApprovedAt),
		FinalApprovedBy:   toNullString(d.FinalApprovedBy),
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
	if d.ConvertedAmount != nil {
		m.ConvertedAmount = decimal.NewNullDecimal(*d.ConvertedAmount)
	}
	return m
}

// ToDomainExpense converts a model Expense to a domain Expense
func ToDomainExpense(m models.Expense) domain.Expense {
	d := domain.Expense{
		ExpenseID:         m.ExpenseID,
		CompanyID:         m.CompanyID,
		EmployeeID:        m.EmployeeID,
		Description:       m.Description,
		Category:          m.Category,
		Amount:            m.Amount,
		CurrencyCode:      m.CurrencyCode,
		ExpenseDate:       m.ExpenseDate,
		Status:            domain.ExpenseStatus(m.Status),
		CurrentApproverID: fromNullString(m.CurrentApproverID),
		ApprovalStep:      m.ApprovalStep,
		FinalApprovedAt:   fromNullTime(m.FinalApprovedAt),
		FinalApprovedBy:   fromNullString(m.FinalApprovedBy),
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
	if m.ConvertedAmount.Valid {
		amt := m.ConvertedAmount.Decimal
		d.ConvertedAmount = &amt
	}
	return d
}
