package mapping

import (
	"testing"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpenseMappingKeepsNullableFields(t *testing.T) {
	approver := "user-2"
	converted := decimal.RequireFromString("83.10")
	approvedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	withState := domain.Expense{
		ExpenseID:         "exp-1",
		Status:            domain.ExpenseApproved,
		CurrentApproverID: &approver,
		ConvertedAmount:   &converted,
		FinalApprovedAt:   &approvedAt,
		FinalApprovedBy:   &approver,
	}
	m := ToModelExpense(withState)
	assert.True(t, m.CurrentApproverID.Valid)
	assert.True(t, m.ConvertedAmount.Valid)

	back := ToDomainExpense(m)
	require.NotNil(t, back.ConvertedAmount)
	assert.True(t, converted.Equal(*back.ConvertedAmount))
	assert.Equal(t, approvedAt, *back.FinalApprovedAt)
	assert.Equal(t, domain.ExpenseApproved, back.Status)

	draft := ToDomainExpense(ToModelExpense(domain.Expense{ExpenseID: "exp-2", Status: domain.ExpenseDraft}))
	assert.Nil(t, draft.CurrentApproverID)
	assert.Nil(t, draft.ConvertedAmount)
	assert.Nil(t, draft.FinalApprovedAt)
}

func TestApprovalRuleMappingPercentage(t *testing.T) {
	rule := ToDomainApprovalRule(ToModelApprovalRule(domain.ApprovalRule{RuleID: "r-1"}))
	assert.Nil(t, rule.MinApprovalPercentage)

	pct := decimal.NewFromInt(60)
	rule = ToDomainApprovalRule(ToModelApprovalRule(domain.ApprovalRule{RuleID: "r-1", MinApprovalPercentage: &pct}))
	require.NotNil(t, rule.MinApprovalPercentage)
	assert.True(t, pct.Equal(*rule.MinApprovalPercentage))
}

func TestNotificationMappingStoresEmptyExpenseAsNull(t *testing.T) {
	m := ToModelNotification(domain.Notification{NotificationID: "n-1", UserID: "u-1", Kind: domain.NotificationExpenseApproved})
	assert.False(t, m.ExpenseID.Valid)

	m = ToModelNotification(domain.Notification{NotificationID: "n-2", UserID: "u-1", ExpenseID: "e-1"})
	require.True(t, m.ExpenseID.Valid)
	assert.Equal(t, "e-1", ToDomainNotification(m).ExpenseID)
}
