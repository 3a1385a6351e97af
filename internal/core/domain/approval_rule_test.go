package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestApprovalRulePatchChangesEvaluation(t *testing.T) {
	name := "Renamed"
	desc := "travel"
	off := false
	pct := decimal.NewFromInt(50)

	assert.False(t, ApprovalRulePatch{Name: &name, Description: &desc}.ChangesEvaluation())
	assert.True(t, ApprovalRulePatch{IsActive: &off}.ChangesEvaluation())
	assert.True(t, ApprovalRulePatch{MinApprovalPercentage: &pct}.ChangesEvaluation())
	assert.True(t, ApprovalRulePatch{ClearSpecificApprover: true}.ChangesEvaluation())
}

func TestExpenseCompleteApproval(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	approver := "m2"
	e := Expense{Status: ExpensePendingApproval, CurrentApproverID: &approver, ApprovalStep: 1}

	e.CompleteApproval(decimal.NewFromInt(42), "m2", now)

	assert.Equal(t, ExpenseApproved, e.Status)
	assert.Equal(t, 2, e.ApprovalStep)
	assert.Nil(t, e.CurrentApproverID)
	assert.Equal(t, "m2", *e.FinalApprovedBy)
	assert.True(t, decimal.NewFromInt(42).Equal(*e.ConvertedAmount))
}
