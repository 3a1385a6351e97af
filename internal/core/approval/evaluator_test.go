package approval_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/core/approval"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvers(ids ...string) []domain.RuleApprover {
	out := make([]domain.RuleApprover, 0, len(ids))
	for i, id := range ids {
		out = append(out, domain.RuleApprover{RuleID: "rule-1", UserID: id, SequenceOrder: i + 1})
	}
	return out
}

func approvedEntries(ids ...string) []domain.ApprovalHistoryEntry {
	out := make([]domain.ApprovalHistoryEntry, 0, len(ids))
	for i, id := range ids {
		out = append(out, domain.ApprovalHistoryEntry{
			EntryID:    fmt.Sprintf("h-%d", i),
			ExpenseID:  "exp-1",
			ApproverID: id,
			Action:     domain.ActionApproved,
			StepNumber: i,
			ActionedAt: time.Now(),
		})
	}
	return out
}

func pct(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func strPtr(s string) *string { return &s }

func TestEvaluate_Sequential(t *testing.T) {
	rule := domain.ApprovalRule{RuleID: "rule-1", UseApproverSequence: true}
	chain := approvers("m1", "m2", "m3")

	for step := 0; step < len(chain); step++ {
		out := approval.Evaluate(rule, domain.Expense{ApprovalStep: step}, nil, chain)
		assert.False(t, out.Satisfied, "step %d", step)
		assert.Equal(t, chain[step].UserID, out.NextApproverID, "step %d", step)
		assert.True(t, out.HasNextApprover())
	}

	out := approval.Evaluate(rule, domain.Expense{ApprovalStep: len(chain)}, nil, chain)
	assert.True(t, out.Satisfied)
	assert.Empty(t, out.NextApproverID)
	assert.False(t, out.HasNextApprover())
}

func TestEvaluate_SequentialWithoutApprovers(t *testing.T) {
	rule := domain.ApprovalRule{UseApproverSequence: true}
	out := approval.Evaluate(rule, domain.Expense{ApprovalStep: 0}, nil, nil)
	assert.True(t, out.Satisfied)
}

func TestEvaluate_SpecificApprover(t *testing.T) {
	rule := domain.ApprovalRule{HasSpecificApprover: true, SpecificApproverID: strPtr("cfo")}

	out := approval.Evaluate(rule, domain.Expense{}, approvedEntries("m1", "m2"), approvers("m1", "m2", "cfo"))
	assert.False(t, out.Satisfied)
	assert.Empty(t, out.NextApproverID)

	out = approval.Evaluate(rule, domain.Expense{}, approvedEntries("cfo"), approvers("m1", "m2", "cfo"))
	assert.True(t, out.Satisfied)
}

func TestEvaluate_SpecificApproverRejectionDoesNotCount(t *testing.T) {
	rule := domain.ApprovalRule{HasSpecificApprover: true, SpecificApproverID: strPtr("cfo")}
	history := []domain.ApprovalHistoryEntry{{ApproverID: "cfo", Action: domain.ActionRejected}}

	out := approval.Evaluate(rule, domain.Expense{}, history, approvers("cfo"))
	assert.False(t, out.Satisfied)
}

func TestEvaluate_PercentageSixtyOfFive(t *testing.T) {
	rule := domain.ApprovalRule{MinApprovalPercentage: pct(60)}
	chain := approvers("a", "b", "c", "d", "e")

	out := approval.Evaluate(rule, domain.Expense{}, approvedEntries("a", "b"), chain)
	assert.False(t, out.Satisfied, "2/5 is 40%")

	out = approval.Evaluate(rule, domain.Expense{}, approvedEntries("a", "b", "c"), chain)
	assert.True(t, out.Satisfied, "3/5 is 60%")
}

func TestEvaluate_PercentageCountsDistinctApprovers(t *testing.T) {
	rule := domain.ApprovalRule{MinApprovalPercentage: pct(60)}
	chain := approvers("a", "b", "c", "d", "e")

	out := approval.Evaluate(rule, domain.Expense{}, approvedEntries("a", "a", "b", "b"), chain)
	assert.False(t, out.Satisfied)
}

func TestEvaluate_PercentageIsNotRounded(t *testing.T) {
	// 2/3 is 66.66..%, short of 66.67
	threshold := decimal.RequireFromString("66.67")
	rule := domain.ApprovalRule{MinApprovalPercentage: &threshold}

	out := approval.Evaluate(rule, domain.Expense{}, approvedEntries("a", "b"), approvers("a", "b", "c"))
	assert.False(t, out.Satisfied)

	threshold = decimal.RequireFromString("66.66")
	rule.MinApprovalPercentage = &threshold
	out = approval.Evaluate(rule, domain.Expense{}, approvedEntries("a", "b"), approvers("a", "b", "c"))
	assert.True(t, out.Satisfied)
}

func TestEvaluate_PercentageWithZeroApproversNeverSatisfied(t *testing.T) {
	for _, min := range []int64{0, 1, 50, 100} {
		rule := domain.ApprovalRule{MinApprovalPercentage: pct(min)}
		out := approval.Evaluate(rule, domain.Expense{}, approvedEntries("a", "b", "c", "d"), nil)
		assert.False(t, out.Satisfied, "min=%d", min)
		assert.Empty(t, out.NextApproverID)
	}
}

func TestEvaluate_HybridScenario(t *testing.T) {
	rule := domain.ApprovalRule{
		IsHybrid:              true,
		MinApprovalPercentage: pct(50),
		HasSpecificApprover:   true,
		SpecificApproverID:    strPtr("c"),
	}
	chain := approvers("a", "b", "c", "d")

	out := approval.Evaluate(rule, domain.Expense{}, approvedEntries("a", "b"), chain)
	assert.False(t, out.Satisfied, "half reached but specific approver missing")

	out = approval.Evaluate(rule, domain.Expense{}, approvedEntries("a", "b", "c"), chain)
	assert.True(t, out.Satisfied, "three quarters and specific approver met")
}

func TestEvaluate_HybridSpecificAloneIsNotEnough(t *testing.T) {
	rule := domain.ApprovalRule{
		IsHybrid:              true,
		MinApprovalPercentage: pct(75),
		HasSpecificApprover:   true,
		SpecificApproverID:    strPtr("c"),
	}
	out := approval.Evaluate(rule, domain.Expense{}, approvedEntries("c"), approvers("a", "b", "c", "d"))
	assert.False(t, out.Satisfied)
}

func TestEvaluate_HybridWithoutSpecificIsPercentage(t *testing.T) {
	rule := domain.ApprovalRule{IsHybrid: true, MinApprovalPercentage: pct(50)}
	chain := approvers("a", "b", "c", "d")

	assert.False(t, approval.Evaluate(rule, domain.Expense{}, approvedEntries("a"), chain).Satisfied)
	assert.True(t, approval.Evaluate(rule, domain.Expense{}, approvedEntries("a", "b"), chain).Satisfied)
}

func TestEvaluate_NoFlags(t *testing.T) {
	out := approval.Evaluate(domain.ApprovalRule{}, domain.Expense{ApprovalStep: 3}, approvedEntries("a", "b"), approvers("a", "b"))
	assert.False(t, out.Satisfied)
	assert.Empty(t, out.NextApproverID)
	assert.NotEmpty(t, out.Reason)
}

func TestEvaluate_SequentialSatisfiedBySpecificApprover(t *testing.T) {
	rule := domain.ApprovalRule{UseApproverSequence: true, HasSpecificApprover: true, SpecificApproverID: strPtr("ceo")}
	out := approval.Evaluate(rule, domain.Expense{ApprovalStep: 0}, approvedEntries("ceo"), approvers("m1", "m2"))
	assert.True(t, out.Satisfied)
	assert.Empty(t, out.NextApproverID)
}

func TestChainPosition(t *testing.T) {
	chain := approvers("m1", "m2", "m3")

	assert.Equal(t, 0, approval.ChainPosition(nil, chain))
	assert.Equal(t, 1, approval.ChainPosition(approvedEntries("m1"), chain))
	assert.Equal(t, 2, approval.ChainPosition(approvedEntries("mgr", "m1", "m2"), chain))
	// m2 approved out of order, so the chain still waits on m1
	assert.Equal(t, 0, approval.ChainPosition(approvedEntries("m2"), chain))
	assert.Equal(t, 3, approval.ChainPosition(approvedEntries("m2", "m1", "m3"), chain))
}

func TestApprovedPercentage(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(approval.ApprovedPercentage(approvedEntries("a"), 0)))
	assert.True(t, decimal.NewFromInt(50).Equal(approval.ApprovedPercentage(approvedEntries("a", "b"), 4)))
}

func TestDecide(t *testing.T) {
	t.Run("no rules approves", func(t *testing.T) {
		d := approval.Decide(nil)
		assert.Equal(t, approval.FullyApproved, d.Kind)
		assert.Empty(t, d.RuleID)
	})

	t.Run("any satisfied rule approves", func(t *testing.T) {
		d := approval.Decide([]approval.RuleResult{
			{RuleID: "seq", Outcome: approval.Outcome{NextApproverID: "m2"}},
			{RuleID: "pct", Outcome: approval.Outcome{Satisfied: true}},
		})
		assert.Equal(t, approval.FullyApproved, d.Kind)
		assert.Equal(t, "pct", d.RuleID)
	})

	t.Run("first next approver wins", func(t *testing.T) {
		d := approval.Decide([]approval.RuleResult{
			{RuleID: "pct", Outcome: approval.Outcome{}},
			{RuleID: "seq-a", Outcome: approval.Outcome{NextApproverID: "m2"}},
			{RuleID: "seq-b", Outcome: approval.Outcome{NextApproverID: "m9"}},
		})
		require.Equal(t, approval.Advance, d.Kind)
		assert.Equal(t, "m2", d.NextApproverID)
		assert.Equal(t, "seq-a", d.RuleID)
	})

	t.Run("nothing to do stalls", func(t *testing.T) {
		d := approval.Decide([]approval.RuleResult{{RuleID: "pct", Outcome: approval.Outcome{Reason: "approval percentage not reached"}}})
		assert.Equal(t, approval.Stalled, d.Kind)
		assert.Empty(t, d.NextApproverID)
	})
}
