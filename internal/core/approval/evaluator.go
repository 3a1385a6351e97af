// Package approval holds the pure decision logic of the expense approval workflow.
// Nothing in here performs I/O; callers fetch rules, approvers and history and pass them in.
package approval

import (
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Outcome is the result of evaluating a single rule.
// NextApproverID is only set when the rule is not satisfied and a sequential chain names who acts next.
type Outcome struct {
	Satisfied      bool
	NextApproverID string
	Reason         string
}

// HasNextApprover reports whether the outcome routes the expense to someone.
func (o Outcome) HasNextApprover() bool {
	return !o.Satisfied && o.NextApproverID != ""
}

// Evaluate decides whether rule is currently met for expense given its approval history.
// approvers must be ordered by sequence order. Any combination of rule flags yields a definite
// outcome; a rule with no usable condition is simply not satisfied.
func Evaluate(rule domain.ApprovalRule, expense domain.Expense, history []domain.ApprovalHistoryEntry, approvers []domain.RuleApprover) Outcome {
	var out Outcome

	if rule.UseApproverSequence {
		step := expense.ApprovalStep
		if step < 0 {
			step = 0
		}
		if step >= len(approvers) {
			return Outcome{Satisfied: true, Reason: "approver sequence exhausted"}
		}
		out.NextApproverID = approvers[step].UserID
		out.Reason = "awaiting next approver in sequence"
	}

	specificMet := rule.HasSpecificApprover && specificApproverApproved(rule, history)
	if specificMet && !rule.IsHybrid {
		return Outcome{Satisfied: true, Reason: "specific approver approved"}
	}

	if rule.MinApprovalPercentage != nil && !rule.IsHybrid {
		if percentageMet(*rule.MinApprovalPercentage, history, len(approvers)) {
			return Outcome{Satisfied: true, Reason: "approval percentage reached"}
		}
		if out.Reason == "" {
			out.Reason = "approval percentage not reached"
		}
	}

	if rule.IsHybrid {
		threshold := decimal.Zero
		if rule.MinApprovalPercentage != nil {
			threshold = *rule.MinApprovalPercentage
		}
		pctMet := percentageMet(threshold, history, len(approvers))
		if pctMet && (!rule.HasSpecificApprover || specificMet) {
			return Outcome{Satisfied: true, Reason: "hybrid condition met"}
		}
		if out.Reason == "" {
			out.Reason = "hybrid condition not met"
		}
	}

	if out.Reason == "" && rule.HasSpecificApprover {
		out.Reason = "specific approver has not approved"
	}
	if out.Reason == "" {
		out.Reason = "rule has no approval condition"
	}
	return out
}

// ChainPosition returns how far an expense has advanced through an ordered approver chain: the length
// of the longest prefix of approvers that all have an approved entry in history.
func ChainPosition(history []domain.ApprovalHistoryEntry, approvers []domain.RuleApprover) int {
	approved := approvedBy(history)
	pos := 0
	for _, a := range approvers {
		if _, ok := approved[a.UserID]; !ok {
			break
		}
		pos++
	}
	return pos
}

// ApprovedPercentage returns the share of configured approvers, 0-100, with an approval on record.
// It is zero when no approvers are configured.
func ApprovedPercentage(history []domain.ApprovalHistoryEntry, totalApprovers int) decimal.Decimal {
	if totalApprovers <= 0 {
		return decimal.Zero
	}
	count := decimal.NewFromInt(int64(len(approvedBy(history))))
	return count.Mul(hundred).Div(decimal.NewFromInt(int64(totalApprovers)))
}

func percentageMet(min decimal.Decimal, history []domain.ApprovalHistoryEntry, total int) bool {
	if total <= 0 {
		return false
	}
	// approved/total*100 >= min, compared without division
	approved := decimal.NewFromInt(int64(len(approvedBy(history))))
	return approved.Mul(hundred).GreaterThanOrEqual(min.Mul(decimal.NewFromInt(int64(total))))
}

func specificApproverApproved(rule domain.ApprovalRule, history []domain.ApprovalHistoryEntry) bool {
	if rule.SpecificApproverID == nil {
		return false
	}
	_, ok := approvedBy(history)[*rule.SpecificApproverID]
	return ok
}

// approvedBy returns the distinct approvers with an approved entry.
func approvedBy(history []domain.ApprovalHistoryEntry) map[string]struct{} {
	ids := make(map[string]struct{}, len(history))
	for _, h := range history {
		if h.Action == domain.ActionApproved {
			ids[h.ApproverID] = struct{}{}
		}
	}
	return ids
}
