package approval

// DecisionKind is the aggregated result over all rules linked to an expense.
type DecisionKind string

const (
	// FullyApproved means no rules are linked or at least one linked rule is satisfied.
	FullyApproved DecisionKind = "fully_approved"
	// Advance means the expense moves on to NextApproverID.
	Advance DecisionKind = "advance"
	// Stalled means no rule is satisfied and none names a next approver. The expense stays with its
	// current approver.
	Stalled DecisionKind = "stalled"
)

// RuleResult pairs a rule with its evaluated outcome.
type RuleResult struct {
	RuleID  string
	Outcome Outcome
}

// Decision is what the orchestrator should do with the expense.
type Decision struct {
	Kind           DecisionKind
	NextApproverID string
	RuleID         string // rule that produced the decision, empty when no rules are linked
	Reason         string
}

// Decide aggregates per-rule outcomes, given in link order. Any satisfied rule approves the expense.
// Otherwise the first rule naming a next approver wins, so later rules that disagree are ignored.
func Decide(results []RuleResult) Decision {
	if len(results) == 0 {
		return Decision{Kind: FullyApproved, Reason: "no approval rules linked"}
	}
	for _, r := range results {
		if r.Outcome.Satisfied {
			return Decision{Kind: FullyApproved, RuleID: r.RuleID, Reason: r.Outcome.Reason}
		}
	}
	for _, r := range results {
		if r.Outcome.HasNextApprover() {
			return Decision{Kind: Advance, NextApproverID: r.Outcome.NextApproverID, RuleID: r.RuleID, Reason: r.Outcome.Reason}
		}
	}
	return Decision{Kind: Stalled, Reason: results[0].Outcome.Reason}
}
