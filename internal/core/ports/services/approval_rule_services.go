package services

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/SscSPs/expense_approval_app/internal/dto"
)

// ApprovalRuleWithApprovers bundles a rule with its ordered approver list.
type ApprovalRuleWithApprovers struct {
	Rule      domain.ApprovalRule
	Approvers []domain.RuleApprover
}

// ApprovalRuleReaderSvc defines read operations for approval rules
type ApprovalRuleReaderSvc interface {
	// GetRule retrieves a rule of the requesting user's company.
	GetRule(ctx context.Context, ruleID, requestingUserID string) (*ApprovalRuleWithApprovers, error)

	// ListRules lists the rules of the requesting user's company.
	ListRules(ctx context.Context, requestingUserID string, includeInactive bool) ([]ApprovalRuleWithApprovers, error)
}

// ApprovalRuleWriterSvc defines admin-only write operations for approval rules
type ApprovalRuleWriterSvc interface {
	CreateRule(ctx context.Context, req dto.CreateApprovalRuleRequest, requestingUserID string) (*ApprovalRuleWithApprovers, error)
	UpdateRule(ctx context.Context, ruleID string, patch domain.ApprovalRulePatch, requestingUserID string) (*ApprovalRuleWithApprovers, error)
	DeleteRule(ctx context.Context, ruleID, requestingUserID string) error
	AddApprover(ctx context.Context, ruleID string, req dto.RuleApproverRequest, requestingUserID string) (*ApprovalRuleWithApprovers, error)
	RemoveApprover(ctx context.Context, ruleID, userID, requestingUserID string) error
	SetDefaultRule(ctx context.Context, ruleID, requestingUserID string) error
}

// ApprovalRuleLinkerSvc associates rules with expenses.
type ApprovalRuleLinkerSvc interface {
	// LinkRuleToExpense links an active rule of the expense's company to a non-terminal expense.
	// At most one sequential rule may be linked to an expense.
	LinkRuleToExpense(ctx context.Context, expenseID, ruleID, requestingUserID string) error
}

// ApprovalRuleSvcFacade combines all approval rule service interfaces
type ApprovalRuleSvcFacade interface {
	ApprovalRuleReaderSvc
	ApprovalRuleWriterSvc
	ApprovalRuleLinkerSvc
}
