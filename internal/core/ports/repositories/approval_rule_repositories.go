package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ApprovalRuleReader defines read operations for approval rules
type ApprovalRuleReader interface {
	// FindRuleByID retrieves a rule by its ID.
	FindRuleByID(ctx context.Context, ruleID string) (*domain.ApprovalRule, error)

	// ListRulesByCompany retrieves a company's rules ordered by name.
	ListRulesByCompany(ctx context.Context, companyID string, includeInactive bool) ([]domain.ApprovalRule, error)

	// FindApproversForRule retrieves the configured approvers of a rule ordered by sequence order.
	FindApproversForRule(ctx context.Context, ruleID string) ([]domain.RuleApprover, error)

	// FindDefaultRule retrieves the company's active default rule.
	FindDefaultRule(ctx context.Context, companyID string) (*domain.ApprovalRule, error)

	// FindRulesForExpense retrieves the active rules linked to an expense in link creation order.
	FindRulesForExpense(ctx context.Context, expenseID string) ([]domain.ApprovalRule, error)

	// CountOpenExpensesForRule counts the linked expenses that are not yet approved or rejected.
	CountOpenExpensesForRule(ctx context.Context, ruleID string) (int, error)
}

// ApprovalRuleWriter defines write operations for approval rules
type ApprovalRuleWriter interface {
	// SaveRule persists a new rule together with its approvers.
	SaveRule(ctx context.Context, rule domain.ApprovalRule, approvers []domain.RuleApprover) error

	// UpdateRule updates the mutable fields of a rule, guarded by rule.Version.
	UpdateRule(ctx context.Context, rule domain.ApprovalRule) error

	// DeleteRule removes a rule with its approvers and expense links.
	DeleteRule(ctx context.Context, ruleID string) error

	// AddApprover adds an approver to a rule. Adding the same user twice fails with apperrors.ErrDuplicate.
	AddApprover(ctx context.Context, approver domain.RuleApprover) error

	// RemoveApprover removes a user from a rule's approver list.
	RemoveApprover(ctx context.Context, ruleID, userID string) error

	// SetDefaultRule makes ruleID the only default rule of its company.
	SetDefaultRule(ctx context.Context, companyID, ruleID, updatedBy string, updatedAt time.Time) error
}

// ApprovalRuleTxOperations are the rule operations that take part in a caller-managed transaction.
type ApprovalRuleTxOperations interface {
	// FindRulesForExpenseInTx is FindRulesForExpense within tx.
	FindRulesForExpenseInTx(ctx context.Context, tx pgx.Tx, expenseID string) ([]domain.ApprovalRule, error)

	// FindApproversForRuleInTx is FindApproversForRule within tx.
	FindApproversForRuleInTx(ctx context.Context, tx pgx.Tx, ruleID string) ([]domain.RuleApprover, error)

	// LinkRuleToExpenseInTx associates a rule with an expense. Linking twice is a no-op.
	LinkRuleToExpenseInTx(ctx context.Context, tx pgx.Tx, expenseID, ruleID, linkedBy string, linkedAt time.Time) error
}

// ApprovalRuleRepositoryFacade combines all approval rule repository interfaces
type ApprovalRuleRepositoryFacade interface {
	ApprovalRuleReader
	ApprovalRuleWriter
	ApprovalRuleTxOperations
}

// ApprovalRuleRepositoryWithTx extends ApprovalRuleRepositoryFacade with transaction capabilities
type ApprovalRuleRepositoryWithTx interface {
	ApprovalRuleRepositoryFacade
	TransactionManager
}
