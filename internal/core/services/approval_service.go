package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/SscSPs/expense_approval_app/internal/core/approval"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
)

// EventRecorder captures product analytics events. utils.PosthogClientWrapper implements it.
type EventRecorder interface {
	Enqueue(distinctID string, event string, properties map[string]any)
}

// approvalService drives expenses through their approval workflow.
type approvalService struct {
	BaseService
	expenseRepo portsrepo.ExpenseRepositoryWithTx
	ruleRepo    portsrepo.ApprovalRuleRepositoryFacade
	historyRepo portsrepo.ApprovalHistoryRepositoryFacade
	companyRepo portsrepo.CompanyReader
	converter   portssvc.CurrencyConverter
	notifier    portssvc.Notifier
	events      EventRecorder
	now         func() time.Time
}

// ApprovalServiceOption is a functional option for configuring the approval service
type ApprovalServiceOption func(*approvalService)

// WithApprovalNotifier sets where approval notifications are sent.
func WithApprovalNotifier(n portssvc.Notifier) ApprovalServiceOption {
	return func(s *approvalService) {
		s.notifier = n
	}
}

// WithApprovalEvents sets the analytics recorder for approval actions.
func WithApprovalEvents(r EventRecorder) ApprovalServiceOption {
	return func(s *approvalService) {
		s.events = r
	}
}

// WithApprovalClock overrides the time source.
func WithApprovalClock(now func() time.Time) ApprovalServiceOption {
	return func(s *approvalService) {
		s.now = now
	}
}

// NewApprovalService creates the approval workflow service.
func NewApprovalService(
	expenseRepo portsrepo.ExpenseRepositoryWithTx,
	ruleRepo portsrepo.ApprovalRuleRepositoryFacade,
	historyRepo portsrepo.ApprovalHistoryRepositoryFacade,
	userRepo portsrepo.UserReader,
	companyRepo portsrepo.CompanyReader,
	converter portssvc.CurrencyConverter,
	options ...ApprovalServiceOption,
) portssvc.ApprovalSvcFacade {
	s := &approvalService{
		BaseService: BaseService{Users: userRepo},
		expenseRepo: expenseRepo,
		ruleRepo:    ruleRepo,
		historyRepo: historyRepo,
		companyRepo: companyRepo,
		converter:   converter,
		now:         time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

var _ portssvc.ApprovalSvcFacade = (*approvalService)(nil)

// ApproveExpense records an approval and applies the expense's linked rules.
func (s *approvalService) ApproveExpense(ctx context.Context, expenseID, actorID, comments string) (result *domain.Expense, err error) {
	ctx, span := s.StartSpan(ctx, "ApprovalService.ApproveExpense",
		attribute.String("expense.id", expenseID), attribute.String("actor.id", actorID))
	defer func() { s.EndSpan(span, err) }()

	var decision approval.Decision
	err = RunInTx(ctx, s.expenseRepo, func(tx pgx.Tx) error {
		expense, err := s.expenseRepo.FindExpenseByIDForUpdate(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		if err := checkActionable(expense, actorID); err != nil {
			return err
		}

		now := s.now()
		entry := domain.ApprovalHistoryEntry{
			EntryID:    uuid.NewString(),
			ExpenseID:  expense.ExpenseID,
			ApproverID: actorID,
			Action:     domain.ActionApproved,
			Comments:   strings.TrimSpace(comments),
			StepNumber: expense.ApprovalStep,
			ActionedAt: now,
		}
		if err := s.historyRepo.AppendEntryInTx(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to record approval: %w", err)
		}

		decision, err = s.evaluateRules(ctx, tx, expense)
		if err != nil {
			return err
		}

		switch decision.Kind {
		case approval.FullyApproved:
			converted, err := convertExpenseAmount(ctx, s.companyRepo, s.converter, expense)
			if err != nil {
				return err
			}
			expense.CompleteApproval(converted, actorID, now)
		case approval.Advance:
			expense.AdvanceTo(decision.NextApproverID, actorID, now)
		default:
			// history is recorded but nobody new can act; the expense stays with its approver
			s.LogWarn(ctx, "Approval recorded but no rule can make progress",
				slog.String("expense_id", expense.ExpenseID),
				slog.String("reason", decision.Reason))
			result = expense
			return nil
		}

		if err := s.expenseRepo.UpdateExpenseStateInTx(ctx, tx, *expense); err != nil {
			return fmt.Errorf("failed to update expense state: %w", err)
		}
		expense.Version++
		result = expense
		return nil
	})
	if err != nil {
		s.logActionFailure(ctx, err, "approve", expenseID, actorID)
		return nil, err
	}

	s.LogInfo(ctx, "Expense approval recorded",
		slog.String("expense_id", result.ExpenseID),
		slog.String("decision", string(decision.Kind)),
		slog.String("rule_id", decision.RuleID),
		slog.String("status", string(result.Status)))
	span.SetAttributes(attribute.String("approval.decision", string(decision.Kind)))

	s.afterApproval(ctx, result, actorID, decision)
	return result, nil
}

// RejectExpense records a rejection, which vetoes the expense regardless of rules or prior approvals.
func (s *approvalService) RejectExpense(ctx context.Context, expenseID, actorID, comments string) (result *domain.Expense, err error) {
	ctx, span := s.StartSpan(ctx, "ApprovalService.RejectExpense",
		attribute.String("expense.id", expenseID), attribute.String("actor.id", actorID))
	defer func() { s.EndSpan(span, err) }()

	comments = strings.TrimSpace(comments)
	if comments == "" {
		return nil, fmt.Errorf("%w: comments are required when rejecting an expense", apperrors.ErrValidation)
	}

	err = RunInTx(ctx, s.expenseRepo, func(tx pgx.Tx) error {
		expense, err := s.expenseRepo.FindExpenseByIDForUpdate(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		if err := checkActionable(expense, actorID); err != nil {
			return err
		}

		now := s.now()
		entry := domain.ApprovalHistoryEntry{
			EntryID:    uuid.NewString(),
			ExpenseID:  expense.ExpenseID,
			ApproverID: actorID,
			Action:     domain.ActionRejected,
			Comments:   comments,
			StepNumber: expense.ApprovalStep,
			ActionedAt: now,
		}
		if err := s.historyRepo.AppendEntryInTx(ctx, tx, entry); err != nil {
			return fmt.Errorf("failed to record rejection: %w", err)
		}

		expense.MarkRejected(actorID, now)
		if err := s.expenseRepo.UpdateExpenseStateInTx(ctx, tx, *expense); err != nil {
			return fmt.Errorf("failed to update expense state: %w", err)
		}
		expense.Version++
		result = expense
		return nil
	})
	if err != nil {
		s.logActionFailure(ctx, err, "reject", expenseID, actorID)
		return nil, err
	}

	s.LogInfo(ctx, "Expense rejected", slog.String("expense_id", result.ExpenseID))
	s.afterRejection(ctx, result, actorID, comments)
	return result, nil
}

// ListPendingApprovals lists the expenses currently waiting on approverID.
func (s *approvalService) ListPendingApprovals(ctx context.Context, approverID string) ([]domain.Expense, error) {
	expenses, err := s.expenseRepo.ListPendingForApprover(ctx, approverID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list pending approvals", slog.String("approver_id", approverID))
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return expenses, nil
}

// GetApprovalHistory returns the ledger of an expense to someone entitled to see the expense.
func (s *approvalService) GetApprovalHistory(ctx context.Context, expenseID, requestingUserID string) ([]domain.ApprovalHistoryEntry, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	entries, err := s.historyRepo.FindEntriesByExpenseID(ctx, expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approval history: %w", err)
	}

	if expense.EmployeeID != requestingUserID && !expense.IsAwaiting(requestingUserID) && !hasActed(entries, requestingUserID) {
		actor, err := s.LoadActor(ctx, requestingUserID)
		if err != nil {
			return nil, err
		}
		if actor.CompanyID != expense.CompanyID || !actor.CanReviewExpenses() {
			return nil, fmt.Errorf("%w: not allowed to view expense %s", apperrors.ErrForbidden, expenseID)
		}
	}
	return entries, nil
}

// evaluateRules runs every linked rule against the expense's history, read inside tx.
func (s *approvalService) evaluateRules(ctx context.Context, tx pgx.Tx, expense *domain.Expense) (approval.Decision, error) {
	history, err := s.historyRepo.FindEntriesByExpenseIDInTx(ctx, tx, expense.ExpenseID)
	if err != nil {
		return approval.Decision{}, fmt.Errorf("failed to load approval history: %w", err)
	}
	rules, err := s.ruleRepo.FindRulesForExpenseInTx(ctx, tx, expense.ExpenseID)
	if err != nil {
		return approval.Decision{}, fmt.Errorf("failed to load approval rules: %w", err)
	}

	results := make([]approval.RuleResult, 0, len(rules))
	for _, rule := range rules {
		approvers, err := s.ruleRepo.FindApproversForRuleInTx(ctx, tx, rule.RuleID)
		if err != nil {
			return approval.Decision{}, fmt.Errorf("failed to load approvers of rule %s: %w", rule.RuleID, err)
		}

		view := *expense
		if rule.UseApproverSequence {
			// the chain cursor counts approvals through this rule's chain, including the one just recorded
			view.ApprovalStep = approval.ChainPosition(history, approvers)
		}
		outcome := approval.Evaluate(rule, view, history, approvers)
		attrs := []any{
			slog.String("rule_id", rule.RuleID),
			slog.Bool("satisfied", outcome.Satisfied),
			slog.String("next_approver_id", outcome.NextApproverID),
			slog.String("reason", outcome.Reason),
		}
		if rule.MinApprovalPercentage != nil {
			attrs = append(attrs,
				slog.String("approved_pct", approval.ApprovedPercentage(history, len(approvers)).StringFixed(2)),
				slog.String("min_pct", rule.MinApprovalPercentage.String()))
		}
		s.LogDebug(ctx, "Evaluated approval rule", attrs...)

		results = append(results, approval.RuleResult{RuleID: rule.RuleID, Outcome: outcome})
		if outcome.Satisfied {
			break
		}
	}
	return approval.Decide(results), nil
}

func (s *approvalService) afterApproval(ctx context.Context, expense *domain.Expense, actorID string, decision approval.Decision) {
	actorName := s.displayName(ctx, actorID)
	now := s.now()

	notes := []domain.Notification{
		newNotification(expense.EmployeeID, expense.ExpenseID, domain.NotificationStepApproved, now,
			"Expense approved by "+actorName,
			fmt.Sprintf("%s approved your expense %q.", actorName, expense.Description)),
	}
	event := "expense_step_approved"

	switch decision.Kind {
	case approval.FullyApproved:
		event = "expense_approved"
		msg := fmt.Sprintf("Your expense %q has been fully approved.", expense.Description)
		if expense.ConvertedAmount != nil {
			msg = fmt.Sprintf("Your expense %q has been fully approved for %s.", expense.Description, expense.ConvertedAmount.StringFixed(2))
		}
		notes = append(notes, newNotification(expense.EmployeeID, expense.ExpenseID, domain.NotificationExpenseApproved, now,
			"Expense fully approved", msg))
	case approval.Advance:
		notes = append(notes, newNotification(decision.NextApproverID, expense.ExpenseID, domain.NotificationApprovalRequest, now,
			"Expense awaiting your approval",
			fmt.Sprintf("An expense of %s (%q) needs your approval.", utils.FormatMoney(expense.Amount, expense.CurrencyCode), expense.Description)))
	}

	s.dispatch(ctx, notes)
	s.record(actorID, event, expense, map[string]any{"decision": string(decision.Kind), "rule_id": decision.RuleID})
}

func (s *approvalService) afterRejection(ctx context.Context, expense *domain.Expense, actorID, reason string) {
	actorName := s.displayName(ctx, actorID)
	s.dispatch(ctx, []domain.Notification{
		newNotification(expense.EmployeeID, expense.ExpenseID, domain.NotificationExpenseRejected, s.now(),
			"Expense rejected",
			fmt.Sprintf("%s rejected your expense %q: %s", actorName, expense.Description, reason)),
	})
	s.record(actorID, "expense_rejected", expense, nil)
}

func (s *approvalService) dispatch(ctx context.Context, notes []domain.Notification) {
	if s.notifier == nil {
		return
	}
	for _, n := range notes {
		s.notifier.Notify(ctx, n)
	}
}

func (s *approvalService) record(actorID, event string, expense *domain.Expense, props map[string]any) {
	if s.events == nil {
		return
	}
	if props == nil {
		props = map[string]any{}
	}
	props["expense_id"] = expense.ExpenseID
	props["company_id"] = expense.CompanyID
	props["approval_step"] = expense.ApprovalStep
	props["status"] = string(expense.Status)
	s.events.Enqueue(actorID, event, props)
}

// displayName is best effort; notifications fall back to the user ID.
func (s *approvalService) displayName(ctx context.Context, userID string) string {
	if s.Users == nil {
		return userID
	}
	u, err := s.Users.FindUserByID(ctx, userID)
	if err != nil || u.Name == "" {
		return userID
	}
	return u.Name
}

func (s *approvalService) logActionFailure(ctx context.Context, err error, action, expenseID, actorID string) {
	attrs := []any{slog.String("action", action), slog.String("expense_id", expenseID), slog.String("actor_id", actorID)}
	switch {
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrForbidden),
		errors.Is(err, apperrors.ErrInvalidState), errors.Is(err, apperrors.ErrValidation):
		s.LogWarn(ctx, "Approval action refused", append(attrs, slog.String("error", err.Error()))...)
	default:
		s.LogError(ctx, err, "Approval action failed", attrs...)
	}
}

// checkActionable enforces that expense is pending and actorID is its current approver.
func checkActionable(expense *domain.Expense, actorID string) error {
	if expense.Status != domain.ExpensePendingApproval {
		return fmt.Errorf("%w: expense %s is %s, not pending approval", apperrors.ErrInvalidState, expense.ExpenseID, expense.Status)
	}
	if !expense.IsAwaiting(actorID) {
		return fmt.Errorf("%w: user %s is not the current approver of expense %s", apperrors.ErrForbidden, actorID, expense.ExpenseID)
	}
	return nil
}

func hasActed(entries []domain.ApprovalHistoryEntry, userID string) bool {
	for _, e := range entries {
		if e.ApproverID == userID {
			return true
		}
	}
	return false
}
