package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type approvalRuleService struct {
	BaseService
	ruleRepo    portsrepo.ApprovalRuleRepositoryFacade
	expenseRepo portsrepo.ExpenseRepositoryWithTx
	now         func() time.Time
}

// ApprovalRuleServiceOption is a functional option for configuring the approval rule service
type ApprovalRuleServiceOption func(*approvalRuleService)

// WithApprovalRuleClock overrides the time source.
func WithApprovalRuleClock(now func() time.Time) ApprovalRuleServiceOption {
	return func(s *approvalRuleService) {
		s.now = now
	}
}

// NewApprovalRuleService creates the approval rule management service.
func NewApprovalRuleService(
	ruleRepo portsrepo.ApprovalRuleRepositoryFacade,
	expenseRepo portsrepo.ExpenseRepositoryWithTx,
	userRepo portsrepo.UserReader,
	options ...ApprovalRuleServiceOption,
) portssvc.ApprovalRuleSvcFacade {
	s := &approvalRuleService{
		BaseService: BaseService{Users: userRepo},
		ruleRepo:    ruleRepo,
		expenseRepo: expenseRepo,
		now:         time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

var _ portssvc.ApprovalRuleSvcFacade = (*approvalRuleService)(nil)

// CreateRule creates a rule of the admin's company with its approvers.
func (s *approvalRuleService) CreateRule(ctx context.Context, req dto.CreateApprovalRuleRequest, requestingUserID string) (*portssvc.ApprovalRuleWithApprovers, error) {
	admin, err := s.RequireAdmin(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rule := domain.ApprovalRule{
		RuleID:                uuid.NewString(),
		CompanyID:             admin.CompanyID,
		Name:                  strings.TrimSpace(req.Name),
		Description:           strings.TrimSpace(req.Description),
		UseApproverSequence:   req.UseApproverSequence,
		HasSpecificApprover:   req.HasSpecificApprover,
		SpecificApproverID:    req.SpecificApproverID,
		MinApprovalPercentage: req.MinApprovalPercentage,
		IsHybrid:              req.IsHybrid,
		IsActive:              true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     admin.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: admin.UserID,
			Version:       1,
		},
	}
	if err := s.validateRule(ctx, rule); err != nil {
		return nil, err
	}

	approvers := make([]domain.RuleApprover, 0, len(req.Approvers))
	seen := make(map[string]struct{}, len(req.Approvers))
	for i, a := range req.Approvers {
		if _, dup := seen[a.UserID]; dup {
			return nil, fmt.Errorf("%w: approver %s listed more than once", apperrors.ErrValidation, a.UserID)
		}
		seen[a.UserID] = struct{}{}
		if err := s.checkCompanyMember(ctx, admin.CompanyID, a.UserID); err != nil {
			return nil, err
		}
		order := a.SequenceOrder
		if order == 0 {
			order = i + 1
		}
		approvers = append(approvers, domain.RuleApprover{
			RuleID:        rule.RuleID,
			UserID:        a.UserID,
			SequenceOrder: order,
			IsRequired:    a.IsRequired,
		})
	}

	if err := s.ruleRepo.SaveRule(ctx, rule, approvers); err != nil {
		s.LogError(ctx, err, "Failed to save approval rule", slog.String("company_id", admin.CompanyID))
		return nil, fmt.Errorf("failed to create approval rule: %w", err)
	}
	if req.IsDefault {
		if err := s.ruleRepo.SetDefaultRule(ctx, admin.CompanyID, rule.RuleID, admin.UserID, now); err != nil {
			return nil, fmt.Errorf("failed to set default approval rule: %w", err)
		}
	}

	s.LogInfo(ctx, "Approval rule created", slog.String("rule_id", rule.RuleID), slog.Int("approvers", len(approvers)))
	return s.loadRule(ctx, rule.RuleID, admin.CompanyID)
}

// GetRule retrieves a rule of the requesting user's company.
func (s *approvalRuleService) GetRule(ctx context.Context, ruleID, requestingUserID string) (*portssvc.ApprovalRuleWithApprovers, error) {
	actor, err := s.LoadActor(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	return s.loadRule(ctx, ruleID, actor.CompanyID)
}

// ListRules lists the rules of the requesting user's company. Only admins see inactive rules.
func (s *approvalRuleService) ListRules(ctx context.Context, requestingUserID string, includeInactive bool) ([]portssvc.ApprovalRuleWithApprovers, error) {
	actor, err := s.LoadActor(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	rules, err := s.ruleRepo.ListRulesByCompany(ctx, actor.CompanyID, includeInactive && actor.IsAdmin())
	if err != nil {
		return nil, fmt.Errorf("failed to list approval rules: %w", err)
	}

	out := make([]portssvc.ApprovalRuleWithApprovers, 0, len(rules))
	for _, rule := range rules {
		approvers, err := s.ruleRepo.FindApproversForRule(ctx, rule.RuleID)
		if err != nil {
			return nil, fmt.Errorf("failed to load approvers of rule %s: %w", rule.RuleID, err)
		}
		out = append(out, portssvc.ApprovalRuleWithApprovers{Rule: rule, Approvers: approvers})
	}
	return out, nil
}

// UpdateRule applies a partial update to a rule.
func (s *approvalRuleService) UpdateRule(ctx context.Context, ruleID string, patch domain.ApprovalRulePatch, requestingUserID string) (*portssvc.ApprovalRuleWithApprovers, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrValidation)
	}
	admin, err := s.RequireAdmin(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	rule, err := s.findCompanyRule(ctx, ruleID, admin.CompanyID)
	if err != nil {
		return nil, err
	}
	if patch.ChangesEvaluation() {
		if err := s.ensureNoOpenExpenses(ctx, ruleID); err != nil {
			return nil, err
		}
	}

	patch.Apply(rule)
	if rule.Name = strings.TrimSpace(rule.Name); rule.Name == "" {
		return nil, fmt.Errorf("%w: rule name is required", apperrors.ErrValidation)
	}
	if err := s.validateRule(ctx, *rule); err != nil {
		return nil, err
	}
	rule.LastUpdatedAt = s.now()
	rule.LastUpdatedBy = admin.UserID

	if err := s.ruleRepo.UpdateRule(ctx, *rule); err != nil {
		return nil, fmt.Errorf("failed to update approval rule: %w", err)
	}
	s.LogInfo(ctx, "Approval rule updated", slog.String("rule_id", ruleID))
	return s.loadRule(ctx, ruleID, admin.CompanyID)
}

// DeleteRule removes a rule that no open expense depends on. Finished expenses it was linked to
// keep their history but lose the link.
func (s *approvalRuleService) DeleteRule(ctx context.Context, ruleID, requestingUserID string) error {
	admin, err := s.RequireAdmin(ctx, requestingUserID)
	if err != nil {
		return err
	}
	if _, err := s.findCompanyRule(ctx, ruleID, admin.CompanyID); err != nil {
		return err
	}
	if err := s.ensureNoOpenExpenses(ctx, ruleID); err != nil {
		return err
	}
	if err := s.ruleRepo.DeleteRule(ctx, ruleID); err != nil {
		return fmt.Errorf("failed to delete approval rule: %w", err)
	}
	s.LogInfo(ctx, "Approval rule deleted", slog.String("rule_id", ruleID))
	return nil
}

// AddApprover appends or inserts an approver into a rule's list.
func (s *approvalRuleService) AddApprover(ctx context.Context, ruleID string, req dto.RuleApproverRequest, requestingUserID string) (*portssvc.ApprovalRuleWithApprovers, error) {
	admin, err := s.RequireAdmin(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.findCompanyRule(ctx, ruleID, admin.CompanyID); err != nil {
		return nil, err
	}
	if err := s.ensureNoOpenExpenses(ctx, ruleID); err != nil {
		return nil, err
	}
	if err := s.checkCompanyMember(ctx, admin.CompanyID, req.UserID); err != nil {
		return nil, err
	}

	order := req.SequenceOrder
	if order == 0 {
		existing, err := s.ruleRepo.FindApproversForRule(ctx, ruleID)
		if err != nil {
			return nil, fmt.Errorf("failed to load approvers of rule %s: %w", ruleID, err)
		}
		order = 1
		for _, a := range existing {
			if a.SequenceOrder >= order {
				order = a.SequenceOrder + 1
			}
		}
	}

	if err := s.ruleRepo.AddApprover(ctx, domain.RuleApprover{
		RuleID:        ruleID,
		UserID:        req.UserID,
		SequenceOrder: order,
		IsRequired:    req.IsRequired,
	}); err != nil {
		return nil, fmt.Errorf("failed to add approver: %w", err)
	}
	return s.loadRule(ctx, ruleID, admin.CompanyID)
}

// RemoveApprover removes a user from a rule's approver list.
func (s *approvalRuleService) RemoveApprover(ctx context.Context, ruleID, userID, requestingUserID string) error {
	admin, err := s.RequireAdmin(ctx, requestingUserID)
	if err != nil {
		return err
	}
	if _, err := s.findCompanyRule(ctx, ruleID, admin.CompanyID); err != nil {
		return err
	}
	if err := s.ensureNoOpenExpenses(ctx, ruleID); err != nil {
		return err
	}
	if err := s.ruleRepo.RemoveApprover(ctx, ruleID, userID); err != nil {
		return fmt.Errorf("failed to remove approver: %w", err)
	}
	return nil
}

// SetDefaultRule makes an active rule the one linked to new submissions.
func (s *approvalRuleService) SetDefaultRule(ctx context.Context, ruleID, requestingUserID string) error {
	admin, err := s.RequireAdmin(ctx, requestingUserID)
	if err != nil {
		return err
	}
	rule, err := s.findCompanyRule(ctx, ruleID, admin.CompanyID)
	if err != nil {
		return err
	}
	if !rule.IsActive {
		return fmt.Errorf("%w: an inactive rule cannot be the default", apperrors.ErrValidation)
	}
	if err := s.ruleRepo.SetDefaultRule(ctx, admin.CompanyID, ruleID, admin.UserID, s.now()); err != nil {
		return fmt.Errorf("failed to set default approval rule: %w", err)
	}
	s.LogInfo(ctx, "Default approval rule changed", slog.String("rule_id", ruleID))
	return nil
}

// LinkRuleToExpense links an active rule of the expense's company to a non-terminal expense.
func (s *approvalRuleService) LinkRuleToExpense(ctx context.Context, expenseID, ruleID, requestingUserID string) error {
	admin, err := s.RequireAdmin(ctx, requestingUserID)
	if err != nil {
		return err
	}
	rule, err := s.findCompanyRule(ctx, ruleID, admin.CompanyID)
	if err != nil {
		return err
	}
	if !rule.IsActive {
		return fmt.Errorf("%w: rule %s is inactive", apperrors.ErrValidation, ruleID)
	}

	return RunInTx(ctx, s.expenseRepo, func(tx pgx.Tx) error {
		expense, err := s.expenseRepo.FindExpenseByIDForUpdate(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		if expense.CompanyID != admin.CompanyID {
			return apperrors.NewNotFoundError("expense " + expenseID + " not found")
		}
		if expense.Status.IsTerminal() {
			return fmt.Errorf("%w: expense %s is already %s", apperrors.ErrInvalidState, expenseID, expense.Status)
		}
		if expense.Status == domain.ExpenseSubmitted {
			// no approver is assigned, so a linked rule would never be evaluated
			return fmt.Errorf("%w: expense %s is submitted without an approver", apperrors.ErrInvalidState, expenseID)
		}

		if rule.UseApproverSequence {
			linked, err := s.ruleRepo.FindRulesForExpenseInTx(ctx, tx, expenseID)
			if err != nil {
				return fmt.Errorf("failed to load linked rules: %w", err)
			}
			for _, other := range linked {
				if other.UseApproverSequence && other.RuleID != rule.RuleID {
					return fmt.Errorf("%w: expense %s already has sequential rule %s", apperrors.ErrValidation, expenseID, other.RuleID)
				}
			}
		}

		if err := s.ruleRepo.LinkRuleToExpenseInTx(ctx, tx, expenseID, ruleID, admin.UserID, s.now()); err != nil {
			return fmt.Errorf("failed to link rule: %w", err)
		}
		s.LogInfo(ctx, "Approval rule linked to expense", slog.String("rule_id", ruleID), slog.String("expense_id", expenseID))
		return nil
	})
}

// ensureNoOpenExpenses refuses changes to a rule while expenses still being decided are linked to it.
func (s *approvalRuleService) ensureNoOpenExpenses(ctx context.Context, ruleID string) error {
	n, err := s.ruleRepo.CountOpenExpensesForRule(ctx, ruleID)
	if err != nil {
		return fmt.Errorf("failed to check expenses linked to rule %s: %w", ruleID, err)
	}
	if n > 0 {
		s.LogWarn(ctx, "Refused change to approval rule in use", slog.String("rule_id", ruleID), slog.Int("open_expenses", n))
		return fmt.Errorf("%w: rule %s is linked to %d open expense(s)", apperrors.ErrInvalidState, ruleID, n)
	}
	return nil
}

func (s *approvalRuleService) validateRule(ctx context.Context, rule domain.ApprovalRule) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if rule.HasSpecificApprover && rule.SpecificApproverID != nil {
		return s.checkCompanyMember(ctx, rule.CompanyID, *rule.SpecificApproverID)
	}
	return nil
}

func (s *approvalRuleService) checkCompanyMember(ctx context.Context, companyID, userID string) error {
	if _, err := uuid.Parse(userID); err != nil {
		return fmt.Errorf("%w: invalid user id %q", apperrors.ErrValidation, userID)
	}
	user, err := s.Users.FindUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: approver %s not found", apperrors.ErrValidation, userID)
		}
		return fmt.Errorf("failed to load approver %s: %w", userID, err)
	}
	if user.CompanyID != companyID {
		return fmt.Errorf("%w: approver %s belongs to another company", apperrors.ErrValidation, userID)
	}
	return nil
}

// findCompanyRule hides rules of other companies behind ErrNotFound.
func (s *approvalRuleService) findCompanyRule(ctx context.Context, ruleID, companyID string) (*domain.ApprovalRule, error) {
	rule, err := s.ruleRepo.FindRuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.CompanyID != companyID {
		return nil, apperrors.NewNotFoundError("approval rule " + ruleID + " not found")
	}
	return rule, nil
}

func (s *approvalRuleService) loadRule(ctx context.Context, ruleID, companyID string) (*portssvc.ApprovalRuleWithApprovers, error) {
	rule, err := s.findCompanyRule(ctx, ruleID, companyID)
	if err != nil {
		return nil, err
	}
	approvers, err := s.ruleRepo.FindApproversForRule(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load approvers of rule %s: %w", ruleID, err)
	}
	return &portssvc.ApprovalRuleWithApprovers{Rule: *rule, Approvers: approvers}, nil
}
