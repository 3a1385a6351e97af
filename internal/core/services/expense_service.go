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
	"github.com/SscSPs/expense_approval_app/internal/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

type expenseService struct {
	BaseService
	expenseRepo portsrepo.ExpenseRepositoryWithTx
	ruleRepo    portsrepo.ApprovalRuleRepositoryFacade
	companyRepo portsrepo.CompanyReader
	converter   portssvc.CurrencyConverter
	notifier    portssvc.Notifier
	events      EventRecorder
	autoApprove bool
	now         func() time.Time
}

// ExpenseServiceOption is a functional option for configuring the expense service
type ExpenseServiceOption func(*expenseService)

// WithExpenseNotifier sets where submission notifications are sent.
func WithExpenseNotifier(n portssvc.Notifier) ExpenseServiceOption {
	return func(s *expenseService) {
		s.notifier = n
	}
}

// WithExpenseEvents sets the analytics recorder for submissions.
func WithExpenseEvents(r EventRecorder) ExpenseServiceOption {
	return func(s *expenseService) {
		s.events = r
	}
}

// WithAutoApproveWithoutWorkflow finalizes submissions that have neither a manager approver nor
// a linked rule instead of leaving them in submitted.
func WithAutoApproveWithoutWorkflow(enabled bool) ExpenseServiceOption {
	return func(s *expenseService) {
		s.autoApprove = enabled
	}
}

// WithExpenseClock overrides the time source.
func WithExpenseClock(now func() time.Time) ExpenseServiceOption {
	return func(s *expenseService) {
		s.now = now
	}
}

// NewExpenseService creates the expense service.
func NewExpenseService(
	expenseRepo portsrepo.ExpenseRepositoryWithTx,
	ruleRepo portsrepo.ApprovalRuleRepositoryFacade,
	userRepo portsrepo.UserReader,
	companyRepo portsrepo.CompanyReader,
	converter portssvc.CurrencyConverter,
	options ...ExpenseServiceOption,
) portssvc.ExpenseSvcFacade {
	s := &expenseService{
		BaseService: BaseService{Users: userRepo},
		expenseRepo: expenseRepo,
		ruleRepo:    ruleRepo,
		companyRepo: companyRepo,
		converter:   converter,
		now:         time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

var _ portssvc.ExpenseSvcFacade = (*expenseService)(nil)

// CreateExpense creates a draft owned by the requesting user.
func (s *expenseService) CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, requestingUserID string) (*domain.Expense, error) {
	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if len(strings.TrimSpace(req.CurrencyCode)) != 3 {
		return nil, fmt.Errorf("%w: currency code must be 3 letters", apperrors.ErrValidation)
	}

	actor, err := s.LoadActor(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expense := domain.Expense{
		ExpenseID:    uuid.NewString(),
		CompanyID:    actor.CompanyID,
		EmployeeID:   actor.UserID,
		Description:  strings.TrimSpace(req.Description),
		Category:     strings.TrimSpace(req.Category),
		Amount:       req.Amount,
		CurrencyCode: strings.ToUpper(req.CurrencyCode),
		ExpenseDate:  req.ExpenseDate,
		Status:       domain.ExpenseDraft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
			Version:       1,
		},
	}

	if err := s.expenseRepo.SaveExpense(ctx, expense); err != nil {
		s.LogError(ctx, err, "Failed to save expense", slog.String("user_id", requestingUserID))
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	s.LogInfo(ctx, "Expense draft created", slog.String("expense_id", expense.ExpenseID))
	return &expense, nil
}

// GetExpense returns an expense to its employee, its current approver or a reviewer of its company.
func (s *expenseService) GetExpense(ctx context.Context, expenseID, requestingUserID string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.EmployeeID == requestingUserID || expense.IsAwaiting(requestingUserID) {
		return expense, nil
	}

	actor, err := s.LoadActor(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}
	if actor.CompanyID != expense.CompanyID || !actor.CanReviewExpenses() {
		return nil, fmt.Errorf("%w: not allowed to view expense %s", apperrors.ErrForbidden, expenseID)
	}
	return expense, nil
}

// ListMyExpenses lists the requesting user's expenses, newest first.
func (s *expenseService) ListMyExpenses(ctx context.Context, requestingUserID string, params dto.ListExpensesParams) ([]domain.Expense, *string, error) {
	expenses, next, err := s.expenseRepo.ListExpensesByEmployee(ctx, requestingUserID, params.Limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list expenses", slog.String("user_id", requestingUserID))
		return nil, nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, next, nil
}

// SubmitExpense moves a draft into the approval workflow and snapshots the company's default rule onto it.
func (s *expenseService) SubmitExpense(ctx context.Context, expenseID, requestingUserID string) (result *domain.Expense, err error) {
	ctx, span := s.StartSpan(ctx, "ExpenseService.SubmitExpense",
		attribute.String("expense.id", expenseID), attribute.String("actor.id", requestingUserID))
	defer func() { s.EndSpan(span, err) }()

	employee, err := s.LoadActor(ctx, requestingUserID)
	if err != nil {
		return nil, err
	}

	defaultRule, err := s.ruleRepo.FindDefaultRule(ctx, employee.CompanyID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to load default approval rule: %w", err)
		}
		defaultRule = nil
	}

	managerID, hasManager := employee.ApprovingManagerID()
	autoApproved := false

	err = RunInTx(ctx, s.expenseRepo, func(tx pgx.Tx) error {
		expense, err := s.expenseRepo.FindExpenseByIDForUpdate(ctx, tx, expenseID)
		if err != nil {
			return err
		}
		if expense.EmployeeID != employee.UserID {
			return fmt.Errorf("%w: only the employee who filed expense %s can submit it", apperrors.ErrForbidden, expenseID)
		}
		if expense.Status != domain.ExpenseDraft {
			return fmt.Errorf("%w: expense %s is already %s", apperrors.ErrInvalidState, expenseID, expense.Status)
		}

		now := s.now()
		if defaultRule != nil {
			if err := s.ruleRepo.LinkRuleToExpenseInTx(ctx, tx, expense.ExpenseID, defaultRule.RuleID, employee.UserID, now); err != nil {
				return fmt.Errorf("failed to link default approval rule: %w", err)
			}
		}

		expense.Submit(managerID, employee.UserID, now)

		if !hasManager && defaultRule == nil && s.autoApprove {
			converted, err := convertExpenseAmount(ctx, s.companyRepo, s.converter, expense)
			if err != nil {
				return err
			}
			expense.MarkApproved(converted, employee.UserID, now)
			autoApproved = true
		}

		if err := s.expenseRepo.UpdateExpenseStateInTx(ctx, tx, *expense); err != nil {
			return fmt.Errorf("failed to update expense state: %w", err)
		}
		expense.Version++
		result = expense
		return nil
	})
	if err != nil {
		s.LogWarn(ctx, "Expense submission failed", slog.String("expense_id", expenseID), slog.String("error", err.Error()))
		return nil, err
	}

	s.LogInfo(ctx, "Expense submitted",
		slog.String("expense_id", result.ExpenseID),
		slog.String("status", string(result.Status)),
		slog.Bool("auto_approved", autoApproved))

	s.afterSubmit(ctx, employee, result, autoApproved)
	return result, nil
}

func (s *expenseService) afterSubmit(ctx context.Context, employee *domain.User, expense *domain.Expense, autoApproved bool) {
	now := s.now()
	amount := utils.FormatMoney(expense.Amount, expense.CurrencyCode)

	notes := []domain.Notification{
		newNotification(employee.UserID, expense.ExpenseID, domain.NotificationExpenseSubmitted, now,
			"Expense submitted", fmt.Sprintf("Your expense %q for %s was submitted.", expense.Description, amount)),
	}
	if autoApproved {
		notes = append(notes, newNotification(employee.UserID, expense.ExpenseID, domain.NotificationExpenseApproved, now,
			"Expense fully approved", fmt.Sprintf("Your expense %q needed no approval and has been approved.", expense.Description)))
	}
	if expense.CurrentApproverID != nil {
		notes = append(notes, newNotification(*expense.CurrentApproverID, expense.ExpenseID, domain.NotificationApprovalRequest, now,
			"New expense approval request", fmt.Sprintf("%s submitted an expense for %s", employee.Name, amount)))
	}

	if s.notifier != nil {
		for _, n := range notes {
			s.notifier.Notify(ctx, n)
		}
	}
	if s.events != nil {
		s.events.Enqueue(employee.UserID, "expense_submitted", map[string]any{
			"expense_id":    expense.ExpenseID,
			"company_id":    expense.CompanyID,
			"status":        string(expense.Status),
			"auto_approved": autoApproved,
		})
	}
}
