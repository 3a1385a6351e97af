package handlers_test

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/dto"
	"github.com/stretchr/testify/mock"
)

// --- Mock ExpenseService ---
type MockExpenseService struct {
	mock.Mock
}

func (m *MockExpenseService) GetExpense(ctx context.Context, expenseID, requestingUserID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseService) ListMyExpenses(ctx context.Context, requestingUserID string, params dto.ListExpensesParams) ([]domain.Expense, *string, error) {
	args := m.Called(ctx, requestingUserID, params)
	var next *string
	if v := args.Get(1); v != nil {
		next = v.(*string)
	}
	if args.Get(0) == nil {
		return nil, next, args.Error(2)
	}
	return args.Get(0).([]domain.Expense), next, args.Error(2)
}

func (m *MockExpenseService) CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, requestingUserID string) (*domain.Expense, error) {
	args := m.Called(ctx, req, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseService) SubmitExpense(ctx context.Context, expenseID, requestingUserID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

var _ portssvc.ExpenseSvcFacade = (*MockExpenseService)(nil)

// --- Mock ApprovalService ---
type MockApprovalService struct {
	mock.Mock
}

func (m *MockApprovalService) ApproveExpense(ctx context.Context, expenseID, actorID, comments string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, actorID, comments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockApprovalService) RejectExpense(ctx context.Context, expenseID, actorID, comments string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID, actorID, comments)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockApprovalService) ListPendingApprovals(ctx context.Context, approverID string) ([]domain.Expense, error) {
	args := m.Called(ctx, approverID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Expense), args.Error(1)
}

func (m *MockApprovalService) GetApprovalHistory(ctx context.Context, expenseID, requestingUserID string) ([]domain.ApprovalHistoryEntry, error) {
	args := m.Called(ctx, expenseID, requestingUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ApprovalHistoryEntry), args.Error(1)
}

var _ portssvc.ApprovalSvcFacade = (*MockApprovalService)(nil)

// --- Mock ApprovalRuleService ---
type MockApprovalRuleService struct {
	mock.Mock
}

func (m *MockApprovalRuleService) ruleResult(args mock.Arguments) (*portssvc.ApprovalRuleWithApprovers, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*portssvc.ApprovalRuleWithApprovers), args.Error(1)
}

func (m *MockApprovalRuleService) GetRule(ctx context.Context, ruleID, requestingUserID string) (*portssvc.ApprovalRuleWithApprovers, error) {
	return m.ruleResult(m.Called(ctx, ruleID, requestingUserID))
}

func (m *MockApprovalRuleService) ListRules(ctx context.Context, requestingUserID string, includeInactive bool) ([]portssvc.ApprovalRuleWithApprovers, error) {
	args := m.Called(ctx, requestingUserID, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]portssvc.ApprovalRuleWithApprovers), args.Error(1)
}

func (m *MockApprovalRuleService) CreateRule(ctx context.Context, req dto.CreateApprovalRuleRequest, requestingUserID string) (*portssvc.ApprovalRuleWithApprovers, error) {
	return m.ruleResult(m.Called(ctx, req, requestingUserID))
}

func (m *MockApprovalRuleService) UpdateRule(ctx context.Context, ruleID string, patch domain.ApprovalRulePatch, requestingUserID string) (*portssvc.ApprovalRuleWithApprovers, error) {
	return m.ruleResult(m.Called(ctx, ruleID, patch, requestingUserID))
}

func (m *MockApprovalRuleService) DeleteRule(ctx context.Context, ruleID, requestingUserID string) error {
	return m.Called(ctx, ruleID, requestingUserID).Error(0)
}

func (m *MockApprovalRuleService) AddApprover(ctx context.Context, ruleID string, req dto.RuleApproverRequest, requestingUserID string) (*portssvc.ApprovalRuleWithApprovers, error) {
	return m.ruleResult(m.Called(ctx, ruleID, req, requestingUserID))
}

func (m *MockApprovalRuleService) RemoveApprover(ctx context.Context, ruleID, userID, requestingUserID string) error {
	return m.Called(ctx, ruleID, userID, requestingUserID).Error(0)
}

func (m *MockApprovalRuleService) SetDefaultRule(ctx context.Context, ruleID, requestingUserID string) error {
	return m.Called(ctx, ruleID, requestingUserID).Error(0)
}

func (m *MockApprovalRuleService) LinkRuleToExpense(ctx context.Context, expenseID, ruleID, requestingUserID string) error {
	return m.Called(ctx, expenseID, ruleID, requestingUserID).Error(0)
}

var _ portssvc.ApprovalRuleSvcFacade = (*MockApprovalRuleService)(nil)
