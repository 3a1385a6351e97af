package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

const (
	companyID = "company-1"
	otherCoID = "company-2"
	expenseID = "expense-1"
)

type ApprovalServiceTestSuite struct {
	suite.Suite
	ctx       context.Context
	store     *memStore
	converter *fakeConverter
	notifier  *recordingNotifier
	events    *recordingEvents
	now       time.Time
	service   portssvc.ApprovalSvcFacade
}

func (s *ApprovalServiceTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = newMemStore()
	s.converter = &fakeConverter{rates: map[string]decimal.Decimal{"EUR:USD": decimal.RequireFromString("1.1")}}
	s.notifier = &recordingNotifier{}
	s.events = &recordingEvents{}
	s.now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	s.store.companies[companyID] = domain.Company{CompanyID: companyID, Name: "Acme", CurrencyCode: "USD"}
	s.store.companies[otherCoID] = domain.Company{CompanyID: otherCoID, Name: "Globex", CurrencyCode: "GBP"}
	for _, u := range []domain.User{
		{UserID: "emp", CompanyID: companyID, Name: "Erin", Role: domain.RoleEmployee, ManagerID: ptr("mgr"), IsManagerApprover: true},
		{UserID: "mgr", CompanyID: companyID, Name: "Max", Role: domain.RoleManager},
		{UserID: "a1", CompanyID: companyID, Name: "Ann", Role: domain.RoleManager},
		{UserID: "a2", CompanyID: companyID, Name: "Ben", Role: domain.RoleManager},
		{UserID: "a3", CompanyID: companyID, Name: "Cat", Role: domain.RoleManager},
		{UserID: "a4", CompanyID: companyID, Name: "Dan", Role: domain.RoleManager},
		{UserID: "a5", CompanyID: companyID, Name: "Eve", Role: domain.RoleManager},
		{UserID: "cfo", CompanyID: companyID, Name: "Cleo", Role: domain.RoleManager},
		{UserID: "peer", CompanyID: companyID, Name: "Pat", Role: domain.RoleEmployee},
		{UserID: "outsider", CompanyID: otherCoID, Name: "Oz", Role: domain.RoleAdmin},
	} {
		s.store.addUser(u)
	}

	s.service = services.NewApprovalService(
		s.store, s.store, s.store, s.store, s.store, s.converter,
		services.WithApprovalNotifier(s.notifier),
		services.WithApprovalEvents(s.events),
		services.WithApprovalClock(func() time.Time { return s.now }),
	)
}

func TestApprovalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ApprovalServiceTestSuite))
}

// seedPending stores an EUR 100 expense of emp waiting on approverID at step.
func (s *ApprovalServiceTestSuite) seedPending(approverID string, step int, ruleIDs ...string) {
	s.store.state.expenses[expenseID] = domain.Expense{
		ExpenseID:         expenseID,
		CompanyID:         companyID,
		EmployeeID:        "emp",
		Description:       "Client dinner",
		Category:          "meals",
		Amount:            decimal.NewFromInt(100),
		CurrencyCode:      "EUR",
		ExpenseDate:       s.now.AddDate(0, 0, -2),
		Status:            domain.ExpensePendingApproval,
		CurrentApproverID: ptr(approverID),
		ApprovalStep:      step,
		AuditFields:       domain.AuditFields{CreatedAt: s.now, CreatedBy: "emp", Version: 3},
	}
	s.store.link(expenseID, ruleIDs...)
}

func (s *ApprovalServiceTestSuite) approve(actorID string) *domain.Expense {
	got, err := s.service.ApproveExpense(s.ctx, expenseID, actorID, "ok")
	s.Require().NoError(err, "approve by %s", actorID)
	return got
}

func (s *ApprovalServiceTestSuite) TestApprove_NoRulesFullyApproves() {
	s.seedPending("mgr", 1)

	got := s.approve("mgr")

	s.Equal(domain.ExpenseApproved, got.Status)
	s.Nil(got.CurrentApproverID)
	s.Require().NotNil(got.ConvertedAmount)
	s.True(decimal.RequireFromString("110.00").Equal(*got.ConvertedAmount))
	s.Require().NotNil(got.FinalApprovedBy)
	s.Equal("mgr", *got.FinalApprovedBy)
	s.Equal(s.now, *got.FinalApprovedAt)

	stored := s.store.expense(expenseID)
	s.Equal(domain.ExpenseApproved, stored.Status)
	s.Equal(int64(4), stored.Version)
	s.Equal(got.Version, stored.Version)

	s.Contains(s.notifier.kindsFor("emp"), domain.NotificationExpenseApproved)
	s.Contains(s.events.names(), "expense_approved")
}

func (s *ApprovalServiceTestSuite) TestApprove_SequentialChainAfterManager() {
	s.store.addRule(domain.ApprovalRule{RuleID: "seq", CompanyID: companyID, Name: "Chain", UseApproverSequence: true, IsActive: true}, "a1", "a2")
	s.seedPending("mgr", 1, "seq")

	got := s.approve("mgr")
	s.Equal(domain.ExpensePendingApproval, got.Status)
	s.Equal("a1", *got.CurrentApproverID)
	s.Equal(2, got.ApprovalStep)
	s.Contains(s.notifier.kindsFor("a1"), domain.NotificationApprovalRequest)

	got = s.approve("a1")
	s.Equal("a2", *got.CurrentApproverID)
	s.Equal(3, got.ApprovalStep)

	got = s.approve("a2")
	s.Equal(domain.ExpenseApproved, got.Status)
	s.Nil(got.CurrentApproverID)
	s.Equal(4, got.ApprovalStep)

	entries := s.store.entries(expenseID)
	s.Require().Len(entries, 3)
	s.Equal([]int{1, 2, 3}, []int{entries[0].StepNumber, entries[1].StepNumber, entries[2].StepNumber})
	for _, e := range entries {
		s.Equal(domain.ActionApproved, e.Action)
	}
}

func (s *ApprovalServiceTestSuite) TestApprove_SequentialFromFirstApprover() {
	s.store.addRule(domain.ApprovalRule{RuleID: "seq", CompanyID: companyID, Name: "Chain", UseApproverSequence: true, IsActive: true}, "a1", "a2")
	s.seedPending("a1", 0, "seq")

	got := s.approve("a1")
	s.Equal(domain.ExpensePendingApproval, got.Status)
	s.Require().NotNil(got.CurrentApproverID)
	s.Equal("a2", *got.CurrentApproverID)
	s.Equal(1, got.ApprovalStep)
	s.Contains(s.notifier.kindsFor("a2"), domain.NotificationApprovalRequest)

	got = s.approve("a2")
	s.Equal(domain.ExpenseApproved, got.Status)
	s.Nil(got.CurrentApproverID)
	s.Equal(2, got.ApprovalStep, "the step ends past the last approver of the chain")
	s.Require().NotNil(got.FinalApprovedBy)
	s.Equal("a2", *got.FinalApprovedBy)

	entries := s.store.entries(expenseID)
	s.Require().Len(entries, 2)
	s.Equal([]int{0, 1}, []int{entries[0].StepNumber, entries[1].StepNumber})
	s.Equal(got.ApprovalStep, s.store.expense(expenseID).ApprovalStep)
}

func (s *ApprovalServiceTestSuite) TestApprove_HybridApprovesBeforeChainCompletes() {
	s.store.addRule(domain.ApprovalRule{RuleID: "seq", CompanyID: companyID, Name: "Chain", UseApproverSequence: true, IsActive: true},
		"a1", "a2", "cfo", "a4")
	s.store.addRule(domain.ApprovalRule{
		RuleID: "hyb", CompanyID: companyID, Name: "Half plus CFO", IsActive: true, IsHybrid: true,
		MinApprovalPercentage: ptr(decimal.NewFromInt(50)), HasSpecificApprover: true, SpecificApproverID: ptr("cfo"),
	}, "a1", "a2", "cfo", "a4")
	s.seedPending("a1", 1, "seq", "hyb")

	s.Equal("a2", *s.approve("a1").CurrentApproverID)

	got := s.approve("a2")
	s.Equal(domain.ExpensePendingApproval, got.Status, "half reached but the CFO has not approved")
	s.Equal("cfo", *got.CurrentApproverID)

	got = s.approve("cfo")
	s.Equal(domain.ExpenseApproved, got.Status)
	s.Equal("cfo", *got.FinalApprovedBy)
}

func (s *ApprovalServiceTestSuite) TestApprove_SpecificApproverShortCircuits() {
	s.store.addRule(domain.ApprovalRule{RuleID: "cfo-rule", CompanyID: companyID, Name: "CFO", IsActive: true,
		HasSpecificApprover: true, SpecificApproverID: ptr("cfo")}, "cfo")
	s.seedPending("cfo", 1, "cfo-rule")

	got := s.approve("cfo")
	s.Equal(domain.ExpenseApproved, got.Status)
}

func (s *ApprovalServiceTestSuite) TestApprove_PercentageOnlyStalls() {
	s.store.addRule(domain.ApprovalRule{RuleID: "pct", CompanyID: companyID, Name: "Sixty", IsActive: true,
		MinApprovalPercentage: ptr(decimal.NewFromInt(60))}, "a1", "a2", "a3", "a4", "a5")
	s.seedPending("a1", 1, "pct")

	got := s.approve("a1")
	s.Equal(domain.ExpensePendingApproval, got.Status)
	s.Equal("a1", *got.CurrentApproverID)
	s.Equal(1, got.ApprovalStep)

	stored := s.store.expense(expenseID)
	s.Equal(int64(3), stored.Version, "a stalled decision leaves the expense row untouched")
	s.Len(s.store.entries(expenseID), 1)

	// a repeat approval by the same user does not move the percentage
	s.approve("a1")
	s.Equal(domain.ExpensePendingApproval, s.store.expense(expenseID).Status)
	s.Len(s.store.entries(expenseID), 2)
}

func (s *ApprovalServiceTestSuite) TestApprove_PercentageReachedThroughChain() {
	s.store.addRule(domain.ApprovalRule{RuleID: "seq", CompanyID: companyID, Name: "Chain", UseApproverSequence: true, IsActive: true},
		"a1", "a2", "a3", "a4", "a5")
	s.store.addRule(domain.ApprovalRule{RuleID: "pct", CompanyID: companyID, Name: "Sixty", IsActive: true,
		MinApprovalPercentage: ptr(decimal.NewFromInt(60))}, "a1", "a2", "a3", "a4", "a5")
	s.seedPending("a1", 1, "seq", "pct")

	s.approve("a1")
	s.approve("a2")
	got := s.approve("a3")
	s.Equal(domain.ExpenseApproved, got.Status, "3 of 5 is 60%")
}

func (s *ApprovalServiceTestSuite) TestApprove_ConversionFailureRollsBack() {
	s.converter.err = errBoom
	s.seedPending("mgr", 1)

	_, err := s.service.ApproveExpense(s.ctx, expenseID, "mgr", "ok")
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrRateUnavailable)

	stored := s.store.expense(expenseID)
	s.Equal(domain.ExpensePendingApproval, stored.Status)
	s.Equal(int64(3), stored.Version)
	s.Empty(s.store.entries(expenseID), "the approval entry is rolled back with the transaction")
	s.Empty(s.notifier.kindsFor("emp"))
}

func (s *ApprovalServiceTestSuite) TestApprove_MissingRateRollsBack() {
	s.store.companies[companyID] = domain.Company{CompanyID: companyID, Name: "Acme", CurrencyCode: "JPY"}
	s.seedPending("mgr", 1)

	_, err := s.service.ApproveExpense(s.ctx, expenseID, "mgr", "")
	s.ErrorIs(err, apperrors.ErrRateUnavailable)
	s.Equal(domain.ExpensePendingApproval, s.store.expense(expenseID).Status)
}

func (s *ApprovalServiceTestSuite) TestApprove_NotCurrentApprover() {
	s.seedPending("mgr", 1)

	_, err := s.service.ApproveExpense(s.ctx, expenseID, "a1", "ok")
	s.ErrorIs(err, apperrors.ErrForbidden)
	s.Empty(s.store.entries(expenseID))
}

func (s *ApprovalServiceTestSuite) TestApprove_AlreadyApproved() {
	s.seedPending("mgr", 1)
	s.approve("mgr")

	_, err := s.service.ApproveExpense(s.ctx, expenseID, "mgr", "again")
	s.ErrorIs(err, apperrors.ErrInvalidState)
	s.Len(s.store.entries(expenseID), 1)
}

func (s *ApprovalServiceTestSuite) TestApprove_UnknownExpense() {
	_, err := s.service.ApproveExpense(s.ctx, "missing", "mgr", "")
	s.ErrorIs(err, apperrors.ErrNotFound)
}

func (s *ApprovalServiceTestSuite) TestReject_VetoesPendingExpense() {
	s.store.addRule(domain.ApprovalRule{RuleID: "seq", CompanyID: companyID, Name: "Chain", UseApproverSequence: true, IsActive: true}, "a1", "a2")
	s.seedPending("mgr", 1, "seq")
	s.approve("mgr")

	got, err := s.service.RejectExpense(s.ctx, expenseID, "a1", "  missing receipt  ")
	s.Require().NoError(err)
	s.Equal(domain.ExpenseRejected, got.Status)
	s.Nil(got.CurrentApproverID)
	s.Nil(got.ConvertedAmount)

	entries := s.store.entries(expenseID)
	s.Require().Len(entries, 2)
	s.Equal(domain.ActionRejected, entries[1].Action)
	s.Equal("missing receipt", entries[1].Comments)
	s.Contains(s.notifier.kindsFor("emp"), domain.NotificationExpenseRejected)
	s.Contains(s.events.names(), "expense_rejected")

	_, err = s.service.ApproveExpense(s.ctx, expenseID, "a1", "")
	s.ErrorIs(err, apperrors.ErrInvalidState)
}

func (s *ApprovalServiceTestSuite) TestReject_RequiresComments() {
	s.seedPending("mgr", 1)

	_, err := s.service.RejectExpense(s.ctx, expenseID, "mgr", "   ")
	s.ErrorIs(err, apperrors.ErrValidation)
	s.Empty(s.store.entries(expenseID))
	s.Equal(domain.ExpensePendingApproval, s.store.expense(expenseID).Status)
}

func (s *ApprovalServiceTestSuite) TestReject_NotCurrentApprover() {
	s.seedPending("mgr", 1)

	_, err := s.service.RejectExpense(s.ctx, expenseID, "emp", "no")
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func (s *ApprovalServiceTestSuite) TestListPendingApprovals() {
	s.seedPending("mgr", 1)

	pending, err := s.service.ListPendingApprovals(s.ctx, "mgr")
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(expenseID, pending[0].ExpenseID)

	pending, err = s.service.ListPendingApprovals(s.ctx, "a1")
	s.Require().NoError(err)
	s.Empty(pending)
}

func (s *ApprovalServiceTestSuite) TestGetApprovalHistoryAccess() {
	s.store.addRule(domain.ApprovalRule{RuleID: "seq", CompanyID: companyID, Name: "Chain", UseApproverSequence: true, IsActive: true}, "a1")
	s.seedPending("mgr", 1, "seq")
	s.approve("mgr")

	for _, userID := range []string{"emp", "mgr", "a1", "a4"} {
		entries, err := s.service.GetApprovalHistory(s.ctx, expenseID, userID)
		s.Require().NoError(err, userID)
		s.Len(entries, 1, userID)
	}

	_, err := s.service.GetApprovalHistory(s.ctx, expenseID, "peer")
	s.ErrorIs(err, apperrors.ErrForbidden)

	_, err = s.service.GetApprovalHistory(s.ctx, expenseID, "outsider")
	s.ErrorIs(err, apperrors.ErrForbidden)
}
