package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/core/services"
	"github.com/SscSPs/expense_approval_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expenseFixture struct {
	store    *memStore
	notifier *recordingNotifier
	events   *recordingEvents
}

func newExpenseFixture() *expenseFixture {
	f := &expenseFixture{store: newMemStore(), notifier: &recordingNotifier{}, events: &recordingEvents{}}
	f.store.companies[companyID] = domain.Company{CompanyID: companyID, Name: "Acme", CurrencyCode: "USD"}
	f.store.addUser(domain.User{UserID: "emp", CompanyID: companyID, Name: "Erin", Role: domain.RoleEmployee, ManagerID: ptr("mgr"), IsManagerApprover: true})
	f.store.addUser(domain.User{UserID: "solo", CompanyID: companyID, Name: "Sol", Role: domain.RoleEmployee})
	f.store.addUser(domain.User{UserID: "mgr", CompanyID: companyID, Name: "Max", Role: domain.RoleManager})
	f.store.addUser(domain.User{UserID: "peer", CompanyID: companyID, Name: "Pat", Role: domain.RoleEmployee})
	return f
}

func (f *expenseFixture) service(opts ...services.ExpenseServiceOption) portssvc.ExpenseSvcFacade {
	converter := &fakeConverter{rates: map[string]decimal.Decimal{"EUR:USD": decimal.RequireFromString("1.1")}}
	opts = append([]services.ExpenseServiceOption{
		services.WithExpenseNotifier(f.notifier),
		services.WithExpenseEvents(f.events),
	}, opts...)
	return services.NewExpenseService(f.store, f.store, f.store, f.store, converter, opts...)
}

func draftRequest() dto.CreateExpenseRequest {
	return dto.CreateExpenseRequest{
		Description:  "Taxi to airport",
		Category:     "travel",
		Amount:       decimal.RequireFromString("42.50"),
		CurrencyCode: "eur",
		ExpenseDate:  time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestExpenseService_CreateExpense(t *testing.T) {
	f := newExpenseFixture()
	svc := f.service()

	got, err := svc.CreateExpense(context.Background(), draftRequest(), "emp")
	require.NoError(t, err)
	assert.Equal(t, domain.ExpenseDraft, got.Status)
	assert.Equal(t, "EUR", got.CurrencyCode)
	assert.Equal(t, companyID, got.CompanyID)
	assert.Equal(t, int64(1), got.Version)

	bad := draftRequest()
	bad.Amount = decimal.Zero
	_, err = svc.CreateExpense(context.Background(), bad, "emp")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	bad = draftRequest()
	bad.CurrencyCode = "EURO"
	_, err = svc.CreateExpense(context.Background(), bad, "emp")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestExpenseService_SubmitToManager(t *testing.T) {
	f := newExpenseFixture()
	svc := f.service()
	ctx := context.Background()

	draft, err := svc.CreateExpense(ctx, draftRequest(), "emp")
	require.NoError(t, err)

	got, err := svc.SubmitExpense(ctx, draft.ExpenseID, "emp")
	require.NoError(t, err)
	assert.Equal(t, domain.ExpensePendingApproval, got.Status)
	require.NotNil(t, got.CurrentApproverID)
	assert.Equal(t, "mgr", *got.CurrentApproverID)
	assert.Equal(t, 1, got.ApprovalStep)
	assert.Equal(t, int64(2), f.store.expense(draft.ExpenseID).Version)

	assert.Contains(t, f.notifier.kindsFor("mgr"), domain.NotificationApprovalRequest)
	assert.Contains(t, f.notifier.kindsFor("emp"), domain.NotificationExpenseSubmitted)
	assert.Equal(t, []string{"expense_submitted"}, f.events.names())

	_, err = svc.SubmitExpense(ctx, draft.ExpenseID, "emp")
	assert.ErrorIs(t, err, apperrors.ErrInvalidState, "only drafts can be submitted")
}

func TestExpenseService_SubmitLinksDefaultRule(t *testing.T) {
	f := newExpenseFixture()
	f.store.addRule(domain.ApprovalRule{RuleID: "default", CompanyID: companyID, Name: "Default", UseApproverSequence: true, IsActive: true, IsDefault: true}, "mgr")
	svc := f.service(services.WithAutoApproveWithoutWorkflow(true))
	ctx := context.Background()

	draft, err := svc.CreateExpense(ctx, draftRequest(), "solo")
	require.NoError(t, err)
	got, err := svc.SubmitExpense(ctx, draft.ExpenseID, "solo")
	require.NoError(t, err)

	assert.Equal(t, domain.ExpenseSubmitted, got.Status, "a linked rule prevents auto approval")
	assert.Nil(t, got.CurrentApproverID)

	linked, err := f.store.FindRulesForExpense(ctx, draft.ExpenseID)
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "default", linked[0].RuleID)
}

func TestExpenseService_SubmitWithoutWorkflow(t *testing.T) {
	ctx := context.Background()

	t.Run("parked when auto approval is off", func(t *testing.T) {
		f := newExpenseFixture()
		svc := f.service()
		draft, err := svc.CreateExpense(ctx, draftRequest(), "solo")
		require.NoError(t, err)

		got, err := svc.SubmitExpense(ctx, draft.ExpenseID, "solo")
		require.NoError(t, err)
		assert.Equal(t, domain.ExpenseSubmitted, got.Status)
		assert.Equal(t, 0, got.ApprovalStep)
	})

	t.Run("approved with conversion when enabled", func(t *testing.T) {
		f := newExpenseFixture()
		svc := f.service(services.WithAutoApproveWithoutWorkflow(true))
		draft, err := svc.CreateExpense(ctx, draftRequest(), "solo")
		require.NoError(t, err)

		got, err := svc.SubmitExpense(ctx, draft.ExpenseID, "solo")
		require.NoError(t, err)
		assert.Equal(t, domain.ExpenseApproved, got.Status)
		require.NotNil(t, got.ConvertedAmount)
		assert.True(t, decimal.RequireFromString("46.75").Equal(*got.ConvertedAmount))
		assert.Contains(t, f.notifier.kindsFor("solo"), domain.NotificationExpenseApproved)
	})
}

func TestExpenseService_SubmitOnlyByOwner(t *testing.T) {
	f := newExpenseFixture()
	svc := f.service()
	ctx := context.Background()

	draft, err := svc.CreateExpense(ctx, draftRequest(), "emp")
	require.NoError(t, err)

	_, err = svc.SubmitExpense(ctx, draft.ExpenseID, "peer")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, domain.ExpenseDraft, f.store.expense(draft.ExpenseID).Status)
}

func TestExpenseService_GetExpenseAccess(t *testing.T) {
	f := newExpenseFixture()
	svc := f.service()
	ctx := context.Background()

	draft, err := svc.CreateExpense(ctx, draftRequest(), "emp")
	require.NoError(t, err)

	_, err = svc.GetExpense(ctx, draft.ExpenseID, "emp")
	assert.NoError(t, err)
	_, err = svc.GetExpense(ctx, draft.ExpenseID, "mgr")
	assert.NoError(t, err)
	_, err = svc.GetExpense(ctx, draft.ExpenseID, "peer")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	_, err = svc.GetExpense(ctx, "missing", "emp")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	mine, _, err := svc.ListMyExpenses(ctx, "emp", dto.ListExpensesParams{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
