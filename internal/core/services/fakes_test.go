package services_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// memState is the data held by memStore. Transactions work on a copy that replaces the
// committed state on Commit, so a failed transaction leaves no trace.
type memState struct {
	expenses  map[string]domain.Expense
	rules     map[string]domain.ApprovalRule
	approvers map[string][]domain.RuleApprover
	links     map[string][]string
	history   []domain.ApprovalHistoryEntry
}

func (s *memState) clone() *memState {
	c := &memState{
		expenses:  make(map[string]domain.Expense, len(s.expenses)),
		rules:     make(map[string]domain.ApprovalRule, len(s.rules)),
		approvers: make(map[string][]domain.RuleApprover, len(s.approvers)),
		links:     make(map[string][]string, len(s.links)),
		history:   append([]domain.ApprovalHistoryEntry(nil), s.history...),
	}
	for k, v := range s.expenses {
		c.expenses[k] = v
	}
	for k, v := range s.rules {
		c.rules[k] = v
	}
	for k, v := range s.approvers {
		c.approvers[k] = append([]domain.RuleApprover(nil), v...)
	}
	for k, v := range s.links {
		c.links[k] = append([]string(nil), v...)
	}
	return c
}

type fakeTx struct {
	pgx.Tx
	state *memState
}

// memStore is an in-memory implementation of the expense, rule, history, user and company repositories.
type memStore struct {
	mu        sync.Mutex
	state     *memState
	users     map[string]domain.User
	companies map[string]domain.Company
	commits   int
}

func newMemStore() *memStore {
	return &memStore{
		state: &memState{
			expenses:  map[string]domain.Expense{},
			rules:     map[string]domain.ApprovalRule{},
			approvers: map[string][]domain.RuleApprover{},
			links:     map[string][]string{},
		},
		users:     map[string]domain.User{},
		companies: map[string]domain.Company{},
	}
}

func (m *memStore) stateOf(tx pgx.Tx) *memState {
	ft, ok := tx.(*fakeTx)
	if !ok {
		panic(fmt.Sprintf("unexpected transaction type %T", tx))
	}
	return ft.state
}

// --- TransactionManager ---

func (m *memStore) Begin(ctx context.Context) (pgx.Tx, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &fakeTx{state: m.state.clone()}, nil
}

func (m *memStore) Commit(ctx context.Context, tx pgx.Tx) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = m.stateOf(tx)
	m.commits++
	return nil
}

func (m *memStore) Rollback(ctx context.Context, tx pgx.Tx) error { return nil }

// --- Expenses ---

func (m *memStore) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.state.expenses[expenseID]
	if !ok {
		return nil, apperrors.NewNotFoundError("expense " + expenseID)
	}
	return &e, nil
}

func (m *memStore) ListExpensesByEmployee(ctx context.Context, employeeID string, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Expense
	for _, e := range m.state.expenses {
		if e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil, nil
}

func (m *memStore) ListPendingForApprover(ctx context.Context, approverID string) ([]domain.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Expense
	for _, e := range m.state.expenses {
		if e.Status == domain.ExpensePendingApproval && e.IsAwaiting(approverID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) SaveExpense(ctx context.Context, expense domain.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.expenses[expense.ExpenseID] = expense
	return nil
}

func (m *memStore) FindExpenseByIDForUpdate(ctx context.Context, tx pgx.Tx, expenseID string) (*domain.Expense, error) {
	e, ok := m.stateOf(tx).expenses[expenseID]
	if !ok {
		return nil, apperrors.NewNotFoundError("expense " + expenseID)
	}
	return &e, nil
}

func (m *memStore) UpdateExpenseStateInTx(ctx context.Context, tx pgx.Tx, expense domain.Expense) error {
	st := m.stateOf(tx)
	stored, ok := st.expenses[expense.ExpenseID]
	if !ok {
		return apperrors.NewNotFoundError("expense " + expense.ExpenseID)
	}
	if stored.Version != expense.Version {
		return apperrors.ErrConflict
	}
	expense.Version++
	st.expenses[expense.ExpenseID] = expense
	return nil
}

// --- Rules ---

func (m *memStore) FindRuleByID(ctx context.Context, ruleID string) (*domain.ApprovalRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.state.rules[ruleID]
	if !ok {
		return nil, apperrors.NewNotFoundError("rule " + ruleID)
	}
	return &r, nil
}

func (m *memStore) ListRulesByCompany(ctx context.Context, companyID string, includeInactive bool) ([]domain.ApprovalRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ApprovalRule
	for _, r := range m.state.rules {
		if r.CompanyID == companyID && (includeInactive || r.IsActive) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) FindApproversForRule(ctx context.Context, ruleID string) ([]domain.RuleApprover, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedApprovers(m.state.approvers[ruleID]), nil
}

func (m *memStore) FindDefaultRule(ctx context.Context, companyID string) (*domain.ApprovalRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.state.rules {
		if r.CompanyID == companyID && r.IsDefault && r.IsActive {
			return &r, nil
		}
	}
	return nil, apperrors.NewNotFoundError("default rule")
}

func (m *memStore) FindRulesForExpense(ctx context.Context, expenseID string) ([]domain.ApprovalRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return rulesFor(m.state, expenseID), nil
}

func (m *memStore) CountOpenExpensesForRule(ctx context.Context, ruleID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for expID, ids := range m.state.links {
		e, ok := m.state.expenses[expID]
		if !ok || e.Status.IsTerminal() {
			continue
		}
		for _, id := range ids {
			if id == ruleID {
				n++
				break
			}
		}
	}
	return n, nil
}

func (m *memStore) SaveRule(ctx context.Context, rule domain.ApprovalRule, approvers []domain.RuleApprover) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.rules[rule.RuleID] = rule
	m.state.approvers[rule.RuleID] = append([]domain.RuleApprover(nil), approvers...)
	return nil
}

func (m *memStore) UpdateRule(ctx context.Context, rule domain.ApprovalRule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.state.rules[rule.RuleID]; !ok {
		return apperrors.NewNotFoundError("rule " + rule.RuleID)
	}
	m.state.rules[rule.RuleID] = rule
	return nil
}

func (m *memStore) DeleteRule(ctx context.Context, ruleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state.rules, ruleID)
	delete(m.state.approvers, ruleID)
	for exp, ids := range m.state.links {
		kept := ids[:0]
		for _, id := range ids {
			if id != ruleID {
				kept = append(kept, id)
			}
		}
		m.state.links[exp] = kept
	}
	return nil
}

func (m *memStore) AddApprover(ctx context.Context, approver domain.RuleApprover) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.state.approvers[approver.RuleID] {
		if a.UserID == approver.UserID {
			return apperrors.NewConflictError("approver already on rule")
		}
	}
	m.state.approvers[approver.RuleID] = append(m.state.approvers[approver.RuleID], approver)
	return nil
}

func (m *memStore) RemoveApprover(ctx context.Context, ruleID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.state.approvers[ruleID]
	for i, a := range list {
		if a.UserID == userID {
			m.state.approvers[ruleID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFoundError("approver " + userID)
}

func (m *memStore) SetDefaultRule(ctx context.Context, companyID, ruleID, updatedBy string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.state.rules {
		if r.CompanyID == companyID {
			r.IsDefault = id == ruleID
			m.state.rules[id] = r
		}
	}
	return nil
}

func (m *memStore) FindRulesForExpenseInTx(ctx context.Context, tx pgx.Tx, expenseID string) ([]domain.ApprovalRule, error) {
	return rulesFor(m.stateOf(tx), expenseID), nil
}

func (m *memStore) FindApproversForRuleInTx(ctx context.Context, tx pgx.Tx, ruleID string) ([]domain.RuleApprover, error) {
	return sortedApprovers(m.stateOf(tx).approvers[ruleID]), nil
}

func (m *memStore) LinkRuleToExpenseInTx(ctx context.Context, tx pgx.Tx, expenseID, ruleID, linkedBy string, linkedAt time.Time) error {
	st := m.stateOf(tx)
	for _, id := range st.links[expenseID] {
		if id == ruleID {
			return nil
		}
	}
	st.links[expenseID] = append(st.links[expenseID], ruleID)
	return nil
}

// --- History ---

func (m *memStore) FindEntriesByExpenseID(ctx context.Context, expenseID string) ([]domain.ApprovalHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return entriesFor(m.state, expenseID), nil
}

func (m *memStore) AppendEntryInTx(ctx context.Context, tx pgx.Tx, entry domain.ApprovalHistoryEntry) error {
	st := m.stateOf(tx)
	st.history = append(st.history, entry)
	return nil
}

func (m *memStore) FindEntriesByExpenseIDInTx(ctx context.Context, tx pgx.Tx, expenseID string) ([]domain.ApprovalHistoryEntry, error) {
	return entriesFor(m.stateOf(tx), expenseID), nil
}

// --- Users and companies ---

func (m *memStore) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("user " + userID)
	}
	return &u, nil
}

func (m *memStore) ListUsersByCompany(ctx context.Context, companyID string) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		if u.CompanyID == companyID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[companyID]
	if !ok {
		return nil, apperrors.NewNotFoundError("company " + companyID)
	}
	return &c, nil
}

// --- seeding helpers ---

func (m *memStore) addUser(u domain.User) { m.users[u.UserID] = u }

func (m *memStore) addRule(rule domain.ApprovalRule, approverIDs ...string) {
	list := make([]domain.RuleApprover, 0, len(approverIDs))
	for i, id := range approverIDs {
		list = append(list, domain.RuleApprover{RuleID: rule.RuleID, UserID: id, SequenceOrder: i + 1})
	}
	m.state.rules[rule.RuleID] = rule
	m.state.approvers[rule.RuleID] = list
}

func (m *memStore) link(expenseID string, ruleIDs ...string) {
	m.state.links[expenseID] = append(m.state.links[expenseID], ruleIDs...)
}

func (m *memStore) expense(id string) domain.Expense {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.expenses[id]
}

func (m *memStore) entries(id string) []domain.ApprovalHistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return entriesFor(m.state, id)
}

func rulesFor(st *memState, expenseID string) []domain.ApprovalRule {
	var out []domain.ApprovalRule
	for _, id := range st.links[expenseID] {
		if r, ok := st.rules[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func entriesFor(st *memState, expenseID string) []domain.ApprovalHistoryEntry {
	var out []domain.ApprovalHistoryEntry
	for _, e := range st.history {
		if e.ExpenseID == expenseID {
			out = append(out, e)
		}
	}
	return out
}

func sortedApprovers(list []domain.RuleApprover) []domain.RuleApprover {
	out := append([]domain.RuleApprover(nil), list...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SequenceOrder < out[j].SequenceOrder })
	return out
}

// fakeConverter converts with fixed rates keyed "FROM:TO".
type fakeConverter struct {
	rates map[string]decimal.Decimal
	err   error
}

func (c *fakeConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if c.err != nil {
		return decimal.Zero, c.err
	}
	if from == to {
		return amount.Round(2), nil
	}
	rate, ok := c.rates[from+":"+to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s to %s", apperrors.ErrRateUnavailable, from, to)
	}
	return amount.Mul(rate).Round(2), nil
}

// recordingNotifier keeps every notification it is given.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []domain.Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) kindsFor(userID string) []domain.NotificationKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.NotificationKind
	for _, n := range r.notes {
		if n.UserID == userID {
			out = append(out, n.Kind)
		}
	}
	return out
}

type recordedEvent struct {
	DistinctID string
	Event      string
	Properties map[string]any
}

type recordingEvents struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingEvents) Enqueue(distinctID string, event string, properties map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{DistinctID: distinctID, Event: event, Properties: properties})
}

func (r *recordingEvents) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Event)
	}
	return out
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }
