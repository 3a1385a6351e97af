package services

import (
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/platform/config"
)

// Dependencies are the adapters services need beyond repositories.
type Dependencies struct {
	RateProvider portssvc.RateProvider
	Notifier     portssvc.Notifier
	Events       EventRecorder
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, deps Dependencies) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.ExchangeRate = NewExchangeRateService(repos.ExchangeRateRepo, deps.RateProvider, repos.UserRepo)

	container.Approval = NewApprovalService(
		repos.ExpenseRepo,
		repos.ApprovalRuleRepo,
		repos.ApprovalHistoryRepo,
		repos.UserRepo,
		repos.CompanyRepo,
		container.ExchangeRate,
		WithApprovalNotifier(deps.Notifier),
		WithApprovalEvents(deps.Events),
	)

	container.Expense = NewExpenseService(
		repos.ExpenseRepo,
		repos.ApprovalRuleRepo,
		repos.UserRepo,
		repos.CompanyRepo,
		container.ExchangeRate,
		WithExpenseNotifier(deps.Notifier),
		WithExpenseEvents(deps.Events),
		WithAutoApproveWithoutWorkflow(cfg.AutoApproveWithoutWorkflow),
	)

	container.ApprovalRule = NewApprovalRuleService(repos.ApprovalRuleRepo, repos.ExpenseRepo, repos.UserRepo)
	container.Notification = NewNotificationService(repos.NotificationRepo)

	return container
}
