package pgsql

import (
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ExpenseRepo:         newPgxExpenseRepository(dbPool),
		ApprovalRuleRepo:    newPgxApprovalRuleRepository(dbPool),
		ApprovalHistoryRepo: newPgxApprovalHistoryRepository(dbPool),
		UserRepo:            newPgxUserRepository(dbPool),
		CompanyRepo:         newPgxCompanyRepository(dbPool),
		NotificationRepo:    newPgxNotificationRepository(dbPool),
		ExchangeRateRepo:    newPgxExchangeRateRepository(dbPool),
	}
}
