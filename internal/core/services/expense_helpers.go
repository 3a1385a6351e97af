package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// convertExpenseAmount converts the expense amount into its company's currency.
func convertExpenseAmount(ctx context.Context, companies portsrepo.CompanyReader, converter portssvc.CurrencyConverter, expense *domain.Expense) (decimal.Decimal, error) {
	company, err := companies.FindCompanyByID(ctx, expense.CompanyID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to load company %s: %w", expense.CompanyID, err)
	}
	converted, err := converter.Convert(ctx, expense.Amount, expense.CurrencyCode, company.CurrencyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrRateUnavailable) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("%w: converting %s to %s: %v", apperrors.ErrRateUnavailable, expense.CurrencyCode, company.CurrencyCode, err)
	}
	return converted, nil
}

func newNotification(userID, expenseID string, kind domain.NotificationKind, now time.Time, title, message string) domain.Notification {
	return domain.Notification{
		NotificationID: uuid.NewString(),
		UserID:         userID,
		ExpenseID:      expenseID,
		Kind:           kind,
		Title:          title,
		Message:        message,
		CreatedAt:      now,
	}
}
