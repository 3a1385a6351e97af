package services

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/SscSPs/expense_approval_app/internal/dto"
	"github.com/shopspring/decimal"
)

// CurrencyConverter converts amounts between currencies.
type CurrencyConverter interface {
	// Convert converts amount from one currency to another, rounded to 2 decimal places.
	// It fails with apperrors.ErrRateUnavailable when no rate for the pair can be found.
	Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (decimal.Decimal, error)
}

// RateProvider looks up live exchange rates, returning the rate that converts one unit of base into quote.
type RateProvider interface {
	Rate(ctx context.Context, base, quote string) (decimal.Decimal, error)
}

// ExchangeRateSvcFacade manages stored exchange rates and conversions.
type ExchangeRateSvcFacade interface {
	CurrencyConverter
	GetExchangeRate(ctx context.Context, fromCode, toCode string) (*domain.ExchangeRate, error)
	CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error)
}
