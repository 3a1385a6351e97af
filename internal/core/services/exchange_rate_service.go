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
	"github.com/shopspring/decimal"
)

// exchangeRateService stores exchange rates and converts amounts, preferring stored rates over the live provider.
type exchangeRateService struct {
	BaseService
	rateRepo portsrepo.ExchangeRateRepositoryFacade
	provider portssvc.RateProvider
}

// NewExchangeRateService creates the exchange rate service. provider may be nil, in which case only
// stored rates are used.
func NewExchangeRateService(rateRepo portsrepo.ExchangeRateRepositoryFacade, provider portssvc.RateProvider, userRepo portsrepo.UserReader) portssvc.ExchangeRateSvcFacade {
	return &exchangeRateService{
		BaseService: BaseService{Users: userRepo},
		rateRepo:    rateRepo,
		provider:    provider,
	}
}

var _ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)

// Convert converts amount between currencies, rounded to 2 decimal places.
func (s *exchangeRateService) Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string) (decimal.Decimal, error) {
	from := strings.ToUpper(strings.TrimSpace(fromCurrency))
	to := strings.ToUpper(strings.TrimSpace(toCurrency))
	if from == to {
		return utils.RoundMoney(amount), nil
	}

	rate, err := s.rate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return utils.RoundMoney(amount.Mul(rate)), nil
}

func (s *exchangeRateService) rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	stored, err := s.rateRepo.FindExchangeRate(ctx, from, to)
	if err == nil {
		return stored.Rate, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		s.LogWarn(ctx, "Stored exchange rate lookup failed, trying provider",
			slog.String("from", from), slog.String("to", to), slog.String("error", err.Error()))
	}

	if s.provider == nil {
		return decimal.Zero, fmt.Errorf("%w: no rate from %s to %s", apperrors.ErrRateUnavailable, from, to)
	}
	live, err := s.provider.Rate(ctx, from, to)
	if err != nil {
		if errors.Is(err, apperrors.ErrRateUnavailable) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("%w: %s to %s: %v", apperrors.ErrRateUnavailable, from, to, err)
	}
	return live, nil
}

// CreateExchangeRate stores a rate. Only admins may manage rates.
func (s *exchangeRateService) CreateExchangeRate(ctx context.Context, req dto.CreateExchangeRateRequest, creatorUserID string) (*domain.ExchangeRate, error) {
	if req.Rate.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}
	if strings.EqualFold(req.FromCurrencyCode, req.ToCurrencyCode) {
		return nil, fmt.Errorf("%w: from and to currency codes cannot be the same", apperrors.ErrValidation)
	}
	if _, err := s.RequireAdmin(ctx, creatorUserID); err != nil {
		return nil, err
	}

	now := time.Now()
	rate := domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		FromCurrencyCode: strings.ToUpper(req.FromCurrencyCode),
		ToCurrencyCode:   strings.ToUpper(req.ToCurrencyCode),
		Rate:             req.Rate,
		DateEffective:    req.DateEffective.Truncate(24 * time.Hour),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.rateRepo.SaveExchangeRate(ctx, rate); err != nil {
		s.LogError(ctx, err, "Failed to save exchange rate")
		return nil, fmt.Errorf("failed to create exchange rate in service: %w", err)
	}
	return &rate, nil
}

// GetExchangeRate retrieves the most recent stored rate for a currency pair.
func (s *exchangeRateService) GetExchangeRate(ctx context.Context, fromCode, toCode string) (*domain.ExchangeRate, error) {
	fromCode = strings.ToUpper(fromCode)
	toCode = strings.ToUpper(toCode)
	if len(fromCode) != 3 || len(toCode) != 3 {
		return nil, fmt.Errorf("%w: currency codes must be 3 letters", apperrors.ErrValidation)
	}

	rate, err := s.rateRepo.FindExchangeRate(ctx, fromCode, toCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange rate in service: %w", err)
	}
	return rate, nil
}
