package pgsql

import (
	"context"
	"errors"
	"strings"

	"github.com/SscSPs/expense_approval_app/internal/apperrors"
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	"github.com/SscSPs/expense_approval_app/internal/models"
	"github.com/SscSPs/expense_approval_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PgxExchangeRateRepository implements portsrepo.ExchangeRateRepositoryFacade using pgxpool.
type PgxExchangeRateRepository struct {
	BaseRepository
}

func newPgxExchangeRateRepository(pool *pgxpool.Pool) portsrepo.ExchangeRateRepositoryFacade {
	return &PgxExchangeRateRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*PgxExchangeRateRepository)(nil)

// SaveExchangeRate inserts a rate, replacing the rate already stored for the same pair and date.
func (r *PgxExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	m := mapping.ToModelExchangeRate(rate)
	m.FromCurrencyCode = strings.ToUpper(m.FromCurrencyCode)
	m.ToCurrencyCode = strings.ToUpper(m.ToCurrencyCode)

	_, err := r.Pool.Exec(ctx, `
		INSERT INTO exchange_rates (
			exchange_rate_id, from_currency_code, to_currency_code, rate, date_effective,
			created_at, created_by, last_updated_at, last_updated_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (from_currency_code, to_currency_code, date_effective) DO UPDATE SET
			rate = EXCLUDED.rate,
			last_updated_at = EXCLUDED.last_updated_at,
			last_updated_by = EXCLUDED.last_updated_by`,
		m.ExchangeRateID, m.FromCurrencyCode, m.ToCurrencyCode, m.Rate, m.DateEffective,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return mapWriteError(err, "failed to save exchange rate")
	}
	return nil
}

// FindExchangeRate retrieves the most recent rate between two currencies.
// When only the opposite direction is stored, its inverse is returned.
func (r *PgxExchangeRateRepository) FindExchangeRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error) {
	from := strings.ToUpper(fromCurrencyCode)
	to := strings.ToUpper(toCurrencyCode)

	direct, err := r.findRate(ctx, from, to)
	if err == nil {
		return direct, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	inverse, err := r.findRate(ctx, to, from)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("no exchange rate found for currency pair " + from + " to " + to)
		}
		return nil, err
	}
	inverse.FromCurrencyCode = from
	inverse.ToCurrencyCode = to
	inverse.Rate = decimal.NewFromInt(1).DivRound(inverse.Rate, 9)
	return inverse, nil
}

func (r *PgxExchangeRateRepository) findRate(ctx context.Context, from, to string) (*domain.ExchangeRate, error) {
	var m models.ExchangeRate
	err := r.Pool.QueryRow(ctx, `
		SELECT exchange_rate_id, from_currency_code, to_currency_code, rate, date_effective,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2
		ORDER BY date_effective DESC
		LIMIT 1`, from, to).Scan(
		&m.ExchangeRateID, &m.FromCurrencyCode, &m.ToCurrencyCode, &m.Rate, &m.DateEffective,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, mapReadError(err, "exchange rate")
	}
	d := mapping.ToDomainExchangeRate(m)
	return &d, nil
}
