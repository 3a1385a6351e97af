package pgsql

import (
	"context"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/expense_approval_app/internal/core/ports/repositories"
	"github.com/SscSPs/expense_approval_app/internal/models"
	"github.com/SscSPs/expense_approval_app/internal/utils/mapping"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxCompanyRepository struct {
	BaseRepository
}

func newPgxCompanyRepository(pool *pgxpool.Pool) portsrepo.CompanyRepositoryFacade {
	return &PgxCompanyRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.CompanyRepositoryFacade = (*PgxCompanyRepository)(nil)

// FindCompanyByID retrieves a company by its ID.
func (r *PgxCompanyRepository) FindCompanyByID(ctx context.Context, companyID string) (*domain.Company, error) {
	var m models.Company
	err := r.Pool.QueryRow(ctx, `
		SELECT company_id, name, currency_code, country, created_at, created_by, last_updated_at, last_updated_by, version
		FROM companies WHERE company_id = $1`, companyID).Scan(
		&m.CompanyID, &m.Name, &m.CurrencyCode, &m.Country,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy, &m.Version,
	)
	if err != nil {
		return nil, mapReadError(err, "company "+companyID)
	}
	c := mapping.ToDomainCompany(m)
	return &c, nil
}
