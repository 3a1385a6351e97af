package mapping

import (
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/SscSPs/expense_approval_app/internal/models"
)

// ToDomainCompany converts a model Company to a domain Company
func ToDomainCompany(m models.Company) domain.Company {
	return domain.Company{
		CompanyID:    m.CompanyID,
		Name:         m.Name,
		CurrencyCode: m.CurrencyCode,
		Country:      m.Country,
		AuditFields:  ToDomainAuditFields(m.AuditFields),
	}
}
