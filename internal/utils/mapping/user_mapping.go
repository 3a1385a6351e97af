package mapping

import (
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/SscSPs/expense_approval_app/internal/models"
)

// ToDomainUser converts a model User to a domain User
func ToDomainUser(m models.User) domain.User {
	return domain.User{
		UserID:            m.UserID,
		CompanyID:         m.CompanyID,
		Name:              m.Name,
		Email:             m.Email,
		Role:              domain.UserRole(m.Role),
		ManagerID:         fromNullString(m.ManagerID),
		IsManagerApprover: m.IsManagerApprover,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}

// ToDomainUserSlice converts a slice of model Users to a slice of domain Users
func ToDomainUserSlice(ms []models.User) []domain.User {
	ds := make([]domain.User, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainUser(m)
	}
	return ds
}
