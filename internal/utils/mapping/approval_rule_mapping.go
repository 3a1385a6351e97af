package mapping

import (
	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/SscSPs/expense_approval_app/internal/models"
	"github.com/shopspring/decimal"
)

// ToModelApprovalRule converts a domain ApprovalRule to a model ApprovalRule
func ToModelApprovalRule(d domain.ApprovalRule) models.ApprovalRule {
	m := models.ApprovalRule{
		RuleID:              d.RuleID,
		CompanyID:           d.CompanyID,
		Name:                d.Name,
		Description:         d.Description,
		UseApproverSequence: d.UseApproverSequence,
		HasSpecificApprover: d.HasSpecificApprover,
		SpecificApproverID:  toNullString(d.SpecificApproverID),
		IsHybrid:            d.IsHybrid,
		IsActive:            d.IsActive,
		IsDefault:           d.IsDefault,
		AuditFields:         ToModelAuditFields(d.AuditFields),
	}
	if d.MinApprovalPercentage != nil {
		m.MinApprovalPercentage = decimal.NewNullDecimal(*d.MinApprovalPercentage)
	}
	return m
}

// ToDomainApprovalRule converts a model ApprovalRule to a domain ApprovalRule
func ToDomainApprovalRule(m models.ApprovalRule) domain.ApprovalRule {
	d := domain.ApprovalRule{
		RuleID:              m.RuleID,
		CompanyID:           m.CompanyID,
		Name:                m.Name,
		Description:         m.Description,
		UseApproverSequence: m.UseApproverSequence,
		HasSpecificApprover: m.HasSpecificApprover,
		SpecificApproverID:  fromNullString(m.SpecificApproverID),
		IsHybrid:            m.IsHybrid,
		IsActive:            m.IsActive,
		IsDefault:           m.IsDefault,
		AuditFields:         ToDomainAuditFields(m.AuditFields),
	}
	if m.MinApprovalPercentage.Valid {
		pct := m.MinApprovalPercentage.Decimal
		d.MinApprovalPercentage = &pct
	}
	return d
}
