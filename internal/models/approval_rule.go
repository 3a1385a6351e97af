package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// ApprovalRule is a row of approval_rules.
type ApprovalRule struct {
	RuleID                string              `db:"rule_id"`
	CompanyID             string              `db:"company_id"`
	Name                  string              `db:"name"`
	Description           string              `db:"description"`
	UseApproverSequence   bool                `db:"use_approver_sequence"`
	HasSpecificApprover   bool                `db:"has_specific_approver"`
	SpecificApproverID    sql.NullString      `db:"specific_approver_id"`
	MinApprovalPercentage decimal.NullDecimal `db:"min_approval_percentage"`
	IsHybrid              bool                `db:"is_hybrid"`
	IsActive              bool                `db:"is_active"`
	IsDefault             bool                `db:"is_default"`
	AuditFields
}
