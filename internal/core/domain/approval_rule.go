package domain

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ApprovalRule is a company-configured condition an expense must meet to be fully approved.
// The flags are independently settable; in intended use a rule is exactly one of
// sequential, specific-approver-only, percentage-only or hybrid.
type ApprovalRule struct {
	RuleID                string           `json:"ruleID"`
	CompanyID             string           `json:"companyID"`
	Name                  string           `json:"name"`
	Description           string           `json:"description"`
	UseApproverSequence   bool             `json:"useApproverSequence"`
	HasSpecificApprover   bool             `json:"hasSpecificApprover"`
	SpecificApproverID    *string          `json:"specificApproverID,omitempty"`
	MinApprovalPercentage *decimal.Decimal `json:"minApprovalPercentage,omitempty"` // 0-100, nil when unused
	IsHybrid              bool             `json:"isHybrid"`
	IsActive              bool             `json:"isActive"`
	IsDefault             bool             `json:"isDefault"`
	AuditFields
}

// RuleApprover is one configured approver of a rule. SequenceOrder defines the chain for sequential rules.
type RuleApprover struct {
	RuleID        string `json:"ruleID"`
	UserID        string `json:"userID"`
	UserName      string `json:"userName,omitempty"`
	SequenceOrder int    `json:"sequenceOrder"`
	IsRequired    bool   `json:"isRequired"`
}

// Validate checks the rule definition at the API boundary.
func (r ApprovalRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("rule name is required")
	}
	if r.MinApprovalPercentage != nil {
		if r.MinApprovalPercentage.IsNegative() || r.MinApprovalPercentage.GreaterThan(hundred) {
			return errors.New("minimum approval percentage must be between 0 and 100")
		}
	}
	if r.HasSpecificApprover && (r.SpecificApproverID == nil || *r.SpecificApproverID == "") {
		return errors.New("specific approver is required when hasSpecificApprover is set")
	}
	return nil
}

// ApprovalRulePatch lists the mutable fields of an ApprovalRule. Nil pointers leave a field unchanged;
// the Clear flags reset the nullable fields.
type ApprovalRulePatch struct {
	Name                       *string
	Description                *string
	IsActive                   *bool
	UseApproverSequence        *bool
	MinApprovalPercentage      *decimal.Decimal
	ClearMinApprovalPercentage bool
	HasSpecificApprover        *bool
	SpecificApproverID         *string
	ClearSpecificApprover      bool
	IsHybrid                   *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p ApprovalRulePatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.IsActive == nil &&
		p.UseApproverSequence == nil && p.MinApprovalPercentage == nil && !p.ClearMinApprovalPercentage &&
		p.HasSpecificApprover == nil && p.SpecificApproverID == nil && !p.ClearSpecificApprover &&
		p.IsHybrid == nil
}

// ChangesEvaluation reports whether the patch touches anything other than the name or description,
// i.e. whether applying it can change how linked expenses are decided.
func (p ApprovalRulePatch) ChangesEvaluation() bool {
	return p.IsActive != nil || p.UseApproverSequence != nil ||
		p.MinApprovalPercentage != nil || p.ClearMinApprovalPercentage ||
		p.HasSpecificApprover != nil || p.SpecificApproverID != nil || p.ClearSpecificApprover ||
		p.IsHybrid != nil
}

// Apply copies the patch onto rule.
func (p ApprovalRulePatch) Apply(rule *ApprovalRule) {
	if p.Name != nil {
		rule.Name = *p.Name
	}
	if p.Description != nil {
		rule.Description = *p.Description
	}
	if p.IsActive != nil {
		rule.IsActive = *p.IsActive
	}
	if p.UseApproverSequence != nil {
		rule.UseApproverSequence = *p.UseApproverSequence
	}
	if p.ClearMinApprovalPercentage {
		rule.MinApprovalPercentage = nil
	} else if p.MinApprovalPercentage != nil {
		pct := *p.MinApprovalPercentage
		rule.MinApprovalPercentage = &pct
	}
	if p.HasSpecificApprover != nil {
		rule.HasSpecificApprover = *p.HasSpecificApprover
	}
	if p.ClearSpecificApprover {
		rule.SpecificApproverID = nil
	} else if p.SpecificApproverID != nil {
		id := *p.SpecificApproverID
		rule.SpecificApproverID = &id
	}
	if p.IsHybrid != nil {
		rule.IsHybrid = *p.IsHybrid
	}
}
