package dto

import (
	"time"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// RuleApproverRequest names one approver of a rule.
type RuleApproverRequest struct {
	UserID        string `json:"userID" binding:"required,uuid"`
	SequenceOrder int    `json:"sequenceOrder" binding:"omitempty,min=1"`
	IsRequired    bool   `json:"isRequired"`
}

// CreateApprovalRuleRequest defines the structure for creating an approval rule.
type CreateApprovalRuleRequest struct {
	Name                  string                `json:"name" binding:"required,notblank,max=255"`
	Description           string                `json:"description" binding:"max=1000"`
	UseApproverSequence   bool                  `json:"useApproverSequence"`
	HasSpecificApprover   bool                  `json:"hasSpecificApprover"`
	SpecificApproverID    *string               `json:"specificApproverID" binding:"omitempty,uuid"`
	MinApprovalPercentage *decimal.Decimal      `json:"minApprovalPercentage"`
	IsHybrid              bool                  `json:"isHybrid"`
	IsDefault             bool                  `json:"isDefault"`
	Approvers             []RuleApproverRequest `json:"approvers" binding:"dive"`
}

// UpdateApprovalRuleRequest is a partial update; omitted fields stay unchanged.
// The Clear flags reset nullable fields.
type UpdateApprovalRuleRequest struct {
	Name                       *string          `json:"name" binding:"omitempty,notblank,max=255"`
	Description                *string          `json:"description" binding:"omitempty,max=1000"`
	IsActive                   *bool            `json:"isActive"`
	UseApproverSequence        *bool            `json:"useApproverSequence"`
	MinApprovalPercentage      *decimal.Decimal `json:"minApprovalPercentage"`
	ClearMinApprovalPercentage bool             `json:"clearMinApprovalPercentage"`
	HasSpecificApprover        *bool            `json:"hasSpecificApprover"`
	SpecificApproverID         *string          `json:"specificApproverID" binding:"omitempty,uuid"`
	ClearSpecificApprover      bool             `json:"clearSpecificApprover"`
	IsHybrid                   *bool            `json:"isHybrid"`
}

// ToPatch converts the request into a domain patch.
func (r UpdateApprovalRuleRequest) ToPatch() domain.ApprovalRulePatch {
	return domain.ApprovalRulePatch{
		Name:                       r.Name,
		Description:                r.Description,
		IsActive:                   r.IsActive,
		UseApproverSequence:        r.UseApproverSequence,
		MinApprovalPercentage:      r.MinApprovalPercentage,
		ClearMinApprovalPercentage: r.ClearMinApprovalPercentage,
		HasSpecificApprover:        r.HasSpecificApprover,
		SpecificApproverID:         r.SpecificApproverID,
		ClearSpecificApprover:      r.ClearSpecificApprover,
		IsHybrid:                   r.IsHybrid,
	}
}

// LinkRuleRequest links an approval rule to an expense.
type LinkRuleRequest struct {
	RuleID string `json:"ruleID" binding:"required,uuid"`
}

// RuleApproverResponse defines the data returned for a rule approver.
type RuleApproverResponse struct {
	UserID        string `json:"userID"`
	UserName      string `json:"userName,omitempty"`
	SequenceOrder int    `json:"sequenceOrder"`
	IsRequired    bool   `json:"isRequired"`
}

// ApprovalRuleResponse defines the data returned for an approval rule.
type ApprovalRuleResponse struct {
	RuleID                string                 `json:"ruleID"`
	Name                  string                 `json:"name"`
	Description           string                 `json:"description,omitempty"`
	UseApproverSequence   bool                   `json:"useApproverSequence"`
	HasSpecificApprover   bool                   `json:"hasSpecificApprover"`
	SpecificApproverID    *string                `json:"specificApproverID,omitempty"`
	MinApprovalPercentage *decimal.Decimal       `json:"minApprovalPercentage,omitempty"`
	IsHybrid              bool                   `json:"isHybrid"`
	IsActive              bool                   `json:"isActive"`
	IsDefault             bool                   `json:"isDefault"`
	Approvers             []RuleApproverResponse `json:"approvers"`
	CreatedAt             time.Time              `json:"createdAt"`
	LastUpdatedAt         time.Time              `json:"lastUpdatedAt"`
}

// ToApprovalRuleResponse converts a rule and its approvers to a response DTO.
func ToApprovalRuleResponse(rule *domain.ApprovalRule, approvers []domain.RuleApprover) ApprovalRuleResponse {
	resp := ApprovalRuleResponse{
		RuleID:                rule.RuleID,
		Name:                  rule.Name,
		Description:           rule.Description,
		UseApproverSequence:   rule.UseApproverSequence,
		HasSpecificApprover:   rule.HasSpecificApprover,
		SpecificApproverID:    rule.SpecificApproverID,
		MinApprovalPercentage: rule.MinApprovalPercentage,
		IsHybrid:              rule.IsHybrid,
		IsActive:              rule.IsActive,
		IsDefault:             rule.IsDefault,
		Approvers:             make([]RuleApproverResponse, len(approvers)),
		CreatedAt:             rule.CreatedAt,
		LastUpdatedAt:         rule.LastUpdatedAt,
	}
	for i, a := range approvers {
		resp.Approvers[i] = RuleApproverResponse{
			UserID:        a.UserID,
			UserName:      a.UserName,
			SequenceOrder: a.SequenceOrder,
			IsRequired:    a.IsRequired,
		}
	}
	return resp
}
