package dto

import (
	"time"

	"github.com/SscSPs/expense_approval_app/internal/core/domain"
)

// ApproveExpenseRequest carries an optional comment for an approval.
type ApproveExpenseRequest struct {
	Comments string `json:"comments" binding:"max=1000"`
}

// RejectExpenseRequest carries the mandatory rejection reason.
type RejectExpenseRequest struct {
	Comments string `json:"comments" binding:"required,notblank,max=1000"`
}

// ApprovalHistoryEntryResponse defines the data returned for one ledger entry.
type ApprovalHistoryEntryResponse struct {
	EntryID      string    `json:"entryID"`
	ApproverID   string    `json:"approverID"`
	ApproverName string    `json:"approverName,omitempty"`
	Action       string    `json:"action"`
	Comments     string    `json:"comments,omitempty"`
	StepNumber   int       `json:"stepNumber"`
	ActionedAt   time.Time `json:"actionedAt"`
}

// ToApprovalHistoryResponses converts ledger entries to response DTOs.
func ToApprovalHistoryResponses(entries []domain.ApprovalHistoryEntry) []ApprovalHistoryEntryResponse {
	out := make([]ApprovalHistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = ApprovalHistoryEntryResponse{
			EntryID:      e.EntryID,
			ApproverID:   e.ApproverID,
			ApproverName: e.ApproverName,
			Action:       string(e.Action),
			Comments:     e.Comments,
			StepNumber:   e.StepNumber,
			ActionedAt:   e.ActionedAt,
		}
	}
	return out
}
