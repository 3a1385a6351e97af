package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/dto"
	"github.com/SscSPs/expense_approval_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// approvalHandler handles approve/reject decisions and approval queries.
type approvalHandler struct {
	approvalService portssvc.ApprovalSvcFacade
}

func newApprovalHandler(as portssvc.ApprovalSvcFacade) *approvalHandler {
	return &approvalHandler{approvalService: as}
}

// RegisterApprovalRoutes registers the approval workflow routes.
func RegisterApprovalRoutes(rg *gin.RouterGroup, approvalService portssvc.ApprovalSvcFacade) {
	registerValidators()
	h := newApprovalHandler(approvalService)

	expenses := rg.Group("/expenses/:expenseID")
	{
		expenses.POST("/approve", h.approveExpense)
		expenses.POST("/reject", h.rejectExpense)
		expenses.GET("/history", h.getHistory)
	}
	rg.GET("/approvals/pending", h.listPending)
}

// approveExpense godoc
// @Summary Approve an expense
// @Description Records an approval by the current approver and applies the expense's approval rules
// @Tags approvals
// @Accept  json
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Param   body body dto.ApproveExpenseRequest false "Optional comments"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 403 {object} map[string]string "Not the current approver"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 409 {object} map[string]string "Expense is not pending approval"
// @Failure 422 {object} map[string]string "Exchange rate unavailable"
// @Security BearerAuth
// @Router /expenses/{expenseID}/approve [post]
func (h *approvalHandler) approveExpense(c *gin.Context) {
	var req dto.ApproveExpenseRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format", err)
			return
		}
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	expenseID := c.Param("expenseID")

	expense, err := h.approvalService.ApproveExpense(c.Request.Context(), expenseID, userID, req.Comments)
	if err != nil {
		respondError(c, err, "Failed to approve expense")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Expense approval recorded",
		slog.String("expense_id", expenseID), slog.String("status", string(expense.Status)))
	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// rejectExpense godoc
// @Summary Reject an expense
// @Description Records a rejection by the current approver. Rejection is final.
// @Tags approvals
// @Accept  json
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Param   body body dto.RejectExpenseRequest true "Rejection reason"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Comments are required"
// @Failure 403 {object} map[string]string "Not the current approver"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 409 {object} map[string]string "Expense is not pending approval"
// @Security BearerAuth
// @Router /expenses/{expenseID}/reject [post]
func (h *approvalHandler) rejectExpense(c *gin.Context) {
	var req dto.RejectExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	expense, err := h.approvalService.RejectExpense(c.Request.Context(), c.Param("expenseID"), userID, req.Comments)
	if err != nil {
		respondError(c, err, "Failed to reject expense")
		return
	}
	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// getHistory godoc
// @Summary Get the approval history of an expense
// @Tags approvals
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Success 200 {array} dto.ApprovalHistoryEntryResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Expense not found"
// @Security BearerAuth
// @Router /expenses/{expenseID}/history [get]
func (h *approvalHandler) getHistory(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	entries, err := h.approvalService.GetApprovalHistory(c.Request.Context(), c.Param("expenseID"), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve approval history")
		return
	}
	c.JSON(http.StatusOK, dto.ToApprovalHistoryResponses(entries))
}

// listPending godoc
// @Summary List expenses waiting on me
// @Tags approvals
// @Produce  json
// @Success 200 {array} dto.ExpenseResponse
// @Security BearerAuth
// @Router /approvals/pending [get]
func (h *approvalHandler) listPending(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	expenses, err := h.approvalService.ListPendingApprovals(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, "Failed to list pending approvals")
		return
	}
	c.JSON(http.StatusOK, dto.ToExpenseResponses(expenses))
}
