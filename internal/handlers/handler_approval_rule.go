package handlers

import (
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/dto"
	"github.com/gin-gonic/gin"
)

// approvalRuleHandler handles the admin API for approval rules.
type approvalRuleHandler struct {
	ruleService portssvc.ApprovalRuleSvcFacade
}

func newApprovalRuleHandler(rs portssvc.ApprovalRuleSvcFacade) *approvalRuleHandler {
	return &approvalRuleHandler{ruleService: rs}
}

// RegisterApprovalRuleRoutes registers routes related to approval rules.
func RegisterApprovalRuleRoutes(rg *gin.RouterGroup, ruleService portssvc.ApprovalRuleSvcFacade) {
	registerValidators()
	h := newApprovalRuleHandler(ruleService)

	rules := rg.Group("/approval-rules")
	{
		rules.POST("", h.createRule)
		rules.GET("", h.listRules)
		rules.GET("/:ruleID", h.getRule)
		rules.PATCH("/:ruleID", h.updateRule)
		rules.DELETE("/:ruleID", h.deleteRule)
		rules.POST("/:ruleID/approvers", h.addApprover)
		rules.DELETE("/:ruleID/approvers/:userID", h.removeApprover)
		rules.POST("/:ruleID/default", h.setDefault)
	}
	rg.POST("/expenses/:expenseID/rules", h.linkRule)
}

func toRuleResponse(r *portssvc.ApprovalRuleWithApprovers) dto.ApprovalRuleResponse {
	return dto.ToApprovalRuleResponse(&r.Rule, r.Approvers)
}

// createRule godoc
// @Summary Create an approval rule
// @Description Creates an approval rule with its approvers for the admin's company
// @Tags approval rules
// @Accept  json
// @Produce  json
// @Param   rule body dto.CreateApprovalRuleRequest true "Rule definition"
// @Success 201 {object} dto.ApprovalRuleResponse
// @Failure 400 {object} map[string]string "Invalid rule definition"
// @Failure 403 {object} map[string]string "Admin only"
// @Security BearerAuth
// @Router /approval-rules [post]
func (h *approvalRuleHandler) createRule(c *gin.Context) {
	var req dto.CreateApprovalRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rule, err := h.ruleService.CreateRule(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create approval rule")
		return
	}
	c.JSON(http.StatusCreated, toRuleResponse(rule))
}

// listRules godoc
// @Summary List approval rules
// @Tags approval rules
// @Produce  json
// @Param   includeInactive query bool false "Include deactivated rules"
// @Success 200 {array} dto.ApprovalRuleResponse
// @Security BearerAuth
// @Router /approval-rules [get]
func (h *approvalRuleHandler) listRules(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	includeInactive, _ := strconv.ParseBool(c.Query("includeInactive"))

	rules, err := h.ruleService.ListRules(c.Request.Context(), userID, includeInactive)
	if err != nil {
		respondError(c, err, "Failed to list approval rules")
		return
	}
	out := make([]dto.ApprovalRuleResponse, len(rules))
	for i := range rules {
		out[i] = toRuleResponse(&rules[i])
	}
	c.JSON(http.StatusOK, out)
}

// getRule godoc
// @Summary Get an approval rule
// @Tags approval rules
// @Produce  json
// @Param   ruleID path string true "Rule ID"
// @Success 200 {object} dto.ApprovalRuleResponse
// @Failure 404 {object} map[string]string "Rule not found"
// @Security BearerAuth
// @Router /approval-rules/{ruleID} [get]
func (h *approvalRuleHandler) getRule(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rule, err := h.ruleService.GetRule(c.Request.Context(), c.Param("ruleID"), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve approval rule")
		return
	}
	c.JSON(http.StatusOK, toRuleResponse(rule))
}

// updateRule godoc
// @Summary Update an approval rule
// @Description Partial update; omitted fields are left unchanged
// @Tags approval rules
// @Accept  json
// @Produce  json
// @Param   ruleID path string true "Rule ID"
// @Param   rule body dto.UpdateApprovalRuleRequest true "Fields to change"
// @Success 200 {object} dto.ApprovalRuleResponse
// @Failure 400 {object} map[string]string "Invalid update"
// @Failure 403 {object} map[string]string "Admin only"
// @Failure 404 {object} map[string]string "Rule not found"
// @Failure 409 {object} map[string]string "Rule was modified concurrently"
// @Security BearerAuth
// @Router /approval-rules/{ruleID} [patch]
func (h *approvalRuleHandler) updateRule(c *gin.Context) {
	var req dto.UpdateApprovalRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rule, err := h.ruleService.UpdateRule(c.Request.Context(), c.Param("ruleID"), req.ToPatch(), userID)
	if err != nil {
		respondError(c, err, "Failed to update approval rule")
		return
	}
	c.JSON(http.StatusOK, toRuleResponse(rule))
}

// deleteRule godoc
// @Summary Delete an approval rule
// @Tags approval rules
// @Param   ruleID path string true "Rule ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Admin only"
// @Failure 404 {object} map[string]string "Rule not found"
// @Failure 409 {object} map[string]string "Rule is linked to open expenses"
// @Security BearerAuth
// @Router /approval-rules/{ruleID} [delete]
func (h *approvalRuleHandler) deleteRule(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.ruleService.DeleteRule(c.Request.Context(), c.Param("ruleID"), userID); err != nil {
		respondError(c, err, "Failed to delete approval rule")
		return
	}
	c.Status(http.StatusNoContent)
}

// addApprover godoc
// @Summary Add an approver to a rule
// @Tags approval rules
// @Accept  json
// @Produce  json
// @Param   ruleID path string true "Rule ID"
// @Param   approver body dto.RuleApproverRequest true "Approver"
// @Success 201 {object} dto.ApprovalRuleResponse
// @Failure 409 {object} map[string]string "Already an approver, or rule is linked to open expenses"
// @Security BearerAuth
// @Router /approval-rules/{ruleID}/approvers [post]
func (h *approvalRuleHandler) addApprover(c *gin.Context) {
	var req dto.RuleApproverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	rule, err := h.ruleService.AddApprover(c.Request.Context(), c.Param("ruleID"), req, userID)
	if err != nil {
		respondError(c, err, "Failed to add approver")
		return
	}
	c.JSON(http.StatusCreated, toRuleResponse(rule))
}

// removeApprover godoc
// @Summary Remove an approver from a rule
// @Tags approval rules
// @Param   ruleID path string true "Rule ID"
// @Param   userID path string true "Approver user ID"
// @Success 204 "No Content"
// @Failure 404 {object} map[string]string "Approver not found"
// @Failure 409 {object} map[string]string "Rule is linked to open expenses"
// @Security BearerAuth
// @Router /approval-rules/{ruleID}/approvers/{userID} [delete]
func (h *approvalRuleHandler) removeApprover(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.ruleService.RemoveApprover(c.Request.Context(), c.Param("ruleID"), c.Param("userID"), userID); err != nil {
		respondError(c, err, "Failed to remove approver")
		return
	}
	c.Status(http.StatusNoContent)
}

// setDefault godoc
// @Summary Make a rule the company default
// @Description The default rule is linked to every expense at submission
// @Tags approval rules
// @Param   ruleID path string true "Rule ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Rule is inactive"
// @Failure 404 {object} map[string]string "Rule not found"
// @Security BearerAuth
// @Router /approval-rules/{ruleID}/default [post]
func (h *approvalRuleHandler) setDefault(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.ruleService.SetDefaultRule(c.Request.Context(), c.Param("ruleID"), userID); err != nil {
		respondError(c, err, "Failed to set default approval rule")
		return
	}
	c.Status(http.StatusNoContent)
}

// linkRule godoc
// @Summary Link an approval rule to an expense
// @Tags approval rules
// @Accept  json
// @Param   expenseID path string true "Expense ID"
// @Param   link body dto.LinkRuleRequest true "Rule to link"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Rule cannot be linked"
// @Failure 403 {object} map[string]string "Admin only"
// @Failure 409 {object} map[string]string "Expense already decided"
// @Security BearerAuth
// @Router /expenses/{expenseID}/rules [post]
func (h *approvalRuleHandler) linkRule(c *gin.Context) {
	var req dto.LinkRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	if err := h.ruleService.LinkRuleToExpense(c.Request.Context(), c.Param("expenseID"), req.RuleID, userID); err != nil {
		respondError(c, err, "Failed to link approval rule")
		return
	}
	c.Status(http.StatusNoContent)
}
