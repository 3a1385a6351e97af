package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/expense_approval_app/internal/core/ports/services"
	"github.com/SscSPs/expense_approval_app/internal/dto"
	"github.com/SscSPs/expense_approval_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// expenseHandler handles HTTP requests related to expense drafts and submission.
type expenseHandler struct {
	expenseService portssvc.ExpenseSvcFacade
}

func newExpenseHandler(es portssvc.ExpenseSvcFacade) *expenseHandler {
	return &expenseHandler{expenseService: es}
}

// RegisterExpenseRoutes registers routes related to expenses.
func RegisterExpenseRoutes(rg *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade) {
	registerValidators()
	h := newExpenseHandler(expenseService)

	expenses := rg.Group("/expenses")
	{
		expenses.POST("", h.createExpense)
		expenses.GET("", h.listMyExpenses)
		expenses.GET("/:expenseID", h.getExpense)
		expenses.POST("/:expenseID/submit", h.submitExpense)
	}
}

// createExpense godoc
// @Summary Create an expense draft
// @Description Creates a draft expense owned by the logged-in user
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid input format or validation error"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to create expense"
// @Security BearerAuth
// @Router /expenses [post]
func (h *expenseHandler) createExpense(c *gin.Context) {
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	expense, err := h.expenseService.CreateExpense(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "Failed to create expense")
		return
	}
	c.JSON(http.StatusCreated, dto.ToExpenseResponse(expense))
}

// listMyExpenses godoc
// @Summary List my expenses
// @Description Lists the logged-in user's expenses, newest first
// @Tags expenses
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token of the next page"
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Failed to list expenses"
// @Security BearerAuth
// @Router /expenses [get]
func (h *expenseHandler) listMyExpenses(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	var params dto.ListExpensesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}

	expenses, next, err := h.expenseService.ListMyExpenses(c.Request.Context(), userID, params)
	if err != nil {
		respondError(c, err, "Failed to list expenses")
		return
	}
	c.JSON(http.StatusOK, dto.ListExpensesResponse{Expenses: dto.ToExpenseResponses(expenses), NextToken: next})
}

// getExpense godoc
// @Summary Get an expense
// @Tags expenses
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Expense not found"
// @Security BearerAuth
// @Router /expenses/{expenseID} [get]
func (h *expenseHandler) getExpense(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	expense, err := h.expenseService.GetExpense(c.Request.Context(), c.Param("expenseID"), userID)
	if err != nil {
		respondError(c, err, "Failed to retrieve expense")
		return
	}
	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// submitExpense godoc
// @Summary Submit an expense for approval
// @Description Moves a draft into the approval workflow. Employees with an approving manager go to their manager first.
// @Tags expenses
// @Produce  json
// @Param   expenseID path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 403 {object} map[string]string "Not the owner of the expense"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 409 {object} map[string]string "Expense is not a draft"
// @Failure 422 {object} map[string]string "Exchange rate unavailable"
// @Security BearerAuth
// @Router /expenses/{expenseID}/submit [post]
func (h *expenseHandler) submitExpense(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	expenseID := c.Param("expenseID")

	expense, err := h.expenseService.SubmitExpense(c.Request.Context(), expenseID, userID)
	if err != nil {
		respondError(c, err, "Failed to submit expense")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Expense submitted",
		slog.String("expense_id", expenseID), slog.String("status", string(expense.Status)))
	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}
