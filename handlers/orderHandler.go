package handlers

import (
	"net/http"

	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/workflow"
	"github.com/gin-gonic/gin"
)

func ListOrders(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	params := listParams(c)
	filter := models.OrderListFilter{
		TypeCode:  models.OrderTypeCode(c.Query("type_code")),
		FactoryId: queryId(c, "factory_id"),
		StatusId:  queryId(c, "status_id"),
	}
	orders, total, err := models.ListOrders(c.Request.Context(), workspaceId, filter, params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, orders, total, params)
}

func GetOrder(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	order, err := models.GetOrderWithItems(c.Request.Context(), workspaceId, pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func CreateOrder(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	order, err := models.CreateOrder(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func DeleteOrder(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	if err := models.DeleteOrder(c.Request.Context(), workspaceId, pathId(c, "id"), userId); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

/* status transitions */

// AdvanceOrder moves the order one step forward along its workflow,
// posting any stock side effects of the boundary it crosses.
func AdvanceOrder(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	order, err := workflow.AdvanceOrder(c.Request.Context(), workspaceId, pathId(c, "id"), userId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type revertOrderInput struct {
	TargetStatusId int `json:"target_status_id" binding:"required"`
}

// RevertOrder moves the order back along an allowed revert edge,
// compensating any stock postings the forward path made.
func RevertOrder(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input revertOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	order, err := workflow.RevertOrder(c.Request.Context(), workspaceId, pathId(c, "id"), input.TargetStatusId, userId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type setStatusInput struct {
	StatusId int `json:"status_id" binding:"required"`
}

// SetOrderStatus pins the order to any status of its workflow without
// posting side effects. A repair tool, gated by its own permission.
func SetOrderStatus(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input setStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	order, err := workflow.SetOrderStatus(c.Request.Context(), workspaceId, pathId(c, "id"), input.StatusId, userId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

/* line approvals */

type approvalInput struct {
	Field string `json:"field" binding:"required"`
	Value *bool  `json:"value" binding:"required"`
}

// FlipOrderItemApproval sets one approval flag on an order line. The
// audit trail row is written in the same unit of work.
func FlipOrderItemApproval(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input approvalInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	item, err := models.FlipOrderItemApproval(c.Request.Context(), workspaceId, pathId(c, "itemId"), input.Field, *input.Value, userId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func ListOrderPartLogs(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	params := listParams(c)
	logs, total, err := models.ListOrderPartLogs(c.Request.Context(), workspaceId, pathId(c, "id"), params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, logs, total, params)
}
