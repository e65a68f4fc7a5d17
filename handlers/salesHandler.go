package handlers

import (
	"net/http"

	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/workflow"
	"github.com/gin-gonic/gin"
)

func ListSalesOrders(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	params := listParams(c)
	orders, total, err := models.ListSalesOrders(c.Request.Context(), params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, orders, total, params)
}

func GetSalesOrder(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	order, err := models.GetSalesOrderWithItems(c.Request.Context(), workspaceId, pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func CreateSalesOrder(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewSalesOrder
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	order, err := models.CreateSalesOrder(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

/* deliveries */

func ListSalesDeliveries(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	params := listParams(c)
	deliveries, total, err := models.ListSalesDeliveries(c.Request.Context(), workspaceId, queryId(c, "sales_order_id"), params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, deliveries, total, params)
}

func GetSalesDelivery(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	delivery, err := models.GetSalesDeliveryWithItems(c.Request.Context(), workspaceId, pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}

// CreateSalesDelivery stages a draft delivery against a sales order. No
// stock moves until the delivery is confirmed.
func CreateSalesDelivery(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewSalesDelivery
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	delivery, err := models.CreateSalesDelivery(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, delivery)
}

// ConfirmSalesDelivery posts the delivery: finished goods leave the
// inventory ledger and the sales order's delivered balances move.
func ConfirmSalesDelivery(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	delivery, err := workflow.ConfirmDelivery(c.Request.Context(), workspaceId, pathId(c, "id"), userId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, delivery)
}
