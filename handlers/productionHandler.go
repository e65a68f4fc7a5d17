package handlers

import (
	"net/http"

	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/workflow"
	"github.com/gin-gonic/gin"
)

/* formulas */

func ListProductionFormulas(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	params := listParams(c)
	formulas, total, err := models.ListProductionFormulas(c.Request.Context(), params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, formulas, total, params)
}

func GetProductionFormula(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	formula, err := models.GetFormulaWithItems(c.Request.Context(), workspaceId, pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, formula)
}

func CreateProductionFormula(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewProductionFormula
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	formula, err := models.CreateProductionFormula(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, formula)
}

/* batches */

func ListProductionBatches(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	params := listParams(c)
	batches, total, err := models.ListProductionBatches(c.Request.Context(), workspaceId, params)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, batches, total, params)
}

func GetProductionBatch(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	batch, err := models.GetBatchWithItems(c.Request.Context(), workspaceId, pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func CreateProductionBatch(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewProductionBatch
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	batch, err := models.CreateProductionBatch(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

func StartProductionBatch(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	batch, err := models.StartBatch(c.Request.Context(), workspaceId, pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func CancelProductionBatch(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	if err := models.CancelBatch(c.Request.Context(), workspaceId, pathId(c, "id")); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type completeBatchInput struct {
	Actuals []*workflow.ActualQuantity `json:"actuals" binding:"dive"`
}

// CompleteProductionBatch books the run: inputs leave storage, outputs
// enter finished goods priced off the consumed value.
func CompleteProductionBatch(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input completeBatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	batch, err := workflow.CompleteBatch(c.Request.Context(), workspaceId, pathId(c, "id"), userId, input.Actuals)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}
