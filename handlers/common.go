package handlers

import (
	"net/http"
	"strconv"

	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/gin-gonic/gin"
)

// pagedResponse is the list envelope every collection endpoint returns.
type pagedResponse struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Skip  int   `json:"skip"`
	Limit int   `json:"limit"`
}

func renderPage(c *gin.Context, items any, total int64, params models.ListParams) {
	c.JSON(http.StatusOK, pagedResponse{
		Items: items,
		Total: total,
		Skip:  params.Skip,
		Limit: params.Limit,
	})
}

func listParams(c *gin.Context) models.ListParams {
	skip, _ := strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	return models.ListParams{
		Skip:           skip,
		Limit:          limit,
		IncludeDeleted: c.Query("include_deleted") == "true",
	}
}

// pathId parses a positive integer path parameter; zero is returned on
// anything else and handlers pass it straight into the model layer,
// which answers with not found.
func pathId(c *gin.Context, name string) int {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func queryId(c *gin.Context, name string) int {
	id, _ := strconv.Atoi(c.Query(name))
	if id < 0 {
		return 0
	}
	return id
}

type toggleActiveInput struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// toggleActive flips the is_active flag on one catalog row.
func toggleActive[T models.Resource](c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	var input toggleActiveInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	row, err := models.ToggleActive[T](c.Request.Context(), workspaceId, pathId(c, "id"), *input.IsActive)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

// accessContext pulls the resolved workspace and caller off the request.
// Both are guaranteed by the workspace middleware on every /api route.
func accessContext(c *gin.Context) (workspaceId int, userId int, ok bool) {
	ctx := c.Request.Context()
	workspaceId, wok := utils.GetWorkspaceIdFromContext(ctx)
	userId, uok := utils.GetUserIdFromContext(ctx)
	if !wok || !uok {
		middlewares.AbortProblem(c, models.ErrAuthentication)
		return 0, 0, false
	}
	return workspaceId, userId, true
}
