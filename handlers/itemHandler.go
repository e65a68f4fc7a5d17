package handlers

import (
	"net/http"

	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"github.com/gin-gonic/gin"
)

func ListItems(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	params := listParams(c)
	items, total, err := models.ListResource[models.Item](c.Request.Context(), params, models.MaxReferenceListLimit, true)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	renderPage(c, items, total, params)
}

func GetItem(c *gin.Context) {
	if _, _, ok := accessContext(c); !ok {
		return
	}
	item, err := models.GetResource[models.Item](c.Request.Context(), pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func CreateItem(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewItem
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	item, err := models.CreateItem(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func UpdateItem(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.UpdateItem
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	item, err := models.UpdateItemById(c.Request.Context(), workspaceId, pathId(c, "id"), userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func DeleteItem(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	if err := models.DeleteItem(c.Request.Context(), workspaceId, pathId(c, "id"), userId); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

/* item tags */

func ListItemTags(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	tags, err := models.ListItemTags(c.Request.Context(), workspaceId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func CreateItemTag(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewItemTag
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	tag, err := models.CreateItemTag(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func AssignItemTag(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	err := models.AssignItemTag(c.Request.Context(), workspaceId, userId, pathId(c, "id"), pathId(c, "itemId"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func UnassignItemTag(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	err := models.UnassignItemTag(c.Request.Context(), workspaceId, pathId(c, "id"), pathId(c, "itemId"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func TagsForItem(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	tags, err := models.TagsForItem(c.Request.Context(), workspaceId, pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func ToggleItemActive(c *gin.Context) {
	toggleActive[models.Item](c)
}
