package handlers

import (
	"net/http"

	"bitbucket.org/fabworks/mfg_backend/middlewares"
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/gin-gonic/gin"
)

// GetCurrentWorkspace returns the workspace the request is scoped to.
func GetCurrentWorkspace(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	workspace, err := models.GetWorkspace(c.Request.Context(), workspaceId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, workspace)
}

func CreateWorkspace(c *gin.Context) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok {
		middlewares.RenderProblem(c, models.ErrAuthentication)
		return
	}
	var input models.NewWorkspace
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	workspace, err := models.CreateWorkspace(c.Request.Context(), userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, workspace)
}

func UpdateWorkspaceSettings(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.UpdateWorkspace
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	workspace, err := models.UpdateWorkspaceSettings(c.Request.Context(), workspaceId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, workspace)
}

type changePlanInput struct {
	SubscriptionPlanId int `json:"subscription_plan_id" binding:"required"`
}

func ChangeSubscriptionPlan(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	var input changePlanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	workspace, err := models.ChangeSubscriptionPlan(c.Request.Context(), workspaceId, input.SubscriptionPlanId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, workspace)
}

// ListMyWorkspaces lists every workspace the caller is an active member
// of, for the workspace picker.
func ListMyWorkspaces(c *gin.Context) {
	userId, ok := utils.GetUserIdFromContext(c.Request.Context())
	if !ok {
		middlewares.RenderProblem(c, models.ErrAuthentication)
		return
	}
	workspaces, err := models.ListWorkspacesForProfile(c.Request.Context(), userId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, workspaces)
}

/* invitations */

func InviteMember(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewInvitation
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	invitation, err := models.InviteMember(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, invitation)
}

func CancelInvitation(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	if err := models.CancelInvitation(c.Request.Context(), workspaceId, pathId(c, "id")); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func ListInvitations(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	invitations, err := models.ListInvitations(c.Request.Context(), workspaceId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, invitations)
}

/* members */

func ListMembers(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	members, err := models.ListWorkspaceMembers(c.Request.Context(), workspaceId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

func RemoveMember(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	if err := models.RemoveWorkspaceMember(c.Request.Context(), workspaceId, pathId(c, "id")); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func SuspendMember(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	member, err := models.SuspendWorkspaceMember(c.Request.Context(), workspaceId, pathId(c, "id"))
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

/* permissions */

func GrantAccess(c *gin.Context) {
	workspaceId, userId, ok := accessContext(c)
	if !ok {
		return
	}
	var input models.NewAccessControl
	if err := c.ShouldBindJSON(&input); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	grant, err := models.GrantAccess(c.Request.Context(), workspaceId, userId, &input)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusCreated, grant)
}

func RevokeAccess(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	if err := models.RevokeAccess(c.Request.Context(), workspaceId, pathId(c, "id")); err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func ListAccessControls(c *gin.Context) {
	workspaceId, _, ok := accessContext(c)
	if !ok {
		return
	}
	grants, err := models.ListAccessControls(c.Request.Context(), workspaceId)
	if err != nil {
		middlewares.RenderProblem(c, err)
		return
	}
	c.JSON(http.StatusOK, grants)
}
