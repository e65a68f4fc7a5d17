package middlewares

import (
	"strconv"

	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/gin-gonic/gin"
)

// WorkspaceMiddleware resolves the caller's declared workspace into an
// access context. It is the only place the active workspace id enters
// the request context, so every query below it is scoped to a workspace
// the caller really belongs to.
func WorkspaceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Request.Header.Get("X-Workspace-Id")
		if header == "" {
			AbortProblem(c, models.ErrUnknownWorkspace)
			return
		}
		workspaceId, err := strconv.Atoi(header)
		if err != nil || workspaceId <= 0 {
			AbortProblem(c, models.ErrUnknownWorkspace)
			return
		}

		ctx := c.Request.Context()
		userId, ok := utils.GetUserIdFromContext(ctx)
		if !ok {
			AbortProblem(c, models.ErrAuthentication)
			return
		}

		workspace, err := models.GetWorkspace(ctx, workspaceId)
		if err != nil {
			AbortProblem(c, models.ErrUnknownWorkspace)
			return
		}
		if workspace.SubscriptionStatus == models.SubscriptionStatusSuspended ||
			workspace.SubscriptionStatus == models.SubscriptionStatusCancelled {
			AbortProblem(c, models.ErrWorkspaceSuspended)
			return
		}

		member, err := models.GetActiveMember(ctx, workspaceId, userId)
		if err != nil {
			AbortProblem(c, err)
			return
		}

		ctx = utils.SetWorkspaceIdInContext(ctx, workspaceId)
		ctx = utils.SetMemberRoleInContext(ctx, string(member.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
