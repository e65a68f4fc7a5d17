package middlewares

import (
	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/gin-gonic/gin"
)

// RequirePermission gates a route behind a permission grant. Grants are
// closed world, so a role with no matching row is denied. The workspace
// owner keeps a built-in exception for workspace administration targets.
func RequirePermission(accessType models.AccessType, target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		workspaceId, ok := utils.GetWorkspaceIdFromContext(ctx)
		if !ok {
			AbortProblem(c, models.ErrUnknownWorkspace)
			return
		}
		roleValue, ok := utils.GetMemberRoleFromContext(ctx)
		if !ok {
			AbortProblem(c, models.ErrAuthentication)
			return
		}
		role := models.MemberRole(roleValue)

		if models.IsWorkspaceAdminOp(role, target) {
			c.Next()
			return
		}

		allowed, err := models.Permit(ctx, workspaceId, role, accessType, target)
		if err != nil {
			AbortProblem(c, err)
			return
		}
		if !allowed {
			AbortProblem(c, models.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequirePage is shorthand for the common page access check.
func RequirePage(target string) gin.HandlerFunc {
	return RequirePermission(models.AccessTypePage, target)
}
