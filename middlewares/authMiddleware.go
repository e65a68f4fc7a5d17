package middlewares

import (
	"strings"

	"bitbucket.org/fabworks/mfg_backend/models"
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the bearer token and stores the caller's
// identity on the request context. Requests without a token pass
// through; RequireAuth is the gate for protected routes.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" {
			c.Next()
			return
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			AbortProblem(c, models.ErrAuthentication)
			return
		}

		claims, err := utils.JwtValidate(auth[len(bearer):])
		if err != nil || claims.Kind != utils.TokenKindAccess {
			AbortProblem(c, models.ErrAuthentication)
			return
		}

		ctx := utils.SetUserIdInContext(c.Request.Context(), claims.UserId)
		ctx = utils.SetTokenInContext(ctx, auth[len(bearer):])
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireAuth rejects requests that did not authenticate.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			AbortProblem(c, models.ErrAuthentication)
			return
		}
		c.Next()
	}
}
