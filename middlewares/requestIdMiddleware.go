package middlewares

import (
	"bitbucket.org/fabworks/mfg_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIdMiddleware echoes X-Request-Id on every response, minting one
// when the caller did not send it.
func RequestIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.Request.Header.Get("X-Request-Id")
		if requestId == "" {
			requestId = uuid.New().String()
		}
		c.Writer.Header().Set("X-Request-Id", requestId)

		ctx := utils.SetRequestIdInContext(c.Request.Context(), requestId)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
